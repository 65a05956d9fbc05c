package authsession

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts session lifecycle outcomes. A nil *Metrics records nothing.
type Metrics struct {
	logins   *prometheus.CounterVec
	restores *prometheus.CounterVec
	logouts  prometheus.Counter
}

// NewMetrics registers the session counters with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "authsession",
			Name:      "logins_total",
			Help:      "Completed login attempts by result.",
		}, []string{"result"}),
		restores: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "authsession",
			Name:      "restores_total",
			Help:      "Session restore attempts by result.",
		}, []string{"result"}),
		logouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "authsession",
			Name:      "logouts_total",
			Help:      "Logouts performed.",
		}),
	}
	for _, c := range []prometheus.Collector{m.logins, m.restores, m.logouts} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) login(err error) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(resultLabel(err)).Inc()
}

func (m *Metrics) restore(err error) {
	if m == nil {
		return
	}
	m.restores.WithLabelValues(resultLabel(err)).Inc()
}

func (m *Metrics) logout() {
	if m == nil {
		return
	}
	m.logouts.Inc()
}

func resultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	if code := CodeOf(err); code != "" {
		return string(code)
	}
	return "error"
}
