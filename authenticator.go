package authsession

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// Authenticator owns the dashboard's authentication state: the current
// Session, its persistence, and the profile data derived from its claims.
//
// It is safe for concurrent use, although callers normally drive it from a
// single request or event at a time.
type Authenticator struct {
	mu        sync.RWMutex
	cfg       Config
	policy    ClaimPolicy
	locale    Localizer
	store     Store
	decode    PayloadDecoder
	clock     Clock
	logger    *slog.Logger
	metrics   *Metrics
	scheduler *Scheduler
	current   *Session
}

// Option customizes an Authenticator.
type Option func(*Authenticator)

// WithStore sets the persistence backend. Defaults to a MemoryStore.
func WithStore(store Store) Option {
	return func(a *Authenticator) {
		a.store = store
	}
}

// WithClock overrides the time source used for expiry checks.
func WithClock(clock Clock) Option {
	return func(a *Authenticator) {
		a.clock = clock
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Authenticator) {
		a.logger = logger
	}
}

// WithMetrics records lifecycle outcomes in m.
func WithMetrics(m *Metrics) Option {
	return func(a *Authenticator) {
		a.metrics = m
	}
}

// WithDecoder overrides how token payloads are decoded.
func WithDecoder(decoder PayloadDecoder) Option {
	return func(a *Authenticator) {
		a.decode = decoder
	}
}

// WithScheduler shares a scheduler whose tasks are cancelled on logout.
func WithScheduler(s *Scheduler) Option {
	return func(a *Authenticator) {
		a.scheduler = s
	}
}

// New builds an Authenticator from cfg.
func New(cfg Config, opts ...Option) (*Authenticator, error) {
	resolved, err := cfg.Resolve()
	if err != nil {
		return nil, err
	}
	locale := NewLocalizer(resolved.Locale)
	a := &Authenticator{
		cfg:    resolved,
		policy: resolved.Policy(locale.Text(MsgDefaultName)),
		locale: locale,
		decode: decoderFor(resolved.Preset),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.store == nil {
		a.store = NewMemoryStore()
	}
	if a.clock == nil {
		a.clock = systemClock{}
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	if a.scheduler == nil {
		a.scheduler = NewScheduler()
	}
	if a.decode == nil {
		a.decode = DecodePayload
	}
	a.logger = a.logger.With(slog.String("component", "authsession"))
	return a, nil
}

// Restore loads the persisted session. It fails with missing_data when nothing
// is stored, decode_error when the entries are malformed and session_expired
// when the token is past its exp; the latter two also clear the store.
func (a *Authenticator) Restore(ctx context.Context) (*Session, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	sess, err := a.restoreLocked(ctx)
	a.metrics.restore(err)
	if err != nil {
		a.current = nil
		a.logger.Info("session restore failed", slog.String("code", string(CodeOf(err))), slog.String("error", err.Error()))
		return nil, err
	}
	a.current = sess
	a.logger.Debug("session restored", slog.String("session_id", sess.ID), slog.Time("expires_at", sess.ExpiresAt))
	return sess, nil
}

func (a *Authenticator) restoreLocked(ctx context.Context) (*Session, error) {
	token, hasToken, err := a.store.Get(ctx, a.key(KeyToken))
	if err != nil {
		return nil, newError(ErrCodeStorage, err)
	}
	user, hasUser, err := a.store.Get(ctx, a.key(KeyUser))
	if err != nil {
		return nil, newError(ErrCodeStorage, err)
	}
	if !hasToken || !hasUser || token == "" || user == "" {
		return nil, newError(ErrCodeMissingData, errors.New("no stored token"))
	}

	identity, err := parseIdentity([]byte(user))
	if err != nil {
		return nil, a.discardLocked(ctx, err)
	}
	claims, err := a.decodeToken(token)
	if err != nil {
		return nil, a.discardLocked(ctx, err)
	}
	expiresAt, ok := claims.Time("exp")
	if !ok {
		return nil, a.discardLocked(ctx, newError(ErrCodeDecode, errors.New("exp claim missing")))
	}
	if !expiresAt.After(a.clock.Now()) {
		return nil, a.discardLocked(ctx, newError(ErrCodeExpired, fmt.Errorf("expired at %s", expiresAt.Format(time.RFC3339))))
	}
	return &Session{
		ID:        uuid.NewString(),
		Token:     token,
		Identity:  identity,
		ExpiresAt: expiresAt,
	}, nil
}

// BeginLogin returns the authorization URL the caller should navigate to.
// Every call carries a fresh nonce.
func (a *Authenticator) BeginLogin() (string, error) {
	target, _, err := a.BeginLoginWithNonce()
	return target, err
}

// BeginLoginWithNonce is BeginLogin that also returns the nonce it generated,
// for callers that check it with CompleteLoginWithNonce.
func (a *Authenticator) BeginLoginWithNonce() (string, string, error) {
	nonce, err := newNonce()
	if err != nil {
		return "", "", err
	}
	return AuthorizeURL(a.cfg, nonce), nonce, nil
}

// CompleteLogin turns the redirect fragment parameters into a persisted Session.
func (a *Authenticator) CompleteLogin(ctx context.Context, fragment url.Values) (*Session, error) {
	return a.CompleteLoginWithNonce(ctx, fragment, "")
}

// CompleteLoginWithNonce is CompleteLogin that rejects a token whose nonce
// claim differs from nonce. Tokens without a nonce claim are accepted.
func (a *Authenticator) CompleteLoginWithNonce(ctx context.Context, fragment url.Values, nonce string) (*Session, error) {
	sess, err := a.completeLogin(ctx, fragment, nonce)
	a.metrics.login(err)
	if err != nil {
		a.logger.Warn("login callback rejected", slog.String("code", string(CodeOf(err))), slog.String("error", err.Error()))
		return nil, err
	}
	a.logger.Info("login completed", slog.String("session_id", sess.ID), slog.String("subject", sess.Identity.Subject()))
	return sess, nil
}

func (a *Authenticator) completeLogin(ctx context.Context, fragment url.Values, nonce string) (*Session, error) {
	if code := fragment.Get("error"); code != "" {
		return nil, newError(ErrCodeProvider, fmt.Errorf("%s: %s", code, fragment.Get("error_description")))
	}
	token := strings.TrimSpace(fragment.Get("id_token"))
	if token == "" {
		return nil, newError(ErrCodeMissingData, errors.New("id_token absent from fragment"))
	}
	identity, err := a.decodeToken(token)
	if err != nil {
		return nil, err
	}
	if got := identity.String("nonce"); nonce != "" && got != "" && got != nonce {
		return nil, newError(ErrCodeProvider, errors.New("nonce mismatch"))
	}
	expiresAt, ok := identity.Time("exp")
	if !ok {
		return nil, newError(ErrCodeDecode, errors.New("exp claim missing"))
	}
	if !expiresAt.After(a.clock.Now()) {
		return nil, newError(ErrCodeExpired, errors.New("token already expired"))
	}
	user, err := encodeIdentity(identity)
	if err != nil {
		return nil, newError(ErrCodeDecode, err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.store.Set(ctx, a.key(KeyToken), token); err != nil {
		return nil, newError(ErrCodeStorage, err)
	}
	if err := a.store.Set(ctx, a.key(KeyUser), user); err != nil {
		_ = a.store.Remove(ctx, a.key(KeyToken))
		return nil, newError(ErrCodeStorage, err)
	}
	sess := &Session{
		ID:        uuid.NewString(),
		Token:     token,
		Identity:  identity,
		ExpiresAt: expiresAt,
	}
	a.current = sess
	return sess, nil
}

// Logout cancels scheduled tasks, clears the persisted and in-memory session
// and returns the provider logout URL. The URL is returned even when clearing
// the store fails.
func (a *Authenticator) Logout(ctx context.Context) (string, error) {
	a.scheduler.CancelAll()

	a.mu.Lock()
	a.current = nil
	err := a.clearLocked(ctx)
	a.mu.Unlock()

	a.metrics.logout()
	logoutURL, urlErr := LogoutURL(a.cfg)
	if urlErr != nil {
		return "", urlErr
	}
	if err != nil {
		a.logger.Error("logout could not clear store", slog.String("error", err.Error()))
		return logoutURL, err
	}
	a.logger.Info("logged out")
	return logoutURL, nil
}

// Current returns the session if it is still valid, else nil.
func (a *Authenticator) Current() *Session {
	sess, err := a.valid()
	if err != nil {
		return nil
	}
	return sess
}

// View returns the rendering model. Without a valid session every field falls back to defaults.
func (a *Authenticator) View() View {
	return a.ViewOf(a.Current())
}

// ViewOf renders sess, which may be nil, with the configured claim rules.
func (a *Authenticator) ViewOf(sess *Session) View {
	var id Identity
	if !sess.Valid(a.clock.Now()) {
		sess = nil
	}
	if sess != nil {
		id = sess.Identity
	}
	return View{
		DisplayName:  a.policy.DisplayName(id),
		Email:        a.policy.Email(id),
		Initials:     a.policy.Initials(id),
		IsAdmin:      a.policy.IsAdmin(id),
		SessionValid: sess != nil,
	}
}

// TokenSource exposes the current session token to oauth2-aware HTTP clients.
func (a *Authenticator) TokenSource() oauth2.TokenSource {
	return sessionTokenSource{auth: a}
}

// PortalURL returns the portal link carrying the session token. Admin-only
// portals fail with a forbidden error whose message is meant for the user.
func (a *Authenticator) PortalURL(p Portal) (string, error) {
	sess, err := a.valid()
	if err != nil {
		return "", err
	}
	if p.AdminOnly && !a.policy.IsAdmin(sess.Identity) {
		return "", &Error{Code: ErrCodeForbidden, Message: a.locale.Text(MsgAdminForbidden)}
	}
	u, err := url.Parse(p.URL)
	if err != nil || u.Scheme == "" {
		return "", newError(ErrCodeInvalidConfig, fmt.Errorf("portal %q url %q", p.Name, p.URL))
	}
	q := u.Query()
	q.Set("token", sess.Token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Scheduler returns the scheduler whose tasks are cancelled on logout.
func (a *Authenticator) Scheduler() *Scheduler {
	return a.scheduler
}

// Localizer returns the configured localizer.
func (a *Authenticator) Localizer() Localizer {
	return a.locale
}

// Config returns the resolved configuration.
func (a *Authenticator) Config() Config {
	return a.cfg
}

// Policy returns the claim rules in use.
func (a *Authenticator) Policy() ClaimPolicy {
	return a.policy
}

func (a *Authenticator) valid() (*Session, error) {
	a.mu.RLock()
	sess := a.current
	a.mu.RUnlock()
	if sess == nil {
		return nil, newError(ErrCodeMissingData, errors.New("no session loaded"))
	}
	if !sess.Valid(a.clock.Now()) {
		a.expire(sess)
		return nil, newError(ErrCodeExpired, fmt.Errorf("session %s expired", sess.ID))
	}
	return sess, nil
}

// expire destroys sess when it is still the current session: the in-memory
// copy, the persisted entries and every scheduled task.
func (a *Authenticator) expire(sess *Session) {
	a.mu.Lock()
	if a.current != sess {
		a.mu.Unlock()
		return
	}
	a.current = nil
	if err := a.clearLocked(context.Background()); err != nil {
		a.logger.Warn("could not clear expired session", slog.String("error", err.Error()))
	}
	a.mu.Unlock()

	a.scheduler.CancelAll()
	a.logger.Info("session expired", slog.String("session_id", sess.ID))
}

func (a *Authenticator) decodeToken(token string) (Identity, error) {
	id, err := a.decode(token)
	if err != nil {
		if CodeOf(err) == "" {
			err = newError(ErrCodeDecode, err)
		}
		return nil, err
	}
	return id, nil
}

func (a *Authenticator) key(name string) string {
	return a.cfg.Namespace + name
}

// discardLocked clears the store after a malformed or expired session and returns cause.
func (a *Authenticator) discardLocked(ctx context.Context, cause error) error {
	if err := a.clearLocked(ctx); err != nil {
		a.logger.Warn("could not clear stale session", slog.String("error", err.Error()))
	}
	return cause
}

func (a *Authenticator) clearLocked(ctx context.Context) error {
	errToken := a.store.Remove(ctx, a.key(KeyToken))
	errUser := a.store.Remove(ctx, a.key(KeyUser))
	if err := errors.Join(errToken, errUser); err != nil {
		return newError(ErrCodeStorage, err)
	}
	return nil
}
