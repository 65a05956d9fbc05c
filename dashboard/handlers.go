package dashboard

import (
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/bionicotaku/lingo-utils-authsession"
	"github.com/gin-gonic/gin"
)

const callbackTemplateName = "callback.html"

// callbackTemplate relays the redirect fragment, which never reaches the server, back as a form post.
var callbackTemplate = template.Must(template.New(callbackTemplateName).Parse(`<!doctype html>
<html lang="{{.Lang}}">
<head><meta charset="utf-8"><title>{{.Loading}}</title></head>
<body>
<p>{{.Loading}}</p>
<form id="relay" method="post" action="/callback">
<input type="hidden" name="fragment" id="fragment">
</form>
<script>
document.getElementById("fragment").value = window.location.hash.substring(1);
document.getElementById("relay").submit();
</script>
</body>
</html>
`))

func (s *Server) registerRoutes(r *gin.Engine) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/login", s.login)
	r.GET("/callback", s.callbackRelay)
	r.POST("/callback", s.callback)

	api := r.Group("/api")
	api.GET("/session", s.session)

	authed := api.Group("")
	authed.Use(requireSession())
	{
		authed.POST("/logout", s.logout)
		authed.GET("/stats", s.currentStats)
		authed.GET("/portals", s.listPortals)
		authed.POST("/portals/:name/access", s.portalAccess)
	}
}

func (s *Server) login(c *gin.Context) {
	target, nonce, err := s.auth.BeginLoginWithNonce()
	if err != nil {
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "could not start login"})
		return
	}
	s.setCookie(c, loginCookie, nonce, loginCookieMaxAge)
	c.Redirect(http.StatusFound, target)
}

func (s *Server) callbackRelay(c *gin.Context) {
	c.HTML(http.StatusOK, callbackTemplateName, gin.H{
		"Lang":    s.auth.Localizer().Tag().String(),
		"Loading": s.auth.Localizer().Text(authsession.MsgLoading),
	})
}

func (s *Server) callback(c *gin.Context) {
	log := loggerFrom(c)
	nonce, err := c.Cookie(loginCookie)
	if err != nil || nonce == "" {
		log.Warn("login callback without pending login")
		c.Redirect(http.StatusSeeOther, "/login")
		return
	}
	s.setCookie(c, loginCookie, "", -1)

	fragment, err := authsession.ParseFragment(c.PostForm("fragment"))
	var sess *authsession.Session
	if err == nil {
		sess, err = s.auth.CompleteLoginWithNonce(c.Request.Context(), fragment, nonce)
	}
	if err != nil {
		log.Warn("login callback failed", "code", string(authsession.CodeOf(err)), "err", err)
		c.Redirect(http.StatusSeeOther, "/login")
		return
	}
	s.setCookie(c, sessionCookie, fingerprint(sess), 0)
	s.StartStats()
	c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) session(c *gin.Context) {
	sess, _ := authsession.SessionFromContext(c.Request.Context())
	c.JSON(http.StatusOK, s.auth.ViewOf(sess))
}

func (s *Server) logout(c *gin.Context) {
	s.setCookie(c, sessionCookie, "", -1)
	logoutURL, err := s.auth.Logout(c.Request.Context())
	if logoutURL == "" {
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "logout failed"})
		return
	}
	if err != nil {
		loggerFrom(c).Warn("logout left stale entries", "err", err)
	}
	c.JSON(http.StatusOK, gin.H{
		"logoutUrl": logoutURL,
		"delayMs":   s.auth.Config().LogoutDelay.Milliseconds(),
		"message":   s.auth.Localizer().Text(authsession.MsgSigningOut),
	})
}

func (s *Server) currentStats(c *gin.Context) {
	if !s.statsRunning() {
		s.StartStats()
	}
	stats, updatedAt := s.stats.snapshot()
	c.JSON(http.StatusOK, gin.H{
		"stats":     stats,
		"updatedAt": updatedAt.UTC().Format(time.RFC3339),
	})
}

type portalStatus struct {
	Name      string `json:"name"`
	AdminOnly bool   `json:"adminOnly"`
	Allowed   bool   `json:"allowed"`
	Status    string `json:"status,omitempty"`
}

func (s *Server) listPortals(c *gin.Context) {
	sess, _ := authsession.SessionFromContext(c.Request.Context())
	isAdmin := s.auth.Policy().IsAdmin(sess.Identity)
	restricted := s.auth.Localizer().Text(authsession.MsgPortalRestricted)

	out := make([]portalStatus, 0, len(s.portals))
	for _, p := range s.portals {
		st := portalStatus{Name: p.Name, AdminOnly: p.AdminOnly, Allowed: !p.AdminOnly || isAdmin}
		if !st.Allowed {
			st.Status = restricted
		}
		out = append(out, st)
	}
	c.JSON(http.StatusOK, gin.H{"portals": out})
}

func (s *Server) portalAccess(c *gin.Context) {
	p, ok := s.byName[c.Param("name")]
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "unknown portal"})
		return
	}
	target, err := s.auth.PortalURL(p)
	if err != nil {
		var authErr *authsession.Error
		switch {
		case errors.Is(err, authsession.ErrForbidden) && errors.As(err, &authErr):
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": authErr.Message})
		case authsession.IsUnauthenticated(err):
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not signed in"})
		default:
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"message": s.auth.Localizer().Text(authsession.MsgPortalError),
			})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": target})
}

func (s *Server) setCookie(c *gin.Context, name, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, maxAge, "/", "", s.secureCookies || c.Request.TLS != nil, true)
}
