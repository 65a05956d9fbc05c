package dashboard

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"log/slog"
	"net/http"
	"time"

	"github.com/bionicotaku/lingo-utils-authsession"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	headerRequestID = "X-Request-Id"
	loggerKey       = "logger"

	sessionCookie     = "authsession_sid"
	loginCookie       = "authsession_login"
	loginCookieMaxAge = 600
)

// requestLogger injects a request_id and logs one summary line per request.
func requestLogger(l *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		rid := c.GetHeader(headerRequestID)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Writer.Header().Set(headerRequestID, rid)

		reqLogger := l.With("request_id", rid)
		c.Set(loggerKey, reqLogger)

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		attrs := []any{
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"duration_ms", float64(time.Since(start).Milliseconds()),
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "errors", c.Errors.String())
			reqLogger.Error("request", attrs...)
			return
		}
		reqLogger.Info("request", attrs...)
	}
}

// loggerFrom pulls the request-scoped logger from the gin context.
func loggerFrom(c *gin.Context) *slog.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if l, ok := v.(*slog.Logger); ok && l != nil {
			return l
		}
	}
	return slog.Default()
}

// bindSession attaches the current session to the request context when it is
// valid and the caller presents its session cookie.
func bindSession(auth *authsession.Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := auth.Current()
		if sess != nil {
			cookie, err := c.Cookie(sessionCookie)
			if err == nil && subtle.ConstantTimeCompare([]byte(cookie), []byte(fingerprint(sess))) == 1 {
				c.Request = c.Request.WithContext(authsession.BindSession(c.Request.Context(), sess))
			}
		}
		c.Next()
	}
}

// fingerprint identifies the session token without revealing it. It stays
// stable across Restore, unlike Session.ID.
func fingerprint(sess *authsession.Session) string {
	sum := sha256.Sum256([]byte(sess.Token))
	return hex.EncodeToString(sum[:])
}

// requireSession rejects requests without a bound session.
func requireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := authsession.SessionFromContext(c.Request.Context()); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not signed in"})
			return
		}
		c.Next()
	}
}
