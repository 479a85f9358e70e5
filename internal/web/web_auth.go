package web

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/go-while/go-tyggbot/internal/database"
)

const (
	sessionCookieName = "session_id"
	sessionContextKey = "session"
)

// AuthUser represents a logged in user
type AuthUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Level    int    `json:"level"`
}

// SessionData represents session information with user data
type SessionData struct {
	SessionID string
	UserID    int64
	User      *AuthUser
}

// RequireLevel lets requests through whose session user has at least minLevel.
// Without a session it redirects to the login page, with a lower level it renders 403.
func (s *WebServer) RequireLevel(minLevel int) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := s.getWebSession(c)
		if session == nil {
			c.Redirect(http.StatusSeeOther, "/login?redirect="+url.QueryEscape(c.Request.URL.Path))
			c.Abort()
			return
		}

		c.Set(sessionContextKey, session)
		if session.User.Level < minLevel {
			s.renderError(c, http.StatusForbidden, "Access Denied", "insufficient level for "+c.Request.URL.Path)
			c.Abort()
			return
		}
		c.Next()
	}
}

// currentSession returns the session stored by RequireLevel, or looks it up from the cookie
func (s *WebServer) currentSession(c *gin.Context) *SessionData {
	if v, ok := c.Get(sessionContextKey); ok {
		if session, ok := v.(*SessionData); ok {
			return session
		}
	}
	return s.getWebSession(c)
}

// getWebSession retrieves session from cookie and returns full session data
func (s *WebServer) getWebSession(c *gin.Context) *SessionData {
	sessionID, err := c.Cookie(sessionCookieName)
	if err != nil || sessionID == "" {
		return nil
	}

	user, err := s.DB.ValidateUserSession(sessionID)
	if err != nil {
		return nil
	}

	return &SessionData{
		SessionID: sessionID,
		UserID:    user.ID,
		User: &AuthUser{
			ID:       user.ID,
			Username: user.Username,
			Level:    user.Level,
		},
	}
}

// hashPassword creates a bcrypt hash of the password
func hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// checkPassword checks if password matches hash
func checkPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// isHTTPS detects TLS on the request or from a trusted reverse proxy header
func isHTTPS(c *gin.Context) bool {
	return c.Request != nil && (c.Request.TLS != nil || strings.EqualFold(c.GetHeader("X-Forwarded-Proto"), "https"))
}

func (s *WebServer) setSessionCookie(c *gin.Context, sessionID string) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     sessionCookieName,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		Secure:   isHTTPS(c),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(database.SessionTimeout.Seconds()),
	})
}

func (s *WebServer) clearSessionCookie(c *gin.Context) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   isHTTPS(c),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}
