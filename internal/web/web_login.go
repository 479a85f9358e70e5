package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/go-while/go-tyggbot/internal/database"
)

// LoginPageData represents data for login page
type LoginPageData struct {
	TemplateData
	Error       string
	RedirectURL string
}

// safeRedirect only allows local absolute paths
func safeRedirect(target string) string {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.Contains(target, "\\") {
		return "/admin/"
	}
	return target
}

// loginPage displays the login form
func (s *WebServer) loginPage(c *gin.Context) {
	if session := s.getWebSession(c); session != nil {
		c.Redirect(http.StatusSeeOther, safeRedirect(c.Query("redirect")))
		return
	}

	var errorMsg string
	if c.Query("message") == "session_expired" {
		errorMsg = "Your session has expired. Please log in again."
	}

	s.renderTemplate(c, "login.html", LoginPageData{
		TemplateData: s.getBaseTemplateData(c, "Login"),
		Error:        errorMsg,
		RedirectURL:  c.Query("redirect"),
	})
}

// loginSubmit processes login form submission
func (s *WebServer) loginSubmit(c *gin.Context) {
	username := strings.TrimSpace(c.PostForm("username"))
	password := c.PostForm("password")
	redirectURL := safeRedirect(c.PostForm("redirect"))

	if username == "" || password == "" {
		s.renderLoginError(c, "Username and password are required", redirectURL)
		return
	}

	lockedOut, err := s.DB.IsUserLockedOut(username)
	if err != nil {
		s.Logger.Error("lockout check failed", "user", username, "err", err)
		s.renderLoginError(c, "Login error. Please try again.", redirectURL)
		return
	}
	if lockedOut {
		s.renderLoginError(c, "Account temporarily locked due to too many failed attempts. Try again in 15 minutes.", redirectURL)
		return
	}

	user, err := s.DB.GetUserByUsername(username)
	if err != nil || !checkPassword(password, user.PasswordHash) {
		if err != nil && !errors.Is(err, database.ErrNotFound) {
			s.Logger.Error("user lookup failed", "user", username, "err", err)
		}
		if ierr := s.DB.IncrementLoginAttempts(username); ierr != nil {
			s.Logger.Warn("failed to count login attempt", "user", username, "err", ierr)
		}
		s.renderLoginError(c, "Invalid username or password", redirectURL)
		return
	}

	// a new session invalidates any existing one
	sessionID, err := s.DB.CreateUserSession(user.ID, c.ClientIP())
	if err != nil {
		s.Logger.Error("failed to create session", "user", username, "err", err)
		s.renderLoginError(c, "Failed to create session", redirectURL)
		return
	}
	s.Logger.Info("user logged in", "user", username, "level", user.Level, "ip", c.ClientIP())

	s.setSessionCookie(c, sessionID)
	c.Redirect(http.StatusSeeOther, redirectURL)
}

// logout handles user logout
func (s *WebServer) logout(c *gin.Context) {
	if session := s.getWebSession(c); session != nil {
		if err := s.DB.InvalidateUserSession(session.UserID); err != nil {
			s.Logger.Warn("failed to invalidate session", "user", session.User.Username, "err", err)
		}
	}
	s.clearSessionCookie(c)
	c.Redirect(http.StatusSeeOther, "/login?message=logged_out")
}

// renderLoginError renders login page with error
func (s *WebServer) renderLoginError(c *gin.Context, errorMsg, redirectURL string) {
	s.renderTemplateStatus(c, http.StatusBadRequest, "login.html", LoginPageData{
		TemplateData: s.getBaseTemplateData(c, "Login"),
		Error:        errorMsg,
		RedirectURL:  redirectURL,
	})
}
