package web

import (
	"bytes"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/go-while/go-tyggbot/internal/config"
)

// TemplateData represents common template data
type TemplateData struct {
	Title       string
	CurrentTime string
	AppVersion  string
	User        *AuthUser
	IsAdmin     bool
}

// getBaseTemplateData creates a TemplateData struct with common information including user auth
func (s *WebServer) getBaseTemplateData(c *gin.Context, title string) TemplateData {
	data := TemplateData{
		Title:       title,
		CurrentTime: time.Now().Format("2006-01-02 15:04:05"),
		AppVersion:  config.AppVersion,
	}
	if session := s.currentSession(c); session != nil {
		data.User = session.User
		data.IsAdmin = session.User.Level >= config.LevelAdminPanel
	}
	return data
}

// parseTemplate loads base.html plus one page from the embedded templates
func parseTemplate(name string) (*template.Template, error) {
	return template.New("base.html").Funcs(templateFuncs).
		ParseFS(EmbeddedTemplatesFS, "templates/base.html", "templates/"+name)
}

// renderTemplate renders a page with status 200
func (s *WebServer) renderTemplate(c *gin.Context, templateName string, data any) {
	s.renderTemplateStatus(c, http.StatusOK, templateName, data)
}

// renderTemplateStatus renders a page into a buffer first so a template error still yields a clean error page
func (s *WebServer) renderTemplateStatus(c *gin.Context, status int, templateName string, data any) {
	tmpl, err := parseTemplate(templateName)
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, "Template error", err.Error())
		return
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base.html", data); err != nil {
		s.renderError(c, http.StatusInternalServerError, "Template error", err.Error())
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}

// renderError renders an error page
func (s *WebServer) renderError(c *gin.Context, statusCode int, message string, errstring string) {
	errorData := struct {
		TemplateData
		Error      string
		StatusCode int
	}{
		TemplateData: s.getBaseTemplateData(c, "Error"),
		Error:        message,
		StatusCode:   statusCode,
	}
	if statusCode >= http.StatusInternalServerError {
		s.Logger.Error("request failed", "status", statusCode, "path", c.Request.URL.Path, "msg", message, "err", errstring)
	} else {
		s.Logger.Warn("request rejected", "status", statusCode, "path", c.Request.URL.Path, "msg", message, "err", errstring)
	}

	tmpl, err := parseTemplate("error.html")
	var buf bytes.Buffer
	if err == nil {
		err = tmpl.ExecuteTemplate(&buf, "base.html", errorData)
	}
	if err != nil {
		s.Logger.Error("error rendering error template", "err", err)
		c.String(statusCode, "Error: %s", message)
		return
	}
	c.Data(statusCode, "text/html; charset=utf-8", buf.Bytes())
}

var templateFuncs = template.FuncMap{
	"deref": func(p *int64) int64 {
		if p == nil {
			return 0
		}
		return *p
	},
	"pair": func(a, b any) []any {
		return []any{a, b}
	},
}
