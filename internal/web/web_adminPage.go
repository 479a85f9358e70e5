package web

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/go-while/go-tyggbot/internal/database"
	"github.com/go-while/go-tyggbot/internal/models"
)

// BanphrasesPageData represents data for the banphrase listing
type BanphrasesPageData struct {
	TemplateData
	Banphrases []*models.Filter
}

// BlacklistPageData represents data for the link blacklist
type BlacklistPageData struct {
	TemplateData
	Links []*models.BlacklistedLink
}

// WhitelistPageData represents data for the link whitelist
type WhitelistPageData struct {
	TemplateData
	Links []*models.WhitelistedLink
}

func (s *WebServer) adminHome(c *gin.Context) {
	s.renderTemplate(c, "admin/home.html", s.getBaseTemplateData(c, "Admin"))
}

func (s *WebServer) adminBanphrases(c *gin.Context) {
	data := BanphrasesPageData{TemplateData: s.getBaseTemplateData(c, "Banphrases")}
	err := s.DB.InTx(c.Request.Context(), func(tx *database.Tx) (err error) {
		data.Banphrases, err = tx.ListBanphrases()
		return err
	})
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, "Database error", err.Error())
		return
	}
	s.renderTemplate(c, "admin/banphrases.html", data)
}

func (s *WebServer) adminLinksBlacklist(c *gin.Context) {
	data := BlacklistPageData{TemplateData: s.getBaseTemplateData(c, "Blacklisted links")}
	err := s.DB.InTx(c.Request.Context(), func(tx *database.Tx) (err error) {
		data.Links, err = tx.ListBlacklistedLinks()
		return err
	})
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, "Database error", err.Error())
		return
	}
	s.renderTemplate(c, "admin/links_blacklist.html", data)
}

func (s *WebServer) adminLinksWhitelist(c *gin.Context) {
	data := WhitelistPageData{TemplateData: s.getBaseTemplateData(c, "Whitelisted links")}
	err := s.DB.InTx(c.Request.Context(), func(tx *database.Tx) (err error) {
		data.Links, err = tx.ListWhitelistedLinks()
		return err
	})
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, "Database error", err.Error())
		return
	}
	s.renderTemplate(c, "admin/links_whitelist.html", data)
}

// takeFlash pops a one-shot id for the current session. Store errors count as absent.
func (s *WebServer) takeFlash(c *gin.Context, key string) *int64 {
	session := s.currentSession(c)
	if session == nil {
		return nil
	}
	id, ok, err := s.Flash.Take(c.Request.Context(), session.SessionID, key)
	if err != nil {
		s.Logger.Warn("flash take failed", "key", key, "err", err)
		return nil
	}
	if !ok {
		return nil
	}
	return &id
}

func (s *WebServer) putFlash(c *gin.Context, key string, id int64) {
	session := s.currentSession(c)
	if session == nil {
		return
	}
	if err := s.Flash.Put(context.WithoutCancel(c.Request.Context()), session.SessionID, key, id); err != nil {
		s.Logger.Warn("flash put failed", "key", key, "id", id, "err", err)
	}
}

func (s *WebServer) clearFlash(c *gin.Context, keys ...string) {
	session := s.currentSession(c)
	if session == nil {
		return
	}
	if err := s.Flash.Clear(c.Request.Context(), session.SessionID, keys...); err != nil {
		s.Logger.Warn("flash clear failed", "keys", keys, "err", err)
	}
}
