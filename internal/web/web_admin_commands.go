package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/go-while/go-tyggbot/internal/commands"
	"github.com/go-while/go-tyggbot/internal/database"
	"github.com/go-while/go-tyggbot/internal/flash"
	"github.com/go-while/go-tyggbot/internal/models"
)

// CommandsPageData represents data for the command listing
type CommandsPageData struct {
	TemplateData
	CustomCommands    []*models.Command
	PointCommands     []*models.Command
	ModeratorCommands []*models.Command
	Created           *int64
	Edited            *int64
}

// CommandPageData represents data for the edit command view
type CommandPageData struct {
	TemplateData
	Command *models.Command
}

// CreateCommandFailData is rendered when an alias is already taken
type CreateCommandFailData struct {
	TemplateData
	Alias string
}

func (s *WebServer) adminCommands(c *gin.Context) {
	data := CommandsPageData{TemplateData: s.getBaseTemplateData(c, "Commands")}
	var list []*models.Command
	err := s.DB.InTx(c.Request.Context(), func(tx *database.Tx) (err error) {
		list, err = commands.Load(tx)
		return err
	})
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, "Database error", err.Error())
		return
	}

	buckets := commands.Bucketize(list)
	data.CustomCommands = buckets.Custom
	data.PointCommands = buckets.Point
	data.ModeratorCommands = buckets.Moderator
	data.Created = s.takeFlash(c, flash.CommandCreatedID)
	data.Edited = s.takeFlash(c, flash.CommandEditedID)
	s.renderTemplate(c, "admin/commands.html", data)
}

func (s *WebServer) adminCommandsEdit(c *gin.Context) {
	data := CommandPageData{TemplateData: s.getBaseTemplateData(c, "Edit command")}

	// a non numeric id can't match any row
	id, perr := strconv.ParseInt(c.Param("id"), 10, 64)
	err := database.ErrNotFound
	if perr == nil {
		err = s.DB.InTx(c.Request.Context(), func(tx *database.Tx) (err error) {
			data.Command, err = tx.GetCommand(id)
			return err
		})
	}
	if errors.Is(err, database.ErrNotFound) {
		s.renderTemplateStatus(c, http.StatusNotFound, "admin/command_404.html", data.TemplateData)
		return
	}
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, "Database error", err.Error())
		return
	}
	s.renderTemplate(c, "admin/edit_command.html", data)
}

func (s *WebServer) adminCommandsCreate(c *gin.Context) {
	s.clearFlash(c, flash.CommandCreatedID, flash.CommandEditedID)

	if c.Request.Method != http.MethodPost {
		s.renderTemplate(c, "admin/create_command.html", s.getBaseTemplateData(c, "Create command"))
		return
	}

	in, err := parseCommandForm(c)
	if err != nil {
		s.Metrics.ValidationFailure("command")
		s.Logger.Debug("rejected command form", "err", err)
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	var (
		collision string
		cmd       = in.Command()
	)
	err = s.DB.InTx(c.Request.Context(), func(tx *database.Tx) error {
		stored, err := tx.CommandAliases()
		if err != nil {
			return err
		}
		if alias, taken := commands.FindCollision(in.Aliases, commands.AliasSet(stored)); taken {
			collision = alias
			return nil
		}
		return tx.InsertCommand(cmd)
	})
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, "Database error", err.Error())
		return
	}
	if collision != "" {
		s.renderTemplate(c, "admin/create_command_fail.html", CreateCommandFailData{
			TemplateData: s.getBaseTemplateData(c, "Create command"),
			Alias:        collision,
		})
		return
	}

	id := cmd.IDValue()
	s.Metrics.Mutation("command", "create")
	s.Logger.Info("command created", "id", id, "aliases", cmd.Aliases, "by", s.currentSession(c).User.Username)
	s.Notifier.CommandUpdated(c.Request.Context(), id)
	s.putFlash(c, flash.CommandCreatedID, id)
	c.Redirect(http.StatusSeeOther, "/admin/commands/")
}
