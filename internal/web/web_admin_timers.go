package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/go-while/go-tyggbot/internal/database"
	"github.com/go-while/go-tyggbot/internal/flash"
	"github.com/go-while/go-tyggbot/internal/models"
)

// TimersPageData represents data for the timer listing
type TimersPageData struct {
	TemplateData
	Timers  []*models.Timer
	Created *int64
	Edited  *int64
}

// TimerFormData fills the create/edit timer form. Timer is nil when creating.
type TimerFormData struct {
	TemplateData
	Timer *models.Timer
}

func (s *WebServer) adminTimers(c *gin.Context) {
	data := TimersPageData{TemplateData: s.getBaseTemplateData(c, "Timers")}
	err := s.DB.InTx(c.Request.Context(), func(tx *database.Tx) (err error) {
		data.Timers, err = tx.ListTimers()
		return err
	})
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, "Database error", err.Error())
		return
	}
	data.Created = s.takeFlash(c, flash.TimerCreatedID)
	data.Edited = s.takeFlash(c, flash.TimerEditedID)
	s.renderTemplate(c, "admin/timers.html", data)
}

func (s *WebServer) adminTimersEdit(c *gin.Context) {
	data := TimerFormData{TemplateData: s.getBaseTemplateData(c, "Edit timer")}

	id, perr := strconv.ParseInt(c.Param("id"), 10, 64)
	err := database.ErrNotFound
	if perr == nil {
		err = s.DB.InTx(c.Request.Context(), func(tx *database.Tx) (err error) {
			data.Timer, err = tx.GetTimer(id)
			return err
		})
	}
	if errors.Is(err, database.ErrNotFound) {
		s.renderTemplateStatus(c, http.StatusNotFound, "admin/timer_404.html", data.TemplateData)
		return
	}
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, "Database error", err.Error())
		return
	}
	s.renderTemplate(c, "admin/create_timer.html", data)
}

// adminTimersCreate creates a timer, or updates one in place when the form carries an id.
// An id that does not exist redirects to the listing without writing.
func (s *WebServer) adminTimersCreate(c *gin.Context) {
	s.clearFlash(c, flash.TimerCreatedID, flash.TimerEditedID)

	if c.Request.Method != http.MethodPost {
		s.renderTemplate(c, "admin/create_timer.html", TimerFormData{
			TemplateData: s.getBaseTemplateData(c, "Create timer"),
		})
		return
	}

	in, err := parseTimerForm(c)
	if err != nil {
		s.Metrics.ValidationFailure("timer")
		s.Logger.Debug("rejected timer form", "err", err)
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	var (
		timer   *models.Timer
		missing bool
	)
	err = s.DB.InTx(c.Request.Context(), func(tx *database.Tx) error {
		if in.ID == nil {
			timer = &models.Timer{
				Name:            in.Name,
				IntervalOnline:  in.IntervalOnline,
				IntervalOffline: in.IntervalOffline,
				Action:          in.Action(),
				Enabled:         true,
			}
			return tx.InsertTimer(timer)
		}

		existing, err := tx.GetTimer(*in.ID)
		if errors.Is(err, database.ErrNotFound) {
			missing = true
			return nil
		}
		if err != nil {
			return err
		}
		existing.Name = in.Name
		existing.IntervalOnline = in.IntervalOnline
		existing.IntervalOffline = in.IntervalOffline
		existing.Action = in.Action()
		timer = existing
		return tx.UpdateTimer(timer)
	})
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, "Database error", err.Error())
		return
	}
	if missing {
		c.Redirect(http.StatusSeeOther, "/admin/timers/")
		return
	}

	op, key := "create", flash.TimerCreatedID
	if in.ID != nil {
		op, key = "update", flash.TimerEditedID
	}
	s.Metrics.Mutation("timer", op)
	s.Logger.Info("timer saved", "op", op, "id", timer.ID, "name", timer.Name, "by", s.currentSession(c).User.Username)
	s.Notifier.TimerUpdated(c.Request.Context(), timer.ID)
	s.putFlash(c, key, timer.ID)
	c.Redirect(http.StatusSeeOther, "/admin/timers/")
}
