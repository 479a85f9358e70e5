package web

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/go-while/go-tyggbot/internal/commands"
	"github.com/go-while/go-tyggbot/internal/models"
)

// errInvalidForm is the single failure returned by form parsing and validation
var errInvalidForm = errors.New("invalid form input")

var validate = validator.New(validator.WithRequiredStructEnabled())

// commandForm is the raw create command submission. Nil means the field was not sent.
type commandForm struct {
	Aliases  *string `form:"aliases"`
	Cd       *string `form:"cd"`
	UserCd   *string `form:"usercd"`
	Level    *string `form:"level"`
	Cost     *string `form:"cost"`
	Reply    *string `form:"reply"`
	Response *string `form:"response"`
}

// commandInput is a validated create command request
type commandInput struct {
	Aliases    []string `validate:"min=1,dive,required"`
	DelayAll   int      `validate:"min=0,max=9999"`
	DelayUser  int      `validate:"min=0,max=9999"`
	Level      int      `validate:"min=0,max=2000"`
	Cost       int      `validate:"min=0,max=9999999"`
	ActionType string   `validate:"oneof=say me whisper reply"`
	Response   string   `validate:"required"`
}

// AliasString is the normalized alias set as stored
func (in *commandInput) AliasString() string {
	return strings.Join(in.Aliases, "|")
}

// Command builds the row to insert
func (in *commandInput) Command() *models.Command {
	return &models.Command{
		Aliases:   in.AliasString(),
		Level:     in.Level,
		Cost:      in.Cost,
		DelayAll:  in.DelayAll,
		DelayUser: in.DelayUser,
		Enabled:   true,
		Action:    models.Action{Type: in.ActionType, Message: in.Response},
	}
}

// parseCommandForm binds and validates a create command submission
func parseCommandForm(c *gin.Context) (*commandInput, error) {
	var form commandForm
	if err := bindPostForm(c, &form); err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidForm, err)
	}
	if form.Aliases == nil {
		return nil, fmt.Errorf("%w: aliases missing", errInvalidForm)
	}

	in := &commandInput{
		Aliases:    commands.SplitAliases(*form.Aliases),
		ActionType: strings.ToLower(valueOr(form.Reply, models.ActionSay)),
		Response:   valueOr(form.Response, ""),
	}
	var err error
	if in.DelayAll, err = intField("cd", form.Cd, models.DefaultCommandDelayAll); err != nil {
		return nil, err
	}
	if in.DelayUser, err = intField("usercd", form.UserCd, models.DefaultCommandDelayUser); err != nil {
		return nil, err
	}
	if in.Level, err = intField("level", form.Level, models.DefaultCommandLevel); err != nil {
		return nil, err
	}
	if in.Cost, err = intField("cost", form.Cost, models.DefaultCommandCost); err != nil {
		return nil, err
	}

	if err := validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidForm, err)
	}
	return in, nil
}

// timerForm is the raw timer submission. Everything but id is required.
type timerForm struct {
	ID              *string `form:"id"`
	Name            *string `form:"name"`
	IntervalOnline  *string `form:"interval_online"`
	IntervalOffline *string `form:"interval_offline"`
	MessageType     *string `form:"message_type"`
	Message         *string `form:"message"`
}

// timerInput is a validated timer create or update request
type timerInput struct {
	ID              *int64
	Name            string
	IntervalOnline  int    `validate:"min=0"`
	IntervalOffline int    `validate:"min=0"`
	MessageType     string `validate:"oneof=say me"`
	Message         string `validate:"required"`
}

// Action returns the timer action
func (in *timerInput) Action() models.Action {
	return models.Action{Type: in.MessageType, Message: in.Message}
}

// parseTimerForm binds and validates a timer submission
func parseTimerForm(c *gin.Context) (*timerInput, error) {
	var form timerForm
	if err := bindPostForm(c, &form); err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidForm, err)
	}
	if form.Name == nil || form.IntervalOnline == nil || form.IntervalOffline == nil ||
		form.MessageType == nil || form.Message == nil {
		return nil, fmt.Errorf("%w: required timer field missing", errInvalidForm)
	}

	in := &timerInput{
		Name:        strings.TrimSpace(*form.Name),
		MessageType: *form.MessageType,
		Message:     strings.TrimSpace(*form.Message),
	}
	if form.ID != nil {
		id, err := strconv.ParseInt(strings.TrimSpace(*form.ID), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: id: %v", errInvalidForm, err)
		}
		in.ID = &id
	}
	var err error
	if in.IntervalOnline, err = intField("interval_online", form.IntervalOnline, 0); err != nil {
		return nil, err
	}
	if in.IntervalOffline, err = intField("interval_offline", form.IntervalOffline, 0); err != nil {
		return nil, err
	}

	if err := validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidForm, err)
	}
	return in, nil
}

// bindPostForm binds from the request body only, query parameters are ignored
func bindPostForm(c *gin.Context, form any) error {
	if c.ContentType() == binding.MIMEMultipartPOSTForm {
		return c.ShouldBindWith(form, binding.FormMultipart)
	}
	return c.ShouldBindWith(form, binding.FormPost)
}

// intField parses a submitted integer. Absent fields take def, present ones must parse.
func intField(name string, raw *string, def int) (int, error) {
	if raw == nil {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(*raw))
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", errInvalidForm, name, err)
	}
	return n, nil
}

func valueOr(p *string, def string) string {
	if p == nil {
		return def
	}
	return *p
}
