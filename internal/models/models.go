// Package models defines core data structures for go-tyggbot
package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// Action types a command or timer can respond with
const (
	ActionSay     = "say"
	ActionMe      = "me"
	ActionWhisper = "whisper"
	ActionReply   = "reply"
)

// Command defaults used when the create form leaves a field out
const (
	DefaultCommandDelayAll  = 5
	DefaultCommandDelayUser = 15
	DefaultCommandLevel     = 100
	DefaultCommandCost      = 0
)

// FilterTypeBanphrase marks filters that are banphrases
const FilterTypeBanphrase = "banphrase"

// Action is the response a command or timer produces, stored as a JSON column
type Action struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Scan implements sql.Scanner
func (a *Action) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*a = Action{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("models.Action: unsupported scan type %T", src)
	}
	if len(raw) == 0 {
		*a = Action{}
		return nil
	}
	return json.Unmarshal(raw, a)
}

// Value implements driver.Valuer
func (a Action) Value() (driver.Value, error) {
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Filter is a chat filter row, only banphrases are shown in the panel
type Filter struct {
	ID      int64  `json:"id" db:"id"`
	Name    string `json:"name" db:"name"`
	Type    string `json:"type" db:"type"`
	Phrase  string `json:"filter" db:"filter"`
	Action  Action `json:"action" db:"action"`
	Extra   string `json:"extra_args" db:"extra_args"`
	Enabled bool   `json:"enabled" db:"enabled"`
	NumUses int64  `json:"num_uses" db:"num_uses"`
}

// BlacklistedLink is a link the bot times out on
type BlacklistedLink struct {
	ID     int64  `json:"id" db:"id"`
	Domain string `json:"domain" db:"domain"`
	Path   string `json:"path" db:"path"`
	Level  int    `json:"level" db:"level"`
}

// WhitelistedLink is a link the bot always allows
type WhitelistedLink struct {
	ID     int64  `json:"id" db:"id"`
	Domain string `json:"domain" db:"domain"`
	Path   string `json:"path" db:"path"`
}

// Command is a chat command. Aliases holds the pipe-delimited alias string ("a|b|c").
// ID is nil for built-in commands that have no database row.
type Command struct {
	ID          *int64       `json:"id" db:"id"`
	Aliases     string       `json:"command" db:"command"`
	Description string       `json:"description" db:"description"`
	Level       int          `json:"level" db:"level"`
	Cost        int          `json:"cost" db:"cost"`
	DelayAll    int          `json:"delay_all" db:"delay_all"`
	DelayUser   int          `json:"delay_user" db:"delay_user"`
	ModOnly     bool         `json:"mod_only" db:"mod_only"`
	Enabled     bool         `json:"enabled" db:"enabled"`
	Action      Action       `json:"action" db:"action"`
	Data        *CommandData `json:"data,omitempty" db:"-"`
}

// AliasList splits the alias string into its tokens
func (c *Command) AliasList() []string {
	if c.Aliases == "" {
		return nil
	}
	return strings.Split(c.Aliases, "|")
}

// MainAlias is the first alias, shown as the command name
func (c *Command) MainAlias() string {
	list := c.AliasList()
	if len(list) == 0 {
		return ""
	}
	return list[0]
}

// HasID reports whether the command is backed by a database row
func (c *Command) HasID() bool {
	return c.ID != nil
}

// IDValue returns the id or 0 for built-ins, for templates
func (c *Command) IDValue() int64 {
	if c.ID == nil {
		return 0
	}
	return *c.ID
}

// CommandData holds usage statistics of a command, 1:1 with commands.id
type CommandData struct {
	CommandID    int64      `json:"command_id" db:"command_id"`
	NumUses      int64      `json:"num_uses" db:"num_uses"`
	AddedBy      *int64     `json:"added_by" db:"added_by"`
	EditedBy     *int64     `json:"edited_by" db:"edited_by"`
	LastDateUsed *time.Time `json:"last_date_used" db:"last_date_used"`
}

// Timer posts its action periodically, with separate intervals for online and offline streams (minutes)
type Timer struct {
	ID              int64  `json:"id" db:"id"`
	Name            string `json:"name" db:"name"`
	IntervalOnline  int    `json:"interval_online" db:"interval_online"`
	IntervalOffline int    `json:"interval_offline" db:"interval_offline"`
	Action          Action `json:"action" db:"action"`
	Enabled         bool   `json:"enabled" db:"enabled"`
}

// User represents a chat user. Admin panel logins use the same row.
type User struct {
	ID               int64      `json:"id" db:"id"`
	Username         string     `json:"username" db:"username"`
	Level            int        `json:"level" db:"level"`
	Points           int64      `json:"points" db:"points"`
	PasswordHash     string     `json:"-" db:"password_hash"`
	SessionID        string     `json:"-" db:"session_id"`
	LastLoginIP      string     `json:"last_login_ip" db:"last_login_ip"`
	SessionExpiresAt *time.Time `json:"session_expires_at" db:"session_expires_at"`
	LoginAttempts    int        `json:"login_attempts" db:"login_attempts"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at" db:"updated_at"`
}
