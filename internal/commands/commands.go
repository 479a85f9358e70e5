// Package commands holds the chat command set as the admin panel sees it:
// alias parsing, collision checks and the listing buckets.
package commands

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/go-while/go-tyggbot/internal/database"
	"github.com/go-while/go-tyggbot/internal/models"
)

// InternalCommandNames are handled by the bot itself and have no database row.
// New commands may not use any of these as an alias.
var InternalCommandNames = []string{
	"add",
	"remove",
	"edit",
	"debug",
	"level",
	"eval",
	"quit",
	"reload",
	"ignore",
	"unignore",
	"permaban",
	"unpermaban",
	"twitterfollow",
	"twitterunfollow",
	"commands",
}

// NormalizeAliases strips '!' and lower cases the raw alias string
func NormalizeAliases(raw string) string {
	// a Caser keeps state, so one per call
	return cases.Lower(language.Und).String(strings.ReplaceAll(raw, "!", ""))
}

// SplitAliases normalizes raw and splits it on '|', dropping empty and repeated tokens.
// Tokens keep the order of their first appearance.
func SplitAliases(raw string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, tok := range strings.Split(NormalizeAliases(raw), "|") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	return out
}

// AliasSet builds the set of taken aliases from stored alias strings plus the internal names
func AliasSet(stored []string) map[string]struct{} {
	set := make(map[string]struct{}, len(stored)*2+len(InternalCommandNames))
	for _, s := range stored {
		for _, tok := range SplitAliases(s) {
			set[tok] = struct{}{}
		}
	}
	for _, name := range InternalCommandNames {
		set[name] = struct{}{}
	}
	return set
}

// FindCollision returns the first proposed alias that is already taken
func FindCollision(proposed []string, taken map[string]struct{}) (string, bool) {
	for _, alias := range proposed {
		if _, ok := taken[alias]; ok {
			return alias, true
		}
	}
	return "", false
}

// Load returns the enabled stored commands followed by the internal commands, which carry no id
func Load(tx *database.Tx) ([]*models.Command, error) {
	stored, err := tx.ListCommands(true)
	if err != nil {
		return nil, err
	}
	out := make([]*models.Command, 0, len(stored)+len(InternalCommandNames))
	out = append(out, stored...)
	for _, name := range InternalCommandNames {
		out = append(out, &models.Command{
			Aliases: name,
			Level:   models.DefaultCommandLevel,
			Enabled: true,
		})
	}
	return out, nil
}

// Buckets is the command listing split by who can use a command
type Buckets struct {
	Custom    []*models.Command
	Point     []*models.Command
	Moderator []*models.Command
}

// moderatorSortLevel is used instead of the real level for mod_only commands
const moderatorSortLevel = 500

// Bucketize partitions commands with an id into the three listing groups and sorts each one.
// Commands without id are skipped.
func Bucketize(list []*models.Command) Buckets {
	var b Buckets
	for _, c := range list {
		if !c.HasID() {
			continue
		}
		switch {
		case c.Level > 100 || c.ModOnly:
			b.Moderator = append(b.Moderator, c)
		case c.Cost > 0:
			b.Point = append(b.Point, c)
		default:
			b.Custom = append(b.Custom, c)
		}
	}

	sort.SliceStable(b.Custom, func(i, j int) bool {
		return b.Custom[i].Aliases < b.Custom[j].Aliases
	})
	sort.SliceStable(b.Point, func(i, j int) bool {
		x, y := b.Point[i], b.Point[j]
		if x.Cost != y.Cost {
			return x.Cost < y.Cost
		}
		return x.Aliases < y.Aliases
	})
	sort.SliceStable(b.Moderator, func(i, j int) bool {
		x, y := b.Moderator[i], b.Moderator[j]
		lx, ly := sortLevel(x), sortLevel(y)
		if lx != ly {
			return lx < ly
		}
		return x.Aliases < y.Aliases
	})
	return b
}

func sortLevel(c *models.Command) int {
	if c.ModOnly {
		return moderatorSortLevel
	}
	return c.Level
}
