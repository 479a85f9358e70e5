package web

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/go-while/go-tyggbot/internal/database"
	"github.com/go-while/go-tyggbot/internal/models"
)

// ModeratorTier is one heading of the moderator roster
type ModeratorTier struct {
	Name  string
	Users []*models.User
}

// ModeratorsPageData represents data for the moderator roster
type ModeratorsPageData struct {
	TemplateData
	Tiers []ModeratorTier
}

// moderatorTiers lists the roster headings top down with their inclusive lower bound.
// A user belongs to the first tier whose bound they reach.
var moderatorTiers = []struct {
	name     string
	minLevel int
}{
	{"Admins", 2000},
	{"Super Moderators/Broadcaster", 1000},
	{"Moderators", 500},
	{"Notables/Helpers", 101},
}

// rosterMinLevel excludes regular users
const rosterMinLevel = 100

// groupModerators splits users into the roster tiers, keeping their order.
// Every tier is present even when empty.
func groupModerators(users []*models.User) []ModeratorTier {
	tiers := make([]ModeratorTier, len(moderatorTiers))
	for i, t := range moderatorTiers {
		tiers[i].Name = t.name
	}
	for _, u := range users {
		for i, t := range moderatorTiers {
			if u.Level >= t.minLevel {
				tiers[i].Users = append(tiers[i].Users, u)
				break
			}
		}
	}
	return tiers
}

func (s *WebServer) adminModerators(c *gin.Context) {
	var users []*models.User
	err := s.DB.InTx(c.Request.Context(), func(tx *database.Tx) (err error) {
		users, err = tx.ListModerators(rosterMinLevel)
		return err
	})
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, "Database error", err.Error())
		return
	}
	s.renderTemplate(c, "admin/moderators.html", ModeratorsPageData{
		TemplateData: s.getBaseTemplateData(c, "Moderators"),
		Tiers:        groupModerators(users),
	})
}
