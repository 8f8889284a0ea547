package board

import (
	"strings"

	"github.com/thenoetrevino/pizarra/internal/models"
	"github.com/thenoetrevino/pizarra/internal/types"
)

type filterKind int

const (
	filterAll filterKind = iota
	filterUser
	filterUnassigned
)

// Filter narrows the cards of a view by assignee. The zero value shows
// every card.
type Filter struct {
	kind filterKind
	user types.UserID
}

// All shows every card
var All = Filter{}

// AssignedTo shows the cards of one user
func AssignedTo(user types.UserID) Filter {
	if user == "" {
		return Unassigned()
	}
	return Filter{kind: filterUser, user: user}
}

// Unassigned shows the cards nobody owns
func Unassigned() Filter {
	return Filter{kind: filterUnassigned}
}

// ParseFilter reads the command-line form: "" or "all", "none" or
// "unassigned", anything else is a user id.
func ParseFilter(s string) Filter {
	switch v := strings.TrimSpace(s); strings.ToLower(v) {
	case "", "all":
		return All
	case "none", "unassigned":
		return Unassigned()
	default:
		return AssignedTo(types.UserID(v))
	}
}

// Match reports whether the task passes the filter
func (f Filter) Match(t models.Task) bool {
	switch f.kind {
	case filterUser:
		return t.Assignee == f.user
	case filterUnassigned:
		return !t.IsAssigned()
	default:
		return true
	}
}

func (f Filter) String() string {
	switch f.kind {
	case filterUser:
		return f.user.String()
	case filterUnassigned:
		return "unassigned"
	default:
		return "all"
	}
}
