package dispatch

import "strings"

// State is a step of the per-request dispatch state machine.
type State int

const (
	// StateIdle is the state before the path is looked up.
	StateIdle State = iota
	// StateMatching is set while the path is run against the route table.
	StateMatching
	// StateHandling is set once a rule matched and its handler runs.
	StateHandling
	// StateResponded is terminal: a handler wrote the response.
	StateResponded
	// StateNotFound is terminal: no rule or handler accepted the request.
	StateNotFound
)

// String returns the lower case state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateMatching:
		return "matching"
	case StateHandling:
		return "handling"
	case StateResponded:
		return "responded"
	case StateNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Family is the handler group selected by the "route" target parameter.
type Family int

const (
	// FamilyUnknown is any route value without a handler group.
	FamilyUnknown Family = iota
	// FamilySPA serves page content for single page apps.
	FamilySPA
	// FamilyPage serves a single page.
	FamilyPage
	// FamilyProducts serves product listings and details.
	FamilyProducts
	// FamilyPosts serves post listings and details.
	FamilyPosts
)

var familyNames = map[Family]string{
	FamilySPA:      "spa",
	FamilyPage:     "page",
	FamilyProducts: "products",
	FamilyPosts:    "posts",
}

// ParseFamily maps a route parameter value to a Family. Matching is case
// insensitive; anything unrecognized is FamilyUnknown.
func ParseFamily(s string) Family {
	s = strings.ToLower(strings.TrimSpace(s))
	for f, name := range familyNames {
		if name == s {
			return f
		}
	}
	return FamilyUnknown
}

func (f Family) String() string {
	if name, ok := familyNames[f]; ok {
		return name
	}
	return "unknown"
}

// Kind is the representation a handler produces. It decides how structured
// errors are rendered.
type Kind int

const (
	KindJSON Kind = iota
	KindHTML
)
