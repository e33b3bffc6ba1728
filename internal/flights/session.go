package flights

import "slices"

// Session is the state of one search: the fetched itineraries plus the
// current criteria, page and selection. Session is immutable; every
// With/Select method returns a new value and leaves the receiver untouched.
type Session struct {
	origin      Airport
	destination Airport
	itineraries []Itinerary
	criteria    Criteria
	page        int
	selectedID  string
}

// NewSession starts a session from a completed search, on page 1 with no selection.
func NewSession(result *SearchResult) Session {
	if result == nil {
		return Session{itineraries: []Itinerary{}, page: 1}
	}
	return Session{
		origin:      result.Origin,
		destination: result.Destination,
		itineraries: slices.Clone(result.Itineraries),
		criteria:    result.Criteria,
		page:        1,
	}
}

func (s Session) Origin() Airport      { return s.origin }
func (s Session) Destination() Airport { return s.destination }
func (s Session) Criteria() Criteria   { return s.criteria }
func (s Session) Page() int            { return s.page }
func (s Session) SelectedID() string   { return s.selectedID }

// Itineraries returns a copy of the unfiltered search result.
func (s Session) Itineraries() []Itinerary {
	return slices.Clone(s.itineraries)
}

// WithCriteria replaces the criteria and resets to the first page.
func (s Session) WithCriteria(c Criteria) Session {
	s.criteria = c
	s.page = 1
	return s
}

// WithPage moves to page n. The page is not clamped.
func (s Session) WithPage(n int) Session {
	s.page = n
	return s
}

// Select marks the itinerary with the given id. Unknown ids leave the session unchanged.
func (s Session) Select(id string) Session {
	if _, ok := s.find(id); !ok {
		return s
	}
	s.selectedID = id
	return s
}

// ClearSelection returns the session with no selected itinerary.
func (s Session) ClearSelection() Session {
	s.selectedID = ""
	return s
}

// Selected returns the selected itinerary, if any.
func (s Session) Selected() (Itinerary, bool) {
	if s.selectedID == "" {
		return Itinerary{}, false
	}
	return s.find(s.selectedID)
}

// View runs the pipeline for the current criteria and page.
func (s Session) View() ViewResult {
	return View(s.itineraries, s.criteria, s.page)
}

func (s Session) find(id string) (Itinerary, bool) {
	return FindByID(s.itineraries, id)
}

// FindByID returns the first itinerary whose id equals id.
func FindByID(itineraries []Itinerary, id string) (Itinerary, bool) {
	if id == "" {
		return Itinerary{}, false
	}
	for _, it := range itineraries {
		if string(it.ID) == id {
			return it, true
		}
	}
	return Itinerary{}, false
}
