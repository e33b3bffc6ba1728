package render

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize/english"

	"github.com/flightscope/flightscope/internal/flights"
)

// ListOptions controls rendering of a whole view.
type ListOptions struct {
	SelectedID string
	Expanded   bool
	Search     *flights.SearchParams

	// Distances maps itinerary ids to route length in meters.
	Distances map[string]float64
}

// List writes a view grouped by origin airport followed by a page footer.
// An empty view prints EmptyMessage.
func List(w io.Writer, view flights.ViewResult, opts ListOptions) error {
	if view.Empty() {
		_, err := fmt.Fprintln(w, EmptyMessage)
		return err
	}

	for _, g := range view.Groups {
		if _, err := fmt.Fprintf(w, "== %s ==\n", g.Origin); err != nil {
			return err
		}
		for _, it := range g.Itineraries {
			id := string(it.ID)
			err := Card(w, it, Options{
				Expanded:       opts.Expanded || (opts.SelectedID != "" && id == opts.SelectedID),
				Selected:       opts.SelectedID != "" && id == opts.SelectedID,
				Search:         opts.Search,
				DistanceMeters: opts.Distances[id],
			})
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
	}

	_, err := fmt.Fprintln(w, Footer(view.Page))
	return err
}

// Footer describes the page position, for example "Page 1 of 3 (12 itineraries)".
func Footer(p flights.Page) string {
	return fmt.Sprintf("Page %d of %d (%s)", p.Number, max(p.TotalPages, 1), english.Plural(p.TotalItems, "itinerary", "itineraries"))
}
