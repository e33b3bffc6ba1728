package flights

// PageSize is the fixed number of itineraries per page.
const PageSize = 5

// Page is one slice of a pipeline result.
type Page struct {
	Items      []Itinerary `json:"items"`
	Number     int         `json:"number"`
	TotalPages int         `json:"totalPages"`
	TotalItems int         `json:"totalItems"`
}

// Paginate returns the 1-based page of items at the given size.
// Pages outside [1, TotalPages] have no items; they are not an error.
func Paginate(items []Itinerary, page, size int) Page {
	if size <= 0 {
		size = PageSize
	}
	p := Page{
		Items:      []Itinerary{},
		Number:     page,
		TotalPages: (len(items) + size - 1) / size,
		TotalItems: len(items),
	}
	if page < 1 {
		return p
	}
	start := (page - 1) * size
	if start >= len(items) {
		return p
	}
	end := min(start+size, len(items))
	p.Items = append(p.Items, items[start:end]...)
	return p
}

// ViewResult is a filtered, sorted page ready for display.
type ViewResult struct {
	Page
	Criteria Criteria `json:"criteria"`
	Groups   []Group  `json:"groups"`
}

// Empty reports whether there is nothing to display on this page.
func (v ViewResult) Empty() bool {
	return len(v.Items) == 0
}

// View runs the pipeline, paginates the result and groups the page by origin.
func View(itineraries []Itinerary, c Criteria, page int) ViewResult {
	p := Paginate(Apply(itineraries, c), page, PageSize)
	return ViewResult{
		Page:     p,
		Criteria: c,
		Groups:   GroupByOrigin(p.Items),
	}
}
