package models

import "github.com/flightscope/flightscope/internal/flights"

// SortOptions lists the orderings accepted by the search and view endpoints.
type SortOptions struct {
	Items []flights.SortOptionInfo `json:"items"`
}

// Locale is one language/region supported by the flight provider.
type Locale struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Locales lists the provider's supported locales.
type Locales struct {
	Items []Locale `json:"items"`
}
