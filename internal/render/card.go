// Package render formats itineraries as plain-text cards for the terminal front-end.
package render

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/flightscope/flightscope/internal/flights"
)

// EmptyMessage is shown when a view has nothing to list.
const EmptyMessage = "No flights to display. Please search for flights."

// Options controls how much of a card is drawn.
type Options struct {
	// Expanded adds fare policy, legs and segments below the summary.
	Expanded bool

	// Selected marks the card as the highlighted itinerary.
	Selected bool

	// Search, when set, adds the cabin and passenger box.
	Search *flights.SearchParams

	// DistanceMeters, when positive, is printed as the great-circle route length.
	DistanceMeters float64
}

var titleCase = cases.Title(language.English)

// Duration formats minutes as "Xh Ym".
func Duration(minutes int) string {
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}

// Clock formats a timestamp on a 12-hour clock, for example "08:30 AM".
func Clock(ts flights.Timestamp) string {
	if ts.IsZero() {
		return "--:--"
	}
	return ts.Time().Format("03:04 PM")
}

// DaySuffix returns " (+N day)" for arrivals on a later day, otherwise "".
func DaySuffix(days int) string {
	if days <= 0 {
		return ""
	}
	return fmt.Sprintf(" (+%d day)", days)
}

// Summary describes the outbound leg as "Name (CODE) → Name (CODE)".
func Summary(it flights.Itinerary) string {
	leg, ok := it.FirstLeg()
	if !ok {
		return ""
	}
	return leg.Origin.Label() + " → " + leg.Destination.Label()
}

// FarePolicy renders the change and refund terms on one line.
func FarePolicy(p *flights.FarePolicy) string {
	if p == nil {
		return ""
	}
	return fmt.Sprintf("Change Allowed: %s | Partially Changeable: %s | Cancellation Allowed: %s | Partially Refundable: %s",
		yesNo(p.IsChangeAllowed), yesNo(p.IsPartiallyChangeable),
		yesNo(p.IsCancellationAllowed), yesNo(p.IsPartiallyRefundable))
}

// CabinLabel turns a cabin class wire name into a display label.
func CabinLabel(cabin string) string {
	return titleCase.String(strings.ReplaceAll(cabin, "_", " "))
}

// Distance formats meters as whole kilometres with thousands separators.
func Distance(meters float64) string {
	return humanize.Comma(int64(math.Round(meters/1000))) + " km"
}

// Card writes one itinerary card.
func Card(w io.Writer, it flights.Itinerary, opts Options) error {
	var b strings.Builder

	marker := "  "
	if opts.Selected {
		marker = "* "
	}
	b.WriteString(marker + Summary(it) + "\n")
	b.WriteString("  Total Price: " + it.Price.Formatted + "\n")
	if opts.DistanceMeters > 0 {
		b.WriteString("  Distance: " + Distance(opts.DistanceMeters) + "\n")
	}

	if opts.Expanded {
		if policy := FarePolicy(it.FarePolicy); policy != "" {
			b.WriteString("  Fare Policy: " + policy + "\n")
		}
		for i, leg := range it.Legs {
			writeLeg(&b, i, leg)
		}
	}

	if p := opts.Search; p != nil {
		b.WriteString("  Cabin Class: " + CabinLabel(p.CabinClass) + "\n")
		fmt.Fprintf(&b, "  Passengers: %d Adult(s), %d Child(ren), %d Infant(s)\n", p.Adults, p.Childrens, p.Infants)
		if p.ReturnDate != "" {
			b.WriteString("  Return Date: " + p.ReturnDate + "\n")
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeLeg(b *strings.Builder, index int, leg flights.Leg) {
	title := "Return Flight"
	if index == 0 {
		title = "Outbound Flight"
	}

	fmt.Fprintf(b, "    %s\n", title)
	fmt.Fprintf(b, "      Origin: %s%s\n", leg.Origin.Label(), place(leg.Origin))
	fmt.Fprintf(b, "      Destination: %s%s\n", leg.Destination.Label(), place(leg.Destination))
	fmt.Fprintf(b, "      Departure: %s\n", Clock(leg.Departure))
	fmt.Fprintf(b, "      Arrival: %s%s\n", Clock(leg.Arrival), DaySuffix(leg.TimeDeltaInDays))
	fmt.Fprintf(b, "      Duration: %s\n", Duration(leg.DurationInMinutes))
	fmt.Fprintf(b, "      Stops: %d\n", leg.StopCount)

	for i, seg := range leg.Segments {
		fmt.Fprintf(b, "      Segment %d (Flight %s)\n", i+1, seg.FlightNumber)
		fmt.Fprintf(b, "        %s → %s\n", seg.Origin.Label(), seg.Destination.Label())
		fmt.Fprintf(b, "        Dep: %s  Arr: %s\n", Clock(seg.Departure), Clock(seg.Arrival))
		fmt.Fprintf(b, "        Duration: %s\n", Duration(seg.DurationInMinutes))
		if seg.MarketingCarrier != nil {
			fmt.Fprintf(b, "        Carrier: %s\n", seg.MarketingCarrier.Name)
		}
	}
}

// place returns ", City, Country" with empty parts dropped.
func place(a flights.Airport) string {
	var parts []string
	for _, p := range []string{a.City, a.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return ", " + strings.Join(parts, ", ")
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}
