// Package exposure estimates particulate exposure from a user's location history.
package exposure

import (
	"fmt"
	"math"
)

// DefaultPM25 is used for cities without a typical value (µg/m³).
const DefaultPM25 = 15.0

const (
	increaseFold = 1.5
	decreaseFold = 0.67
)

// typicalPM25 holds typical annual PM2.5 averages for major US cities (µg/m³).
var typicalPM25 = map[string]float64{
	"San Francisco": 7.8,
	"Los Angeles":   34.5,
	"New York":      12.5,
	"Chicago":       15.2,
	"Houston":       18.7,
	"Phoenix":       22.3,
	"Philadelphia":  13.8,
	"San Antonio":   16.4,
	"San Diego":     9.5,
	"Dallas":        19.1,
	"Seattle":       8.3,
	"Portland":      9.1,
	"Denver":        11.5,
	"Miami":         10.2,
	"Boston":        11.8,
}

// TypicalPM25 returns the typical annual PM2.5 for a city and whether it was known.
func TypicalPM25(city string) (float64, bool) {
	v, ok := typicalPM25[city]
	if !ok {
		return DefaultPM25, false
	}
	return v, true
}

// LocationEntry is one stay in a user's location history.
type LocationEntry struct {
	City      string  `json:"city" validate:"required"`
	StartDate string  `json:"start_date" validate:"omitempty,date"`
	EndDate   string  `json:"end_date,omitempty" validate:"omitempty,date"`
	AvgPM25   float64 `json:"avg_pm25" validate:"gte=0"`
}

// Exposure is the PM2.5 level attributed to one location entry.
type Exposure struct {
	City      string  `json:"city"`
	PM25      float64 `json:"pm25"`
	StartDate string  `json:"start_date,omitempty"`
	EndDate   string  `json:"end_date,omitempty"`
}

// Delta describes the change in exposure between two locations.
type Delta struct {
	OldLocation   string  `json:"old_location"`
	NewLocation   string  `json:"new_location"`
	OldValue      float64 `json:"old_value"`
	NewValue      float64 `json:"new_value"`
	DeltaAbsolute float64 `json:"delta_absolute"`
	DeltaFold     float64 `json:"delta_fold"`
	Description   string  `json:"description"`
}

// Analysis is the environmental context handed to the explanation composer.
type Analysis struct {
	Exposures []Exposure `json:"exposures"`
	Current   *Exposure  `json:"current,omitempty"`
	Delta     *Delta     `json:"delta,omitempty"`
}

// CalculateDelta compares exposure before and after a move.
func CalculateDelta(oldCity string, oldPM25 float64, newCity string, newPM25 float64) Delta {
	fold := 1.0
	if oldPM25 > 0 {
		fold = newPM25 / oldPM25
	}

	var desc string
	switch {
	case fold > increaseFold:
		desc = fmt.Sprintf("increased %.1f× after moving to %s", fold, newCity)
	case fold < decreaseFold && fold > 0:
		desc = fmt.Sprintf("decreased to %.1f× after moving to %s", 1/fold, newCity)
	case fold < decreaseFold:
		desc = fmt.Sprintf("decreased sharply after moving to %s", newCity)
	default:
		desc = fmt.Sprintf("remained similar after moving to %s", newCity)
	}

	return Delta{
		OldLocation:   oldCity,
		NewLocation:   newCity,
		OldValue:      oldPM25,
		NewValue:      newPM25,
		DeltaAbsolute: round(newPM25-oldPM25, 1),
		DeltaFold:     round(fold, 2),
		Description:   desc,
	}
}

// AnalyzeLocationHistory attributes an exposure to each entry, using the
// reported average when present and the city's typical value otherwise.
func AnalyzeLocationHistory(entries []LocationEntry) Analysis {
	if len(entries) == 0 {
		return Analysis{Exposures: []Exposure{}}
	}

	exposures := make([]Exposure, 0, len(entries))
	for _, e := range entries {
		pm := e.AvgPM25
		if pm <= 0 {
			pm, _ = TypicalPM25(e.City)
		}
		exposures = append(exposures, Exposure{
			City:      e.City,
			PM25:      pm,
			StartDate: e.StartDate,
			EndDate:   e.EndDate,
		})
	}

	current := exposures[len(exposures)-1]
	out := Analysis{Exposures: exposures, Current: &current}
	if n := len(exposures); n >= 2 {
		prev, last := exposures[n-2], exposures[n-1]
		d := CalculateDelta(prev.City, prev.PM25, last.City, last.PM25)
		out.Delta = &d
	}
	return out
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
