// Package report renders room, travel and guest-list exports as Excel
// workbooks and PDF documents.
package report

import (
	"errors"                         // For sentinel errors
	"shaadi_planner/internal/domain" // Guest and room models
	"strings"                        // For key cleanup
	"time"                           // For rendered times
	_ "time/tzdata"                  // REPORT_TIMEZONE must resolve in minimal images
)

// Mode selects which travel direction a report covers.
type Mode string

const (
	ModeAll        Mode = "all"
	ModeArrivals   Mode = "arrivals"
	ModeDepartures Mode = "departures"
)

// ErrUnknownMode is returned by ParseMode for unsupported values.
var ErrUnknownMode = errors.New("mode must be all, arrivals or departures")

// ParseMode maps the query value onto a Mode; empty means ModeAll.
func ParseMode(raw string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(raw))) {
	case "", ModeAll:
		return ModeAll, nil
	case ModeArrivals:
		return ModeArrivals, nil
	case ModeDepartures:
		return ModeDepartures, nil
	}
	return "", ErrUnknownMode
}

// Includes reports whether d is part of the mode.
func (m Mode) Includes(d Direction) bool {
	switch m {
	case ModeArrivals:
		return d == Arrival
	case ModeDepartures:
		return d == Departure
	}
	return true
}

// Direction is either guest arrival or departure.
type Direction int

const (
	Arrival Direction = iota
	Departure
)

// PrivateTransport is the group key for guests with a time but no flight/train number.
const PrivateTransport = "Private/Other"

// TravelGroup is the set of guests sharing one flight or train.
type TravelGroup struct {
	Key    string
	Time   *time.Time // time of the first guest in the group
	PNR    string     // booking reference of the first guest
	Guests []domain.Guest
}

// travelLeg returns the fields for one direction.
func travelLeg(g domain.Guest, d Direction) (number, pnr string, at *time.Time) {
	if d == Departure {
		return strings.TrimSpace(g.DepartureFlightNo), g.DeparturePnr, g.DepartureTime
	}
	return strings.TrimSpace(g.ArrivalFlightNo), g.ArrivalPnr, g.ArrivalTime
}

// GroupTravel groups guests with travel details by flight/train number.
// Groups keep the order in which their first guest appears.
func GroupTravel(guests []domain.Guest, d Direction) []TravelGroup {
	var groups []TravelGroup
	index := make(map[string]int)
	for _, g := range guests {
		number, pnr, at := travelLeg(g, d)
		if number == "" && at == nil {
			continue // No travel details for this direction
		}
		key := number
		if key == "" {
			key = PrivateTransport
		}
		i, ok := index[key]
		if !ok { // First guest on this flight or train
			i = len(groups)
			index[key] = i
			groups = append(groups, TravelGroup{Key: key, Time: at, PNR: pnr})
		}
		groups[i].Guests = append(groups[i].Guests, g)
	}
	return groups
}

// Options controls rendering details shared by all reports.
type Options struct {
	Location *time.Location   // timezone for rendered times, UTC when nil
	LogoPath string           // optional PNG drawn on PDF headers
	Now      func() time.Time // clock, time.Now when nil
}

func (o Options) location() *time.Location {
	if o.Location == nil {
		return time.UTC
	}
	return o.Location
}

func (o Options) now() time.Time {
	if o.Now == nil {
		return time.Now()
	}
	return o.Now()
}

// FormatTime renders t the way reports show it, or def when t is nil.
func (o Options) FormatTime(t *time.Time, def string) string {
	if t == nil {
		return def
	}
	return t.In(o.location()).Format("02 Jan 2006, 03:04 PM")
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func guestNames(guests []domain.Guest) string {
	names := make([]string, len(guests))
	for i, g := range guests {
		names[i] = g.Name
	}
	return strings.Join(names, ", ")
}
