// Package period decides which processing window a pipeline run covers.
// Everything here is pure date arithmetic: callers feed in today's date,
// the anchor of the last recorded run, and an optional override, and get
// back a fully determined resolution. No store access happens here.
package period

import (
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// ConfirmThreshold is the catch-up size (in missed days) above which a run
// must be explicitly confirmed by the user before proceeding.
const ConfirmThreshold = 5

// Reason classifies why a resolution chose its window.
type Reason int

const (
	// ReasonOverride means the caller forced the lookback explicitly.
	ReasonOverride Reason = iota
	// ReasonFirstRun means no previous run exists.
	ReasonFirstRun
	// ReasonSameDay means the pipeline already ran today (or the anchor is
	// in the future); the run repeats today's window.
	ReasonSameDay
	// ReasonDaily is the normal next-day cadence.
	ReasonDaily
	// ReasonCatchUp means one or more days were missed.
	ReasonCatchUp
)

func (r Reason) String() string {
	switch r {
	case ReasonOverride:
		return "override"
	case ReasonFirstRun:
		return "first run"
	case ReasonSameDay:
		return "same-day rerun"
	case ReasonDaily:
		return "daily"
	case ReasonCatchUp:
		return "catch-up"
	}
	return "unknown"
}

// Resolution is the outcome of resolving a processing window.
type Resolution struct {
	PeriodID string
	Lookback int // days of history each source should cover
	Reason   Reason

	// NeedsConfirmation is set when the catch-up window exceeds
	// ConfirmThreshold days. The caller owns the prompt; a declined
	// confirmation must abort the run before any stage writes.
	NeedsConfirmation bool
}

// Resolve determines the period for a pipeline invocation.
//
// overrideDays > 0 forces a window ending today. Otherwise the gap between
// lastAnchor (end date of the most recent run, empty if none) and today
// decides between a plain daily run and a catch-up range.
func Resolve(today time.Time, lastAnchor string, overrideDays int) (Resolution, error) {
	// Calendar date in today's own zone; truncating to UTC day boundaries
	// would shift the date for callers east of UTC.
	y, m, d := today.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	todayID := day.Format(dateLayout)

	if overrideDays > 0 {
		if overrideDays == 1 {
			return Resolution{PeriodID: todayID, Lookback: 1, Reason: ReasonOverride}, nil
		}
		start := day.AddDate(0, 0, -(overrideDays - 1)).Format(dateLayout)
		return Resolution{
			PeriodID: ID(start, todayID),
			Lookback: overrideDays,
			Reason:   ReasonOverride,
		}, nil
	}

	if lastAnchor == "" {
		return Resolution{PeriodID: todayID, Lookback: 1, Reason: ReasonFirstRun}, nil
	}

	anchor, err := time.Parse(dateLayout, lastAnchor)
	if err != nil {
		return Resolution{}, fmt.Errorf("parsing last run anchor %q: %w", lastAnchor, err)
	}

	missed := int(day.Sub(anchor).Hours() / 24)
	switch {
	case missed <= 0:
		return Resolution{PeriodID: todayID, Lookback: 1, Reason: ReasonSameDay}, nil
	case missed == 1:
		return Resolution{PeriodID: todayID, Lookback: 1, Reason: ReasonDaily}, nil
	}

	start := anchor.AddDate(0, 0, 1).Format(dateLayout)
	return Resolution{
		PeriodID:          ID(start, todayID),
		Lookback:          missed,
		Reason:            ReasonCatchUp,
		NeedsConfirmation: missed > ConfirmThreshold,
	}, nil
}

// Today returns the current date in period format.
func Today() string {
	return time.Now().Format(dateLayout)
}

// ID builds a period identifier from a start and end date. A single day is
// its own identifier; a range joins both ends with "..".
func ID(start, end string) string {
	if start == end {
		return start
	}
	return start + ".." + end
}

// EndDate returns the anchor of a period identifier: the end date of a
// range, or the date itself for single days.
func EndDate(periodID string) string {
	if _, end, ok := splitRange(periodID); ok {
		return end
	}
	return periodID
}

// Display renders a period identifier for humans, e.g. "Feb 06, 2026" or
// "Feb 01 - Feb 06, 2026". Unparseable identifiers pass through unchanged.
func Display(periodID string) string {
	if startStr, endStr, ok := splitRange(periodID); ok {
		start, err1 := time.Parse(dateLayout, startStr)
		end, err2 := time.Parse(dateLayout, endStr)
		if err1 != nil || err2 != nil {
			return periodID
		}
		return start.Format("Jan 02") + " - " + end.Format("Jan 02, 2006")
	}

	d, err := time.Parse(dateLayout, periodID)
	if err != nil {
		return periodID
	}
	return d.Format("Jan 02, 2006")
}

func splitRange(periodID string) (start, end string, ok bool) {
	if !strings.Contains(periodID, "..") {
		return "", "", false
	}
	parts := strings.SplitN(periodID, "..", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	return parts[0], parts[1], true
}
