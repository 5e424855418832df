package engine

import (
	"errors"
	"sort"
	"time"

	"github.com/contactkeval/option-analytics/internal/chain"
	"github.com/contactkeval/option-analytics/internal/logger"
)

// ErrNoExpirations indicates the provider returned zero expiration dates,
// which makes the whole computation impossible.
var ErrNoExpirations = errors.New("no expiration dates available")

// TenorSelection is one chosen expiration: the label, the calendar date that
// won the nearest-date contest, and the actual day count from "now" (not the
// label's target offset).
type TenorSelection struct {
	Label            chain.Tenor
	Date             time.Time
	DaysToExpiration int
}

// SelectExpirations maps each tenor label to the available date closest to
// its target offset from now. Ties break toward the earlier date, so the
// result is deterministic for any input ordering.
//
// Sparse calendars may resolve two labels to the same date; selections are
// returned per label without deduplication, in fixed tenor order.
func SelectExpirations(available []time.Time, now time.Time) ([]TenorSelection, error) {
	if len(available) == 0 {
		return nil, ErrNoExpirations
	}

	dates := make([]time.Time, len(available))
	for i, d := range available {
		dates[i] = d.UTC().Truncate(24 * time.Hour)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	today := now.UTC().Truncate(24 * time.Hour)

	var out []TenorSelection
	for _, label := range chain.Tenors() {
		target := label.TargetDays()

		best := dates[0]
		bestDist := dayDistance(best, today, target)
		for _, d := range dates[1:] {
			// Strict comparison over an ascending scan keeps the
			// earliest date on ties.
			if dist := dayDistance(d, today, target); dist < bestDist {
				best, bestDist = d, dist
			}
		}

		days := daysBetween(today, best)
		if days < 0 {
			days = 0
		}

		logger.Debugf("tenor %s: target=%dd selected=%s actual=%dd",
			label, target, best.Format("2006-01-02"), days)

		out = append(out, TenorSelection{
			Label:            label,
			Date:             best,
			DaysToExpiration: days,
		})
	}

	return out, nil
}

// dayDistance is the absolute difference, in whole days, between date and
// the target offset from today.
func dayDistance(date, today time.Time, targetDays int) int {
	d := daysBetween(today, date) - targetDays
	if d < 0 {
		return -d
	}
	return d
}

// daysBetween counts whole calendar days from a to b. Both arguments are
// already truncated to midnight UTC.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}
