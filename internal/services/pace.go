package services

import (
	"sort"
	"time"

	"matt-dashboard/internal/models"
)

// Pace categories, ordered best to worst.
const (
	CategoryMargin = "Margin"
	CategoryTarget = "Target"
	CategoryPace   = "Pace"
	CategoryBehind = "Behind"
)

const paceWindowDays = 21

// ClassifyDelta partitions the real line into the four pace categories.
// First match wins: (1, inf) Margin, (0, 1] Target, (-2, 0] Pace,
// (-inf, -2] Behind. Every delta lands in exactly one bucket.
func ClassifyDelta(delta float64) string {
	switch {
	case delta > 1:
		return CategoryMargin
	case delta > 0:
		return CategoryTarget
	case delta > -2:
		return CategoryPace
	default:
		return CategoryBehind
	}
}

// ComputePaceVsMargin classifies each community's selling pace against
// what it needs to clear its unsold inventory by targetDate.
//
// Unsold is the count of status-S homes closing inside [coeStart,
// coeEnd]. Pace is the count of status-B and status-Z homes sold in the
// trailing 21 days, divided by 3 — a weekly average. The two series are
// outer-joined on community with missing sides filled with zero.
//
// slope is 1/weeksLeft, the pace one unsold home adds to the
// requirement; a target on or before today degenerates it to zero. In
// that degenerate window Needed Pace is clamped to zero rather than
// dividing, and any community still holding unsold homes is Behind
// outright: a passed deadline with inventory left cannot be on pace.
func ComputePaceVsMargin(rows []models.EnrichedRecord, today, targetDate, coeStart, coeEnd time.Time) ([]models.PaceMarginRow, float64) {
	day := DateOnly(today)
	weeksLeft := DateOnly(targetDate).Sub(day).Hours() / 24 / 7

	slope := 0.0
	if weeksLeft > 0 {
		slope = 1 / weeksLeft
	}

	unsold := make(map[string]int)
	pace := make(map[string]int)
	paceCutoff := day.AddDate(0, 0, -paceWindowDays)

	for i := range rows {
		rec := &rows[i]
		switch rec.HomesiteType {
		case models.StatusUnsold:
			if coeWithin(rec, coeStart, coeEnd) {
				unsold[rec.CommunityName]++
			}
		case models.StatusBacklog, models.StatusClosed:
			if rec.SaleDate != nil && !rec.SaleDate.Before(paceCutoff) {
				pace[rec.CommunityName]++
			}
		}
	}

	communities := make(map[string]struct{}, len(unsold)+len(pace))
	for c := range unsold {
		communities[c] = struct{}{}
	}
	for c := range pace {
		communities[c] = struct{}{}
	}

	names := make([]string, 0, len(communities))
	for c := range communities {
		names = append(names, c)
	}
	sort.Strings(names)

	result := make([]models.PaceMarginRow, 0, len(names))
	for _, name := range names {
		row := models.PaceMarginRow{
			CommunityName: name,
			Unsold:        unsold[name],
			SalesPace:     float64(pace[name]) / 3,
		}
		if weeksLeft > 0 {
			row.NeededPace = float64(row.Unsold) / weeksLeft
		}
		row.Delta = row.SalesPace - row.NeededPace
		row.Category = ClassifyDelta(row.Delta)
		if weeksLeft <= 0 && row.Unsold > 0 {
			row.Category = CategoryBehind
		}
		result = append(result, row)
	}
	return result, slope
}

// CategoryCounts tallies communities and unsold homes per category, in
// category order.
func CategoryCounts(rows []models.PaceMarginRow) map[string]map[string]int {
	counts := map[string]map[string]int{}
	for _, cat := range []string{CategoryMargin, CategoryTarget, CategoryPace, CategoryBehind} {
		counts[cat] = map[string]int{"communities": 0, "unsold": 0}
	}
	for _, row := range rows {
		counts[row.Category]["communities"]++
		counts[row.Category]["unsold"] += row.Unsold
	}
	return counts
}
