package services

import (
	"sort"
	"time"

	"matt-dashboard/internal/models"
)

// SnapshotWeeks are the rolling snapshot labels, newest first. Label i
// is i*7 days before the reference snapshot date.
var SnapshotWeeks = []string{"Snapshot", "LW", "L2W", "L3W"}

// ComputeSnapshotUnsold counts homes not yet sold as of snapshotDate
// that close inside [coeStart, coeEnd], grouped by groupKey. "Not yet
// sold" means no sale date at all or one after the snapshot. Age is
// whole days from snapshot to estimated COE and can be negative when a
// closing precedes the snapshot; interpreting that is the caller's
// call. Every output row is tagged with label. Each invocation is
// independent, so callers run it once per week offset.
func ComputeSnapshotUnsold(rows []models.EnrichedRecord, groupKey string, snapshotDate, coeStart, coeEnd time.Time, label string) []models.SnapshotInventoryRow {
	snapshot := DateOnly(snapshotDate)

	type accum struct {
		count  int
		ageSum int
	}
	groups := make(map[string]*accum)

	for i := range rows {
		rec := &rows[i]
		if rec.SaleDate != nil && !rec.SaleDate.After(snapshot) {
			continue
		}
		if !coeWithin(rec, coeStart, coeEnd) {
			continue
		}

		age := int(DateOnly(*rec.EstCOEDate).Sub(snapshot).Hours() / 24)
		key := rec.GroupValue(groupKey)
		acc := groups[key]
		if acc == nil {
			acc = &accum{}
			groups[key] = acc
		}
		acc.count++
		acc.ageSum += age
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := make([]models.SnapshotInventoryRow, 0, len(keys))
	for _, k := range keys {
		acc := groups[k]
		result = append(result, models.SnapshotInventoryRow{
			Group:  k,
			Week:   label,
			Unsold: acc.count,
			AvgAge: float64(acc.ageSum) / float64(acc.count),
		})
	}
	return result
}

// BuildWeeklySnapshots runs the snapshot aggregator for each requested
// week label (offset by 7 days apiece) and reindexes every result over
// the full set of groups present in the COE window, zero-filling groups
// a given week has no unsold homes for. Community-level rows carry
// their hub for display.
func BuildWeeklySnapshots(rows []models.EnrichedRecord, groupKey string, snapshotDate, coeStart, coeEnd time.Time, weeks []string) []models.SnapshotInventoryRow {
	if len(weeks) == 0 {
		weeks = SnapshotWeeks
	}

	offsets := make(map[string]int, len(SnapshotWeeks))
	for i, label := range SnapshotWeeks {
		offsets[label] = i * 7
	}

	allGroups, hubByGroup := windowGroups(rows, groupKey, coeStart, coeEnd)

	var result []models.SnapshotInventoryRow
	for _, label := range weeks {
		offset, ok := offsets[label]
		if !ok {
			continue
		}
		snap := DateOnly(snapshotDate).AddDate(0, 0, -offset)
		week := ComputeSnapshotUnsold(rows, groupKey, snap, coeStart, coeEnd, label)

		byGroup := make(map[string]models.SnapshotInventoryRow, len(week))
		for _, row := range week {
			byGroup[row.Group] = row
		}

		for _, group := range allGroups {
			row, ok := byGroup[group]
			if !ok {
				row = models.SnapshotInventoryRow{Group: group, Week: label}
			}
			row.Hub = hubByGroup[group]
			result = append(result, row)
		}
	}
	return result
}

// LastWeekSold counts sales per group closing inside the COE window
// whose sale date falls in the week before the snapshot date.
func LastWeekSold(rows []models.EnrichedRecord, groupKey string, snapshotDate, coeStart, coeEnd time.Time) map[string]int {
	snapshot := DateOnly(snapshotDate)
	weekAgo := snapshot.AddDate(0, 0, -7)

	sold := make(map[string]int)
	for i := range rows {
		rec := &rows[i]
		if !coeWithin(rec, coeStart, coeEnd) || rec.SaleDate == nil {
			continue
		}
		d := DateOnly(*rec.SaleDate)
		if d.Before(weekAgo) || !d.Before(snapshot) {
			continue
		}
		sold[rec.GroupValue(groupKey)]++
	}
	return sold
}

// ComputeInventoryPivot counts homesites per status label per COE
// month for rows closing inside the window, with a Grand Total row and
// column. Months are chronological, statuses alphabetical.
func ComputeInventoryPivot(rows []models.EnrichedRecord, coeStart, coeEnd time.Time) models.InventoryPivot {
	type monthKey struct {
		label string
		order time.Time
	}
	counts := make(map[string]map[string]int) // status -> month label -> count
	monthSet := make(map[string]monthKey)

	for i := range rows {
		rec := &rows[i]
		if !coeWithin(rec, coeStart, coeEnd) {
			continue
		}
		coe := *rec.EstCOEDate
		first := time.Date(coe.Year(), coe.Month(), 1, 0, 0, 0, 0, time.UTC)
		label := first.Format("Jan-2006")
		monthSet[label] = monthKey{label: label, order: first}

		status := rec.HomesiteLabel
		if counts[status] == nil {
			counts[status] = make(map[string]int)
		}
		counts[status][label]++
	}

	months := make([]monthKey, 0, len(monthSet))
	for _, m := range monthSet {
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].order.Before(months[j].order) })

	statuses := make([]string, 0, len(counts))
	for s := range counts {
		statuses = append(statuses, s)
	}
	sort.Strings(statuses)

	pivot := models.InventoryPivot{Months: make([]string, len(months))}
	for i, m := range months {
		pivot.Months[i] = m.label
	}

	columnTotals := make([]int, len(months))
	grandTotal := 0
	for _, status := range statuses {
		row := models.InventoryPivotRow{Status: status, Counts: make([]int, len(months))}
		for i, m := range months {
			n := counts[status][m.label]
			row.Counts[i] = n
			row.Total += n
			columnTotals[i] += n
		}
		grandTotal += row.Total
		pivot.Rows = append(pivot.Rows, row)
	}
	pivot.Rows = append(pivot.Rows, models.InventoryPivotRow{
		Status: "Grand Total",
		Counts: columnTotals,
		Total:  grandTotal,
	})
	return pivot
}

// windowGroups returns the sorted distinct non-empty group values among
// rows closing inside the COE window, plus each group's hub when the
// grouping is community-level.
func windowGroups(rows []models.EnrichedRecord, groupKey string, coeStart, coeEnd time.Time) ([]string, map[string]string) {
	set := make(map[string]struct{})
	hubs := make(map[string]string)
	for i := range rows {
		rec := &rows[i]
		if !coeWithin(rec, coeStart, coeEnd) {
			continue
		}
		group := rec.GroupValue(groupKey)
		if group == "" {
			continue
		}
		set[group] = struct{}{}
		if groupKey == models.GroupCommunity && rec.Hub != "" {
			hubs[group] = rec.Hub
		}
	}

	groups := make([]string, 0, len(set))
	for g := range set {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	return groups, hubs
}

func coeWithin(rec *models.EnrichedRecord, start, end time.Time) bool {
	if rec.EstCOEDate == nil {
		return false
	}
	d := *rec.EstCOEDate
	return !d.Before(start) && !d.After(end)
}
