package services

import (
	"testing"
	"time"

	"matt-dashboard/internal/models"
)

func invRecord(hub, community, saleDate, coeDate string) models.EnrichedRecord {
	return models.EnrichedRecord{
		Hub:           hub,
		CommunityName: community,
		SaleDate:      ParseDate(saleDate),
		EstCOEDate:    ParseDate(coeDate),
	}
}

func TestComputeSnapshotUnsold_Selection(t *testing.T) {
	snapshot := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)
	coeStart := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	coeEnd := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)

	rows := []models.EnrichedRecord{
		invRecord("DFW North", "A", "", "2024-10-01"),           // never sold: unsold
		invRecord("DFW North", "A", "2024-09-15", "2024-10-01"), // sold after snapshot: unsold
		invRecord("DFW North", "A", "2024-08-01", "2024-10-01"), // sold before snapshot: not unsold
		invRecord("DFW North", "A", "", "2025-06-01"),           // COE outside window
		invRecord("DFW North", "A", "", ""),                     // no COE date
	}

	result := ComputeSnapshotUnsold(rows, models.GroupHub, snapshot, coeStart, coeEnd, "Snapshot")

	if len(result) != 1 {
		t.Fatalf("expected 1 group, got %d", len(result))
	}
	if result[0].Unsold != 2 {
		t.Errorf("Unsold = %d, want 2", result[0].Unsold)
	}
	if result[0].Week != "Snapshot" {
		t.Errorf("Week = %q, want Snapshot", result[0].Week)
	}
	// Both homes close 30 days out.
	if result[0].AvgAge != 30 {
		t.Errorf("AvgAge = %v, want 30", result[0].AvgAge)
	}
}

func TestComputeSnapshotUnsold_NegativeAge(t *testing.T) {
	snapshot := time.Date(2024, 9, 10, 0, 0, 0, 0, time.UTC)
	coeStart := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	coeEnd := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)

	// COE five days before the snapshot: a home that should have closed.
	rows := []models.EnrichedRecord{
		invRecord("DFW North", "A", "", "2024-09-05"),
	}

	result := ComputeSnapshotUnsold(rows, models.GroupHub, snapshot, coeStart, coeEnd, "Snapshot")

	if len(result) != 1 {
		t.Fatalf("expected 1 group, got %d", len(result))
	}
	if result[0].AvgAge != -5 {
		t.Errorf("AvgAge = %v, want -5", result[0].AvgAge)
	}
}

func TestBuildWeeklySnapshots_ZeroFill(t *testing.T) {
	snapshot := time.Date(2024, 9, 22, 0, 0, 0, 0, time.UTC)
	coeStart := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	coeEnd := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)

	rows := []models.EnrichedRecord{
		// Sold 9/10: unsold for the L2W (9/8) and L3W (9/1) snapshots
		// only.
		invRecord("DFW North", "Trinity Falls", "2024-09-10", "2024-11-01"),
		// Never sold: unsold in every week.
		invRecord("HOU West", "Sunterra", "", "2024-11-15"),
	}

	result := BuildWeeklySnapshots(rows, models.GroupHub, snapshot, coeStart, coeEnd, nil)

	// Two groups times four weeks, zero-filled.
	if len(result) != 8 {
		t.Fatalf("expected 8 rows (2 groups x 4 weeks), got %d", len(result))
	}

	byKey := make(map[string]models.SnapshotInventoryRow)
	for _, row := range result {
		byKey[row.Group+"|"+row.Week] = row
	}

	if got := byKey["DFW North|Snapshot"].Unsold; got != 0 {
		t.Errorf("DFW North Snapshot unsold = %d, want 0 (sold before snapshot)", got)
	}
	if got := byKey["DFW North|L2W"].Unsold; got != 1 {
		t.Errorf("DFW North L2W unsold = %d, want 1", got)
	}
	if got := byKey["DFW North|L3W"].Unsold; got != 1 {
		t.Errorf("DFW North L3W unsold = %d, want 1", got)
	}
	for _, week := range SnapshotWeeks {
		if got := byKey["HOU West|"+week].Unsold; got != 1 {
			t.Errorf("HOU West %s unsold = %d, want 1", week, got)
		}
	}
}

func TestBuildWeeklySnapshots_CommunityCarriesHub(t *testing.T) {
	snapshot := time.Date(2024, 9, 22, 0, 0, 0, 0, time.UTC)
	coeStart := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	coeEnd := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)

	rows := []models.EnrichedRecord{
		invRecord("DFW North", "Trinity Falls", "", "2024-11-01"),
	}

	result := BuildWeeklySnapshots(rows, models.GroupCommunity, snapshot, coeStart, coeEnd, []string{"Snapshot"})

	if len(result) != 1 {
		t.Fatalf("expected 1 row, got %d", len(result))
	}
	if result[0].Group != "Trinity Falls" {
		t.Errorf("Group = %q, want Trinity Falls", result[0].Group)
	}
	if result[0].Hub != "DFW North" {
		t.Errorf("Hub = %q, want DFW North", result[0].Hub)
	}
}

func TestLastWeekSold(t *testing.T) {
	snapshot := time.Date(2024, 9, 22, 0, 0, 0, 0, time.UTC)
	coeStart := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	coeEnd := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)

	rows := []models.EnrichedRecord{
		invRecord("DFW North", "A", "2024-09-16", "2024-11-01"), // inside last week
		invRecord("DFW North", "A", "2024-09-21", "2024-11-01"), // inside last week
		invRecord("DFW North", "A", "2024-09-22", "2024-11-01"), // on snapshot day: excluded
		invRecord("DFW North", "A", "2024-09-14", "2024-11-01"), // before the week
		invRecord("DFW North", "A", "2024-09-18", "2026-01-01"), // COE outside window
	}

	sold := LastWeekSold(rows, models.GroupHub, snapshot, coeStart, coeEnd)

	if sold["DFW North"] != 2 {
		t.Errorf("last week sold = %d, want 2", sold["DFW North"])
	}
}

func TestComputeInventoryPivot(t *testing.T) {
	coeStart := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	coeEnd := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)

	rows := []models.EnrichedRecord{
		{HomesiteLabel: "Backlog", EstCOEDate: ParseDate("2024-10-05")},
		{HomesiteLabel: "Backlog", EstCOEDate: ParseDate("2024-10-20")},
		{HomesiteLabel: "Unsold", EstCOEDate: ParseDate("2024-11-01")},
		{HomesiteLabel: "Unsold", EstCOEDate: ParseDate("2026-01-01")}, // outside window
	}

	pivot := ComputeInventoryPivot(rows, coeStart, coeEnd)

	wantMonths := []string{"Oct-2024", "Nov-2024"}
	if len(pivot.Months) != len(wantMonths) {
		t.Fatalf("months = %v, want %v", pivot.Months, wantMonths)
	}
	for i, m := range wantMonths {
		if pivot.Months[i] != m {
			t.Errorf("month %d = %q, want %q (chronological)", i, pivot.Months[i], m)
		}
	}

	// Two status rows plus the Grand Total row.
	if len(pivot.Rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(pivot.Rows))
	}
	if pivot.Rows[0].Status != "Backlog" || pivot.Rows[1].Status != "Unsold" {
		t.Errorf("statuses = %q, %q, want alphabetical Backlog, Unsold", pivot.Rows[0].Status, pivot.Rows[1].Status)
	}

	total := pivot.Rows[2]
	if total.Status != "Grand Total" {
		t.Fatalf("last row = %q, want Grand Total", total.Status)
	}
	if total.Total != 3 {
		t.Errorf("grand total = %d, want 3", total.Total)
	}
	if total.Counts[0] != 2 || total.Counts[1] != 1 {
		t.Errorf("column totals = %v, want [2 1]", total.Counts)
	}
}
