package services

import (
	"math"
	"testing"
	"time"

	"matt-dashboard/internal/models"
)

func saleOn(date, channel string) models.EnrichedRecord {
	return models.EnrichedRecord{
		SaleDate:      ParseDate(date),
		DOWSale:       weekdayOf(date),
		WeekdayGroup:  weekdayGroupOf(date),
		RealtorDirect: channel,
	}
}

func weekdayOf(date string) string {
	t := ParseDate(date)
	if t == nil {
		return ""
	}
	return t.Weekday().String()
}

func weekdayGroupOf(date string) string {
	t := ParseDate(date)
	if t == nil {
		return ""
	}
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return "Sat-Sun"
	default:
		return "M-F"
	}
}

func TestComputeDOWSummary_SevenRows(t *testing.T) {
	// Sales on a Saturday and two Sundays only.
	rows := []models.EnrichedRecord{
		saleOn("2024-09-07", "Direct"),
		saleOn("2024-09-08", "Direct"),
		saleOn("2024-09-15", "Direct"),
	}

	result := ComputeDOWSummary(rows)

	if len(result) != 7 {
		t.Fatalf("expected 7 rows always, got %d", len(result))
	}

	wantOrder := []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}
	for i, day := range wantOrder {
		if result[i].Day != day {
			t.Errorf("row %d = %q, want %q", i, result[i].Day, day)
		}
	}

	if result[5].Sales != 1 || result[6].Sales != 2 {
		t.Errorf("Saturday/Sunday sales = %d/%d, want 1/2", result[5].Sales, result[6].Sales)
	}
	if result[0].Sales != 0 {
		t.Errorf("Monday sales = %d, want 0 (zero-filled)", result[0].Sales)
	}

	if math.Abs(result[5].SalesPct-100.0/3) > 1e-9 {
		t.Errorf("Saturday pct = %v, want 33.33", result[5].SalesPct)
	}
	if math.Abs(result[6].RunningPct-100) > 1e-9 {
		t.Errorf("final running pct = %v, want 100", result[6].RunningPct)
	}
}

func TestComputeDOWSummary_Empty(t *testing.T) {
	result := ComputeDOWSummary(nil)

	if len(result) != 7 {
		t.Fatalf("expected 7 rows for empty input, got %d", len(result))
	}
	for _, row := range result {
		if row.Sales != 0 || row.SalesPct != 0 {
			t.Errorf("expected all-zero row, got %+v", row)
		}
	}
}

func TestComputeMonthlyWeekdayMix(t *testing.T) {
	rows := []models.EnrichedRecord{
		saleOn("2024-09-02", "Direct"), // Monday
		saleOn("2024-09-03", "Direct"), // Tuesday
		saleOn("2024-09-07", "Direct"), // Saturday
		saleOn("2024-10-05", "Direct"), // Saturday
	}

	result := ComputeMonthlyWeekdayMix(rows)

	if len(result) != 2 {
		t.Fatalf("expected 2 months, got %d", len(result))
	}

	sep := result[0]
	if sep.Month != "2024-09" || sep.Label != "Sep, 2024" {
		t.Errorf("month = %q label = %q", sep.Month, sep.Label)
	}
	if sep.MF != 2 || sep.SatSun != 1 || sep.Total != 3 {
		t.Errorf("Sep counts = %d/%d/%d, want 2/1/3", sep.MF, sep.SatSun, sep.Total)
	}
	// Whole-percent rounding: 66.67 -> 67, 33.33 -> 33.
	if sep.MFPct != 67 || sep.SatSunPct != 33 {
		t.Errorf("Sep pcts = %v/%v, want 67/33", sep.MFPct, sep.SatSunPct)
	}

	oct := result[1]
	if oct.SatSunPct != 100 {
		t.Errorf("Oct Sat-Sun pct = %v, want 100", oct.SatSunPct)
	}
}

func TestComputeDailyTrend_ContinuousAxis(t *testing.T) {
	// Two sales five days apart leave three empty days in between.
	rows := []models.EnrichedRecord{
		saleOn("2024-09-01", "Realtor"),
		saleOn("2024-09-05", "Direct"),
	}

	result := ComputeDailyTrend(rows)

	if len(result) != 5 {
		t.Fatalf("expected 5 continuous days, got %d", len(result))
	}
	if result[0].Sales != 1 || result[4].Sales != 1 {
		t.Errorf("endpoint sales = %d/%d, want 1/1", result[0].Sales, result[4].Sales)
	}
	for i := 1; i < 4; i++ {
		if result[i].Sales != 0 {
			t.Errorf("day %d sales = %d, want 0 (resampled)", i, result[i].Sales)
		}
		if result[i].RealtorRate != nil {
			t.Errorf("day %d realtor rate should be nil on zero-sale days", i)
		}
	}

	if result[0].RealtorRate == nil || *result[0].RealtorRate != 1 {
		t.Errorf("day 0 realtor rate = %v, want 1", result[0].RealtorRate)
	}
	if result[4].RealtorRate == nil || *result[4].RealtorRate != 0 {
		t.Errorf("day 4 realtor rate = %v, want 0", result[4].RealtorRate)
	}
}

func TestComputeDailyTrend_MovingAverages(t *testing.T) {
	// 20 consecutive days with one sale each.
	var rows []models.EnrichedRecord
	start := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 20; i++ {
		d := start.AddDate(0, 0, i)
		rows = append(rows, saleOn(d.Format("2006-01-02"), "Direct"))
	}

	result := ComputeDailyTrend(rows)

	if len(result) != 20 {
		t.Fatalf("expected 20 days, got %d", len(result))
	}

	// MA14 undefined until 14 days of history exist.
	for i := 0; i < 13; i++ {
		if result[i].MA14 != nil {
			t.Errorf("day %d MA14 = %v, want nil before a full window", i, result[i].MA14)
		}
	}
	for i := 13; i < 20; i++ {
		if result[i].MA14 == nil || *result[i].MA14 != 1 {
			t.Errorf("day %d MA14 = %v, want 1", i, result[i].MA14)
		}
	}

	// MA30 never fills on a 20-day series.
	for i := range result {
		if result[i].MA30 != nil {
			t.Errorf("day %d MA30 = %v, want nil", i, result[i].MA30)
		}
	}
}

func TestComputeDailyTrend_Empty(t *testing.T) {
	if got := ComputeDailyTrend(nil); got != nil {
		t.Errorf("expected nil for no dated sales, got %v", got)
	}

	noDates := []models.EnrichedRecord{{RealtorDirect: "Direct"}}
	if got := ComputeDailyTrend(noDates); got != nil {
		t.Errorf("expected nil when no row has a sale date, got %v", got)
	}
}

func TestComputeWeekSales(t *testing.T) {
	weekStart := time.Date(2024, 9, 2, 0, 0, 0, 0, time.UTC) // Monday

	rows := []models.EnrichedRecord{
		saleOn("2024-09-02", "Realtor"),
		saleOn("2024-09-02", "Realtor"),
		saleOn("2024-09-02", "Direct"),
		saleOn("2024-09-08", "Direct"), // Sunday, last day of the week
		saleOn("2024-09-09", "Direct"), // next Monday: out
		saleOn("2024-09-01", "Direct"), // day before: out
	}
	rows[0].CommunityName = "Trinity Falls"
	rows[0].EstCOEDate = ParseDate("2024-12-15")

	chart, details := ComputeWeekSales(rows, weekStart)

	if len(details) != 4 {
		t.Fatalf("expected 4 detail rows, got %d", len(details))
	}

	// Chart cells: Monday Realtor x2, Monday Direct, Sunday Direct.
	if len(chart) != 3 {
		t.Fatalf("expected 3 chart cells, got %d", len(chart))
	}
	if chart[0].Channel != "Direct" || chart[0].Homes != 1 {
		t.Errorf("first cell = %+v, want Monday Direct 1", chart[0])
	}
	if chart[1].Channel != "Realtor" || chart[1].Homes != 2 {
		t.Errorf("second cell = %+v, want Monday Realtor 2", chart[1])
	}

	// Detail rows are sorted by sale date and carry COE year/month.
	if details[3].SaleDate.Day() != 8 {
		t.Errorf("last detail date = %v, want the Sunday sale", details[3].SaleDate)
	}
	var found bool
	for _, d := range details {
		if d.CommunityName == "Trinity Falls" {
			found = true
			if d.COEYear != 2024 || d.COEMonth != "Dec" {
				t.Errorf("COE = %d/%q, want 2024/Dec", d.COEYear, d.COEMonth)
			}
		}
	}
	if !found {
		t.Error("Trinity Falls detail row missing")
	}
}
