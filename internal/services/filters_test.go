package services

import (
	"testing"
	"time"

	"matt-dashboard/internal/models"
)

func TestFilterParams_Apply(t *testing.T) {
	rows := []models.EnrichedRecord{
		{Division: "Dallas", SaleDate: ParseDate("2024-06-01"), InvestorSale: "Retail", RealtorDirect: "Realtor"},
		{Division: "Dallas", SaleDate: ParseDate("2024-09-01"), InvestorSale: "Investor", RealtorDirect: "Direct"},
		{Division: "Houston", SaleDate: ParseDate("2024-06-15"), InvestorSale: "Retail", RealtorDirect: "Direct"},
		{Division: "Dallas", SaleDate: nil, InvestorSale: "Retail", RealtorDirect: "Direct"},
	}

	tests := []struct {
		name   string
		params FilterParams
		want   int
	}{
		{"no filters", FilterParams{}, 4},
		{"division", FilterParams{Divisions: []string{"Houston"}}, 1},
		{"two divisions", FilterParams{Divisions: []string{"Dallas", "Houston"}}, 4},
		{"investor", FilterParams{Investor: "Investor"}, 1},
		{"investor all", FilterParams{Investor: "All"}, 4},
		{"channel", FilterParams{Channel: "Realtor"}, 1},
		{
			"date range excludes undated rows",
			FilterParams{Start: timePtr(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)), End: timePtr(time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC))},
			2,
		},
		{
			"combined",
			FilterParams{Divisions: []string{"Dallas"}, Channel: "Direct", Investor: "Investor"},
			1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.params.Apply(rows)
			if len(got) != tt.want {
				t.Errorf("Apply() kept %d rows, want %d", len(got), tt.want)
			}
		})
	}
}

func TestComputeFilterOptions_Cascading(t *testing.T) {
	rows := []models.EnrichedRecord{
		{Division: "Dallas", Hub: "DFW North", CommunityName: "Trinity Falls", Collection: "Cottage", PlanName: "Juniper", HomesiteLabel: "Backlog"},
		{Division: "Dallas", Hub: "DFW North", CommunityName: "Painted Tree", Collection: "Classic", PlanName: "Magnolia", HomesiteLabel: "Unsold"},
		{Division: "Houston", Hub: "HOU West", CommunityName: "Sunterra", Collection: "Texan", PlanName: "Bluebonnet", HomesiteLabel: "Closed"},
	}

	all := ComputeFilterOptions(rows, nil, nil, nil)
	if len(all.Hubs) != 2 || len(all.Communities) != 3 || len(all.Plans) != 3 {
		t.Errorf("unfiltered options = %d hubs %d communities %d plans", len(all.Hubs), len(all.Communities), len(all.Plans))
	}

	narrowed := ComputeFilterOptions(rows, []string{"DFW North"}, nil, nil)
	if len(narrowed.Communities) != 2 {
		t.Errorf("hub-narrowed communities = %v, want 2", narrowed.Communities)
	}
	// Hubs themselves stay complete so the user can change selection.
	if len(narrowed.Hubs) != 2 {
		t.Errorf("hubs = %v, should not narrow themselves", narrowed.Hubs)
	}

	deep := ComputeFilterOptions(rows, []string{"DFW North"}, []string{"Trinity Falls"}, nil)
	if len(deep.Plans) != 1 || deep.Plans[0] != "Juniper" {
		t.Errorf("community-narrowed plans = %v, want [Juniper]", deep.Plans)
	}
}

func TestComputeFilterOptions_SkipsEmptyValues(t *testing.T) {
	rows := []models.EnrichedRecord{
		{Division: "Dallas", Hub: "", CommunityName: ""},
	}

	opts := ComputeFilterOptions(rows, nil, nil, nil)
	if len(opts.Hubs) != 0 {
		t.Errorf("empty hub values should not become options, got %v", opts.Hubs)
	}
}
