package services

import (
	"sort"
	"time"

	"matt-dashboard/internal/models"
)

// FilterParams are the sidebar filters shared by the report views.
// Zero values mean "All".
type FilterParams struct {
	Divisions []string
	Start     *time.Time
	End       *time.Time
	Investor  string // Retail or Investor
	Channel   string // Realtor or Direct
}

// Apply returns the records passing every set filter. When a date range
// is set, records without a sale date are excluded, matching how the
// report pages window on sale date.
func (f FilterParams) Apply(rows []models.EnrichedRecord) []models.EnrichedRecord {
	divisions := make(map[string]struct{}, len(f.Divisions))
	for _, d := range f.Divisions {
		divisions[d] = struct{}{}
	}

	var out []models.EnrichedRecord
	for i := range rows {
		rec := &rows[i]
		if len(divisions) > 0 {
			if _, ok := divisions[rec.Division]; !ok {
				continue
			}
		}
		if f.Start != nil || f.End != nil {
			if rec.SaleDate == nil {
				continue
			}
			if f.Start != nil && rec.SaleDate.Before(*f.Start) {
				continue
			}
			if f.End != nil && rec.SaleDate.After(*f.End) {
				continue
			}
		}
		if f.Investor != "" && f.Investor != "All" && rec.InvestorSale != f.Investor {
			continue
		}
		if f.Channel != "" && f.Channel != "All" && rec.RealtorDirect != f.Channel {
			continue
		}
		out = append(out, *rec)
	}
	return out
}

// FilterOptions are the distinct values the sidebar offers, sorted.
type FilterOptions struct {
	Divisions   []string `json:"divisions"`
	Hubs        []string `json:"hubs"`
	Communities []string `json:"communities"`
	Collections []string `json:"collections"`
	Plans       []string `json:"plans"`
	Statuses    []string `json:"statuses"`
}

// ComputeFilterOptions collects the cascading filter choices from a
// dataset. Hubs narrow communities, communities narrow collections,
// collections narrow plans; empty selections mean no narrowing.
func ComputeFilterOptions(rows []models.EnrichedRecord, hubs, communities, collections []string) FilterOptions {
	hubSet := toSet(hubs)
	communitySet := toSet(communities)
	collectionSet := toSet(collections)

	divisions := make(map[string]struct{})
	allHubs := make(map[string]struct{})
	comms := make(map[string]struct{})
	colls := make(map[string]struct{})
	plans := make(map[string]struct{})
	statuses := make(map[string]struct{})

	for i := range rows {
		rec := &rows[i]
		add(divisions, rec.Division)
		add(allHubs, rec.Hub)
		add(statuses, rec.HomesiteLabel)

		if !matches(hubSet, rec.Hub) {
			continue
		}
		add(comms, rec.CommunityName)

		if !matches(communitySet, rec.CommunityName) {
			continue
		}
		add(colls, rec.Collection)

		if !matches(collectionSet, rec.Collection) {
			continue
		}
		add(plans, rec.PlanName)
	}

	return FilterOptions{
		Divisions:   sorted(divisions),
		Hubs:        sorted(allHubs),
		Communities: sorted(comms),
		Collections: sorted(colls),
		Plans:       sorted(plans),
		Statuses:    sorted(statuses),
	}
}

func toSet(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func matches(set map[string]struct{}, value string) bool {
	if set == nil {
		return true
	}
	_, ok := set[value]
	return ok
}

func add(set map[string]struct{}, value string) {
	if value != "" {
		set[value] = struct{}{}
	}
}

func sorted(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
