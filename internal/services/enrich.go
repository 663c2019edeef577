package services

import (
	"strconv"
	"strings"
	"time"

	"matt-dashboard/internal/models"
	"matt-dashboard/internal/refdata"
)

// investorNHCNames are the sales consultants whose transactions count
// as investor sales. The list comes from sales ops and is matched after
// trimming and upper-casing, since the export pads names unevenly.
var investorNHCNames = normalizeNames(
	"Chanin, Kristian                   (DFW)",
	"PEREZ, LARRY",
	"LAWRENCE PETER                          ",
	"Perez, Larry                       (DFW)",
	"Stierwalt, Tanner                  (DFW)",
	"Krueger, Cole                      (HOU)",
	"Shackelford, Leah                  (HOU)",
	"Batchelor, Christina               (HOU)",
)

func normalizeNames(names ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		set[strings.ToUpper(strings.TrimSpace(name))] = struct{}{}
	}
	return set
}

var homesiteLabels = map[string]string{
	models.StatusBacklog: "Backlog",
	models.StatusUnsold:  "Unsold",
	models.StatusClosed:  "Closed",
	models.StatusModel:   "Model",
}

// dateLayouts are tried in order when parsing MATT date text. Anything
// that matches none of them becomes a nil date, never an error.
var dateLayouts = []string{
	"2006-01-02",
	"1/2/2006",
	"01/02/2006",
	"2006-01-02 15:04:05",
	"1/2/2006 15:04",
	"2006/01/02",
	"Jan 2, 2006",
	"2-Jan-2006",
}

// Enrich joins raw MATT rows against the hub and plan references and
// derives the reporting fields. Both joins are left joins: a row whose
// community or plan code has no match keeps empty lookup fields. The
// output always has exactly one record per input row, in input order.
func Enrich(raw []models.RawSaleRecord, hubs refdata.HubReference, plans refdata.PlanReference) []models.EnrichedRecord {
	out := make([]models.EnrichedRecord, len(raw))
	for i := range raw {
		out[i] = enrichOne(&raw[i], hubs, plans)
	}
	return out
}

func enrichOne(r *models.RawSaleRecord, hubs refdata.HubReference, plans refdata.PlanReference) models.EnrichedRecord {
	rec := models.EnrichedRecord{
		Division:        r.Division,
		Project:         r.Project,
		BuyerName:       r.BuyerName,
		Community:       r.Community,
		PlanCode:        NormalizePlanCode(r.PlanCode),
		NHCName:         r.NHCName,
		HomesiteType:    r.HomesiteType,
		CoBroke:         r.CoBroke,
		BasePrice:       r.BasePrice,
		HomesitePremium: r.HomesitePremium,
		PriceIncentive:  r.PriceIncentive,
		OptionRevenue:   r.OptionRevenue,
		NetSalesPrice:   r.NetSalesPrice,
		TotalSqFt:       r.TotalSqFt,
	}

	// Community join key: leading 5 characters parsed as an integer.
	// A short or non-numeric code fails this row's hub join only.
	if num, ok := communityNumber(r.Community); ok {
		rec.CommNumber = num
		rec.HasCommNumber = true
		if hub, ok := hubs[num]; ok {
			rec.Hub = strings.TrimSpace(hub.Hub)
			rec.CommunityName = strings.TrimSpace(hub.CommunityName)
		}
	}

	if plan, ok := plans[rec.PlanCode]; ok {
		rec.PlanName = strings.TrimSpace(plan.PlanName)
		rec.Collection = strings.TrimSpace(plan.Collection)
	}

	rec.SaleDate = ParseDate(r.SaleDate)
	rec.EstCOEDate = ParseDate(r.EstCOEDate)
	rec.CancelDate = ParseDate(r.CancelDate)

	if rec.SaleDate != nil {
		rec.DOWSale = rec.SaleDate.Weekday().String()
		switch rec.SaleDate.Weekday() {
		case time.Saturday, time.Sunday:
			rec.WeekdayGroup = "Sat-Sun"
		default:
			rec.WeekdayGroup = "M-F"
		}
	}

	if _, ok := investorNHCNames[strings.ToUpper(strings.TrimSpace(r.NHCName))]; ok {
		rec.InvestorSale = "Investor"
	} else {
		rec.InvestorSale = "Retail"
	}

	if strings.TrimSpace(r.CoBroke) == "Y" {
		rec.RealtorDirect = "Realtor"
	} else {
		rec.RealtorDirect = "Direct"
	}

	if label, ok := homesiteLabels[r.HomesiteType]; ok {
		rec.HomesiteLabel = label
	} else {
		rec.HomesiteLabel = r.HomesiteType
	}

	return rec
}

// NormalizePlanCode trims a plan code and strips one literal trailing
// ".0" — the float artifact left by spreadsheet round-trips. This is
// text removal, not numeric rounding: "12.03" is untouched, while a
// genuinely dotted code like "10.0" also loses its suffix. Reference
// plan codes were assigned with this behavior in place, so it stays.
func NormalizePlanCode(code string) string {
	return strings.TrimSuffix(strings.TrimSpace(code), ".0")
}

func communityNumber(community string) (int, bool) {
	if len(community) < 5 {
		return 0, false
	}
	num, err := strconv.Atoi(community[:5])
	if err != nil {
		return 0, false
	}
	return num, true
}

// ParseDate parses MATT date text leniently: the first matching layout
// wins, and anything unparseable is nil.
func ParseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// DateOnly truncates a time to midnight UTC, the resolution every
// engine compares and subtracts at.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
