package services

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"matt-dashboard/internal/models"
)

// ParseMoney coerces MATT monetary text to a number. Dollar signs and
// thousands separators are stripped and a parenthesized value is
// negative, accounting style: "(500)" is -500. Unparseable text is nil
// and is excluded from averages by the callers.
func ParseMoney(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = s[1 : len(s)-1]
	}
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil
	}
	if neg {
		v = -v
	}
	return &v
}

type pricingAccum struct {
	group []string

	baseSum float64
	baseN   int
	listSum float64
	listN   int
	netSum  float64
	netN    int
	sqftSum float64
	sqftN   int
	rows    int
}

// ComputePlanPricing averages pricing over sold homes, grouped by one
// or more of the enriched grouping columns. Only rows whose sale date
// falls inside [start, end] participate. List price is the sum of base
// price, homesite premium, price-reduction incentives and option
// revenue with nulls coalesced to zero, so every windowed row carries a
// list price; the base/net/sqft averages instead ignore nulls. The
// result is sorted ascending by average square footage, stable, nulls
// last. An empty window yields an empty result, not an error.
func ComputePlanPricing(rows []models.EnrichedRecord, start, end time.Time, groupKeys ...string) []models.PricingSummary {
	if len(groupKeys) == 0 {
		groupKeys = []string{models.GroupPlan}
	}

	groups := make(map[string]*pricingAccum)
	for i := range rows {
		rec := &rows[i]
		if !saleDateWithin(rec, start, end) {
			continue
		}

		values := make([]string, len(groupKeys))
		for j, key := range groupKeys {
			values[j] = rec.GroupValue(key)
		}
		key := strings.Join(values, "\x1f")

		acc := groups[key]
		if acc == nil {
			acc = &pricingAccum{group: values}
			groups[key] = acc
		}
		acc.rows++

		base := ParseMoney(rec.BasePrice)
		premium := ParseMoney(rec.HomesitePremium)
		incentive := ParseMoney(rec.PriceIncentive)
		option := ParseMoney(rec.OptionRevenue)
		net := ParseMoney(rec.NetSalesPrice)
		sqft := ParseMoney(rec.TotalSqFt)

		if base != nil {
			acc.baseSum += *base
			acc.baseN++
		}
		acc.listSum += coalesce(base) + coalesce(premium) + coalesce(incentive) + coalesce(option)
		acc.listN++
		if net != nil {
			acc.netSum += *net
			acc.netN++
		}
		if sqft != nil {
			acc.sqftSum += *sqft
			acc.sqftN++
		}
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := make([]models.PricingSummary, 0, len(keys))
	for _, k := range keys {
		acc := groups[k]
		result = append(result, models.PricingSummary{
			Group:         acc.group,
			AvgBasePrice:  meanOf(acc.baseSum, acc.baseN),
			AvgListPrice:  meanOf(acc.listSum, acc.listN),
			AvgNetRevenue: meanOf(acc.netSum, acc.netN),
			AvgSqFt:       meanOf(acc.sqftSum, acc.sqftN),
			SoldHomes:     acc.rows,
		})
	}

	sort.SliceStable(result, func(i, j int) bool {
		a, b := result[i].AvgSqFt, result[j].AvgSqFt
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		return *a < *b
	})
	return result
}

func saleDateWithin(rec *models.EnrichedRecord, start, end time.Time) bool {
	if rec.SaleDate == nil {
		return false
	}
	d := *rec.SaleDate
	return !d.Before(start) && !d.After(end)
}

func coalesce(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func meanOf(sum float64, n int) *float64 {
	if n == 0 {
		return nil
	}
	m := sum / float64(n)
	return &m
}
