package services

import (
	"math"
	"sort"
	"time"

	"matt-dashboard/internal/models"
)

// weekdayOrder is the canonical reporting week.
var weekdayOrder = []string{
	"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
}

// ComputeDOWSummary distributes sales across the canonical seven-day
// week. Days with no sales still appear, at zero, so the output always
// has exactly seven rows in Monday..Sunday order. Percentages are of
// the window total; RunningPct accumulates them for the Pareto layout.
func ComputeDOWSummary(rows []models.EnrichedRecord) []models.DOWRow {
	counts := make(map[string]int, 7)
	total := 0
	for i := range rows {
		if rows[i].DOWSale == "" {
			continue
		}
		counts[rows[i].DOWSale]++
		total++
	}

	result := make([]models.DOWRow, 0, 7)
	running := 0.0
	for _, day := range weekdayOrder {
		row := models.DOWRow{Day: day, Sales: counts[day]}
		if total > 0 {
			row.SalesPct = 100 * float64(row.Sales) / float64(total)
		}
		running += row.SalesPct
		row.RunningPct = running
		result = append(result, row)
	}
	return result
}

// ComputeMonthlyWeekdayMix splits each calendar month's sales between
// weekday and weekend, with each side's share of the month total
// rounded to whole percent. Months are chronological.
func ComputeMonthlyWeekdayMix(rows []models.EnrichedRecord) []models.MonthlyMixRow {
	type accum struct {
		first  time.Time
		mf     int
		satSun int
	}
	months := make(map[string]*accum)

	for i := range rows {
		rec := &rows[i]
		if rec.SaleDate == nil {
			continue
		}
		d := *rec.SaleDate
		key := d.Format("2006-01")
		acc := months[key]
		if acc == nil {
			acc = &accum{first: time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)}
			months[key] = acc
		}
		if rec.WeekdayGroup == "Sat-Sun" {
			acc.satSun++
		} else {
			acc.mf++
		}
	}

	keys := make([]string, 0, len(months))
	for k := range months {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := make([]models.MonthlyMixRow, 0, len(keys))
	for _, k := range keys {
		acc := months[k]
		row := models.MonthlyMixRow{
			Month:  k,
			Label:  acc.first.Format("Jan, 2006"),
			MF:     acc.mf,
			SatSun: acc.satSun,
			Total:  acc.mf + acc.satSun,
		}
		if row.Total > 0 {
			row.MFPct = math.Round(100 * float64(row.MF) / float64(row.Total))
			row.SatSunPct = math.Round(100 * float64(row.SatSun) / float64(row.Total))
		}
		result = append(result, row)
	}
	return result
}

// ComputeDailyTrend resamples sales onto a continuous daily axis from
// the first to the last observed sale date (zero-filled in between) and
// derives the trailing moving averages the trend report draws: 14- and
// 30-day sales averages, 14-day averages of each channel's volume, and
// the realtor attachment rate (realtor sales over total sales per day)
// with its own 14-day average. A trailing window yields nil until it is
// fully populated; the attachment rate is nil on zero-sale days and its
// average covers only the defined rates inside the window.
func ComputeDailyTrend(rows []models.EnrichedRecord) []models.TrendPoint {
	type dayCount struct {
		total   int
		realtor int
		direct  int
	}
	days := make(map[time.Time]*dayCount)
	var minDay, maxDay time.Time

	for i := range rows {
		rec := &rows[i]
		if rec.SaleDate == nil {
			continue
		}
		d := DateOnly(*rec.SaleDate)
		if len(days) == 0 || d.Before(minDay) {
			minDay = d
		}
		if len(days) == 0 || d.After(maxDay) {
			maxDay = d
		}
		dc := days[d]
		if dc == nil {
			dc = &dayCount{}
			days[d] = dc
		}
		dc.total++
		if rec.RealtorDirect == "Realtor" {
			dc.realtor++
		} else {
			dc.direct++
		}
	}
	if len(days) == 0 {
		return nil
	}

	n := int(maxDay.Sub(minDay).Hours()/24) + 1
	dates := make([]time.Time, n)
	sales := make([]float64, n)
	realtor := make([]float64, n)
	direct := make([]float64, n)
	rates := make([]*float64, n)

	for i := 0; i < n; i++ {
		d := minDay.AddDate(0, 0, i)
		dates[i] = d
		if dc, ok := days[d]; ok {
			sales[i] = float64(dc.total)
			realtor[i] = float64(dc.realtor)
			direct[i] = float64(dc.direct)
			rate := float64(dc.realtor) / float64(dc.total)
			rates[i] = &rate
		}
	}

	ma14 := movingAverage(sales, 14)
	ma30 := movingAverage(sales, 30)
	realtorMA := movingAverage(realtor, 14)
	directMA := movingAverage(direct, 14)
	rateMA := movingAverageSparse(rates, 14)

	result := make([]models.TrendPoint, n)
	for i := 0; i < n; i++ {
		result[i] = models.TrendPoint{
			Date:            dates[i],
			Sales:           int(sales[i]),
			MA14:            ma14[i],
			MA30:            ma30[i],
			RealtorRate:     rates[i],
			RealtorRateMA14: rateMA[i],
			DirectMA14:      directMA[i],
			RealtorMA14:     realtorMA[i],
		}
	}
	return result
}

// ComputeWeekSales builds the selected week's stacked daily chart data
// and its detail rows. The week runs weekStart through weekStart+6.
func ComputeWeekSales(rows []models.EnrichedRecord, weekStart time.Time) ([]models.WeekDaySales, []models.WeekSaleDetail) {
	start := DateOnly(weekStart)
	end := start.AddDate(0, 0, 6)

	type cell struct {
		date    time.Time
		channel string
	}
	counts := make(map[cell]int)
	var details []models.WeekSaleDetail

	for i := range rows {
		rec := &rows[i]
		if rec.SaleDate == nil {
			continue
		}
		d := DateOnly(*rec.SaleDate)
		if d.Before(start) || d.After(end) {
			continue
		}
		counts[cell{date: d, channel: rec.RealtorDirect}]++

		detail := models.WeekSaleDetail{
			Hub:           rec.Hub,
			CommunityName: rec.CommunityName,
			PlanName:      rec.PlanName,
			InvestorSale:  rec.InvestorSale,
			NHCName:       rec.NHCName,
			SaleDate:      d,
			BuyerName:     rec.BuyerName,
			RealtorDirect: rec.RealtorDirect,
		}
		if rec.EstCOEDate != nil {
			detail.COEYear = rec.EstCOEDate.Year()
			detail.COEMonth = rec.EstCOEDate.Format("Jan")
		}
		details = append(details, detail)
	}

	chart := make([]models.WeekDaySales, 0, len(counts))
	for c, n := range counts {
		chart = append(chart, models.WeekDaySales{Date: c.date, Channel: c.channel, Homes: n})
	}
	sort.Slice(chart, func(i, j int) bool {
		if !chart[i].Date.Equal(chart[j].Date) {
			return chart[i].Date.Before(chart[j].Date)
		}
		return chart[i].Channel < chart[j].Channel
	})
	sort.Slice(details, func(i, j int) bool { return details[i].SaleDate.Before(details[j].SaleDate) })
	return chart, details
}

// movingAverage is a simple trailing window over a dense series. The
// first window-1 positions are nil.
func movingAverage(vals []float64, window int) []*float64 {
	out := make([]*float64, len(vals))
	sum := 0.0
	for i, v := range vals {
		sum += v
		if i >= window {
			sum -= vals[i-window]
		}
		if i >= window-1 {
			avg := sum / float64(window)
			out[i] = &avg
		}
	}
	return out
}

// movingAverageSparse averages the non-nil values in each full trailing
// window, nil when the window holds none.
func movingAverageSparse(vals []*float64, window int) []*float64 {
	out := make([]*float64, len(vals))
	for i := window - 1; i < len(vals); i++ {
		sum := 0.0
		n := 0
		for j := i - window + 1; j <= i; j++ {
			if vals[j] != nil {
				sum += *vals[j]
				n++
			}
		}
		if n > 0 {
			avg := sum / float64(n)
			out[i] = &avg
		}
	}
	return out
}
