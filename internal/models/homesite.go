package models

import "time"

// Homesite status codes as they appear in the MATT export.
const (
	StatusBacklog = "B"
	StatusUnsold  = "S"
	StatusClosed  = "Z"
	StatusModel   = "M"
)

// Grouping column names shared by the metric engines.
const (
	GroupHub        = "Hub"
	GroupCommunity  = "Community Name"
	GroupPlan       = "Plan Name"
	GroupCollection = "Collection"
	GroupDivision   = "DIV_CODE_DESC"
)

// RawSaleRecord is one row of the MATT export, untouched except for the
// Textbox4/Textbox22 header renames applied by the parser. Monetary and
// date fields stay as text; the enrichment pipeline and the pricing
// engine parse them leniently.
type RawSaleRecord struct {
	Division        string
	Project         string
	BuyerName       string
	Community       string
	PlanCode        string
	SaleDate        string
	EstCOEDate      string
	CancelDate      string
	HomesiteType    string
	CoBroke         string
	NHCName         string
	BasePrice       string
	HomesitePremium string
	PriceIncentive  string
	OptionRevenue   string
	NetSalesPrice   string
	TotalSqFt       string
}

// EnrichedRecord is a RawSaleRecord joined against the Hub and Plan
// references with the derived reporting fields. Join misses leave the
// lookup fields empty; unparseable dates are nil. Enrichment never
// drops a row.
type EnrichedRecord struct {
	Division      string `json:"division"`
	Project       string `json:"project"`
	BuyerName     string `json:"buyer_name"`
	Community     string `json:"community"`
	PlanCode      string `json:"plan_code"` // normalized join key
	NHCName       string `json:"nhc_name"`
	HomesiteType  string `json:"homesite_type"`
	HomesiteLabel string `json:"homesite_label"`
	CoBroke       string `json:"-"`

	CommNumber    int  `json:"comm_number"`
	HasCommNumber bool `json:"-"`

	Hub           string `json:"hub"`
	CommunityName string `json:"community_name"`
	PlanName      string `json:"plan_name"`
	Collection    string `json:"collection"`

	SaleDate   *time.Time `json:"sale_date"`
	EstCOEDate *time.Time `json:"est_coe_date"`
	CancelDate *time.Time `json:"cancel_date"`

	DOWSale       string `json:"dow_sale"`
	WeekdayGroup  string `json:"weekday_group"`
	InvestorSale  string `json:"investor_sale"`
	RealtorDirect string `json:"realtor_direct"`

	BasePrice       string `json:"-"`
	HomesitePremium string `json:"-"`
	PriceIncentive  string `json:"-"`
	OptionRevenue   string `json:"-"`
	NetSalesPrice   string `json:"-"`
	TotalSqFt       string `json:"-"`
}

// GroupValue returns the record's value for a grouping column.
func (r *EnrichedRecord) GroupValue(key string) string {
	switch key {
	case GroupHub:
		return r.Hub
	case GroupCommunity:
		return r.CommunityName
	case GroupPlan:
		return r.PlanName
	case GroupCollection:
		return r.Collection
	case GroupDivision:
		return r.Division
	}
	return ""
}

// PricingSummary is one output row of the plan pricing aggregator.
// Group holds the values of the caller's group keys, in key order.
// Nil averages mean no parseable values existed in the group.
type PricingSummary struct {
	Group         []string `json:"group"`
	AvgBasePrice  *float64 `json:"avg_base_price"`
	AvgListPrice  *float64 `json:"avg_list_price"`
	AvgNetRevenue *float64 `json:"avg_net_revenue"`
	AvgSqFt       *float64 `json:"avg_sqft"`
	SoldHomes     int      `json:"sold_homes"`
}

// SnapshotInventoryRow is one group's unsold count and average age for
// one snapshot week label.
type SnapshotInventoryRow struct {
	Group  string  `json:"group"`
	Hub    string  `json:"hub,omitempty"`
	Week   string  `json:"week"`
	Unsold int     `json:"unsold"`
	AvgAge float64 `json:"avg_age"`
}

// PaceMarginRow is one community's pace-vs-margin classification.
type PaceMarginRow struct {
	CommunityName string  `json:"community_name"`
	Unsold        int     `json:"unsold"`
	SalesPace     float64 `json:"three_week_pace"`
	NeededPace    float64 `json:"needed_pace"`
	Delta         float64 `json:"delta"`
	Category      string  `json:"category"`
}

// DOWRow is one weekday of the day-of-week sales distribution. The
// summary always carries exactly seven rows, Monday through Sunday.
type DOWRow struct {
	Day        string  `json:"day"`
	Sales      int     `json:"sales"`
	SalesPct   float64 `json:"sales_pct"`
	RunningPct float64 `json:"running_pct"`
}

// MonthlyMixRow is one calendar month's M-F vs Sat-Sun sales split.
type MonthlyMixRow struct {
	Month     string  `json:"month"` // YYYY-MM
	Label     string  `json:"label"` // "Sep, 2024"
	MF        int     `json:"mf"`
	SatSun    int     `json:"sat_sun"`
	Total     int     `json:"total"`
	MFPct     float64 `json:"mf_pct"`
	SatSunPct float64 `json:"sat_sun_pct"`
}

// TrendPoint is one day of the continuous daily sales trend. Moving
// averages are nil until a full trailing window exists; the realtor
// attachment rate is nil on days with no sales.
type TrendPoint struct {
	Date            time.Time `json:"date"`
	Sales           int       `json:"sales"`
	MA14            *float64  `json:"ma14"`
	MA30            *float64  `json:"ma30"`
	RealtorRate     *float64  `json:"realtor_rate"`
	RealtorRateMA14 *float64  `json:"realtor_rate_ma14"`
	DirectMA14      *float64  `json:"direct_ma14"`
	RealtorMA14     *float64  `json:"realtor_ma14"`
}

// InventoryPivot is the homesite-status by COE-month count table,
// including the Grand Total row and column.
type InventoryPivot struct {
	Months []string           `json:"months"` // "Jun-2025", chronological
	Rows   []InventoryPivotRow `json:"rows"`
}

type InventoryPivotRow struct {
	Status string `json:"status"`
	Counts []int  `json:"counts"` // aligned with Months
	Total  int    `json:"total"`
}

// WeekDaySales is one day/channel cell of the weekly sales chart.
type WeekDaySales struct {
	Date    time.Time `json:"date"`
	Channel string    `json:"channel"` // Realtor or Direct
	Homes   int       `json:"homes"`
}

// WeekSaleDetail is one sale in the selected week's detail table.
type WeekSaleDetail struct {
	Hub           string    `json:"hub"`
	CommunityName string    `json:"community_name"`
	PlanName      string    `json:"plan_name"`
	InvestorSale  string    `json:"investor_sale"`
	NHCName       string    `json:"nhc_name"`
	SaleDate      time.Time `json:"sale_date"`
	BuyerName     string    `json:"buyer"`
	RealtorDirect string    `json:"realtor_direct"`
	COEYear       int       `json:"coe_year,omitempty"`
	COEMonth      string    `json:"coe_month,omitempty"`
}

// MortgageRate is one weekly 30-year fixed rate observation from FRED.
type MortgageRate struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}
