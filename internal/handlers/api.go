package handlers

import (
	stderrors "errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"matt-dashboard/internal/errors"
	"matt-dashboard/internal/models"
	"matt-dashboard/internal/refdata"
	"matt-dashboard/internal/services"
)

const dateLayout = "2006-01-02"

// defaultSession backs single-user deployments that never send a
// session header.
const defaultSession = "default"

type APIHandlers struct {
	store     *services.Store
	hubs      refdata.HubReference
	plans     refdata.PlanReference
	fred      *services.FredClient
	maxUpload int64
	logger    *slog.Logger
}

func NewAPIHandlers(store *services.Store, hubs refdata.HubReference, plans refdata.PlanReference, fred *services.FredClient, maxUpload int64, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		store:     store,
		hubs:      hubs,
		plans:     plans,
		fred:      fred,
		maxUpload: maxUpload,
		logger:    logger,
	}
}

func sessionID(r *http.Request) string {
	if s := r.Header.Get("X-Session-ID"); s != "" {
		return s
	}
	if s := r.URL.Query().Get("session"); s != "" {
		return s
	}
	return defaultSession
}

func requestID(r *http.Request) string {
	return r.Header.Get("X-Request-ID")
}

// HandleUpload ingests a MATT export, enriches it and replaces the
// session's dataset. A file missing required columns is rejected whole;
// the error names every missing column.
func (h *APIHandlers) HandleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)

	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		errors.WriteError(w, h.logger, errors.BadRequestWrap(err, "Could not parse upload"), requestID(r))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		errors.WriteError(w, h.logger, errors.BadRequest("Missing file field"), requestID(r))
		return
	}
	defer file.Close()

	raw, err := services.ParseMATT(r.Context(), file)
	if err != nil {
		var missing *services.MissingColumnsError
		if stderrors.As(err, &missing) {
			appErr := errors.Validation("MATT file is missing required columns").
				WithDetails(strings.Join(missing.Columns, ", "))
			errors.WriteError(w, h.logger, appErr, requestID(r))
			return
		}
		errors.WriteError(w, h.logger, errors.BadRequestWrap(err, "Could not read MATT file"), requestID(r))
		return
	}

	enriched := services.Enrich(raw, h.hubs, h.plans)
	session := sessionID(r)
	ds := h.store.Put(session, enriched)

	h.logger.Info("MATT upload processed",
		"session", session,
		"filename", header.Filename,
		"records", len(enriched),
	)

	errors.WriteSuccess(w, map[string]any{
		"dataset_id":  ds.ID,
		"records":     len(ds.Records),
		"uploaded_at": ds.UploadedAt,
	})
}

// dataset fetches the session's dataset or writes a 404.
func (h *APIHandlers) dataset(w http.ResponseWriter, r *http.Request) (*services.Dataset, bool) {
	ds, ok := h.store.Get(sessionID(r))
	if !ok {
		errors.WriteError(w, h.logger, errors.NotFound("No dataset uploaded for this session"), requestID(r))
		return nil, false
	}
	return ds, true
}

func parseDate(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, errors.BadRequestWrap(err, "Invalid "+name+" date, want YYYY-MM-DD")
	}
	return &t, nil
}

// dateOrDefault returns the named query date, or fallback when absent.
func dateOrDefault(r *http.Request, name string, fallback time.Time) (time.Time, error) {
	t, err := parseDate(r, name)
	if err != nil {
		return time.Time{}, err
	}
	if t == nil {
		return fallback, nil
	}
	return *t, nil
}

// filterParams reads the shared sidebar filters off the query string.
func filterParams(r *http.Request) (services.FilterParams, error) {
	var f services.FilterParams
	if raw := r.URL.Query().Get("divisions"); raw != "" {
		f.Divisions = strings.Split(raw, ",")
	}
	var err error
	if f.Start, err = parseDate(r, "start"); err != nil {
		return f, err
	}
	if f.End, err = parseDate(r, "end"); err != nil {
		return f, err
	}
	f.Investor = r.URL.Query().Get("investor")
	f.Channel = r.URL.Query().Get("channel")
	return f, nil
}

// HandleFilters returns the cascading sidebar options for the session's
// dataset.
func (h *APIHandlers) HandleFilters(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.dataset(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	opts := services.ComputeFilterOptions(ds.Records,
		splitList(q.Get("hubs")),
		splitList(q.Get("communities")),
		splitList(q.Get("collections")),
	)
	errors.WriteSuccess(w, opts)
}

// HandlePricing returns average pricing by plan (or the requested
// grouping columns) over the sale-date window.
func (h *APIHandlers) HandlePricing(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.dataset(w, r)
	if !ok {
		return
	}

	now := time.Now().UTC()
	start, err := dateOrDefault(r, "start", now.AddDate(-1, 0, 0))
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID(r))
		return
	}
	end, err := dateOrDefault(r, "end", now)
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID(r))
		return
	}

	groupKeys := splitList(r.URL.Query().Get("group"))
	rows, ok := h.filtered(w, r, ds)
	if !ok {
		return
	}

	summary := services.ComputePlanPricing(rows, start, end, groupKeys...)
	errors.WriteSuccess(w, map[string]any{
		"groups":  groupKeysOrDefault(groupKeys),
		"rows":    summary,
		"window":  map[string]string{"start": start.Format(dateLayout), "end": end.Format(dateLayout)},
		"records": len(rows),
	})
}

// HandleInventorySnapshots returns four weekly unsold-inventory
// snapshots plus last week's sold counts per group.
func (h *APIHandlers) HandleInventorySnapshots(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.dataset(w, r)
	if !ok {
		return
	}

	now := time.Now().UTC()
	snapshot, err := dateOrDefault(r, "snapshot", now)
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID(r))
		return
	}
	coeStart, coeEnd, err := coeWindow(r, now)
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID(r))
		return
	}

	groupKey := r.URL.Query().Get("group")
	if groupKey == "" {
		groupKey = models.GroupHub
	}

	rows, ok := h.filtered(w, r, ds)
	if !ok {
		return
	}
	snapshots := services.BuildWeeklySnapshots(rows, groupKey, snapshot, coeStart, coeEnd, nil)
	lastWeek := services.LastWeekSold(rows, groupKey, snapshot, coeStart, coeEnd)

	errors.WriteSuccess(w, map[string]any{
		"group_by":       groupKey,
		"snapshot_date":  snapshot.Format(dateLayout),
		"weeks":          services.SnapshotWeeks,
		"rows":           snapshots,
		"last_week_sold": lastWeek,
	})
}

// HandleInventoryPivot returns the status-by-COE-month count table.
func (h *APIHandlers) HandleInventoryPivot(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.dataset(w, r)
	if !ok {
		return
	}

	now := time.Now().UTC()
	coeStart, coeEnd, err := coeWindow(r, now)
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID(r))
		return
	}

	rows, ok := h.filtered(w, r, ds)
	if !ok {
		return
	}
	pivot := services.ComputeInventoryPivot(rows, coeStart, coeEnd)
	errors.WriteSuccess(w, pivot)
}

// HandlePace classifies each community's selling pace against its
// sell-out target. Only communities recognized by the Hub reference
// participate; rows the join missed have no community to report on.
func (h *APIHandlers) HandlePace(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.dataset(w, r)
	if !ok {
		return
	}

	now := time.Now().UTC()
	today, err := dateOrDefault(r, "today", now)
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID(r))
		return
	}
	target, err := dateOrDefault(r, "target", endOfYear(today))
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID(r))
		return
	}
	coeStart, coeEnd, err := coeWindow(r, now)
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID(r))
		return
	}

	rows, ok := h.filtered(w, r, ds)
	if !ok {
		return
	}
	valid := rows[:0:0]
	for i := range rows {
		if rows[i].CommunityName != "" {
			valid = append(valid, rows[i])
		}
	}

	paceRows, slope := services.ComputePaceVsMargin(valid, today, target, coeStart, coeEnd)
	errors.WriteSuccess(w, map[string]any{
		"target_date": target.Format(dateLayout),
		"slope":       slope,
		"rows":        paceRows,
		"categories":  services.CategoryCounts(paceRows),
	})
}

// HandleDOW returns the day-of-week distribution and the monthly
// weekday/weekend mix for the filtered dataset.
func (h *APIHandlers) HandleDOW(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.dataset(w, r)
	if !ok {
		return
	}

	rows, ok := h.filtered(w, r, ds)
	if !ok {
		return
	}
	errors.WriteSuccess(w, map[string]any{
		"summary":     services.ComputeDOWSummary(rows),
		"monthly_mix": services.ComputeMonthlyWeekdayMix(rows),
	})
}

// HandleTrend returns the continuous daily sales trend with its moving
// averages and realtor attachment rate.
func (h *APIHandlers) HandleTrend(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.dataset(w, r)
	if !ok {
		return
	}

	rows, ok := h.filtered(w, r, ds)
	if !ok {
		return
	}
	errors.WriteSuccess(w, services.ComputeDailyTrend(rows))
}

// HandleWeek returns one week's stacked daily chart and detail rows.
// week_start defaults to the Monday of the current week.
func (h *APIHandlers) HandleWeek(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.dataset(w, r)
	if !ok {
		return
	}

	now := time.Now().UTC()
	weekStart, err := dateOrDefault(r, "week_start", mondayOf(now))
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID(r))
		return
	}

	rows, ok := h.filtered(w, r, ds)
	if !ok {
		return
	}
	chart, details := services.ComputeWeekSales(rows, weekStart)
	errors.WriteSuccess(w, map[string]any{
		"week_start": services.DateOnly(weekStart).Format(dateLayout),
		"chart":      chart,
		"details":    details,
	})
}

// HandleMortgageRates proxies the FRED 30-year fixed series, optionally
// windowed. Without an API key the overlay is simply unavailable.
func (h *APIHandlers) HandleMortgageRates(w http.ResponseWriter, r *http.Request) {
	rates, err := h.fred.MortgageRates(r.Context())
	if err != nil {
		if stderrors.Is(err, services.ErrNoAPIKey) {
			errors.WriteError(w, h.logger, errors.ServiceUnavailable("Mortgage rate overlay is not configured"), requestID(r))
			return
		}
		errors.WriteError(w, h.logger, errors.Wrap(err, errors.CodeServiceUnavail, "Could not fetch mortgage rates"), requestID(r))
		return
	}

	start, err2 := parseDate(r, "start")
	if err2 != nil {
		errors.WriteError(w, h.logger, err2, requestID(r))
		return
	}
	end, err2 := parseDate(r, "end")
	if err2 != nil {
		errors.WriteError(w, h.logger, err2, requestID(r))
		return
	}
	if start != nil || end != nil {
		s := time.Time{}
		e := time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)
		if start != nil {
			s = *start
		}
		if end != nil {
			e = *end
		}
		rates = services.FilterRates(rates, s, e)
	}

	headers := map[string]string{
		"Cache-Control": "public, max-age=3600",
	}
	errors.WriteSuccessWithHeaders(w, rates, headers)
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	healthData := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
	}

	errors.WriteSuccess(w, healthData)
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats := h.store.Stats()
	stats["hub_communities"] = len(h.hubs)
	stats["plans"] = len(h.plans)

	errors.WriteSuccess(w, stats)
}

// filtered applies the sidebar filters; a bad filter writes the error
// and reports not-ok.
func (h *APIHandlers) filtered(w http.ResponseWriter, r *http.Request, ds *services.Dataset) ([]models.EnrichedRecord, bool) {
	f, err := filterParams(r)
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID(r))
		return nil, false
	}
	return f.Apply(ds.Records), true
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func groupKeysOrDefault(keys []string) []string {
	if len(keys) == 0 {
		return []string{models.GroupPlan}
	}
	return keys
}

// coeWindow reads the estimated-COE window; it defaults to the current
// calendar year.
func coeWindow(r *http.Request, now time.Time) (time.Time, time.Time, error) {
	start, err := dateOrDefault(r, "coe_start", time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := dateOrDefault(r, "coe_end", endOfYear(now))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

func endOfYear(t time.Time) time.Time {
	return time.Date(t.Year(), 12, 31, 0, 0, 0, 0, time.UTC)
}

func mondayOf(t time.Time) time.Time {
	d := services.DateOnly(t)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}
