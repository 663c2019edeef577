package handlers

import (
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/starfederation/datastar-go/datastar"

	"matt-dashboard/internal/services"
)

const maxPaceTableRows = 100

var paceTableTemplate = template.Must(template.New("paceTable").Parse(`
<div id="pace-content">
<table class="modern-table">
<thead><tr><th>Community</th><th>Unsold</th><th>3-Wk Pace</th><th>Needed Pace</th><th>Delta</th><th>Category</th></tr></thead>
<tbody>
{{range .Rows}}<tr>
<td>{{.CommunityName}}</td>
<td>{{.Unsold}}</td>
<td>{{printf "%.2f" .SalesPace}}</td>
<td>{{printf "%.2f" .NeededPace}}</td>
<td>{{printf "%.2f" .Delta}}</td>
<td><span class="category-badge category-{{.Category}}">{{.Category}}</span></td>
</tr>{{end}}
</tbody>
</table>
</div>`))

type SSEHandlers struct {
	store  *services.Store
	logger *slog.Logger
}

func NewSSEHandlers(store *services.Store, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		store:  store,
		logger: logger,
	}
}

// HandleReports pushes the day-of-week, monthly-mix and daily-trend
// report data to the dashboard in one SSE exchange.
func (h *SSEHandlers) HandleReports(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.store.Get(sessionID(r))
	if !ok {
		sse := datastar.NewSSE(w, r)
		sse.PatchElements(`<div id="reports-content">Upload a MATT file to see reports</div>`)
		flush(w)
		return
	}

	f, err := filterParams(r)
	if err != nil {
		h.logger.Warn("bad report filters", "error", err)
		return
	}
	rows := f.Apply(ds.Records)

	sse := datastar.NewSSE(w, r)

	signals, err := json.Marshal(map[string]any{
		"dowData":     services.ComputeDOWSummary(rows),
		"monthlyMix":  services.ComputeMonthlyWeekdayMix(rows),
		"trendData":   services.ComputeDailyTrend(rows),
		"recordCount": len(rows),
	})
	if err != nil {
		h.logger.Error("marshal report signals", "error", err)
		return
	}
	sse.PatchSignals(signals)

	sse.PatchElements(`<div id="reports-content">✅ Report data loaded</div>`)
	flush(w)
}

// HandlePaceTable renders the pace-vs-margin table as an HTML fragment.
func (h *SSEHandlers) HandlePaceTable(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.store.Get(sessionID(r))
	if !ok {
		sse := datastar.NewSSE(w, r)
		sse.PatchElements(`<div id="pace-content">Upload a MATT file to see pace</div>`)
		flush(w)
		return
	}

	now := time.Now().UTC()
	today, err := dateOrDefault(r, "today", now)
	if err != nil {
		h.logger.Warn("bad pace date", "error", err)
		return
	}
	target, err := dateOrDefault(r, "target", endOfYear(today))
	if err != nil {
		h.logger.Warn("bad pace target", "error", err)
		return
	}
	coeStart, coeEnd, err := coeWindow(r, now)
	if err != nil {
		h.logger.Warn("bad pace window", "error", err)
		return
	}

	valid := ds.Records[:0:0]
	for i := range ds.Records {
		if ds.Records[i].CommunityName != "" {
			valid = append(valid, ds.Records[i])
		}
	}

	paceRows, _ := services.ComputePaceVsMargin(valid, today, target, coeStart, coeEnd)
	if len(paceRows) > maxPaceTableRows {
		paceRows = paceRows[:maxPaceTableRows]
	}

	var buf strings.Builder
	if err := paceTableTemplate.Execute(&buf, map[string]any{"Rows": paceRows}); err != nil {
		h.logger.Error("render pace table", "error", err)
		return
	}

	sse := datastar.NewSSE(w, r)
	sse.PatchElements(buf.String())
	flush(w)
}

func flush(w http.ResponseWriter) {
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}
