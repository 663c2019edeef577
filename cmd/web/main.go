package main

import (
	"context"
	"html/template"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"matt-dashboard/internal/config"
	"matt-dashboard/internal/middleware"
	"matt-dashboard/internal/observability"
	"matt-dashboard/internal/refdata"
	"matt-dashboard/internal/server"
	"matt-dashboard/internal/services"
)

const (
	sampleLoadTimeout = 30 * time.Second
	cacheMaxAge       = "public, max-age=300"
)

var dashboardTemplate = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>MATT Sales Operations Dashboard</title>
<script type="module" src="https://cdn.jsdelivr.net/gh/starfederation/datastar@main/bundles/datastar.js"></script>
</head>
<body>
<header>
<h1>MATT Sales Operations Dashboard</h1>
</header>
<main>
<section id="upload">
<form data-on-submit="@post('/api/upload', {contentType: 'form'})">
<input type="file" name="file" accept=".csv" required>
<button type="submit">Upload MATT</button>
</form>
</section>
<section id="reports-content" data-on-load="@get('/sse/reports')">Loading reports…</section>
<section id="pace-content" data-on-load="@get('/sse/pace-table')">Loading pace…</section>
</main>
</body>
</html>`))

func handleDashboard(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", cacheMaxAge)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := dashboardTemplate.Execute(w, nil); err != nil {
		http.Error(w, "render error", http.StatusInternalServerError)
	}
}

func main() {
	// Missing .env is fine; the environment may be set directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"version", "1.0.0",
		"addr", cfg.Address(),
		"data_dir", cfg.Data.Dir,
	)

	refs, err := loadReferences(cfg, logger)
	if err != nil {
		logger.Error("failed to load reference tables", "error", err)
		os.Exit(1)
	}

	store := services.NewStore(logger)
	fred := services.NewFredClient(cfg.Fred.APIKey, logger)

	if cfg.Data.SampleMATT != "" {
		if err := loadSample(cfg, store, refs, logger); err != nil {
			logger.Error("failed to load sample MATT file", "error", err)
			os.Exit(1)
		}
	}

	templateHandlers := &server.TemplateHandlers{
		Dashboard: handleDashboard,
	}

	srv := server.NewServer(server.Deps{
		Store:     store,
		Hubs:      refs.hubs,
		Plans:     refs.plans,
		Fred:      fred,
		MaxUpload: cfg.Data.MaxUpload,
	}, logger, templateHandlers)

	rateLimiter := middleware.NewRateLimiter(cfg.Security)

	middlewareChain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Tracing(),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(rateLimiter, logger),
		middleware.Passcode(cfg.Security, logger),
	)

	handler := middlewareChain(srv)

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg)

	gracefulServer.RegisterShutdownHook(func(ctx context.Context) error {
		logger.Info("clearing session datasets")
		store.Clear()
		return nil
	})

	logger.Info("starting graceful server")
	if err := gracefulServer.ListenAndServe(); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}

type references struct {
	hubs  refdata.HubReference
	plans refdata.PlanReference
}

func loadReferences(cfg *config.Config, logger *slog.Logger) (references, error) {
	start := time.Now()
	hubs, plans, err := refdata.Load(cfg.Data.Dir)
	if err != nil {
		return references{}, err
	}
	logger.Info("reference tables loaded",
		"hubs", len(hubs),
		"plans", len(plans),
		"duration", time.Since(start),
	)
	return references{hubs: hubs, plans: plans}, nil
}

// loadSample ingests the configured MATT export at startup, a developer
// convenience that skips the upload step.
func loadSample(cfg *config.Config, store *services.Store, refs references, logger *slog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), sampleLoadTimeout)
	defer cancel()

	path := cfg.Data.SampleMATT
	if !filepath.IsAbs(path) {
		path = filepath.Join(cfg.Data.Dir, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	raw, err := services.ParseMATT(ctx, f)
	if err != nil {
		return err
	}

	enriched := services.Enrich(raw, refs.hubs, refs.plans)
	ds := store.Put("default", enriched)
	logger.Info("sample MATT file loaded",
		"path", path,
		"dataset_id", ds.ID,
		"records", len(enriched),
	)
	return nil
}
