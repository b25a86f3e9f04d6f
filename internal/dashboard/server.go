package dashboard

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/ppiankov/casewatch/internal/cache"
	"github.com/ppiankov/casewatch/internal/grouping"
	"github.com/ppiankov/casewatch/internal/model"
	"github.com/ppiankov/casewatch/internal/store"
)

//go:embed templates/index.html
var templateFS embed.FS

// shutdownTimeout bounds graceful shutdown
const shutdownTimeout = 10 * time.Second

// errBadRequest marks query parsing failures
var errBadRequest = errors.New("bad request")

// Server serves the dashboard and its JSON API
type Server struct {
	path    string
	mode    grouping.Mode
	siteURL string
	ttl     time.Duration
	origins []string

	datasets *cache.MemoryCache
	page     *template.Template
	logger   *zap.Logger
}

// NewServer prepares a server for the case file at cfg.Store.Path
func NewServer(cfg *model.Config, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	mode, err := grouping.ParseMode(cfg.Grouping.Mode)
	if err != nil {
		return nil, err
	}
	page, err := template.New("index.html").Funcs(template.FuncMap{
		"selected": func(set []string, v string) bool {
			for _, s := range set {
				if s == v {
					return true
				}
			}
			return false
		},
	}).ParseFS(templateFS, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}

	ttl := cfg.Dashboard.CacheTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Server{
		path:     cfg.Store.Path,
		mode:     mode,
		siteURL:  cfg.Dashboard.SiteURL,
		ttl:      ttl,
		origins:  cfg.Dashboard.AllowedOrigins,
		datasets: cache.NewMemoryCache(ttl, 2*ttl),
		page:     page,
		logger:   logger.Named("dashboard"),
	}, nil
}

// Handler returns the routed handler
func (s *Server) Handler() http.Handler {
	mux := chi.NewRouter()
	mux.Use(requestLogger(s.logger))

	origins := s.origins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	mux.Get("/", s.wrap(s.handleIndex))
	mux.Route("/api", func(rt chi.Router) {
		rt.Get("/cases", s.wrap(s.handleCases))
		rt.Get("/stats", s.wrap(s.handleStats))
	})
	return mux
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Dashboard listening", zap.String("addr", addr), zap.String("csv", s.path))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down dashboard")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (s *Server) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h(w, r); err != nil {
			if errors.Is(err, errBadRequest) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			s.logger.Error("Request failed", zap.String("path", r.URL.Path), zap.Error(err))
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
	}
}

// records returns the stored rows, reloading when the file changes
func (s *Server) records() ([]model.CaseRecord, error) {
	key := "dataset:" + s.path
	if info, err := os.Stat(s.path); err == nil {
		key = fmt.Sprintf("%s:%d:%d", key, info.ModTime().UnixNano(), info.Size())
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("stat case file: %w", err)
	}

	val, err := s.datasets.Memoize(key, s.ttl, func() (any, error) {
		ds, err := store.Load(s.path, s.logger)
		if err != nil {
			return nil, err
		}
		s.logger.Debug("Loaded case file", zap.String("path", s.path), zap.Int("rows", ds.Len()))
		return ds.Records(), nil
	})
	if err != nil {
		return nil, fmt.Errorf("load case file: %w", err)
	}
	return val.([]model.CaseRecord), nil
}

// ParseQuery reads filter selections from URL query values
func ParseQuery(r *http.Request) (Filter, error) {
	q := r.URL.Query()
	var f Filter
	for _, c := range q["court"] {
		if c = strings.TrimSpace(c); c != "" {
			f.Courts = append(f.Courts, c)
		}
	}

	var err error
	if f.From, err = parseDay(q.Get("from")); err != nil {
		return f, fmt.Errorf("%w: from: %v", errBadRequest, err)
	}
	if f.To, err = parseDay(q.Get("to")); err != nil {
		return f, fmt.Errorf("%w: to: %v", errBadRequest, err)
	}
	if f.Citizenship, err = ParseCitizenship(q.Get("citizenship")); err != nil {
		return f, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return f, nil
}

func parseDay(s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return time.Time{}, nil
	}
	return time.Parse(model.DateLayout, strings.TrimSpace(s))
}

// View is everything the dashboard renders for one filter selection
type View struct {
	Metrics     Metrics `json:"metrics"`
	Matched     int     `json:"matched"`
	Panels      []Panel `json:"panels"`
	ByCourt     []Count `json:"by_court"`
	ByMonth     []Count `json:"by_month"`
	GroupedMode string  `json:"grouping"`
}

// Build computes the view of records under f
func Build(records []model.CaseRecord, f Filter, mode grouping.Mode, siteURL string) View {
	filtered := f.Apply(records)
	return View{
		Metrics:     ComputeMetrics(records, mode),
		Matched:     len(filtered),
		Panels:      Panels(filtered, grouping.Group(filtered, mode), siteURL),
		ByCourt:     CourtCounts(filtered),
		ByMonth:     MonthlyCounts(filtered),
		GroupedMode: string(mode),
	}
}

func (s *Server) handleCases(w http.ResponseWriter, r *http.Request) error {
	f, err := ParseQuery(r)
	if err != nil {
		return err
	}
	records, err := s.records()
	if err != nil {
		return err
	}
	return writeJSON(w, Build(records, f, s.mode, s.siteURL))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) error {
	records, err := s.records()
	if err != nil {
		return err
	}
	opts := Options(Wrongful(records))
	return writeJSON(w, map[string]any{
		"rows":     len(records),
		"wrongful": len(Wrongful(records)),
		"metrics":  ComputeMetrics(records, s.mode),
		"courts":   opts.Courts,
		"min_date": dayOrEmpty(opts.MinDate),
		"max_date": dayOrEmpty(opts.MaxDate),
	})
}

type pageData struct {
	Filter      Filter
	From        string
	To          string
	Options     FilterOptions
	Citizenship []Citizenship
	View        View
	CourtChart  template.HTML
	MonthChart  template.HTML
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) error {
	f, err := ParseQuery(r)
	if err != nil {
		return err
	}
	records, err := s.records()
	if err != nil {
		return err
	}

	view := Build(records, f, s.mode, s.siteURL)
	data := pageData{
		Filter:      f,
		From:        dayOrEmpty(f.From),
		To:          dayOrEmpty(f.To),
		Options:     Options(Wrongful(records)),
		Citizenship: CitizenshipOptions,
		View:        view,
		CourtChart:  BarChart(view.ByCourt),
		MonthChart:  LineChart(view.ByMonth),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.page.Execute(w, data); err != nil {
		return fmt.Errorf("render dashboard: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, v any) error {
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(v)
}

func dayOrEmpty(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(model.DateLayout)
}
