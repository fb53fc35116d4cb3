package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"litcal/internal/assembler"
	"litcal/internal/config"
	"litcal/internal/dates"
	"litcal/internal/i18n"
	"litcal/internal/ics"
	appLog "litcal/internal/log"
	"litcal/internal/source"
)

// Server exposes computed calendars over HTTP.
//
//	GET /health
//	GET /api/calendar?year=&nation=&diocese=&locale=&format=json|yaml|ics
//	GET /api/calendars
//	GET /api/easter?year=
type Server struct {
	cfg        *config.Config
	assembler  *assembler.Assembler
	registry   *source.Registry
	translator *i18n.Translator
	mux        *http.ServeMux

	// now is replaced in tests.
	now func() time.Time

	// In-memory cache of computed calendars. A calendar only depends on
	// its key and the loaded data, so entries expire on TTL alone.
	cacheMu sync.RWMutex
	cache   map[cacheKey]cacheEntry
}

type cacheKey struct {
	scope  string
	year   int
	locale string
}

type cacheEntry struct {
	res       assembler.Result
	updatedAt time.Time
}

// NewServer constructs a new Server.
func NewServer(cfg *config.Config, a *assembler.Assembler, reg *source.Registry, tr *i18n.Translator) *Server {
	if reg == nil {
		reg = source.Empty()
	}
	s := &Server{
		cfg:        cfg,
		assembler:  a,
		registry:   reg,
		translator: tr,
		mux:        http.NewServeMux(),
		now:        time.Now,
		cache:      map[cacheKey]cacheEntry{},
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// StartServer serves s on cfg.Listen until ctx is cancelled, then shuts
// down gracefully.
func StartServer(ctx context.Context, s *Server) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		appLog.Info("shutting down HTTP server")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/calendar", s.handleCalendar)
	s.mux.HandleFunc("GET /api/calendars", s.handleCalendars)
	s.mux.HandleFunc("GET /api/easter", s.handleEaster)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handleCalendars(w http.ResponseWriter, _ *http.Request) {
	type calendarsResponse struct {
		source.Index
		Locales []string `json:"locales"`
	}
	resp := calendarsResponse{Index: s.registry.Index()}
	if s.translator != nil {
		resp.Locales = s.translator.Locales()
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleEaster returns the Gregorian, Julian and Western-Julian dates of
// Easter for one year.
//
// GET /api/easter?year=2024
func (s *Server) handleEaster(w http.ResponseWriter, r *http.Request) {
	year, err := s.yearParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if year < 1583 || year > assembler.MaxYear {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("year must be between 1583 and %d", assembler.MaxYear))
		return
	}
	info := dates.EasterFor(year)
	writeJSON(w, http.StatusOK, map[string]any{
		"year":           info.Year,
		"gregorian":      info.Gregorian.Format(time.DateOnly),
		"julian":         info.Julian.Format(time.DateOnly),
		"western_julian": info.WesternJulian.Format(time.DateOnly),
		"coinciding":     info.Coinciding,
	})
}

// handleCalendar computes (or serves from cache) one calendar.
//
// GET /api/calendar?year=2025&nation=US&locale=en&format=ics
//   - year:    defaults to the current year
//   - nation / diocese: scope; a diocese implies its nation
//   - locale:  falls back to Accept-Language, then the configured default
//   - format:  json (default), yaml or ics
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	year, err := s.yearParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	format := strings.ToLower(strings.TrimSpace(q.Get("format")))
	switch format {
	case "":
		format = "json"
	case "json", "yaml", "ics":
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported format %q", format))
		return
	}
	scope, err := s.scopeParam(q.Get("nation"), q.Get("diocese"))
	if err != nil {
		writeCalendarError(w, err)
		return
	}
	locale := s.localeParam(r)

	res, err := s.Calendar(year, scope, locale)
	if err != nil {
		writeCalendarError(w, err)
		return
	}

	switch format {
	case "yaml":
		b, err := yaml.Marshal(res)
		if err != nil {
			appLog.Error("failed to encode YAML response", err)
			writeError(w, http.StatusInternalServerError, "failed to encode calendar")
			return
		}
		w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(b)
	case "ics":
		body := ics.Export(res, ics.Options{
			ProductID: s.cfg.ICal.ProductID,
			Domain:    s.cfg.ICal.Domain,
			Label:     func(key string) string { return s.translator.Translate(locale, key) },
		})
		w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", fmt.Sprintf("litcal-%d.ics", year)))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(body))
	default:
		writeJSON(w, http.StatusOK, res)
	}
}

// Calendar returns the calendar for the given key, computing it when the
// cached copy is missing or older than the configured TTL.
func (s *Server) Calendar(year int, scope assembler.Scope, locale string) (assembler.Result, error) {
	key := cacheKey{scope: strings.ToLower(scope.String()), year: year, locale: locale}
	ttl := time.Duration(s.cfg.CacheTTLSeconds) * time.Second

	s.cacheMu.RLock()
	ce, ok := s.cache[key]
	s.cacheMu.RUnlock()
	if ok && s.now().Sub(ce.updatedAt) < ttl {
		return ce.res, nil
	}

	res, err := s.assembler.ComputeCalendar(year, scope, locale)
	if err != nil {
		return assembler.Result{}, err
	}
	s.store(key, res)
	return res, nil
}

// store caches res under key and drops every expired entry, so the map
// only holds calendars computed within the last TTL.
func (s *Server) store(key cacheKey, res assembler.Result) {
	now := s.now()
	ttl := time.Duration(s.cfg.CacheTTLSeconds) * time.Second

	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	for k, ce := range s.cache {
		if now.Sub(ce.updatedAt) >= ttl {
			delete(s.cache, k)
		}
	}
	s.cache[key] = cacheEntry{res: res, updatedAt: now}
}

// Warm recomputes the current and next year of every known calendar in
// the default locale, replacing whatever is cached.
func (s *Server) Warm(ctx context.Context) error {
	scopes := []assembler.Scope{assembler.General()}
	idx := s.registry.Index()
	for _, n := range idx.Nations {
		scopes = append(scopes, assembler.National(n.ID))
	}
	for _, d := range idx.Dioceses {
		scopes = append(scopes, assembler.Diocesan(d.ID))
	}
	locale := s.defaultLocale()

	start := s.now()
	warmed := 0
	for _, year := range []int{start.Year(), start.Year() + 1} {
		for _, scope := range scopes {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := s.assembler.ComputeCalendar(year, scope, locale)
			if err != nil {
				appLog.Error("cache warm failed", err, "scope", scope, "year", year)
				continue
			}
			s.store(cacheKey{scope: strings.ToLower(scope.String()), year: year, locale: locale}, res)
			warmed++
		}
	}
	appLog.Info("calendar cache warmed", "calendars", warmed, "elapsed", time.Since(start).String())
	return nil
}

func (s *Server) yearParam(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("year"))
	if raw == "" {
		return s.now().Year(), nil
	}
	year, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid year %q", raw)
	}
	return year, nil
}

func (s *Server) scopeParam(nation, diocese string) (assembler.Scope, error) {
	nation, diocese = strings.TrimSpace(nation), strings.TrimSpace(diocese)
	if diocese != "" {
		dc, err := s.registry.RequireDiocese(diocese)
		if err != nil {
			return assembler.Scope{}, err
		}
		if nation != "" && !strings.EqualFold(nation, dc.Nation) {
			return assembler.Scope{}, fmt.Errorf("%w: diocese %s belongs to %s, not %s", assembler.ErrUnknownScope, dc.ID, dc.Nation, nation)
		}
		return assembler.Diocesan(dc.ID), nil
	}
	if nation != "" {
		nc, err := s.registry.RequireNation(nation)
		if err != nil {
			return assembler.Scope{}, err
		}
		return assembler.National(nc.ID), nil
	}
	return assembler.General(), nil
}

func (s *Server) localeParam(r *http.Request) string {
	requested := r.URL.Query().Get("locale")
	if requested == "" {
		requested = r.Header.Get("Accept-Language")
	}
	if requested == "" {
		return s.defaultLocale()
	}
	if s.translator == nil {
		return requested
	}
	return s.translator.Match(requested)
}

func (s *Server) defaultLocale() string {
	if s.translator == nil {
		return s.cfg.DefaultLocale
	}
	return s.translator.Match(s.cfg.DefaultLocale)
}

func writeCalendarError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, source.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, assembler.ErrUnknownScope), errors.Is(err, assembler.ErrYearRange):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		appLog.Error("calendar computation failed", err)
		writeError(w, http.StatusInternalServerError, "failed to compute calendar")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
