// Package server exposes the loaded crime data as a JSON API and a
// websocket view-state channel.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/crimemap/internal/choropleth"
	"github.com/sells-group/crimemap/internal/geo"
	"github.com/sells-group/crimemap/internal/model"
	"github.com/sells-group/crimemap/internal/panel"
	"github.com/sells-group/crimemap/internal/socio"
	"github.com/sells-group/crimemap/internal/yearly"
)

const noData = "no data available"

// Source is the read-only data the server renders.
type Source interface {
	Years() []int
	DefaultYear() int
	Snapshot(year int) (*model.YearlySnapshot, error)
	Socio() *socio.Series
}

// Options configures a Server.
type Options struct {
	AllowedOrigins []string
}

// Server serves maps and panels for every loaded year.
type Server struct {
	src        Source
	assembler  *panel.Assembler
	boundaries *geo.Boundaries
	opts       Options
	log        *zap.Logger
}

// New returns a Server over src. bounds may be nil, in which case the
// boundaries route answers 404.
func New(src Source, bounds *geo.Boundaries, opts Options) *Server {
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	return &Server{
		src:        src,
		assembler:  panel.NewAssembler(src),
		boundaries: bounds,
		opts:       opts,
		log:        zap.L().With(zap.String("component", "server")),
	}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/ws", s.handleWS)
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))
		r.Get("/years", s.handleYears)
		r.Get("/map/{year}", s.handleMap)
		r.Get("/tooltip/{year}/{borough}", s.handleTooltip)
		r.Get("/panel/{year}/{borough}", s.handlePanel)
		r.Get("/boundaries", s.handleBoundaries)
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleYears(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"years":        s.src.Years(),
		"default_year": s.src.DefaultYear(),
	})
}

func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	year, ok := yearParam(w, r)
	if !ok {
		return
	}
	m, err := s.buildMap(year)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// handleTooltip returns the hover text of one borough. Boroughs without
// crime data have none.
func (s *Server) handleTooltip(w http.ResponseWriter, r *http.Request) {
	year, ok := yearParam(w, r)
	if !ok {
		return
	}
	m, err := s.buildMap(year)
	if err != nil {
		s.writeError(w, err)
		return
	}
	tip, ok := m.Tooltip(chi.URLParam(r, "borough"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": noData})
		return
	}
	writeJSON(w, http.StatusOK, tip)
}

func (s *Server) handlePanel(w http.ResponseWriter, r *http.Request) {
	year, ok := yearParam(w, r)
	if !ok {
		return
	}
	data, err := s.assembler.Assemble(chi.URLParam(r, "borough"), year)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

// handleBoundaries returns the borough polygons annotated with the rates of
// the requested year (?year=, default year otherwise).
func (s *Server) handleBoundaries(w http.ResponseWriter, r *http.Request) {
	if s.boundaries == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "boundaries not loaded"})
		return
	}
	year := s.src.DefaultYear()
	if q := r.URL.Query().Get("year"); q != "" {
		y, err := strconv.Atoi(q)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid year"})
			return
		}
		year = y
	}
	snap, err := s.src.Snapshot(year)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.boundaries.Annotate(snap.CrimeRates))
}

func (s *Server) buildMap(year int) (*choropleth.Map, error) {
	snap, err := s.src.Snapshot(year)
	if err != nil {
		return nil, err
	}
	return choropleth.Build(snap), nil
}

func yearParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid year"})
		return 0, false
	}
	return year, true
}

// statusOf maps lookup misses to 404 and everything else to 500.
func statusOf(err error) int {
	if errors.Is(err, panel.ErrBoroughNotRecorded) || errors.Is(err, yearly.ErrYearNotLoaded) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusOf(err)
	if status == http.StatusNotFound {
		writeJSON(w, status, map[string]string{"error": noData})
		return
	}
	s.log.Error("request failed", zap.Error(err))
	writeJSON(w, status, map[string]string{"error": "internal error"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}
