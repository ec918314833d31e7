// Package httpapi wires the service's external HTTP surface onto a
// chi.Router. Handlers are thin: parse the request, call into IMDS, the
// Topology Cache, or the Inventory Gateway, and encode the result. None of
// the route logic duplicates anything in internal/imds or
// internal/topocache — this package is glue.
package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jaspy-nexus/jaspy-nexus/internal/health"
	"github.com/jaspy-nexus/jaspy-nexus/internal/imds"
	"github.com/jaspy-nexus/jaspy-nexus/internal/inventory"
	"github.com/jaspy-nexus/jaspy-nexus/internal/logging"
	"github.com/jaspy-nexus/jaspy-nexus/internal/misscache"
	"github.com/jaspy-nexus/jaspy-nexus/internal/projections"
	"github.com/jaspy-nexus/jaspy-nexus/internal/topocache"
)

// Server holds the dependencies every route handler needs and exposes the
// wired chi.Router via Handler.
type Server struct {
	imds    *imds.Store
	gateway inventory.Gateway
	topo    *topocache.Cache
	misses  *misscache.Cache
	checks  []health.Check
	metrics *prometheus.Registry
	fast    *prometheus.Registry
	router  chi.Router
}

// New builds a Server and wires its routes. The two metric registries are
// kept separate so /metrics and /metrics/fast never share series, per the
// spec this implements. checks may be nil if no health checks are wired.
func New(store *imds.Store, gateway inventory.Gateway, topo *topocache.Cache, misses *misscache.Cache, checks []health.Check) *Server {
	metricsReg := prometheus.NewRegistry()
	metricsReg.MustRegister(projections.NewMetricsCollector(store))

	fastReg := prometheus.NewRegistry()
	fastReg.MustRegister(projections.NewFastMetricsCollector(store))

	s := &Server{
		imds:    store,
		gateway: gateway,
		topo:    topo,
		misses:  misses,
		checks:  checks,
		metrics: metricsReg,
		fast:    fastReg,
	}
	s.router = s.routes()
	return s
}

// Handler returns the wired http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Route("/weathermap", func(r chi.Router) {
		r.Get("/", s.handleTopology)
		r.Get("/state", s.handleState)
		r.Get("/position", s.handleGetPosition)
		r.Put("/position", s.handlePutPosition)
	})

	r.Get("/metrics", s.handleMetrics(s.metrics))
	r.Get("/metrics/fast", s.handleMetrics(s.fast))

	r.Post("/device/report", s.handleDeviceReport)
	r.Post("/interface/report", s.handleInterfaceReport)

	r.Get("/healthz", s.handleHealth)

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logging.WithComponent("httpapi").WithFields(map[string]interface{}{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Debug("request")
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleMetrics(reg *prometheus.Registry) http.HandlerFunc {
	handler := promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	return handler.ServeHTTP
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}
