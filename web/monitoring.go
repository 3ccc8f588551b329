// ABOUTME: Monitoring endpoints: Prometheus metrics, liveness, and readiness
// ABOUTME: Readiness consults the configured dependency check
package web

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) monitoringRoutes(r *mux.Router) {
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/liveness", s.handleLiveness()).Methods(http.MethodGet)
	r.HandleFunc("/readiness", s.handleReadiness()).Methods(http.MethodGet)
}

func (s *Server) handleLiveness() http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
	}
}

func (s *Server) handleReadiness() http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if s.ready != nil {
			if err := s.ready(req.Context()); err != nil {
				s.log.WithError(err).Warn("Readiness check failed")
				writeError(w, http.StatusServiceUnavailable, "not ready")
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	}
}
