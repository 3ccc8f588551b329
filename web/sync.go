// ABOUTME: Sync trigger and status endpoints
// ABOUTME: Runs full or CRM-only syncs on demand and reports recorded state
package web

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
)

type syncCRMRequest struct {
	Page    int `json:"page" validate:"gte=0"`
	PerPage int `json:"per_page" validate:"gte=0,lte=200"`
}

type syncStatusResponse struct {
	States    any `json:"states"`
	LatestRun any `json:"latest_run"`
}

func (s *Server) syncRoutes(r *mux.Router) {
	r.HandleFunc("/sync/all", s.handleSyncAll()).Methods(http.MethodPost)
	r.HandleFunc("/sync/crm", s.handleSyncCRM()).Methods(http.MethodPost)
	r.HandleFunc("/sync/status", s.handleSyncStatus()).Methods(http.MethodGet)
	r.HandleFunc("/sync/runs/latest", s.handleLatestRun()).Methods(http.MethodGet)
}

func (s *Server) handleSyncAll() http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		report := s.syncer.SyncAll(req.Context())
		writeJSONResponse(w, http.StatusOK, report)
	}
}

func (s *Server) handleSyncCRM() http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		var body syncCRMRequest
		if err := decodeJSON(w, req, &body); err != nil && !errors.Is(err, errEmptyBody) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		page := body.Page
		if page == 0 {
			page = 1
		}
		perPage := body.PerPage
		if perPage == 0 {
			perPage = s.syncer.PageSize()
		}

		result := s.syncer.SyncCRM(req.Context(), page, perPage)
		writeJSONResponse(w, http.StatusOK, result)
	}
}

func (s *Server) handleSyncStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		states, err := s.status.States()
		if err != nil {
			s.log.WithError(err).Error("Failed to read sync state")
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		latest, err := s.status.LatestRun()
		if err != nil {
			s.log.WithError(err).Error("Failed to read latest run")
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		writeSuccess(w, http.StatusOK, syncStatusResponse{States: states, LatestRun: latest})
	}
}

func (s *Server) handleLatestRun() http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		latest, err := s.status.LatestRun()
		if err != nil {
			s.log.WithError(err).Error("Failed to read latest run")
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		if latest == nil {
			writeError(w, http.StatusNotFound, "No sync runs recorded")
			return
		}
		writeSuccess(w, http.StatusOK, latest)
	}
}
