// ABOUTME: CRM contact, lead processing, and dashboard analytics endpoints
// ABOUTME: Rows live in the datastore; computed analytics and run counters use per-key cache TTLs
package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/harperreed/zohosync/db"
	"github.com/harperreed/zohosync/models"
)

const (
	contactsTable = "CRM_Contacts"
	leadsTable    = "CRM_Leads"

	dashboardCacheKey      = "dashboard_analytics"
	processedCountCacheKey = "last_processed_count"

	dashboardTTL      = 30 * time.Minute
	processedCountTTL = time.Hour

	processedBy = "zohosync"
)

type contactStats struct {
	Total  int `json:"total"`
	Active int `json:"active"`
}

type leadStats struct {
	Total          int     `json:"total"`
	Converted      int     `json:"converted"`
	ConversionRate float64 `json:"conversion_rate"`
}

type dashboardAnalytics struct {
	Contacts    contactStats `json:"contacts"`
	Leads       leadStats    `json:"leads"`
	GeneratedAt string       `json:"generated_at"`
}

type dashboardResponse struct {
	Status string             `json:"status"`
	Data   dashboardAnalytics `json:"data"`
	Source string             `json:"source"`
}

type processResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Count   int    `json:"count"`
}

func (s *Server) crmRoutes(r *mux.Router) {
	r.HandleFunc("/contacts", s.handleListTable(contactsTable, "datastore")).Methods(http.MethodGet)
	r.HandleFunc("/contacts", s.handleCreateContact()).Methods(http.MethodPost)
	r.HandleFunc("/contacts/{id}", s.handleUpdateContact()).Methods(http.MethodPut)

	r.HandleFunc("/leads", s.handleListTable(leadsTable, "")).Methods(http.MethodGet)
	r.HandleFunc("/leads/process", s.handleProcessLeads()).Methods(http.MethodPost)

	r.HandleFunc("/analytics/dashboard", s.handleDashboard()).Methods(http.MethodGet)
}

func (s *Server) handleListTable(table, source string) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		rows, err := s.rows.List(req.Context(), table)
		if err != nil {
			s.log.WithFields(logrus.Fields{"table": table, "error": err}).Error("Failed to list rows")
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		writeList(w, rows, len(rows), source)
	}
}

func (s *Server) handleCreateContact() http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		var data map[string]any
		if err := decodeJSON(w, req, &data); err != nil && !errors.Is(err, errEmptyBody) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if data == nil {
			data = map[string]any{}
		}
		data["created_date"] = s.now().UTC().Format(time.RFC3339)
		if _, set := data["status"]; !set {
			data["status"] = "active"
		}

		row, err := s.rows.Insert(req.Context(), contactsTable, data)
		if err != nil {
			s.log.WithError(err).Error("Failed to create contact")
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		s.invalidateDashboard()

		s.log.WithField("id", row.ROWID).Info("Contact created")
		writeSuccess(w, http.StatusCreated, row)
	}
}

func (s *Server) handleUpdateContact() http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		id := mux.Vars(req)["id"]

		var data map[string]any
		if err := decodeJSON(w, req, &data); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if data == nil {
			data = map[string]any{}
		}
		data["updated_date"] = s.now().UTC().Format(time.RFC3339)

		row, err := s.rows.Update(req.Context(), contactsTable, id, data)
		if errors.Is(err, db.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Contact not found")
			return
		}
		if err != nil {
			s.log.WithFields(logrus.Fields{"id": id, "error": err}).Error("Failed to update contact")
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		s.invalidateDashboard()

		writeSuccess(w, http.StatusOK, row)
	}
}

func (s *Server) handleProcessLeads() http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		count, err := s.processPendingLeads(req.Context())
		if err != nil {
			s.log.WithError(err).Error("Failed to process leads")
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		if s.cache != nil {
			if err := s.cache.SetWithTTL(processedCountCacheKey, count, processedCountTTL); err != nil {
				s.log.WithError(err).Warn("Processed count cache write failed")
			}
		}
		if count > 0 {
			s.invalidateDashboard()
		}

		s.log.WithField("count", count).Info("Leads processed")
		writeJSONResponse(w, http.StatusOK, processResponse{
			Status:  "success",
			Message: fmt.Sprintf("Processed %d leads", count),
			Count:   count,
		})
	}
}

// processPendingLeads marks every pending lead processed and returns how
// many it changed.
func (s *Server) processPendingLeads(ctx context.Context) (int, error) {
	leads, err := s.rows.List(ctx, leadsTable)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, lead := range leads {
		if lead.Data["status"] != "pending" {
			continue
		}
		_, err := s.rows.Update(ctx, leadsTable, lead.ROWID, map[string]any{
			"status":         "processed",
			"processed_date": s.now().UTC().Format(time.RFC3339),
			"processed_by":   processedBy,
		})
		if err != nil {
			return count, fmt.Errorf("update lead %s: %w", lead.ROWID, err)
		}
		count++
	}
	return count, nil
}

func (s *Server) handleDashboard() http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if s.cache != nil {
			var cached dashboardAnalytics
			found, err := s.cache.Get(dashboardCacheKey, &cached)
			if err != nil {
				s.log.WithError(err).Warn("Dashboard cache read failed")
			}
			if found {
				writeJSONResponse(w, http.StatusOK, dashboardResponse{Status: "success", Data: cached, Source: "cache"})
				return
			}
		}

		data, err := s.computeDashboard(req.Context())
		if err != nil {
			s.log.WithError(err).Error("Failed to compute dashboard analytics")
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		if s.cache != nil {
			if err := s.cache.SetWithTTL(dashboardCacheKey, data, dashboardTTL); err != nil {
				s.log.WithError(err).Warn("Dashboard cache write failed")
			}
		}
		writeJSONResponse(w, http.StatusOK, dashboardResponse{Status: "success", Data: data, Source: "fresh"})
	}
}

func (s *Server) computeDashboard(ctx context.Context) (dashboardAnalytics, error) {
	contacts, err := s.rows.List(ctx, contactsTable)
	if err != nil {
		return dashboardAnalytics{}, err
	}
	leads, err := s.rows.List(ctx, leadsTable)
	if err != nil {
		return dashboardAnalytics{}, err
	}

	data := dashboardAnalytics{
		Contacts:    contactStats{Total: len(contacts), Active: countStatus(contacts, "active")},
		Leads:       leadStats{Total: len(leads), Converted: countStatus(leads, "converted")},
		GeneratedAt: s.now().UTC().Format(time.RFC3339),
	}
	if data.Leads.Total > 0 {
		data.Leads.ConversionRate = float64(data.Leads.Converted) / float64(data.Leads.Total) * 100
	}
	return data, nil
}

func countStatus(rows []models.Row, status string) int {
	n := 0
	for _, row := range rows {
		if row.Data["status"] == status {
			n++
		}
	}
	return n
}

// invalidateDashboard drops cached analytics after contact or lead writes.
func (s *Server) invalidateDashboard() {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(dashboardCacheKey); err != nil {
		s.log.WithError(err).Warn("Dashboard cache invalidation failed")
	}
}
