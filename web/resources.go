// ABOUTME: Resource CRUD endpoints over the row datastore
// ABOUTME: Lists are served from the TTL cache with a count and invalidated on every write
package web

import (
	"errors"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/harperreed/zohosync/db"
)

const listCachePrefix = "list:"

// resource describes one table exposed under /api. On create, defaults fill
// keys the body left out, forced overwrites whatever the body sent, and
// stampCreated sets created_at.
type resource struct {
	label        string
	defaults     map[string]any
	forced       map[string]any
	stampCreated bool
}

var resources = map[string]resource{
	"clients":      {label: "Client", forced: map[string]any{"status": "prospect"}, stampCreated: true},
	"contractors":  {label: "Contractor"},
	"shift_notes":  {label: "Shift note", forced: map[string]any{"status": "submitted"}, stampCreated: true},
	"appointments": {label: "Appointment", forced: map[string]any{"status": "scheduled"}, stampCreated: true},
	"tasks":        {label: "Task", defaults: map[string]any{"status": "pending"}},
}

// cachedList is the cached form of a list response.
type cachedList struct {
	Data  json.RawMessage `json:"data"`
	Count int             `json:"count"`
}

// prepare applies the resource's create rules to data in place.
func (r resource) prepare(data map[string]any, now time.Time) {
	for k, v := range r.defaults {
		if _, set := data[k]; !set {
			data[k] = v
		}
	}
	for k, v := range r.forced {
		data[k] = v
	}
	if r.stampCreated {
		data["created_at"] = now.UTC().Format(time.RFC3339)
	}
}

func (s *Server) resourceRoutes(r *mux.Router) {
	r.HandleFunc("/api/{resource}", s.handleListRows()).Methods(http.MethodGet)
	r.HandleFunc("/api/{resource}", s.handleCreateRow()).Methods(http.MethodPost)
	r.HandleFunc("/api/{resource}/{id}", s.handleGetRow()).Methods(http.MethodGet)
	r.HandleFunc("/api/{resource}/{id}", s.handleUpdateRow()).Methods(http.MethodPut)
}

// lookupResource resolves the {resource} path variable or writes a 404.
func lookupResource(w http.ResponseWriter, req *http.Request) (string, resource, bool) {
	name := mux.Vars(req)["resource"]
	res, ok := resources[name]
	if !ok {
		writeError(w, http.StatusNotFound, "Unknown resource: "+name)
		return "", resource{}, false
	}
	return name, res, true
}

func (s *Server) handleListRows() http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		table, _, ok := lookupResource(w, req)
		if !ok {
			return
		}
		log := s.log.WithField("resource", table)

		cacheKey := listCachePrefix + table
		if s.cache != nil {
			var cached cachedList
			found, err := s.cache.Get(cacheKey, &cached)
			if err != nil {
				log.WithError(err).Warn("List cache read failed")
			}
			if found {
				writeList(w, cached.Data, cached.Count, "")
				return
			}
		}

		rows, err := s.rows.List(req.Context(), table)
		if err != nil {
			log.WithError(err).Error("Failed to list rows")
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		payload, err := json.Marshal(rows)
		if err != nil {
			log.WithError(err).Error("Failed to encode rows")
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		if s.cache != nil {
			if err := s.cache.Set(cacheKey, cachedList{Data: payload, Count: len(rows)}); err != nil {
				log.WithError(err).Warn("List cache write failed")
			}
		}

		writeList(w, json.RawMessage(payload), len(rows), "")
	}
}

func (s *Server) handleGetRow() http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		table, res, ok := lookupResource(w, req)
		if !ok {
			return
		}
		id := mux.Vars(req)["id"]

		row, err := s.rows.Get(req.Context(), table, id)
		if errors.Is(err, db.ErrNotFound) {
			writeError(w, http.StatusNotFound, res.label+" not found")
			return
		}
		if err != nil {
			s.log.WithFields(logrus.Fields{"resource": table, "id": id, "error": err}).Error("Failed to get row")
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		writeSuccess(w, http.StatusOK, row)
	}
}

func (s *Server) handleCreateRow() http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		table, res, ok := lookupResource(w, req)
		if !ok {
			return
		}

		var data map[string]any
		if err := decodeJSON(w, req, &data); err != nil && !errors.Is(err, errEmptyBody) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if data == nil {
			data = map[string]any{}
		}
		res.prepare(data, s.now())

		row, err := s.rows.Insert(req.Context(), table, data)
		if err != nil {
			s.log.WithFields(logrus.Fields{"resource": table, "error": err}).Error("Failed to create row")
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		s.invalidateList(table)

		s.log.WithFields(logrus.Fields{"resource": table, "id": row.ROWID}).Info("Row created")
		writeSuccess(w, http.StatusCreated, row)
	}
}

func (s *Server) handleUpdateRow() http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		table, res, ok := lookupResource(w, req)
		if !ok {
			return
		}
		id := mux.Vars(req)["id"]

		var data map[string]any
		if err := decodeJSON(w, req, &data); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		row, err := s.rows.Update(req.Context(), table, id, data)
		if errors.Is(err, db.ErrNotFound) {
			writeError(w, http.StatusNotFound, res.label+" not found")
			return
		}
		if err != nil {
			s.log.WithFields(logrus.Fields{"resource": table, "id": id, "error": err}).Error("Failed to update row")
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		s.invalidateList(table)

		writeSuccess(w, http.StatusOK, row)
	}
}

func (s *Server) invalidateList(table string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DropPrefix(listCachePrefix + table); err != nil {
		s.log.WithFields(logrus.Fields{"resource": table, "error": err}).Warn("List cache invalidation failed")
	}
}
