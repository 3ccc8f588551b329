// ABOUTME: Unified quick-actions endpoint used by the dashboard UI
// ABOUTME: Dispatches named actions to stub handlers that echo params with generated ids or statuses
package web

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
)

type quickActionRequest struct {
	Action string         `json:"action" validate:"max=100"`
	Params map[string]any `json:"params"`
}

type quickActionError struct {
	Message string `json:"message"`
}

type quickActionResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

type quickActionFailure struct {
	Success bool             `json:"success"`
	Error   quickActionError `json:"error"`
}

type quickAction func(params map[string]any) any

func emptyList(map[string]any) any { return []any{} }

// withField returns a copy of params with key set to value.
func withField(key string, value any) quickAction {
	return func(params map[string]any) any {
		out := make(map[string]any, len(params)+1)
		for k, v := range params {
			out[k] = v
		}
		out[key] = value
		return out
	}
}

var quickActions = map[string]quickAction{
	"getRecentNotes":          emptyList,
	"getPendingTasks":         emptyList,
	"getUpcomingAppointments": emptyList,
	"getRecentActivities":     emptyList,
	"getShiftNotes":           emptyList,
	"getQuickStats": func(map[string]any) any {
		return map[string]int{"notes": 0, "tasks": 0, "appointments": 0}
	},
	"viewCareProgress": func(map[string]any) any {
		return map[string]any{"progress": []any{}}
	},

	"createShiftNote":        withField("ROWID", "sn_stub"),
	"createQuickNote":        withField("id", "note_"),
	"createQuickTask":        withField("id", "task_"),
	"createQuickAppointment": withField("id", "appt_"),
	"scheduleAppointment":    withField("id", "appt_"),
	"quickCreateContact":     withField("id", "contact_"),
	"quickCreateLead":        withField("id", "lead_"),
	"recordPayment":          withField("id", "payment_"),
	"generateReport":         withField("id", "report_"),
	"trackExpense":           withField("id", "expense_"),

	"triggerWorkflow":       withField("status", "triggered"),
	"updateAvailability":    withField("status", "updated"),
	"messageTeam":           withField("status", "sent"),
	"startVideoCall":        withField("room", "video_stub"),
	"completeTask":          withField("status", "completed"),
	"updateNote":            withField("status", "updated"),
	"rescheduleAppointment": withField("status", "rescheduled"),
	"updateStatus":          withField("status", "updated"),
}

func (s *Server) quickActionRoutes(r *mux.Router) {
	r.HandleFunc("/quick-actions", s.handleQuickActions())
}

func (s *Server) handleQuickActions() http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodGet:
			writeJSONResponse(w, http.StatusOK, quickActionResponse{
				Success: true,
				Data: map[string]string{
					"message": "quick-actions OK",
					"path":    req.URL.Path,
					"method":  req.Method,
				},
			})
		case http.MethodPost:
			s.dispatchQuickAction(w, req)
		default:
			writeQuickActionError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	}
}

func (s *Server) dispatchQuickAction(w http.ResponseWriter, req *http.Request) {
	var body quickActionRequest
	// A missing or malformed body behaves like an empty request.
	if err := decodeJSON(w, req, &body); err != nil {
		s.log.WithError(err).Debug("Quick action body not decoded")
		body = quickActionRequest{}
	}

	action := strings.TrimSpace(body.Action)
	params := body.Params
	if params == nil {
		params = map[string]any{}
	}

	handler, ok := quickActions[action]
	if !ok {
		writeQuickActionError(w, http.StatusBadRequest, "Unknown action: "+action)
		return
	}

	s.log.WithField("action", action).Debug("Quick action dispatched")
	writeJSONResponse(w, http.StatusOK, quickActionResponse{Success: true, Data: handler(params)})
}

func writeQuickActionError(w http.ResponseWriter, status int, message string) {
	writeJSONResponse(w, status, quickActionFailure{
		Success: false,
		Error:   quickActionError{Message: message},
	})
}
