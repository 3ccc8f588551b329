// ABOUTME: HTTP middlewares for status-code metrics and panic recovery
// ABOUTME: Recovery answers with a timestamped JSON 500 instead of dropping the connection
package web

import (
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"
)

var statusCodeCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "zohosync_http_status_code_counter",
	Help: "The number of http status codes per route",
}, []string{"status_code"})

// MetricsMiddleware counts responses by status code.
type MetricsMiddleware struct{}

func (mw *MetricsMiddleware) RecordHTTPMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		resp := &wrappedResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(resp, req)

		statusCodeCounter.With(prometheus.Labels{
			"status_code": strconv.Itoa(resp.statusCode)}).Inc()
	})
}

type wrappedResponseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (ww *wrappedResponseWriter) WriteHeader(status int) {
	ww.statusCode = status
	ww.wroteHeader = true
	ww.ResponseWriter.WriteHeader(status)
}

func (ww *wrappedResponseWriter) Write(b []byte) (int, error) {
	ww.wroteHeader = true
	return ww.ResponseWriter.Write(b)
}

type panicResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	Timestamp string `json:"timestamp"`
}

// RecoverMiddleware converts handler panics into a JSON 500.
type RecoverMiddleware struct {
	Log logrus.FieldLogger
	Now func() time.Time
}

func (mw *RecoverMiddleware) Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ww := &wrappedResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			mw.Log.WithFields(logrus.Fields{
				"panic":  rec,
				"path":   req.URL.Path,
				"method": req.Method,
				"stack":  string(debug.Stack()),
			}).Error("Handler panicked")

			if ww.wroteHeader {
				return
			}
			writeJSONResponse(ww, http.StatusInternalServerError, panicResponse{
				Success:   false,
				Error:     "Internal server error",
				Timestamp: mw.Now().UTC().Format(time.RFC3339),
			})
		}()

		next.ServeHTTP(ww, req)
	})
}
