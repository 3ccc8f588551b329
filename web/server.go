// ABOUTME: HTTP server exposing resource CRUD, CRM contact/lead/analytics routes, quick actions, sync, and monitoring
// ABOUTME: Routes with gorilla/mux and wraps handlers with access logging, metrics, and panic recovery
package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/harperreed/zohosync/logging"
	"github.com/harperreed/zohosync/models"
)

// RowStore is the datastore behind the resource endpoints. *db.Datastore
// implements it.
type RowStore interface {
	Insert(ctx context.Context, table string, data map[string]any) (*models.Row, error)
	Get(ctx context.Context, table, rowID string) (*models.Row, error)
	List(ctx context.Context, table string) ([]models.Row, error)
	Update(ctx context.Context, table, rowID string, data map[string]any) (*models.Row, error)
}

// ResponseCache holds rendered list responses and computed analytics.
// *cache.Cache implements it.
type ResponseCache interface {
	Get(key string, out any) (bool, error)
	Set(key string, value any) error
	SetWithTTL(key string, value any, ttl time.Duration) error
	Delete(key string) error
	DropPrefix(prefix string) error
}

// Syncer triggers orchestration runs. *sync.Service implements it.
type Syncer interface {
	SyncAll(ctx context.Context) models.SyncReport
	SyncCRM(ctx context.Context, page, perPage int) models.CRMSyncResult
	PageSize() int
}

// StatusReader reads sync bookkeeping. sync.SQLState implements it.
type StatusReader interface {
	States() ([]models.SyncState, error)
	LatestRun() (*models.SyncReport, error)
}

// Options wires the server's collaborators. Cache may be nil.
type Options struct {
	Rows   RowStore
	Cache  ResponseCache
	Syncer Syncer
	Status StatusReader

	// Ready reports whether dependencies are usable; nil means always ready.
	Ready func(ctx context.Context) error

	Logger logrus.FieldLogger
	Now    func() time.Time
}

type Server struct {
	router *mux.Router
	rows   RowStore
	cache  ResponseCache
	syncer Syncer
	status StatusReader
	ready  func(ctx context.Context) error
	log    logrus.FieldLogger
	now    func() time.Time
}

func NewServer(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = logging.Log
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Server{
		router: mux.NewRouter(),
		rows:   opts.Rows,
		cache:  opts.Cache,
		syncer: opts.Syncer,
		status: opts.Status,
		ready:  opts.Ready,
		log:    opts.Logger,
		now:    opts.Now,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})
	s.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	s.monitoringRoutes(s.router)

	mmw := &MetricsMiddleware{}
	rmw := &RecoverMiddleware{Log: s.log, Now: s.now}

	app := s.router.PathPrefix("/").Subrouter()
	app.Use(logging.AccessLoggerMiddleware, mmw.RecordHTTPMetrics, rmw.Recover)

	s.resourceRoutes(app)
	s.crmRoutes(app)
	s.quickActionRoutes(app)
	s.syncRoutes(app)
}

// ServeHTTP makes Server an http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		// Sync endpoints block for a full orchestration run.
		WriteTimeout: 5 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("Starting HTTP server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.log.Info("Shutting down HTTP server")
		return srv.Shutdown(shutdownCtx)
	}
}
