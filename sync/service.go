// ABOUTME: Sync orchestrator that pulls Zoho CRM and Books data into the local store
// ABOUTME: Runs each resource sync independently and aggregates results into a report
package sync

import (
	"context"
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"

	"github.com/harperreed/zohosync/db"
	"github.com/harperreed/zohosync/logging"
	"github.com/harperreed/zohosync/models"
	"github.com/harperreed/zohosync/zoho"
)

const (
	DefaultBatchSize = 100
	DefaultPageSize  = 200
)

// Fetcher performs Zoho API calls. *zoho.Client implements it.
type Fetcher interface {
	Do(ctx context.Context, call zoho.Call, out any) error
}

// RecordWriter persists synced records. *db.RecordStore implements it.
type RecordWriter interface {
	InsertRows(ctx context.Context, table string, rows []db.Record) error
}

// StateTracker records per-resource status and finished reports.
type StateTracker interface {
	SetStatus(resource, status string, errMsg *string) error
	MarkSynced(resource, runID string) error
	SaveRun(report *models.SyncReport) error
}

// Options configures a Service. Fetcher is required; Records and State may
// be nil to skip persistence.
type Options struct {
	Fetcher Fetcher
	Records RecordWriter
	State   StateTracker

	Environment string
	BooksOrgID  string
	BatchSize   int
	PageSize    int

	Logger   logrus.FieldLogger
	Now      func() time.Time
	NewRunID func() string
}

// Service orchestrates resource syncs. Runs are sequential; the only state
// shared between overlapping runs lives in the token manager and the store.
type Service struct {
	fetcher Fetcher
	records RecordWriter
	state   StateTracker

	environment string
	booksOrgID  string
	batchSize   int
	pageSize    int

	log      logrus.FieldLogger
	now      func() time.Time
	newRunID func() string
}

// NewService creates a Service from opts, filling defaults.
func NewService(opts Options) *Service {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.Logger == nil {
		opts.Logger = logging.Log
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewRunID == nil {
		opts.NewRunID = newULID
	}

	return &Service{
		fetcher:     opts.Fetcher,
		records:     opts.Records,
		state:       opts.State,
		environment: opts.Environment,
		booksOrgID:  opts.BooksOrgID,
		batchSize:   opts.BatchSize,
		pageSize:    opts.PageSize,
		log:         opts.Logger,
		now:         opts.Now,
		newRunID:    opts.NewRunID,
	}
}

// PageSize is the default per_page used by SyncAll.
func (s *Service) PageSize() int {
	return s.pageSize
}

// SyncAll runs contacts, leads, and books syncs and returns the report. A
// failure in one resource never prevents the others from running.
func (s *Service) SyncAll(ctx context.Context) models.SyncReport {
	runID := s.newRunID()
	log := s.log.WithField("run_id", runID)
	log.Info("Starting full sync")

	results := map[string]models.SyncResult{
		models.OpContacts: s.syncContacts(ctx, 1, s.pageSize, runID),
		models.OpLeads:    s.syncLeads(ctx, 1, s.pageSize, runID),
		models.OpBooks:    s.syncBooks(ctx, runID),
	}

	report := BuildReport(results, s.environment, s.now())
	report.ID = runID

	if s.state != nil {
		if err := s.state.SaveRun(&report); err != nil {
			log.WithError(err).Error("Failed to save sync run")
		}
	}

	syncRunCounter.WithLabelValues(runOutcome(report)).Inc()
	log.WithFields(logrus.Fields{
		"successful": report.Summary.SuccessfulOperations,
		"failed":     report.Summary.FailedOperations,
	}).Info("Full sync completed")

	return report
}

// SyncCRM syncs one page of contacts and leads.
func (s *Service) SyncCRM(ctx context.Context, page, perPage int) models.CRMSyncResult {
	contacts := s.SyncContacts(ctx, page, perPage)
	leads := s.SyncLeads(ctx, page, perPage)

	return models.CRMSyncResult{
		Success:      true,
		Timestamp:    s.now().UTC(),
		Contacts:     contacts,
		Leads:        leads,
		TotalRecords: contacts.Synced + leads.Synced,
	}
}

// SyncContacts syncs one page of CRM contacts.
func (s *Service) SyncContacts(ctx context.Context, page, perPage int) models.SyncResult {
	return s.syncContacts(ctx, page, perPage, "")
}

// SyncLeads syncs one page of CRM leads.
func (s *Service) SyncLeads(ctx context.Context, page, perPage int) models.SyncResult {
	return s.syncLeads(ctx, page, perPage, "")
}

// SyncBooks syncs Books invoices and customers.
func (s *Service) SyncBooks(ctx context.Context) models.SyncResult {
	return s.syncBooks(ctx, "")
}

// track wraps one resource sync with state bookkeeping and metrics.
func (s *Service) track(op, runID string, fn func() models.SyncResult) models.SyncResult {
	s.setStatus(op, models.SyncStatusSyncing, nil)

	start := s.now()
	result := fn()
	syncDuration.WithLabelValues(op).Observe(s.now().Sub(start).Seconds())

	if result.Success {
		syncCounter.WithLabelValues(op, "success").Inc()
		if s.state != nil {
			if err := s.state.MarkSynced(op, runID); err != nil {
				s.log.WithFields(logrus.Fields{"operation": op, "error": err}).Warn("Failed to record sync state")
			}
		}
	} else {
		syncCounter.WithLabelValues(op, "failure").Inc()
		msg := result.Error
		s.setStatus(op, models.SyncStatusError, &msg)
	}

	return result
}

func (s *Service) setStatus(op, status string, errMsg *string) {
	if s.state == nil {
		return
	}
	if err := s.state.SetStatus(op, status, errMsg); err != nil {
		s.log.WithFields(logrus.Fields{"operation": op, "error": err}).Warn("Failed to record sync state")
	}
}

func normalizePage(page, perPage, fallback int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = fallback
	}
	return page, perPage
}

func runOutcome(report models.SyncReport) string {
	switch {
	case report.Summary.FailedOperations == 0:
		return "success"
	case report.Summary.SuccessfulOperations == 0:
		return "failure"
	default:
		return "partial"
	}
}

func newULID() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}
