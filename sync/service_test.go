// ABOUTME: Tests for the sync orchestrator
// ABOUTME: Covers per-resource syncs, batching, state tracking, and full-run reports
package sync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/zohosync/db"
	"github.com/harperreed/zohosync/logging"
	"github.com/harperreed/zohosync/models"
	"github.com/harperreed/zohosync/zoho"
)

type fakeFetcher struct {
	responses map[string]string
	errs      map[string]error
	calls     []zoho.Call
}

func (f *fakeFetcher) Do(_ context.Context, call zoho.Call, out any) error {
	f.calls = append(f.calls, call)
	key := string(call.Service) + "/" + call.Path
	if err := f.errs[key]; err != nil {
		return err
	}
	body, ok := f.responses[key]
	if !ok {
		return &zoho.Error{Kind: zoho.KindUpstream, Service: call.Service, StatusCode: 404}
	}
	return json.Unmarshal([]byte(body), out)
}

type fakeWriter struct {
	batches map[string][]int
	failAt  map[string]int
	calls   map[string]int
}

func newFakeWriter() *fakeWriter {
	return &fakeWriter{batches: map[string][]int{}, failAt: map[string]int{}, calls: map[string]int{}}
}

func (w *fakeWriter) InsertRows(_ context.Context, table string, rows []db.Record) error {
	idx := w.calls[table]
	w.calls[table]++
	if fail, ok := w.failAt[table]; ok && fail == idx {
		return errors.New("disk full")
	}
	w.batches[table] = append(w.batches[table], len(rows))
	return nil
}

type fakeState struct {
	statuses map[string][]string
	synced   map[string]string
	runs     []*models.SyncReport
}

func newFakeState() *fakeState {
	return &fakeState{statuses: map[string][]string{}, synced: map[string]string{}}
}

func (s *fakeState) SetStatus(resource, status string, _ *string) error {
	s.statuses[resource] = append(s.statuses[resource], status)
	return nil
}

func (s *fakeState) MarkSynced(resource, runID string) error {
	s.statuses[resource] = append(s.statuses[resource], models.SyncStatusIdle)
	s.synced[resource] = runID
	return nil
}

func (s *fakeState) SaveRun(report *models.SyncReport) error {
	s.runs = append(s.runs, report)
	return nil
}

var fixedNow = time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC)

func newTestService(f Fetcher, w RecordWriter, st StateTracker, booksOrg string) *Service {
	opts := Options{
		Fetcher:     f,
		Environment: "sandbox",
		BooksOrgID:  booksOrg,
		Logger:      logging.Discard(),
		Now:         func() time.Time { return fixedNow },
		NewRunID:    func() string { return "01TESTRUN" },
	}
	if w != nil {
		opts.Records = w
	}
	if st != nil {
		opts.State = st
	}
	return NewService(opts)
}

func contactsJSON(n int, more bool) string {
	records := make([]string, n)
	for i := range records {
		records[i] = fmt.Sprintf(`{"id":"c%d","First_Name":"F%d","Last_Name":"L","Email":"c%d@example.com","Modified_Time":"2024-01-%02dT00:00:00Z"}`, i, i, i, 10-i%9)
	}
	return fmt.Sprintf(`{"data":[%s],"info":{"more_records":%t}}`, strings.Join(records, ","), more)
}

func TestSyncContactsSuccess(t *testing.T) {
	f := &fakeFetcher{responses: map[string]string{
		"crm/Contacts": `{"data":[
			{"id":"1","First_Name":"Ada","Last_Name":"Lovelace","Email":"ada@example.com","Modified_Time":"2024-01-05T00:00:00Z"},
			{"First_Name":"No","Last_Name":"Id"},
			{"id":"3","Last_Name":"Hopper","Account_Name":{"name":"Navy","id":"9"}}
		],"info":{"more_records":true}}`,
	}}
	w := newFakeWriter()
	st := newFakeState()
	svc := newTestService(f, w, st, "")

	result := svc.SyncContacts(context.Background(), 2, 50)

	require.True(t, result.Success)
	assert.Equal(t, 3, result.Synced)
	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 2, result.Persisted)
	assert.True(t, result.HasMore)
	assert.Equal(t, 2, result.Page)
	assert.Equal(t, "2024-01-05T00:00:00Z", result.LastModified)
	assert.Equal(t, []int{2}, w.batches[models.TableContacts])
	assert.Equal(t, []string{models.SyncStatusSyncing, models.SyncStatusIdle}, st.statuses[models.OpContacts])

	require.Len(t, f.calls, 1)
	call := f.calls[0]
	assert.Equal(t, zoho.ServiceCRM, call.Service)
	assert.Equal(t, "GET", call.Method)
	assert.Equal(t, "2", call.Query.Get("page"))
	assert.Equal(t, "50", call.Query.Get("per_page"))
	assert.Equal(t, "Modified_Time", call.Query.Get("sort_by"))
	assert.Equal(t, "desc", call.Query.Get("sort_order"))
}

func TestSyncContactsEmptyPage(t *testing.T) {
	f := &fakeFetcher{responses: map[string]string{"crm/Contacts": `{"data":[],"info":{}}`}}
	svc := newTestService(f, newFakeWriter(), nil, "")

	result := svc.SyncContacts(context.Background(), 1, 200)

	require.True(t, result.Success)
	assert.Zero(t, result.Synced)
	assert.Empty(t, result.LastModified)
}

func TestSyncContactsFailures(t *testing.T) {
	tests := []struct {
		name string
		f    *fakeFetcher
	}{
		{
			name: "upstream error",
			f: &fakeFetcher{errs: map[string]error{
				"crm/Contacts": &zoho.Error{Kind: zoho.KindUpstream, StatusCode: 500},
			}},
		},
		{
			name: "missing data",
			f:    &fakeFetcher{responses: map[string]string{"crm/Contacts": `{"info":{"more_records":false}}`}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := newFakeState()
			svc := newTestService(tt.f, newFakeWriter(), st, "")

			result := svc.SyncContacts(context.Background(), 1, 200)

			assert.False(t, result.Success)
			assert.Equal(t, "Failed to fetch CRM contacts", result.Error)
			assert.Zero(t, result.Synced)
			assert.Zero(t, result.Processed)
			assert.Equal(t, []string{models.SyncStatusSyncing, models.SyncStatusError}, st.statuses[models.OpContacts])
		})
	}
}

func TestSyncContactsBatching(t *testing.T) {
	f := &fakeFetcher{responses: map[string]string{"crm/Contacts": contactsJSON(250, false)}}
	w := newFakeWriter()
	svc := newTestService(f, w, nil, "")

	result := svc.SyncContacts(context.Background(), 1, 250)

	require.True(t, result.Success)
	assert.Equal(t, 250, result.Processed)
	assert.Equal(t, []int{100, 100, 50}, w.batches[models.TableContacts])
	assert.Equal(t, 250, result.Persisted)
	assert.Zero(t, result.FailedBatches)
}

func TestSyncContactsFailedBatchContinues(t *testing.T) {
	f := &fakeFetcher{responses: map[string]string{"crm/Contacts": contactsJSON(250, false)}}
	w := newFakeWriter()
	w.failAt[models.TableContacts] = 1
	svc := newTestService(f, w, nil, "")

	result := svc.SyncContacts(context.Background(), 1, 250)

	require.True(t, result.Success)
	assert.Equal(t, 1, result.FailedBatches)
	assert.Equal(t, 150, result.Persisted)
	assert.Equal(t, 3, w.calls[models.TableContacts])
	assert.Equal(t, []int{100, 50}, w.batches[models.TableContacts])
}

func TestSyncLeadsConversionOpportunities(t *testing.T) {
	f := &fakeFetcher{responses: map[string]string{
		"crm/Leads": `{"data":[
			{"id":"1","Last_Name":"A","Lead_Status":"Qualified","No_of_Employees":"150","Created_Time":"2024-01-01T00:00:00Z"},
			{"id":"2","Last_Name":"B","Lead_Status":"Contacted","Annual_Revenue":null},
			{"id":"3","Last_Name":"C","Lead_Status":"Qualified"}
		],"info":{"more_records":false}}`,
	}}
	w := newFakeWriter()
	svc := newTestService(f, w, nil, "")

	result := svc.SyncLeads(context.Background(), 1, 200)

	require.True(t, result.Success)
	assert.Equal(t, 3, result.Synced)
	assert.Equal(t, 3, result.Processed)
	assert.Equal(t, 2, result.ConversionOpportunities)
	assert.False(t, result.HasMore)
	assert.Equal(t, []int{3}, w.batches[models.TableLeads])
}

func TestSyncBooksNotConfigured(t *testing.T) {
	f := &fakeFetcher{}
	svc := newTestService(f, newFakeWriter(), nil, "")

	result := svc.SyncBooks(context.Background())

	assert.False(t, result.Success)
	assert.Equal(t, "Books organization ID not configured", result.Error)
	assert.Empty(t, f.calls)
}

func TestSyncBooksSuccess(t *testing.T) {
	f := &fakeFetcher{responses: map[string]string{
		"books/invoices": `{"code":0,"invoices":[
			{"invoice_id":"i1","total":100.5,"customer_name":"Acme"},
			{"invoice_id":"i2","total":"1,000"},
			{"invoice_id":"i3","total":null}
		]}`,
		"books/contacts": `{"code":0,"contacts":[{"contact_id":"k1","contact_name":"Acme"}]}`,
	}}
	w := newFakeWriter()
	svc := newTestService(f, w, nil, "org-1")

	result := svc.SyncBooks(context.Background())

	require.True(t, result.Success)
	assert.Equal(t, 3, result.InvoicesSynced)
	assert.Equal(t, 1, result.CustomersSynced)
	assert.InDelta(t, 1100.5, result.TotalRevenue, 0.001)
	assert.Equal(t, []int{3}, w.batches[models.TableBooksInvoices])
	assert.Equal(t, []int{1}, w.batches[models.TableBooksCustomers])

	require.Len(t, f.calls, 2)
	for _, call := range f.calls {
		assert.Equal(t, zoho.ServiceBooks, call.Service)
		assert.Equal(t, "org-1", call.Query.Get("organization_id"))
	}
}

func TestSyncBooksLogsSkippedRows(t *testing.T) {
	f := &fakeFetcher{responses: map[string]string{
		"books/invoices": `{"code":0,"invoices":[{"invoice_id":"i1","total":10},{"total":5},"bogus"]}`,
		"books/contacts": `{"code":0,"contacts":[{"contact_id":"k1"},{"contact_name":"No Id"},42]}`,
	}}
	w := newFakeWriter()
	svc := newTestService(f, w, nil, "org-1")
	logger, hook := logtest.NewNullLogger()
	svc.log = logger

	result := svc.SyncBooks(context.Background())

	require.True(t, result.Success)
	assert.Equal(t, 6, result.Synced)
	assert.Equal(t, 2, result.Processed)
	assert.InDelta(t, 15, result.TotalRevenue, 0.001)

	var warnings []string
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.WarnLevel {
			warnings = append(warnings, entry.Message)
		}
	}
	assert.ElementsMatch(t, []string{
		"Skipping invoice without invoice_id",
		"Skipping undecodable invoice",
		"Skipping customer without contact_id",
		"Skipping undecodable customer",
	}, warnings)
}

func TestSyncBooksFetchFailure(t *testing.T) {
	f := &fakeFetcher{
		responses: map[string]string{"books/invoices": `{"invoices":[]}`},
		errs:      map[string]error{"books/contacts": &zoho.Error{Kind: zoho.KindUpstream, StatusCode: 500}},
	}
	svc := newTestService(f, newFakeWriter(), nil, "org-1")

	result := svc.SyncBooks(context.Background())

	assert.False(t, result.Success)
	assert.Equal(t, "Failed to fetch Books customers", result.Error)
}

func TestSyncCRM(t *testing.T) {
	f := &fakeFetcher{responses: map[string]string{
		"crm/Contacts": contactsJSON(4, false),
		"crm/Leads":    `{"data":[{"id":"1","Last_Name":"A"}]}`,
	}}
	svc := newTestService(f, nil, nil, "")

	result := svc.SyncCRM(context.Background(), 1, 10)

	assert.True(t, result.Success)
	assert.Equal(t, fixedNow, result.Timestamp)
	assert.Equal(t, 4, result.Contacts.Synced)
	assert.Equal(t, 1, result.Leads.Synced)
	assert.Equal(t, 5, result.TotalRecords)
}

func TestSyncAllPartialFailure(t *testing.T) {
	f := &fakeFetcher{
		responses: map[string]string{"crm/Contacts": contactsJSON(2, false)},
		errs:      map[string]error{"crm/Leads": &zoho.Error{Kind: zoho.KindUpstream, StatusCode: 500}},
	}
	st := newFakeState()
	svc := newTestService(f, newFakeWriter(), st, "")

	report := svc.SyncAll(context.Background())

	assert.Equal(t, "01TESTRUN", report.ID)
	assert.Equal(t, "sandbox", report.Environment)
	assert.Equal(t, fixedNow, report.Timestamp)
	assert.Equal(t, 3, report.Summary.TotalOperations)
	assert.Equal(t, 1, report.Summary.SuccessfulOperations)
	assert.Equal(t, 2, report.Summary.FailedOperations)
	assert.True(t, report.Details[models.OpContacts].Success)
	assert.False(t, report.Details[models.OpLeads].Success)
	assert.Equal(t, []string{
		"Review failed synchronizations: books_sync, leads_sync",
		"Configure Zoho Books integration for financial reporting",
	}, report.Recommendations)

	require.Len(t, st.runs, 1)
	assert.Equal(t, "01TESTRUN", st.runs[0].ID)
	assert.Equal(t, "01TESTRUN", st.synced[models.OpContacts])
}

func TestBatches(t *testing.T) {
	rows := make([]db.Record, 7)
	got := batches(rows, 3)
	require.Len(t, got, 3)
	assert.Len(t, got[0], 3)
	assert.Len(t, got[2], 1)
	assert.Empty(t, batches(nil, 3))
}
