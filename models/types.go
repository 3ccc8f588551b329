// ABOUTME: Data models for Zoho records, sync results, and reports
// ABOUTME: Declares raw upstream schemas, enriched projections, and datastore rows
package models

import (
	"time"

	"github.com/goccy/go-json"
)

// Resource table names in the record store.
const (
	TableContacts       = "crm_contacts"
	TableLeads          = "crm_leads"
	TableBooksInvoices  = "books_invoices"
	TableBooksCustomers = "books_customers"
)

// RecordTables lists every record store table in sync order.
var RecordTables = []string{TableContacts, TableLeads, TableBooksInvoices, TableBooksCustomers}

// Operation names used as keys in a SyncReport.
const (
	OpContacts = "contacts_sync"
	OpLeads    = "leads_sync"
	OpBooks    = "books_sync"
)

// Lead status values with a known conversion probability.
const (
	LeadStatusNotContacted = "Not Contacted"
	LeadStatusContacted    = "Contacted"
	LeadStatusQualified    = "Qualified"
	LeadStatusUnqualified  = "Unqualified"
	LeadStatusConverted    = "Converted"
)

// Contact categories.
const (
	CategoryBusiness   = "Business"
	CategoryWebLead    = "Web Lead"
	CategoryReferral   = "Referral"
	CategoryIndividual = "Individual"
)

// Sync status constants.
const (
	SyncStatusIdle    = "idle"
	SyncStatusSyncing = "syncing"
	SyncStatusError   = "error"
)

// Owner is the CRM record owner lookup.
type Owner struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// RawContact is the subset of a CRM Contact this service reads. Absent
// fields decode to their zero value.
type RawContact struct {
	ID           string `json:"id"`
	FirstName    string `json:"First_Name"`
	LastName     string `json:"Last_Name"`
	Email        string `json:"Email"`
	Phone        string `json:"Phone"`
	Mobile       string `json:"Mobile"`
	AccountName  Lookup `json:"Account_Name"`
	LeadSource   string `json:"Lead_Source"`
	CreatedTime  string `json:"Created_Time"`
	ModifiedTime string `json:"Modified_Time"`
	Owner        *Owner `json:"Owner"`
}

// RawLead is the subset of a CRM Lead this service reads.
type RawLead struct {
	ID            string `json:"id"`
	FirstName     string `json:"First_Name"`
	LastName      string `json:"Last_Name"`
	Company       string `json:"Company"`
	Email         string `json:"Email"`
	Phone         string `json:"Phone"`
	Mobile        string `json:"Mobile"`
	LeadSource    string `json:"Lead_Source"`
	LeadStatus    string `json:"Lead_Status"`
	Industry      string `json:"Industry"`
	AnnualRevenue Number `json:"Annual_Revenue"`
	NoOfEmployees Number `json:"No_of_Employees"`
	CreatedTime   string `json:"Created_Time"`
	ModifiedTime  string `json:"Modified_Time"`
	Owner         *Owner `json:"Owner"`
}

// RawInvoice is the subset of a Books invoice this service reads.
type RawInvoice struct {
	InvoiceID     string `json:"invoice_id"`
	InvoiceNumber string `json:"invoice_number"`
	CustomerID    string `json:"customer_id"`
	CustomerName  string `json:"customer_name"`
	Status        string `json:"status"`
	Date          string `json:"date"`
	Total         Number `json:"total"`
}

// RawCustomer is the subset of a Books contact this service reads.
type RawCustomer struct {
	ContactID   string `json:"contact_id"`
	ContactName string `json:"contact_name"`
	CompanyName string `json:"company_name"`
	Email       string `json:"email"`
	Status      string `json:"status"`
}

// EnrichedContact is the analytics projection of a CRM Contact.
type EnrichedContact struct {
	ID              string `json:"id"`
	FullName        string `json:"full_name"`
	Email           string `json:"email,omitempty"`
	Phone           string `json:"phone,omitempty"`
	AccountName     string `json:"account_name,omitempty"`
	LeadSource      string `json:"lead_source,omitempty"`
	CreatedTime     string `json:"created_time,omitempty"`
	ModifiedTime    string `json:"modified_time,omitempty"`
	OwnerName       string `json:"owner_name,omitempty"`
	ContactType     string `json:"contact_type"`
	EngagementScore int    `json:"engagement_score"`
	LastActivity    string `json:"last_activity,omitempty"`
}

// EnrichedLead is the analytics projection of a CRM Lead.
type EnrichedLead struct {
	ID                    string  `json:"id"`
	FullName              string  `json:"full_name"`
	Company               string  `json:"company,omitempty"`
	Email                 string  `json:"email,omitempty"`
	Phone                 string  `json:"phone,omitempty"`
	LeadSource            string  `json:"lead_source,omitempty"`
	LeadStatus            string  `json:"lead_status,omitempty"`
	Industry              string  `json:"industry,omitempty"`
	AnnualRevenue         float64 `json:"annual_revenue"`
	NoOfEmployees         int     `json:"no_of_employees"`
	CreatedTime           string  `json:"created_time,omitempty"`
	ModifiedTime          string  `json:"modified_time,omitempty"`
	OwnerName             string  `json:"owner_name,omitempty"`
	LeadScore             int     `json:"lead_score"`
	ConversionProbability float64 `json:"conversion_probability"`
	DaysInPipeline        int     `json:"days_in_pipeline"`
}

// SyncResult is the outcome of one resource synchronization.
type SyncResult struct {
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
	Resource string `json:"resource"`

	Synced       int    `json:"synced"`
	Processed    int    `json:"processed_count"`
	HasMore      bool   `json:"has_more"`
	Page         int    `json:"page,omitempty"`
	LastModified string `json:"last_modified,omitempty"`

	Persisted     int `json:"persisted"`
	FailedBatches int `json:"failed_batches,omitempty"`

	ConversionOpportunities int     `json:"conversion_opportunities,omitempty"`
	InvoicesSynced          int     `json:"invoices_synced,omitempty"`
	CustomersSynced         int     `json:"customers_synced,omitempty"`
	TotalRevenue            float64 `json:"total_revenue,omitempty"`
}

// Failed builds a failed result with zero counts.
func Failed(resource, msg string) SyncResult {
	return SyncResult{Success: false, Resource: resource, Error: msg}
}

// ReportSummary holds operation counts for a report.
type ReportSummary struct {
	TotalOperations      int `json:"total_operations"`
	SuccessfulOperations int `json:"successful_operations"`
	FailedOperations     int `json:"failed_operations"`
}

// SyncReport aggregates the results of one orchestration run.
type SyncReport struct {
	ID              string                `json:"id,omitempty" yaml:"id,omitempty"`
	Timestamp       time.Time             `json:"timestamp" yaml:"timestamp"`
	Environment     string                `json:"environment" yaml:"environment"`
	Summary         ReportSummary         `json:"summary" yaml:"summary"`
	Details         map[string]SyncResult `json:"details" yaml:"details"`
	Recommendations []string              `json:"recommendations" yaml:"recommendations"`
}

// FailedNames lists the operations that did not succeed, in sorted order.
func (r *SyncReport) FailedNames() []string {
	return failedNames(r.Details)
}

// CRMSyncResult is the combined contacts + leads result.
type CRMSyncResult struct {
	Success      bool       `json:"success"`
	Timestamp    time.Time  `json:"timestamp"`
	Contacts     SyncResult `json:"contacts"`
	Leads        SyncResult `json:"leads"`
	TotalRecords int        `json:"total_records"`
}

type SyncState struct {
	Service      string     `json:"service"`
	LastSyncTime *time.Time `json:"last_sync_time,omitempty"`
	LastRunID    string     `json:"last_run_id,omitempty"`
	Status       string     `json:"status"`
	ErrorMessage string     `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Row is a datastore row as returned by the resource endpoints.
type Row struct {
	ROWID        string
	Table        string
	Data         map[string]any
	CreatedTime  time.Time
	ModifiedTime time.Time
}

// MarshalJSON flattens the row data with the system columns.
func (r Row) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Data)+3)
	for k, v := range r.Data {
		out[k] = v
	}
	out["ROWID"] = r.ROWID
	out["CREATEDTIME"] = r.CreatedTime.UTC().Format(time.RFC3339)
	out["MODIFIEDTIME"] = r.ModifiedTime.UTC().Format(time.RFC3339)
	return json.Marshal(out)
}
