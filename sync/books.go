// ABOUTME: Zoho Books invoices and customers sync
// ABOUTME: Requires the Books organization id and totals invoice revenue
package sync

import (
	"context"
	"net/http"
	"net/url"

	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"

	"github.com/harperreed/zohosync/db"
	"github.com/harperreed/zohosync/models"
	"github.com/harperreed/zohosync/zoho"
)

const errBooksNotConfigured = "Books organization ID not configured"

type invoicesPage struct {
	Invoices *[]json.RawMessage `json:"invoices"`
}

type customersPage struct {
	Contacts *[]json.RawMessage `json:"contacts"`
}

func (s *Service) syncBooks(ctx context.Context, runID string) models.SyncResult {
	return s.track(models.OpBooks, runID, func() models.SyncResult {
		if s.booksOrgID == "" {
			s.log.Warn(errBooksNotConfigured)
			return models.Failed("books", errBooksNotConfigured)
		}

		log := s.log.WithField("resource", "books")
		log.Info("Syncing Zoho Books data")

		query := url.Values{"organization_id": {s.booksOrgID}}

		var invResp invoicesPage
		err := s.fetcher.Do(ctx, zoho.Call{Service: zoho.ServiceBooks, Path: "invoices", Method: http.MethodGet, Query: query}, &invResp)
		if err != nil || invResp.Invoices == nil {
			log.WithError(err).Error("Failed to fetch Books invoices")
			return models.Failed("books", "Failed to fetch Books invoices")
		}

		var custResp customersPage
		err = s.fetcher.Do(ctx, zoho.Call{Service: zoho.ServiceBooks, Path: "contacts", Method: http.MethodGet, Query: query}, &custResp)
		if err != nil || custResp.Contacts == nil {
			log.WithError(err).Error("Failed to fetch Books customers")
			return models.Failed("books", "Failed to fetch Books customers")
		}

		invoices := *invResp.Invoices
		customers := *custResp.Contacts

		var revenue float64
		invoiceRows := make([]db.Record, 0, len(invoices))
		for _, raw := range invoices {
			var inv models.RawInvoice
			if err := json.Unmarshal(raw, &inv); err != nil {
				log.WithError(err).Warn("Skipping undecodable invoice")
				continue
			}
			revenue += inv.Total.Float()
			if inv.InvoiceID == "" {
				log.Warn("Skipping invoice without invoice_id")
				continue
			}
			invoiceRows = append(invoiceRows, db.Record{ID: inv.InvoiceID, Payload: raw})
		}

		customerRows := make([]db.Record, 0, len(customers))
		for _, raw := range customers {
			var cust models.RawCustomer
			if err := json.Unmarshal(raw, &cust); err != nil {
				log.WithError(err).Warn("Skipping undecodable customer")
				continue
			}
			if cust.ContactID == "" {
				log.Warn("Skipping customer without contact_id")
				continue
			}
			customerRows = append(customerRows, db.Record{ID: cust.ContactID, Payload: raw})
		}

		invPersisted, invFailed := s.persist(ctx, models.TableBooksInvoices, invoiceRows)
		custPersisted, custFailed := s.persist(ctx, models.TableBooksCustomers, customerRows)
		recordCounter.WithLabelValues(models.TableBooksInvoices).Add(float64(len(invoices)))
		recordCounter.WithLabelValues(models.TableBooksCustomers).Add(float64(len(customers)))

		result := models.SyncResult{
			Success:         true,
			Resource:        "books",
			Synced:          len(invoices) + len(customers),
			Processed:       len(invoiceRows) + len(customerRows),
			Persisted:       invPersisted + custPersisted,
			FailedBatches:   invFailed + custFailed,
			InvoicesSynced:  len(invoices),
			CustomersSynced: len(customers),
			TotalRevenue:    revenue,
		}

		log.WithFields(logrus.Fields{
			"invoices":      result.InvoicesSynced,
			"customers":     result.CustomersSynced,
			"total_revenue": result.TotalRevenue,
		}).Info("Books sync completed")
		return result
	})
}
