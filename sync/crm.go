// ABOUTME: CRM contacts and leads sync
// ABOUTME: Fetches a page of records sorted by Modified_Time, enriches them, and persists in batches
package sync

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/harperreed/zohosync/db"
	"github.com/harperreed/zohosync/enrich"
	"github.com/harperreed/zohosync/models"
	"github.com/harperreed/zohosync/zoho"
)

// crmPage is the CRM list envelope. Data is a pointer so a missing field can
// be told apart from an empty page.
type crmPage[T any] struct {
	Data *[]T `json:"data"`
	Info struct {
		MoreRecords bool `json:"more_records"`
	} `json:"info"`
}

func crmListQuery(page, perPage int) url.Values {
	return url.Values{
		"page":       {strconv.Itoa(page)},
		"per_page":   {strconv.Itoa(perPage)},
		"sort_by":    {"Modified_Time"},
		"sort_order": {"desc"},
	}
}

func (s *Service) syncContacts(ctx context.Context, page, perPage int, runID string) models.SyncResult {
	return s.track(models.OpContacts, runID, func() models.SyncResult {
		page, perPage := normalizePage(page, perPage, s.pageSize)
		log := s.log.WithFields(logrus.Fields{"resource": "contacts", "page": page, "per_page": perPage})
		log.Info("Syncing CRM contacts")

		var resp crmPage[models.RawContact]
		err := s.fetcher.Do(ctx, zoho.Call{
			Service: zoho.ServiceCRM,
			Path:    "Contacts",
			Method:  http.MethodGet,
			Query:   crmListQuery(page, perPage),
		}, &resp)
		if err != nil || resp.Data == nil {
			log.WithError(err).Error("Failed to fetch CRM contacts")
			return models.Failed("contacts", "Failed to fetch CRM contacts")
		}

		contacts := *resp.Data
		enriched := make([]db.Record, 0, len(contacts))
		for _, c := range contacts {
			if c.ID == "" {
				log.Warn("Skipping contact without id")
				continue
			}
			enriched = append(enriched, db.Record{ID: c.ID, Payload: enrich.EnrichContact(c)})
		}

		persisted, failed := s.persist(ctx, models.TableContacts, enriched)
		recordCounter.WithLabelValues(models.TableContacts).Add(float64(len(contacts)))

		result := models.SyncResult{
			Success:       true,
			Resource:      "contacts",
			Synced:        len(contacts),
			Processed:     len(enriched),
			HasMore:       resp.Info.MoreRecords,
			Page:          page,
			Persisted:     persisted,
			FailedBatches: failed,
		}
		if len(contacts) > 0 {
			result.LastModified = contacts[0].ModifiedTime
		}

		log.WithFields(logrus.Fields{
			"synced":    result.Synced,
			"processed": result.Processed,
			"has_more":  result.HasMore,
		}).Info("CRM contacts sync completed")
		return result
	})
}

func (s *Service) syncLeads(ctx context.Context, page, perPage int, runID string) models.SyncResult {
	return s.track(models.OpLeads, runID, func() models.SyncResult {
		page, perPage := normalizePage(page, perPage, s.pageSize)
		log := s.log.WithFields(logrus.Fields{"resource": "leads", "page": page, "per_page": perPage})
		log.Info("Syncing CRM leads")

		var resp crmPage[models.RawLead]
		err := s.fetcher.Do(ctx, zoho.Call{
			Service: zoho.ServiceCRM,
			Path:    "Leads",
			Method:  http.MethodGet,
			Query:   crmListQuery(page, perPage),
		}, &resp)
		if err != nil || resp.Data == nil {
			log.WithError(err).Error("Failed to fetch CRM leads")
			return models.Failed("leads", "Failed to fetch CRM leads")
		}

		leads := *resp.Data
		now := s.now()
		enriched := make([]db.Record, 0, len(leads))
		qualified := 0
		for _, l := range leads {
			if l.LeadStatus == models.LeadStatusQualified {
				qualified++
			}
			if l.ID == "" {
				log.Warn("Skipping lead without id")
				continue
			}
			enriched = append(enriched, db.Record{ID: l.ID, Payload: enrich.EnrichLead(l, now)})
		}

		persisted, failed := s.persist(ctx, models.TableLeads, enriched)
		recordCounter.WithLabelValues(models.TableLeads).Add(float64(len(leads)))

		result := models.SyncResult{
			Success:                 true,
			Resource:                "leads",
			Synced:                  len(leads),
			Processed:               len(enriched),
			HasMore:                 resp.Info.MoreRecords,
			Page:                    page,
			Persisted:               persisted,
			FailedBatches:           failed,
			ConversionOpportunities: qualified,
		}
		if len(leads) > 0 {
			result.LastModified = leads[0].ModifiedTime
		}

		log.WithFields(logrus.Fields{
			"synced":                   result.Synced,
			"processed":                result.Processed,
			"conversion_opportunities": qualified,
		}).Info("CRM leads sync completed")
		return result
	})
}
