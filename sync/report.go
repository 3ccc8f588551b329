// ABOUTME: Sync report generation
// ABOUTME: Summarizes operation outcomes and derives operator recommendations
package sync

import (
	"strings"
	"time"

	"github.com/harperreed/zohosync/models"
)

const (
	lowQualificationRate = 0.2

	recLowQualification = "Low lead qualification rate detected - review lead scoring criteria"
	recConfigureBooks   = "Configure Zoho Books integration for financial reporting"
	recAllNormal        = "All systems operating normally"
)

// BuildReport aggregates results into a SyncReport stamped with now.
func BuildReport(results map[string]models.SyncResult, environment string, now time.Time) models.SyncReport {
	details := make(map[string]models.SyncResult, len(results))
	summary := models.ReportSummary{TotalOperations: len(results)}
	for name, r := range results {
		details[name] = r
		if r.Success {
			summary.SuccessfulOperations++
		} else {
			summary.FailedOperations++
		}
	}

	report := models.SyncReport{
		Timestamp:   now.UTC(),
		Environment: environment,
		Summary:     summary,
		Details:     details,
	}
	report.Recommendations = recommendations(&report)
	return report
}

func recommendations(report *models.SyncReport) []string {
	var recs []string

	if failed := report.FailedNames(); len(failed) > 0 {
		recs = append(recs, "Review failed synchronizations: "+strings.Join(failed, ", "))
	}

	if leads, ok := report.Details[models.OpLeads]; ok && leads.Success && leads.Synced > 0 {
		rate := float64(leads.ConversionOpportunities) / float64(leads.Synced)
		if rate < lowQualificationRate {
			recs = append(recs, recLowQualification)
		}
	}

	if books, ok := report.Details[models.OpBooks]; !ok || !books.Success {
		recs = append(recs, recConfigureBooks)
	}

	if len(recs) == 0 {
		recs = append(recs, recAllNormal)
	}
	return recs
}
