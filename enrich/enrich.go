// ABOUTME: Pure enrichment functions for CRM contacts and leads
// ABOUTME: Computes categories, engagement and lead scores, conversion probability, and pipeline age
package enrich

import (
	"strings"
	"time"

	"github.com/harperreed/zohosync/models"
)

const (
	maxScore = 100

	engagementBase    = 50
	engagementEmail   = 20
	engagementPhone   = 15
	engagementAccount = 10
	engagementSource  = 5

	leadBase = 30
)

var scoredIndustries = map[string]bool{
	"Healthcare": true,
	"Technology": true,
	"Finance":    true,
}

var sourceBonus = map[string]int{
	"Referral":     15,
	"Website":      10,
	"Social Media": 8,
}

var statusProbability = map[string]float64{
	models.LeadStatusNotContacted: 0.10,
	models.LeadStatusContacted:    0.30,
	models.LeadStatusQualified:    0.70,
	models.LeadStatusUnqualified:  0.05,
	models.LeadStatusConverted:    1.00,
}

const defaultProbability = 0.10

// Zoho emits offsets as -07:00; some exports omit the zone entirely.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// CategorizeContact picks the first matching category: account, website
// lead source, referral lead source, then individual.
func CategorizeContact(c models.RawContact) string {
	switch {
	case c.AccountName.Present():
		return models.CategoryBusiness
	case c.LeadSource == "Website":
		return models.CategoryWebLead
	case c.LeadSource == "Referral":
		return models.CategoryReferral
	default:
		return models.CategoryIndividual
	}
}

// EngagementScore rates how reachable a contact is, 0-100.
func EngagementScore(c models.RawContact) int {
	score := engagementBase
	if c.Email != "" {
		score += engagementEmail
	}
	if c.Phone != "" || c.Mobile != "" {
		score += engagementPhone
	}
	if c.AccountName.Present() {
		score += engagementAccount
	}
	if c.LeadSource != "" {
		score += engagementSource
	}
	return clampScore(score)
}

// LeadScore rates a lead from company size, revenue, industry, and source.
func LeadScore(l models.RawLead) int {
	score := leadBase

	switch employees := l.NoOfEmployees.Float(); {
	case employees > 100:
		score += 20
	case employees > 50:
		score += 15
	case employees > 10:
		score += 10
	}

	switch revenue := l.AnnualRevenue.Float(); {
	case revenue > 1_000_000:
		score += 25
	case revenue > 500_000:
		score += 20
	case revenue > 100_000:
		score += 15
	}

	if scoredIndustries[l.Industry] {
		score += 10
	}

	score += sourceBonus[l.LeadSource]

	return clampScore(score)
}

// ConversionProbability maps a lead status to a fixed probability.
func ConversionProbability(status string) float64 {
	p, ok := statusProbability[status]
	if !ok {
		p = defaultProbability
	}
	return clampProbability(p)
}

// DaysInPipeline returns whole days between created and now. Missing,
// malformed, or future timestamps yield 0.
func DaysInPipeline(created string, now time.Time) int {
	t, ok := ParseTime(created)
	if !ok {
		return 0
	}
	d := now.UTC().Sub(t.UTC())
	if d < 0 {
		return 0
	}
	return int(d / (24 * time.Hour))
}

// ParseTime parses the timestamp formats Zoho returns.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// LastActivity prefers the modified time and falls back to created time.
func LastActivity(modified, created string) string {
	if modified != "" {
		return modified
	}
	return created
}

// FullName joins first and last name, trimming the gap when one is missing.
func FullName(first, last string) string {
	return strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
}

// EnrichContact builds the analytics projection of a contact.
func EnrichContact(c models.RawContact) models.EnrichedContact {
	return models.EnrichedContact{
		ID:              c.ID,
		FullName:        FullName(c.FirstName, c.LastName),
		Email:           c.Email,
		Phone:           firstNonEmpty(c.Phone, c.Mobile),
		AccountName:     c.AccountName.Name,
		LeadSource:      c.LeadSource,
		CreatedTime:     c.CreatedTime,
		ModifiedTime:    c.ModifiedTime,
		OwnerName:       ownerName(c.Owner),
		ContactType:     CategorizeContact(c),
		EngagementScore: EngagementScore(c),
		LastActivity:    LastActivity(c.ModifiedTime, c.CreatedTime),
	}
}

// EnrichLead builds the analytics projection of a lead as of now.
func EnrichLead(l models.RawLead, now time.Time) models.EnrichedLead {
	return models.EnrichedLead{
		ID:                    l.ID,
		FullName:              FullName(l.FirstName, l.LastName),
		Company:               l.Company,
		Email:                 l.Email,
		Phone:                 firstNonEmpty(l.Phone, l.Mobile),
		LeadSource:            l.LeadSource,
		LeadStatus:            l.LeadStatus,
		Industry:              l.Industry,
		AnnualRevenue:         l.AnnualRevenue.Float(),
		NoOfEmployees:         int(l.NoOfEmployees.Float()),
		CreatedTime:           l.CreatedTime,
		ModifiedTime:          l.ModifiedTime,
		OwnerName:             ownerName(l.Owner),
		LeadScore:             LeadScore(l),
		ConversionProbability: ConversionProbability(l.LeadStatus),
		DaysInPipeline:        DaysInPipeline(l.CreatedTime, now),
	}
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > maxScore {
		return maxScore
	}
	return score
}

func clampProbability(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func ownerName(o *models.Owner) string {
	if o == nil {
		return ""
	}
	return o.Name
}
