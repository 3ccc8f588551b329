// ABOUTME: Table tests for record enrichment rules
// ABOUTME: Covers categorization, scoring, clamping, and date handling
package enrich

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/harperreed/zohosync/models"
)

func TestCategorizeContact(t *testing.T) {
	tests := []struct {
		name     string
		contact  models.RawContact
		expected string
	}{
		{
			name:     "account wins over website source",
			contact:  models.RawContact{AccountName: models.Lookup{Name: "Acme"}, LeadSource: "Website"},
			expected: models.CategoryBusiness,
		},
		{
			name:     "website source",
			contact:  models.RawContact{LeadSource: "Website"},
			expected: models.CategoryWebLead,
		},
		{
			name:     "referral source",
			contact:  models.RawContact{LeadSource: "Referral"},
			expected: models.CategoryReferral,
		},
		{
			name:     "other source",
			contact:  models.RawContact{LeadSource: "Trade Show"},
			expected: models.CategoryIndividual,
		},
		{
			name:     "empty",
			contact:  models.RawContact{},
			expected: models.CategoryIndividual,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CategorizeContact(tt.contact))
		})
	}
}

func TestEngagementScoreBoundsAndMonotonic(t *testing.T) {
	// Add contributing fields one at a time; the score never drops.
	steps := []func(c *models.RawContact){
		func(c *models.RawContact) {},
		func(c *models.RawContact) { c.Email = "a@example.com" },
		func(c *models.RawContact) { c.Mobile = "555-0100" },
		func(c *models.RawContact) { c.Phone = "555-0101" },
		func(c *models.RawContact) { c.AccountName = models.Lookup{Name: "Acme"} },
		func(c *models.RawContact) { c.LeadSource = "Website" },
	}

	var contact models.RawContact
	prev := -1
	for i, step := range steps {
		step(&contact)
		score := EngagementScore(contact)
		assert.GreaterOrEqual(t, score, 0, "step %d", i)
		assert.LessOrEqual(t, score, 100, "step %d", i)
		assert.GreaterOrEqual(t, score, prev, "step %d", i)
		prev = score
	}

	assert.Equal(t, 50, EngagementScore(models.RawContact{}))
	assert.Equal(t, 100, prev)
}

func TestLeadScore(t *testing.T) {
	tests := []struct {
		name     string
		lead     models.RawLead
		expected int
	}{
		{
			name: "maximum clamps to 100",
			lead: models.RawLead{
				NoOfEmployees: 150,
				AnnualRevenue: 2_000_000,
				Industry:      "Technology",
				LeadSource:    "Referral",
			},
			expected: 100,
		},
		{name: "base only", lead: models.RawLead{}, expected: 30},
		{name: "mid employees", lead: models.RawLead{NoOfEmployees: 60}, expected: 45},
		{name: "small employees", lead: models.RawLead{NoOfEmployees: 11}, expected: 40},
		{name: "ten employees earns nothing", lead: models.RawLead{NoOfEmployees: 10}, expected: 30},
		{name: "revenue band 500k", lead: models.RawLead{AnnualRevenue: 600_000}, expected: 50},
		{name: "revenue band 100k", lead: models.RawLead{AnnualRevenue: 100_001}, expected: 45},
		{name: "exactly one million is second band", lead: models.RawLead{AnnualRevenue: 1_000_000}, expected: 50},
		{name: "industry", lead: models.RawLead{Industry: "Finance"}, expected: 40},
		{name: "unscored industry", lead: models.RawLead{Industry: "Retail"}, expected: 30},
		{name: "website source", lead: models.RawLead{LeadSource: "Website"}, expected: 40},
		{name: "social source", lead: models.RawLead{LeadSource: "Social Media"}, expected: 38},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := LeadScore(tt.lead)
			assert.Equal(t, tt.expected, score)
			assert.GreaterOrEqual(t, score, 0)
			assert.LessOrEqual(t, score, 100)
		})
	}
}

func TestConversionProbability(t *testing.T) {
	assert.Equal(t, 0.70, ConversionProbability("Qualified"))
	assert.Equal(t, 0.10, ConversionProbability("UnknownValue"))
	assert.Equal(t, 0.10, ConversionProbability(""))
	assert.Equal(t, 0.05, ConversionProbability("Unqualified"))
	assert.Equal(t, 1.00, ConversionProbability("Converted"))
	assert.Equal(t, 0.30, ConversionProbability("Contacted"))
	assert.Equal(t, 0.10, ConversionProbability("Not Contacted"))
}

func TestDaysInPipeline(t *testing.T) {
	now := time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 10, DaysInPipeline("2024-01-01T00:00:00Z", now))
	assert.Equal(t, 10, DaysInPipeline("2024-01-01T05:30:00+05:30", now))
	assert.Equal(t, 9, DaysInPipeline("2024-01-01T12:00:00Z", now))
	assert.Equal(t, 0, DaysInPipeline("", now))
	assert.Equal(t, 0, DaysInPipeline("not a date", now))
	assert.Equal(t, 0, DaysInPipeline("2024-02-01T00:00:00Z", now))
}

func TestEnrichContact(t *testing.T) {
	raw := models.RawContact{
		ID:           "c1",
		FirstName:    "Ada",
		LastName:     "Lovelace",
		Email:        "ada@example.com",
		Mobile:       "555-0100",
		LeadSource:   "Website",
		CreatedTime:  "2024-01-01T00:00:00Z",
		ModifiedTime: "",
		Owner:        &models.Owner{Name: "Sam"},
	}

	enriched := EnrichContact(raw)

	assert.Equal(t, "c1", enriched.ID)
	assert.Equal(t, "Ada Lovelace", enriched.FullName)
	assert.Equal(t, "555-0100", enriched.Phone)
	assert.Equal(t, "Sam", enriched.OwnerName)
	assert.Equal(t, models.CategoryWebLead, enriched.ContactType)
	assert.Equal(t, 90, enriched.EngagementScore)
	assert.Equal(t, "2024-01-01T00:00:00Z", enriched.LastActivity)
}

func TestEnrichLead(t *testing.T) {
	now := time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC)
	raw := models.RawLead{
		ID:            "l1",
		LastName:      "Hopper",
		LeadStatus:    "Qualified",
		NoOfEmployees: 150,
		CreatedTime:   "2024-01-01T00:00:00Z",
	}

	enriched := EnrichLead(raw, now)

	assert.Equal(t, "l1", enriched.ID)
	assert.Equal(t, "Hopper", enriched.FullName)
	assert.Equal(t, 150, enriched.NoOfEmployees)
	assert.Equal(t, 50, enriched.LeadScore)
	assert.Equal(t, 0.70, enriched.ConversionProbability)
	assert.Equal(t, 10, enriched.DaysInPipeline)
	assert.Empty(t, enriched.OwnerName)
}
