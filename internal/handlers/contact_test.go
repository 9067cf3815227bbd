package handlers

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"corpdesk-backend/internal/models"
	"corpdesk-backend/internal/taxperiod"
)

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

func at(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

// ── Expiry rollup ──────────────────────────────────────────────

func TestExpiryStatusesCoversAllTrackedFields(t *testing.T) {
	c := models.Contact{
		LicenseExpiryDate:       strPtr("2024-04-01"),
		EstablishmentCardExpiry: strPtr("2024-05-01"),
		VisaExpiryDate:          strPtr("2024-06-01"),
		PassportExpiry:          strPtr("2024-07-01"),
		EmiratesIDExpiry:        strPtr("2024-08-01"),
	}

	statuses := expiryStatuses(&c, at("2024-03-15"))
	require.Len(t, statuses, 5)

	labels := []string{}
	for _, s := range statuses {
		labels = append(labels, s.Label)
		require.NotNil(t, s.Date, "%s should carry its date", s.Label)
		require.NotNil(t, s.DaysRemaining)
	}
	assert.ElementsMatch(t, labels, []string{
		"Trade License", "Establishment Card", "Visa", "Passport", "Emirates ID",
	})
}

func TestExpiryStatusesMissingDatesAreUnknown(t *testing.T) {
	c := models.Contact{LicenseExpiryDate: strPtr("2024-04-01")}

	statuses := expiryStatuses(&c, at("2024-03-15"))
	require.Len(t, statuses, 5)

	for _, s := range statuses {
		if s.Label == "Trade License" {
			assert.Equal(t, taxperiod.BandCritical, s.Band)
			continue
		}
		assert.Equal(t, taxperiod.BandUnknown, s.Band, s.Label)
		assert.Nil(t, s.DaysRemaining, s.Label)
	}
}

func TestEnrichWithRiskPicksNearestExpiry(t *testing.T) {
	c := models.Contact{
		LicenseExpiryDate: strPtr("2024-09-01"),
		VisaExpiryDate:    strPtr("2024-04-01"), // nearest
		PassportExpiry:    strPtr("2025-01-01"),
	}

	cwr := enrichWithRisk(&c, at("2024-03-15"))

	require.NotNil(t, cwr.NearestExpiryDays)
	require.NotNil(t, cwr.NearestExpiryLabel)
	assert.Equal(t, 17, *cwr.NearestExpiryDays)
	assert.Equal(t, "Visa", *cwr.NearestExpiryLabel)
	assert.Equal(t, taxperiod.BandCritical, cwr.RiskBand)
	assert.Equal(t, "danger", cwr.RiskColor)
}

func TestEnrichWithRiskExpiredDominates(t *testing.T) {
	c := models.Contact{
		LicenseExpiryDate: strPtr("2024-03-01"), // already past
		VisaExpiryDate:    strPtr("2024-04-01"),
	}

	cwr := enrichWithRisk(&c, at("2024-03-15"))

	require.NotNil(t, cwr.NearestExpiryDays)
	assert.Equal(t, -14, *cwr.NearestExpiryDays)
	assert.Equal(t, taxperiod.BandExpired, cwr.RiskBand)
}

func TestEnrichWithRiskNoDates(t *testing.T) {
	cwr := enrichWithRisk(&models.Contact{}, at("2024-03-15"))

	assert.Nil(t, cwr.NearestExpiryDays)
	assert.Nil(t, cwr.NearestExpiryLabel)
	assert.Equal(t, taxperiod.BandUnknown, cwr.RiskBand)
	assert.Equal(t, "neutral", cwr.RiskColor)
}

// ── Tax summary ────────────────────────────────────────────────

func TestBuildTaxSummaryVATAndCT(t *testing.T) {
	c := models.Contact{
		ID:   "c-1",
		Name: "Falcon Trading LLC",

		VatRegistered:         true,
		VatPeriodType:         strPtr("quarterly"),
		VatFirstPeriodEndDate: strPtr("2024-01-31"),
		VatReturnDueDays:      intPtr(28),

		CtRegistered:              true,
		CtFinancialYearStartMonth: intPtr(1),
		CtFilingDueMonths:         intPtr(9),
	}

	summary := buildTaxSummary(&c, at("2024-02-15"))

	assert.Equal(t, "c-1", summary.ContactID)
	assert.Equal(t, "2024-02-15", summary.AsOf)

	// Quarterly from Jan 31: next boundary Apr 30, due 28 days later
	require.NotNil(t, summary.NextVatDue)
	assert.Equal(t, "2024-05-28", *summary.NextVatDue)
	require.NotNil(t, summary.VatDueInDays)
	assert.Equal(t, 103, *summary.VatDueInDays)

	// FY starting January: year ended Dec 31 2023, filing due 9 months on
	require.NotNil(t, summary.NextCtDue)
	assert.Equal(t, "2024-09-30", *summary.NextCtDue)
	require.NotNil(t, summary.CtDueInDays)
	assert.Equal(t, 228, *summary.CtDueInDays)

	assert.Len(t, summary.Expiries, 5)
}

func TestBuildTaxSummaryUnconfigured(t *testing.T) {
	c := models.Contact{ID: "c-2", Name: "Unconfigured FZE"}

	summary := buildTaxSummary(&c, at("2024-02-15"))

	assert.False(t, summary.VatRegistered)
	assert.Nil(t, summary.NextVatDue)
	assert.Nil(t, summary.VatDueInDays)
	assert.Nil(t, summary.NextCtDue)
	assert.Nil(t, summary.CtDueInDays)
}

func TestBuildTaxSummaryRegisteredButIncomplete(t *testing.T) {
	// Registered with no first period end: a due date cannot be projected.
	c := models.Contact{
		ID:            "c-3",
		Name:          "Half Configured LLC",
		VatRegistered: true,
		VatPeriodType: strPtr("monthly"),
	}

	summary := buildTaxSummary(&c, at("2024-02-15"))

	assert.True(t, summary.VatRegistered)
	assert.Nil(t, summary.NextVatDue)
}

// ── Config mapping ─────────────────────────────────────────────

func TestVatConfigOfParsesTimestampedDate(t *testing.T) {
	// Dates can arrive with a time component from the DB text cast.
	c := models.Contact{
		VatRegistered:         true,
		VatFirstPeriodEndDate: strPtr("2024-01-31T00:00:00Z"),
		VatReturnDueDays:      intPtr(28),
	}

	cfg := vatConfigOf(&c)
	require.NotNil(t, cfg.FirstPeriodEnd)
	assert.Equal(t, "2024-01-31", cfg.FirstPeriodEnd.Format("2006-01-02"))
}

func TestVatConfigOfNilDate(t *testing.T) {
	cfg := vatConfigOf(&models.Contact{VatRegistered: true})
	assert.Nil(t, cfg.FirstPeriodEnd)
	assert.Nil(t, cfg.ReturnDueDays)
}

// ── Risk filter ────────────────────────────────────────────────

func TestRiskBandClauseKnownBands(t *testing.T) {
	// The list filter must reach SQL so it applies before LIMIT/OFFSET
	// and the pagination total counts only matching contacts.
	for _, band := range []string{
		taxperiod.BandUnknown, taxperiod.BandExpired, taxperiod.BandCritical,
		taxperiod.BandWarning, taxperiod.BandHealthy,
	} {
		clause, ok := riskBandClause(band)
		require.True(t, ok, band)
		assert.Equal(t, fmt.Sprintf(" AND rb.risk_band = '%s'", band), clause)
	}
}

func TestRiskBandClauseEmptyIsNoop(t *testing.T) {
	clause, ok := riskBandClause("")
	require.True(t, ok)
	assert.Empty(t, clause)
}

func TestRiskBandClauseRejectsUnknownValue(t *testing.T) {
	// Arbitrary input never reaches the query string.
	for _, band := range []string{"bogus", "critical'; DROP TABLE contacts;--", "CRITICAL"} {
		_, ok := riskBandClause(band)
		assert.False(t, ok, band)
	}
}

func TestRiskBandLateralMirrorsClassifierCutoffs(t *testing.T) {
	// The SQL CASE must stay in lockstep with taxperiod.ClassifyExpiry:
	// same bands, same 30/90-day boundaries, NULL dates as unknown.
	for _, band := range []string{
		taxperiod.BandUnknown, taxperiod.BandExpired, taxperiod.BandCritical,
		taxperiod.BandWarning, taxperiod.BandHealthy,
	} {
		assert.Contains(t, riskBandLateral, "'"+band+"'")
	}
	assert.Contains(t, riskBandLateral, "INTERVAL '30 days'")
	assert.Contains(t, riskBandLateral, "INTERVAL '90 days'")
	for _, col := range []string{
		"c.license_expiry_date", "c.establishment_card_expiry",
		"c.visa_expiry_date", "c.passport_expiry", "c.emirates_id_expiry",
	} {
		assert.Contains(t, riskBandLateral, col)
	}
}
