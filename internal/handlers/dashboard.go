package handlers

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sort"
	"strconv"
	"time"

	"corpdesk-backend/internal/database"
	"corpdesk-backend/internal/models"
	"corpdesk-backend/internal/taxperiod"
)

// DashboardHandler handles dashboard-related HTTP requests.
type DashboardHandler struct {
	db database.Service
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(db database.Service) *DashboardHandler {
	return &DashboardHandler{db: db}
}

// ── GetMetrics ─────────────────────────────────────────────────

// GetMetrics handles GET /api/dashboard/metrics
func (h *DashboardHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pool := h.db.GetPool()
	metrics := models.DashboardMetrics{}

	err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM contacts").Scan(&metrics.TotalContacts)
	if err != nil {
		log.Printf("Error querying total contacts: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch metrics")
		return
	}

	err = pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM contacts
		WHERE contact_type = 'company' AND status = 'active'
	`).Scan(&metrics.ActiveCompanies)
	if err != nil {
		log.Printf("Error querying active companies: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch metrics")
		return
	}

	// Risk-band thresholds live in the taxperiod package; the two counts
	// below mirror its "critical"/"expired" cutoffs in SQL for speed.
	err = pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM contacts c
		WHERE EXISTS (
			SELECT 1 FROM unnest(ARRAY[
				c.license_expiry_date, c.establishment_card_expiry,
				c.visa_expiry_date, c.passport_expiry, c.emirates_id_expiry
			]) AS exp(d)
			WHERE exp.d BETWEEN CURRENT_DATE AND CURRENT_DATE + INTERVAL '30 days'
		)
	`).Scan(&metrics.ExpiringSoon)
	if err != nil {
		log.Printf("Error querying expiring soon: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch metrics")
		return
	}

	err = pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM contacts c
		WHERE EXISTS (
			SELECT 1 FROM unnest(ARRAY[
				c.license_expiry_date, c.establishment_card_expiry,
				c.visa_expiry_date, c.passport_expiry, c.emirates_id_expiry
			]) AS exp(d)
			WHERE exp.d < CURRENT_DATE
		)
	`).Scan(&metrics.Expired)
	if err != nil {
		log.Printf("Error querying expired: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch metrics")
		return
	}

	JSON(w, http.StatusOK, metrics)
}

// ── GetExpiryAlerts ────────────────────────────────────────────

// GetExpiryAlerts handles GET /api/dashboard/expiring
// Fetches all contacts with at least one tracked expiry and classifies
// each expiry in Go, returning everything at or below the warning band.
func (h *DashboardHandler) GetExpiryAlerts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	rows, err := pool.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM contacts c
		WHERE c.license_expiry_date IS NOT NULL
		   OR c.establishment_card_expiry IS NOT NULL
		   OR c.visa_expiry_date IS NOT NULL
		   OR c.passport_expiry IS NOT NULL
		   OR c.emirates_id_expiry IS NOT NULL
	`, contactCols))
	if err != nil {
		log.Printf("Error fetching expiry alerts: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch alerts")
		return
	}
	defer rows.Close()

	now := time.Now()
	alerts := []models.ExpiryAlert{}
	for rows.Next() {
		var c models.Contact
		if err := scanContact(rows, &c); err != nil {
			log.Printf("Error scanning contact: %v", err)
			continue
		}

		for _, s := range expiryStatuses(&c, now) {
			if s.DaysRemaining == nil {
				continue
			}
			if s.Band == taxperiod.BandHealthy || s.Band == taxperiod.BandUnknown {
				continue
			}
			alerts = append(alerts, models.ExpiryAlert{
				ContactID:   c.ID,
				ContactName: c.Name,
				Label:       s.Label,
				ExpiryDate:  *s.Date,
				DaysLeft:    *s.DaysRemaining,
				Band:        s.Band,
				Color:       s.Color,
			})
		}
	}

	sort.Slice(alerts, func(i, j int) bool {
		return alerts[i].DaysLeft < alerts[j].DaysLeft
	})

	JSON(w, http.StatusOK, map[string]interface{}{
		"data":  alerts,
		"total": len(alerts),
	})
}

// ── GetTaxDeadlines ────────────────────────────────────────────

// GetTaxDeadlines handles GET /api/dashboard/tax-deadlines
// Projects the next VAT and CT due date for every registered contact
// and returns those falling within the requested horizon (default 60
// days), soonest first.
func (h *DashboardHandler) GetTaxDeadlines(w http.ResponseWriter, r *http.Request) {
	horizon := 60
	if v := r.URL.Query().Get("days"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 && n <= 365 {
			horizon = n
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	rows, err := pool.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM contacts c
		WHERE COALESCE(c.vat_registered, FALSE) OR COALESCE(c.ct_registered, FALSE)
	`, contactCols))
	if err != nil {
		log.Printf("Error fetching tax deadlines: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch tax deadlines")
		return
	}
	defer rows.Close()

	now := time.Now()
	deadlines := []models.TaxDeadline{}
	for rows.Next() {
		var c models.Contact
		if err := scanContact(rows, &c); err != nil {
			log.Printf("Error scanning contact: %v", err)
			continue
		}

		if due := taxperiod.NextVATDue(vatConfigOf(&c), now); due != nil {
			d := due.Format("2006-01-02")
			if days := taxperiod.DaysUntil(d, now); days != nil && *days <= horizon {
				deadlines = append(deadlines, models.TaxDeadline{
					ContactID: c.ID, ContactName: c.Name,
					TaxType: "vat", DueDate: d, DueInDays: *days,
				})
			}
		}
		if due := taxperiod.NextCTDue(ctConfigOf(&c), now); due != nil {
			d := due.Format("2006-01-02")
			if days := taxperiod.DaysUntil(d, now); days != nil && *days <= horizon {
				deadlines = append(deadlines, models.TaxDeadline{
					ContactID: c.ID, ContactName: c.Name,
					TaxType: "ct", DueDate: d, DueInDays: *days,
				})
			}
		}
	}

	sort.Slice(deadlines, func(i, j int) bool {
		return deadlines[i].DueInDays < deadlines[j].DueInDays
	})

	JSON(w, http.StatusOK, map[string]interface{}{
		"data":  deadlines,
		"total": len(deadlines),
	})
}

// ── GetComplianceOverview ──────────────────────────────────────

// GetComplianceOverview handles GET /api/dashboard/compliance
// Returns the risk-band distribution across all tracked expiries, tax
// configuration coverage, and the contacts in the worst shape.
func (h *DashboardHandler) GetComplianceOverview(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	pool := h.db.GetPool()
	now := time.Now()

	overview := models.ComplianceOverview{
		ExpiriesByBand: make(map[string]int),
	}

	rows, err := pool.Query(ctx, fmt.Sprintf("SELECT %s FROM contacts c", contactCols))
	if err != nil {
		log.Printf("Error fetching compliance overview: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch compliance overview")
		return
	}
	defer rows.Close()

	worst := []models.ContactRisk{}
	for rows.Next() {
		var c models.Contact
		if err := scanContact(rows, &c); err != nil {
			continue
		}
		overview.TotalContacts++

		risk := models.ContactRisk{ContactID: c.ID, ContactName: c.Name}
		for _, s := range expiryStatuses(&c, now) {
			if s.Date == nil {
				continue
			}
			overview.TrackedExpiries++
			overview.ExpiriesByBand[s.Band]++
			switch s.Band {
			case taxperiod.BandExpired:
				risk.ExpiredCount++
			case taxperiod.BandCritical:
				risk.CriticalCount++
			}
		}
		if risk.ExpiredCount > 0 || risk.CriticalCount > 0 {
			worst = append(worst, risk)
		}

		if due := taxperiod.NextVATDue(vatConfigOf(&c), now); due != nil {
			overview.VatConfigured++
			if days := taxperiod.DaysUntil(due.Format("2006-01-02"), now); days != nil && *days <= 30 {
				overview.UpcomingTaxCount++
			}
		}
		if due := taxperiod.NextCTDue(ctConfigOf(&c), now); due != nil {
			overview.CtConfigured++
			if days := taxperiod.DaysUntil(due.Format("2006-01-02"), now); days != nil && *days <= 30 {
				overview.UpcomingTaxCount++
			}
		}
	}

	// Worst first: expired counts dominate, then critical
	sort.Slice(worst, func(i, j int) bool {
		if worst[i].ExpiredCount != worst[j].ExpiredCount {
			return worst[i].ExpiredCount > worst[j].ExpiredCount
		}
		return worst[i].CriticalCount > worst[j].CriticalCount
	})
	if len(worst) > 10 {
		worst = worst[:10]
	}
	overview.WorstContacts = worst

	JSON(w, http.StatusOK, overview)
}
