package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"corpdesk-backend/internal/ctxkeys"
	"corpdesk-backend/internal/database"
	"corpdesk-backend/internal/models"
	"corpdesk-backend/internal/taxperiod"
)

// ContactHandler handles contact-related HTTP requests.
type ContactHandler struct {
	db database.Service
}

// NewContactHandler creates a new ContactHandler.
func NewContactHandler(db database.Service) *ContactHandler {
	return &ContactHandler{db: db}
}

// ── Columns ────────────────────────────────────────────────────
// Central column lists keep Create/GetByID/List all in sync.
// Aliased version (for SELECT with FROM clause):
const contactCols = `c.id, c.contact_type, c.name, c.email,
	c.phone_primary, c.phone_mobile, c.status, c.country, c.notes,
	c.trade_license_no, c.jurisdiction, c.legal_form,
	c.license_issue_date::text, c.license_expiry_date::text,
	c.establishment_card_expiry::text, c.tax_registration_no,
	c.passport_no, c.passport_expiry::text, c.emirates_id,
	c.emirates_id_expiry::text, c.visa_type, c.visa_expiry_date::text,
	c.nationality, c.date_of_birth::text,
	COALESCE(c.vat_registered, FALSE), c.vat_period_type,
	c.vat_first_period_end_date::text, c.vat_return_due_days, c.vat_notes,
	COALESCE(c.ct_registered, FALSE), c.ct_registration_no,
	c.ct_financial_year_start_month, c.ct_filing_due_months, c.ct_notes,
	c.created_at, c.updated_at`

// Unaliased version (for INSERT/UPDATE RETURNING):
const contactRetCols = `id, contact_type, name, email,
	phone_primary, phone_mobile, status, country, notes,
	trade_license_no, jurisdiction, legal_form,
	license_issue_date::text, license_expiry_date::text,
	establishment_card_expiry::text, tax_registration_no,
	passport_no, passport_expiry::text, emirates_id,
	emirates_id_expiry::text, visa_type, visa_expiry_date::text,
	nationality, date_of_birth::text,
	COALESCE(vat_registered, FALSE), vat_period_type,
	vat_first_period_end_date::text, vat_return_due_days, vat_notes,
	COALESCE(ct_registered, FALSE), ct_registration_no,
	ct_financial_year_start_month, ct_filing_due_months, ct_notes,
	created_at, updated_at`

// ── Scan Helpers ───────────────────────────────────────────────

func scanContact(scanner interface {
	Scan(dest ...interface{}) error
}, c *models.Contact) error {
	return scanner.Scan(
		&c.ID, &c.ContactType, &c.Name, &c.Email,
		&c.PhonePrimary, &c.PhoneMobile, &c.Status, &c.Country, &c.Notes,
		&c.TradeLicenseNo, &c.Jurisdiction, &c.LegalForm,
		&c.LicenseIssueDate, &c.LicenseExpiryDate,
		&c.EstablishmentCardExpiry, &c.TaxRegistrationNo,
		&c.PassportNo, &c.PassportExpiry, &c.EmiratesID,
		&c.EmiratesIDExpiry, &c.VisaType, &c.VisaExpiryDate,
		&c.Nationality, &c.DateOfBirth,
		&c.VatRegistered, &c.VatPeriodType,
		&c.VatFirstPeriodEndDate, &c.VatReturnDueDays, &c.VatNotes,
		&c.CtRegistered, &c.CtRegistrationNo,
		&c.CtFinancialYearStartMonth, &c.CtFilingDueMonths, &c.CtNotes,
		&c.CreatedAt, &c.UpdatedAt,
	)
}

// ── Expiry Tracking ────────────────────────────────────────────

// trackedExpiry pairs a display label with an accessor for one of a
// contact's expiry dates. Which fields carry data depends on the
// contact type (company vs individual); absent dates classify as
// "unknown" and are skipped in nearest-expiry rollups.
type trackedExpiry struct {
	label string
	date  func(*models.Contact) *string
}

var trackedExpiries = []trackedExpiry{
	{"Trade License", func(c *models.Contact) *string { return c.LicenseExpiryDate }},
	{"Establishment Card", func(c *models.Contact) *string { return c.EstablishmentCardExpiry }},
	{"Visa", func(c *models.Contact) *string { return c.VisaExpiryDate }},
	{"Passport", func(c *models.Contact) *string { return c.PassportExpiry }},
	{"Emirates ID", func(c *models.Contact) *string { return c.EmiratesIDExpiry }},
}

// expiryStatuses classifies every tracked expiry of a contact.
func expiryStatuses(c *models.Contact, now time.Time) []models.ExpiryStatus {
	statuses := make([]models.ExpiryStatus, 0, len(trackedExpiries))
	for _, te := range trackedExpiries {
		s := models.ExpiryStatus{Label: te.label}
		if d := te.date(c); d != nil {
			dateOnly := taxperiod.ToDateOnly(*d)
			s.Date = &dateOnly
			s.DaysRemaining = taxperiod.DaysUntil(dateOnly, now)
		}
		s.Band = taxperiod.ClassifyExpiry(s.DaysRemaining)
		s.Color = taxperiod.BandColor(s.Band)
		statuses = append(statuses, s)
	}
	return statuses
}

// riskBandLateral mirrors the taxperiod cutoffs in SQL so the risk
// filter applies before pagination and the count stays accurate.
// MIN over the unnested dates skips NULLs, matching the nearest-expiry
// rollup in enrichWithRisk.
const riskBandLateral = `
	LEFT JOIN LATERAL (
		SELECT CASE
			WHEN MIN(exp.d) IS NULL THEN 'unknown'
			WHEN MIN(exp.d) < CURRENT_DATE THEN 'expired'
			WHEN MIN(exp.d) <= CURRENT_DATE + INTERVAL '30 days' THEN 'critical'
			WHEN MIN(exp.d) <= CURRENT_DATE + INTERVAL '90 days' THEN 'warning'
			ELSE 'healthy'
		END AS risk_band
		FROM unnest(ARRAY[
			c.license_expiry_date, c.establishment_card_expiry,
			c.visa_expiry_date, c.passport_expiry, c.emirates_id_expiry
		]) AS exp(d)
	) rb ON TRUE`

// riskBandClause maps a ?risk= value to its WHERE fragment. Unknown
// values are rejected rather than silently ignored.
func riskBandClause(band string) (string, bool) {
	switch band {
	case "":
		return "", true
	case taxperiod.BandUnknown, taxperiod.BandExpired, taxperiod.BandCritical,
		taxperiod.BandWarning, taxperiod.BandHealthy:
		return fmt.Sprintf(" AND rb.risk_band = '%s'", band), true
	}
	return "", false
}

// enrichWithRisk rolls the tracked expiries up to the contact's nearest
// expiry and its band. Contacts with no dates on record are "unknown".
func enrichWithRisk(c *models.Contact, now time.Time) models.ContactWithRisk {
	cwr := models.ContactWithRisk{Contact: *c}

	for _, s := range expiryStatuses(c, now) {
		if s.DaysRemaining == nil {
			continue
		}
		if cwr.NearestExpiryDays == nil || *s.DaysRemaining < *cwr.NearestExpiryDays {
			days := *s.DaysRemaining
			label := s.Label
			cwr.NearestExpiryDays = &days
			cwr.NearestExpiryLabel = &label
		}
	}

	cwr.RiskBand = taxperiod.ClassifyExpiry(cwr.NearestExpiryDays)
	cwr.RiskColor = taxperiod.BandColor(cwr.RiskBand)
	return cwr
}

// vatConfigOf builds the projector input from a contact's stored fields.
func vatConfigOf(c *models.Contact) taxperiod.VATConfig {
	cfg := taxperiod.VATConfig{
		Registered:    c.VatRegistered,
		ReturnDueDays: c.VatReturnDueDays,
	}
	if c.VatPeriodType != nil {
		cfg.PeriodType = *c.VatPeriodType
	}
	if c.VatFirstPeriodEndDate != nil {
		if t, err := time.Parse("2006-01-02", taxperiod.ToDateOnly(*c.VatFirstPeriodEndDate)); err == nil {
			cfg.FirstPeriodEnd = &t
		}
	}
	return cfg
}

func ctConfigOf(c *models.Contact) taxperiod.CTConfig {
	return taxperiod.CTConfig{
		Registered:              c.CtRegistered,
		FinancialYearStartMonth: c.CtFinancialYearStartMonth,
		FilingDueMonths:         c.CtFilingDueMonths,
	}
}

// buildTaxSummary computes the full tax/compliance projection for a
// contact at the given moment.
func buildTaxSummary(c *models.Contact, now time.Time) models.TaxSummary {
	summary := models.TaxSummary{
		ContactID:     c.ID,
		ContactName:   c.Name,
		AsOf:          now.Format("2006-01-02"),
		VatRegistered: c.VatRegistered,
		CtRegistered:  c.CtRegistered,
		Expiries:      expiryStatuses(c, now),
	}

	if due := taxperiod.NextVATDue(vatConfigOf(c), now); due != nil {
		d := due.Format("2006-01-02")
		summary.NextVatDue = &d
		summary.VatDueInDays = taxperiod.DaysUntil(d, now)
	}
	if due := taxperiod.NextCTDue(ctConfigOf(c), now); due != nil {
		d := due.Format("2006-01-02")
		summary.NextCtDue = &d
		summary.CtDueInDays = taxperiod.DaysUntil(d, now)
	}

	return summary
}

// ── List ───────────────────────────────────────────────────────

// List handles GET /api/contacts
// Supports pagination plus type/status/search/jurisdiction/risk filters.
func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := (page - 1) * limit

	contactType := q.Get("type")
	status := q.Get("status")
	search := q.Get("search")
	jurisdiction := q.Get("jurisdiction")
	sortBy := q.Get("sort_by")
	sortOrder := q.Get("sort_order")

	// Whitelist allowed sort columns
	allowedSorts := map[string]string{
		"name":                "c.name",
		"created_at":          "c.created_at",
		"license_expiry_date": "c.license_expiry_date",
	}
	sortCol, ok := allowedSorts[sortBy]
	if !ok {
		sortCol = "c.name"
	}
	if sortOrder != "desc" {
		sortOrder = "asc"
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	// Build dynamic WHERE clause
	where := "WHERE 1=1"
	args := []interface{}{}
	argIdx := 1

	// Client scope (role-based)
	where, args, argIdx = appendClientScope(ctx, where, args, argIdx, "c.id")

	if contactType != "" {
		where += fmt.Sprintf(" AND c.contact_type = $%d", argIdx)
		args = append(args, contactType)
		argIdx++
	}
	if status != "" {
		where += fmt.Sprintf(" AND c.status = $%d", argIdx)
		args = append(args, status)
		argIdx++
	}
	if search != "" {
		where += fmt.Sprintf(" AND (c.name ILIKE $%d OR c.trade_license_no ILIKE $%d OR c.email ILIKE $%d)", argIdx, argIdx, argIdx)
		args = append(args, "%"+search+"%")
		argIdx++
	}
	if jurisdiction != "" {
		where += fmt.Sprintf(" AND c.jurisdiction = $%d", argIdx)
		args = append(args, jurisdiction)
		argIdx++
	}

	riskClause, ok := riskBandClause(q.Get("risk"))
	if !ok {
		JSONError(w, http.StatusBadRequest, "Invalid risk band")
		return
	}
	where += riskClause

	var total int
	countQuery := "SELECT COUNT(*) FROM contacts c" + riskBandLateral + " " + where
	if err := pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		log.Printf("Error counting contacts: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch contacts")
		return
	}

	query := fmt.Sprintf(`
		SELECT %s FROM contacts c
		%s
		%s
		ORDER BY %s %s
		LIMIT $%d OFFSET $%d
	`, contactCols, riskBandLateral, where, sortCol, sortOrder, argIdx, argIdx+1)
	args = append(args, limit, offset)

	rows, err := pool.Query(ctx, query, args...)
	if err != nil {
		log.Printf("Error querying contacts: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch contacts")
		return
	}
	defer rows.Close()

	// Risk bands are computed here, per row, from today's date — the
	// database stores only the raw expiry dates.
	now := time.Now()
	contacts := []models.ContactWithRisk{}
	for rows.Next() {
		var c models.Contact
		if err := scanContact(rows, &c); err != nil {
			log.Printf("Error scanning contact: %v", err)
			continue
		}
		contacts = append(contacts, enrichWithRisk(&c, now))
	}

	JSON(w, http.StatusOK, PaginatedResponse{
		Data: contacts,
		Pagination: PaginationMeta{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: int(math.Ceil(float64(total) / float64(limit))),
		},
	})
}

// ── GetByID ────────────────────────────────────────────────────

// GetByID handles GET /api/contacts/{id}
func (h *ContactHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		JSONError(w, http.StatusBadRequest, "Contact ID is required")
		return
	}

	if !checkContactAccess(r.Context(), id) {
		JSONError(w, http.StatusForbidden, "Access denied to this contact")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	var c models.Contact
	err := scanContact(pool.QueryRow(ctx,
		fmt.Sprintf("SELECT %s FROM contacts c WHERE c.id = $1", contactCols), id), &c)
	if err != nil {
		JSONError(w, http.StatusNotFound, "Contact not found")
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"data": enrichWithRisk(&c, time.Now()),
	})
}

// ── TaxSummary ─────────────────────────────────────────────────

// TaxSummary handles GET /api/contacts/{id}/tax-summary
// Returns the computed next VAT/CT due dates and the risk band of every
// tracked expiry. Nothing in the response is stored; it is recomputed
// from the contact record on every call.
func (h *ContactHandler) TaxSummary(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		JSONError(w, http.StatusBadRequest, "Contact ID is required")
		return
	}

	if !checkContactAccess(r.Context(), id) {
		JSONError(w, http.StatusForbidden, "Access denied to this contact")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	var c models.Contact
	err := scanContact(pool.QueryRow(ctx,
		fmt.Sprintf("SELECT %s FROM contacts c WHERE c.id = $1", contactCols), id), &c)
	if err != nil {
		JSONError(w, http.StatusNotFound, "Contact not found")
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"data": buildTaxSummary(&c, time.Now()),
	})
}

// ── Create ─────────────────────────────────────────────────────

// Create handles POST /api/contacts
func (h *ContactHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		JSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":   "Validation failed",
			"details": errs,
		})
		return
	}

	if req.Status == "" {
		req.Status = models.ContactStatusActive
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	var c models.Contact
	err := scanContact(pool.QueryRow(ctx, `
		INSERT INTO contacts (
			contact_type, name, email, phone_primary, phone_mobile,
			status, country, notes,
			trade_license_no, jurisdiction, legal_form,
			license_issue_date, license_expiry_date,
			establishment_card_expiry, tax_registration_no,
			passport_no, passport_expiry, emirates_id, emirates_id_expiry,
			visa_type, visa_expiry_date, nationality, date_of_birth
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23)
		RETURNING `+contactRetCols,
		req.ContactType, req.Name, req.Email, req.PhonePrimary, req.PhoneMobile,
		req.Status, req.Country, req.Notes,
		req.TradeLicenseNo, req.Jurisdiction, req.LegalForm,
		req.LicenseIssueDate, req.LicenseExpiryDate,
		req.EstablishmentCardExpiry, req.TaxRegistrationNo,
		req.PassportNo, req.PassportExpiry, req.EmiratesID, req.EmiratesIDExpiry,
		req.VisaType, req.VisaExpiryDate, req.Nationality, req.DateOfBirth,
	), &c)
	if err != nil {
		if isDuplicateKeyError(err) {
			JSONError(w, http.StatusConflict, "A contact with this trade license already exists")
			return
		}
		log.Printf("Error creating contact: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to create contact")
		return
	}

	// Audit trail
	userID, _ := r.Context().Value(ctxkeys.UserID).(string)
	logActivity(pool, userID, "created", "contact", c.ID, map[string]interface{}{
		"name": c.Name, "type": c.ContactType,
	})

	JSON(w, http.StatusCreated, map[string]interface{}{
		"data":    enrichWithRisk(&c, time.Now()),
		"message": "Contact created successfully",
	})
}

// ── Update ─────────────────────────────────────────────────────

// Update handles PUT /api/contacts/{id}
func (h *ContactHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		JSONError(w, http.StatusBadRequest, "Contact ID is required")
		return
	}

	if !checkContactAccess(r.Context(), id) {
		JSONError(w, http.StatusForbidden, "Access denied to this contact")
		return
	}

	var req models.UpdateContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		JSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":   "Validation failed",
			"details": errs,
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	// Build dynamic SET clause — only update provided fields
	setClauses := []string{}
	args := []interface{}{}
	argIdx := 1

	addField := func(col string, val interface{}) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", col, argIdx))
		args = append(args, val)
		argIdx++
	}

	if req.Name != nil {
		addField("name", *req.Name)
	}
	if req.Email != nil {
		addField("email", *req.Email)
	}
	if req.PhonePrimary != nil {
		addField("phone_primary", *req.PhonePrimary)
	}
	if req.PhoneMobile != nil {
		addField("phone_mobile", *req.PhoneMobile)
	}
	if req.Status != nil {
		addField("status", *req.Status)
	}
	if req.Country != nil {
		addField("country", *req.Country)
	}
	if req.Notes != nil {
		addField("notes", *req.Notes)
	}
	if req.TradeLicenseNo != nil {
		addField("trade_license_no", *req.TradeLicenseNo)
	}
	if req.Jurisdiction != nil {
		addField("jurisdiction", *req.Jurisdiction)
	}
	if req.LegalForm != nil {
		addField("legal_form", *req.LegalForm)
	}
	if req.LicenseIssueDate != nil {
		addField("license_issue_date", nilIfEmptyStr(*req.LicenseIssueDate))
	}
	if req.LicenseExpiryDate != nil {
		addField("license_expiry_date", nilIfEmptyStr(*req.LicenseExpiryDate))
	}
	if req.EstablishmentCardExpiry != nil {
		addField("establishment_card_expiry", nilIfEmptyStr(*req.EstablishmentCardExpiry))
	}
	if req.TaxRegistrationNo != nil {
		addField("tax_registration_no", *req.TaxRegistrationNo)
	}
	if req.PassportNo != nil {
		addField("passport_no", *req.PassportNo)
	}
	if req.PassportExpiry != nil {
		addField("passport_expiry", nilIfEmptyStr(*req.PassportExpiry))
	}
	if req.EmiratesID != nil {
		addField("emirates_id", *req.EmiratesID)
	}
	if req.EmiratesIDExpiry != nil {
		addField("emirates_id_expiry", nilIfEmptyStr(*req.EmiratesIDExpiry))
	}
	if req.VisaType != nil {
		addField("visa_type", *req.VisaType)
	}
	if req.VisaExpiryDate != nil {
		addField("visa_expiry_date", nilIfEmptyStr(*req.VisaExpiryDate))
	}
	if req.Nationality != nil {
		addField("nationality", *req.Nationality)
	}
	if req.DateOfBirth != nil {
		addField("date_of_birth", nilIfEmptyStr(*req.DateOfBirth))
	}

	if len(setClauses) == 0 {
		JSONError(w, http.StatusBadRequest, "No fields to update")
		return
	}

	// Always update updated_at
	setClauses = append(setClauses, "updated_at = NOW()")

	query := fmt.Sprintf(`
		UPDATE contacts SET %s
		WHERE id = $%d
		RETURNING %s
	`, strings.Join(setClauses, ", "), argIdx, contactRetCols)
	args = append(args, id)

	var c models.Contact
	if err := scanContact(pool.QueryRow(ctx, query, args...), &c); err != nil {
		log.Printf("Error updating contact %s: %v", id, err)
		JSONError(w, http.StatusNotFound, "Contact not found")
		return
	}

	// Audit trail
	userID, _ := r.Context().Value(ctxkeys.UserID).(string)
	logActivity(pool, userID, "updated", "contact", c.ID, map[string]interface{}{
		"name": c.Name,
	})

	JSON(w, http.StatusOK, map[string]interface{}{
		"data":    enrichWithRisk(&c, time.Now()),
		"message": "Contact updated successfully",
	})
}

// ── UpdateTaxProfile ───────────────────────────────────────────

// UpdateTaxProfile handles PATCH /api/contacts/{id}/tax
// Updates the VAT/CT configuration block and returns the recomputed
// tax summary so the caller sees the new projected due dates at once.
func (h *ContactHandler) UpdateTaxProfile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		JSONError(w, http.StatusBadRequest, "Contact ID is required")
		return
	}

	if !checkContactAccess(r.Context(), id) {
		JSONError(w, http.StatusForbidden, "Access denied to this contact")
		return
	}

	var req models.UpdateTaxProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		JSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":   "Validation failed",
			"details": errs,
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	setClauses := []string{}
	args := []interface{}{}
	argIdx := 1

	addField := func(col string, val interface{}) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", col, argIdx))
		args = append(args, val)
		argIdx++
	}

	if req.VatRegistered != nil {
		addField("vat_registered", *req.VatRegistered)
	}
	if req.VatPeriodType != nil {
		addField("vat_period_type", *req.VatPeriodType)
	}
	if req.VatFirstPeriodEndDate != nil {
		addField("vat_first_period_end_date", nilIfEmptyStr(*req.VatFirstPeriodEndDate))
	}
	if req.VatReturnDueDays != nil {
		addField("vat_return_due_days", *req.VatReturnDueDays)
	}
	if req.VatNotes != nil {
		addField("vat_notes", *req.VatNotes)
	}
	if req.CtRegistered != nil {
		addField("ct_registered", *req.CtRegistered)
	}
	if req.CtRegistrationNo != nil {
		addField("ct_registration_no", *req.CtRegistrationNo)
	}
	if req.CtFinancialYearStartMonth != nil {
		addField("ct_financial_year_start_month", *req.CtFinancialYearStartMonth)
	}
	if req.CtFilingDueMonths != nil {
		addField("ct_filing_due_months", *req.CtFilingDueMonths)
	}
	if req.CtNotes != nil {
		addField("ct_notes", *req.CtNotes)
	}

	if len(setClauses) == 0 {
		JSONError(w, http.StatusBadRequest, "No fields to update")
		return
	}

	setClauses = append(setClauses, "updated_at = NOW()")

	query := fmt.Sprintf(`
		UPDATE contacts SET %s
		WHERE id = $%d
		RETURNING %s
	`, strings.Join(setClauses, ", "), argIdx, contactRetCols)
	args = append(args, id)

	var c models.Contact
	if err := scanContact(pool.QueryRow(ctx, query, args...), &c); err != nil {
		log.Printf("Error updating tax profile %s: %v", id, err)
		JSONError(w, http.StatusNotFound, "Contact not found")
		return
	}

	userID, _ := r.Context().Value(ctxkeys.UserID).(string)
	logActivity(pool, userID, "updated", "tax_profile", c.ID, map[string]interface{}{
		"name": c.Name,
	})

	JSON(w, http.StatusOK, map[string]interface{}{
		"data":    buildTaxSummary(&c, time.Now()),
		"message": "Tax profile updated successfully",
	})
}

// ── Delete ─────────────────────────────────────────────────────

// Delete handles DELETE /api/contacts/{id}
// Cascades to the contact's documents.
func (h *ContactHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		JSONError(w, http.StatusBadRequest, "Contact ID is required")
		return
	}

	if !checkContactAccess(r.Context(), id) {
		JSONError(w, http.StatusForbidden, "Access denied to this contact")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	result, err := pool.Exec(ctx, "DELETE FROM contacts WHERE id = $1", id)
	if err != nil {
		log.Printf("Error deleting contact: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to delete contact")
		return
	}

	if result.RowsAffected() == 0 {
		JSONError(w, http.StatusNotFound, "Contact not found")
		return
	}

	userID, _ := r.Context().Value(ctxkeys.UserID).(string)
	logActivity(pool, userID, "deleted", "contact", id, nil)

	JSON(w, http.StatusOK, map[string]interface{}{
		"message": "Contact deleted successfully",
	})
}

// ── BatchDelete ────────────────────────────────────────────────

// BatchDelete handles POST /api/contacts/batch-delete
func (h *ContactHandler) BatchDelete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs []string `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if len(req.IDs) == 0 {
		JSONError(w, http.StatusUnprocessableEntity, "At least one contact ID is required")
		return
	}

	for _, id := range req.IDs {
		if !checkContactAccess(r.Context(), id) {
			JSONError(w, http.StatusForbidden, "Access denied to one or more contacts")
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	result, err := pool.Exec(ctx, "DELETE FROM contacts WHERE id = ANY($1::uuid[])", req.IDs)
	if err != nil {
		log.Printf("Error batch deleting contacts: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to delete contacts")
		return
	}

	userID, _ := r.Context().Value(ctxkeys.UserID).(string)
	for _, id := range req.IDs {
		logActivity(pool, userID, "deleted", "contact", id, nil)
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"message": fmt.Sprintf("%d contacts deleted", result.RowsAffected()),
	})
}
