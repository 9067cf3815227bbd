package models

import "time"

// Contact types and statuses.
const (
	ContactTypeCompany    = "company"
	ContactTypeIndividual = "individual"

	ContactStatusActive       = "active"
	ContactStatusExpired      = "expired"
	ContactStatusUnderRenewal = "under_renewal"
	ContactStatusCancelled    = "cancelled"
)

// Contact represents a client record — either a company holding a trade
// license or an individual (shareholder, manager, dependant).
type Contact struct {
	ID           string  `json:"id"`
	ContactType  string  `json:"contactType"` // "company" | "individual"
	Name         string  `json:"name"`
	Email        *string `json:"email,omitempty"`
	PhonePrimary *string `json:"phonePrimary,omitempty"`
	PhoneMobile  *string `json:"phoneMobile,omitempty"`
	Status       string  `json:"status"` // active, expired, under_renewal, cancelled
	Country      *string `json:"country,omitempty"`
	Notes        *string `json:"notes,omitempty"`

	// Company-only
	TradeLicenseNo          *string `json:"tradeLicenseNo,omitempty"`
	Jurisdiction            *string `json:"jurisdiction,omitempty"` // "DED", "JAFZA", "DMCC", etc.
	LegalForm               *string `json:"legalForm,omitempty"`
	LicenseIssueDate        *string `json:"licenseIssueDate,omitempty"`
	LicenseExpiryDate       *string `json:"licenseExpiryDate,omitempty"`
	EstablishmentCardExpiry *string `json:"establishmentCardExpiry,omitempty"`
	TaxRegistrationNo       *string `json:"taxRegistrationNo,omitempty"`

	// Individual-only
	PassportNo       *string `json:"passportNo,omitempty"`
	PassportExpiry   *string `json:"passportExpiry,omitempty"`
	EmiratesID       *string `json:"emiratesId,omitempty"`
	EmiratesIDExpiry *string `json:"emiratesIdExpiry,omitempty"`
	VisaType         *string `json:"visaType,omitempty"`
	VisaExpiryDate   *string `json:"visaExpiryDate,omitempty"`
	Nationality      *string `json:"nationality,omitempty"`
	DateOfBirth      *string `json:"dateOfBirth,omitempty"`

	// VAT filing configuration (company-only in practice)
	VatRegistered         bool    `json:"vatRegistered"`
	VatPeriodType         *string `json:"vatPeriodType,omitempty"` // "monthly" | "quarterly"
	VatFirstPeriodEndDate *string `json:"vatFirstPeriodEndDate,omitempty"`
	VatReturnDueDays      *int    `json:"vatReturnDueDays,omitempty"`
	VatNotes              *string `json:"vatNotes,omitempty"`

	// Corporate Tax filing configuration
	CtRegistered              bool    `json:"ctRegistered"`
	CtRegistrationNo          *string `json:"ctRegistrationNo,omitempty"`
	CtFinancialYearStartMonth *int    `json:"ctFinancialYearStartMonth,omitempty"`
	CtFilingDueMonths         *int    `json:"ctFilingDueMonths,omitempty"`
	CtNotes                   *string `json:"ctNotes,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ContactWithRisk extends Contact with the compliance fields computed on
// every read — the nearest expiry across all tracked dates and its band.
type ContactWithRisk struct {
	Contact
	NearestExpiryDays  *int    `json:"nearestExpiryDays,omitempty"`
	NearestExpiryLabel *string `json:"nearestExpiryLabel,omitempty"`
	RiskBand           string  `json:"riskBand"` // "unknown" | "expired" | "critical" | "warning" | "healthy"
	RiskColor          string  `json:"riskColor"`
}

// CreateContactRequest holds the fields needed to create a contact.
type CreateContactRequest struct {
	ContactType  string  `json:"contactType"`
	Name         string  `json:"name"`
	Email        *string `json:"email,omitempty"`
	PhonePrimary *string `json:"phonePrimary,omitempty"`
	PhoneMobile  *string `json:"phoneMobile,omitempty"`
	Status       string  `json:"status,omitempty"`
	Country      *string `json:"country,omitempty"`
	Notes        *string `json:"notes,omitempty"`

	TradeLicenseNo          *string `json:"tradeLicenseNo,omitempty"`
	Jurisdiction            *string `json:"jurisdiction,omitempty"`
	LegalForm               *string `json:"legalForm,omitempty"`
	LicenseIssueDate        *string `json:"licenseIssueDate,omitempty"`
	LicenseExpiryDate       *string `json:"licenseExpiryDate,omitempty"`
	EstablishmentCardExpiry *string `json:"establishmentCardExpiry,omitempty"`
	TaxRegistrationNo       *string `json:"taxRegistrationNo,omitempty"`

	PassportNo       *string `json:"passportNo,omitempty"`
	PassportExpiry   *string `json:"passportExpiry,omitempty"`
	EmiratesID       *string `json:"emiratesId,omitempty"`
	EmiratesIDExpiry *string `json:"emiratesIdExpiry,omitempty"`
	VisaType         *string `json:"visaType,omitempty"`
	VisaExpiryDate   *string `json:"visaExpiryDate,omitempty"`
	Nationality      *string `json:"nationality,omitempty"`
	DateOfBirth      *string `json:"dateOfBirth,omitempty"`
}

// UpdateContactRequest holds the fields that can be partially updated.
type UpdateContactRequest struct {
	Name         *string `json:"name,omitempty"`
	Email        *string `json:"email,omitempty"`
	PhonePrimary *string `json:"phonePrimary,omitempty"`
	PhoneMobile  *string `json:"phoneMobile,omitempty"`
	Status       *string `json:"status,omitempty"`
	Country      *string `json:"country,omitempty"`
	Notes        *string `json:"notes,omitempty"`

	TradeLicenseNo          *string `json:"tradeLicenseNo,omitempty"`
	Jurisdiction            *string `json:"jurisdiction,omitempty"`
	LegalForm               *string `json:"legalForm,omitempty"`
	LicenseIssueDate        *string `json:"licenseIssueDate,omitempty"`
	LicenseExpiryDate       *string `json:"licenseExpiryDate,omitempty"`
	EstablishmentCardExpiry *string `json:"establishmentCardExpiry,omitempty"`
	TaxRegistrationNo       *string `json:"taxRegistrationNo,omitempty"`

	PassportNo       *string `json:"passportNo,omitempty"`
	PassportExpiry   *string `json:"passportExpiry,omitempty"`
	EmiratesID       *string `json:"emiratesId,omitempty"`
	EmiratesIDExpiry *string `json:"emiratesIdExpiry,omitempty"`
	VisaType         *string `json:"visaType,omitempty"`
	VisaExpiryDate   *string `json:"visaExpiryDate,omitempty"`
	Nationality      *string `json:"nationality,omitempty"`
	DateOfBirth      *string `json:"dateOfBirth,omitempty"`
}

// UpdateTaxProfileRequest updates the VAT/CT configuration block of a
// contact. All fields optional; nil leaves the stored value untouched.
type UpdateTaxProfileRequest struct {
	VatRegistered         *bool   `json:"vatRegistered,omitempty"`
	VatPeriodType         *string `json:"vatPeriodType,omitempty"`
	VatFirstPeriodEndDate *string `json:"vatFirstPeriodEndDate,omitempty"`
	VatReturnDueDays      *int    `json:"vatReturnDueDays,omitempty"`
	VatNotes              *string `json:"vatNotes,omitempty"`

	CtRegistered              *bool   `json:"ctRegistered,omitempty"`
	CtRegistrationNo          *string `json:"ctRegistrationNo,omitempty"`
	CtFinancialYearStartMonth *int    `json:"ctFinancialYearStartMonth,omitempty"`
	CtFilingDueMonths         *int    `json:"ctFilingDueMonths,omitempty"`
	CtNotes                   *string `json:"ctNotes,omitempty"`
}

// TaxSummary is the computed tax/compliance projection for one contact.
// Every field is derived at request time — nothing here is stored.
type TaxSummary struct {
	ContactID   string `json:"contactId"`
	ContactName string `json:"contactName"`
	AsOf        string `json:"asOf"` // date the projection was computed for

	VatRegistered bool    `json:"vatRegistered"`
	NextVatDue    *string `json:"nextVatDue"`   // YYYY-MM-DD, nil when not configured
	VatDueInDays  *int    `json:"vatDueInDays"` // days until the VAT due date

	CtRegistered bool    `json:"ctRegistered"`
	NextCtDue    *string `json:"nextCtDue"`
	CtDueInDays  *int    `json:"ctDueInDays"`

	Expiries []ExpiryStatus `json:"expiries"`
}

// ExpiryStatus is the risk classification of a single tracked expiry
// date (license, visa, passport, Emirates ID, establishment card).
type ExpiryStatus struct {
	Label         string  `json:"label"`
	Date          *string `json:"date"` // nil when not on record
	DaysRemaining *int    `json:"daysRemaining,omitempty"`
	Band          string  `json:"band"`
	Color         string  `json:"color"`
}

// Validate checks if the create request contains valid data.
func (r *CreateContactRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if len(r.Name) < 2 || len(r.Name) > 255 {
		errors["name"] = "Name must be between 2 and 255 characters"
	}
	if r.ContactType != ContactTypeCompany && r.ContactType != ContactTypeIndividual {
		errors["contactType"] = "Contact type must be 'company' or 'individual'"
	}
	if r.Status != "" && !validContactStatus(r.Status) {
		errors["status"] = "Status must be 'active', 'expired', 'under_renewal', or 'cancelled'"
	}

	return errors
}

// Validate checks the provided fields of an update request.
func (r *UpdateContactRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Name != nil && (len(*r.Name) < 2 || len(*r.Name) > 255) {
		errors["name"] = "Name must be between 2 and 255 characters"
	}
	if r.Status != nil && *r.Status != "" && !validContactStatus(*r.Status) {
		errors["status"] = "Status must be 'active', 'expired', 'under_renewal', or 'cancelled'"
	}

	return errors
}

// Validate checks the tax profile update for out-of-range values.
func (r *UpdateTaxProfileRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.VatPeriodType != nil && *r.VatPeriodType != "monthly" && *r.VatPeriodType != "quarterly" {
		errors["vatPeriodType"] = "VAT period type must be 'monthly' or 'quarterly'"
	}
	if r.VatReturnDueDays != nil && (*r.VatReturnDueDays < 0 || *r.VatReturnDueDays > 365) {
		errors["vatReturnDueDays"] = "VAT return due days must be between 0 and 365"
	}
	if r.CtFinancialYearStartMonth != nil && (*r.CtFinancialYearStartMonth < 1 || *r.CtFinancialYearStartMonth > 12) {
		errors["ctFinancialYearStartMonth"] = "Financial year start month must be between 1 and 12"
	}
	if r.CtFilingDueMonths != nil && (*r.CtFilingDueMonths < 0 || *r.CtFilingDueMonths > 24) {
		errors["ctFilingDueMonths"] = "CT filing due months must be between 0 and 24"
	}

	return errors
}

func validContactStatus(s string) bool {
	switch s {
	case ContactStatusActive, ContactStatusExpired, ContactStatusUnderRenewal, ContactStatusCancelled:
		return true
	}
	return false
}
