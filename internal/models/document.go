package models

import (
	"encoding/json"
	"time"
)

// ── Core Document ────────────────────────────────────────────────

// Document represents a stored document attached to a contact
// (trade license copy, passport scan, MOA, tenancy contract...).
type Document struct {
	ID             string          `json:"id"`
	ContactID      string          `json:"contactId"`
	DocumentType   string          `json:"documentType"`   // "trade_license", "passport", "visa", ...
	DocumentNumber *string         `json:"documentNumber"` // e.g. license number, passport number
	IssueDate      *string         `json:"issueDate"`
	ExpiryDate     *string         `json:"expiryDate"` // nullable — nil means no expiry tracked
	Metadata       json.RawMessage `json:"metadata"`   // type-specific fields (JSONB)
	FileURL        string          `json:"fileUrl"`
	FileName       string          `json:"fileName"`
	FileSize       int64           `json:"fileSize"`
	FileType       string          `json:"fileType"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// ── Document with Computed Risk Fields ───────────────────────────

// DocumentWithRisk extends Document with the expiry risk fields that are
// COMPUTED on every read — never stored in the database.
type DocumentWithRisk struct {
	Document

	DaysRemaining *int   `json:"daysRemaining,omitempty"` // days until expiry (negative = overdue)
	RiskBand      string `json:"riskBand"`                // "unknown" | "expired" | "critical" | "warning" | "healthy"
	RiskColor     string `json:"riskColor"`               // display color class for the band
}

// ── Create / Update Requests ─────────────────────────────────────

// CreateDocumentRequest holds the fields for creating a new document.
type CreateDocumentRequest struct {
	DocumentType   string          `json:"documentType"`
	DocumentNumber *string         `json:"documentNumber,omitempty"`
	IssueDate      *string         `json:"issueDate,omitempty"`
	ExpiryDate     *string         `json:"expiryDate,omitempty"`
	Metadata       json.RawMessage `json:"metadata,omitempty"`
	FileURL        string          `json:"fileUrl"`
	FileName       string          `json:"fileName"`
	FileSize       int64           `json:"fileSize"`
	FileType       string          `json:"fileType"`
}

// UpdateDocumentRequest holds the fields that can be partially updated.
type UpdateDocumentRequest struct {
	DocumentType   *string         `json:"documentType,omitempty"`
	DocumentNumber *string         `json:"documentNumber,omitempty"`
	IssueDate      *string         `json:"issueDate,omitempty"`
	ExpiryDate     *string         `json:"expiryDate,omitempty"`
	Metadata       json.RawMessage `json:"metadata,omitempty"`
	FileURL        *string         `json:"fileUrl,omitempty"`
	FileName       *string         `json:"fileName,omitempty"`
	FileSize       *int64          `json:"fileSize,omitempty"`
	FileType       *string         `json:"fileType,omitempty"`
}

// RenewDocumentRequest records a renewal: the new expiry (and optionally
// a new issue date and replacement file).
type RenewDocumentRequest struct {
	ExpiryDate string  `json:"expiryDate"`
	IssueDate  *string `json:"issueDate,omitempty"`
	FileURL    *string `json:"fileUrl,omitempty"`
	FileName   *string `json:"fileName,omitempty"`
	FileSize   *int64  `json:"fileSize,omitempty"`
	FileType   *string `json:"fileType,omitempty"`
}

// Validate checks if the create request contains valid data.
func (r *CreateDocumentRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if len(r.DocumentType) < 2 {
		errors["documentType"] = "Document type is required (min 2 characters)"
	}

	return errors
}

// Validate checks the renewal request.
func (r *RenewDocumentRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.ExpiryDate == "" {
		errors["expiryDate"] = "New expiry date is required"
	}

	return errors
}
