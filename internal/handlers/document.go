package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"corpdesk-backend/internal/ctxkeys"
	"corpdesk-backend/internal/database"
	"corpdesk-backend/internal/models"
	"corpdesk-backend/internal/taxperiod"
)

// DocumentHandler handles document-related HTTP requests.
type DocumentHandler struct {
	db database.Service
}

// NewDocumentHandler creates a new DocumentHandler.
func NewDocumentHandler(db database.Service) *DocumentHandler {
	return &DocumentHandler{db: db}
}

// ── Column lists & scan helpers ──────────────────────────────────
// Two variants: aliased (for SELECT with FROM) and unaliased (for RETURNING).

const docCols = `d.id, d.contact_id, d.document_type,
	d.document_number, COALESCE(d.issue_date::text, ''), COALESCE(d.expiry_date::text, ''),
	COALESCE(d.metadata::text, '{}'),
	d.file_url, d.file_name, d.file_size, d.file_type,
	d.created_at, d.updated_at`

const docRetCols = `id, contact_id, document_type,
	document_number, COALESCE(issue_date::text, ''), COALESCE(expiry_date::text, ''),
	COALESCE(metadata::text, '{}'),
	file_url, file_name, file_size, file_type,
	created_at, updated_at`

// scanDocument reads all Document columns from a row/rows scanner.
func scanDocument(scanner interface {
	Scan(dest ...interface{}) error
}, doc *models.Document) error {
	var issueDateRaw, expiryRaw, metadataRaw string
	var docNumber *string

	err := scanner.Scan(
		&doc.ID, &doc.ContactID, &doc.DocumentType,
		&docNumber, &issueDateRaw, &expiryRaw,
		&metadataRaw,
		&doc.FileURL, &doc.FileName, &doc.FileSize, &doc.FileType,
		&doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		return err
	}

	doc.DocumentNumber = docNumber
	if issueDateRaw != "" {
		doc.IssueDate = &issueDateRaw
	}
	if expiryRaw != "" {
		doc.ExpiryDate = &expiryRaw
	}
	if metadataRaw != "" {
		doc.Metadata = json.RawMessage(metadataRaw)
	} else {
		doc.Metadata = json.RawMessage(`{}`)
	}

	return nil
}

// enrichDocumentRisk classifies a document's expiry the same way
// contact-level expiries are classified.
func enrichDocumentRisk(doc *models.Document, now time.Time) models.DocumentWithRisk {
	dwr := models.DocumentWithRisk{Document: *doc}

	if doc.ExpiryDate != nil {
		dwr.DaysRemaining = taxperiod.DaysUntil(taxperiod.ToDateOnly(*doc.ExpiryDate), now)
	}
	dwr.RiskBand = taxperiod.ClassifyExpiry(dwr.DaysRemaining)
	dwr.RiskColor = taxperiod.BandColor(dwr.RiskBand)

	return dwr
}

// ── Create ───────────────────────────────────────────────────────

// Create handles POST /api/contacts/{contactId}/documents
func (h *DocumentHandler) Create(w http.ResponseWriter, r *http.Request) {
	contactID := chi.URLParam(r, "contactId")
	if contactID == "" {
		JSONError(w, http.StatusBadRequest, "Contact ID is required")
		return
	}

	if !checkContactAccess(r.Context(), contactID) {
		JSONError(w, http.StatusForbidden, "Access denied to this contact")
		return
	}

	var req models.CreateDocumentRequest
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

	// Verify contact exists
	var exists bool
	if err := pool.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM contacts WHERE id = $1)", contactID).Scan(&exists); err != nil || !exists {
		JSONError(w, http.StatusNotFound, "Contact not found")
		return
	}

	// Default metadata to empty JSON object
	metadata := req.Metadata
	if len(metadata) == 0 {
		metadata = json.RawMessage(`{}`)
	}

	var doc models.Document
	err := scanDocument(pool.QueryRow(ctx, fmt.Sprintf(`
		INSERT INTO documents (
			contact_id, document_type, document_number, issue_date, expiry_date,
			metadata, file_url, file_name, file_size, file_type
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING %s
	`, docRetCols),
		contactID, req.DocumentType,
		req.DocumentNumber, req.IssueDate, req.ExpiryDate,
		string(metadata),
		req.FileURL, req.FileName, req.FileSize, req.FileType,
	), &doc)
	if err != nil {
		log.Printf("Error creating document: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to create document")
		return
	}

	// Audit trail
	userID, _ := r.Context().Value(ctxkeys.UserID).(string)
	logActivity(pool, userID, "created", "document", doc.ID, map[string]interface{}{
		"type": doc.DocumentType, "contactId": contactID,
	})

	JSON(w, http.StatusCreated, map[string]interface{}{
		"data":    enrichDocumentRisk(&doc, time.Now()),
		"message": "Document created successfully",
	})
}

// ── List by Contact ──────────────────────────────────────────────

// ListByContact handles GET /api/contacts/{id}/documents
func (h *DocumentHandler) ListByContact(w http.ResponseWriter, r *http.Request) {
	contactID := chi.URLParam(r, "id")
	if contactID == "" {
		contactID = chi.URLParam(r, "contactId")
	}
	if contactID == "" {
		JSONError(w, http.StatusBadRequest, "Contact ID is required")
		return
	}

	if !checkContactAccess(r.Context(), contactID) {
		JSONError(w, http.StatusForbidden, "Access denied to this contact")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	rows, err := pool.Query(ctx, fmt.Sprintf(`
		SELECT %s
		FROM documents d
		WHERE d.contact_id = $1
		ORDER BY d.document_type ASC, d.created_at DESC
	`, docCols), contactID)
	if err != nil {
		log.Printf("Error fetching documents: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch documents")
		return
	}
	defer rows.Close()

	now := time.Now()
	documents := []models.DocumentWithRisk{}
	for rows.Next() {
		var doc models.Document
		if err := scanDocument(rows, &doc); err != nil {
			log.Printf("Error scanning document: %v", err)
			continue
		}
		documents = append(documents, enrichDocumentRisk(&doc, now))
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"data": documents,
	})
}

// ── Get by ID ────────────────────────────────────────────────────

// GetByID handles GET /api/documents/{id}
func (h *DocumentHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		JSONError(w, http.StatusBadRequest, "Document ID is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	if !checkDocumentAccess(ctx, pool, id) {
		JSONError(w, http.StatusForbidden, "Access denied to this document")
		return
	}

	row := pool.QueryRow(ctx, fmt.Sprintf(`
		SELECT %s, c.name AS contact_name
		FROM documents d
		JOIN contacts c ON d.contact_id = c.id
		WHERE d.id = $1
	`, docCols), id)

	var doc models.Document
	var contactName string

	// Custom scan because of the extra joined column
	var issueDateRaw, expiryRaw, metadataRaw string
	var docNumber *string
	err := row.Scan(
		&doc.ID, &doc.ContactID, &doc.DocumentType,
		&docNumber, &issueDateRaw, &expiryRaw,
		&metadataRaw,
		&doc.FileURL, &doc.FileName, &doc.FileSize, &doc.FileType,
		&doc.CreatedAt, &doc.UpdatedAt,
		&contactName,
	)
	if err != nil {
		log.Printf("Error fetching document %s: %v", id, err)
		JSONError(w, http.StatusNotFound, "Document not found")
		return
	}

	doc.DocumentNumber = docNumber
	if issueDateRaw != "" {
		doc.IssueDate = &issueDateRaw
	}
	if expiryRaw != "" {
		doc.ExpiryDate = &expiryRaw
	}
	doc.Metadata = json.RawMessage(metadataRaw)

	JSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"document":    enrichDocumentRisk(&doc, time.Now()),
			"contactName": contactName,
		},
	})
}

// ── Update ───────────────────────────────────────────────────────

// Update handles PUT /api/documents/{id}
func (h *DocumentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		JSONError(w, http.StatusBadRequest, "Document ID is required")
		return
	}

	var req models.UpdateDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	if !checkDocumentAccess(ctx, pool, id) {
		JSONError(w, http.StatusForbidden, "Access denied to this document")
		return
	}

	// Build dynamic SET clause
	setClauses := []string{}
	args := []interface{}{}
	argIdx := 1

	addField := func(col string, val interface{}) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", col, argIdx))
		args = append(args, val)
		argIdx++
	}

	if req.DocumentType != nil {
		addField("document_type", *req.DocumentType)
	}
	if req.DocumentNumber != nil {
		addField("document_number", *req.DocumentNumber)
	}
	if req.IssueDate != nil {
		addField("issue_date", nilIfEmptyStr(*req.IssueDate))
	}
	if req.ExpiryDate != nil {
		addField("expiry_date", nilIfEmptyStr(*req.ExpiryDate))
	}
	if len(req.Metadata) > 0 {
		addField("metadata", string(req.Metadata))
	}
	if req.FileURL != nil {
		addField("file_url", *req.FileURL)
	}
	if req.FileName != nil {
		addField("file_name", *req.FileName)
	}
	if req.FileSize != nil {
		addField("file_size", *req.FileSize)
	}
	if req.FileType != nil {
		addField("file_type", *req.FileType)
	}

	if len(setClauses) == 0 {
		JSONError(w, http.StatusBadRequest, "No fields to update")
		return
	}

	setClauses = append(setClauses, "updated_at = NOW()")

	setStr := ""
	for i, clause := range setClauses {
		if i > 0 {
			setStr += ", "
		}
		setStr += clause
	}

	query := fmt.Sprintf(`
		UPDATE documents SET %s
		WHERE id = $%d
		RETURNING %s
	`, setStr, argIdx, docRetCols)
	args = append(args, id)

	var doc models.Document
	if err := scanDocument(pool.QueryRow(ctx, query, args...), &doc); err != nil {
		log.Printf("Error updating document %s: %v", id, err)
		JSONError(w, http.StatusNotFound, "Document not found")
		return
	}

	// Audit trail
	userID, _ := r.Context().Value(ctxkeys.UserID).(string)
	logActivity(pool, userID, "updated", "document", doc.ID, map[string]interface{}{
		"type": doc.DocumentType,
	})

	JSON(w, http.StatusOK, map[string]interface{}{
		"data":    enrichDocumentRisk(&doc, time.Now()),
		"message": "Document updated successfully",
	})
}

// ── Renew ────────────────────────────────────────────────────────

// Renew handles POST /api/documents/{id}/renew
// Inserts a fresh document with the new expiry, copying type and
// contact from the old one, so the renewal history stays queryable.
func (h *DocumentHandler) Renew(w http.ResponseWriter, r *http.Request) {
	oldID := chi.URLParam(r, "id")
	if oldID == "" {
		JSONError(w, http.StatusBadRequest, "Document ID is required")
		return
	}

	var req models.RenewDocumentRequest
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

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	if !checkDocumentAccess(ctx, pool, oldID) {
		JSONError(w, http.StatusForbidden, "Access denied to this document")
		return
	}

	// Fetch the old document to copy its details
	var oldDoc models.Document
	row := pool.QueryRow(ctx, fmt.Sprintf(`SELECT %s FROM documents d WHERE d.id = $1`, docCols), oldID)
	if err := scanDocument(row, &oldDoc); err != nil {
		JSONError(w, http.StatusNotFound, "Original document not found")
		return
	}

	// Use new values if provided, otherwise keep old ones
	issueDate := oldDoc.IssueDate
	if req.IssueDate != nil {
		issueDate = req.IssueDate
	}
	fileURL := oldDoc.FileURL
	if req.FileURL != nil {
		fileURL = *req.FileURL
	}
	fileName := oldDoc.FileName
	if req.FileName != nil {
		fileName = *req.FileName
	}
	fileSize := oldDoc.FileSize
	if req.FileSize != nil {
		fileSize = *req.FileSize
	}
	fileType := oldDoc.FileType
	if req.FileType != nil {
		fileType = *req.FileType
	}

	var newDoc models.Document
	err := scanDocument(pool.QueryRow(ctx, fmt.Sprintf(`
		INSERT INTO documents (
			contact_id, document_type, document_number, issue_date, expiry_date,
			metadata, file_url, file_name, file_size, file_type
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING %s
	`, docRetCols),
		oldDoc.ContactID, oldDoc.DocumentType,
		oldDoc.DocumentNumber, issueDate, req.ExpiryDate,
		string(oldDoc.Metadata),
		fileURL, fileName, fileSize, fileType,
	), &newDoc)
	if err != nil {
		log.Printf("Error inserting renewed document: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to create renewed document")
		return
	}

	// Audit trail
	userID, _ := r.Context().Value(ctxkeys.UserID).(string)
	logActivity(pool, userID, "renewed", "document", newDoc.ID, map[string]interface{}{
		"previousDocId": oldID, "type": oldDoc.DocumentType, "newExpiry": req.ExpiryDate,
	})

	JSON(w, http.StatusCreated, map[string]interface{}{
		"data":    enrichDocumentRisk(&newDoc, time.Now()),
		"message": "Document renewed successfully",
	})
}

// ── Delete ───────────────────────────────────────────────────────

// Delete handles DELETE /api/documents/{id}
func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		JSONError(w, http.StatusBadRequest, "Document ID is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	if !checkDocumentAccess(ctx, pool, id) {
		JSONError(w, http.StatusForbidden, "Access denied to this document")
		return
	}

	tag, err := pool.Exec(ctx, "DELETE FROM documents WHERE id = $1", id)
	if err != nil {
		log.Printf("Error deleting document %s: %v", id, err)
		JSONError(w, http.StatusInternalServerError, "Failed to delete document")
		return
	}

	if tag.RowsAffected() == 0 {
		JSONError(w, http.StatusNotFound, "Document not found")
		return
	}

	// Audit trail
	userID, _ := r.Context().Value(ctxkeys.UserID).(string)
	logActivity(pool, userID, "deleted", "document", id, nil)

	JSON(w, http.StatusOK, map[string]string{
		"message": "Document deleted successfully",
	})
}

// ── BatchDelete ────────────────────────────────────────────────

// BatchDelete handles POST /api/documents/batch-delete
// Accepts { "ids": ["uuid1", "uuid2", ...] } and deletes all matching documents.
func (h *DocumentHandler) BatchDelete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs []string `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if len(req.IDs) == 0 {
		JSONError(w, http.StatusBadRequest, "No document IDs provided")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	for _, id := range req.IDs {
		if !checkDocumentAccess(ctx, pool, id) {
			JSONError(w, http.StatusForbidden, "Access denied to one or more documents")
			return
		}
	}

	tag, err := pool.Exec(ctx, "DELETE FROM documents WHERE id = ANY($1::uuid[])", req.IDs)
	if err != nil {
		log.Printf("Error batch deleting documents: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to delete documents")
		return
	}

	// Audit trail
	userID, _ := r.Context().Value(ctxkeys.UserID).(string)
	for _, id := range req.IDs {
		logActivity(pool, userID, "deleted", "document", id, nil)
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"message": fmt.Sprintf("%d document(s) deleted successfully", tag.RowsAffected()),
		"deleted": tag.RowsAffected(),
	})
}
