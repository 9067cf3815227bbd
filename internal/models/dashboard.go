package models

// ── Dashboard Metrics ────────────────────────────────────────────

// DashboardMetrics holds the main dashboard statistics.
type DashboardMetrics struct {
	TotalContacts   int `json:"totalContacts"`
	ActiveCompanies int `json:"activeCompanies"`
	ExpiringSoon    int `json:"expiringSoon"` // tracked expiries within 30 days
	Expired         int `json:"expired"`
}

// ── Expiry Alerts ────────────────────────────────────────────────

// ExpiryAlert represents a tracked expiry nearing or past its date.
type ExpiryAlert struct {
	ContactID   string `json:"contactId"`
	ContactName string `json:"contactName"`
	Label       string `json:"label"` // "Trade License", "Passport", ...
	ExpiryDate  string `json:"expiryDate"`
	DaysLeft    int    `json:"daysLeft"`
	Band        string `json:"band"`
	Color       string `json:"color"`
}

// ── Tax Deadlines ────────────────────────────────────────────────

// TaxDeadline is an upcoming VAT or CT filing due date for one contact.
type TaxDeadline struct {
	ContactID   string `json:"contactId"`
	ContactName string `json:"contactName"`
	TaxType     string `json:"taxType"` // "vat" | "ct"
	DueDate     string `json:"dueDate"`
	DueInDays   int    `json:"dueInDays"`
}

// ── Compliance Overview ──────────────────────────────────────────

// ComplianceOverview is the full compliance picture for the dashboard:
// risk-band distribution across all tracked expiries plus per-band counts.
type ComplianceOverview struct {
	TotalContacts    int            `json:"totalContacts"`
	TrackedExpiries  int            `json:"trackedExpiries"`
	ExpiriesByBand   map[string]int `json:"expiriesByBand"` // band → count
	VatConfigured    int            `json:"vatConfigured"`  // contacts with a computable VAT due date
	CtConfigured     int            `json:"ctConfigured"`
	UpcomingTaxCount int            `json:"upcomingTaxCount"` // filings due within 30 days
	WorstContacts    []ContactRisk  `json:"worstContacts"`    // contacts with expired items, worst first
}

// ContactRisk is the per-contact rollup used in the overview.
type ContactRisk struct {
	ContactID     string `json:"contactId"`
	ContactName   string `json:"contactName"`
	ExpiredCount  int    `json:"expiredCount"`
	CriticalCount int    `json:"criticalCount"`
}

// ── Notifications ────────────────────────────────────────────────

// Notification is an in-app alert produced by the cron notifier or by
// user actions.
type Notification struct {
	ID         string  `json:"id"`
	UserID     *string `json:"userId"` // nil = org-wide
	Title      string  `json:"title"`
	Message    string  `json:"message"`
	Type       string  `json:"type"` // "expiry", "tax_due", ...
	EntityType string  `json:"entityType"`
	EntityID   string  `json:"entityId"`
	IsRead     bool    `json:"isRead"`
	CreatedAt  string  `json:"createdAt"`
}
