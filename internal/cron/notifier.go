package cron

import (
	"context"
	"fmt"
	"log"
	"time"

	"corpdesk-backend/internal/database"
	"corpdesk-backend/internal/taxperiod"
)

// Expiry alert thresholds, in days before the expiry date. A contact
// gets one alert per threshold crossing plus one when already expired.
var alertThresholds = []int{90, 60, 30, 7}

// Tax reminders fire when a projected VAT/CT due date is this close.
const taxReminderDays = 14

// StartNotifier launches a background goroutine that runs once per day
// (and once immediately) to generate expiry and tax-deadline
// notifications across all contacts.
func StartNotifier(db database.Service) {
	go func() {
		runCycle(db)

		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()

		for range ticker.C {
			runCycle(db)
		}
	}()

	log.Println("[cron] deadline notifier started – runs every 24 h")
}

// runCycle scans every contact, classifies its tracked expiries and
// projected tax due dates, and inserts org-wide notifications.
// Notifications are de-duplicated by (type, entity_id) on the same day.
func runCycle(db database.Service) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool := db.GetPool()
	now := time.Now()

	rows, err := pool.Query(ctx, `
		SELECT c.id, c.name,
			c.license_expiry_date::text, c.establishment_card_expiry::text,
			c.visa_expiry_date::text, c.passport_expiry::text, c.emirates_id_expiry::text,
			COALESCE(c.vat_registered, FALSE), c.vat_period_type,
			c.vat_first_period_end_date::text, c.vat_return_due_days,
			COALESCE(c.ct_registered, FALSE),
			c.ct_financial_year_start_month, c.ct_filing_due_months
		FROM contacts c
		WHERE c.status != 'cancelled'
	`)
	if err != nil {
		log.Printf("[cron] error querying contacts: %v", err)
		return
	}
	defer rows.Close()

	type contactRow struct {
		ID, Name string

		LicenseExpiry, CardExpiry, VisaExpiry, PassportExpiry, EmiratesIDExpiry *string

		VatRegistered  bool
		VatPeriodType  *string
		VatFirstPeriod *string
		VatDueDays     *int

		CtRegistered bool
		CtStartMonth *int
		CtDueMonths  *int
	}

	var contacts []contactRow
	for rows.Next() {
		var c contactRow
		if err := rows.Scan(
			&c.ID, &c.Name,
			&c.LicenseExpiry, &c.CardExpiry,
			&c.VisaExpiry, &c.PassportExpiry, &c.EmiratesIDExpiry,
			&c.VatRegistered, &c.VatPeriodType,
			&c.VatFirstPeriod, &c.VatDueDays,
			&c.CtRegistered,
			&c.CtStartMonth, &c.CtDueMonths,
		); err != nil {
			log.Printf("[cron] scan error: %v", err)
			continue
		}
		contacts = append(contacts, c)
	}

	inserted := 0
	today := now.Format("2006-01-02")

	// insertOnce inserts an org-wide notification unless one of the same
	// type for the same entity was already created today.
	insertOnce := func(nType, entityID, title, message string) {
		var exists bool
		if err := pool.QueryRow(ctx, `
			SELECT EXISTS(
				SELECT 1 FROM notifications
				WHERE type       = $1
				  AND entity_id  = $2
				  AND created_at::date = $3::date
			)
		`, nType, entityID, today).Scan(&exists); err != nil {
			// Skip rather than risk a duplicate for today.
			log.Printf("[cron] dedup check error: %v", err)
			return
		}
		if exists {
			return
		}

		_, err := pool.Exec(ctx, `
			INSERT INTO notifications (user_id, title, message, type, entity_type, entity_id)
			VALUES (NULL, $1, $2, $3, 'contact', $4)
		`, title, message, nType, entityID)
		if err != nil {
			log.Printf("[cron] insert notification error: %v", err)
			return
		}
		inserted++
	}

	for _, c := range contacts {
		// ── Tracked expiries ─────────────────────────────────
		expiries := []struct {
			Label string
			Date  *string
		}{
			{"Trade License", c.LicenseExpiry},
			{"Establishment Card", c.CardExpiry},
			{"Visa", c.VisaExpiry},
			{"Passport", c.PassportExpiry},
			{"Emirates ID", c.EmiratesIDExpiry},
		}

		for _, e := range expiries {
			if e.Date == nil {
				continue
			}
			days := taxperiod.DaysUntil(taxperiod.ToDateOnly(*e.Date), now)
			if days == nil {
				continue
			}

			if *days < 0 {
				insertOnce("expiry_expired", c.ID,
					fmt.Sprintf("%s expired – %s", e.Label, c.Name),
					fmt.Sprintf("%s: %s expired %d days ago. Immediate renewal required.",
						c.Name, e.Label, -*days))
				continue
			}
			for _, threshold := range alertThresholds {
				if *days <= threshold {
					insertOnce(fmt.Sprintf("expiry_%dd", threshold), c.ID,
						fmt.Sprintf("%s expiring – %s", e.Label, c.Name),
						fmt.Sprintf("%s: %s expires in %d days.", c.Name, e.Label, *days))
					break // only the tightest matching threshold
				}
			}
		}

		// ── VAT filing reminder ──────────────────────────────
		vatCfg := taxperiod.VATConfig{
			Registered:    c.VatRegistered,
			ReturnDueDays: c.VatDueDays,
		}
		if c.VatPeriodType != nil {
			vatCfg.PeriodType = *c.VatPeriodType
		}
		if c.VatFirstPeriod != nil {
			if t, err := time.Parse("2006-01-02", taxperiod.ToDateOnly(*c.VatFirstPeriod)); err == nil {
				vatCfg.FirstPeriodEnd = &t
			}
		}
		if due := taxperiod.NextVATDue(vatCfg, now); due != nil {
			d := due.Format("2006-01-02")
			if days := taxperiod.DaysUntil(d, now); days != nil && *days >= 0 && *days <= taxReminderDays {
				insertOnce("tax_vat_due", c.ID,
					fmt.Sprintf("VAT return due – %s", c.Name),
					fmt.Sprintf("%s: VAT return due on %s (%d days).", c.Name, d, *days))
			}
		}

		// ── CT filing reminder ───────────────────────────────
		ctCfg := taxperiod.CTConfig{
			Registered:              c.CtRegistered,
			FinancialYearStartMonth: c.CtStartMonth,
			FilingDueMonths:         c.CtDueMonths,
		}
		if due := taxperiod.NextCTDue(ctCfg, now); due != nil {
			d := due.Format("2006-01-02")
			if days := taxperiod.DaysUntil(d, now); days != nil && *days >= 0 && *days <= taxReminderDays {
				insertOnce("tax_ct_due", c.ID,
					fmt.Sprintf("Corporate Tax filing due – %s", c.Name),
					fmt.Sprintf("%s: Corporate Tax filing due on %s (%d days).", c.Name, d, *days))
			}
		}
	}

	log.Printf("[cron] deadline check complete – %d new notifications from %d contacts", inserted, len(contacts))
}
