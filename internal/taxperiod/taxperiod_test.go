package taxperiod

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func datePtr(s string) *time.Time {
	t := date(s)
	return &t
}

func intPtr(n int) *int { return &n }

// ── ToDateOnly / DaysUntil ───────────────────────────────────────

func TestToDateOnly(t *testing.T) {
	assert.Equal(t, "2024-01-31", ToDateOnly("2024-01-31"))
	assert.Equal(t, "2024-01-31", ToDateOnly("2024-01-31T15:04:05Z"))
	assert.Equal(t, "", ToDateOnly(""))
	assert.Equal(t, "", ToDateOnly("2024-01"))
}

func TestDaysUntil(t *testing.T) {
	now := time.Date(2024, 6, 15, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		in   string
		want *int
	}{
		{"same day", "2024-06-15", intPtr(0)},
		{"tomorrow", "2024-06-16", intPtr(1)},
		{"yesterday", "2024-06-14", intPtr(-1)},
		{"far future", "2024-09-15", intPtr(92)},
		{"datetime input", "2024-06-20T09:00:00Z", intPtr(5)},
		{"empty", "", nil},
		{"garbage", "not-a-date", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DaysUntil(tt.in, now)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.want, *got)
		})
	}
}

// DaysUntil must not depend on the time of day of either endpoint.
func TestDaysUntilIgnoresTimeOfDay(t *testing.T) {
	for _, hour := range []int{0, 1, 12, 23} {
		now := time.Date(2024, 6, 15, hour, 59, 59, 0, time.UTC)
		got := DaysUntil("2024-06-16", now)
		require.NotNil(t, got)
		assert.Equal(t, 1, *got, "hour %d", hour)
	}
}

// ── NextVATDue ───────────────────────────────────────────────────

func TestNextVATDue(t *testing.T) {
	tests := []struct {
		name string
		cfg  VATConfig
		now  time.Time
		want string // "" means nil expected
	}{
		{
			name: "quarterly walks to first future boundary",
			cfg: VATConfig{
				PeriodType:     PeriodQuarterly,
				FirstPeriodEnd: datePtr("2024-01-31"),
				ReturnDueDays:  intPtr(28),
			},
			now:  date("2024-03-01"),
			want: "2024-05-28", // boundary 2024-04-30 + 28 days
		},
		{
			name: "monthly clamps to leap-year February end",
			cfg: VATConfig{
				PeriodType:     PeriodMonthly,
				FirstPeriodEnd: datePtr("2024-01-31"),
				ReturnDueDays:  intPtr(28),
			},
			now:  date("2024-02-01"),
			want: "2024-03-28", // boundary 2024-02-29 + 28 days
		},
		{
			name: "missing first period end",
			cfg: VATConfig{
				PeriodType:    PeriodQuarterly,
				ReturnDueDays: intPtr(28),
			},
			now:  date("2024-03-01"),
			want: "",
		},
		{
			name: "missing return due days",
			cfg: VATConfig{
				PeriodType:     PeriodMonthly,
				FirstPeriodEnd: datePtr("2024-01-31"),
			},
			now:  date("2024-03-01"),
			want: "",
		},
		{
			name: "period ending today is still current",
			cfg: VATConfig{
				PeriodType:     PeriodMonthly,
				FirstPeriodEnd: datePtr("2024-01-31"),
				ReturnDueDays:  intPtr(28),
			},
			now:  date("2024-01-31"),
			want: "2024-02-28", // boundary does not advance on the boundary day
		},
		{
			name: "unknown period type defaults to monthly",
			cfg: VATConfig{
				PeriodType:     "annually",
				FirstPeriodEnd: datePtr("2024-01-15"),
				ReturnDueDays:  intPtr(10),
			},
			now:  date("2024-02-01"),
			want: "2024-02-25", // boundary 2024-02-15 + 10 days
		},
		{
			name: "first period end already in the future",
			cfg: VATConfig{
				PeriodType:     PeriodQuarterly,
				FirstPeriodEnd: datePtr("2025-03-31"),
				ReturnDueDays:  intPtr(28),
			},
			now:  date("2024-06-01"),
			want: "2025-04-28",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextVATDue(tt.cfg, tt.now)
			if tt.want == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Format("2006-01-02"))
		})
	}
}

// The chosen boundary must be the FIRST one on or after today: the
// boundary itself is >= today, and one step earlier is strictly before.
func TestNextVATDueFirstQualifyingBoundary(t *testing.T) {
	cfg := VATConfig{
		PeriodType:     PeriodQuarterly,
		FirstPeriodEnd: datePtr("2020-03-31"),
		ReturnDueDays:  intPtr(28),
	}

	for _, nowStr := range []string{"2020-03-31", "2021-07-04", "2023-12-31", "2024-02-29"} {
		now := date(nowStr)
		due := NextVATDue(cfg, now)
		require.NotNil(t, due)

		boundary := due.AddDate(0, 0, -*cfg.ReturnDueDays)
		assert.False(t, boundary.Before(now), "boundary %s before now %s", boundary, now)

		// Walking one step back from the boundary must land before now.
		// Re-walk from the anchor to find the preceding boundary, since
		// clamped month arithmetic is not invertible.
		prev := *cfg.FirstPeriodEnd
		for {
			next := AddMonths(prev, 3)
			if !next.Before(boundary) {
				break
			}
			prev = next
		}
		if !prev.Equal(boundary) {
			assert.True(t, prev.Before(now), "previous boundary %s not before now %s", prev, now)
		}
	}
}

func TestNextVATDueIdempotent(t *testing.T) {
	cfg := VATConfig{
		PeriodType:     PeriodMonthly,
		FirstPeriodEnd: datePtr("2023-06-30"),
		ReturnDueDays:  intPtr(28),
	}
	now := date("2024-04-10")

	first := NextVATDue(cfg, now)
	second := NextVATDue(cfg, now)
	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.True(t, first.Equal(*second))
}

// ── NextCTDue ────────────────────────────────────────────────────

func TestNextCTDue(t *testing.T) {
	tests := []struct {
		name string
		cfg  CTConfig
		now  time.Time
		want string
	}{
		{
			name: "year end in the past is used directly",
			cfg:  CTConfig{FinancialYearStartMonth: intPtr(4), FilingDueMonths: intPtr(9)},
			now:  date("2024-06-15"),
			want: "2024-12-31", // FY end 2024-03-31 + 9 months
		},
		{
			name: "future year end steps back one year",
			cfg:  CTConfig{FinancialYearStartMonth: intPtr(4), FilingDueMonths: intPtr(9)},
			now:  date("2024-02-15"),
			want: "2023-12-31", // FY end 2023-03-31 + 9 months
		},
		{
			name: "year ending today is used directly",
			cfg:  CTConfig{FinancialYearStartMonth: intPtr(4), FilingDueMonths: intPtr(9)},
			now:  date("2024-03-31"),
			want: "2024-12-31",
		},
		{
			name: "january start uses prior December 31",
			cfg:  CTConfig{FinancialYearStartMonth: intPtr(1), FilingDueMonths: intPtr(9)},
			now:  date("2024-06-15"),
			want: "2024-09-30", // FY end 2023-12-31 + 9 months
		},
		{
			name: "due month shorter than year-end day clamps",
			cfg:  CTConfig{FinancialYearStartMonth: intPtr(6), FilingDueMonths: intPtr(9)},
			now:  date("2024-07-01"),
			want: "2025-02-28", // FY end 2024-05-31 + 9 months → Feb 2025 has 28 days
		},
		{
			name: "missing start month",
			cfg:  CTConfig{FilingDueMonths: intPtr(9)},
			now:  date("2024-06-15"),
			want: "",
		},
		{
			name: "missing filing due months",
			cfg:  CTConfig{FinancialYearStartMonth: intPtr(4)},
			now:  date("2024-06-15"),
			want: "",
		},
		{
			name: "start month out of range",
			cfg:  CTConfig{FinancialYearStartMonth: intPtr(13), FilingDueMonths: intPtr(9)},
			now:  date("2024-06-15"),
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextCTDue(tt.cfg, tt.now)
			if tt.want == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Format("2006-01-02"))
		})
	}
}

// The financial year end that anchors the due date is always within one
// year of now (single-step lookback, never further).
func TestNextCTDueYearEndWithinOneYear(t *testing.T) {
	cfg := CTConfig{FinancialYearStartMonth: intPtr(7), FilingDueMonths: intPtr(9)}

	for _, nowStr := range []string{"2024-01-01", "2024-06-30", "2024-07-01", "2024-12-31"} {
		now := date(nowStr)
		due := NextCTDue(cfg, now)
		require.NotNil(t, due)

		yearEnd := AddMonths(*due, -*cfg.FilingDueMonths)
		assert.False(t, yearEnd.After(now), "year end %s after now %s", yearEnd, now)
		assert.True(t, yearEnd.After(now.AddDate(-1, 0, -1)), "year end %s more than a year before %s", yearEnd, now)
	}
}

// ── ClassifyExpiry ───────────────────────────────────────────────

func TestClassifyExpiry(t *testing.T) {
	tests := []struct {
		days *int
		want string
	}{
		{nil, BandUnknown},
		{intPtr(-365), BandExpired},
		{intPtr(-5), BandExpired},
		{intPtr(-1), BandExpired},
		{intPtr(0), BandCritical},
		{intPtr(15), BandCritical},
		{intPtr(30), BandCritical},
		{intPtr(31), BandWarning},
		{intPtr(60), BandWarning},
		{intPtr(90), BandWarning},
		{intPtr(91), BandHealthy},
		{intPtr(400), BandHealthy},
	}

	for _, tt := range tests {
		got := ClassifyExpiry(tt.days)
		if tt.days == nil {
			assert.Equal(t, tt.want, got, "nil")
		} else {
			assert.Equal(t, tt.want, got, "days=%d", *tt.days)
		}
	}
}

// Bands must partition the integer line with no gaps or overlaps, and
// risk must be non-decreasing as days-remaining decreases.
func TestClassifyExpiryMonotonic(t *testing.T) {
	rank := map[string]int{
		BandHealthy:  0,
		BandWarning:  1,
		BandCritical: 2,
		BandExpired:  3,
	}

	prev := BandHealthy
	for days := 120; days >= -10; days-- {
		d := days
		band := ClassifyExpiry(&d)
		require.Contains(t, rank, band, "days=%d", days)
		assert.GreaterOrEqual(t, rank[band], rank[prev], "risk dropped at days=%d", days)
		prev = band
	}
}

func TestBandColor(t *testing.T) {
	assert.Equal(t, "danger", BandColor(BandExpired))
	assert.Equal(t, "danger", BandColor(BandCritical))
	assert.Equal(t, "warning", BandColor(BandWarning))
	assert.Equal(t, "success", BandColor(BandHealthy))
	assert.Equal(t, "neutral", BandColor(BandUnknown))
	assert.Equal(t, "neutral", BandColor("something_else"))
}

// ── AddMonths ────────────────────────────────────────────────────

func TestAddMonthsClampsToShorterMonths(t *testing.T) {
	tests := []struct {
		start string
		n     int
		want  string
	}{
		{"2024-01-31", 1, "2024-02-29"}, // leap year
		{"2023-01-31", 1, "2023-02-28"},
		{"2024-01-31", 3, "2024-04-30"},
		{"2024-03-31", 1, "2024-04-30"},
		{"2024-04-30", 3, "2024-07-30"}, // clamped day sticks on later steps
		{"2024-05-15", 1, "2024-06-15"},
		{"2024-11-30", 3, "2025-02-28"}, // across year boundary
		{"2024-03-31", -1, "2024-02-29"},
	}

	for _, tt := range tests {
		got := AddMonths(date(tt.start), tt.n)
		assert.Equal(t, tt.want, got.Format("2006-01-02"), "%s + %d months", tt.start, tt.n)
	}
}
