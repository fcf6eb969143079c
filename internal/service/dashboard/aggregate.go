package dashboard

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/porkyfarm/porcpro/internal/domain/livestock"
	"github.com/porkyfarm/porcpro/internal/domain/models"
)

// DefaultMaxAlerts caps the alert list shown on the dashboard.
const DefaultMaxAlerts = 10

// UpcomingWindowDays is how far ahead a farrowing counts as upcoming.
const UpcomingWindowDays = 14

// feed stock fill ratios at or under which an alert is raised
const (
	stockHighRatio   = 0.10
	stockMediumRatio = 0.20
)

// AlertKind is the source of an alert.
type AlertKind string

const (
	AlertGestation   AlertKind = "gestation"
	AlertHealth      AlertKind = "health"
	AlertFeedStock   AlertKind = "feed_stock"
	AlertVaccination AlertKind = "vaccination"
)

// Alert is one prioritised dashboard notification.
type Alert struct {
	Kind     AlertKind       `json:"kind"`
	Priority models.Priority `json:"priority"`
	Title    string          `json:"title"`
	Message  string          `json:"message"`
	EntityID string          `json:"entity_id"`
	Date     *time.Time      `json:"date,omitempty"`
}

// Stats holds the herd counters.
type Stats struct {
	TotalAnimals        int                           `json:"total_animals"`
	ActiveHerd          int                           `json:"active_herd"`
	ByCategory          map[models.AnimalCategory]int `json:"by_category"`
	ByStatus            map[models.AnimalStatus]int   `json:"by_status"`
	OpenHealthCases     int                           `json:"open_health_cases"`
	ActiveGestations    int                           `json:"active_gestations"`
	PendingVaccinations int                           `json:"pending_vaccinations"`
}

// Birth is an active gestation due within the upcoming window.
type Birth struct {
	GestationID  string    `json:"gestation_id"`
	SowID        string    `json:"sow_id"`
	SowName      string    `json:"sow_name"`
	DueDate      time.Time `json:"due_date"`
	DaysUntilDue int       `json:"days_until_due"`
	Overdue      bool      `json:"overdue"`
}

// FeedTotals summarises stock and the last seven days of feed ledgers.
type FeedTotals struct {
	StockQuantity       float64 `json:"stock_quantity"`
	StockValue          float64 `json:"stock_value"`
	WeekFeedingQuantity float64 `json:"week_feeding_quantity"`
	WeekFeedingCost     float64 `json:"week_feeding_cost"`
	WeekProduced        float64 `json:"week_produced"`
	TodayConsumption    float64 `json:"today_consumption"`
	LowStockCount       int     `json:"low_stock_count"`
}

// Summary is everything the dashboard shows for one document on one day.
type Summary struct {
	Day            time.Time  `json:"day"`
	Revision       int64      `json:"revision"`
	Stats          Stats      `json:"stats"`
	UpcomingBirths []Birth    `json:"upcoming_births"`
	Alerts         []Alert    `json:"alerts"`
	Feed           FeedTotals `json:"feed"`
}

// Compute derives the summary of db as seen on today.
func Compute(db *models.Database, today time.Time, maxAlerts int) Summary {
	if maxAlerts <= 0 {
		maxAlerts = DefaultMaxAlerts
	}
	today = livestock.Day(today)

	alerts := make([]Alert, 0)
	alerts = append(alerts, gestationAlerts(db.Gestations, today)...)
	alerts = append(alerts, healthAlerts(db.HealthCases)...)
	alerts = append(alerts, stockAlerts(db.FeedStocks)...)
	alerts = append(alerts, vaccinationAlerts(db.Vaccinations, today)...)
	SortAlerts(alerts)
	if len(alerts) > maxAlerts {
		alerts = alerts[:maxAlerts]
	}

	return Summary{
		Day:            today,
		Revision:       db.Revision,
		Stats:          countStats(db),
		UpcomingBirths: UpcomingBirths(db.Gestations, today),
		Alerts:         alerts,
		Feed:           feedTotals(db, today),
	}
}

// SortAlerts orders alerts by priority rank, then dated before undated, then soonest date.
func SortAlerts(alerts []Alert) {
	slices.SortStableFunc(alerts, func(a, b Alert) int {
		if c := cmp.Compare(a.Priority.Rank(), b.Priority.Rank()); c != 0 {
			return c
		}
		switch {
		case a.Date == nil && b.Date == nil:
			return 0
		case a.Date == nil:
			return 1
		case b.Date == nil:
			return -1
		}
		return a.Date.Compare(*b.Date)
	})
}

// UpcomingBirths lists active gestations due within the window, overdue ones included, soonest first.
func UpcomingBirths(gestations []models.Gestation, today time.Time) []Birth {
	out := make([]Birth, 0)
	for _, g := range gestations {
		if g.Status != models.GestationActive {
			continue
		}
		days := livestock.DaysBetween(today, g.ExpectedDueDate)
		if days > UpcomingWindowDays {
			continue
		}
		out = append(out, Birth{
			GestationID:  g.ID,
			SowID:        g.SowID,
			SowName:      g.SowName,
			DueDate:      g.ExpectedDueDate,
			DaysUntilDue: days,
			Overdue:      days < 0,
		})
	}
	slices.SortStableFunc(out, func(a, b Birth) int { return a.DueDate.Compare(b.DueDate) })
	return out
}

func gestationAlerts(gestations []models.Gestation, today time.Time) []Alert {
	var out []Alert
	for _, g := range gestations {
		if g.Status != models.GestationActive {
			continue
		}
		days := livestock.DaysBetween(today, g.ExpectedDueDate)
		var p models.Priority
		switch {
		case days <= 3:
			p = models.PriorityCritical
		case days <= 7:
			p = models.PriorityHigh
		case days <= UpcomingWindowDays:
			p = models.PriorityMedium
		default:
			continue
		}

		var title string
		switch {
		case days < 0:
			title = fmt.Sprintf("Farrowing overdue by %d days", -days)
		case days == 0:
			title = "Farrowing due today"
		case days == 1:
			title = "Farrowing due tomorrow"
		default:
			title = fmt.Sprintf("Farrowing in %d days", days)
		}
		due := g.ExpectedDueDate
		out = append(out, Alert{
			Kind:     AlertGestation,
			Priority: p,
			Title:    title,
			Message:  fmt.Sprintf("%s is due on %s", g.SowName, due.Format(time.DateOnly)),
			EntityID: g.ID,
			Date:     &due,
		})
	}
	return out
}

func healthAlerts(cases []models.HealthCase) []Alert {
	var out []Alert
	for _, hc := range cases {
		if hc.Status == models.CaseResolved || !hc.Priority.Severe() {
			continue
		}
		start := hc.StartDate
		out = append(out, Alert{
			Kind:     AlertHealth,
			Priority: hc.Priority,
			Title:    fmt.Sprintf("%s: %s", hc.AnimalName, hc.Issue),
			Message:  fmt.Sprintf("Open since %s", start.Format(time.DateOnly)),
			EntityID: hc.ID,
			Date:     &start,
		})
	}
	return out
}

// LowStock reports whether a stock is at or under the medium alert threshold.
func LowStock(s models.FeedStock) bool {
	r := s.FillRatio()
	return r >= 0 && r <= stockMediumRatio
}

func stockAlerts(stocks []models.FeedStock) []Alert {
	var out []Alert
	for _, s := range stocks {
		ratio := s.FillRatio()
		if ratio < 0 {
			continue
		}
		var p models.Priority
		switch {
		case ratio <= stockHighRatio:
			p = models.PriorityHigh
		case ratio <= stockMediumRatio:
			p = models.PriorityMedium
		default:
			continue
		}
		out = append(out, Alert{
			Kind:     AlertFeedStock,
			Priority: p,
			Title:    fmt.Sprintf("Low stock: %s", s.Name),
			Message:  fmt.Sprintf("%.0f of %.0f %s left (%.0f%%)", s.CurrentQty, s.MaxQty, s.Unit, ratio*100),
			EntityID: s.ID,
		})
	}
	return out
}

func vaccinationAlerts(vaccinations []models.Vaccination, today time.Time) []Alert {
	var out []Alert
	for _, v := range vaccinations {
		var (
			p     models.Priority
			title string
		)
		switch livestock.VaccinationDisplayStatus(v, today) {
		case livestock.VaccinationOverdue:
			p, title = models.PriorityMedium, "Vaccination overdue"
		case livestock.VaccinationUrgent:
			p, title = models.PriorityLow, "Vaccination due soon"
		default:
			continue
		}
		at := v.ScheduledDate
		out = append(out, Alert{
			Kind:     AlertVaccination,
			Priority: p,
			Title:    title,
			Message:  fmt.Sprintf("%s for %s on %s", v.VaccineName, v.Target, at.Format(time.DateOnly)),
			EntityID: v.ID,
			Date:     &at,
		})
	}
	return out
}

func countStats(db *models.Database) Stats {
	st := Stats{
		TotalAnimals: len(db.Animals),
		ByCategory:   make(map[models.AnimalCategory]int),
		ByStatus:     make(map[models.AnimalStatus]int),
	}
	for _, a := range db.Animals {
		st.ByCategory[a.Category]++
		st.ByStatus[a.Status]++
		if !a.Status.Terminal() {
			st.ActiveHerd++
		}
	}
	for _, hc := range db.HealthCases {
		if hc.Status != models.CaseResolved {
			st.OpenHealthCases++
		}
	}
	for _, g := range db.Gestations {
		if g.Status == models.GestationActive {
			st.ActiveGestations++
		}
	}
	for _, v := range db.Vaccinations {
		if v.Status == models.VaccinationPending {
			st.PendingVaccinations++
		}
	}
	return st
}

func feedTotals(db *models.Database, today time.Time) FeedTotals {
	var ft FeedTotals
	inWeek := func(t time.Time) bool {
		d := livestock.DaysBetween(t, today)
		return d >= 0 && d < 7
	}

	for _, s := range db.FeedStocks {
		ft.StockQuantity += s.CurrentQty
		ft.StockValue += s.CurrentQty * s.CostPerUnit
		if LowStock(s) {
			ft.LowStockCount++
		}
	}
	for _, r := range db.FeedingRecords {
		if inWeek(r.Date) {
			ft.WeekFeedingQuantity += r.QuantityKg
			ft.WeekFeedingCost += r.Cost
		}
	}
	for _, p := range db.FeedProductions {
		if inWeek(p.Date) {
			ft.WeekProduced += p.QuantityKg
		}
	}
	for _, c := range db.DailyConsumptions {
		if livestock.Day(c.Date).Equal(today) {
			ft.TodayConsumption += c.QuantityKg
		}
	}
	return ft
}
