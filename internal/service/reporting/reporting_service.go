package reporting

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/porkyfarm/porcpro/internal/domain/livestock"
	"github.com/porkyfarm/porcpro/internal/domain/models"
	"github.com/porkyfarm/porcpro/internal/service/dashboard"
	"github.com/porkyfarm/porcpro/internal/store"
)

const dateLayout = "2006-01-02"

// DigestLine is one alert rendered for a digest.
type DigestLine struct {
	Priority string
	Title    string
	Detail   string
}

// Week holds the figures of a seven-day report.
type Week struct {
	Start, End      time.Time
	Herd            dashboard.Stats
	Farrowings      int
	PigletsBorn     int
	PigletsSurvived int
	CasesOpened     int
	CasesResolved   int
	Vaccinated      int
	FeedKg          float64
	FeedCost        float64
	ProducedKg      float64
	Sold            int
	Deceased        int
	OpenAlerts      int
	CriticalAlerts  int
	UpcomingBirths  int
	LowStock        []string
}

// Service builds weekly reports and alert digests from farm documents.
type Service struct {
	dashboard *dashboard.Service
	logger    *zap.Logger
}

// NewService wires a new reporting service instance.
func NewService(dash *dashboard.Service, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{dashboard: dash, logger: logger}
}

// Digest returns the current dashboard alerts as digest lines.
func (s *Service) Digest(h *store.Handle, now time.Time) []DigestLine {
	sum := s.dashboard.Summary(h, now)
	lines := make([]DigestLine, 0, len(sum.Alerts))
	for _, a := range sum.Alerts {
		lines = append(lines, DigestLine{Priority: string(a.Priority), Title: a.Title, Detail: a.Message})
	}
	return lines
}

// DigestText renders lines as a short plain text message.
func DigestText(farm string, lines []DigestLine) string {
	if len(lines) == 0 {
		return fmt.Sprintf("%s: no alerts today.", farm)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d alerts today\n", farm, len(lines))
	for _, l := range lines {
		fmt.Fprintf(&b, "[%s] %s", l.Priority, l.Title)
		if l.Detail != "" {
			fmt.Fprintf(&b, " - %s", l.Detail)
		}
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

// WeeklyFigures collects the week ending on the day of end.
func (s *Service) WeeklyFigures(h *store.Handle, end time.Time) Week {
	endDay := livestock.Day(end)
	w := Week{Start: endDay.AddDate(0, 0, -6), End: endDay}
	in := func(t time.Time) bool {
		d := livestock.Day(t)
		return !d.Before(w.Start) && !d.After(w.End)
	}

	db := h.Snapshot()
	sum := s.dashboard.Summary(h, end)
	w.Herd = sum.Stats
	w.OpenAlerts = len(sum.Alerts)
	w.UpcomingBirths = len(sum.UpcomingBirths)
	for _, a := range sum.Alerts {
		if a.Priority == models.PriorityCritical {
			w.CriticalAlerts++
		}
	}
	for _, st := range db.FeedStocks {
		if dashboard.LowStock(st) {
			w.LowStock = append(w.LowStock, st.Name)
		}
	}

	for _, g := range db.Gestations {
		if g.Status != models.GestationCompleted || g.ActualDate == nil || !in(*g.ActualDate) {
			continue
		}
		w.Farrowings++
		if g.PigletCount != nil {
			w.PigletsBorn += *g.PigletCount
		}
		if g.PigletsSurvived != nil {
			w.PigletsSurvived += *g.PigletsSurvived
		}
	}
	for _, hc := range db.HealthCases {
		if in(hc.StartDate) {
			w.CasesOpened++
		}
		if hc.ResolvedDate != nil && in(*hc.ResolvedDate) {
			w.CasesResolved++
		}
	}
	for _, v := range db.Vaccinations {
		if v.CompletedDate != nil && in(*v.CompletedDate) {
			w.Vaccinated++
		}
	}
	for _, r := range db.FeedingRecords {
		if in(r.Date) {
			w.FeedKg += r.QuantityKg
			w.FeedCost += r.Cost
		}
	}
	for _, p := range db.FeedProductions {
		if in(p.Date) {
			w.ProducedKg += p.QuantityKg
		}
	}
	for _, a := range db.Animals {
		if !in(a.UpdatedAt) {
			continue
		}
		switch a.Status {
		case models.StatusSold:
			w.Sold++
		case models.StatusDeceased:
			w.Deceased++
		}
	}
	return w
}

// GenerateWeeklyReport formats the week ending on end as plain text.
func (s *Service) GenerateWeeklyReport(h *store.Handle, end time.Time) string {
	w := s.WeeklyFigures(h, end)
	period := fmt.Sprintf("%s-%s", w.Start.Format(dateLayout), w.End.Format(dateLayout))

	var b strings.Builder
	fmt.Fprintf(&b, "Weekly report (%s)\n", period)
	fmt.Fprintf(&b, "Herd: %d animals, %d active (%d pregnant, %d nursing, %d sick).\n",
		w.Herd.TotalAnimals, w.Herd.ActiveHerd,
		w.Herd.ByStatus[models.StatusPregnant], w.Herd.ByStatus[models.StatusNursing], w.Herd.ByStatus[models.StatusSick])

	if w.Farrowings == 0 {
		b.WriteString("Farrowings: none this week.\n")
	} else {
		fmt.Fprintf(&b, "Farrowings: %d, %d piglets born, %d survived.\n", w.Farrowings, w.PigletsBorn, w.PigletsSurvived)
	}
	fmt.Fprintf(&b, "Upcoming farrowings (14 days): %d.\n", w.UpcomingBirths)
	fmt.Fprintf(&b, "Health: %d cases opened, %d resolved, %d still open.\n", w.CasesOpened, w.CasesResolved, w.Herd.OpenHealthCases)
	fmt.Fprintf(&b, "Vaccinations: %d completed, %d pending.\n", w.Vaccinated, w.Herd.PendingVaccinations)

	if w.FeedKg == 0 {
		b.WriteString("Feed: awaiting data.\n")
	} else {
		statement := "Active herd unknown; feed per head pending."
		if w.Herd.ActiveHerd > 0 {
			statement = fmt.Sprintf("Feed per head %.2f kg.", w.FeedKg/float64(w.Herd.ActiveHerd))
		}
		fmt.Fprintf(&b, "Feed: %.2f kg distributed for %.0f, %.2f kg produced. %s\n", w.FeedKg, w.FeedCost, w.ProducedKg, statement)
	}
	if len(w.LowStock) > 0 {
		fmt.Fprintf(&b, "Low stock: %s.\n", strings.Join(w.LowStock, ", "))
	}
	if w.Sold+w.Deceased > 0 {
		fmt.Fprintf(&b, "Exits: %d sold, %d deceased.\n", w.Sold, w.Deceased)
	}
	fmt.Fprintf(&b, "Alerts: %d open, %d critical.", w.OpenAlerts, w.CriticalAlerts)

	s.logger.Debug("weekly report generated", zap.String("owner", h.Owner()), zap.String("period", period))
	return b.String()
}
