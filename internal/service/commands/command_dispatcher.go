package commands

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/porkyfarm/porcpro/internal/domain/models"
	"github.com/porkyfarm/porcpro/internal/service/dashboard"
	"github.com/porkyfarm/porcpro/internal/service/reporting"
	"github.com/porkyfarm/porcpro/internal/store"
)

const dateFormat = "2006-01-02"

// HelpText lists the supported commands.
const HelpText = "PorcPro commands:\n" +
	"stats - herd and feed figures\n" +
	"alerts - today's alerts\n" +
	"births - farrowings due in the next two weeks\n" +
	"help - this message"

// Dispatcher answers parsed farmer commands from the farm document of userID.
type Dispatcher interface {
	HandleCommand(ctx context.Context, cmd models.Command, userID string) (string, error)
}

// Service implements the Dispatcher interface.
type Service struct {
	store     *store.Manager
	dashboard *dashboard.Service
	reporting *reporting.Service
	logger    *zap.Logger
}

// NewService constructs a command dispatcher.
func NewService(manager *store.Manager, dash *dashboard.Service, reportingSvc *reporting.Service, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:     manager,
		dashboard: dash,
		reporting: reportingSvc,
		logger:    logger,
	}
}

// HandleCommand renders the reply to cmd.
func (s *Service) HandleCommand(ctx context.Context, cmd models.Command, userID string) (string, error) {
	s.logger.Debug("dispatching command", zap.String("command", string(cmd.Type)), zap.String("user_id", userID), zap.Strings("args", cmd.Args))

	switch cmd.Type {
	case models.CommandHelp:
		return HelpText, nil
	case models.CommandUnknown:
		return "Unknown command.\n" + HelpText, nil
	}

	h, err := s.store.Open(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("open farm of %s: %w", userID, err)
	}
	now := s.store.Now()

	switch cmd.Type {
	case models.CommandStats:
		return StatsText(h.Owner(), s.dashboard.Summary(h, now)), nil
	case models.CommandAlerts:
		return reporting.DigestText(h.Owner(), s.reporting.Digest(h, now)), nil
	case models.CommandBirths:
		return BirthsText(s.dashboard.Summary(h, now).UpcomingBirths), nil
	}
	return HelpText, nil
}

// StatsText formats the herd and feed figures of a summary.
func StatsText(farm string, sum dashboard.Summary) string {
	st := sum.Stats
	var b strings.Builder
	fmt.Fprintf(&b, "%s on %s\n", farm, sum.Day.Format(dateFormat))
	fmt.Fprintf(&b, "Animals: %d (%d in active herd)\n", st.TotalAnimals, st.ActiveHerd)
	fmt.Fprintf(&b, "Pregnant %d, nursing %d, sick %d\n",
		st.ByStatus[models.StatusPregnant], st.ByStatus[models.StatusNursing], st.ByStatus[models.StatusSick])
	fmt.Fprintf(&b, "Open health cases: %d\n", st.OpenHealthCases)
	fmt.Fprintf(&b, "Pending vaccinations: %d\n", st.PendingVaccinations)
	fmt.Fprintf(&b, "Feed in stock: %.0f (%d low)", sum.Feed.StockQuantity, sum.Feed.LowStockCount)
	return b.String()
}

// BirthsText lists upcoming farrowings, overdue ones first.
func BirthsText(births []dashboard.Birth) string {
	if len(births) == 0 {
		return fmt.Sprintf("No farrowing expected in the next %d days.", dashboard.UpcomingWindowDays)
	}
	var b strings.Builder
	b.WriteString("Upcoming farrowings:")
	for _, birth := range births {
		switch {
		case birth.Overdue:
			fmt.Fprintf(&b, "\n- %s: due %s, overdue by %d days", birth.SowName, birth.DueDate.Format(dateFormat), -birth.DaysUntilDue)
		case birth.DaysUntilDue == 0:
			fmt.Fprintf(&b, "\n- %s: due today", birth.SowName)
		default:
			fmt.Fprintf(&b, "\n- %s: due %s, in %d days", birth.SowName, birth.DueDate.Format(dateFormat), birth.DaysUntilDue)
		}
	}
	return b.String()
}
