package chat

import (
	"fmt"
	"sort"
	"strings"

	"github.com/porkyfarm/porcpro/internal/domain/models"
	"github.com/porkyfarm/porcpro/internal/service/dashboard"
)

const systemPrompt = `You are PorcPro, an assistant for pig farmers.
Answer questions about herd health, reproduction, vaccination and feeding.
Be concise and practical. When a situation may need a veterinarian, say so clearly.
If an image is attached, describe what you observe before giving advice.`

// FarmContext renders the dashboard summary as plain text for the assistant.
func FarmContext(s dashboard.Summary) string {
	var b strings.Builder
	b.WriteString("Current farm situation:\n")
	fmt.Fprintf(&b, "- Animals: %d total, %d in the active herd\n", s.Stats.TotalAnimals, s.Stats.ActiveHerd)

	if len(s.Stats.ByStatus) > 0 {
		keys := make([]string, 0, len(s.Stats.ByStatus))
		for k := range s.Stats.ByStatus {
			keys = append(keys, string(k))
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s %d", k, s.Stats.ByStatus[models.AnimalStatus(k)]))
		}
		fmt.Fprintf(&b, "- By status: %s\n", strings.Join(parts, ", "))
	}

	fmt.Fprintf(&b, "- Open health cases: %d\n", s.Stats.OpenHealthCases)
	fmt.Fprintf(&b, "- Active gestations: %d\n", s.Stats.ActiveGestations)
	fmt.Fprintf(&b, "- Pending vaccinations: %d\n", s.Stats.PendingVaccinations)

	for _, birth := range s.UpcomingBirths {
		if birth.Overdue {
			fmt.Fprintf(&b, "- %s farrowing overdue by %d days\n", birth.SowName, -birth.DaysUntilDue)
			continue
		}
		fmt.Fprintf(&b, "- %s due to farrow in %d days\n", birth.SowName, birth.DaysUntilDue)
	}
	for _, a := range s.Alerts {
		fmt.Fprintf(&b, "- [%s] %s\n", a.Priority, a.Title)
	}
	fmt.Fprintf(&b, "- Feed in stock: %.0f, fed over the last 7 days: %.0f kg\n", s.Feed.StockQuantity, s.Feed.WeekFeedingQuantity)
	return b.String()
}
