package digest

import (
	"fmt"
	"strings"

	"github.com/jonathan/talent-board/internal/types"
)

// Compose renders the digest subject and plain-text body for one user.
func Compose(user types.User, postings []types.Posting) (subject, body string) {
	subject = fmt.Sprintf("%d new job postings for you", len(postings))
	if len(postings) == 1 {
		subject = "A new job posting for you"
	}

	var sb strings.Builder
	name := user.Name
	if name == "" {
		name = "there"
	}
	fmt.Fprintf(&sb, "Hi %s,\n\n", name)
	sb.WriteString("Here are recent postings that may match your profile:\n\n")

	for _, p := range postings {
		fmt.Fprintf(&sb, "  * %s at %s", p.Title, p.Company)
		if p.Location != "" {
			fmt.Fprintf(&sb, " - %s", p.Location)
		}
		sb.WriteString("\n")
		if line := salaryLine(p.Salary); line != "" {
			fmt.Fprintf(&sb, "    %s\n", line)
		}
	}

	sb.WriteString("\nYou receive this digest because job notifications are enabled on your account.\n")
	return subject, sb.String()
}

func salaryLine(s types.SalaryRange) string {
	if s.Min == 0 && s.Max == 0 {
		return ""
	}
	currency := s.Currency
	if currency == "" {
		currency = "USD"
	}
	period := s.Period
	if period == "" {
		period = types.SalaryYearly
	}
	switch {
	case s.Min > 0 && s.Max > 0:
		return fmt.Sprintf("%d-%d %s (%s)", s.Min, s.Max, currency, period)
	case s.Min > 0:
		return fmt.Sprintf("from %d %s (%s)", s.Min, currency, period)
	default:
		return fmt.Sprintf("up to %d %s (%s)", s.Max, currency, period)
	}
}
