package notifier

import (
	"fmt"
	"strings"
	"time"

	"github.com/adamscao/certwatch/internal/models"
)

// RenderReport formats a report as a plain text message body
func RenderReport(report models.NotificationReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Certificate renewal report generated %s\n", report.GeneratedAt.UTC().Format(time.RFC3339))

	section := func(title string, hosts []string) {
		if len(hosts) == 0 {
			return
		}
		fmt.Fprintf(&b, "\n%s (%d):\n", title, len(hosts))
		for _, host := range hosts {
			fmt.Fprintf(&b, "  - %s\n", host)
		}
	}

	section("Expired", report.Expired)
	section("Due for renewal", report.DueForRenewal)

	if report.Empty() {
		b.WriteString("\nAll certificates are healthy.\n")
	}

	return b.String()
}
