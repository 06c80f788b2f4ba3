package main

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/scylladb/termtables"

	"github.com/adamscao/certwatch/internal/models"
	"github.com/adamscao/certwatch/internal/policy"
)

const timeLayout = "2006-01-02 15:04:05"

var statusColors = map[policy.Status]*color.Color{
	policy.Healthy:       color.New(color.FgGreen),
	policy.DueForRenewal: color.New(color.FgYellow),
	policy.Expired:       color.New(color.FgRed, color.Bold),
	policy.Unknown:       color.New(color.FgHiBlack),
}

func colorStatus(s policy.Status) string {
	if c, ok := statusColors[s]; ok {
		return c.Sprint(string(s))
	}
	return string(s)
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.UTC().Format(timeLayout)
}

func statusTable(statuses []models.HostStatus) string {
	table := termtables.CreateTable()
	table.AddHeaders("Host", "Status", "Provider", "Duration", "Last Issued", "Renew By", "Expires")

	for _, st := range statuses {
		table.AddRow(
			st.CommonName,
			colorStatus(st.Status),
			st.ProviderLabel,
			fmt.Sprintf("%dd", st.Duration),
			formatTime(st.MostRecentTimestamp),
			formatTime(st.NextExpectedRenewal),
			formatTime(st.ExpiresAt),
		)
	}

	return table.Render()
}

func historyTable(records []*models.IssuanceRecord) string {
	table := termtables.CreateTable()
	table.AddHeaders("ID", "Issued", "Provider", "Duration", "SANs")

	for _, r := range records {
		provider := r.Provider
		if provider == "" {
			provider = "-"
		}
		table.AddRow(r.ID, r.Timestamp.UTC().Format(timeLayout), provider, fmt.Sprintf("%dd", r.Duration), len(r.SANs))
	}

	return table.Render()
}

func notificationTable(logs []*models.NotificationLog) string {
	table := termtables.CreateTable()
	table.AddHeaders("ID", "Sent", "Sink", "Expired", "Due", "Result")

	for _, l := range logs {
		result := color.GreenString("delivered")
		if !l.Success {
			result = color.RedString("failed: %s", l.ErrorMsg)
		}
		table.AddRow(l.ID, l.SentAt.UTC().Format(timeLayout), l.Sink, l.ExpiredCount, l.DueCount, result)
	}

	return table.Render()
}

func printReport(w io.Writer, report *models.NotificationReport) {
	if report.Empty() {
		fmt.Fprintln(w, color.GreenString("All certificates are healthy"))
		return
	}

	for _, host := range report.Expired {
		fmt.Fprintf(w, "%s %s\n", colorStatus(policy.Expired), host)
	}
	for _, host := range report.DueForRenewal {
		fmt.Fprintf(w, "%s %s\n", colorStatus(policy.DueForRenewal), host)
	}
}
