/*
Package notify handles reporting of the announcement table via console output and email.
*/
package notify

import (
	"fmt"
	"io"
	"strings"
)

func formatBulletList(points []string) string {
	if len(points) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, p := range points {
		sb.WriteString(fmt.Sprintf("\t- %s\n", p))
	}
	return sb.String()
}

// PrintSummary writes a console summary of the report saved at path.
func PrintSummary(w io.Writer, data ReportData, path string) {
	if len(data.Table) == 0 {
		fmt.Fprintln(w, "\n-------------------------------------------")
		fmt.Fprintln(w, "No announcements found for today or the previous business day.")
		fmt.Fprintln(w, "-------------------------------------------")
		return
	}

	sensitive := data.Sensitive()

	fmt.Fprintln(w, "\n===========================================")
	fmt.Fprintf(w, "✅ %d ANNOUNCEMENTS (%d market sensitive) for %s\n",
		len(data.Table), len(sensitive), data.Date.Format("2006-01-02"))
	fmt.Fprintln(w, "===========================================")

	for _, l := range data.Listings {
		if l.Err != nil {
			fmt.Fprintf(w, "%s: unavailable (%v)\n", l.Endpoint, l.Err)
			continue
		}
		fmt.Fprintf(w, "%s: fetched %d, parsed %d, skipped %d, no prices %d, price errors %d\n",
			l.Endpoint, l.Fetched, l.Parsed, l.Skipped, l.PriceMissing, l.PriceFailures)
	}

	for i, a := range sensitive {
		fmt.Fprintf(w, "\n--- SENSITIVE #%d ---\n", i+1)
		fmt.Fprintf(w, "Ticker: %s\n", a.Symbol)
		fmt.Fprintf(w, "Title:  %s\n", a.Headline)
		fmt.Fprintf(w, "Date:   %s\n", a.DateTime.Format("02 Jan 2006 3:04 PM"))
		fmt.Fprintf(w, "O-C:    %s  H-L: %s\n", formatPct(a.OCChangePct), formatPct(a.HLChangePct))
		fmt.Fprintf(w, "URL:    %s\n", a.Link)
	}

	if d := data.Digest; d != nil && len(d.Summary) > 0 {
		fmt.Fprintf(w, "\nAI Summary:\n%s", formatBulletList(d.Summary))
	}

	fmt.Fprintln(w, "\n===========================================")
	fmt.Fprintf(w, "Report saved to %s.\n", path)
	fmt.Fprintln(w, "===========================================")
}
