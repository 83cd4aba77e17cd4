package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"strconv"
	"strings"
	"time"

	"github.com/shanehull/asxreport/internal/ai"
	"github.com/shanehull/asxreport/internal/report"
	"github.com/shanehull/asxreport/internal/types"
)

// ReportData is everything the email templates can show.
type ReportData struct {
	Date        time.Time
	GeneratedAt time.Time
	Filename    string
	Table       types.ReportTable
	Listings    []report.ListingResult
	Digest      *ai.Digest
}

// Sensitive returns the market sensitive rows of the report.
func (d ReportData) Sensitive() types.ReportTable {
	return d.Table.MarketSensitive()
}

// RenderedMessage is a subject plus plain text and HTML bodies.
type RenderedMessage struct {
	Subject string
	Text    string
	HTML    string
}

// Renderer turns report data into an email.
type Renderer interface {
	Render(data ReportData) (*RenderedMessage, error)
}

// HTMLEmailRenderer renders reports as HTML emails with a plain text fallback.
type HTMLEmailRenderer struct {
	tmpl *template.Template
}

// NewHTMLEmailRenderer creates a renderer with the default email template.
func NewHTMLEmailRenderer() *HTMLEmailRenderer {
	t := template.Must(template.New("email").Funcs(template.FuncMap{
		"pct":   formatPct,
		"price": formatPrice,
	}).Parse(emailHTMLTemplate))
	return &HTMLEmailRenderer{tmpl: t}
}

// Subject returns the email subject for a report date.
func Subject(date time.Time) string {
	return "ASX Announcements for morning of: " + date.Format("2006-01-02")
}

// Render produces an HTML email with plain text alternative.
func (r *HTMLEmailRenderer) Render(data ReportData) (*RenderedMessage, error) {
	var htmlBuf bytes.Buffer
	if err := r.tmpl.Execute(&htmlBuf, data); err != nil {
		return nil, fmt.Errorf("failed to render HTML template: %w", err)
	}

	return &RenderedMessage{
		Subject: Subject(data.Date),
		Text:    renderPlainText(data),
		HTML:    htmlBuf.String(),
	}, nil
}

func formatPct(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return strconv.FormatFloat(*v, 'f', 2, 64) + "%"
}

func formatPrice(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// renderPlainText produces a readable plain text version for email clients that don't support HTML.
func renderPlainText(data ReportData) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Generated and sent: %s\n\n", data.GeneratedAt.Format("2006-01-02 15:04:05")))
	sb.WriteString(fmt.Sprintf("Report date: %s\n", data.Date.Format("2006-01-02")))
	sb.WriteString(fmt.Sprintf("Announcements: %d (market sensitive: %d)\n", len(data.Table), len(data.Sensitive())))
	if data.Filename != "" {
		sb.WriteString(fmt.Sprintf("Attached: %s\n", data.Filename))
	}
	sb.WriteString("\n")

	for _, l := range data.Listings {
		if l.Err != nil {
			sb.WriteString(fmt.Sprintf("- %s: unavailable (%v)\n", l.Endpoint, l.Err))
			continue
		}
		sb.WriteString(fmt.Sprintf("- %s: %d rows, %d skipped, %d without prices\n",
			l.Endpoint, l.Parsed, l.Skipped, l.PriceMissing+l.PriceFailures))
	}
	sb.WriteString("\n")

	if d := data.Digest; d != nil {
		if len(d.Summary) > 0 {
			sb.WriteString("AI SUMMARY\n")
			sb.WriteString(strings.Repeat("-", 20) + "\n")
			for _, s := range d.Summary {
				sb.WriteString(fmt.Sprintf("• %s\n", s))
			}
			sb.WriteString("\n")
		}
		if len(d.Highlights) > 0 {
			sb.WriteString("HIGHLIGHTS\n")
			sb.WriteString(strings.Repeat("-", 20) + "\n")
			for _, h := range d.Highlights {
				sb.WriteString(fmt.Sprintf("• [%s] %s\n", h.Symbol, h.Note))
			}
			sb.WriteString("\n")
		}
	}

	if sens := data.Sensitive(); len(sens) > 0 {
		sb.WriteString("MARKET SENSITIVE\n")
		sb.WriteString(strings.Repeat("-", 20) + "\n")
		for _, a := range sens {
			sb.WriteString(fmt.Sprintf("%s  O-C %s  H-L %s  %s\n", a.Symbol, formatPct(a.OCChangePct), formatPct(a.HLChangePct), a.Headline))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("May the odds be ever in your favour.\n")
	return sb.String()
}
