package notify

const emailHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>ASX Announcements – {{.Date.Format "2006-01-02"}}</title>
  <style>
    body {
      margin: 0;
      padding: 24px;
      background-color: #f3f4f6;
      font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
      color: #111827;
      line-height: 1.5;
    }

    .container {
      max-width: 760px;
      margin: 0 auto;
      background: #ffffff;
      border-radius: 8px;
      border: 1px solid #e5e7eb;
      overflow: hidden;
    }

    .header {
      padding: 20px 24px;
      background: linear-gradient(135deg, #463737 0%, #37393b 100%);
      color: #ffffff;
    }

    .heading {
      font-size: 22px;
      font-weight: 700;
      letter-spacing: 0.03em;
      margin-bottom: 4px;
    }

    .subheading {
      font-size: 14px;
      opacity: 0.9;
    }

    .section {
      padding: 16px 24px;
      border-top: 1px solid #f3f4f6;
    }

    .section-title {
      font-size: 11px;
      font-weight: 700;
      color: #6b7280;
      text-transform: uppercase;
      letter-spacing: 0.1em;
      margin-bottom: 12px;
    }

    table.rows {
      width: 100%;
      border-collapse: collapse;
      font-size: 13px;
    }

    table.rows th {
      text-align: left;
      color: #6b7280;
      font-weight: 600;
      padding: 4px 8px 4px 0;
      border-bottom: 1px solid #e5e7eb;
    }

    table.rows td {
      padding: 6px 8px 6px 0;
      border-bottom: 1px solid #f3f4f6;
      vertical-align: top;
    }

    .ticker {
      font-weight: 700;
      letter-spacing: 0.05em;
    }

    .summary-list {
      margin: 0;
      padding-left: 20px;
      font-size: 14px;
    }

    .summary-list li {
      margin-bottom: 8px;
      padding-left: 4px;
    }

    .footer {
      padding: 16px 24px;
      font-size: 12px;
      color: #9ca3af;
      text-align: center;
      background: #f9fafb;
      border-top: 1px solid #f3f4f6;
    }

    a {
      color: #0b3d91;
      text-decoration: none;
    }
  </style>
</head>
<body>
  <div class="container">
    <div class="header">
      <div class="heading">ASX Announcements</div>
      <div class="subheading">Morning of {{.Date.Format "02 Jan 2006"}} · {{len .Table}} announcements · {{len .Sensitive}} market sensitive</div>
    </div>

    {{if .Digest}}
      {{if .Digest.Summary}}
      <div class="section">
        <div class="section-title">AI Summary</div>
        <ul class="summary-list">
          {{range .Digest.Summary}}
          <li>{{.}}</li>
          {{end}}
        </ul>
      </div>
      {{end}}

      {{if .Digest.Highlights}}
      <div class="section">
        <div class="section-title">Highlights</div>
        <ul class="summary-list">
          {{range .Digest.Highlights}}
          <li><span class="ticker">{{.Symbol}}</span> {{.Note}}</li>
          {{end}}
        </ul>
      </div>
      {{end}}
    {{end}}

    {{with .Sensitive}}
    <div class="section">
      <div class="section-title">Market Sensitive</div>
      <table class="rows">
        <tr><th>Code</th><th>Close</th><th>O-C</th><th>H-L</th><th>Headline</th></tr>
        {{range .}}
        <tr>
          <td class="ticker">{{.Symbol}}</td>
          <td>{{price .Close}}</td>
          <td>{{pct .OCChangePct}}</td>
          <td>{{pct .HLChangePct}}</td>
          <td><a href="{{.Link}}" target="_blank" rel="noopener">{{.Headline}}</a></td>
        </tr>
        {{end}}
      </table>
    </div>
    {{end}}

    <div class="section">
      <div class="section-title">Listings</div>
      <table class="rows">
        {{range .Listings}}
        <tr>
          <td>{{.Endpoint}}</td>
          {{if .Err}}<td>unavailable</td>{{else}}<td>{{.Parsed}} rows, {{.Skipped}} skipped</td>{{end}}
        </tr>
        {{end}}
      </table>
    </div>

    <div class="footer">
      Full table attached{{if .Filename}} as {{.Filename}}{{end}}. Generated {{.GeneratedAt.Format "2006-01-02 15:04:05"}}.
    </div>
  </div>
</body>
</html>`
