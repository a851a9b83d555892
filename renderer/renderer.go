// Package renderer turns portfolio state into markdown reports, and markdown
// into HTML for export.
package renderer

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"text/template"
)

//go:embed templates/*.md
var templates embed.FS

var funcs = template.FuncMap{"join": strings.Join}

// RenderSummary renders the full report: balances then holdings.
func RenderSummary(r *Report) string {
	partials := map[string]string{
		"report_title":   "report_title.md",
		"report_totals":  "report_totals.md",
		"holdings_table": "holdings_table.md",
		"unpriced":       "unpriced.md",
	}
	return renderTemplate("summary", "summary.md", partials, r)
}

// RenderHoldings renders the holdings table only.
func RenderHoldings(r *Report) string {
	partials := map[string]string{
		"report_title":   "report_title.md",
		"holdings_table": "holdings_table.md",
		"unpriced":       "unpriced.md",
	}
	return renderTemplate("holdings", "holdings.md", partials, r)
}

// RenderTransactions renders a ledger.
func RenderTransactions(l *Ledger) string {
	return renderTemplate("transactions", "transactions.md", nil, l)
}

// renderTemplate is a generic utility to render a main template that depends on several partials.
func renderTemplate(templateName, mainFile string, partials map[string]string, data any) string {
	mainContent, err := fs.ReadFile(templates, "templates/"+mainFile)
	if err != nil {
		return fmt.Sprintf("error reading main template %q: %v", mainFile, err)
	}

	tmpl, err := template.New(templateName).Funcs(funcs).Parse(string(mainContent))
	if err != nil {
		return fmt.Sprintf("error parsing main template %q: %v", mainFile, err)
	}

	for name, file := range partials {
		content, err := fs.ReadFile(templates, "templates/"+file)
		if err != nil {
			return fmt.Sprintf("error reading partial template %q: %v", file, err)
		}
		if _, err := tmpl.New(name).Parse(string(content)); err != nil {
			return fmt.Sprintf("error parsing partial template %q for %q: %v", file, name, err)
		}
	}

	var b strings.Builder
	if err := tmpl.ExecuteTemplate(&b, templateName, data); err != nil {
		return fmt.Sprintf("error executing template %q: %v", templateName, err)
	}
	return b.String()
}
