package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"

	"github.com/smallnest/compintel/model"
	"github.com/smallnest/compintel/pipeline"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	scoreStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	sectionStyle = lipgloss.NewStyle().Bold(true).Underline(true)
)

// TerminalSummary renders the result as a styled plain-text block for
// the terminal.
func TerminalSummary(result *pipeline.Result) string {
	var sb strings.Builder
	rec := result.Record

	sb.WriteString(titleStyle.Render(fmt.Sprintf("%s (%s)", rec.Name, rec.Domain)))
	sb.WriteString("\n")
	sb.WriteString(labelStyle.Render("run ") + result.RunID + "\n\n")

	sb.WriteString(sectionStyle.Render("Position") + "\n")
	sb.WriteString(labelStyle.Render("Strategy (X):   ") + scoreStyle.Render(formatScore(result.Scores.XScore)) + "\n")
	sb.WriteString(labelStyle.Render("Complexity (Y): ") + scoreStyle.Render(formatScore(result.Scores.YScore)) + "\n")
	sb.WriteString(labelStyle.Render("Scored:         ") +
		fmt.Sprintf("%d/%d attributes", result.Scores.ScoredCount(), len(result.Scores.Attributes)) + "\n")

	if result.Insights != nil && !result.Insights.Empty() {
		sb.WriteString("\n" + sectionStyle.Render("Insights") + "\n")
		writeBullets(&sb, "Strengths", result.Insights.Strengths)
		writeBullets(&sb, "Opportunities", result.Insights.Opportunities)
		writeBullets(&sb, "Risks", result.Insights.Risks)
	}

	if len(result.Warnings) > 0 {
		sb.WriteString("\n" + sectionStyle.Render("Warnings") + "\n")
		for _, warning := range result.Warnings {
			sb.WriteString(warningStyle.Render("! "+warning) + "\n")
		}
	}

	sb.WriteString("\n")
	if result.Persisted {
		sb.WriteString(labelStyle.Render("Saved as competitor ") + fmt.Sprintf("%d", result.CompetitorID) + "\n")
	} else {
		sb.WriteString(labelStyle.Render("Not persisted") + "\n")
	}
	return sb.String()
}

func writeBullets(sb *strings.Builder, label string, items []string) {
	if len(items) == 0 {
		return
	}
	sb.WriteString(labelStyle.Render(label+":") + "\n")
	for _, item := range items {
		sb.WriteString("  - " + item + "\n")
	}
}

// Markdown renders the result as a markdown document.
func Markdown(result *pipeline.Result) string {
	var sb strings.Builder
	rec := result.Record

	sb.WriteString(fmt.Sprintf("# Competitor Analysis: %s\n\n", rec.Name))
	sb.WriteString(fmt.Sprintf("- Domain: %s\n", rec.Domain))
	if rec.URL != "" {
		sb.WriteString(fmt.Sprintf("- URL: %s\n", rec.URL))
	}
	if rec.Segmento != "" {
		sb.WriteString(fmt.Sprintf("- Segment: %s\n", rec.Segmento))
	}
	sb.WriteString(fmt.Sprintf("- Run: %s\n\n", result.RunID))

	sb.WriteString("## Position\n\n")
	sb.WriteString("| Axis | Score |\n|------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Strategy (X) | %s |\n", formatScore(result.Scores.XScore)))
	sb.WriteString(fmt.Sprintf("| Complexity (Y) | %s |\n\n", formatScore(result.Scores.YScore)))

	sb.WriteString("## Attributes\n\n")
	sb.WriteString("| Attribute | Score | Confidence |\n|-----------|-------|------------|\n")
	for _, row := range sortedAttributes(result.Scores) {
		sb.WriteString(fmt.Sprintf("| %s | %s | %.2f |\n", row.code, formatScore(row.attr.RawScore), row.attr.Confidence))
	}
	sb.WriteString("\n")

	if result.Insights != nil && !result.Insights.Empty() {
		sb.WriteString("## Insights\n\n")
		markdownBullets(&sb, "Strengths", result.Insights.Strengths)
		markdownBullets(&sb, "Opportunities", result.Insights.Opportunities)
		markdownBullets(&sb, "Risks", result.Insights.Risks)
	}

	if len(result.Warnings) > 0 {
		sb.WriteString("## Warnings\n\n")
		for _, warning := range result.Warnings {
			sb.WriteString("- " + warning + "\n")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func markdownBullets(sb *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	sb.WriteString("### " + heading + "\n\n")
	for _, item := range items {
		sb.WriteString("- " + item + "\n")
	}
	sb.WriteString("\n")
}

// HTML renders the result as a standalone sanitized HTML page.
func HTML(result *pipeline.Result) []byte {
	extensions := parser.CommonExtensions | parser.AutoHeadingIDs
	p := parser.NewWithExtensions(extensions)
	doc := p.Parse([]byte(Markdown(result)))

	htmlFlags := mdhtml.CommonFlags | mdhtml.HrefTargetBlank
	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{Flags: htmlFlags})
	body := markdown.Render(doc, renderer)

	body = bluemonday.UGCPolicy().SanitizeBytes(body)

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	sb.WriteString(fmt.Sprintf("<title>Competitor Analysis: %s</title>\n", result.Record.Name))
	sb.WriteString("<style>body{font-family:sans-serif;max-width:60rem;margin:2rem auto;padding:0 1rem}table{border-collapse:collapse}td,th{border:1px solid #ccc;padding:.3rem .6rem}</style>\n")
	sb.WriteString("</head>\n<body>\n")
	sb.Write(body)
	sb.WriteString("\n</body>\n</html>\n")
	return []byte(sb.String())
}

type attrRow struct {
	code string
	attr model.AttributeScore
}

// sortedAttributes fixes the attribute order; map iteration would
// shuffle the table between runs.
func sortedAttributes(scores *model.ScoreSet) []attrRow {
	rows := make([]attrRow, 0, len(scores.Attributes))
	for code, attr := range scores.Attributes {
		rows = append(rows, attrRow{code: code, attr: attr})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].code < rows[j].code })
	return rows
}

func formatScore(score *float64) string {
	if score == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.1f", *score)
}
