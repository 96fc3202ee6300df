// Package report renders an ops.Report as Markdown or as colored console text.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/hpungsan/suitecov/internal/artifact"
	"github.com/hpungsan/suitecov/internal/coverage"
	"github.com/hpungsan/suitecov/internal/ops"
)

// Markdown writes rep as a Markdown document.
func Markdown(w io.Writer, rep *ops.Report) error {
	var b strings.Builder
	md := &mdWriter{b: &b}

	md.line("# Test Automation Coverage Report")
	md.line("")
	md.line("*Generated %s (report %s)*", formatTime(rep.GeneratedAt), rep.ID)
	md.line("")

	s := rep.Summary
	md.line("## Executive Summary")
	md.line("")
	md.table([]string{"Metric", "Value"}, [][]string{
		{"Test Cases", strconv.Itoa(s.TotalCases)},
		{"Test Suites", fmt.Sprintf("%d (%d static, %d dynamic, %d collections)", s.TotalSuites, s.StaticSuites, s.DynamicSuites, s.Collections)},
		{"Tags", strconv.Itoa(s.TotalTags)},
		{"Covered Test Cases", fmt.Sprintf("%d (%s)", s.Covered, pct(s.CoveragePercent))},
		{"Explicitly Linked", strconv.Itoa(s.ExplicitCovered)},
		{"Matched by Filters", strconv.Itoa(s.DynamicCovered)},
		{"Uncovered Test Cases", strconv.Itoa(s.Uncovered)},
		{"Total Executions", strconv.Itoa(s.TotalExecutions)},
		{"Unresolved Links", strconv.Itoa(s.UnresolvedLinks)},
	})

	if m := rep.Maturity; m != nil {
		md.line("## Automation Maturity")
		md.line("")
		md.table([]string{"Metric", "Value"}, [][]string{
			{"Cases with Variables", fmt.Sprintf("%d (%s)", m.WithVariables, pct(coverage.Percent(m.WithVariables, m.Total)))},
			{"Cases with Data Links", fmt.Sprintf("%d (%s)", m.WithDataLinks, pct(coverage.Percent(m.WithDataLinks, m.Total)))},
			{"Avg Description Length", fmt.Sprintf("%.1f", m.AvgDescriptionLength)},
		})
		rows := make([][]string, 0, len(m.Kinds))
		for _, k := range m.Kinds {
			avg := "-"
			if k.AvgFilterLength > 0 {
				avg = fmt.Sprintf("%.1f", k.AvgFilterLength)
			}
			rows = append(rows, []string{artifact.SuiteKind(k.Kind).Alias(), strconv.Itoa(k.Count), avg})
		}
		md.table([]string{"Suite Kind", "Count", "Avg Filter Length"}, rows)
	}

	if rep.Modules != nil {
		md.line("## Coverage by Module")
		md.line("")
		rows := make([][]string, 0, len(rep.Modules.Modules))
		for _, m := range rep.Modules.Modules {
			rows = append(rows, []string{m.Key, strconv.Itoa(m.Covered), strconv.Itoa(m.Total), pct(m.Percent)})
		}
		md.table([]string{"Module", "Covered", "Total", "Coverage"}, rows)
	}

	if rep.Classes != nil {
		md.line("## Priority Distribution")
		md.line("")
		md.classTable(rep.Classes.Priority)
		md.line("## Test Type Distribution")
		md.line("")
		md.classTable(rep.Classes.Types)
	}

	md.line("## Top %d Tags", len(rep.TopTags))
	md.line("")
	rows := make([][]string, 0, len(rep.TopTags))
	for _, t := range rep.TopTags {
		rows = append(rows, []string{t.Tag, strconv.Itoa(t.Count)})
	}
	md.table([]string{"Tag", "Test Cases"}, rows)

	md.line("## Reused Test Cases")
	md.line("")
	md.line("**Total Reused Test Cases:** %d", len(rep.Reused))
	md.line("")
	if len(rep.Reused) > 0 {
		md.details(fmt.Sprintf("Reused test cases (%d)", len(rep.Reused)), func() {
			rows := make([][]string, 0, len(rep.Reused))
			for _, rc := range rep.Reused {
				names := make([]string, len(rc.Suites))
				for i, ref := range rc.Suites {
					names[i] = ref.Name
				}
				rows = append(rows, []string{"**" + rc.Case.Name + "**", strconv.Itoa(rc.Count), strings.Join(names, ", ")})
			}
			md.table([]string{"Test Case", "Suites", "Used In"}, rows)
		})
	}

	md.line("## Test Suite Inventory")
	md.line("")
	md.line("**Active:** %d, **Empty:** %d", len(rep.Suites.Active), len(rep.Suites.Empty))
	md.line("")
	md.sizeTable(rep.Suites.Active)
	if len(rep.Suites.Empty) > 0 {
		md.details(fmt.Sprintf("Empty suites (%d)", len(rep.Suites.Empty)), func() {
			md.sizeTable(rep.Suites.Empty)
		})
	}

	if len(rep.Collections) > 0 {
		md.line("## Test Suite Collections")
		md.line("")
		for _, c := range rep.Collections {
			md.line("### %s", c.Suite.Name)
			md.line("")
			mode := c.ExecutionMode
			if mode == "" {
				mode = "-"
			}
			md.line("Mode: %s, max concurrent: %d, enabled: %d of %d", mode, c.MaxConcurrentInstances, c.Enabled, len(c.Members))
			md.line("")
			rows := make([][]string, 0, len(c.Members))
			for _, m := range c.Members {
				status := "missing"
				if m.Resolved {
					status = strconv.Itoa(m.Size) + " cases"
				}
				rows = append(rows, []string{"`" + m.SuitePath + "`", yesNo(m.RunEnabled), m.ProfileName, m.RunConfigurationID, status})
			}
			md.table([]string{"Suite", "Enabled", "Profile", "Run Configuration", "Size"}, rows)
		}
	}

	if rep.Uncovered != nil && len(rep.Uncovered.Items) > 0 {
		md.line("## Uncovered Test Cases")
		md.line("")
		md.details(fmt.Sprintf("Uncovered test cases (%d)", len(rep.Uncovered.Items)), func() {
			rows := make([][]string, 0, len(rep.Uncovered.Items))
			for _, tc := range rep.Uncovered.Items {
				tags := artifact.JoinTags(tc.Tags)
				if tags == "" {
					tags = "No tags"
				}
				rows = append(rows, []string{"**" + tc.Name + "**", tags, "`" + tc.Path + "`"})
			}
			md.table([]string{"Test Case", "Tags", "Path"}, rows)
		})
	}

	if rep.Trend != nil && len(rep.Trend.Days) > 0 {
		md.line("## Recent Activity")
		md.line("")
		rows := make([][]string, 0, len(rep.Trend.Days))
		for _, d := range rep.Trend.Days {
			rows = append(rows, []string{d.Date, strconv.Itoa(d.Count)})
		}
		md.table([]string{"Date", "Test Cases Modified"}, rows)
	}

	md.line("## Recommendations")
	md.line("")
	for i, r := range rep.Recommendations {
		md.line("%d. %s %s", i+1, levelIcon(r.Level), r.Message)
	}
	md.line("")

	_, err := io.WriteString(w, b.String())
	return err
}

type mdWriter struct {
	b *strings.Builder
}

func (m *mdWriter) line(format string, args ...any) {
	fmt.Fprintf(m.b, format, args...)
	m.b.WriteByte('\n')
}

func (m *mdWriter) table(header []string, rows [][]string) {
	if len(rows) == 0 {
		m.line("_None._")
		m.line("")
		return
	}
	m.row(header)
	sep := make([]string, len(header))
	for i := range sep {
		sep[i] = "---"
	}
	m.row(sep)
	for _, r := range rows {
		m.row(r)
	}
	m.line("")
}

func (m *mdWriter) row(cells []string) {
	escaped := make([]string, len(cells))
	for i, c := range cells {
		escaped[i] = strings.ReplaceAll(c, "|", `\|`)
	}
	m.line("| %s |", strings.Join(escaped, " | "))
}

func (m *mdWriter) details(summary string, body func()) {
	m.line("<details>")
	m.line("<summary>%s</summary>", summary)
	m.line("")
	body()
	m.line("</details>")
	m.line("")
}

func (m *mdWriter) classTable(stats []coverage.ClassStat) {
	rows := make([][]string, 0, len(stats))
	for _, st := range stats {
		rows = append(rows, []string{st.Label, strconv.Itoa(st.Count), strconv.Itoa(st.Covered), pct(st.Percent)})
	}
	m.table([]string{"Class", "Test Cases", "Covered", "Coverage"}, rows)
}

func (m *mdWriter) sizeTable(sizes []coverage.SuiteSize) {
	rows := make([][]string, 0, len(sizes))
	for _, s := range sizes {
		filter := s.Filter
		if filter == "" {
			filter = "-"
		} else {
			filter = "`" + filter + "`"
		}
		rows = append(rows, []string{s.Suite.Name, s.Suite.Kind.Alias(), strconv.Itoa(s.Size), strconv.Itoa(s.Resolved), filter})
	}
	m.table([]string{"Suite", "Kind", "Test Cases", "Resolved", "Filter"}, rows)
}

func pct(p float64) string {
	return fmt.Sprintf("%.1f%%", p)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func formatTime(unix int64) string {
	if unix == 0 {
		return "-"
	}
	return time.Unix(unix, 0).UTC().Format("2006-01-02 15:04:05 UTC")
}

func levelIcon(level string) string {
	switch level {
	case ops.LevelWarning:
		return "⚠️"
	case ops.LevelSuccess:
		return "✅"
	}
	return "💡"
}
