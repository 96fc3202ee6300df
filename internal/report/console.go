package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/hpungsan/suitecov/internal/artifact"
	"github.com/hpungsan/suitecov/internal/coverage"
	"github.com/hpungsan/suitecov/internal/ops"
)

// MaxConsoleRows caps long lists in the console report.
const MaxConsoleRows = 15

var (
	headerColor  = color.New(color.FgCyan, color.Bold)
	sectionColor = color.New(color.FgCyan)
	labelColor   = color.New(color.FgWhite)
	goodColor    = color.New(color.FgGreen)
	fairColor    = color.New(color.FgYellow)
	badColor     = color.New(color.FgRed)
	dimColor     = color.New(color.Faint)
)

// Console writes a condensed, colored report for terminals. Colors follow
// color.NoColor, which is set automatically when w is not a TTY.
func Console(w io.Writer, rep *ops.Report) error {
	c := &console{w: w}

	headerColor.Fprintln(w, "TEST AUTOMATION COVERAGE REPORT")
	dimColor.Fprintf(w, "Generated %s (report %s)\n", formatTime(rep.GeneratedAt), rep.ID)

	s := rep.Summary
	c.section("EXECUTIVE SUMMARY")
	c.kv("Test Cases", fmt.Sprint(s.TotalCases))
	c.kv("Test Suites", fmt.Sprintf("%d (%d static, %d dynamic, %d collections)", s.TotalSuites, s.StaticSuites, s.DynamicSuites, s.Collections))
	c.kv("Tags", fmt.Sprint(s.TotalTags))
	c.kvColored("Coverage", fmt.Sprintf("%d/%d (%s)", s.Covered, s.TotalCases, pct(s.CoveragePercent)), s.CoveragePercent)
	c.kv("Explicitly Linked", fmt.Sprint(s.ExplicitCovered))
	c.kv("Matched by Filters", fmt.Sprint(s.DynamicCovered))
	c.kv("Total Executions", fmt.Sprint(s.TotalExecutions))
	if s.UnresolvedLinks > 0 {
		c.kv("Unresolved Links", badColor.Sprint(s.UnresolvedLinks))
	}

	if m := rep.Maturity; m != nil {
		c.section("AUTOMATION MATURITY")
		c.kv("With Variables", fmt.Sprintf("%d (%s)", m.WithVariables, pct(coverage.Percent(m.WithVariables, m.Total))))
		c.kv("With Data Links", fmt.Sprintf("%d (%s)", m.WithDataLinks, pct(coverage.Percent(m.WithDataLinks, m.Total))))
		c.kv("Avg Description", fmt.Sprintf("%.1f chars", m.AvgDescriptionLength))
		for _, k := range m.Kinds {
			c.kv(artifact.SuiteKind(k.Kind).Alias(), fmt.Sprint(k.Count))
		}
	}

	if rep.Modules != nil {
		c.section(fmt.Sprintf("COVERAGE BY MODULE (depth %d)", rep.Modules.Depth))
		for i, m := range rep.Modules.Modules {
			if i == MaxConsoleRows {
				c.more(len(rep.Modules.Modules) - i)
				break
			}
			c.bar(strings.TrimPrefix(m.Key, artifact.RootCases+"/"), m.Covered, m.Total, m.Percent)
		}
	}

	if rep.Classes != nil {
		c.section("PRIORITY DISTRIBUTION")
		c.classes(rep.Classes.Priority)
		c.section("TEST TYPE DISTRIBUTION")
		c.classes(rep.Classes.Types)
	}

	if len(rep.TopTags) > 0 {
		c.section("TOP TAGS")
		parts := make([]string, len(rep.TopTags))
		for i, t := range rep.TopTags {
			parts[i] = fmt.Sprintf("%s (%d)", t.Tag, t.Count)
		}
		fmt.Fprintf(w, "  %s\n", strings.Join(parts, ", "))
	}

	c.section("SUITES")
	c.kv("Active", fmt.Sprint(len(rep.Suites.Active)))
	c.kv("Empty", fmt.Sprint(len(rep.Suites.Empty)))
	for i, e := range rep.Suites.Empty {
		if i == MaxConsoleRows {
			c.more(len(rep.Suites.Empty) - i)
			break
		}
		fairColor.Fprintf(w, "    - %s (%s)\n", e.Suite.Name, e.Suite.Kind.Alias())
	}
	c.kv("Collections", fmt.Sprint(len(rep.Collections)))
	c.kv("Reused Cases", fmt.Sprint(len(rep.Reused)))
	for i, rc := range rep.Reused {
		if i == MaxConsoleRows {
			c.more(len(rep.Reused) - i)
			break
		}
		fmt.Fprintf(w, "    - %s (%d suites)\n", rc.Case.Name, rc.Count)
	}

	if rep.Uncovered != nil && len(rep.Uncovered.Items) > 0 {
		c.section(fmt.Sprintf("UNCOVERED TEST CASES (%d)", len(rep.Uncovered.Items)))
		for i, tc := range rep.Uncovered.Items {
			if i == MaxConsoleRows {
				c.more(len(rep.Uncovered.Items) - i)
				break
			}
			fmt.Fprintf(w, "  - %s ", tc.Name)
			dimColor.Fprintln(w, tc.Path)
		}
	}

	if rep.Trend != nil && len(rep.Trend.Days) > 0 {
		c.section("RECENT ACTIVITY")
		for _, d := range rep.Trend.Days {
			c.kv(d.Date, fmt.Sprint(d.Count))
		}
	}

	c.section("RECOMMENDATIONS")
	for i, r := range rep.Recommendations {
		levelColor(r.Level).Fprintf(w, "  %d. %s\n", i+1, r.Message)
	}
	_, err := fmt.Fprintln(w)
	return err
}

type console struct {
	w io.Writer
}

func (c *console) section(title string) {
	fmt.Fprintln(c.w)
	sectionColor.Fprintln(c.w, title)
	sectionColor.Fprintln(c.w, strings.Repeat("-", 40))
}

func (c *console) kv(key, value string) {
	labelColor.Fprintf(c.w, "  %-24s ", key+":")
	fmt.Fprintln(c.w, value)
}

func (c *console) kvColored(key, value string, percent float64) {
	labelColor.Fprintf(c.w, "  %-24s ", key+":")
	percentColor(percent).Fprintln(c.w, value)
}

// bar renders "label [#####-----] covered/total pct".
func (c *console) bar(label string, covered, total int, percent float64) {
	const width = 20
	filled := int(percent / 100 * width)
	bar := strings.Repeat("#", filled) + strings.Repeat("-", width-filled)
	fmt.Fprintf(c.w, "  %-24s ", truncate(label, 24))
	percentColor(percent).Fprintf(c.w, "[%s] %d/%d %s\n", bar, covered, total, pct(percent))
}

func (c *console) classes(stats []coverage.ClassStat) {
	if len(stats) == 0 {
		dimColor.Fprintln(c.w, "  (none)")
		return
	}
	for _, st := range stats {
		c.bar(st.Label, st.Covered, st.Count, st.Percent)
	}
}

func (c *console) more(n int) {
	dimColor.Fprintf(c.w, "    ... and %d more\n", n)
}

func percentColor(p float64) *color.Color {
	switch {
	case p >= 80:
		return goodColor
	case p >= 50:
		return fairColor
	}
	return badColor
}

func levelColor(level string) *color.Color {
	switch level {
	case ops.LevelWarning:
		return fairColor
	case ops.LevelSuccess:
		return goodColor
	}
	return labelColor
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
