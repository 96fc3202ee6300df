package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/hpungsan/suitecov/internal/artifact"
	"github.com/hpungsan/suitecov/internal/coverage"
	"github.com/hpungsan/suitecov/internal/ops"
)

// BrowseMarkdown writes the case browser as one collapsible section per folder.
func BrowseMarkdown(w io.Writer, out *ops.BrowseOutput) error {
	var b strings.Builder
	md := &mdWriter{b: &b}

	md.line("# Test Case Browser")
	md.line("")
	md.line("**Total Test Cases:** %d across %d folders (module depth %d)", out.TotalCases, len(out.Folders), out.Depth)
	md.line("")

	for _, f := range out.Folders {
		summary := fmt.Sprintf("<strong>%s</strong> (%d test cases, %d covered)", f.Module, f.Total, f.Covered)
		md.details(summary, func() {
			rows := make([][]string, 0, len(f.Cases))
			for _, c := range f.Cases {
				tags := "-"
				if len(c.Tags) > 0 {
					tags = "`" + artifact.JoinTags(c.Tags) + "`"
				}
				rows = append(rows, []string{"**" + c.Name + "**", c.Summary, tags, suiteNames(c.Suites)})
			}
			md.table([]string{"Test Case", "Description", "Tags", "Suites"}, rows)
		})
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// BrowseConsole writes the case browser as an indented listing.
func BrowseConsole(w io.Writer, out *ops.BrowseOutput) error {
	headerColor.Fprintln(w, "TEST CASE BROWSER")
	dimColor.Fprintf(w, "%d test cases across %d folders (module depth %d)\n", out.TotalCases, len(out.Folders), out.Depth)

	for _, f := range out.Folders {
		fmt.Fprintln(w)
		sectionColor.Fprintf(w, "%s ", f.Module)
		percentColor(coverage.Percent(f.Covered, f.Total)).Fprintf(w, "(%d/%d covered)\n", f.Covered, f.Total)
		for i, c := range f.Cases {
			mark := badColor.Sprint("✗")
			if c.Covered {
				mark = goodColor.Sprint("✓")
			}
			fmt.Fprintf(w, "  %2d. %s %s\n", i+1, mark, c.Name)
			if c.Summary != "" {
				dimColor.Fprintf(w, "      %s\n", truncate(c.Summary, 100))
			}
			if len(c.Tags) > 0 {
				dimColor.Fprintf(w, "      tags: %s\n", artifact.JoinTags(c.Tags))
			}
			if len(c.Suites) > 0 {
				dimColor.Fprintf(w, "      suites: %s\n", suiteNames(c.Suites))
			}
		}
	}
	return nil
}

func suiteNames(refs []artifact.SuiteRef) string {
	if len(refs) == 0 {
		return "-"
	}
	names := make([]string, len(refs))
	for i, r := range refs {
		names[i] = r.Name
	}
	return strings.Join(names, ", ")
}
