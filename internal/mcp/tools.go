package mcp

import "github.com/mark3labs/mcp-go/mcp"

var summaryToolDef = mcp.NewTool("coverage_summary",
	mcp.WithDescription("Headline coverage numbers: case, suite and tag counts, covered and uncovered cases, coverage percent and unresolved links."),
	mcp.WithReadOnlyHintAnnotation(true),
)

var modulesToolDef = mcp.NewTool("coverage_modules",
	mcp.WithDescription("Coverage grouped by module, the first folders below \"Test Cases\"."),
	mcp.WithNumber("depth",
		mcp.Description("Folder depth that forms a module key (default: config module_depth)"),
		mcp.Min(1),
	),
	mcp.WithReadOnlyHintAnnotation(true),
)

var browseToolDef = mcp.NewTool("coverage_browse",
	mcp.WithDescription("Every test case grouped by module path, with description summary, tags and covering suites."),
	mcp.WithNumber("depth",
		mcp.Description("Folder depth that forms a module path (default: config module_depth)"),
		mcp.Min(1),
	),
	mcp.WithString("module",
		mcp.Description("Only this module path and the folders below it, e.g. \"Test Cases/Shop\""),
	),
	mcp.WithReadOnlyHintAnnotation(true),
)

var classesToolDef = mcp.NewTool("coverage_classes",
	mcp.WithDescription("Priority and test type distributions with covered counts, plus coverage of the critical tag."),
	mcp.WithReadOnlyHintAnnotation(true),
)

var suitesToolDef = mcp.NewTool("coverage_suites",
	mcp.WithDescription("Suite inventory: effective size of every suite, split into active and empty, with counts per kind."),
	mcp.WithReadOnlyHintAnnotation(true),
)

var collectionsToolDef = mcp.NewTool("coverage_collections",
	mcp.WithDescription("Suite collections with their members, run flags and whether each member suite resolves."),
	mcp.WithReadOnlyHintAnnotation(true),
)

var reusedToolDef = mcp.NewTool("coverage_reused",
	mcp.WithDescription("Test cases covered by two or more suites, most reused first."),
	mcp.WithNumber("limit", mcp.Description("Max items (default 50, max 500)")),
	mcp.WithNumber("offset", mcp.Description("Items to skip")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var uncoveredToolDef = mcp.NewTool("coverage_uncovered",
	mcp.WithDescription("Test cases that no suite covers, by name."),
	mcp.WithNumber("limit", mcp.Description("Max items (default 50, max 500)")),
	mcp.WithNumber("offset", mcp.Description("Items to skip")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var matchToolDef = mcp.NewTool("coverage_match",
	mcp.WithDescription("Evaluate a dynamic suite filter against every test case. "+
		"Syntax: name=(prefix1,prefix2) tag=(t1,t2). Names match any prefix; every tag must be present."),
	mcp.WithString("filter",
		mcp.Required(),
		mcp.Description("Filter expression, e.g. \"name=(AC-) tag=(api,smoke)\""),
	),
	mcp.WithNumber("limit", mcp.Description("Max items (default 50, max 500)")),
	mcp.WithNumber("offset", mcp.Description("Items to skip")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var caseToolDef = mcp.NewTool("coverage_case",
	mcp.WithDescription("Look up one test case and list the suites that cover it."),
	mcp.WithString("ref",
		mcp.Required(),
		mcp.Description("Row id, GUID, or path relative to the project root"),
	),
	mcp.WithReadOnlyHintAnnotation(true),
)

var tagsToolDef = mcp.NewTool("coverage_tags",
	mcp.WithDescription("Most used tags with the number of test cases carrying each."),
	mcp.WithNumber("limit", mcp.Description("Max tags (default: config top_tags_limit; negative returns all)")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var recommendationsToolDef = mcp.NewTool("coverage_recommendations",
	mcp.WithDescription("Actionable findings derived from the current coverage numbers."),
	mcp.WithReadOnlyHintAnnotation(true),
)
