package cli

// Default values for CLI flags and output.
const (
	// DefaultSearchLimit is the default number of search results to show.
	DefaultSearchLimit = 50
	// MaxSummaryLength is the maximum length of a summary in tables.
	MaxSummaryLength = 50
	// MaxColumnWidth caps uitable columns.
	MaxColumnWidth = 60

	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)
