package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/solvent/pkg/errutils"
	"github.com/glorpus-work/solvent/pkg/pool"
)

type searchOptions struct {
	exact      bool
	glob       bool
	regex      bool
	ignoreCase bool
	files      bool
	key        string
	limit      int
}

func (o searchOptions) matchFlags() (pool.MatchFlags, error) {
	var flags pool.MatchFlags
	n := 0
	for _, m := range []struct {
		on   bool
		flag pool.MatchFlags
	}{
		{o.exact, pool.MatchExact},
		{o.glob, pool.MatchGlob},
		{o.regex, pool.MatchRegex},
	} {
		if m.on {
			flags |= m.flag
			n++
		}
	}
	if n > 1 {
		return 0, errutils.ErrOpWithDetails("--exact, --glob and --regex are mutually exclusive")
	}
	if n == 0 {
		flags |= pool.MatchSubstring
	}
	if o.ignoreCase {
		flags |= pool.MatchNoCase
	}
	if o.files {
		flags |= pool.SearchFiles
	}
	return flags, nil
}

// NewSearchCmd creates the search command.
func NewSearchCmd() *cobra.Command {
	opts := searchOptions{}

	cmd := &cobra.Command{
		Use:   "search PATTERN",
		Short: "Search for packages",
		Long: `Search the package attributes of all enabled repositories.

By default PATTERN matches as a substring of any text attribute (name,
summary, description, url, ...). --key restricts the search to one attribute
and --files searches the file lists instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.exact, "exact", false, "Match the whole value")
	cmd.Flags().BoolVar(&opts.glob, "glob", false, "Treat PATTERN as a shell glob")
	cmd.Flags().BoolVar(&opts.regex, "regex", false, "Treat PATTERN as a regular expression")
	cmd.Flags().BoolVarP(&opts.ignoreCase, "ignore-case", "i", false, "Match case-insensitively")
	cmd.Flags().BoolVar(&opts.files, "files", false, "Search file lists")
	cmd.Flags().StringVar(&opts.key, "key", "", "Search only this attribute (name, summary, description, ...)")
	cmd.Flags().IntVar(&opts.limit, "limit", DefaultSearchLimit, "Maximum number of results (0 for no limit)")

	return cmd
}

type searchResult struct {
	Name    string `json:"name" yaml:"name"`
	EVR     string `json:"evr" yaml:"evr"`
	Arch    string `json:"arch" yaml:"arch"`
	Repo    string `json:"repo" yaml:"repo"`
	Summary string `json:"summary,omitempty" yaml:"summary,omitempty"`
}

func runSearch(cmd *cobra.Command, pattern string, opts searchOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	flags, err := opts.matchFlags()
	if err != nil {
		return err
	}
	key := pool.KeyNone
	if opts.key != "" {
		k, ok := pool.ParseKey(opts.key)
		if !ok {
			return errutils.ErrOpWithDetails("unknown attribute %q", opts.key)
		}
		key = k
	}

	p, err := openPool(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	found, err := p.Search(pattern, flags, key)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	total := len(found)
	if opts.limit > 0 && len(found) > opts.limit {
		found = found[:opts.limit]
	}

	out := cmd.OutOrStdout()
	if structured(cfg) {
		results := make([]searchResult, 0, len(found))
		for _, s := range found {
			r := searchResult{Name: s.Name(), EVR: s.EVR(), Arch: s.Arch(), Summary: s.LookupStr(pool.KeySummary)}
			if s.Repo() != nil {
				r.Repo = s.Repo().Name()
			}
			results = append(results, r)
		}
		return writeStructured(out, cfg.Settings.OutputFormat, results)
	}

	if total == 0 {
		_, _ = fmt.Fprintf(out, "No packages found matching '%s'\n", pattern)
		return nil
	}

	table := newTable()
	table.AddRow("NAME", "VERSION", "ARCH", "REPOSITORY", "SUMMARY")
	for _, s := range found {
		solvableRow(table, s)
	}
	_, _ = fmt.Fprintln(out, table)
	if total > len(found) {
		_, _ = fmt.Fprintf(out, "\nShowing %d of %d package(s) matching '%s'\n", len(found), total, pattern)
	} else {
		_, _ = fmt.Fprintf(out, "\nFound %d package(s) matching '%s'\n", total, pattern)
	}
	return nil
}
