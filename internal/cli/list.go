package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/solvent/pkg/pool"
)

// NewListCmd creates the list command.
func NewListCmd() *cobra.Command {
	var (
		nameFilter string
		available  bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List installed packages",
		Long: `List the packages of the installed repository.

Use --name to filter packages by name and --available to list the packages
of every enabled repository instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd, nameFilter, available)
		},
	}

	cmd.Flags().StringVar(&nameFilter, "name", "", "Filter packages by name (partial match)")
	cmd.Flags().BoolVar(&available, "available", false, "List packages of all enabled repositories")

	return cmd
}

func runList(cmd *cobra.Command, nameFilter string, available bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	p, err := openPool(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	var ids []pool.Id
	if available {
		ids = p.ConsideredSolvables()
	} else if repo := p.Installed(); repo != nil {
		ids = repo.Solvables()
	}
	p.SortSolvables(ids)

	var found []*pool.Solvable
	for _, id := range ids {
		s := p.Solvable(id)
		if nameFilter == "" || strings.Contains(s.Name(), nameFilter) {
			found = append(found, s)
		}
	}

	out := cmd.OutOrStdout()
	if structured(cfg) {
		results := make([]searchResult, 0, len(found))
		for _, s := range found {
			results = append(results, searchResult{Name: s.Name(), EVR: s.EVR(), Arch: s.Arch(), Repo: s.Repo().Name(), Summary: s.LookupStr(pool.KeySummary)})
		}
		return writeStructured(out, cfg.Settings.OutputFormat, results)
	}

	if len(found) == 0 {
		if available {
			_, _ = fmt.Fprintln(out, "No packages available")
		} else {
			_, _ = fmt.Fprintln(out, "No packages installed")
		}
		return nil
	}

	table := newTable()
	table.AddRow("NAME", "VERSION", "ARCH", "REPOSITORY", "SUMMARY")
	for _, s := range found {
		solvableRow(table, s)
	}
	_, _ = fmt.Fprintln(out, table)
	return nil
}
