package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/solvent/pkg/arch"
	"github.com/glorpus-work/solvent/pkg/errutils"
)

// NewArchCmd creates the arch command.
func NewArchCmd() *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "arch [CANDIDATE...]",
		Short: "Show architecture compatibility",
		Long: `Print the configured host architecture. With candidates, report for
each whether the host can install packages built for it and how it ranks.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runArch(cmd, args, list)
		},
	}

	cmd.Flags().BoolVar(&list, "list", false, "List every known architecture")

	return cmd
}

type archResult struct {
	Arch       string `json:"arch" yaml:"arch"`
	Compatible bool   `json:"compatible" yaml:"compatible"`
	Score      int    `json:"score,omitempty" yaml:"score,omitempty"`
}

func runArch(cmd *cobra.Command, args []string, list bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	host, err := cfg.HostInfo()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if list {
		args = arch.Names()
	}
	if len(args) == 0 {
		if structured(cfg) {
			return writeStructured(out, cfg.Settings.OutputFormat, host)
		}
		_, _ = fmt.Fprintf(out, "%s (%s)\n", host.NativeArch(), host.Family())
		return nil
	}

	results := make([]archResult, 0, len(args))
	for _, name := range args {
		name = arch.NormalizeArch(name)
		if !arch.Known(name) {
			return errutils.ErrArchWithName(name)
		}
		score, ok := host.Score(name)
		results = append(results, archResult{Arch: name, Compatible: ok, Score: score})
	}
	if structured(cfg) {
		return writeStructured(out, cfg.Settings.OutputFormat, results)
	}

	table := newTable()
	table.AddRow("ARCH", "INSTALLABLE ON "+host.NativeArch(), "RANK")
	for _, r := range results {
		verdict, rank := red("no"), ""
		if r.Compatible {
			verdict, rank = green("yes"), fmt.Sprint(r.Score)
		}
		table.AddRow(r.Arch, verdict, rank)
	}
	_, _ = fmt.Fprintln(out, table)
	return nil
}
