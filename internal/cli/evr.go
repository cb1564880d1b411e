package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/solvent/pkg/evr"
)

// NewEVRCmd creates the evr command.
func NewEVRCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evr A B",
		Short: "Compare two versions",
		Long: `Compare two [epoch:]version[-release] strings with rpm ordering and
print A < B, A == B or A > B.`,
		Example: `  solvent evr 1.0-1 1:0.9-1
  solvent evr 2.0~rc1 2.0`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), compareText(args[0], args[1]))
			return nil
		},
	}

	return cmd
}

func compareText(a, b string) string {
	op := "=="
	switch c := evr.Compare(a, b); {
	case c < 0:
		op = "<"
	case c > 0:
		op = ">"
	}
	return fmt.Sprintf("%s %s %s", a, op, b)
}
