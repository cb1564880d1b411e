package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/solvent/pkg/errutils"
	"github.com/glorpus-work/solvent/pkg/testcase"
)

// NewTestcaseCmd creates the testcase command.
func NewTestcaseCmd() *cobra.Command {
	var show bool

	cmd := &cobra.Command{
		Use:   "testcase FILE...",
		Short: "Run solver testcases",
		Long: `Run YAML testcases. Each file describes repositories, jobs and
optionally the expected transaction and problems. Files without an expected
result print what the solve produced.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTestcases(cmd, args, show)
		},
	}

	cmd.Flags().BoolVar(&show, "show", false, "Print the outcome of every testcase")

	return cmd
}

type testcaseReport struct {
	File    string            `json:"file" yaml:"file"`
	Name    string            `json:"name" yaml:"name"`
	Status  string            `json:"status" yaml:"status"`
	Error   string            `json:"error,omitempty" yaml:"error,omitempty"`
	Outcome *testcase.Outcome `json:"outcome,omitempty" yaml:"outcome,omitempty"`
}

const (
	statusPass  = "pass"
	statusFail  = "fail"
	statusError = "error"
	statusRan   = "ran"
)

func runTestcases(cmd *cobra.Command, files []string, show bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	reports := make([]testcaseReport, 0, len(files))
	failed := 0
	for _, file := range files {
		rep := testcaseReport{File: file, Name: file}
		tc, err := testcase.Load(file)
		if err == nil {
			rep.Name = tc.Name
			rep.Outcome, err = tc.RunAndCheck(cmd.Context())
		}
		switch {
		case err == nil && tc.Result == nil:
			rep.Status = statusRan
		case err == nil:
			rep.Status = statusPass
		case errors.Is(err, errutils.ErrTestcaseFailed):
			rep.Status = statusFail
			rep.Error = err.Error()
		default:
			rep.Status = statusError
			rep.Error = err.Error()
			rep.Outcome = nil
		}
		if rep.Status == statusFail || rep.Status == statusError {
			failed++
		}
		reports = append(reports, rep)
	}

	out := cmd.OutOrStdout()
	if structured(cfg) {
		if err := writeStructured(out, cfg.Settings.OutputFormat, reports); err != nil {
			return err
		}
	} else {
		for _, rep := range reports {
			printReport(out, rep, show)
		}
		_, _ = fmt.Fprintf(out, "\n%d passed, %d failed\n", len(reports)-failed, failed)
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d testcases", errutils.ErrTestcaseFailed, failed, len(reports))
	}
	return nil
}

func printReport(w io.Writer, rep testcaseReport, show bool) {
	label := map[string]string{
		statusPass:  green("PASS"),
		statusFail:  red("FAIL"),
		statusError: red("ERROR"),
		statusRan:   yellow("RAN"),
	}[rep.Status]
	_, _ = fmt.Fprintf(w, "%s %s\n", label, rep.Name)
	if rep.Error != "" {
		_, _ = fmt.Fprintf(w, "  %s\n", rep.Error)
	}
	if rep.Outcome == nil || !(show || rep.Status == statusRan || rep.Status == statusFail) {
		return
	}
	for _, job := range rep.Outcome.Jobs {
		_, _ = fmt.Fprintf(w, "  job %s\n", job)
	}
	for _, step := range rep.Outcome.Transaction {
		_, _ = fmt.Fprintf(w, "  %s\n", step)
	}
	for _, pr := range rep.Outcome.Problems {
		_, _ = fmt.Fprintf(w, "  %s %s\n", red("problem"), pr.Problem)
		for _, sol := range pr.Solutions {
			_, _ = fmt.Fprintf(w, "    %s %s\n", yellow("solution"), sol)
		}
	}
}
