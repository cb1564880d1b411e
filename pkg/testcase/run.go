package testcase

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/glorpus-work/solvent/internal/logger"
	"github.com/glorpus-work/solvent/pkg/errutils"
	"github.com/glorpus-work/solvent/pkg/request"
	"github.com/glorpus-work/solvent/pkg/transaction"
)

// ProblemOutcome is one reported problem with its solutions.
type ProblemOutcome struct {
	Problem   string   `json:"problem" yaml:"problem"`
	Solutions []string `json:"solutions,omitempty" yaml:"solutions,omitempty"`
}

// Outcome is what a solve produced.
type Outcome struct {
	Jobs        []string         `json:"jobs" yaml:"jobs"`
	Transaction []string         `json:"transaction,omitempty" yaml:"transaction,omitempty"`
	Problems    []ProblemOutcome `json:"problems,omitempty" yaml:"problems,omitempty"`

	tr *transaction.Transaction
}

// Plan returns the transaction of a successful solve, or nil.
func (o *Outcome) Plan() *transaction.Transaction {
	return o.tr
}

// ProblemTexts returns the problem descriptions.
func (o *Outcome) ProblemTexts() []string {
	out := make([]string, 0, len(o.Problems))
	for _, pr := range o.Problems {
		out = append(out, pr.Problem)
	}
	return out
}

// Request builds the pool and a request holding every job of the testcase.
func (tc *Testcase) Request(ctx context.Context) (*request.Request, error) {
	p, err := tc.Pool(ctx)
	if err != nil {
		return nil, err
	}
	req := request.New(p)
	for _, line := range tc.Jobs {
		if err := AddJob(req, line); err != nil {
			return nil, err
		}
	}
	return req, nil
}

// Run solves the testcase. Unsatisfiable jobs are reported in the outcome and
// are not an error.
func (tc *Testcase) Run(ctx context.Context) (*Outcome, error) {
	flags, err := tc.SolveFlags()
	if err != nil {
		return nil, err
	}
	req, err := tc.Request(ctx)
	if err != nil {
		return nil, err
	}
	tr, problems, err := req.Solve(flags)
	if err != nil {
		return nil, err
	}

	out := &Outcome{Jobs: req.Strings(), tr: tr}
	if tr != nil {
		out.Transaction = StepStrings(tr)
	}
	for _, pr := range problems {
		po := ProblemOutcome{Problem: pr.String()}
		sols, err := pr.Solutions()
		if err != nil {
			return nil, err
		}
		for _, sol := range sols {
			po.Solutions = append(po.Solutions, sol.String())
		}
		out.Problems = append(out.Problems, po)
	}
	logger.Debug("testcase solved", logger.Fields{
		"name":     tc.Name,
		"jobs":     len(out.Jobs),
		"steps":    len(out.Transaction),
		"problems": len(out.Problems),
	})
	return out, nil
}

// StepStrings renders every step as "<kind> <name-evr.arch>".
func StepStrings(tr *transaction.Transaction) []string {
	p := tr.Pool()
	steps := tr.Steps()
	out := make([]string, 0, len(steps))
	for _, st := range steps {
		out = append(out, st.Kind.String()+" "+p.Solvable(st.Solvable).String())
	}
	return out
}

// Check compares an outcome with the expected result. Problems are compared
// in order; the transaction is compared step by step.
func (tc *Testcase) Check(out *Outcome) error {
	if tc.Result == nil {
		return nil
	}
	var diffs []string
	if want := tc.Result.Transaction; want != nil {
		if got := out.Transaction; !slices.Equal(want, got) {
			diffs = append(diffs, diff("transaction", want, got))
		}
	}
	if want, got := tc.Result.Problems, out.ProblemTexts(); !slices.Equal(want, got) {
		diffs = append(diffs, diff("problems", want, got))
	}
	if len(diffs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s\n%s", errutils.ErrTestcaseFailed, tc.Name, strings.Join(diffs, "\n"))
}

func diff(what string, want, got []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s:\n", what)
	for _, w := range want {
		if !slices.Contains(got, w) {
			fmt.Fprintf(&b, "  - %s\n", w)
		}
	}
	for _, g := range got {
		if !slices.Contains(want, g) {
			fmt.Fprintf(&b, "  + %s\n", g)
		}
	}
	if b.Len() == len(what)+2 {
		b.WriteString("  (order differs)\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// RunAndCheck runs the testcase and checks the outcome.
func (tc *Testcase) RunAndCheck(ctx context.Context) (*Outcome, error) {
	out, err := tc.Run(ctx)
	if err != nil {
		return nil, err
	}
	return out, tc.Check(out)
}
