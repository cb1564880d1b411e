package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/docker/go-units"
	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"gopkg.in/yaml.v3"

	"github.com/glorpus-work/solvent/pkg/config"
	"github.com/glorpus-work/solvent/pkg/pool"
	"github.com/glorpus-work/solvent/pkg/solver"
	"github.com/glorpus-work/solvent/pkg/transaction"
)

var (
	red     = color.New(color.FgRed).SprintFunc()
	green   = color.New(color.FgGreen).SprintFunc()
	yellow  = color.New(color.FgYellow).SprintFunc()
	cyan    = color.New(color.FgCyan).SprintFunc()
	magenta = color.New(color.FgMagenta).SprintFunc()
	bold    = color.New(color.Bold).SprintFunc()
)

// structured reports whether cfg asks for machine readable output.
func structured(cfg *config.Config) bool {
	return cfg.Settings.OutputFormat == formatJSON || cfg.Settings.OutputFormat == formatYAML
}

// writeStructured encodes v as json or yaml.
func writeStructured(w io.Writer, format string, v any) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(config.YAMLIndent)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unsupported structured format %q", format)
}

func newTable() *uitable.Table {
	table := uitable.New()
	table.MaxColWidth = MaxColumnWidth
	return table
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func kindLabel(k transaction.Kind) string {
	switch k {
	case transaction.KindInstall:
		return green(k.String())
	case transaction.KindUpgrade:
		return cyan(k.String())
	case transaction.KindDowngrade:
		return magenta(k.String())
	case transaction.KindErase:
		return red(k.String())
	}
	return k.String()
}

func signedSize(delta int64) string {
	if delta < 0 {
		return "-" + units.BytesSize(float64(-delta))
	}
	return units.BytesSize(float64(delta))
}

type stepView struct {
	Kind             string   `json:"kind" yaml:"kind"`
	Package          string   `json:"package" yaml:"package"`
	Repo             string   `json:"repo" yaml:"repo"`
	Replaces         []string `json:"replaces,omitempty" yaml:"replaces,omitempty"`
	DownloadSize     uint64   `json:"download_size" yaml:"download_size"`
	InstallSizeDelta int64    `json:"install_size_delta" yaml:"install_size_delta"`
}

type problemView struct {
	Problem   string   `json:"problem" yaml:"problem"`
	Details   []string `json:"details,omitempty" yaml:"details,omitempty"`
	Solutions []string `json:"solutions,omitempty" yaml:"solutions,omitempty"`
}

type solveView struct {
	Jobs             []string      `json:"jobs" yaml:"jobs"`
	Steps            []stepView    `json:"steps,omitempty" yaml:"steps,omitempty"`
	DownloadSize     uint64        `json:"download_size,omitempty" yaml:"download_size,omitempty"`
	InstallSizeDelta int64         `json:"install_size_delta,omitempty" yaml:"install_size_delta,omitempty"`
	Problems         []problemView `json:"problems,omitempty" yaml:"problems,omitempty"`
}

func stepViews(tr *transaction.Transaction) []stepView {
	p := tr.Pool()
	var out []stepView
	for _, st := range tr.Steps() {
		s := p.Solvable(st.Solvable)
		v := stepView{
			Kind:             st.Kind.String(),
			Package:          s.String(),
			DownloadSize:     st.DownloadSize,
			InstallSizeDelta: st.InstallSizeDelta,
		}
		if r := s.Repo(); r != nil {
			v.Repo = r.Name()
		}
		for _, id := range st.Replaces {
			v.Replaces = append(v.Replaces, p.Solvable(id).String())
		}
		out = append(out, v)
	}
	return out
}

func problemViews(problems []*solver.Problem) ([]problemView, error) {
	out := make([]problemView, 0, len(problems))
	for _, pr := range problems {
		sols, err := pr.Solutions()
		if err != nil {
			return nil, err
		}
		v := problemView{Problem: pr.String(), Details: pr.Details()}
		for _, sol := range sols {
			v.Solutions = append(v.Solutions, sol.String())
		}
		out = append(out, v)
	}
	return out, nil
}

// renderTransaction prints the steps of tr as a table followed by a summary.
func renderTransaction(w io.Writer, tr *transaction.Transaction) {
	if tr.Len() == 0 {
		_, _ = fmt.Fprintln(w, "Nothing to do.")
		return
	}

	table := newTable()
	table.AddRow("ACTION", "PACKAGE", "REPOSITORY", "SIZE", "REPLACING")
	steps := tr.Steps()
	for i, v := range stepViews(tr) {
		size := ""
		if v.DownloadSize > 0 {
			size = units.BytesSize(float64(v.DownloadSize))
		}
		table.AddRow(kindLabel(steps[i].Kind), v.Package, v.Repo, size, strings.Join(v.Replaces, ", "))
	}
	_, _ = fmt.Fprintln(w, table)

	counts := tr.Count()
	var parts []string
	for _, k := range []transaction.Kind{transaction.KindInstall, transaction.KindUpgrade, transaction.KindDowngrade, transaction.KindErase} {
		if n := counts[k]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, k))
		}
	}
	_, _ = fmt.Fprintf(w, "\n%s %s\n", bold("Transaction:"), strings.Join(parts, ", "))
	_, _ = fmt.Fprintf(w, "Download size: %s\n", units.BytesSize(float64(tr.DownloadSize())))
	_, _ = fmt.Fprintf(w, "Installed size change: %s\n", signedSize(tr.InstallSizeDelta()))
}

// renderProblems prints every problem with its numbered solutions.
func renderProblems(w io.Writer, problems []problemView) {
	for i, pr := range problems {
		_, _ = fmt.Fprintf(w, "%s %s\n", red(fmt.Sprintf("Problem %d:", i+1)), pr.Problem)
		for _, d := range pr.Details {
			if d != pr.Problem {
				_, _ = fmt.Fprintf(w, "  - %s\n", d)
			}
		}
		for j, sol := range pr.Solutions {
			_, _ = fmt.Fprintf(w, "  %s %s\n", yellow(fmt.Sprintf("Solution %d:", j+1)), sol)
		}
	}
}

func solvableRow(table *uitable.Table, s *pool.Solvable) {
	repo := ""
	if r := s.Repo(); r != nil {
		repo = r.Name()
	}
	table.AddRow(s.Name(), s.EVR(), s.Arch(), repo, truncate(s.LookupStr(pool.KeySummary), MaxSummaryLength))
}
