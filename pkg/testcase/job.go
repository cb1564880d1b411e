package testcase

import (
	"strings"

	"github.com/glorpus-work/solvent/pkg/errutils"
	"github.com/glorpus-work/solvent/pkg/pool"
	"github.com/glorpus-work/solvent/pkg/request"
	"github.com/glorpus-work/solvent/pkg/selector"
	"github.com/glorpus-work/solvent/pkg/solver"
)

var hintNames = map[string]solver.JobFlags{
	"best":        solver.FlagForceBest,
	"cleandeps":   solver.FlagCleanDeps,
	"noobsoletes": solver.FlagNoObsoletes,
}

// AddJob parses one job line and adds it to req. The grammar is
//
//	<verb> all
//	<verb> name <name> [= <evr>] [hints]
//	<verb> provides <dependency> [hints]
//	<verb> pkg <name-evr.arch>[@<repo>] [hints]
//	<verb> select <key>=<value>|<key>~<glob> ... [hints]
//
// where verb is install, erase, update, lock, multiversion, distupgrade or
// verify, and hints is a bracketed list such as [best,cleandeps]. Only
// update, distupgrade and verify accept "all".
func AddJob(req *request.Request, line string) error {
	body, hints, err := splitHints(line)
	if err != nil {
		return err
	}
	fields := strings.Fields(body)
	if len(fields) < 2 {
		return errutils.ErrTestcaseWithDetails("job %q: expected a verb and a target", line)
	}
	verb, kind, args := fields[0], fields[1], fields[2:]

	if kind == "all" {
		if len(args) > 0 || len(hints) > 0 {
			return errutils.ErrTestcaseWithDetails("job %q: \"all\" takes no arguments", line)
		}
		switch verb {
		case "update", "upgrade":
			req.UpgradeAll()
		case "distupgrade":
			req.DistUpgrade()
		case "verify":
			req.Verify()
		default:
			return errutils.ErrTestcaseWithDetails("job %q: %s does not accept all", line, verb)
		}
		return nil
	}

	target, err := parseTarget(req.Pool(), kind, args)
	if err != nil {
		return errutils.Wrapf(err, "job %q", line)
	}

	switch verb {
	case "install":
		err = req.Install(target, hints...)
	case "erase", "remove":
		err = req.Erase(target, hints...)
	case "update", "upgrade":
		err = req.Upgrade(target, hints...)
	case "lock", "multiversion":
		if len(hints) > 0 {
			return errutils.ErrTestcaseWithDetails("job %q: %s takes no hints", line, verb)
		}
		if verb == "lock" {
			err = req.Lock(target)
		} else {
			err = req.Multiversion(target)
		}
	default:
		return errutils.ErrTestcaseWithDetails("job %q: unknown verb %q", line, verb)
	}
	return errutils.Wrapf(err, "job %q", line)
}

func splitHints(line string) (string, []solver.JobFlags, error) {
	line = strings.TrimSpace(line)
	if !strings.HasSuffix(line, "]") {
		return line, nil, nil
	}
	open := strings.LastIndex(line, "[")
	if open < 0 {
		return "", nil, errutils.ErrTestcaseWithDetails("job %q: unbalanced hint list", line)
	}
	var hints []solver.JobFlags
	for _, name := range strings.Split(line[open+1:len(line)-1], ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		h, ok := hintNames[name]
		if !ok {
			return "", nil, errutils.ErrTestcaseWithDetails("job %q: unknown hint %q", line, name)
		}
		hints = append(hints, h)
	}
	return strings.TrimSpace(line[:open]), hints, nil
}

func parseTarget(p *pool.Pool, kind string, args []string) (request.Target, error) {
	if len(args) == 0 {
		return nil, errutils.ErrTestcaseWithDetails("%s needs an argument", kind)
	}
	switch kind {
	case "name":
		sel := selector.New(p)
		if err := sel.Set(selector.KeyName, selector.CmpEQ, args[0]); err != nil {
			return nil, err
		}
		switch {
		case len(args) == 3 && (args[1] == "=" || args[1] == "=="):
			if err := sel.Set(selector.KeyEVR, selector.CmpEQ, args[2]); err != nil {
				return nil, err
			}
		case len(args) != 1:
			return nil, errutils.ErrTestcaseWithDetails("name takes a name and an optional \"= evr\"")
		}
		return request.Selection(sel), nil
	case "provides":
		sel := selector.New(p)
		if err := sel.Set(selector.KeyProvides, selector.CmpEQ, strings.Join(args, " ")); err != nil {
			return nil, err
		}
		return request.Selection(sel), nil
	case "pkg":
		ids := make([]pool.Id, 0, len(args))
		for _, a := range args {
			id, err := findPackage(p, a)
			if err != nil {
				return nil, err
			}
			ids = append(ids, id)
		}
		return request.Package(ids...), nil
	case "select":
		sel := selector.New(p)
		for _, a := range args {
			cmp := selector.CmpEQ
			key, value, ok := strings.Cut(a, "=")
			if !ok {
				if key, value, ok = strings.Cut(a, "~"); !ok {
					return nil, errutils.ErrTestcaseWithDetails("filter %q is not key=value or key~glob", a)
				}
				cmp = selector.CmpGlob
			}
			k, ok := selector.ParseKey(key)
			if !ok {
				return nil, errutils.ErrSelectorWithDetails("unknown key %q", key)
			}
			if err := sel.Set(k, cmp, value); err != nil {
				return nil, err
			}
		}
		return request.Selection(sel), nil
	}
	return nil, errutils.ErrTestcaseWithDetails("unknown target kind %q", kind)
}

// findPackage looks a solvable up by its name-evr.arch string, optionally
// followed by @repo. Without a repo the string must be unambiguous.
func findPackage(p *pool.Pool, ref string) (pool.Id, error) {
	nevra, repoName, scoped := strings.Cut(ref, "@")
	var ids []pool.Id
	if scoped {
		repo := p.Repo(repoName)
		if repo == nil {
			return pool.IdNull, errutils.ErrRepositoryNotFoundWithName(repoName)
		}
		ids = repo.Solvables()
	} else {
		ids = p.ConsideredSolvables()
	}

	found := pool.IdNull
	for _, id := range ids {
		if p.Solvable(id).String() != nevra {
			continue
		}
		if found != pool.IdNull {
			return pool.IdNull, errutils.ErrTestcaseWithDetails("package %s is ambiguous, add @repo", nevra)
		}
		found = id
	}
	if found == pool.IdNull {
		return pool.IdNull, errutils.Wrapf(errutils.ErrUnknownSolvable, "package %s", ref)
	}
	return found, nil
}
