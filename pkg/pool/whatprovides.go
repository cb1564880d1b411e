package pool

// WhatProvides returns the solvables of enabled repositories that satisfy dep,
// in id order. Versioned deps are matched against each candidate's provides,
// arch relations filter the providers of the name by arch, and rpmlib
// capabilities are provided by the system solvable. The pool is prepared first.
func (p *Pool) WhatProvides(dep Id) []Id {
	p.Prepare()
	if out, ok := p.relCache[dep]; ok {
		return out
	}
	rel, ok := p.Relation(dep)
	if !ok {
		return nil
	}

	var out []Id
	switch {
	case p.IsRpmlib(dep):
		out = []Id{SystemSolvable}
	case !dep.IsRelation():
		out = p.providesByName[dep]
	case rel.Flags == CmpArch:
		for _, id := range p.WhatProvides(rel.Name) {
			if p.solvables[id].arch == rel.EVR {
				out = append(out, id)
			}
		}
	default:
		for _, id := range p.providesByName[rel.Name] {
			for _, prov := range p.solvables[id].deps[DepProvides] {
				if p.MatchDep(prov, dep) {
					out = append(out, id)
					break
				}
			}
		}
	}
	p.relCache[dep] = out
	return out
}

// ProvidersOfRelation returns the solvables whose provides list holds exactly
// the relation id, as recorded by Prepare.
func (p *Pool) ProvidersOfRelation(dep Id) []Id {
	p.Prepare()
	return p.providesByRel[dep]
}

// ByName returns the solvables of enabled repositories called name, in id order.
func (p *Pool) ByName(name Id) []Id {
	p.Prepare()
	return p.nameIndex[name]
}

// Names returns every package name present in an enabled repository.
func (p *Pool) Names() []Id {
	p.Prepare()
	out := make([]Id, 0, len(p.nameIndex))
	for name := range p.nameIndex {
		out = append(out, name)
	}
	sortIds(out)
	return out
}

// Providers resolves WhatProvides to solvables.
func (p *Pool) Providers(dep Id) []*Solvable {
	ids := p.WhatProvides(dep)
	out := make([]*Solvable, len(ids))
	for i, id := range ids {
		out[i] = p.solvables[id]
	}
	return out
}
