package pool

// Intern returns the id of s, allocating a new one if s was never seen.
// Equal strings always yield equal ids and ids are never reused.
func (p *Pool) Intern(s string) Id {
	if id, ok := p.strIndex[s]; ok {
		return id
	}
	id := Id(len(p.strings))
	p.strings = append(p.strings, s)
	p.strIndex[s] = id
	return id
}

// LookupString returns the id of s without interning it.
func (p *Pool) LookupString(s string) (Id, bool) {
	id, ok := p.strIndex[s]
	return id, ok
}

// Str returns the string of a plain id, or the rendered relation for a relation id.
func (p *Pool) Str(id Id) string {
	if id.IsRelation() {
		return p.Dep2Str(id)
	}
	if id < 0 || int(id) >= len(p.strings) {
		return ""
	}
	return p.strings[id]
}

// NumStrings returns the size of the string table, including the reserved ids.
func (p *Pool) NumStrings() int {
	return len(p.strings)
}
