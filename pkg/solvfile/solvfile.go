// Package solvfile encodes repository metadata in the solv binary format.
//
// A file is an optional xz compression layer around a payload that starts with
// the magic "SOLV" and a format version, followed by a string table and one
// record per package, and ends with a blake3 checksum of everything before it.
package solvfile

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"sort"

	"github.com/hashicorp/go-version"
	"github.com/mholt/archives"
	"github.com/zeebo/blake3"

	"github.com/glorpus-work/solvent/pkg/errutils"
)

const (
	// FormatVersion is written into every file.
	FormatVersion = "1.0"
	// SupportedVersions is the range of format versions Read accepts.
	SupportedVersions = ">= 1.0, < 2.0"

	magic        = "SOLV"
	checksumSize = 32
	numDepLists  = 6
	maxCount     = 1 << 28
)

// Package is the serialized form of one solvable. Deps holds the provides,
// requires, conflicts, obsoletes, recommends and suggests lists, in that order,
// as dependency strings.
type Package struct {
	Name  string
	EVR   string
	Arch  string
	Deps  [numDepLists][]string
	Strs  map[string]string
	Nums  map[string]uint64
	Files []string
}

// Options controls Write.
type Options struct {
	// Compress wraps the payload in xz.
	Compress bool
}

// Write encodes pkgs to w.
func Write(w io.Writer, pkgs []Package, opts Options) error {
	payload := encode(pkgs)
	payload = append(payload, sumOf(payload)...)

	if !opts.Compress {
		if _, err := w.Write(payload); err != nil {
			return errutils.Wrap(errutils.ErrIO, err.Error())
		}
		return nil
	}

	zw, err := archives.Xz{}.OpenWriter(w)
	if err != nil {
		return errutils.Wrap(errutils.ErrIO, err.Error())
	}
	if _, err := zw.Write(payload); err != nil {
		_ = zw.Close()
		return errutils.Wrap(errutils.ErrIO, err.Error())
	}
	if err := zw.Close(); err != nil {
		return errutils.Wrap(errutils.ErrIO, err.Error())
	}
	return nil
}

// Read decodes a file produced by Write. Compressed input is detected
// automatically.
func Read(ctx context.Context, r io.Reader) ([]Package, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errutils.Wrap(errutils.ErrIO, err.Error())
	}
	if !bytes.HasPrefix(data, []byte(magic)) {
		data, err = decompress(ctx, data)
		if err != nil {
			return nil, err
		}
	}
	if len(data) < len(magic)+checksumSize {
		return nil, errutils.ErrSolvCorruptedWithDetails("file truncated")
	}

	payload, trailer := data[:len(data)-checksumSize], data[len(data)-checksumSize:]
	if !bytes.Equal(sumOf(payload), trailer) {
		return nil, errutils.ErrSolvCorruptedWithDetails("checksum mismatch")
	}
	return decode(payload)
}

func sumOf(payload []byte) []byte {
	sum := blake3.Sum256(payload)
	return sum[:]
}

func decompress(ctx context.Context, data []byte) ([]byte, error) {
	format, stream, err := archives.Identify(ctx, "", bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, archives.NoMatch) {
			return nil, errutils.ErrSolvNotSolv
		}
		return nil, errutils.Wrapf(errutils.ErrSolvNotSolv, "%v", err)
	}
	dec, ok := format.(archives.Decompressor)
	if !ok {
		return nil, errutils.ErrSolvNotSolv
	}
	rc, err := dec.OpenReader(stream)
	if err != nil {
		return nil, errutils.ErrSolvCorruptedWithDetails("%v", err)
	}
	defer func() { _ = rc.Close() }()

	out, err := io.ReadAll(rc)
	if err != nil {
		return nil, errutils.ErrSolvCorruptedWithDetails("%v", err)
	}
	if !bytes.HasPrefix(out, []byte(magic)) {
		return nil, errutils.ErrSolvNotSolv
	}
	return out, nil
}

// checkVersion rejects format versions outside SupportedVersions.
func checkVersion(v string) error {
	parsed, err := version.NewVersion(v)
	if err != nil {
		return errutils.Wrapf(errutils.ErrSolvUnsupported, "format version %q", v)
	}
	constraints, err := version.NewConstraint(SupportedVersions)
	if err != nil {
		return errutils.ErrSolverWithDetails("bad version constraint: %v", err)
	}
	if !constraints.Check(parsed) {
		return errutils.Wrapf(errutils.ErrSolvUnsupported, "format version %s", v)
	}
	return nil
}

// stringTable assigns indices in order of first use.
type stringTable struct {
	index map[string]uint64
	list  []string
}

func (t *stringTable) add(s string) uint64 {
	if i, ok := t.index[s]; ok {
		return i
	}
	i := uint64(len(t.list))
	t.index[s] = i
	t.list = append(t.list, s)
	return i
}

type encoder struct {
	buf []byte
}

func (e *encoder) uvarint(v uint64) {
	e.buf = binary.AppendUvarint(e.buf, v)
}

func (e *encoder) str(s string) {
	e.uvarint(uint64(len(s)))
	e.buf = append(e.buf, s...)
}

func encode(pkgs []Package) []byte {
	st := &stringTable{index: make(map[string]uint64)}
	body := &encoder{}

	body.uvarint(uint64(len(pkgs)))
	for i := range pkgs {
		pkg := &pkgs[i]
		body.uvarint(st.add(pkg.Name))
		body.uvarint(st.add(pkg.EVR))
		body.uvarint(st.add(pkg.Arch))
		for _, deps := range pkg.Deps {
			body.uvarint(uint64(len(deps)))
			for _, d := range deps {
				body.uvarint(st.add(d))
			}
		}

		strKeys := sortedKeys(pkg.Strs)
		body.uvarint(uint64(len(strKeys)))
		for _, k := range strKeys {
			body.uvarint(st.add(k))
			body.uvarint(st.add(pkg.Strs[k]))
		}
		numKeys := sortedKeys(pkg.Nums)
		body.uvarint(uint64(len(numKeys)))
		for _, k := range numKeys {
			body.uvarint(st.add(k))
			body.uvarint(pkg.Nums[k])
		}

		body.uvarint(uint64(len(pkg.Files)))
		for _, f := range pkg.Files {
			body.uvarint(st.add(f))
		}
	}

	out := &encoder{buf: []byte(magic)}
	out.str(FormatVersion)
	out.uvarint(uint64(len(st.list)))
	for _, s := range st.list {
		out.str(s)
	}
	out.buf = append(out.buf, body.buf...)
	return out.buf
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type decoder struct {
	r       *bufio.Reader
	strings []string
}

func (d *decoder) uvarint() (uint64, error) {
	v, err := binary.ReadUvarint(d.r)
	if err != nil {
		return 0, errutils.ErrSolvCorruptedWithDetails("%v", err)
	}
	return v, nil
}

func (d *decoder) count() (int, error) {
	v, err := d.uvarint()
	if err != nil {
		return 0, err
	}
	if v > maxCount {
		return 0, errutils.ErrSolvCorruptedWithDetails("count %d out of range", v)
	}
	return int(v), nil
}

func (d *decoder) rawString() (string, error) {
	n, err := d.count()
	if err != nil {
		return "", err
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(d.r, b); err != nil {
		return "", errutils.ErrSolvCorruptedWithDetails("%v", err)
	}
	return string(b), nil
}

func (d *decoder) ref() (string, error) {
	i, err := d.uvarint()
	if err != nil {
		return "", err
	}
	if i >= uint64(len(d.strings)) {
		return "", errutils.ErrSolvCorruptedWithDetails("string index %d out of range", i)
	}
	return d.strings[i], nil
}

func decode(payload []byte) ([]Package, error) {
	d := &decoder{r: bufio.NewReader(bytes.NewReader(payload[len(magic):]))}

	v, err := d.rawString()
	if err != nil {
		return nil, err
	}
	if err := checkVersion(v); err != nil {
		return nil, err
	}

	n, err := d.count()
	if err != nil {
		return nil, err
	}
	d.strings = make([]string, n)
	for i := range d.strings {
		if d.strings[i], err = d.rawString(); err != nil {
			return nil, err
		}
	}

	npkgs, err := d.count()
	if err != nil {
		return nil, err
	}
	pkgs := make([]Package, npkgs)
	for i := range pkgs {
		if err := d.pkg(&pkgs[i]); err != nil {
			return nil, errutils.Wrapf(err, "package %d", i)
		}
	}
	if _, err := d.r.ReadByte(); err != io.EOF {
		return nil, errutils.ErrSolvCorruptedWithDetails("trailing data")
	}
	return pkgs, nil
}

func (d *decoder) pkg(pkg *Package) error {
	var err error
	if pkg.Name, err = d.ref(); err != nil {
		return err
	}
	if pkg.EVR, err = d.ref(); err != nil {
		return err
	}
	if pkg.Arch, err = d.ref(); err != nil {
		return err
	}
	for k := range pkg.Deps {
		if pkg.Deps[k], err = d.refs(); err != nil {
			return err
		}
	}

	n, err := d.count()
	if err != nil {
		return err
	}
	if n > 0 {
		pkg.Strs = make(map[string]string, n)
	}
	for i := 0; i < n; i++ {
		key, err := d.ref()
		if err != nil {
			return err
		}
		val, err := d.ref()
		if err != nil {
			return err
		}
		pkg.Strs[key] = val
	}

	if n, err = d.count(); err != nil {
		return err
	}
	if n > 0 {
		pkg.Nums = make(map[string]uint64, n)
	}
	for i := 0; i < n; i++ {
		key, err := d.ref()
		if err != nil {
			return err
		}
		val, err := d.uvarint()
		if err != nil {
			return err
		}
		pkg.Nums[key] = val
	}

	pkg.Files, err = d.refs()
	return err
}

func (d *decoder) refs() ([]string, error) {
	n, err := d.count()
	if err != nil || n == 0 {
		return nil, err
	}
	out := make([]string, n)
	for i := range out {
		if out[i], err = d.ref(); err != nil {
			return nil, err
		}
	}
	return out, nil
}
