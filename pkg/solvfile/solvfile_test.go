package solvfile

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glorpus-work/solvent/pkg/errutils"
)

func samplePackages() []Package {
	return []Package{
		{
			Name: "bash",
			EVR:  "5.2.26-3",
			Arch: "x86_64",
			Deps: [numDepLists][]string{
				{"bash = 5.2.26-3", "/bin/sh"},
				{"glibc >= 2.38", "libtinfo.so.6()(64bit)"},
				nil,
				{"bash-old < 5"},
				{"bash-completion"},
				{"bash-doc"},
			},
			Strs:  map[string]string{"summary": "The GNU Bourne Again shell", "vendor": "Fedora"},
			Nums:  map[string]uint64{"installsize": 8302613, "downloadsize": 1830112},
			Files: []string{"/usr/bin/bash", "/usr/bin/sh"},
		},
		{
			Name: "glibc",
			EVR:  "2.38-16",
			Arch: "x86_64",
			Deps: [numDepLists][]string{{"glibc = 2.38-16"}},
		},
	}
}

func TestRoundTrip(t *testing.T) {
	for _, compress := range []bool{false, true} {
		buf := &bytes.Buffer{}
		require.NoError(t, Write(buf, samplePackages(), Options{Compress: compress}))

		if compress {
			assert.False(t, bytes.HasPrefix(buf.Bytes(), []byte(magic)))
		}

		got, err := Read(context.Background(), buf)
		require.NoError(t, err)
		assert.Equal(t, samplePackages(), got)
	}
}

func TestWriteIsDeterministic(t *testing.T) {
	a, b := &bytes.Buffer{}, &bytes.Buffer{}
	require.NoError(t, Write(a, samplePackages(), Options{}))
	require.NoError(t, Write(b, samplePackages(), Options{}))
	assert.Equal(t, a.Bytes(), b.Bytes())
}

func TestReadErrors(t *testing.T) {
	good := &bytes.Buffer{}
	require.NoError(t, Write(good, samplePackages(), Options{}))

	flipped := append([]byte(nil), good.Bytes()...)
	flipped[len(magic)+6] ^= 0xff

	truncated := good.Bytes()[:len(magic)+10]

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"not solv", []byte("this is certainly not a solv file, just text"), errutils.ErrSolvNotSolv},
		{"flipped byte", flipped, errutils.ErrSolvCorrupted},
		{"truncated", truncated, errutils.ErrSolvCorrupted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(context.Background(), bytes.NewReader(tt.data))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCheckVersion(t *testing.T) {
	assert.NoError(t, checkVersion("1.0"))
	assert.NoError(t, checkVersion("1.4"))
	assert.ErrorIs(t, checkVersion("2.0"), errutils.ErrSolvUnsupported)
	assert.ErrorIs(t, checkVersion("0.9"), errutils.ErrSolvUnsupported)
	assert.ErrorIs(t, checkVersion("garbage"), errutils.ErrSolvUnsupported)
}

func TestReadUnsupportedVersion(t *testing.T) {
	e := &encoder{buf: []byte(magic)}
	e.str("2.1")
	e.uvarint(0)
	e.uvarint(0)
	sum := sumOf(e.buf)
	data := append(e.buf, sum...)

	_, err := Read(context.Background(), bytes.NewReader(data))
	assert.ErrorIs(t, err, errutils.ErrSolvUnsupported)
}
