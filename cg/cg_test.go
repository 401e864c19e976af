package cg

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/rsxc/ir"
)

func TestProfiles(t *testing.T) {
	tests := []struct {
		profile Profile
		value   int32
		name    string
		kind    ir.ProgramKind
	}{
		{VP30, 6148, "vp30", ir.KindVertex},
		{FP30, 6149, "fp30", ir.KindFragment},
		{FP40, 6151, "fp40", ir.KindFragment},
		{VP40, 7001, "vp40", ir.KindVertex},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.value, int32(tt.profile))
			assert.Equal(t, tt.name, tt.profile.String())
			assert.Equal(t, tt.kind, tt.profile.Kind())
		})
	}

	assert.Equal(t, VP40, ProfileFor(ir.KindVertex))
	assert.Equal(t, FP40, ProfileFor(ir.KindFragment))
	assert.Equal(t, "Profile(1)", Profile(1).String())
}

func TestCompilerFunc(t *testing.T) {
	var got struct {
		source  string
		profile Profile
		entry   string
	}
	var c Compiler = CompilerFunc(func(_ context.Context, source string, profile Profile, entry string) (string, error) {
		got.source, got.profile, got.entry = source, profile, entry
		return "!!VP2.0\nEND\n", nil
	})

	out, err := c.Compile(context.Background(), "void main() {}", VP40, "vs")
	require.NoError(t, err)
	assert.Equal(t, "!!VP2.0\nEND\n", out)
	assert.Equal(t, "void main() {}", got.source)
	assert.Equal(t, VP40, got.profile)
	assert.Equal(t, "vs", got.entry)
}

func TestUpstreamError(t *testing.T) {
	listing := "shader.cg(3) : error C0000: syntax error, unexpected ';'"
	var err error = &UpstreamError{Profile: FP40, Entry: "main", Listing: listing}

	var uerr *UpstreamError
	require.True(t, errors.As(err, &uerr))
	assert.Equal(t, listing, uerr.Listing)
	assert.Contains(t, err.Error(), listing)
	assert.Contains(t, err.Error(), "fp40")

	bare := &UpstreamError{Profile: VP40, Entry: "main"}
	assert.Equal(t, `cg: vp40 program "main" failed to compile`, bare.Error())
}

func TestCommandMissingBinary(t *testing.T) {
	c := &Command{Path: filepath.Join(t.TempDir(), "no-such-cgc")}
	_, err := c.Compile(context.Background(), "", VP40, "")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestCommandRunsCompiler(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script stand-in needs a unix shell")
	}

	// A stand-in cgc that copies its input to the -o file.
	dir := t.TempDir()
	script := filepath.Join(dir, "cgc")
	body := `#!/bin/sh
out=""
while [ $# -gt 1 ]; do
  if [ "$1" = "-o" ]; then out="$2"; shift; fi
  if [ "$1" = "-entry" ] && [ "$2" = "bad" ]; then echo "error C0501: entry not found" >&2; exit 1; fi
  shift
done
cp "$1" "$out"
`
	require.NoError(t, os.WriteFile(script, []byte(body), 0o700))
	c := &Command{Path: script}

	out, err := c.Compile(context.Background(), "!!FP1.0\nEND\n", FP40, "")
	require.NoError(t, err)
	assert.Equal(t, "!!FP1.0\nEND\n", out)

	_, err = c.Compile(context.Background(), "", FP40, "bad")
	var uerr *UpstreamError
	require.True(t, errors.As(err, &uerr), "got %v", err)
	assert.Equal(t, "error C0501: entry not found", uerr.Listing)
}

func TestOpenMissingLibrary(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "libNoCg.so"))
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestLibraryClosed(t *testing.T) {
	lib := &Library{path: "libCg.so"}
	require.NoError(t, lib.Close())

	_, err := lib.Compile(context.Background(), "void main() {}", VP40, "main")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Contains(t, err.Error(), "closed")
}
