// Package snapshot_test provides golden snapshot tests for the rsxc
// pipeline.
//
// For each assembly program in testdata/in/ (.vpa vertex, .fpa fragment),
// the test builds a container and compares a textual dump of it (header,
// tables, disassembly and raw microcode words) with the golden file in
// testdata/golden/.
//
// To regenerate golden files after intentional changes:
//
//	UPDATE_GOLDEN=1 go test ./snapshot/...
package snapshot_test

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/rsxc"
	"github.com/gogpu/rsxc/container"
	"github.com/gogpu/rsxc/ir"
	"github.com/gogpu/rsxc/rsx"
)

// ---------------------------------------------------------------------------
// Test Runner
// ---------------------------------------------------------------------------

// programFile is an input program loaded from disk.
type programFile struct {
	name   string // file name, e.g. "transform.vpa"
	kind   ir.ProgramKind
	source string
}

// TestSnapshots builds every input program and compares its dump with the
// golden file.
func TestSnapshots(t *testing.T) {
	programs := loadInputPrograms(t, "testdata/in")
	require.NotEmpty(t, programs, "no input programs found in testdata/in/")

	for i := range programs {
		prog := &programs[i]
		t.Run(prog.name, func(t *testing.T) {
			data, err := rsxc.Assemble(prog.source, prog.kind)
			require.NoError(t, err)

			c, err := container.Decode(data)
			require.NoError(t, err)
			compareGolden(t, filepath.Join("testdata", "golden", prog.name+".txt"), dump(c))
		})
	}
}

// TestSnapshotInvariants checks properties every container must have,
// independent of the golden files.
func TestSnapshotInvariants(t *testing.T) {
	for _, prog := range loadInputPrograms(t, "testdata/in") {
		t.Run(prog.name, func(t *testing.T) {
			data, err := rsxc.Assemble(prog.source, prog.kind)
			require.NoError(t, err)

			again, err := rsxc.Assemble(prog.source, prog.kind)
			require.NoError(t, err)
			assert.True(t, bytes.Equal(data, again), "output must be deterministic")

			c, err := container.Decode(data)
			require.NoError(t, err)
			assert.Equal(t, prog.kind, c.Kind)
			assert.Zero(t, c.Header.AttribOffset%4)
			assert.Zero(t, c.Header.ConstOffset%4)
			assert.Zero(t, c.Header.UcodeOffset%16)
			assert.Len(t, data, int(c.Header.UcodeOffset)+16*int(c.Header.NumInsn))

			parsed, err := rsxc.Parse(prog.source, prog.kind)
			require.NoError(t, err)
			compiled, err := rsxc.CompileIR(parsed, rsx.DefaultOptions())
			require.NoError(t, err)
			assert.Equal(t, compiled.Instructions, c.Microcode)

			for _, k := range c.Constants {
				if k.Internal {
					assert.Zero(t, k.NameOffset, "internal constants are never named")
				}
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Program Loading
// ---------------------------------------------------------------------------

// loadInputPrograms reads all .vpa and .fpa files from dir.
func loadInputPrograms(t *testing.T, dir string) []programFile {
	t.Helper()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err, "read input directory %q", dir)

	var programs []programFile
	for _, entry := range entries {
		var kind ir.ProgramKind
		switch filepath.Ext(entry.Name()) {
		case ".vpa":
			kind = ir.KindVertex
		case ".fpa":
			kind = ir.KindFragment
		default:
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		require.NoError(t, err)
		programs = append(programs, programFile{name: entry.Name(), kind: kind, source: string(data)})
	}

	sort.Slice(programs, func(i, j int) bool {
		return programs[i].name < programs[j].name
	})
	return programs
}

// ---------------------------------------------------------------------------
// Dump
// ---------------------------------------------------------------------------

// dump renders a container as stable text.
func dump(c *container.Container) string {
	var sb strings.Builder
	h := c.Header

	fmt.Fprintf(&sb, "kind %s magic %#04x\n", c.Kind, h.Magic)
	fmt.Fprintf(&sb, "input_mask %#08x output_mask %#08x\n", h.InputMask, h.OutputMask)
	fmt.Fprintf(&sb, "attrib_off %#x num_attrib %d\n", h.AttribOffset, h.NumAttrib)
	fmt.Fprintf(&sb, "const_off %#x num_const %d\n", h.ConstOffset, h.NumConst)
	fmt.Fprintf(&sb, "ucode_off %#x num_insn %d\n", h.UcodeOffset, h.NumInsn)

	sb.WriteString("\n; attributes\n")
	for _, a := range c.Attributes {
		fmt.Fprintf(&sb, "%d %q @%#x\n", a.Index, a.Name, a.NameOffset)
	}

	sb.WriteString("\n; constants\n")
	for _, k := range c.Constants {
		fmt.Fprintf(&sb, "%d x%d type %d internal %t %q @%#x %g\n",
			k.Index, k.Count, k.Type, k.Internal, k.Name, k.NameOffset, k.Values)
	}

	sb.WriteString("\n; disassembly\n")
	sb.WriteString(rsx.Disassemble(c.Kind, c.Microcode))

	sb.WriteString("\n; microcode\n")
	for i, inst := range c.Microcode {
		w := inst.Words
		fmt.Fprintf(&sb, "%3d: %08x %08x %08x %08x\n", i, w[0], w[1], w[2], w[3])
	}
	return sb.String()
}

// ---------------------------------------------------------------------------
// Golden Files
// ---------------------------------------------------------------------------

// compareGolden compares actual with the golden file at path, or rewrites
// it when UPDATE_GOLDEN is set. A missing golden file fails the test.
func compareGolden(t *testing.T, path, actual string) {
	t.Helper()

	if os.Getenv("UPDATE_GOLDEN") != "" {
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755), "create golden dir")
		require.NoError(t, os.WriteFile(path, []byte(actual), 0o644), "write golden file")
		t.Logf("updated golden file: %s", path)
		return
	}

	expected, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		t.Fatalf("golden file missing: %s (run with UPDATE_GOLDEN=1 to create)", path)
	}
	require.NoError(t, err, "read golden file %s", path)

	// Git may convert \n to \r\n on Windows checkout.
	expectedStr := strings.ReplaceAll(string(expected), "\r\n", "\n")
	actualStr := strings.ReplaceAll(actual, "\r\n", "\n")
	if expectedStr != actualStr {
		t.Errorf("output differs from golden %s:\n%s", path, diffStrings(expectedStr, actualStr))
	}
}

// diffStrings shows the first differing line with a little context.
func diffStrings(expected, actual string) string {
	expectedLines := strings.Split(expected, "\n")
	actualLines := strings.Split(actual, "\n")

	n := len(expectedLines)
	if len(actualLines) > n {
		n = len(actualLines)
	}
	const contextLines = 3

	for i := 0; i < n; i++ {
		var e, a string
		if i < len(expectedLines) {
			e = expectedLines[i]
		}
		if i < len(actualLines) {
			a = actualLines[i]
		}
		if e == a {
			continue
		}

		var sb strings.Builder
		start := i - contextLines
		if start < 0 {
			start = 0
		}
		for j := start; j < i; j++ {
			fmt.Fprintf(&sb, "  %4d   %s\n", j+1, expectedLines[j])
		}
		fmt.Fprintf(&sb, "- %4d   %s\n", i+1, e)
		fmt.Fprintf(&sb, "+ %4d   %s\n", i+1, a)
		return sb.String()
	}
	return "(no line differences)"
}
