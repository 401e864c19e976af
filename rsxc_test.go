package rsxc

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/rsxc/asm"
	"github.com/gogpu/rsxc/cg"
	"github.com/gogpu/rsxc/container"
	"github.com/gogpu/rsxc/ir"
	"github.com/gogpu/rsxc/rsx"
)

func TestAssemble(t *testing.T) {
	for _, sc := range shadersByComplexity {
		t.Run(sc.name, func(t *testing.T) {
			data, err := Assemble(sc.source, sc.kind)
			require.NoError(t, err)

			c, err := container.Decode(data)
			require.NoError(t, err)
			assert.Equal(t, sc.kind, c.Kind)
			assert.NotZero(t, c.Header.NumInsn)

			again, err := Assemble(sc.source, sc.kind)
			require.NoError(t, err)
			assert.True(t, bytes.Equal(data, again), "output must be deterministic")
		})
	}
}

func TestAssembleBumpFragment(t *testing.T) {
	data, err := Assemble(shaderBumpFragment, ir.KindFragment)
	require.NoError(t, err)
	c, err := container.Decode(data)
	require.NoError(t, err)

	require.Len(t, c.Attributes, 2)
	assert.Equal(t, "diffuseMap", c.Attributes[0].Name)
	assert.Equal(t, uint32(1), c.Attributes[1].Index)

	require.Len(t, c.Constants, 2)
	assert.Equal(t, "lightDir", c.Constants[0].Name)
	assert.Equal(t, "lightColor", c.Constants[1].Name)
	assert.Equal(t, [4]float32{1, 0.9, 0.8, 1}, c.Constants[1].Values)
	for _, k := range c.Constants {
		assert.Zero(t, k.Index%16, "fragment constant index is a byte offset")
	}
}

func TestAssembleErrors(t *testing.T) {
	t.Run("parse", func(t *testing.T) {
		_, err := Assemble("!!VP2.0\nMOV o[HPOS] v[0];\n", ir.KindVertex)
		var perr *asm.ParseError
		require.True(t, errors.As(err, &perr), "got %v", err)
		assert.Equal(t, 2, perr.Line)
	})

	t.Run("undeclared register", func(t *testing.T) {
		_, err := Assemble("!!VP2.0\nMOV o[HPOS], c[3];\n", ir.KindVertex)
		var cerr *rsx.Error
		require.True(t, errors.As(err, &cerr), "got %v", err)
		assert.Equal(t, rsx.ErrUndeclaredParameter, cerr.Kind)
	})

	t.Run("capacity", func(t *testing.T) {
		opts := DefaultOptions()
		opts.Container.MaxSize = 40
		_, err := AssembleWithOptions(shaderSmallVertex, opts)
		var eerr *container.EmitError
		require.True(t, errors.As(err, &eerr), "got %v", err)
		assert.Equal(t, container.ErrCapacity, eerr.Kind)
	})

	t.Run("limits", func(t *testing.T) {
		opts := DefaultOptions()
		opts.Limits.MaxVertexInstructions = 4
		_, err := AssembleWithOptions(shaderLitVertex, opts)
		var cerr *rsx.Error
		require.True(t, errors.As(err, &cerr), "got %v", err)
		assert.Equal(t, rsx.ErrTooManyInstructions, cerr.Kind)
	})
}

func TestCompileWithCompiler(t *testing.T) {
	var gotProfile cg.Profile
	var gotEntry string
	opts := DefaultOptions()
	opts.Kind = ir.KindFragment
	opts.Entry = ""
	opts.Compiler = cg.CompilerFunc(func(_ context.Context, source string, profile cg.Profile, entry string) (string, error) {
		gotProfile, gotEntry = profile, entry
		return shaderSmallFragment, nil
	})

	data, err := Compile(context.Background(), "float4 main() : COLOR { return 1; }", opts)
	require.NoError(t, err)
	assert.Equal(t, cg.FP40, gotProfile)
	assert.Equal(t, "main", gotEntry)

	want, err := Assemble(shaderSmallFragment, ir.KindFragment)
	require.NoError(t, err)
	assert.Equal(t, want, data)
}

func TestCompileErrors(t *testing.T) {
	_, err := Compile(context.Background(), "", DefaultOptions())
	assert.ErrorIs(t, err, ErrNoCompiler)

	opts := DefaultOptions()
	opts.Compiler = cg.CompilerFunc(func(context.Context, string, cg.Profile, string) (string, error) {
		return "", &cg.UpstreamError{Profile: cg.VP40, Entry: "main", Listing: "(1) : error C0000: syntax error"}
	})
	_, err = Compile(context.Background(), "bad", opts)
	var uerr *cg.UpstreamError
	require.True(t, errors.As(err, &uerr), "got %v", err)
	assert.Equal(t, "(1) : error C0000: syntax error", uerr.Listing)
}

func TestCompileAll(t *testing.T) {
	jobs := []Job{
		{Name: "a.vpa", Source: shaderLitVertex, Kind: ir.KindVertex},
		{Name: "bad.vpa", Source: "!!VP2.0\nMOV o[HPOS], c[9];\n", Kind: ir.KindVertex},
		{Name: "b.fpa", Source: shaderBumpFragment, Kind: ir.KindFragment},
		{Name: "c.fpa", Source: shaderSmallFragment, Kind: ir.KindFragment},
	}
	opts := DefaultOptions()
	opts.Parallelism = 2

	results, err := CompileAll(context.Background(), jobs, opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.vpa")
	var cerr *rsx.Error
	assert.True(t, errors.As(err, &cerr))

	require.Len(t, results, len(jobs))
	for i, r := range results {
		assert.Equal(t, jobs[i].Name, r.Job.Name)
		if r.Job.Name == "bad.vpa" {
			assert.Error(t, r.Err)
			assert.Nil(t, r.Output)
			continue
		}
		require.NoError(t, r.Err)
		want, err := Assemble(jobs[i].Source, jobs[i].Kind)
		require.NoError(t, err)
		assert.Equal(t, want, r.Output)
	}
}

func TestCompileAllCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := CompileAll(ctx, []Job{{Name: "a", Source: shaderSmallVertex}}, DefaultOptions())
	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Err, context.Canceled)
}

func TestAssembleLogsStages(t *testing.T) {
	var buf bytes.Buffer
	opts := DefaultOptions()
	opts.Logger = zerolog.New(&buf).Level(zerolog.DebugLevel)

	_, err := AssembleWithOptions(shaderSmallVertex, opts)
	require.NoError(t, err)
	for _, stage := range []string{"parsed", "compiled", "emitted"} {
		assert.Contains(t, buf.String(), `"message":"`+stage+`"`)
	}
}

func TestAssembleLogsFragmentInputs(t *testing.T) {
	var buf bytes.Buffer
	opts := DefaultOptions()
	opts.Kind = ir.KindFragment
	opts.Logger = zerolog.New(&buf).Level(zerolog.DebugLevel)

	data, err := AssembleWithOptions("!!FP1.0\nMOVR R0, f[TEX0];\nEND\n", opts)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"inputs":16`)

	// The fragment header carries the register count, not the input mask.
	c, err := container.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), c.Header.InputMask)
}
