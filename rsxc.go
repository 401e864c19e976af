// Package rsxc compiles RSX (NV40) shader programs into the binary
// containers the PS3 graphics runtime loads.
//
// rsxc assembles vertex (VP40) and fragment (FP40) program assembly into
// 128-bit microcode and wraps it in a big-endian container with attribute,
// constant and name tables. Cg source can be compiled too when a cg.Compiler
// is supplied to produce the assembly first.
//
// Example usage:
//
//	source := `!!VP2.0
//	#var float4 position : $vin.POSITION : ATTR0 : 0 : 1
//	MOV o[HPOS], v[0];
//	`
//	data, err := rsxc.Assemble(source, ir.KindVertex)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// The stages are also available on their own: Parse produces the
// intermediate representation, CompileIR the microcode and Emit the
// container bytes.
package rsxc

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/gogpu/rsxc/asm"
	"github.com/gogpu/rsxc/cg"
	"github.com/gogpu/rsxc/container"
	"github.com/gogpu/rsxc/ir"
	"github.com/gogpu/rsxc/rsx"
)

// ErrNoCompiler is returned by Compile when Options.Compiler is nil.
var ErrNoCompiler = errors.New("rsxc: no Cg compiler configured")

// Options configures the compilation pipeline.
type Options struct {
	// Kind selects the vertex or fragment unit.
	Kind ir.ProgramKind

	// Entry is the Cg entry function (default "main").
	Entry string

	// Compiler turns Cg source into assembly. Only Compile uses it.
	Compiler cg.Compiler

	// Limits are the hardware limits enforced by the instruction compiler.
	Limits rsx.Options

	// Container configures the emitter.
	Container container.Options

	// Validate checks the parsed program's structure before compiling.
	Validate bool

	// Parallelism bounds CompileAll. Zero means one pipeline per CPU.
	Parallelism int

	// Logger receives stage summaries at debug level.
	Logger zerolog.Logger
}

// DefaultOptions returns sensible default options for vertex programs.
func DefaultOptions() Options {
	return Options{
		Kind:      ir.KindVertex,
		Entry:     "main",
		Limits:    rsx.DefaultOptions(),
		Container: container.DefaultOptions(),
		Validate:  true,
		Logger:    zerolog.Nop(),
	}
}

// Assemble compiles assembly text into a container using default options.
func Assemble(text string, kind ir.ProgramKind) ([]byte, error) {
	opts := DefaultOptions()
	opts.Kind = kind
	return AssembleWithOptions(text, opts)
}

// AssembleWithOptions compiles assembly text into a container.
//
// The pipeline is:
//  1. Parse assembly to the intermediate representation
//  2. Validate it (if enabled)
//  3. Encode microcode and bind constants
//  4. Emit the container
func AssembleWithOptions(text string, opts Options) ([]byte, error) {
	log := opts.Logger

	prog, err := Parse(text, opts.Kind)
	if err != nil {
		return nil, err
	}
	log.Debug().
		Stringer("kind", prog.Kind).
		Int("instructions", len(prog.Instructions)).
		Int("parameters", len(prog.Parameters)).
		Msg("parsed")

	if opts.Validate {
		if err := Validate(prog); err != nil {
			return nil, err
		}
	}

	out, err := CompileIR(prog, opts.Limits)
	if err != nil {
		return nil, err
	}
	log.Debug().
		Int("slots", len(out.Instructions)).
		Int("relocations", len(out.Relocations)).
		Int("constants", len(out.Constants)).
		Uint32("inputs", out.InputMask).
		Msg("compiled")

	data, err := Emit(out, prog.Parameters, opts.Container)
	if err != nil {
		return nil, err
	}
	log.Debug().Int("bytes", len(data)).Msg("emitted")
	return data, nil
}

// Compile runs the configured Cg compiler on source and assembles the
// result.
func Compile(ctx context.Context, source string, opts Options) ([]byte, error) {
	if opts.Compiler == nil {
		return nil, ErrNoCompiler
	}
	entry := opts.Entry
	if entry == "" {
		entry = "main"
	}
	profile := cg.ProfileFor(opts.Kind)
	opts.Logger.Debug().Stringer("profile", profile).Str("entry", entry).Msg("compiling Cg source")

	text, err := opts.Compiler.Compile(ctx, source, profile, entry)
	if err != nil {
		return nil, fmt.Errorf("cg compile: %w", err)
	}
	return AssembleWithOptions(text, opts)
}

// Parse parses assembly text of the given kind.
func Parse(text string, kind ir.ProgramKind) (*ir.Program, error) {
	prog, err := asm.Parse(text, kind)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	return prog, nil
}

// Validate checks the structure of a parsed program.
func Validate(prog *ir.Program) error {
	errs, err := ir.Validate(prog)
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("validation failed: %w", &errs[0])
	}
	return nil
}

// CompileIR encodes a parsed program into microcode.
func CompileIR(prog *ir.Program, limits rsx.Options) (*rsx.Program, error) {
	out, err := rsx.Compile(prog, limits)
	if err != nil {
		return nil, fmt.Errorf("compile error: %w", err)
	}
	return out, nil
}

// Emit serializes compiled microcode into a container.
func Emit(prog *rsx.Program, params []ir.Parameter, opts container.Options) ([]byte, error) {
	data, err := container.Emit(prog, params, opts)
	if err != nil {
		return nil, fmt.Errorf("emit error: %w", err)
	}
	return data, nil
}
