package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gogpu/rsxc"
	"github.com/gogpu/rsxc/asm"
	"github.com/gogpu/rsxc/ir"
)

func (a *app) compileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compile [-v|-f] [-e entry] [-a] <input> <output>",
		Short: "Compile one program into a container",
		Long: `Compile one program into a container.

Without -a the input is Cg source and goes through the Cg compiler first.
With -a the input is vertex or fragment assembly. The output file is only
written when the whole pipeline succeeds; "-" writes to stdout.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runCompile(cmd.Context(), args[0], args[1])
		},
	}
	flags := cmd.Flags()
	flags.BoolP("vertex", "v", false, "input is a vertex program")
	flags.BoolP("fragment", "f", false, "input is a fragment program")
	flags.StringP("entry", "e", "main", "entry function name")
	flags.BoolP("assemble", "a", false, "input is assembly, skip the Cg compiler")
	return cmd
}

func (a *app) runCompile(ctx context.Context, input, output string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	source, err := os.ReadFile(input)
	if err != nil {
		return err
	}

	assemble := a.v.GetBool("assemble")
	kind, err := a.programKind(string(source), assemble)
	if err != nil {
		return err
	}

	opts := a.options(kind)
	var data []byte
	if assemble {
		data, err = rsxc.AssembleWithOptions(string(source), opts)
	} else {
		compiler, release := a.compiler()
		defer release()
		opts.Compiler = compiler
		data, err = rsxc.Compile(ctx, string(source), opts)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", input, err)
	}

	if err := a.writeOutput(output, data); err != nil {
		return err
	}
	a.log.Info().Str("input", input).Str("output", output).Int("bytes", len(data)).Msg("compiled")
	return nil
}

// programKind picks the program kind from -v/-f, or from the assembly
// header when neither is given.
func (a *app) programKind(source string, assemble bool) (ir.ProgramKind, error) {
	vertex, fragment := a.v.GetBool("vertex"), a.v.GetBool("fragment")
	switch {
	case vertex && fragment:
		return 0, errors.New("-v and -f are mutually exclusive")
	case vertex:
		return ir.KindVertex, nil
	case fragment:
		return ir.KindFragment, nil
	}
	if assemble {
		if kind, ok := asm.DetectKind(source); ok {
			return kind, nil
		}
	}
	return 0, errors.New("program kind unknown: pass -v or -f")
}

func (a *app) options(kind ir.ProgramKind) rsxc.Options {
	opts := rsxc.DefaultOptions()
	opts.Kind = kind
	opts.Logger = a.log
	if entry := a.v.GetString("entry"); entry != "" {
		opts.Entry = entry
	}
	return opts
}

// writeOutput writes data to path atomically, or to stdout for "-".
func (a *app) writeOutput(path string, data []byte) error {
	if path == "-" {
		if isTerminal(a.stdout) {
			return errors.New("refusing to write a binary container to a terminal")
		}
		_, err := a.stdout.Write(data)
		return err
	}
	return writeFileAtomic(path, data)
}

func writeFileAtomic(path string, data []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
