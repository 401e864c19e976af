package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/gogpu/rsxc"
	"github.com/gogpu/rsxc/asm"
	"github.com/gogpu/rsxc/ir"
)

// inputKinds maps input extensions to a program kind and whether the file
// is Cg source.
var inputKinds = map[string]struct {
	kind ir.ProgramKind
	cg   bool
}{
	".vpa": {ir.KindVertex, false},
	".vp":  {ir.KindVertex, false},
	".fpa": {ir.KindFragment, false},
	".fp":  {ir.KindFragment, false},
	".vcg": {ir.KindVertex, true},
	".fcg": {ir.KindFragment, true},
}

var outputExt = map[ir.ProgramKind]string{
	ir.KindVertex:   ".vpo",
	ir.KindFragment: ".fpo",
}

func (a *app) batchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch [-j n] [-o dir] <inputs...>",
		Short: "Compile many programs in parallel",
		Long: `Compile many programs in parallel.

The extension selects the program kind: .vpa/.vp and .fpa/.fp are assembly,
.vcg and .fcg are Cg source. Other files must be assembly with a !!VP or !!FP
header. Each output is written next to its input, or into -o, with a .vpo or
.fpo extension. Failures do not stop the other programs.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runBatch(cmd.Context(), args)
		},
	}
	flags := cmd.Flags()
	flags.IntP("jobs", "j", 0, "parallel pipelines (default one per CPU)")
	flags.StringP("out-dir", "o", "", "output directory")
	flags.StringP("entry", "e", "main", "entry function name for Cg inputs")
	return cmd
}

func (a *app) runBatch(ctx context.Context, inputs []string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	jobs := make([]rsxc.Job, 0, len(inputs))
	for _, input := range inputs {
		source, err := os.ReadFile(input)
		if err != nil {
			return err
		}
		job := rsxc.Job{Name: input, Source: string(source)}
		if k, ok := inputKinds[strings.ToLower(filepath.Ext(input))]; ok {
			job.Kind, job.Compile = k.kind, k.cg
		} else if kind, ok := asm.DetectKind(job.Source); ok {
			job.Kind = kind
		} else {
			return fmt.Errorf("%s: cannot tell a vertex from a fragment program", input)
		}
		jobs = append(jobs, job)
	}

	opts := a.options(ir.KindVertex)
	opts.Parallelism = a.v.GetInt("jobs")
	if lo.SomeBy(jobs, func(j rsxc.Job) bool { return j.Compile }) {
		compiler, release := a.compiler()
		defer release()
		opts.Compiler = compiler
	}

	results, err := rsxc.CompileAll(ctx, jobs, opts)
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		output := a.outputPath(r.Job.Name, r.Job.Kind)
		if werr := writeFileAtomic(output, r.Output); werr != nil {
			return werr
		}
		fmt.Fprintf(a.stdout, "%s -> %s (%d bytes)\n", r.Job.Name, output, len(r.Output))
	}
	if err != nil {
		failed := lo.CountBy(results, func(r rsxc.Result) bool { return r.Err != nil })
		return fmt.Errorf("%d of %d programs failed: %w", failed, len(results), err)
	}
	return nil
}

func (a *app) outputPath(input string, kind ir.ProgramKind) string {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input)) + outputExt[kind]
	if dir := a.v.GetString("out-dir"); dir != "" {
		return filepath.Join(dir, base)
	}
	return filepath.Join(filepath.Dir(input), base)
}
