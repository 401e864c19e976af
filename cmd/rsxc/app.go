package main

import (
	"errors"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/mitchellh/go-homedir"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gogpu/rsxc/cg"
)

// app holds the state shared by all subcommands.
type app struct {
	v      *viper.Viper
	log    zerolog.Logger
	stdout io.Writer
	stderr io.Writer
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{
		v:      viper.New(),
		log:    zerolog.Nop(),
		stdout: stdout,
		stderr: stderr,
	}
}

func (a *app) root() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "rsxc",
		Short:         "Compile RSX vertex and fragment programs",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.configure(cmd)
		},
	}
	cmd.SetOut(a.stdout)
	cmd.SetErr(a.stderr)

	flags := cmd.PersistentFlags()
	flags.String("config", "", "config file (default ~/.rsxc.yaml)")
	flags.String("log-level", "warn", "log level (debug, info, warn, error)")
	flags.Bool("no-color", false, "disable colored output")
	flags.String("cg-library", "", "path to the Cg runtime library")
	flags.String("cgc", "", "use this cgc executable instead of the Cg runtime")

	cmd.AddCommand(
		a.compileCmd(),
		a.batchCmd(),
		a.inspectCmd(),
		a.disCmd(),
	)
	return cmd
}

// configure loads the config file and environment, binds flags, and sets
// up logging and color.
func (a *app) configure(cmd *cobra.Command) error {
	v := a.v
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		expanded, err := homedir.Expand(path)
		if err != nil {
			return err
		}
		v.SetConfigFile(expanded)
	} else if home, err := homedir.Dir(); err == nil {
		v.AddConfigPath(home)
		v.SetConfigName(".rsxc")
		v.SetConfigType("yaml")
	}
	v.SetEnvPrefix("RSXC")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return err
		}
	}
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	if err := v.BindPFlags(cmd.InheritedFlags()); err != nil {
		return err
	}

	if v.GetBool("no-color") {
		color.NoColor = true
	}
	level, err := zerolog.ParseLevel(v.GetString("log-level"))
	if err != nil {
		return err
	}
	a.log = zerolog.New(zerolog.ConsoleWriter{
		Out:     a.stderr,
		NoColor: color.NoColor,
	}).Level(level).With().Timestamp().Logger()
	return nil
}

// compiler returns the upstream Cg compiler: the cgc executable when one
// is configured, else the Cg runtime, else cgc from PATH.
func (a *app) compiler() (cg.Compiler, func()) {
	if path := a.v.GetString("cgc"); path != "" {
		return &cg.Command{Path: path}, func() {}
	}
	lib, err := cg.Open(a.v.GetString("cg-library"))
	if err != nil {
		a.log.Debug().Err(err).Msg("Cg runtime not loaded, using cgc")
		return &cg.Command{}, func() {}
	}
	a.log.Debug().Str("path", lib.Path()).Msg("loaded Cg runtime")
	return lib, func() { _ = lib.Close() }
}

func (a *app) red(s string) string {
	return color.New(color.FgRed).Sprint(s)
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
