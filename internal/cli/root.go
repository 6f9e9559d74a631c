// Package cli implements the soorch command line: index a directory to a
// file, or serve ranked queries over HTTP.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/soorch/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/soorch/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/soorch/pkg/logger"
)

const usage = `SOORCH Usage:
index <dir> <index_path>: index a directory into a json
serve <dir> <address:port>: start an http server on address
`

// App carries the clock and output streams the commands use. Tests replace
// them.
type App struct {
	Now func() time.Time
	Out io.Writer
	Err io.Writer

	configPath string
	// onListen, when set, receives the bound address once serve is listening.
	onListen func(addr string)
}

func New() *App {
	return &App{
		Now: time.Now,
		Out: os.Stdout,
		Err: os.Stderr,
	}
}

// Execute runs the command line given by args (without the program name).
func (a *App) Execute(ctx context.Context, args []string) error {
	cmd := a.NewRootCmd()
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

// NewRootCmd builds the soorch command tree. Fewer than two arguments print
// the usage text; an unrecognized verb is reported on stderr and nothing is
// run.
func (a *App) NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "soorch",
		Short: "Index a directory of documents and rank them with TF-IDF",
		Long: `soorch builds a term-count index over the files of a directory and
ranks documents against a query phrase with TF-IDF.`,
		Args:         cobra.ArbitraryArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) < 2 {
				return a.printUsage()
			}
			return a.timed(func() error {
				_, err := fmt.Fprintf(a.Err, "%v %q\n", apperrors.ErrUnknownCommand, args[0])
				return err
			})
		},
	}
	cmd.SetOut(a.Out)
	cmd.SetErr(a.Err)
	cmd.CompletionOptions.DisableDefaultCmd = true

	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "path to a YAML config file")

	cmd.AddCommand(a.newIndexCmd())
	cmd.AddCommand(a.newServeCmd())
	return cmd
}

func (a *App) printUsage() error {
	_, err := io.WriteString(a.Out, usage)
	return err
}

// verbArgs accepts either no arguments, which prints the usage text, or
// exactly the verb's two operands.
func verbArgs(cmd *cobra.Command, args []string) error {
	if len(args) == 0 || len(args) == 2 {
		return nil
	}
	return fmt.Errorf("%s takes 2 arguments, got %d", cmd.Name(), len(args))
}

// timed runs fn and, if it succeeds, prints how long it took.
func (a *App) timed(fn func() error) error {
	start := a.Now()
	if err := fn(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(a.Out, "Elapsed: %s\n", a.Now().Sub(start).Round(time.Microsecond))
	return err
}

// loadConfig reads the --config file, if any, and installs the logger.
// Logs go to the error stream so stdout carries only command output.
func (a *App) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format, a.Err)
	return cfg, nil
}
