// Package cli wires the datastream commands together.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tokligence/tokligence-datastream/internal/config"
	"github.com/tokligence/tokligence-datastream/internal/logging"
	"github.com/tokligence/tokligence-datastream/internal/version"
)

// ExitError carries a process exit code through cobra.
type ExitError struct {
	Code int
	Err  error
}

func (e ExitError) Error() string {
	if e.Err == nil {
		return "exit"
	}
	return e.Err.Error()
}

func (e ExitError) Unwrap() error { return e.Err }

// Exit codes.
const (
	exitFailure = 1
	exitUsage   = 2
	exitInput   = 3
	exitConfig  = 4
)

// app holds state shared by the subcommands of one invocation.
type app struct {
	configRoot string
	logLevel   string

	cfg    config.Config
	logger *logrus.Logger
	closer io.Closer
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "datastream",
		Short: "Encode chat completions as data stream records",
		Long: `datastream converts chat completion responses into the line-oriented
data stream format consumed by web chat UIs.

Key commands:
  datastream encode [file]   Encode an OpenAI, Anthropic or native response
  datastream demo            Encode loopback responses in every mode
  datastream ledger summary  Show token totals recorded by encode
  datastream version         Show build information`,
		Version:       version.Info(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&a.configRoot, "config-root", ".", "Directory containing config/setting.ini")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Override the configured log level")

	root.AddCommand(
		newEncodeCommand(a),
		newDemoCommand(a),
		newLedgerCommand(a),
		newVersionCommand(),
	)
	return root
}

// Execute runs the CLI and exits with the code carried by any ExitError.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		code := exitFailure
		var exitErr ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.Code
			err = exitErr.Err
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(code)
	}
}

// setup loads configuration and opens the logger. The returned function
// releases the log file.
func (a *app) setup(cmd *cobra.Command) (func(), error) {
	cfg, err := config.Load(a.configRoot)
	if err != nil {
		return nil, ExitError{Code: exitConfig, Err: err}
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	logger, closer, err := logging.New(logging.Options{
		Level:    cfg.LogLevel,
		File:     cfg.LogFile,
		MaxBytes: cfg.LogMaxBytes,
		Stderr:   cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, ExitError{Code: exitConfig, Err: err}
	}
	a.cfg, a.logger, a.closer = cfg, logger, closer
	return func() { _ = closer.Close() }, nil
}

func (a *app) log(name string) *logrus.Entry {
	return logging.Component(a.logger, a.cfg.Environment, name)
}
