package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tokligence/tokligence-datastream/internal/datastream"
	"github.com/tokligence/tokligence-datastream/internal/ledger"
	"github.com/tokligence/tokligence-datastream/internal/source"
)

type encodeOptions struct {
	mode      string
	chunkSize int
	format    string
	model     string
	noLedger  bool
}

func newEncodeCommand(a *app) *cobra.Command {
	opts := &encodeOptions{}
	cmd := &cobra.Command{
		Use:   "encode [file|-]",
		Short: "Encode a response document to stdout",
		Long: `Reads an OpenAI chat completion (JSON or SSE), an Anthropic message or a
native response (JSON or YAML) and writes its data stream encoding.
With no file, or "-", the document is read from stdin.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "-"
			if len(args) == 1 {
				path = args[0]
			}
			return a.runEncode(cmd, path, opts)
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&opts.mode, "mode", "m", "", "Encoding mode: plain, chunked or tools (default from config)")
	flags.IntVar(&opts.chunkSize, "chunk-size", 0, "Characters per text record in chunked mode (default from config)")
	flags.StringVarP(&opts.format, "format", "f", "", "Input format: auto, native, openai, openai-sse or anthropic")
	flags.StringVar(&opts.model, "model", "", "Model name recorded in the ledger when the document has none")
	flags.BoolVar(&opts.noLedger, "no-ledger", false, "Skip the usage ledger for this run")
	return cmd
}

func (a *app) runEncode(cmd *cobra.Command, path string, opts *encodeOptions) error {
	cleanup, err := a.setup(cmd)
	if err != nil {
		return err
	}
	defer cleanup()
	log := a.log("encode")

	mode := a.cfg.Mode
	if cmd.Flags().Changed("mode") {
		if mode, err = datastream.ParseMode(opts.mode); err != nil {
			return ExitError{Code: exitUsage, Err: err}
		}
	}
	chunkSize := a.cfg.ChunkSize
	if cmd.Flags().Changed("chunk-size") {
		chunkSize = opts.chunkSize
	}
	format := a.cfg.SourceFormat
	if cmd.Flags().Changed("format") {
		if format, err = source.ParseFormat(opts.format); err != nil {
			return ExitError{Code: exitUsage, Err: err}
		}
	}

	doc, err := source.Load(path, format, cmd.InOrStdin())
	if err != nil {
		return ExitError{Code: exitInput, Err: err}
	}
	model := doc.Model
	if model == "" {
		model = opts.model
	}
	log = log.WithFields(logrus.Fields{"source": displayPath(path), "format": string(doc.Format), "mode": string(mode)})

	stats := &datastream.Stats{}
	enc := datastream.NewEncoder(datastream.WithObserver(stats, logObserver{log: log}))
	out, err := enc.EncodeMode(doc.Response, mode, chunkSize)
	if err != nil {
		if errors.Is(err, datastream.ErrInvalidChunkSize) {
			return ExitError{Code: exitUsage, Err: err}
		}
		return ExitError{Code: exitFailure, Err: err}
	}
	if _, err := io.WriteString(cmd.OutOrStdout(), out); err != nil {
		return ExitError{Code: exitFailure, Err: fmt.Errorf("write output: %w", err)}
	}
	log.WithFields(logrus.Fields{
		"records":   stats.Records(),
		"bytes":     stats.Bytes,
		"fallbacks": stats.Fallbacks,
	}).Debug("encoded response")

	if a.cfg.LedgerEnabled && !opts.noLedger {
		entry := ledger.NewEntry(displayPath(path), model, mode, doc.Response.Usage, *stats)
		if err := a.record(cmd.Context(), entry); err != nil {
			log.WithError(err).Warn("ledger record failed")
		}
	}
	return nil
}

func (a *app) record(ctx context.Context, entry ledger.Entry) error {
	if ctx == nil {
		ctx = context.Background()
	}
	store, err := openLedger(ctx, a.cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.Record(ctx, entry)
}

func displayPath(path string) string {
	if path == "" || path == "-" {
		return "stdin"
	}
	return path
}
