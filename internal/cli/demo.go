package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tokligence/tokligence-datastream/internal/adapter"
	"github.com/tokligence/tokligence-datastream/internal/adapter/loopback"
	"github.com/tokligence/tokligence-datastream/internal/datastream"
	"github.com/tokligence/tokligence-datastream/internal/openai"
)

type demoSample struct {
	name string
	resp *datastream.Response
}

// builtinSamples cover the interesting encoder paths besides the loopback reply.
func builtinSamples() []demoSample {
	return []demoSample{
		{
			name: "special-characters",
			resp: datastream.TextResponse("She said \"hello\"\nthen wrote C:\\temp\\notes.txt\r\n\tdone", datastream.NewUsage(12, 18, 30)),
		},
		{
			name: "multiple-generations",
			resp: &datastream.Response{
				Generations: []datastream.Generation{
					{Text: "First answer."},
					{Text: "Second answer, with a call.", ToolCalls: []datastream.ToolCall{{
						ID:        "call_search",
						Name:      "search",
						Arguments: `{"query":"data stream protocol"}`,
					}}},
				},
				Usage: datastream.NewUsage(20, 40, 60),
			},
		},
		{
			name: "partial-usage",
			resp: datastream.TextResponse("Only the prompt was counted.", &datastream.Usage{PromptTokens: datastream.Tokens(7)}),
		},
		{
			name: "no-usage",
			resp: datastream.TextResponse("No finish record follows this line.", nil),
		},
	}
}

func newDemoCommand(a *app) *cobra.Command {
	var (
		mode      string
		sample    string
		prompt    string
		chunkSize int
	)
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Encode sample responses in every mode",
		Long: `Encodes a loopback model reply and a set of built-in responses with each
mode. Samples: loopback, special-characters, multiple-generations,
partial-usage, no-usage.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cleanup, err := a.setup(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			modes := datastream.Modes
			if mode != "" {
				m, err := datastream.ParseMode(mode)
				if err != nil {
					return ExitError{Code: exitUsage, Err: err}
				}
				modes = []datastream.Mode{m}
			}
			if !cmd.Flags().Changed("chunk-size") {
				chunkSize = a.cfg.ChunkSize
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			samples, err := a.demoSamples(ctx, loopback.New(), prompt)
			if err != nil {
				return err
			}
			if sample != "" {
				samples = filterSamples(samples, sample)
				if len(samples) == 0 {
					return ExitError{Code: exitUsage, Err: fmt.Errorf("unknown sample %q", sample)}
				}
			}
			return a.runDemo(cmd, samples, modes, chunkSize)
		},
	}
	cmd.Flags().StringVarP(&mode, "mode", "m", "", "Only run one mode")
	cmd.Flags().StringVarP(&sample, "sample", "s", "", "Only encode one sample")
	cmd.Flags().StringVarP(&prompt, "prompt", "p", `What's the weather in "Paris"?`, "User message sent to the loopback model")
	cmd.Flags().IntVar(&chunkSize, "chunk-size", 0, "Characters per text record in chunked mode (default from config)")
	return cmd
}

// demoSamples asks model for a reply that calls a tool and appends the built-in samples.
func (a *app) demoSamples(ctx context.Context, model adapter.ChatAdapter, prompt string) ([]demoSample, error) {
	req := openai.ChatCompletionRequest{
		Model:    "loopback",
		Messages: []openai.ChatMessage{{Role: "user", Content: prompt}},
		Tools: []openai.Tool{{
			Type: "function",
			Function: openai.ToolFunction{
				Name:        "lookup",
				Description: "Look up the user's request",
			},
		}},
	}
	resp, err := model.CreateCompletion(ctx, req)
	if err != nil {
		return nil, ExitError{Code: exitFailure, Err: fmt.Errorf("loopback completion: %w", err)}
	}
	a.log("demo").WithField("id", resp.ID).Debug("loopback response ready")
	return append([]demoSample{{name: "loopback", resp: resp.DataStream()}}, builtinSamples()...), nil
}

func (a *app) runDemo(cmd *cobra.Command, samples []demoSample, modes []datastream.Mode, chunkSize int) error {
	enc := datastream.NewEncoder(datastream.WithObserver(logObserver{log: a.log("demo")}))
	out := cmd.OutOrStdout()
	for i, s := range samples {
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintf(out, "## %s\n", s.name)
		for _, m := range modes {
			encoded, err := enc.EncodeMode(s.resp, m, chunkSize)
			if err != nil {
				return ExitError{Code: exitUsage, Err: err}
			}
			fmt.Fprintf(out, "# %s\n%s", m, encoded)
		}
	}
	return nil
}

func filterSamples(samples []demoSample, name string) []demoSample {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, s := range samples {
		if s.name == name {
			return []demoSample{s}
		}
	}
	return nil
}
