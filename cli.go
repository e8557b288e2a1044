package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pageCraftNN/internal/config"
	"pageCraftNN/internal/logger"
)

type rootOptions struct {
	configPath string
}

type transformOptions struct {
	input  string
	bare   bool
	pretty bool
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "pagecraft-nn",
		Short: "PageCraft NN proxy server",
		Long: `Serves POST /process, which takes a saved canvas work and returns a
processed copy. Without a subcommand the server is started.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts.configPath)
		},
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", config.DefaultConfigPath, "Path to YAML config file")

	cmd.AddCommand(newServeCommand(opts), newTransformCommand(opts))
	return cmd
}

func newServeCommand(rootOpts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), rootOpts.configPath)
		},
	}
}

func newTransformCommand(rootOpts *rootOptions) *cobra.Command {
	opts := &transformOptions{}

	cmd := &cobra.Command{
		Use:   "transform",
		Short: "Process a document offline",
		Long: `Reads a {"payload": ...} request document, runs the same validation and
transform as POST /process and prints the response document. With --bare the
input and output are plain SavedWork documents.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransform(cmd, rootOpts, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.input, "input", "i", "-", "Input file, - for stdin")
	cmd.Flags().BoolVar(&opts.bare, "bare", false, "Read and write a bare SavedWork instead of the request envelope")
	cmd.Flags().BoolVar(&opts.pretty, "pretty", false, "Indent the output")
	return cmd
}

func runTransform(cmd *cobra.Command, rootOpts *rootOptions, opts *transformOptions) error {
	cfg, err := config.Load(rootOpts.configPath)
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	body, err := readInput(cmd.InOrStdin(), opts.input)
	if err != nil {
		return err
	}

	svc := newProcessService(cfg, log)

	var out any
	if opts.bare {
		work, stats, err := svc.ProcessBare(cmd.Context(), body)
		if err != nil {
			return err
		}
		log.Info("processed payload", zap.Int("items", stats.TotalItems), zap.Int("resolutions", stats.Resolutions))
		out = work
	} else {
		resp, stats, err := svc.Process(cmd.Context(), body)
		if err != nil {
			return err
		}
		log.Info("processed payload", zap.Int("items", stats.TotalItems), zap.Int("resolutions", stats.Resolutions))
		out = resp
	}

	return writeOutput(cmd.OutOrStdout(), out, opts.pretty)
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(stdin)
	}
	body, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("input file %q not found", path)
		}
		return nil, fmt.Errorf("read input: %w", err)
	}
	return body, nil
}

func writeOutput(w io.Writer, v any, pretty bool) error {
	encoder := json.NewEncoder(w)
	if pretty {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(v)
}
