package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/PujaAmmineni/RAG-AGENTS/infrastructure/tui"
	"github.com/PujaAmmineni/RAG-AGENTS/internal/application"
	"github.com/PujaAmmineni/RAG-AGENTS/internal/domain"
)

var (
	errAnswerFailed   = errors.New("answer failed")
	errSkipIndexTFIDF = errors.New("--skip-index needs a persistent embedder; tfidf vectors are built at index time")
)

type serveOptions struct {
	metricsAddr string
	skipIndex   bool
}

func (s *serveOptions) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&s.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9090")
	f.BoolVar(&s.skipIndex, "skip-index", false, "Reuse an existing vector index instead of indexing at startup (not with tfidf)")
}

// start serves metrics when requested and builds the index.
func (s *serveOptions) start(ctx context.Context, a *app) error {
	addr := s.metricsAddr
	if addr == "" && a.cfg.Metrics.Enabled {
		addr = a.cfg.Metrics.Addr
	}
	if addr != "" {
		a.serveMetrics(ctx, addr)
	}
	if s.skipIndex {
		if a.cfg.Embedder.Type == "tfidf" {
			return errSkipIndexTFIDF
		}
		return nil
	}
	_, err := a.pipeline.Index(ctx)
	if errors.Is(err, domain.ErrNoDocuments) {
		a.logger.Warn("no documents indexed; questions will fail until documents are added")
		return nil
	}
	return err
}

func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
}

func newAskCmd(root *rootOptions) *cobra.Command {
	var raw bool
	var serve serveOptions
	cmd := &cobra.Command{
		Use:   "ask QUESTION",
		Short: "Answer a single question and exit",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext(cmd)
			defer cancel()

			a, err := root.setup(cmd, true)
			if err != nil {
				return err
			}
			if err := serve.start(ctx, a); err != nil {
				return err
			}

			result := a.pipeline.Answer(ctx, strings.Join(args, " "))
			out := cmd.OutOrStdout()
			if raw && !result.HasError() {
				fmt.Fprintln(out, result.RawResponse)
				return nil
			}
			fmt.Fprintln(out, tui.RenderBlocks(application.Render(result), tui.DefaultWidth))
			if result.HasError() {
				return errAnswerFailed
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "Print the raw transcript instead of formatted blocks")
	serve.register(cmd)
	return cmd
}

func newChatCmd(root *rootOptions) *cobra.Command {
	var serve serveOptions
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Ask questions interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signalContext(cmd)
			defer cancel()

			a, err := root.setup(cmd, true)
			if err != nil {
				return err
			}
			if err := serve.start(ctx, a); err != nil {
				return err
			}
			err = tui.Run(ctx, a.pipeline)
			if ctx.Err() != nil {
				return nil
			}
			return err
		},
	}
	serve.register(cmd)
	return cmd
}

func newIndexCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "index",
		Short: "Build the vector index and report statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signalContext(cmd)
			defer cancel()

			a, err := root.setup(cmd, false)
			if err != nil {
				return err
			}
			stats, err := a.pipeline.Index(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Indexed %s documents into %s chunks with %s in %s\n",
				humanize.Comma(int64(stats.Documents)),
				humanize.Comma(int64(stats.Chunks)),
				stats.Embedder,
				stats.Elapsed.Round(time.Millisecond))
			return nil
		},
	}
}

func newInfoCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Summarize the document container",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			logger := newLogger(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
			source, err := newSource(cfg.Storage, logger)
			if err != nil {
				return err
			}
			info, err := source.Info(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Container:     %s\n", info.Name)
			fmt.Fprintf(out, "Objects:       %s\n", humanize.Comma(int64(info.TotalObjects)))
			fmt.Fprintf(out, "PDF documents: %s\n", humanize.Comma(int64(info.PDFObjects)))
			fmt.Fprintf(out, "Total size:    %s\n", humanize.Bytes(uint64(info.TotalSize)))
			if !info.LastModified.IsZero() {
				fmt.Fprintf(out, "Last modified: %s (%s)\n", info.LastModified.Format(time.RFC3339), humanize.Time(info.LastModified))
			}
			logger.Debug("container info", slog.String("name", info.Name), slog.Int("objects", info.TotalObjects))
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ragagents %s\n", version)
		},
	}
}
