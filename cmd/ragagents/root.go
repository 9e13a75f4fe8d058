package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/PujaAmmineni/RAG-AGENTS/internal/application"
)

// version is set at build time via -ldflags.
var version = "dev"

type rootOptions struct {
	configPath string
	envFile    string
	logLevel   string
	logFormat  string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "ragagents",
		Short: "Answer questions over your documents with collaborating agents",
		Long: "ragagents indexes PDF and text documents, retrieves the passages relevant\n" +
			"to a question and has an analyzer, a prover and a verifier answer it together.",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		Version: version,
	}

	f := root.PersistentFlags()
	f.StringVarP(&opts.configPath, "config", "c", "", "Path to YAML config (defaults apply when empty)")
	f.StringVar(&opts.envFile, "env-file", ".env", "Dotenv file consulted after the process environment")
	f.StringVar(&opts.logLevel, "log-level", "", "Log level override: debug, info, warn or error")
	f.StringVar(&opts.logFormat, "log-format", "", "Log format override: text or json")

	root.AddCommand(
		newAskCmd(opts),
		newChatCmd(opts),
		newIndexCmd(opts),
		newInfoCmd(opts),
		newVersionCmd(),
	)
	return root
}

// load reads configuration and applies the logging overrides.
func (o *rootOptions) load() (application.Config, error) {
	loader, err := application.NewConfigLoader(application.DotenvLookup(o.envFile))
	if err != nil {
		return application.Config{}, err
	}
	cfg, err := loader.LoadFromFile(o.configPath)
	if err != nil {
		return application.Config{}, err
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if o.logFormat != "" {
		cfg.Log.Format = o.logFormat
	}
	return cfg, nil
}

// setup loads configuration and wires the application.
func (o *rootOptions) setup(cmd *cobra.Command, needLLM bool) (*app, error) {
	cfg, err := o.load()
	if err != nil {
		return nil, err
	}
	logger := newLogger(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
	return buildApp(cfg, logger, needLLM)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
