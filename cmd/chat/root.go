package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"llm-chat-client/internal/client"
	"llm-chat-client/internal/config"
	"llm-chat-client/internal/llm"
	"llm-chat-client/internal/processor"
	"llm-chat-client/internal/storage"
	"llm-chat-client/internal/types"

	"github.com/spf13/cobra"
)

// Process exit codes by error kind
const (
	exitOK            = 0
	exitUnknown       = 1
	exitConfiguration = 2
	exitTransport     = 3
	exitProvider      = 4
)

// app carries what every subcommand needs once configuration is loaded
type app struct {
	cfg        *config.Config
	stdout     io.Writer
	stderr     io.Writer
	logCleanup func()
	clientOpts []client.Option
}

// run executes the CLI and returns the process exit code
func run(ctx context.Context, args []string, stdout, stderr io.Writer, opts ...client.Option) int {
	a := &app{stdout: stdout, stderr: stderr, logCleanup: func() {}, clientOpts: opts}
	defer func() { a.logCleanup() }()

	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}
	fmt.Fprintf(stderr, "error: %s\n", types.Describe(err))
	return exitCode(err)
}

func exitCode(err error) int {
	switch types.Kind(err) {
	case "":
		return exitOK
	case types.KindConfiguration:
		return exitConfiguration
	case types.KindTransport:
		return exitTransport
	case types.KindProvider:
		return exitProvider
	default:
		return exitUnknown
	}
}

func newRootCmd(a *app) *cobra.Command {
	ask := newAskCmd(a)

	cmd := &cobra.Command{
		Use:           "chat [prompt...]",
		Short:         "Send prompts to a hosted chat-completion model",
		Version:       version,
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
		RunE: ask.RunE,
	}
	cmd.Flags().AddFlagSet(ask.Flags())

	cmd.PersistentFlags().String("config", "", "Config file path (default config.yaml, or CONFIG_PATH).")
	cmd.PersistentFlags().String("env-file", "", "Dotenv file path (default .env, or ENV_FILE).")
	cmd.PersistentFlags().String("backend", "", "Backend: openai|langchain.")
	cmd.PersistentFlags().String("model", "", "Model name.")
	cmd.PersistentFlags().String("endpoint", "", "Provider base URL.")
	cmd.PersistentFlags().Duration("timeout", 0, "Per-call timeout, e.g. 30s (0 keeps the configured value).")
	cmd.PersistentFlags().String("log-level", "", "Logging level: debug|info|warn|error.")
	cmd.PersistentFlags().String("log-format", "", "Logging format: text|json.")

	cmd.AddCommand(ask)
	cmd.AddCommand(newServeCmd(a))
	cmd.AddCommand(newMCPCmd(a))
	cmd.AddCommand(newHistoryCmd(a))
	cmd.AddCommand(newPingCmd(a))
	return cmd
}

// load reads configuration, applies flag overrides and installs the logger
func (a *app) load(cmd *cobra.Command) error {
	flags := cmd.Flags()
	if path, _ := flags.GetString("config"); path != "" {
		os.Setenv(config.EnvConfigPath, path)
	}
	if path, _ := flags.GetString("env-file"); path != "" {
		os.Setenv(config.EnvEnvFile, path)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	if v, _ := flags.GetString("backend"); v != "" {
		cfg.LLM.Backend = v
	}
	if v, _ := flags.GetString("model"); v != "" {
		cfg.LLM.Model = v
	}
	if v, _ := flags.GetString("endpoint"); v != "" {
		cfg.LLM.Endpoint = v
	}
	if v, _ := flags.GetDuration("timeout"); v > 0 {
		cfg.LLM.Timeout = v
	}
	if v, _ := flags.GetString("log-level"); v != "" {
		cfg.Log.Level = v
	}
	if v, _ := flags.GetString("log-format"); v != "" {
		cfg.Log.Format = v
	}

	// stdout carries the MCP protocol
	if cmd.Name() == "mcp" {
		cfg.Log.Output = withoutStdout(cfg.Log.Output)
	}

	logger, cleanup := setupLogger(cfg, a.stdout, a.stderr)
	slog.SetDefault(logger)
	a.logCleanup = cleanup
	a.cfg = cfg
	return nil
}

func withoutStdout(outputs string) string {
	var kept []string
	for _, o := range strings.Split(outputs, ",") {
		if o = strings.TrimSpace(o); o != "" && o != "stdout" {
			kept = append(kept, o)
		}
	}
	if len(kept) == 0 {
		return "stderr"
	}
	return strings.Join(kept, ",")
}

func (a *app) newClient() (llm.Client, error) {
	return client.NewLLM(a.cfg.LLM, a.clientOpts...)
}

// openStorage returns nil when history is disabled
func (a *app) openStorage() (storage.Repository, error) {
	switch a.cfg.Storage.Driver {
	case "":
		return nil, nil
	case config.StorageDriverSQLite:
		store, err := storage.NewSQLiteRepository(a.cfg.Storage.DSN)
		if err != nil {
			return nil, &types.ConfigurationError{Field: "storage.dsn", Message: "open " + a.cfg.Storage.DSN, Err: err}
		}
		return store, nil
	default:
		return nil, types.NewConfigurationError("storage.driver", "unknown driver "+a.cfg.Storage.Driver)
	}
}

// openHistory opens storage if enabled; the returned close func must be called
func (a *app) openHistory() (storage.Repository, func(), error) {
	store, err := a.openStorage()
	if err != nil {
		return nil, nil, err
	}
	if store == nil {
		return nil, func() {}, nil
	}
	return store, func() {
		if err := store.Close(); err != nil {
			slog.Warn("close storage failed", "error", err)
		}
	}, nil
}

// newProcessor builds the processor; with viaAgent each prompt runs as one ADK agent turn
func (a *app) newProcessor(viaAgent bool) (*processor.Processor, func(), error) {
	llmClient, err := a.newClient()
	if err != nil {
		return nil, nil, err
	}
	if viaAgent {
		llmClient = client.NewAgentClient(llmClient)
	}
	store, closeFn, err := a.openHistory()
	if err != nil {
		return nil, nil, err
	}
	slog.Debug("client ready", "client", llmClient.Name(), "history", store != nil)
	return processor.New(llmClient, store, processor.WithSaveTimeout(a.cfg.Storage.Timeout)), closeFn, nil
}

// storageTimeout bounds a single history query
func (a *app) storageTimeout() time.Duration {
	if a.cfg.Storage.Timeout > 0 {
		return a.cfg.Storage.Timeout
	}
	return processor.DefaultSaveTimeout
}
