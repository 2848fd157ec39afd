package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/zen-systems/solvegate/pkg/adapter"
	"github.com/zen-systems/solvegate/pkg/config"
	"github.com/zen-systems/solvegate/pkg/logging"
	"github.com/zen-systems/solvegate/pkg/sandbox"
	"github.com/zen-systems/solvegate/pkg/solver"
)

var (
	configFile  string
	adapterFlag string
	modelFlag   string
	logFileFlag string
	verboseFlag bool
)

func main() {
	// The sandbox re-executes this binary; the worker never reaches cobra.
	if sandbox.IsWorker() {
		os.Exit(sandbox.WorkerMain())
	}

	rootCmd := &cobra.Command{
		Use:   "solvegate",
		Short: "Answer questions with planned, voted ensembles of reasoning strategies",
		Long: `Solvegate plans how to approach a question, runs an ensemble of
	reasoning strategies (chain-of-thought, program-aided and tool-using
	loops), and returns the answer the strategies agree on.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to config file (default ~/.solvegate/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&adapterFlag, "adapter", "", "override adapter (openai, chat, anthropic, google, mock)")
	rootCmd.PersistentFlags().StringVar(&modelFlag, "model", "", "override model or alias")
	rootCmd.PersistentFlags().StringVar(&logFileFlag, "log-file", "", "write logs to a rotating file instead of stderr")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(askCmd())
	rootCmd.AddCommand(evalCmd())
	rootCmd.AddCommand(analyzeCmd())
	rootCmd.AddCommand(sandboxCmd())
	rootCmd.AddCommand(traceCmd())
	rootCmd.AddCommand(modelsCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	logging.Close()
	if err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the configuration, applies the global flags and sets up
// logging.
func loadConfig() (*config.Config, error) {
	if adapterFlag != "" {
		os.Setenv(config.EnvAdapter, adapterFlag)
	}
	if modelFlag != "" {
		os.Setenv(config.EnvModel, modelFlag)
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if logFileFlag != "" {
		cfg.Logging.File = logFileFlag
	}

	if err := logging.Configure(logging.Options{
		Level:      cfg.Logging.Level,
		Verbose:    verboseFlag,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
	}); err != nil {
		return nil, err
	}
	return cfg, nil
}

// createAdapter builds the configured gateway and returns it with the
// resolved model name.
func createAdapter(cfg *config.Config) (adapter.Adapter, string, error) {
	model := cfg.Aliases.Resolve(cfg.Gateway.Model)
	if err := cfg.Aliases.ValidateGateway(cfg.Gateway); err != nil {
		logrus.WithError(err).Warn("model is not listed for this adapter")
	}

	switch cfg.Gateway.Adapter {
	case "openai":
		a, err := adapter.NewOpenAIAdapter(cfg.APIKeys.OpenAI, cfg.Gateway.BaseURL)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create openai adapter: %w", err)
		}
		return a, model, nil
	case "chat":
		a, err := adapter.NewChatHTTPAdapter(cfg.APIKeys.OpenAI, cfg.Gateway.BaseURL, cfg.Gateway.Timeout(), model)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create chat adapter: %w", err)
		}
		return a, model, nil
	case "anthropic":
		a, err := adapter.NewAnthropicAdapter(cfg.APIKeys.Anthropic)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create anthropic adapter: %w", err)
		}
		return a, model, nil
	case "google":
		a, err := adapter.NewGoogleAdapter(cfg.APIKeys.Google)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create google adapter: %w", err)
		}
		return a, model, nil
	case "mock":
		return adapter.NewMockAdapter(), model, nil
	default:
		return nil, "", fmt.Errorf("unknown adapter %q", cfg.Gateway.Adapter)
	}
}

// newRunner builds the sandbox; a positive timeout overrides the config.
func newRunner(cfg *config.Config, timeout time.Duration) *sandbox.Runner {
	if timeout <= 0 {
		timeout = cfg.Sandbox.Timeout()
	}
	return sandbox.NewRunner(
		sandbox.WithTimeout(timeout),
		sandbox.WithLanguage(sandbox.ParseLanguage(cfg.Sandbox.DefaultLanguage)),
	)
}

// createSolver wires the gateway, sandbox and solver settings together.
func createSolver(cfg *config.Config) (*solver.Solver, adapter.Adapter, string, error) {
	a, model, err := createAdapter(cfg)
	if err != nil {
		return nil, nil, "", err
	}

	var counter adapter.TokenCounter
	if a.Name() == "mock" {
		counter = adapter.WordCounter{}
	}
	s, err := solver.New(solver.Options{
		Adapter:                a,
		Model:                  model,
		Sandbox:                newRunner(cfg, 0),
		Settings:               cfg.StrategySettings(),
		Ensembles:              cfg.Ensembles(),
		Quorum:                 cfg.Solver.Quorum,
		PlannerTemperature:     cfg.PlannerTemperature(),
		SelfCorrectTemperature: cfg.SelfCorrectTemperature(),
		Counter:                counter,
		Pricing:                cfg.Pricing,
	})
	if err != nil {
		return nil, nil, "", err
	}
	return s, a, model, nil
}
