package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/zen-systems/solvegate/pkg/archive"
	"github.com/zen-systems/solvegate/pkg/eval"
	"github.com/zen-systems/solvegate/pkg/sandbox"
)

func askCmd() *cobra.Command {
	var traceFlag bool
	var archiveFlag bool
	var archiveDir string

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Solve one question and print the answer",
		Long: `Plans the question, runs the strategy ensemble and prints the agreed
	answer on stdout.

	Use --trace to print the full result (plan, every strategy's answer,
	the vote tally and call counts) as JSON instead.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.Join(args, " ")

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			s, a, model, err := createSolver(cfg)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Solving with %s/%s\n", a.Name(), model)

			res := s.SolveDetailed(cmd.Context(), question)

			if archiveFlag {
				store, err := archive.NewStore(archiveDir)
				if err != nil {
					return fmt.Errorf("failed to open archive: %w", err)
				}
				if _, err := store.StoreTrace(res); err != nil {
					return fmt.Errorf("failed to archive trace: %w", err)
				}
				fmt.Fprintf(os.Stderr, "Trace archived as %s\n", res.RunID)
			}

			if traceFlag {
				data, err := json.MarshalIndent(res, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(data))
				return nil
			}
			fmt.Println(res.Answer)
			return nil
		},
	}

	cmd.Flags().BoolVar(&traceFlag, "trace", false, "print the full result as JSON")
	cmd.Flags().BoolVar(&archiveFlag, "archive", false, "archive the result trace")
	cmd.Flags().StringVar(&archiveDir, "archive-dir", "", "trace archive directory (default ~/.solvegate/traces)")

	return cmd
}

func evalCmd() *cobra.Command {
	var dataPath, dbPath, logPath, archiveDir string
	var limit, offset int
	var archiveFlag bool

	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Score the solver against a labelled dataset",
		Long: `Runs every record of a JSON dataset ([{"input", "output", "domain"}])
	through the solver, writes a per-question log and prints a per-domain
	accuracy report.

	Use --db to keep runs and per-strategy outcomes in a SQLite database.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := eval.LoadDataset(dataPath, offset, limit)
			if err != nil {
				return err
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			s, a, model, err := createSolver(cfg)
			if err != nil {
				return err
			}

			var out io.Writer = os.Stdout
			if logPath != "" {
				f, err := os.Create(logPath)
				if err != nil {
					return fmt.Errorf("failed to create log: %w", err)
				}
				defer f.Close()
				out = f
			}

			var opts []eval.Option
			var store *eval.Store
			if dbPath != "" {
				store, err = eval.OpenStore(dbPath)
				if err != nil {
					return err
				}
				defer store.Close()
				opts = append(opts, eval.WithStore(store, eval.RunMeta{Adapter: a.Name(), Model: model, Dataset: dataPath}))
			}
			if archiveFlag {
				traces, err := archive.NewStore(archiveDir)
				if err != nil {
					return fmt.Errorf("failed to open archive: %w", err)
				}
				opts = append(opts, eval.WithTraces(traces))
			}

			fmt.Fprintf(os.Stderr, "Evaluating %d questions with %s/%s\n", len(records), a.Name(), model)
			report, runErr := eval.NewHarness(s, out, opts...).Run(cmd.Context(), records)
			if report == nil {
				return runErr
			}

			fmt.Println()
			report.Write(os.Stdout)

			if store != nil {
				agreement, err := store.StrategyAgreement(report.RunID)
				if err != nil {
					return err
				}
				fmt.Println()
				w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "STRATEGY\tRUNS\tANSWERED\tAGREED")
				for _, ag := range agreement {
					fmt.Fprintf(w, "%s\t%d\t%d\t%d\n", ag.Strategy, ag.Runs, ag.Answered, ag.Agreed)
				}
				if err := w.Flush(); err != nil {
					return err
				}
				fmt.Fprintf(os.Stderr, "Run %s stored in %s\n", report.RunID, dbPath)
			}
			return runErr
		},
	}

	cmd.Flags().StringVar(&dataPath, "data", "", "dataset JSON file")
	cmd.Flags().IntVar(&limit, "limit", 0, "evaluate at most this many records (0 for all)")
	cmd.Flags().IntVar(&offset, "offset", 0, "skip this many records")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database for run results")
	cmd.Flags().StringVar(&logPath, "log", "", "write the question log to a file instead of stdout")
	cmd.Flags().BoolVar(&archiveFlag, "archive", false, "archive every result trace")
	cmd.Flags().StringVar(&archiveDir, "archive-dir", "", "trace archive directory (default ~/.solvegate/traces)")
	_ = cmd.MarkFlagRequired("data")

	return cmd
}

func analyzeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze [logfile]",
		Short: "Re-score an evaluation log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			a, err := eval.AnalyzeLog(f)
			if err != nil {
				return err
			}
			a.Recorded.Write(os.Stdout)
			fmt.Println()
			fmt.Printf("Regraded: %d/%d correct (%.2f%%)\n", a.Regraded.Correct, a.Regraded.Total, a.Regraded.Accuracy())
			return nil
		},
	}
}

func sandboxCmd() *cobra.Command {
	var langFlag string
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "sandbox [file]",
		Short: "Run a code snippet in the sandbox",
		Long: `Executes a Go, Lua or expr snippet the way the solver does and prints
	its output. Reads stdin when no file is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var code []byte
			var err error
			if len(args) == 1 {
				code, err = os.ReadFile(args[0])
			} else {
				code, err = io.ReadAll(os.Stdin)
			}
			if err != nil {
				return err
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			runner := newRunner(cfg, timeout)

			var res sandbox.Result
			if langFlag != "" {
				lang := sandbox.ParseLanguage(langFlag)
				if !lang.Valid() {
					return fmt.Errorf("unknown language %q (want one of %v)", langFlag, sandbox.Languages)
				}
				res = runner.RunLanguage(cmd.Context(), lang, string(code))
			} else {
				res = runner.Run(cmd.Context(), string(code))
			}

			fmt.Println(res.String())
			if !res.Succeeded {
				return fmt.Errorf("%s run failed after %s", res.Language, res.Duration.Round(time.Millisecond))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&langFlag, "lang", "", "language (go, lua, expr); detected when empty")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "run timeout (default from config)")

	return cmd
}

func traceCmd() *cobra.Command {
	var archiveDir string

	cmd := &cobra.Command{
		Use:   "trace [run-id]",
		Short: "Print an archived result trace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := archive.NewStore(archiveDir)
			if err != nil {
				return err
			}
			res, err := store.LoadTrace(args[0])
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(res, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		},
	}

	cmd.Flags().StringVar(&archiveDir, "archive-dir", "", "trace archive directory (default ~/.solvegate/traces)")
	return cmd
}

func modelsCmd() *cobra.Command {
	var resolveFlag bool

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List adapters, models, and aliases",
		Long: `Lists adapters and their known models.

	Use --resolve to show aliases and what they resolve to.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			if resolveFlag {
				aliases := cfg.Aliases.ListAliases()
				names := make([]string, 0, len(aliases))
				for name := range aliases {
					names = append(names, name)
				}
				sort.Strings(names)
				fmt.Fprintln(w, "ALIAS\tMODEL\tPROVIDER")
				for _, name := range names {
					model := aliases[name]
					fmt.Fprintf(w, "%s\t%s\t%s\n", name, model, cfg.Aliases.GetProviderForModel(model))
				}
				return w.Flush()
			}

			fmt.Fprintln(w, "PROVIDER\tMODELS\tSTATUS")
			providers := append(cfg.Aliases.ListProviders(), "chat", "mock")
			for _, provider := range providers {
				models := formatList(cfg.Aliases.GetProviderModels(provider))
				status := "no key"
				if cfg.HasAdapter(provider) {
					status = "ready"
				}
				if provider == cfg.Gateway.Adapter {
					status += " (selected: " + cfg.Aliases.Resolve(cfg.Gateway.Model) + ")"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", provider, models, status)
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&resolveFlag, "resolve", false, "show aliases and what they resolve to")
	return cmd
}

func formatList(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}
