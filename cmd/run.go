package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/spigell/matchday/internal/filtering"
	"github.com/spigell/matchday/internal/logger"
	"github.com/spigell/matchday/internal/matching"
	"github.com/spigell/matchday/internal/metrics"
	"github.com/spigell/matchday/internal/report"
	"github.com/spigell/matchday/internal/store"
)

const (
	PromptYes            = "Yes"
	PromptNo             = "No"
	PromptShowReport     = "Show report"
	PromptOutcomesToFile = "Dump outcomes to file"
)

var errExit = errors.New("exit requested")

var prompt = promptui.Select{
	Label: "Save the round?",
	Items: []string{PromptYes, PromptNo, PromptShowReport, PromptOutcomesToFile},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Match a round and save the result",
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	addSourceFlags(runCmd)
	runCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation before saving the round")
	runCmd.Flags().Bool("dry-run", false, "match and report only, never save the round")
}

// run is the main command for the cli.
func run(cmd *cobra.Command) {
	ctx := context.Background()
	runID := uuid.NewString()

	l, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	l = logger.WithRoundFields(l, "", runID)

	config, err := getConfig()
	if err != nil {
		l.Fatal("getting a config", zap.Error(err))
	}

	l.Info("starting the matchday", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	l.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	src, err := loadRound(ctx, cmd, config, l)
	if err != nil {
		l.Fatal("loading the round", zap.Error(err))
	}
	defer src.Close()

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	if src.Round != nil && src.Round.Executed && !dryRun {
		l.Fatal("exiting", zap.Error(store.ErrRoundExecuted), zap.String("hint", "use --dry-run to inspect an executed round"))
	}

	rl := logger.WithRoundFields(l, src.ID, "")

	m := metrics.New()
	start := time.Now()

	result, err := match(ctx, config, src, l, rl)
	m.ObserveRun(start, err)
	if err != nil {
		writeMetrics(config, m, rl)
		rl.Fatal("matching failed", zap.Error(err))
	}
	m.ObserveResult(result)
	writeMetrics(config, m, rl)

	if err := writeReports(config, runID, result, src); err != nil {
		rl.Error("writing reports", zap.Error(err))
	}

	if reason := stopReason(src, result, dryRun); reason != "" {
		rl.Info("exiting", zap.String("reason", reason), zap.Int("pairs", result.Summary.Pairs))
		return
	}
	if result.Summary.Applicants == 0 {
		rl.Info("no applicants left after filters, the round is saved without pairs")
	}

	action := PromptYes
	autoApprove, _ := cmd.Flags().GetBool("yes")
	for {
		var err error
		if !autoApprove {
			_, action, err = prompt.Run()
			if err != nil {
				rl.Fatal("exiting", zap.Error(err))
			}
		}

		if err := handleAction(ctx, action, rl, runID, src, result); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			rl.Fatal("exiting", zap.Error(err))
		}
	}
}

// stopReason tells why a matched round must not be saved, or returns "" when it
// should be. An empty database round is still saved so it is marked executed.
func stopReason(src *roundSource, result *matching.Result, dryRun bool) string {
	switch {
	case dryRun:
		return "dry run"
	case src.Store == nil && result.Summary.Applicants == 0:
		return "no applicants left after filters"
	default:
		return ""
	}
}

// match filters the pool and runs the engine with the configured rules.
// l must not carry the round id, the engine adds it.
func match(ctx context.Context, config *Config, src *roundSource, l, rl *zap.Logger) (*matching.Result, error) {
	filterConfig := &filtering.Config{ExcludeFile: config.ExcludeFile}
	if config.Exclude != nil {
		filterConfig.ExcludedApplicants = config.Exclude.Applicants
	}

	steps := filtering.Default()
	if src.Store != nil {
		filtering.DisableByName(steps, "withdrawn", "database query returns active applications only")
	}

	pool, err := filtering.Run(ctx, filterConfig, filtering.Deps{Logger: rl}, steps, src.Pool)
	if err != nil {
		return nil, fmt.Errorf("filtering: %w", err)
	}
	src.Pool = pool

	predicate, err := buildPredicate(ctx, config, src, rl)
	if err != nil {
		return nil, err
	}

	return matching.New(l, matching.WithPredicate(predicate)).Run(src.ID, pool)
}

func handleAction(ctx context.Context, action string, l *zap.Logger, runID string, src *roundSource, result *matching.Result) error {
	switch action {
	case PromptYes:
		if err := save(ctx, l, runID, src, result); err != nil {
			return err
		}
		return errExit
	case PromptNo:
		l.Info("exiting", zap.String("reason", "got no from prompt"))
		return errExit
	case PromptShowReport:
		fmt.Println(report.Markdown(result, src.Pool))
		return nil
	case PromptOutcomesToFile:
		filename, err := report.DumpOutcomesToTmpFile(runID, result)
		if err != nil {
			return fmt.Errorf("dump outcomes to file: %w", err)
		}
		l.Info("dumping outcomes to file", zap.String("filename", filename))
		return nil
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func save(ctx context.Context, l *zap.Logger, runID string, src *roundSource, result *matching.Result) error {
	if src.Store == nil {
		filename, err := report.DumpOutcomesToTmpFile(runID, result)
		if err != nil {
			return fmt.Errorf("dump outcomes to file: %w", err)
		}
		l.Info("pool file round is not persisted; outcomes dumped to file", zap.String("filename", filename))
		return nil
	}

	if err := src.Store.SaveResult(ctx, src.Round.ID, result, time.Now().UTC()); err != nil {
		return fmt.Errorf("saving round: %w", err)
	}
	return nil
}

func writeReports(config *Config, runID string, result *matching.Result, src *roundSource) error {
	var err error
	if path := config.Report.Markdown; path != "" {
		err = multierr.Append(err, report.WriteMarkdown(path, result, src.Pool))
	}
	if path := config.Report.Outcomes; path != "" {
		err = multierr.Append(err, report.WriteOutcomes(path, runID, result))
	}
	return err
}

func writeMetrics(config *Config, m *metrics.Metrics, l *zap.Logger) {
	if config.Metrics.Textfile == "" {
		return
	}
	if err := m.WriteTextfile(config.Metrics.Textfile); err != nil {
		l.Error("writing metrics textfile", zap.Error(err))
	}
}
