package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/matchday/internal/logger"
	"github.com/spigell/matchday/internal/matching"
	"github.com/spigell/matchday/internal/metrics"
	"github.com/spigell/matchday/internal/simulate"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Match synthetic rounds to see how the rules behave on random pools",
	Run: func(_ *cobra.Command, _ []string) {
		runSimulation()
	},
}

func init() {
	rootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().Int("rounds", 0, "number of rounds to generate")
	simulateCmd.Flags().Int("pool-size", 0, "applicants per round")
	simulateCmd.Flags().Int64("seed", 0, "seed of the first round")
	simulateCmd.Flags().Int("concurrency", 0, "rounds matched at the same time")
	simulateCmd.Flags().Float64("male-ratio", 0, "share of male applicants")

	for _, name := range []string{"rounds", "pool-size", "seed", "concurrency", "male-ratio"} {
		viper.BindPFlag("simulate."+name, simulateCmd.Flags().Lookup(name))
	}
}

func runSimulation() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	l, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		l.Fatal("getting a config", zap.Error(err))
	}
	sc := config.Simulate
	if sc == nil {
		sc = &SimulateConfig{}
	}

	// Synthetic applicants have no history and no companies.
	rules, err := matching.BuildRules(config.Matching.Rules, matching.RuleDeps{})
	if err != nil {
		l.Fatal("building rules", zap.Error(err))
	}
	engine := matching.New(l, matching.WithPredicate(matching.NewPredicate(rules...)))

	m := metrics.New()
	start := time.Now()
	summary, err := simulate.Run(ctx, simulate.Config{
		Rounds:      sc.Rounds,
		PoolSize:    sc.PoolSize,
		Seed:        sc.Seed,
		Concurrency: sc.Concurrency,
		MaleRatio:   sc.MaleRatio,
	}, engine, l)
	m.ObserveRun(start, err)
	writeMetrics(config, m, l)
	if err != nil {
		l.Fatal("simulation failed", zap.Error(err))
	}

	l.Info("simulation finished",
		zap.Int("rounds", len(summary.Rounds)),
		zap.Int("applicants", summary.Applicants),
		zap.Int("pairs", summary.Pairs),
		zap.Int("min_pairs", summary.MinPairs),
		zap.Int("max_pairs", summary.MaxPairs),
	)

	fmt.Printf("| Round | Applicants | Compatible pairs | Pairs |\n|---|---|---|---|\n")
	for _, r := range summary.Rounds {
		fmt.Printf("| %s | %d | %d | %d |\n", r.ID, r.Applicants, r.Edges, r.Pairs)
	}
	fmt.Printf("\nMatch rate: %.1f%%\n", summary.MatchRate*100)
}
