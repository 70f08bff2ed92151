package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/matchday/internal/logger"
	"github.com/spigell/matchday/internal/matching"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show how many applicants of a round one applicant prefers and is preferred by",
	Run: func(cmd *cobra.Command, _ []string) {
		stats(cmd)
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)

	addSourceFlags(statsCmd)
	statsCmd.Flags().StringP("applicant", "a", "", "applicant id")
	statsCmd.MarkFlagRequired("applicant")
}

func stats(cmd *cobra.Command) {
	ctx := context.Background()

	l, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		l.Fatal("getting a config", zap.Error(err))
	}

	src, err := loadRound(ctx, cmd, config, l)
	if err != nil {
		l.Fatal("loading the round", zap.Error(err))
	}
	defer src.Close()

	if err := src.Pool.Validate(); err != nil {
		l.Fatal("validating the pool", zap.Error(err))
	}

	id, _ := cmd.Flags().GetString("applicant")
	subject := src.Pool.FindByID(id)
	if subject == nil {
		l.Fatal("applicant is not in the round", zap.String("applicant", id), zap.String("round", src.ID))
	}

	predicate, err := buildPredicate(ctx, config, src, l)
	if err != nil {
		l.Fatal("building rules", zap.Error(err))
	}

	counts := matching.PreferenceCounts(subject, src.Pool.Items, predicate)

	out, err := json.MarshalIndent(struct {
		ApplicantID string   `json:"applicant_id"`
		RoundID     string   `json:"round_id"`
		Rules       []string `json:"rules"`
		matching.Counts
	}{
		ApplicantID: id,
		RoundID:     src.ID,
		Rules:       predicate.Rules(),
		Counts:      counts,
	}, "", "  ")
	if err != nil {
		l.Fatal("encoding counts", zap.Error(err))
	}
	fmt.Println(string(out))
}
