package cmd

import (
	"errors"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/matchday/internal/applicant"
	"github.com/spigell/matchday/internal/logger"
)

var excludeCmd = &cobra.Command{
	Use:   "exclude ID...",
	Short: "Keep applicants out of the following rounds",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		exclude(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(excludeCmd)

	excludeCmd.Flags().String("reason", "excluded by operator", "reason stored next to the applicants")
}

func exclude(cmd *cobra.Command, ids []string) {
	l, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		l.Fatal("getting a config", zap.Error(err))
	}

	path := config.ExcludeFile
	if path == "" {
		l.Fatal("exclude file is not set", zap.String("hint", "use --exclude-file or exclude-file in the config"))
	}

	excluded, err := applicant.GetExcludedApplicantsFromFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		excluded = &applicant.ExcludedApplicants{}
	case err != nil:
		l.Fatal("reading exclude file", zap.String("path", path), zap.Error(err))
	}

	reason, _ := cmd.Flags().GetString("reason")
	excluded.Append(applicant.NewExcluded(reason, ids...))

	if err := excluded.ToFile(path); err != nil {
		l.Fatal("writing exclude file", zap.String("path", path), zap.Error(err))
	}

	l.Info("applicants excluded", zap.Strings("applicants", ids), zap.String("path", path), zap.Int("total", len(excluded.Items)))
}
