package cmd

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/matchday/internal/applicant"
	"github.com/spigell/matchday/internal/matching"
	"github.com/spigell/matchday/internal/secrets"
	"github.com/spigell/matchday/internal/store"
)

// roundSource is a loaded round: either a pool file or a database round.
type roundSource struct {
	ID    string
	Pool  *applicant.Pool
	Round *store.Round
	Store *store.Store
}

func (s *roundSource) Close() {
	if s.Store != nil {
		_ = s.Store.Close()
	}
}

func addSourceFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("pool", "p", "", "JSON file with the applicants of a round. The database is used when unset.")
	cmd.Flags().Int64P("round", "r", 0, "database round id. Default is the latest round.")
	cmd.Flags().String("round-id", "file", "round id used in logs and reports for pool files")
}

// loadRound reads the applicant pool from the pool file when one is given and from
// the database otherwise.
func loadRound(ctx context.Context, cmd *cobra.Command, config *Config, logger *zap.Logger) (*roundSource, error) {
	poolFile, _ := cmd.Flags().GetString("pool")
	if poolFile == "" {
		poolFile = strings.TrimSpace(config.PoolFile)
	}

	if poolFile != "" {
		pool, err := applicant.LoadPoolFile(poolFile)
		if err != nil {
			return nil, err
		}
		id, _ := cmd.Flags().GetString("round-id")
		logger.Info("loaded pool file", zap.String("path", poolFile), zap.Int("applicants", pool.Len()))
		return &roundSource{ID: id, Pool: pool}, nil
	}

	st, err := openStore(ctx, config, logger)
	if err != nil {
		return nil, err
	}

	roundID, _ := cmd.Flags().GetInt64("round")
	var round *store.Round
	if roundID > 0 {
		round, err = st.Round(ctx, roundID)
	} else {
		round, err = st.LatestRound(ctx)
	}
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("getting round: %w", err)
	}

	pool, err := st.LoadPool(ctx, round.ID)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("loading round %d pool: %w", round.ID, err)
	}

	logger.Info("loaded round from database",
		zap.Int64("round", round.ID),
		zap.Bool("executed", round.Executed),
		zap.Int("applicants", pool.Len()),
	)

	return &roundSource{ID: round.Label(), Pool: pool, Round: round, Store: st}, nil
}

func openStore(ctx context.Context, config *Config, logger *zap.Logger) (*store.Store, error) {
	db := config.Database
	if db == nil {
		db = &DatabaseConfig{}
	}

	url, err := secrets.Load(secrets.Source{
		Name:  "database url",
		File:  db.URLFile,
		Env:   "MATCHDAY_DATABASE_URL",
		Value: db.URL,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set --pool, database.url, MATCHDAY_DATABASE_URL or MATCHDAY_DATABASE_URL_FILE)", err)
	}

	cfg := store.DefaultConfig()
	cfg.URL = url
	if db.MaxOpenConns > 0 {
		cfg.MaxOpenConns = db.MaxOpenConns
	}
	if db.ConnectRetries >= 0 {
		cfg.ConnectRetries = db.ConnectRetries
	}
	if db.RetryDelay > 0 {
		cfg.RetryDelay = db.RetryDelay
	}

	return store.Open(ctx, cfg, logger)
}

// buildPredicate assembles the configured rules. Rules that need round history or the
// company directory read them from the database; pool file runs go without.
func buildPredicate(ctx context.Context, config *Config, src *roundSource, logger *zap.Logger) (*matching.Predicate, error) {
	names := ruleNames(config.Matching)

	var deps matching.RuleDeps
	if src.Store != nil {
		if slices.Contains(names, matching.RuleCompany) {
			companies, err := src.Store.Companies(ctx)
			if err != nil {
				return nil, fmt.Errorf("loading companies: %w", err)
			}
			deps.Companies = companies
		}
		if slices.Contains(names, matching.RuleNotPreviousPartner) {
			pairs, err := src.Store.PreviousPairs(ctx, src.Round.ID)
			if err != nil {
				return nil, fmt.Errorf("loading previous pairs: %w", err)
			}
			deps.PreviousPairs = pairs
		}
	} else if len(names) > 0 {
		logger.Warn("pool file run: company directory and round history are not available",
			zap.Strings("rules", names))
	}

	rules, err := matching.BuildRules(names, deps)
	if err != nil {
		return nil, err
	}
	return matching.NewPredicate(rules...), nil
}

// ruleNames returns the normalized optional rule names of the config.
func ruleNames(cfg *MatchingConfig) []string {
	names := make([]string, 0, len(cfg.Rules)+1)
	for _, raw := range cfg.Rules {
		if name := matching.RuleName(raw); name != "" {
			names = append(names, name)
		}
	}
	if cfg.AvoidPreviousPartners {
		names = append(names, matching.RuleNotPreviousPartner)
	}
	return names
}
