package cmd

import (
	"errors"
	"log"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "matchday"
)

type Config struct {
	Database    *DatabaseConfig `mapstructure:"database"`
	PoolFile    string          `mapstructure:"pool-file"`
	ExcludeFile string          `mapstructure:"exclude-file"`
	Exclude     *struct {
		Applicants []string
	}
	Matching *MatchingConfig `mapstructure:"matching"`
	Report   *ReportConfig   `mapstructure:"report"`
	Metrics  *MetricsConfig  `mapstructure:"metrics"`
	Simulate *SimulateConfig `mapstructure:"simulate"`
}

type DatabaseConfig struct {
	URL            string        `mapstructure:"url"`
	URLFile        string        `mapstructure:"url-file"`
	MaxOpenConns   int           `mapstructure:"max-open-conns"`
	ConnectRetries int           `mapstructure:"connect-retries"`
	RetryDelay     time.Duration `mapstructure:"retry-delay"`
}

type MatchingConfig struct {
	Rules                 []string `mapstructure:"rules"`
	AvoidPreviousPartners bool     `mapstructure:"avoid-previous-partners"`
}

type ReportConfig struct {
	Markdown string `mapstructure:"markdown"`
	Outcomes string `mapstructure:"outcomes"`
}

type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

type SimulateConfig struct {
	Rounds      int     `mapstructure:"rounds"`
	PoolSize    int     `mapstructure:"pool-size"`
	Seed        int64   `mapstructure:"seed"`
	Concurrency int     `mapstructure:"concurrency"`
	MaleRatio   float64 `mapstructure:"male-ratio"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "matchday pairs mutually compatible applicants of a matching round",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("database.url-file", "MATCHDAY_DATABASE_URL_FILE"); err != nil {
		log.Fatalf("binding MATCHDAY_DATABASE_URL_FILE environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is matchday.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().StringP("exclude-file", "e", "", "file with applicants kept out of every round. Default is unset.")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("exclude-file", rootCmd.PersistentFlags().Lookup("exclude-file"))

	viper.SetDefault("database.max-open-conns", 5)
	viper.SetDefault("database.connect-retries", 3)
	viper.SetDefault("database.retry-delay", "2s")
	viper.SetDefault("simulate.rounds", 20)
	viper.SetDefault("simulate.pool-size", 200)
	viper.SetDefault("simulate.seed", 1)
	viper.SetDefault("simulate.concurrency", 4)
	viper.SetDefault("simulate.male-ratio", 0.5)
}

func initConfig() {
	// The version command works without any config.
	if versionCmd.CalledAs() != "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
	}

	// An explicitly given config must be readable; the default one is optional.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return
		}
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config == nil {
		config = &Config{}
	}
	if config.Matching == nil {
		config.Matching = &MatchingConfig{}
	}
	if config.Report == nil {
		config.Report = &ReportConfig{}
	}
	if config.Metrics == nil {
		config.Metrics = &MetricsConfig{}
	}

	return config, nil
}
