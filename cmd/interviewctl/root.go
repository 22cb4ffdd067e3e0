package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/terra-clan/interview-engine/pkg/client"
)

const (
	app = "interviewctl"
)

// Config is what the CLI reads from flags, environment and the optional config file
type Config struct {
	Server  string        `mapstructure:"server"`
	APIKey  string        `mapstructure:"api-key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:           app,
		Short:         "interviewctl prices, provisions and inspects AI interviews",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute executes the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return err
	}
	return nil
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is interviewctl.yaml in current directory)")
	rootCmd.PersistentFlags().String("server", "http://localhost:8080", "interview-engine base URL")
	rootCmd.PersistentFlags().String("api-key", "", "operator API key")
	rootCmd.PersistentFlags().Duration("timeout", 5*time.Minute, "request timeout")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")

	viper.BindPFlag("server", rootCmd.PersistentFlags().Lookup("server"))
	viper.BindPFlag("api-key", rootCmd.PersistentFlags().Lookup("api-key"))
	viper.BindPFlag("timeout", rootCmd.PersistentFlags().Lookup("timeout"))
	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))

	viper.BindEnv("server", "INTERVIEW_ENGINE_URL")
	viper.BindEnv("api-key", "INTERVIEW_ENGINE_API_KEY")
}

func initConfig() {
	_ = godotenv.Load()

	level := slog.LevelWarn
	if viper.GetBool("debug") {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// The config file is optional; flags and environment are enough
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			slog.Warn("failed to read config file", "error", err)
		}
		return
	}
	slog.Debug("config file loaded", "file", viper.ConfigFileUsed())
}

func getConfig() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if config.Server == "" {
		return nil, errors.New("server URL is required")
	}
	return &config, nil
}

func newClient() (*client.Client, error) {
	cfg, err := getConfig()
	if err != nil {
		return nil, err
	}
	return client.NewClient(cfg.Server, cfg.APIKey, client.WithTimeout(cfg.Timeout)), nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
