package partition

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// Strategy selects how the initial clusters are constructed
type Strategy string

const (
	StrategyCluster Strategy = "cluster"
	StrategyMinCut  Strategy = "mincut"
)

// Config manages algorithm configuration using Viper
type Config struct {
	v      *viper.Viper
	logOut io.Writer
}

// NewConfig creates a new configuration with defaults
func NewConfig() *Config {
	v := viper.New()

	// Algorithm parameters
	v.SetDefault("algorithm.strategy", string(StrategyCluster))
	v.SetDefault("algorithm.refine", true)
	v.SetDefault("algorithm.iteration_budget", 10000)
	v.SetDefault("algorithm.target_score", 1.0)
	v.SetDefault("algorithm.escape_probability", 0.1)
	v.SetDefault("algorithm.move_retries", 10)
	v.SetDefault("algorithm.random_seed", time.Now().UnixNano())
	v.SetDefault("algorithm.randomize_seed_ties", false)

	// Logging parameters
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.enable_progress", true)
	v.SetDefault("logging.progress_interval", 1000)

	return &Config{v: v, logOut: os.Stderr}
}

// LoadFromFile loads configuration from file
func (c *Config) LoadFromFile(path string) error {
	c.v.SetConfigFile(path)
	return c.v.ReadInConfig()
}

// Getters for algorithm parameters
func (c *Config) Strategy() Strategy { return Strategy(c.v.GetString("algorithm.strategy")) }
func (c *Config) Refine() bool { return c.v.GetBool("algorithm.refine") }
func (c *Config) IterationBudget() int { return c.v.GetInt("algorithm.iteration_budget") }
func (c *Config) TargetScore() float64 { return c.v.GetFloat64("algorithm.target_score") }
func (c *Config) EscapeProbability() float64 { return c.v.GetFloat64("algorithm.escape_probability") }
func (c *Config) MoveRetries() int { return c.v.GetInt("algorithm.move_retries") }
func (c *Config) RandomSeed() int64 { return c.v.GetInt64("algorithm.random_seed") }
func (c *Config) RandomizeSeedTies() bool { return c.v.GetBool("algorithm.randomize_seed_ties") }

func (c *Config) LogLevel() string { return c.v.GetString("logging.level") }
func (c *Config) EnableProgress() bool { return c.v.GetBool("logging.enable_progress") }
func (c *Config) ProgressInterval() int { return c.v.GetInt("logging.progress_interval") }

func (c *Config) EnableMoveTracking() bool { return c.v.GetBool("analysis.track_moves") }
func (c *Config) TrackingOutputFile() string { return c.v.GetString("analysis.output_file") }

// Set allows dynamic configuration changes
func (c *Config) Set(key string, value interface{}) {
	c.v.Set(key, value)
}

// SetLogOutput redirects loggers created by CreateLogger, stderr by default
func (c *Config) SetLogOutput(w io.Writer) {
	c.logOut = w
}

// CreateLogger creates a zerolog logger based on config
func (c *Config) CreateLogger() zerolog.Logger {
	level, err := zerolog.ParseLevel(c.LogLevel())
	if err != nil {
		level = zerolog.InfoLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{
		Out:        c.logOut,
		TimeFormat: "15:04:05",
	}).Level(level).With().Timestamp().Str("service", "busplan").Logger()
}
