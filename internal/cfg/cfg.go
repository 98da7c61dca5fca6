// Package cfg loads service configuration from a YAML file with
// environment-variable overrides. A .env file is honored when present.
package cfg

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Settings is the resolved configuration shared by the training and
// serving binaries.
type Settings struct {
	DatasetPath  string
	ArtifactPath string
	DataPath     string // audit log directory, optional

	ListenPort  int
	MetricsPort int

	TestFraction       float64
	Seed               int64
	LearningRate       float64
	MaxDepth           int
	Rounds             int
	EarlyStopRounds    int
	ValidationFraction float64
}

type ConfigFile struct {
	Paths struct {
		Dataset  string `yaml:"dataset"`
		Artifact string `yaml:"artifact"`
		Data     string `yaml:"data"`
	} `yaml:"paths"`

	Server struct {
		ListenPort  int `yaml:"listenPort"`
		MetricsPort int `yaml:"metricsPort"`
	} `yaml:"server"`

	Training struct {
		TestFraction       float64 `yaml:"testFraction"`
		Seed               int64   `yaml:"seed"`
		LearningRate       float64 `yaml:"learningRate"`
		MaxDepth           int     `yaml:"maxDepth"`
		Rounds             int     `yaml:"rounds"`
		EarlyStopRounds    int     `yaml:"earlyStopRounds"`
		ValidationFraction float64 `yaml:"validationFraction"`
	} `yaml:"training"`
}

// Load resolves settings from CONFIG_FILE when set, otherwise from
// environment variables with built-in defaults.
func Load() (Settings, error) {
	// Best effort; absence of a .env file is the normal case.
	_ = godotenv.Load()

	if configPath := os.Getenv("CONFIG_FILE"); configPath != "" {
		return loadFromYAML(configPath)
	}
	return loadFromEnv()
}

func loadFromYAML(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	settings := Settings{
		DatasetPath:        getEnvOrDefault("DATASET_PATH", config.Paths.Dataset),
		ArtifactPath:       getEnvOrDefault("ARTIFACT_PATH", config.Paths.Artifact),
		DataPath:           getEnvOrDefault("DATA_PATH", config.Paths.Data),
		ListenPort:         getIntFromEnvOrConfig("LISTEN_PORT", config.Server.ListenPort, 8000),
		MetricsPort:        getIntFromEnvOrConfig("METRICS_PORT", config.Server.MetricsPort, 9090),
		TestFraction:       getFloatFromEnvOrConfig("TEST_FRACTION", config.Training.TestFraction, 0.2),
		Seed:               getInt64FromEnvOrConfig("SEED", config.Training.Seed, 42),
		LearningRate:       getFloatFromEnvOrConfig("LEARNING_RATE", config.Training.LearningRate, 0.1),
		MaxDepth:           getIntFromEnvOrConfig("MAX_DEPTH", config.Training.MaxDepth, 7),
		Rounds:             getIntFromEnvOrConfig("ROUNDS", config.Training.Rounds, 100),
		EarlyStopRounds:    getIntFromEnvOrConfig("EARLY_STOP_ROUNDS", config.Training.EarlyStopRounds, 10),
		ValidationFraction: getFloatFromEnvOrConfig("VALIDATION_FRACTION", config.Training.ValidationFraction, 0.1),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return settings, nil
}

func loadFromEnv() (Settings, error) {
	settings := Settings{
		DatasetPath:        getEnvOrDefault("DATASET_PATH", "data/mushroom.csv"),
		ArtifactPath:       getEnvOrDefault("ARTIFACT_PATH", "models/bundle.json"),
		DataPath:           os.Getenv("DATA_PATH"), // optional
		ListenPort:         getIntOrDefault("LISTEN_PORT", 8000),
		MetricsPort:        getIntOrDefault("METRICS_PORT", 9090),
		TestFraction:       getFloatOrDefault("TEST_FRACTION", 0.2),
		Seed:               getInt64OrDefault("SEED", 42),
		LearningRate:       getFloatOrDefault("LEARNING_RATE", 0.1),
		MaxDepth:           getIntOrDefault("MAX_DEPTH", 7),
		Rounds:             getIntOrDefault("ROUNDS", 100),
		EarlyStopRounds:    getIntOrDefault("EARLY_STOP_ROUNDS", 10),
		ValidationFraction: getFloatOrDefault("VALIDATION_FRACTION", 0.1),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return settings, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getInt64OrDefault(key string, defaultValue int64) int64 {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getIntFromEnvOrConfig(key string, configValue, defaultValue int) int {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.Atoi(env); err == nil {
			return val
		}
	}
	if configValue != 0 {
		return configValue
	}
	return defaultValue
}

func getInt64FromEnvOrConfig(key string, configValue, defaultValue int64) int64 {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.ParseInt(env, 10, 64); err == nil {
			return val
		}
	}
	if configValue != 0 {
		return configValue
	}
	return defaultValue
}

func getFloatFromEnvOrConfig(key string, configValue, defaultValue float64) float64 {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.ParseFloat(env, 64); err == nil {
			return val
		}
	}
	if configValue != 0 {
		return configValue
	}
	return defaultValue
}

func validateSettings(settings *Settings) error {
	if settings.DatasetPath == "" {
		return fmt.Errorf("dataset path cannot be empty")
	}
	if settings.ArtifactPath == "" {
		return fmt.Errorf("artifact path cannot be empty")
	}

	if settings.ListenPort < 1024 || settings.ListenPort > 65535 {
		return fmt.Errorf("listen port must be between 1024 and 65535, got %d", settings.ListenPort)
	}
	if settings.MetricsPort < 1024 || settings.MetricsPort > 65535 {
		return fmt.Errorf("metrics port must be between 1024 and 65535, got %d", settings.MetricsPort)
	}
	if settings.ListenPort == settings.MetricsPort {
		return fmt.Errorf("listen and metrics ports must differ, both are %d", settings.ListenPort)
	}

	if settings.TestFraction <= 0 || settings.TestFraction >= 0.5 {
		return fmt.Errorf("test fraction must be between 0 and 0.5, got %f", settings.TestFraction)
	}
	if settings.ValidationFraction <= 0 || settings.ValidationFraction >= 0.5 {
		return fmt.Errorf("validation fraction must be between 0 and 0.5, got %f", settings.ValidationFraction)
	}
	if settings.LearningRate <= 0 || settings.LearningRate > 1 {
		return fmt.Errorf("learning rate must be between 0 and 1, got %f", settings.LearningRate)
	}
	if settings.MaxDepth < 1 || settings.MaxDepth > 32 {
		return fmt.Errorf("max depth must be between 1 and 32, got %d", settings.MaxDepth)
	}
	if settings.Rounds < 1 || settings.Rounds > 10000 {
		return fmt.Errorf("rounds must be between 1 and 10000, got %d", settings.Rounds)
	}
	if settings.EarlyStopRounds < 0 || settings.EarlyStopRounds > settings.Rounds {
		return fmt.Errorf("early stop rounds must be between 0 and %d, got %d", settings.Rounds, settings.EarlyStopRounds)
	}

	return nil
}
