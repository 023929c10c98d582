package main

import (
	"os"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/joayo/arena/internal/world"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// setupLogging configures the global zerolog logger from LOG_LEVEL.
func setupLogging() {
	level, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if getEnv("LOG_PRETTY", "") != "" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

// loadTuning reads the gameplay tuning file named by TUNING_FILE, falling
// back to the built-in defaults when none is configured.
func loadTuning() (world.Tuning, error) {
	path := getEnv("TUNING_FILE", "")
	if path == "" {
		tuning := world.DefaultTuning()
		return tuning, tuning.Validate()
	}
	return world.LoadTuning(path)
}
