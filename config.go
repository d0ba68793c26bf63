package main

import (
	"bufio"
	"os"
	"strings"
)

// Config holds the server's runtime settings, read from the
// environment (optionally populated from a .env file).
type Config struct {
	Port           string
	DBPath         string
	AllowedOrigins []string
	Debug          bool
}

func ConfigFromEnv() Config {
	cfg := Config{
		Port:           os.Getenv("PORT"),
		DBPath:         os.Getenv("BOARDFLOW_DB"),
		AllowedOrigins: []string{"*"},
		Debug:          os.Getenv("BOARDFLOW_DEBUG") == "true",
	}
	if cfg.Port == "" {
		cfg.Port = "3001"
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "./boardflow.db"
	}
	if origins := os.Getenv("BOARDFLOW_CORS_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = strings.Split(origins, ",")
	}
	return cfg
}

// LoadEnv loads environment variables from a .env file. A missing file
// is not an error; the environment is simply left as-is.
func LoadEnv(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()

		// Skip empty lines and comments
		if len(line) == 0 || strings.HasPrefix(line, "#") {
			continue
		}

		// Split on the first equals sign
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue // Skip malformed lines
		}

		// Trim spaces and optional quotes from the value
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		value = strings.Trim(value, `"'`)

		os.Setenv(key, value)
	}

	return scanner.Err()
}
