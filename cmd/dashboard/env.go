package main

import (
	"bufio"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

func defaultEnvPath() string {
	if path := os.Getenv("AUTHSESSION_ENV_FILE"); path != "" {
		return path
	}
	return ".env"
}

// loadEnvFile sets KEY=VALUE pairs from path without overriding variables
// already present in the environment. A missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			slog.Warn("invalid env line", "line", lineNum, "file", filepath.Base(path))
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)
		if key == "" {
			continue
		}
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			slog.Warn("set env", "key", key, "error", err)
		}
	}
	return scanner.Err()
}
