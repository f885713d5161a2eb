package main

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/franz/setlist/internal/assist"
	"github.com/franz/setlist/internal/audio"
	"github.com/franz/setlist/internal/store"
)

const (
	defaultServeAddr      = "127.0.0.1:8080"
	defaultConcurrency    = 4
	defaultReloadDebounce = 500 * time.Millisecond
)

func setDefaults() {
	viper.SetDefault("db", "~/.setlist/setlist.db")
	viper.SetDefault("store.backend", store.BackendSQLite)
	viper.SetDefault("ai.model", assist.DefaultModel)
	viper.SetDefault("ai.timeout", time.Duration(0))
	viper.SetDefault("ai.concurrency", defaultConcurrency)
	viper.SetDefault("record.command", audio.DefaultCaptureCommand)
	viper.SetDefault("serve.addr", defaultServeAddr)
	viper.SetDefault("serve.reload_debounce", defaultReloadDebounce)
	viper.SetDefault("audit.dir", "~/.setlist/audit")
}

// GetConfigString retrieves a string config value with proper precedence:
// 1. Command-line flag (if set)
// 2. Environment variable (SETLIST_*)
// 3. Config file
// 4. Default value
func GetConfigString(key string, defaultValue string) string {
	val := viper.GetString(key)
	if val == "" {
		return defaultValue
	}
	return val
}

// GetConfigInt retrieves an int config value with proper precedence
func GetConfigInt(key string, defaultValue int) int {
	val := viper.GetInt(key)
	if val <= 0 {
		return defaultValue
	}
	return val
}

// GetConfigDuration retrieves a duration config value; plain numbers are seconds
func GetConfigDuration(key string, defaultValue time.Duration) time.Duration {
	if !viper.IsSet(key) {
		return defaultValue
	}
	val := viper.GetDuration(key)
	if val < 0 {
		return defaultValue
	}
	if val > 0 && val < time.Millisecond {
		// viper reads a bare integer as nanoseconds
		return val * time.Second
	}
	return val
}

// GetConfigBool retrieves a bool config value
func GetConfigBool(key string) bool {
	return viper.GetBool(key)
}

// GetConfigPath retrieves a path config value with ~ expanded
func GetConfigPath(key string, defaultValue string) string {
	return expandHome(GetConfigString(key, defaultValue))
}

// apiKey resolves the Gemini key: ai.api_key, then GEMINI_API_KEY, then API_KEY
func apiKey() string {
	if key := strings.TrimSpace(viper.GetString("ai.api_key")); key != "" {
		return key
	}
	for _, name := range []string{"GEMINI_API_KEY", "API_KEY"} {
		if key := strings.TrimSpace(os.Getenv(name)); key != "" {
			return key
		}
	}
	return ""
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
