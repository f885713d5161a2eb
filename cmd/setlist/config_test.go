package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	setDefaults()
	t.Cleanup(func() {
		viper.Reset()
		setDefaults()
	})
}

func TestAPIKeyPrecedence(t *testing.T) {
	resetViper(t)
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("API_KEY", "")

	if got := apiKey(); got != "" {
		t.Fatalf("expected no key, got %q", got)
	}

	t.Setenv("API_KEY", "generic")
	if got := apiKey(); got != "generic" {
		t.Fatalf("expected API_KEY fallback, got %q", got)
	}

	t.Setenv("GEMINI_API_KEY", "gemini")
	if got := apiKey(); got != "gemini" {
		t.Fatalf("expected GEMINI_API_KEY over API_KEY, got %q", got)
	}

	viper.Set("ai.api_key", "configured")
	if got := apiKey(); got != "configured" {
		t.Fatalf("expected ai.api_key to win, got %q", got)
	}
}

func TestConfigDefaults(t *testing.T) {
	resetViper(t)

	if got := GetConfigString("serve.addr", ""); got != defaultServeAddr {
		t.Errorf("serve.addr = %q", got)
	}
	if got := GetConfigInt("ai.concurrency", 0); got != defaultConcurrency {
		t.Errorf("ai.concurrency = %d", got)
	}
	if got := GetConfigDuration("serve.reload_debounce", 0); got != defaultReloadDebounce {
		t.Errorf("serve.reload_debounce = %s", got)
	}
	if got := GetConfigDuration("ai.timeout", time.Minute); got != 0 {
		t.Errorf("ai.timeout = %s", got)
	}
}

func TestGetConfigDuration(t *testing.T) {
	resetViper(t)

	viper.Set("ai.timeout", "15s")
	if got := GetConfigDuration("ai.timeout", 0); got != 15*time.Second {
		t.Errorf("string duration: got %s", got)
	}

	viper.Set("ai.timeout", 20)
	if got := GetConfigDuration("ai.timeout", 0); got != 20*time.Second {
		t.Errorf("bare number should be seconds: got %s", got)
	}

	if got := GetConfigDuration("missing.key", time.Second); got != time.Second {
		t.Errorf("unset key should use default: got %s", got)
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	if got := expandHome("~/.setlist/setlist.db"); got != filepath.Join(home, ".setlist", "setlist.db") {
		t.Errorf("expandHome = %q", got)
	}
	if got := expandHome("/abs/path.db"); got != "/abs/path.db" {
		t.Errorf("absolute path changed: %q", got)
	}
	if got := expandHome("~other/x"); got != "~other/x" {
		t.Errorf("other users' homes are left alone: %q", got)
	}
}

func TestPromptConfirmer(t *testing.T) {
	tests := []struct {
		name  string
		input string
		yes   bool
		want  bool
	}{
		{"yes flag", "", true, true},
		{"y", "y\n", false, true},
		{"YES", "YES\n", false, true},
		{"no", "n\n", false, false},
		{"empty line", "\n", false, false},
		{"eof", "", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out strings.Builder
			p := &promptConfirmer{in: strings.NewReader(tt.input), out: &out, yes: tt.yes}

			if got := p.Confirm("Delete it?"); got != tt.want {
				t.Errorf("Confirm() = %v, want %v", got, tt.want)
			}
			if !tt.yes && !strings.Contains(out.String(), "Delete it? [y/N]") {
				t.Errorf("prompt not shown: %q", out.String())
			}
		})
	}
}
