package app

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	cachePath := filepath.Join(dir, "cache")
	newsPath := filepath.Join(dir, "news")

	cfg := fmt.Sprintf(`environment = "development"

[server]
host = "127.0.0.1"
port = 0

[storage.cache]
path = %q

[storage.news]
path = %q

[scheduler]
enabled = false

[logging]
level = "error"
`, cachePath, newsPath)

	path := filepath.Join(dir, "marketdesk.toml")
	if err := os.WriteFile(path, []byte(cfg), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestNewApp_WiresComponents(t *testing.T) {
	a, err := NewApp(writeTestConfig(t))
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	defer a.Close()

	if a.Config == nil || a.Logger == nil {
		t.Fatal("expected config and logger to be initialized")
	}
	if a.SnapshotStore == nil {
		t.Error("expected snapshot store to be initialized")
	}
	if a.NewsStore == nil {
		t.Error("expected news store to be initialized")
	}
	if a.MarketService == nil {
		t.Error("expected market service to be initialized")
	}
	if a.NewsService == nil {
		t.Error("expected news service to be initialized")
	}
	if a.StartupTime.IsZero() {
		t.Error("expected startup time to be recorded")
	}
}

func TestNewApp_MinimalConfigKeepsDefaults(t *testing.T) {
	// Only storage paths overridden; everything else falls through to the
	// built-in defaults.
	dir := t.TempDir()

	cfg := fmt.Sprintf(`[storage.cache]
path = %q

[storage.news]
path = %q
`, filepath.Join(dir, "cache"), filepath.Join(dir, "news"))
	path := filepath.Join(dir, "marketdesk.toml")
	if err := os.WriteFile(path, []byte(cfg), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	a, err := NewApp(path)
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	defer a.Close()

	if a.Config.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", a.Config.Server.Port)
	}
	if a.Config.Environment != "development" {
		t.Errorf("expected development environment, got %q", a.Config.Environment)
	}
}

func TestAppCloseIsIdempotent(t *testing.T) {
	a, err := NewApp(writeTestConfig(t))
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	a.Close()
	a.Close()
}
