package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func resetGlobal() {
	globalConfig = nil
	initOnce = sync.Once{}
}

func TestInitialize(t *testing.T) {
	resetGlobal()

	path := writeFile(t, "gantry.yaml", `
server:
  listen_address: "127.0.0.1:8080"
`)

	if err := Initialize(path); err != nil {
		t.Fatalf("failed to initialize config: %v", err)
	}

	cfg := GetConfig()
	if cfg == nil {
		t.Fatal("expected non-nil config after initialization")
	}
	if cfg.Server.ListenAddress != "127.0.0.1:8080" {
		t.Errorf("expected listen address %q, got %q", "127.0.0.1:8080", cfg.Server.ListenAddress)
	}
}

func TestInitialize_MultipleCallsIgnored(t *testing.T) {
	resetGlobal()

	dir := t.TempDir()
	first := filepath.Join(dir, "first.yaml")
	second := filepath.Join(dir, "second.yaml")
	os.WriteFile(first, []byte("server:\n  listen_address: \"127.0.0.1:1111\"\n"), 0644)
	os.WriteFile(second, []byte("server:\n  listen_address: \"127.0.0.1:2222\"\n"), 0644)

	if err := Initialize(first); err != nil {
		t.Fatalf("first initialize failed: %v", err)
	}
	if err := Initialize(second); err != nil {
		t.Fatalf("second initialize failed: %v", err)
	}

	if got := GetConfig().Server.ListenAddress; got != "127.0.0.1:1111" {
		t.Errorf("expected first config to win, got %q", got)
	}
}

func TestInitialize_EmptyPathUsesEnvironment(t *testing.T) {
	resetGlobal()
	t.Setenv("GANTRY_SERVER_LISTEN_ADDRESS", "127.0.0.1:3333")

	if err := Initialize(""); err != nil {
		t.Fatalf("initialize failed: %v", err)
	}
	if got := GetConfig().Server.ListenAddress; got != "127.0.0.1:3333" {
		t.Errorf("expected listen address from env, got %q", got)
	}
}

func TestReloadConfig_KeepsPreviousOnError(t *testing.T) {
	resetGlobal()

	path := writeFile(t, "gantry.yaml", "registry:\n  max_redirects: 4\n")
	if err := Initialize(path); err != nil {
		t.Fatalf("initialize failed: %v", err)
	}
	before := GetConfig()

	if err := os.WriteFile(path, []byte("registry:\n  max_redirects: -1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReloadConfig(path); err == nil {
		t.Fatal("expected reload error for invalid config")
	}
	if GetConfig() != before {
		t.Error("expected previous snapshot to remain after failed reload")
	}

	if err := os.WriteFile(path, []byte("registry:\n  max_redirects: 9\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := ReloadConfig(path)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if cfg.Registry.MaxRedirects != 9 || GetConfig() != cfg {
		t.Error("expected reloaded snapshot to be installed")
	}
	if before.Registry.MaxRedirects != 4 {
		t.Error("previous snapshot was mutated by reload")
	}
}

func TestMustGetConfig_Panics(t *testing.T) {
	resetGlobal()

	defer func() {
		if recover() == nil {
			t.Error("expected panic when config is not initialized")
		}
	}()
	MustGetConfig()
}

func TestGetConfig_Concurrent(t *testing.T) {
	resetGlobal()
	SetConfig(NewTestConfig().Build())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if GetConfig() == nil {
				t.Error("expected non-nil config")
			}
		}()
	}
	wg.Wait()
}
