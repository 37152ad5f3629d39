package main

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/conneroisu/mdserve/internal/config"
	"github.com/conneroisu/mdserve/internal/logging"
	"github.com/conneroisu/mdserve/internal/server"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// loadTestConfig resets viper, applies overrides on top of test-friendly
// defaults (ephemeral port, loopback host, no browser), and loads a config
// pointed at target.
func loadTestConfig(t *testing.T, target string, overrides map[string]interface{}) *config.Config {
	t.Helper()

	viper.Reset()
	viper.Set("server.port", 0)
	viper.Set("server.host", "127.0.0.1")
	viper.Set("server.open", false)
	for k, v := range overrides {
		viper.Set(k, v)
	}

	cfg, err := config.Load()
	require.NoError(t, err)
	cfg.TargetPath = target
	return cfg
}

// startServer creates and starts a preview server, waits for it to bind, and
// registers a cleanup shutdown.
func startServer(t *testing.T, cfg *config.Config) *server.PreviewServer {
	t.Helper()

	srv, err := server.New(cfg, logging.Discard())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	go func() {
		if err := srv.Start(ctx); err != nil {
			t.Errorf("server start failed: %v", err)
		}
	}()

	t.Cleanup(func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
	})

	waitForBind(t, srv)
	return srv
}

// waitForBind polls until the server has bound a listener.
func waitForBind(t *testing.T, srv *server.PreviewServer) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if srv.Addr() != "" {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("server never bound a listener")
}

func TestIntegration_ServerStartStop(t *testing.T) {
	tempDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "readme.md"), []byte("# Integration\n"), 0o644))

	cfg := loadTestConfig(t, tempDir, nil)
	srv := startServer(t, cfg)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	require.NoError(t, srv.Shutdown(shutdownCtx))
}

func TestIntegration_ServesRenderedMarkdown(t *testing.T) {
	tempDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "readme.md"), []byte("# Served Title\n"), 0o644))

	cfg := loadTestConfig(t, tempDir, map[string]interface{}{"server.theme": "dark"})
	srv := startServer(t, cfg)

	resp, err := http.Get("http://" + srv.Addr() + "/readme.md")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "Served Title")
	assert.Contains(t, string(body), `data-theme="dark"`)
}

func TestIntegration_SingleFileMode(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "solo.md")
	require.NoError(t, os.WriteFile(path, []byte("# Solo\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "other.md"), []byte("# Other\n"), 0o644))

	cfg := loadTestConfig(t, path, nil)
	srv := startServer(t, cfg)

	// Only the named file is served; siblings are not admitted.
	assert.Equal(t, []string{"solo.md"}, srv.Registry().Keys())

	resp, err := http.Get("http://" + srv.Addr() + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Solo")
}

func TestIntegration_FileChangeUpdatesDocument(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "notes.md")
	require.NoError(t, os.WriteFile(path, []byte("# Before\n"), 0o644))

	cfg := loadTestConfig(t, tempDir, nil)
	srv := startServer(t, cfg)

	require.NoError(t, os.WriteFile(path, []byte("# After\n"), 0o644))
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, future, future))

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if html, ok := srv.Registry().Get("notes.md"); ok && strings.Contains(html, "After") {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("document content never updated after file change")
}

func TestIntegration_ConfigurationLoading(t *testing.T) {
	tests := []struct {
		name   string
		setup  func()
		verify func(t *testing.T, cfg *config.Config)
	}{
		{
			name: "default configuration",
			setup: func() {
				viper.Reset()
			},
			verify: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, "localhost", cfg.Server.Host)
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, "auto", cfg.Server.Theme)
				assert.False(t, cfg.Server.Open)
				assert.Equal(t, "info", cfg.Log.Level)
				assert.Equal(t, "text", cfg.Log.Format)
			},
		},
		{
			name: "custom configuration",
			setup: func() {
				viper.Reset()
				viper.Set("server.port", 3000)
				viper.Set("server.host", "0.0.0.0")
				viper.Set("server.open", true)
				viper.Set("server.theme", "dark")
				viper.Set("log.level", "debug")
				viper.Set("log.format", "json")
			},
			verify: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, 3000, cfg.Server.Port)
				assert.Equal(t, "0.0.0.0", cfg.Server.Host)
				assert.True(t, cfg.Server.Open)
				assert.Equal(t, "dark", cfg.Server.Theme)
				assert.Equal(t, "debug", cfg.Log.Level)
				assert.Equal(t, "json", cfg.Log.Format)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()

			cfg, err := config.Load()
			require.NoError(t, err)

			tt.verify(t, cfg)
		})
	}
}

func TestIntegration_InvalidConfiguration(t *testing.T) {
	viper.Reset()
	viper.Set("server.port", "invalid_port")

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid_port")
}

func TestIntegration_ResourceCleanup(t *testing.T) {
	tempDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "readme.md"), []byte("# Cycle\n"), 0o644))

	// Repeated start/stop cycles must not leak watches or leave the port bound.
	for i := 0; i < 3; i++ {
		cfg := loadTestConfig(t, tempDir, nil)
		srv := startServer(t, cfg)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 2*time.Second)
		require.NoError(t, srv.Shutdown(shutdownCtx))
		shutdownCancel()
	}
}
