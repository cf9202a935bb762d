package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/calagent/internal/config"
)

func parseServeFlags(t *testing.T, args ...string) (*config.Config, error) {
	t.Helper()
	cmd := &cobra.Command{Use: "serve"}
	opts := &serveOptions{}
	bindServeFlags(cmd, opts)
	require.NoError(t, cmd.ParseFlags(args))
	return opts.resolve(cmd)
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestServeOptionsResolve(t *testing.T) {
	fileConfig := `
transport: streamable-http
http_addr: ":7000"
timezone: Europe/Berlin
calendar_id: team@example.com
max_suggestions: 5
metrics:
  enabled: false
`
	missing := filepath.Join(t.TempDir(), "missing.yaml")

	tests := []struct {
		name  string
		file  string
		args  []string
		check func(t *testing.T, cfg *config.Config)
	}{
		{
			name: "defaults without a file",
			args: []string{"--config", missing},
			check: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, config.DefaultConfig(), cfg)
			},
		},
		{
			name: "file values override defaults",
			file: fileConfig,
			check: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, config.TransportStreamableHTTP, cfg.Transport)
				assert.Equal(t, ":7000", cfg.HTTPAddr)
				assert.Equal(t, "Europe/Berlin", cfg.Timezone)
				assert.Equal(t, "team@example.com", cfg.CalendarID)
				assert.Equal(t, 5, cfg.MaxSuggestions)
				assert.False(t, cfg.Metrics.Enabled)
				assert.False(t, cfg.Yolo)
			},
		},
		{
			name: "explicit flags override file values",
			file: fileConfig,
			args: []string{"--transport", "stdio", "--max-suggestions", "7", "--timezone", "UTC", "--yolo", "--metrics-enabled"},
			check: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, config.TransportStdio, cfg.Transport)
				assert.Equal(t, 7, cfg.MaxSuggestions)
				assert.Equal(t, "UTC", cfg.Timezone)
				assert.True(t, cfg.Yolo)
				assert.True(t, cfg.Metrics.Enabled)
				// untouched flags keep the file value
				assert.Equal(t, ":7000", cfg.HTTPAddr)
				assert.Equal(t, "team@example.com", cfg.CalendarID)
			},
		},
		{
			name: "flag defaults do not override file values",
			file: fileConfig,
			args: []string{"--debug"},
			check: func(t *testing.T, cfg *config.Config) {
				assert.True(t, cfg.Debug)
				assert.Equal(t, config.TransportStreamableHTTP, cfg.Transport)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := tt.args
			if tt.file != "" {
				args = append([]string{"--config", writeConfigFile(t, tt.file)}, args...)
			}
			cfg, err := parseServeFlags(t, args...)
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestServeOptionsResolve_Invalid(t *testing.T) {
	tests := []struct {
		name string
		file string
		args []string
	}{
		{name: "unknown transport flag", args: []string{"--transport", "carrier-pigeon"}},
		{name: "negative suggestions", args: []string{"--max-suggestions", "-1"}},
		{name: "malformed file", file: "transport: [stdio"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "missing.yaml")
			if tt.file != "" {
				path = writeConfigFile(t, tt.file)
			}
			_, err := parseServeFlags(t, append([]string{"--config", path}, tt.args...)...)
			assert.Error(t, err)
		})
	}
}
