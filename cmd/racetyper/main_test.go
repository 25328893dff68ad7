package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/racetyper/internal/config"
)

func TestDefaultConfigTemplateDecodes(t *testing.T) {
	var fc config.FileConfig
	_, err := toml.Decode(defaultConfigTemplate(), &fc)
	require.NoError(t, err)
	require.Nil(t, fc.Server.Addr)
	require.Nil(t, fc.Session.Segments)
}

func TestDefaultConfigTemplateUncommented(t *testing.T) {
	var b strings.Builder
	for _, line := range strings.Split(defaultConfigTemplate(), "\n") {
		trimmed := strings.TrimPrefix(line, "# ")
		if strings.Contains(trimmed, " = ") && !strings.HasPrefix(trimmed, "db ") {
			b.WriteString(trimmed)
		} else if strings.HasPrefix(line, "[") {
			b.WriteString(line)
		}
		b.WriteString("\n")
	}
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o600))

	fc, err := config.LoadConfig(path)
	require.NoError(t, err)
	cfg := config.DefaultServerConfig()
	require.NoError(t, fc.Apply(&cfg))
	require.NoError(t, config.Validate(cfg))
	require.Equal(t, config.DefaultSegments, cfg.Session.Segments)
	require.Equal(t, config.DefaultClientTimeout, cfg.ClientTimeout)
}

func TestParseID(t *testing.T) {
	id, err := parseID("42")
	require.NoError(t, err)
	require.Equal(t, int64(42), id)

	for _, bad := range []string{"", "0", "-3", "x"} {
		_, err := parseID(bad)
		require.Error(t, err, bad)
	}
}

func TestPreview(t *testing.T) {
	require.Equal(t, "short", preview("short", 10))
	require.Equal(t, "abcd…", preview("abcdefgh", 5))
}

func TestResolveServerConfigFlagsOverrideFile(t *testing.T) {
	segments := 4
	addr := ":9999"
	fileCfg = config.FileConfig{
		Server:  config.ServerSection{Addr: &addr},
		Session: config.SessionSection{Segments: &segments},
	}
	t.Cleanup(func() { fileCfg = config.FileConfig{} })

	cmd := newServeCmd()
	require.NoError(t, cmd.Flags().Parse([]string{"--segments", "6"}))

	cfg, err := resolveServerConfig(cmd)
	require.NoError(t, err)
	require.Equal(t, ":9999", cfg.Addr)
	require.Equal(t, 6, cfg.Session.Segments)
}
