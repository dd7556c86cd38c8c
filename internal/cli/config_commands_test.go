package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rescale/rescale-browse/internal/config"
)

// TestConfigCommandStructure checks the config subcommands are wired.
func TestConfigCommandStructure(t *testing.T) {
	cmd := newConfigCmd()
	for _, name := range []string{"init", "show", "path"} {
		sub, _, err := cmd.Find([]string{name})
		if err != nil || sub.Use != name {
			t.Errorf("subcommand %q not found: %v", name, err)
			continue
		}
		if sub.Short == "" {
			t.Errorf("%s: Short description is empty", name)
		}
		if sub.RunE == nil {
			t.Errorf("%s: RunE function is nil", name)
		}
	}
}

func TestConfigInitWritesDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	path := filepath.Join(home, "conf", "browse.conf")

	root := NewRootCmd()
	AddCommands(root)
	var out strings.Builder
	root.SetOut(&out)
	root.SetArgs([]string{"--config", path, "config", "init"})
	require.NoError(t, root.Execute())

	assert.Contains(t, out.String(), "Configuration saved to: "+path)

	loaded, err := config.LoadBrowseConfig(path)
	require.NoError(t, err)
	assert.Equal(t, *config.NewBrowseConfig(), *loaded)
}

func TestConfigInitKeepsExisting(t *testing.T) {
	home := t.TempDir()
	path := filepath.Join(home, "browse.conf")
	require.NoError(t, os.WriteFile(path, []byte("[logging]\nlevel = debug\n"), 0600))

	stdout, _, err := execute(t, "--config", path, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Configuration already exists")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "level = debug")
}

func TestConfigInitSavesToken(t *testing.T) {
	stdout, _, err := execute(t, "config", "init", "--api-key", "secret-key")
	require.NoError(t, err)
	assert.Contains(t, stdout, "API token saved to:")

	key, source := config.ResolveAPIKeySource("")
	assert.Equal(t, "secret-key", key)
	assert.Equal(t, "token-file", source)
}

func TestConfigShow(t *testing.T) {
	stdout, _, err := execute(t, "config", "show")
	require.NoError(t, err)

	assert.Contains(t, stdout, "structural_cadence_ms = 250")
	assert.Contains(t, stdout, "count_cadence_ms      = 50")
	assert.Contains(t, stdout, "api_base_url = "+config.DefaultAPIBaseURL)
}

func TestConfigPath(t *testing.T) {
	stdout, _, err := execute(t, "config", "path")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(strings.TrimSpace(stdout), "browse.conf"), stdout)
}
