package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), ".config")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const validClockify = `{
	"clockify": {"token": "ck", "workspace": "ws1", "user_id": "u1"},
	"jira": {"token": "jt", "email": "me@example.com", "endpoint": "https://x.atlassian.net", "project_key": "PROJ"}
}`

func TestLoadDefaultsToClockify(t *testing.T) {
	cfg, err := Load(writeConfig(t, validClockify))
	require.NoError(t, err)
	assert.Equal(t, ServiceClockify, cfg.Service)
	assert.Equal(t, FlushNone, cfg.Flush)
}

func TestLoadToggl(t *testing.T) {
	cfg, err := Load(writeConfig(t, `{
		"service": "toggl",
		"toggl": {"token": "tt", "workspace": 42},
		"jira": {"token": "jt", "email": "me@example.com", "endpoint": "https://x.atlassian.net", "project_key": "PROJ"},
		"round_up": true,
		"flush": "jira"
	}`))
	require.NoError(t, err)
	assert.Equal(t, ServiceToggl, cfg.Service)
	assert.True(t, cfg.RoundUp)
	assert.Equal(t, FlushJira, cfg.Flush)
	assert.EqualValues(t, 42, cfg.Toggl.Workspace)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}

func TestLoadValidation(t *testing.T) {
	cases := map[string]string{
		"missing clockify token": `{
			"clockify": {"workspace": "ws1", "user_id": "u1"},
			"jira": {"token": "jt", "email": "e", "endpoint": "x", "project_key": "PROJ"}
		}`,
		"missing toggl workspace": `{
			"service": "toggl",
			"toggl": {"token": "tt"},
			"jira": {"token": "jt", "email": "e", "endpoint": "x", "project_key": "PROJ"}
		}`,
		"missing jira credentials": `{
			"clockify": {"token": "ck", "workspace": "ws1", "user_id": "u1"},
			"jira": {"endpoint": "x", "project_key": "PROJ"}
		}`,
		"missing jira project key": `{
			"clockify": {"token": "ck", "workspace": "ws1", "user_id": "u1"},
			"jira": {"token": "jt", "email": "e", "endpoint": "x"}
		}`,
		"unknown service": `{
			"service": "harvest",
			"jira": {"token": "jt", "email": "e", "endpoint": "x", "project_key": "PROJ"}
		}`,
		"unknown flush directive": `{
			"clockify": {"token": "ck", "workspace": "ws1", "user_id": "u1"},
			"jira": {"token": "jt", "email": "e", "endpoint": "x", "project_key": "PROJ"},
			"flush": "everything"
		}`,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, content))
			assert.Error(t, err)
		})
	}
}

func TestArtifactPathsAnchorToConfigParent(t *testing.T) {
	path := writeConfig(t, validClockify)
	cfg, err := Load(path)
	require.NoError(t, err)

	base := filepath.Dir(filepath.Dir(path))
	assert.Equal(t, filepath.Join(base, ".cache"), cfg.CacheDir())
	assert.Equal(t, filepath.Join(base, ".data", "data.json"), cfg.DataFile())
	assert.Equal(t, filepath.Join(base, ".config", "nicknames.json"), cfg.NicknamesFile())
}

func TestDefaultPathEnvOverride(t *testing.T) {
	t.Setenv("JIRIFY_CONFIG", "/tmp/custom.json")
	assert.Equal(t, "/tmp/custom.json", DefaultPath())

	t.Setenv("JIRIFY_CONFIG", "")
	assert.Equal(t, filepath.Join(".config", "config.json"), DefaultPath())
}
