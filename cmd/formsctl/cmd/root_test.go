package cmd

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nhbrcforms/domain/province"
)

// setupEnv points the CLI at a scratch database and a file counter, with only
// Gauteng configured.
func setupEnv(t *testing.T) {
	t.Helper()
	dir := t.TempDir()

	t.Setenv("DB_PATH", filepath.Join(dir, "forms.db"))
	t.Setenv("COUNTER_BACKEND", "file")
	t.Setenv("COUNTER_FILE_PATH", filepath.Join(dir, "counter.json"))
	t.Setenv("COUNTER_SEED", "10000")
	t.Setenv("LOG_LEVEL", "error")
	for _, p := range province.All {
		t.Setenv(p.SiteEnvKey(), "")
		t.Setenv(p.ListEnvKey(), "")
	}
	t.Setenv(province.Gauteng.SiteEnvKey(), "https://contoso.sharepoint.com/sites/gauteng")
	t.Setenv(province.Gauteng.ListEnvKey(), "GautengRegistrations")

	envFile = filepath.Join(dir, "missing.env")
	dbPath = ""
	healthProvince = ""
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append(args, "--env-file", envFile))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCounterNextAndShow(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "counter", "next")
	require.NoError(t, err)
	assert.Equal(t, "NHBRC10001\n", out)

	out, err = run(t, "counter", "next")
	require.NoError(t, err)
	assert.Equal(t, "NHBRC10002\n", out)

	out, err = run(t, "counter", "show")
	require.NoError(t, err)
	assert.Equal(t, "NHBRC10002 (backend file)\n", out)
}

func TestProvinces(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "provinces")
	require.NoError(t, err)
	assert.Contains(t, out, "https://contoso.sharepoint.com/sites/gauteng")
	assert.Contains(t, out, "GautengRegistrations")
	assert.Contains(t, out, "SHAREPOINT_SITE_LIMPOPO")
	assert.NotContains(t, out, "SHAREPOINT_SITE_GAUTENG")
}

func TestHealthReportsConfigurationStage(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "health", "--province", "Limpopo")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `stage "configuration"`)
	assert.Contains(t, out, `"province": "Limpopo"`)
}

func TestHealthRejectsUnknownProvince(t *testing.T) {
	setupEnv(t)

	_, err := run(t, "health", "--province", "Atlantis")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown province")
}

func TestSubmissionsShowUnknownReference(t *testing.T) {
	setupEnv(t)

	_, err := run(t, "submissions", "show", "NHBRC10001")
	require.Error(t, err)
}

func TestSubmissionsRecentEmpty(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "submissions", "recent", "-n", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "REFERENCE")
}
