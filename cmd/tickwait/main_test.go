package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append(args, "--color", "off"))
	require.NoError(t, rootCmd.Execute(), out.String())
	return out.String()
}

func TestConfigCommand(t *testing.T) {
	out := execute(t, "config")
	assert.Contains(t, out, `default_phase = "update"`)
	assert.Contains(t, out, `frame_time = "16.666666ms"`)

	path := filepath.Join(t.TempDir(), "tickwait.toml")
	require.NoError(t, os.WriteFile(path, []byte("workers = 3\nlog_level = \"warn\"\n"), 0o600))
	out = execute(t, "config", "-c", path)
	assert.Contains(t, out, "workers = 3")
	assert.Contains(t, out, `log_level = "warn"`)
}

func TestRunCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tickwait.toml")
	require.NoError(t, os.WriteFile(path, []byte("log_level = \"error\"\n"), 0o600))

	out := execute(t, "run", "-c", path, "--frames", "90", "--actors", "2", "--workers", "2")
	for _, line := range []string{
		"legacy   step 1",
		"legacy   step 3, five frames later",
		"legacy   finished",
		"doomed   destroyed",
		"actor-0  spawned",
		"actor-1  spawned",
	} {
		assert.Contains(t, out, line)
	}
	assert.NotContains(t, out, "unreachable")
}
