// File: cmd/root_test.go
package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/boxflow/internal/config"
	"github.com/xkilldash9x/boxflow/internal/observability"
)

// -- Test Helpers --

// executeCommand runs a fresh command tree and captures its output.
func executeCommand(t *testing.T, root *cobra.Command, args ...string) (string, error) {
	t.Helper()
	observability.ResetForTest()
	t.Cleanup(observability.ResetForTest)

	if root == nil {
		root = NewRootCommand()
	}
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// quietConfig writes a config file that silences logging below errors.
func quietConfig(t *testing.T, extra string) string {
	t.Helper()
	return writeFile(t, t.TempDir(), "config.yaml", "logger:\n  level: error\n"+extra)
}

// captureConfig swaps the layout command's RunE for one that records the
// config the root command stored in the context.
func captureConfig(root *cobra.Command, into *config.Interface) {
	for _, c := range root.Commands() {
		if c.Name() == "layout" {
			c.RunE = func(cmd *cobra.Command, args []string) error {
				cfg, err := getConfigFromContext(cmd.Context())
				*into = cfg
				return err
			}
		}
	}
}

// -- Test Cases --

func TestRootCmd_VersionFlag(t *testing.T) {
	out, err := executeCommand(t, nil, "--version")
	require.NoError(t, err)
	assert.Equal(t, "boxflow version "+Version+"\n", out)
}

func TestVersionCmd(t *testing.T) {
	out, err := executeCommand(t, nil, "--config", quietConfig(t, ""), "version")
	require.NoError(t, err)
	assert.Equal(t, "boxflow version "+Version+"\n", out)
}

func TestRootCmd_NoArgs(t *testing.T) {
	out, err := executeCommand(t, nil)
	require.NoError(t, err)
	assert.Contains(t, out, "Boxflow computes CSS box geometry")
	assert.Contains(t, out, "layout")
}

func TestRootCmd_ConfigPrecedence(t *testing.T) {
	cfgFile := quietConfig(t, `
layout:
  viewport_width: 640
  max_depth: 32
output:
  format: svg
`)
	t.Setenv("BOXFLOW_BATCH_CONCURRENCY", "2")

	root := NewRootCommand()
	var cfg config.Interface
	captureConfig(root, &cfg)

	_, err := executeCommand(t, root, "--config", cfgFile, "layout", "page.html")
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, 640.0, cfg.Layout().ViewportWidth, "file overrides defaults")
	assert.Equal(t, 720.0, cfg.Layout().ViewportHeight, "defaults fill unset keys")
	assert.Equal(t, 32, cfg.Layout().MaxDepth)
	assert.Equal(t, config.FormatSVG, cfg.Output().Format)
	assert.Equal(t, 2, cfg.Batch().Concurrency, "environment overrides defaults")
	assert.Equal(t, "error", cfg.Logger().Level)
}

func TestRootCmd_LogLevelFlag(t *testing.T) {
	root := NewRootCommand()
	var cfg config.Interface
	captureConfig(root, &cfg)

	_, err := executeCommand(t, root, "--config", quietConfig(t, ""), "--log-level", "debug", "layout", "page.html")
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, "debug", cfg.Logger().Level)
}

func TestRootCmd_ConfigErrors(t *testing.T) {
	t.Run("invalid value", func(t *testing.T) {
		_, err := executeCommand(t, nil, "--config", quietConfig(t, "output:\n  format: pdf\n"), "version")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "output.format")
	})

	t.Run("missing explicit file", func(t *testing.T) {
		_, err := executeCommand(t, nil, "--config", filepath.Join(t.TempDir(), "absent.yaml"), "version")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "error reading config file")
	})
}

func TestGetConfigFromContext(t *testing.T) {
	_, err := getConfigFromContext(context.Background())
	assert.ErrorContains(t, err, "configuration not found")

	cfg := config.NewDefaultConfig()
	ctx := context.WithValue(context.Background(), configKey, config.Interface(cfg))
	got, err := getConfigFromContext(ctx)
	require.NoError(t, err)
	assert.Same(t, cfg, got)
}
