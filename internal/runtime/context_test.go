package runtime_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"simplegit.dev/simplegit/internal/auth"
	"simplegit.dev/simplegit/internal/config"
	"simplegit.dev/simplegit/internal/output"
	"simplegit.dev/simplegit/internal/runtime"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	cfg.CloneRoot = t.TempDir()
	cfg.Watch.Enabled = false
	cfg.Auth.Timeout = time.Minute
	return cfg
}

func TestNewContextLoadsTokenFromEnvironment(t *testing.T) {
	t.Setenv(runtime.TokenEnvVar, "gho_env")

	rc, err := runtime.NewContext(testConfig(t), output.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = rc.Close() })

	token, ok := rc.Store.Token()
	require.True(t, ok)
	require.Equal(t, "gho_env", token)
	require.True(t, rc.AllowList.Allows("api.github.com"))
	require.Equal(t, auth.StateIdle, rc.Auth.State())
}

func TestGetContext(t *testing.T) {
	t.Setenv(runtime.TokenEnvVar, "")

	_, err := runtime.GetContext(context.Background())
	require.Error(t, err)

	rc, err := runtime.NewContext(testConfig(t), output.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = rc.Close() })

	got, err := runtime.GetContext(runtime.WithContext(context.Background(), rc))
	require.NoError(t, err)
	require.Same(t, rc, got)
}

type closeRecorder struct {
	name  string
	order *[]string
}

func (c closeRecorder) Close() error {
	*c.order = append(*c.order, c.name)
	return nil
}

func TestCloseReleasesClosersInReverseOrder(t *testing.T) {
	t.Setenv(runtime.TokenEnvVar, "")

	rc, err := runtime.NewContext(testConfig(t), output.Discard())
	require.NoError(t, err)

	var order []string
	rc.AddCloser(closeRecorder{name: "log", order: &order})
	rc.AddCloser(closeRecorder{name: "cache", order: &order})

	require.NoError(t, rc.Close())
	require.Equal(t, []string{"cache", "log"}, order)

	require.NoError(t, rc.Close())
	require.Len(t, order, 2)
}
