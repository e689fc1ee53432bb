package pkgmgr

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canonical/static-reports-operator/internal/execx"
	"github.com/canonical/static-reports-operator/internal/log"
)

func testLogger() log.Logger {
	return log.NewSlogAdapter(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestInstall_UpdatesThenInstalls(t *testing.T) {
	runner := &execx.MockRunner{}
	m := NewManager(testLogger(), runner)

	err := m.Install(context.Background(), []string{"git", "nginx-light"})
	require.NoError(t, err)

	require.Equal(t, []string{
		"apt-get update",
		"apt-get install --assume-yes --no-install-recommends git",
		"apt-get install --assume-yes --no-install-recommends nginx-light",
	}, runner.CallLines())

	for _, call := range runner.Calls {
		assert.Contains(t, call.Env, "DEBIAN_FRONTEND=noninteractive")
	}
}

func TestInstall_NoPackages(t *testing.T) {
	runner := &execx.MockRunner{}
	m := NewManager(testLogger(), runner)

	require.NoError(t, m.Install(context.Background(), nil))
	// The cache refresh still happens
	assert.Equal(t, []string{"apt-get update"}, runner.CallLines())
}

func TestInstall_UpdateFailure(t *testing.T) {
	runner := &execx.MockRunner{Err: errors.New("exit status 100"), Output: []byte("E: no network")}
	m := NewManager(testLogger(), runner)

	err := m.Install(context.Background(), []string{"git"})
	require.Error(t, err)
	assert.True(t, IsInstallError(err))

	var installErr *InstallError
	require.True(t, errors.As(err, &installErr))
	assert.Empty(t, installErr.Package)
	assert.Contains(t, installErr.Output, "no network")
}

func TestInstall_PackageFailure(t *testing.T) {
	runner := &execx.MockRunner{
		OutputFunc: func(_ string, args ...string) ([]byte, error) {
			line := strings.Join(args, " ")
			if strings.HasSuffix(line, "procmail") {
				return []byte("E: Unable to locate package procmail"), errors.New("exit status 100")
			}
			return nil, nil
		},
	}
	m := NewManager(testLogger(), runner)

	err := m.Install(context.Background(), []string{"git", "procmail", "nginx-light"})
	require.Error(t, err)

	var installErr *InstallError
	require.True(t, errors.As(err, &installErr))
	assert.Equal(t, "procmail", installErr.Package)
	assert.Contains(t, err.Error(), "procmail")

	// Installation stops at the first failure
	assert.Len(t, runner.Calls, 3)
}

func TestInstallError_Unwrap(t *testing.T) {
	cause := errors.New("exit status 100")
	err := &InstallError{Package: "git", Cause: cause}

	assert.True(t, errors.Is(err, cause))
}
