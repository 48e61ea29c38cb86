package shell_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/forge/internal/adapters/shell"
	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/core/ports/mocks"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

func scriptTask(id domain.TaskID, script, dir string) *domain.BuildTask {
	cfg := &domain.BuildConfiguration{
		ID:          "lib",
		BuildScript: domain.NewInternedString(script),
		WorkDir:     domain.NewInternedString(dir),
	}
	return domain.NewBuildTask(id, domain.NewRevision(cfg, 3, "fp", time.Now()), nil, time.Now())
}

func quietLogger(t *testing.T) *mocks.MockLogger {
	t.Helper()
	mockLogger := mocks.NewMockLogger(gomock.NewController(t))
	mockLogger.EXPECT().Info(gomock.Any(), gomock.Any()).AnyTimes()
	mockLogger.EXPECT().Warn(gomock.Any(), gomock.Any()).AnyTimes()
	mockLogger.EXPECT().Error(gomock.Any()).AnyTimes()
	return mockLogger
}

func TestExecutor_Execute_StreamsLines(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockLogger := mocks.NewMockLogger(ctrl)
	mockLogger.EXPECT().Info("line1", "task_id", "t1")
	mockLogger.EXPECT().Info("line2", "task_id", "t1")
	mockLogger.EXPECT().Warn("oops", "task_id", "t1")

	executor := shell.NewExecutor(mockLogger)
	artifacts, err := executor.Execute(t.Context(), scriptTask("t1", "echo line1; echo line2; echo oops >&2", t.TempDir()))
	require.NoError(t, err)
	assert.Empty(t, artifacts)
}

func TestExecutor_Execute_Environment(t *testing.T) {
	dir := t.TempDir()
	script := `printf "%s %s %s" "$FORGE_TASK_ID" "$FORGE_CONFIGURATION" "$FORGE_REVISION" > env.txt`

	_, err := shell.NewExecutor(quietLogger(t)).Execute(t.Context(), scriptTask("t7", script, dir))
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "env.txt"))
	require.NoError(t, err)
	assert.Equal(t, "t7 lib 3", string(data))
}

func TestExecutor_Execute_Artifacts(t *testing.T) {
	dir := t.TempDir()
	script := `printf payload > out.bin; echo out.bin >> "$FORGE_ARTIFACTS"; echo registry/lib:3 >> "$FORGE_ARTIFACTS"`

	artifacts, err := shell.NewExecutor(quietLogger(t)).Execute(t.Context(), scriptTask("t1", script, dir))
	require.NoError(t, err)
	require.Len(t, artifacts, 2)

	assert.Equal(t, "out.bin", artifacts[0].Identifier)
	assert.Len(t, artifacts[0].Checksum, 16)
	assert.Equal(t, domain.Artifact{Identifier: "registry/lib:3"}, artifacts[1])
}

func TestExecutor_Execute_ScriptFile(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "build.sh")
	require.NoError(t, os.WriteFile(script, []byte("echo built > result.txt\n"), 0o600))

	_, err := shell.NewExecutor(quietLogger(t)).Execute(t.Context(), scriptTask("t1", script, dir))
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "result.txt"))
}

func TestExecutor_Execute_Failure(t *testing.T) {
	_, err := shell.NewExecutor(quietLogger(t)).Execute(t.Context(), scriptTask("t1", "exit 3", t.TempDir()))
	require.ErrorIs(t, err, domain.ErrBuildScriptFailed)

	var zErr *zerr.Error
	require.ErrorAs(t, err, &zErr)
	assert.Equal(t, "t1", zErr.Metadata()["task_id"])
}

func TestExecutor_Execute_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := shell.NewExecutor(quietLogger(t)).Execute(ctx, scriptTask("t1", "sleep 5", t.TempDir()))
	require.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, domain.ErrBuildScriptFailed)
}

func TestExecutor_Execute_EmptyScript(t *testing.T) {
	artifacts, err := shell.NewExecutor(quietLogger(t)).Execute(t.Context(), scriptTask("t1", "  ", t.TempDir()))
	require.NoError(t, err)
	assert.Nil(t, artifacts)
}

func TestExecutor_WithLogsDir(t *testing.T) {
	logs := filepath.Join(t.TempDir(), "logs")
	executor := shell.NewExecutor(quietLogger(t)).WithLogsDir(logs)

	_, err := executor.Execute(t.Context(), scriptTask("t9", "echo hello", t.TempDir()))
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(logs, "t9.log"))
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(data))
}
