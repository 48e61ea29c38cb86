// Package shell runs build scripts locally: Executor runs one script, Runner dispatches
// tasks with bounded parallelism and reports their completion.
package shell

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/core/ports"
	"go.trai.ch/zerr"
)

// Environment variables exported to build scripts.
const (
	EnvTaskID        = "FORGE_TASK_ID"
	EnvConfiguration = "FORGE_CONFIGURATION"
	EnvRevision      = "FORGE_REVISION"
	EnvArtifacts     = "FORGE_ARTIFACTS"
)

var _ ports.Executor = (*Executor)(nil)

// Executor implements ports.Executor by running the build script of a revision with sh.
// Inline scripts run with "sh -c"; an absolute path to an existing file runs as "sh <file>".
type Executor struct {
	logger  ports.Logger
	shell   string
	logsDir string
}

// NewExecutor creates a new Executor.
func NewExecutor(logger ports.Logger) *Executor {
	return &Executor{logger: logger, shell: "sh"}
}

// WithLogsDir writes the output of every task to <dir>/<task id>.log.
func (e *Executor) WithLogsDir(dir string) *Executor {
	e.logsDir = dir
	return e
}

// Execute runs the build script of the task's revision and collects the artifacts the
// script lists, one per line, in the file named by $FORGE_ARTIFACTS.
func (e *Executor) Execute(ctx context.Context, task *domain.BuildTask) ([]domain.Artifact, error) {
	script := task.Revision.BuildScript.String()
	if strings.TrimSpace(script) == "" {
		return nil, nil
	}

	manifest, err := os.CreateTemp("", "forge-artifacts-*")
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to create artifact manifest"), "task_id", task.ID)
	}
	manifestPath := manifest.Name()
	_ = manifest.Close()
	defer func() { _ = os.Remove(manifestPath) }()

	args := []string{"-c", script}
	if isScriptFile(script) {
		args = []string{script}
	}

	cmd := exec.CommandContext(ctx, e.shell, args...) //nolint:gosec // build scripts are user provided
	cmd.Dir = task.Revision.WorkDir.String()
	cmd.Env = append(filterSystemEnv(os.Environ()),
		EnvTaskID+"="+task.ID.String(),
		EnvConfiguration+"="+task.ConfigurationID().String(),
		EnvRevision+"="+strconv.Itoa(task.Revision.Revision),
		EnvArtifacts+"="+manifestPath,
	)

	stdoutLog := &logWriter{logger: e.logger, level: "info", taskID: task.ID}
	stderrLog := &logWriter{logger: e.logger, level: "warn", taskID: task.ID}
	defer func() {
		_ = stdoutLog.Close()
		_ = stderrLog.Close()
	}()

	var stdout, stderr io.Writer = stdoutLog, stderrLog
	if e.logsDir != "" {
		logFile, err := e.openLogFile(task.ID)
		if err != nil {
			return nil, err
		}
		defer func() { _ = logFile.Close() }()
		stdout = io.MultiWriter(stdoutLog, logFile)
		stderr = io.MultiWriter(stderrLog, logFile)
	}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && ctx.Err() == nil {
			failed := zerr.With(zerr.Wrap(domain.ErrBuildScriptFailed, "command failed"), "exit_code", exitErr.ExitCode())
			return nil, zerr.With(failed, "task_id", task.ID.String())
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, zerr.With(zerr.Wrap(ctxErr, "build interrupted"), "task_id", task.ID.String())
		}
		return nil, zerr.With(zerr.Wrap(err, "failed to start build script"), "task_id", task.ID.String())
	}

	return readArtifacts(manifestPath, cmd.Dir)
}

func (e *Executor) openLogFile(id domain.TaskID) (*os.File, error) {
	if err := os.MkdirAll(e.logsDir, domain.DirPerm); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to create logs directory"), "path", e.logsDir)
	}
	path := filepath.Join(e.logsDir, id.String()+".log")
	//nolint:gosec // path is derived from the configured logs directory
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, domain.FilePerm)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to open task log"), "path", path)
	}
	return f, nil
}

func isScriptFile(script string) bool {
	if !filepath.IsAbs(script) {
		return false
	}
	info, err := os.Stat(script)
	return err == nil && info.Mode().IsRegular()
}

// readArtifacts parses the manifest. Identifiers naming an existing file, absolute or
// relative to dir, get the xxhash of the file content as checksum.
func readArtifacts(manifestPath, dir string) ([]domain.Artifact, error) {
	data, err := os.ReadFile(manifestPath) //nolint:gosec // path was created by the executor
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to read artifact manifest"), "path", manifestPath)
	}

	var artifacts []domain.Artifact
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		id := strings.TrimSpace(scanner.Text())
		if id == "" {
			continue
		}
		artifact := domain.Artifact{Identifier: id}

		path := id
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		if sum, err := checksumFile(path); err == nil {
			artifact.Checksum = sum
		}
		artifacts = append(artifacts, artifact)
	}
	return artifacts, scanner.Err()
}

func checksumFile(path string) (string, error) {
	f, err := os.Open(path) //nolint:gosec // artifact paths are listed by the build script
	if err != nil {
		return "", err
	}
	defer f.Close() //nolint:errcheck // Best effort close in defer

	info, err := f.Stat()
	if err != nil || !info.Mode().IsRegular() {
		return "", os.ErrInvalid
	}

	hasher := xxhash.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("%016x", hasher.Sum64()), nil
}

// logWriter forwards complete output lines to the logger.
type logWriter struct {
	logger ports.Logger
	level  string
	taskID domain.TaskID
	buf    []byte
}

func (w *logWriter) Write(p []byte) (n int, err error) {
	w.buf = append(w.buf, p...)

	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		w.logLine(w.buf[:i])
		w.buf = w.buf[i+1:]
	}

	return len(p), nil
}

func (w *logWriter) Close() error {
	if len(w.buf) > 0 {
		w.logLine(w.buf)
		w.buf = nil
	}
	return nil
}

func (w *logWriter) logLine(line []byte) {
	if w.logger == nil {
		return
	}
	msg := strings.TrimSuffix(string(line), "\r")
	if w.level == "info" {
		w.logger.Info(msg, "task_id", w.taskID.String())
	} else {
		w.logger.Warn(msg, "task_id", w.taskID.String())
	}
}

// allowListedEnvVars are the system environment variables inherited by build scripts.
var allowListedEnvVars = map[string]struct{}{
	"HOME":   {},
	"TERM":   {},
	"USER":   {},
	"PATH":   {},
	"TMPDIR": {},
}

func filterSystemEnv(sysEnv []string) []string {
	var env []string
	for _, entry := range sysEnv {
		k, _, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		if _, allowed := allowListedEnvVars[k]; allowed {
			env = append(env, entry)
		}
	}
	return env
}
