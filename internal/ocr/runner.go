package ocr

import (
	"bytes"
	"context"
	"log/slog"
	"os/exec"
	"time"

	"github.com/joseph-ayodele/expense-ocr/internal/common"
)

// Command is one invocation of an external program.
type Command struct {
	Name  string
	Args  []string
	Stdin []byte
}

// Runner executes commands; tests substitute a stub.
type Runner interface {
	Run(ctx context.Context, cmd Command) (stdout, stderr []byte, err error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	Logger *slog.Logger
}

func (r ExecRunner) Run(ctx context.Context, c Command) ([]byte, []byte, error) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	start := time.Now()

	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	if c.Stdin != nil {
		cmd.Stdin = bytes.NewReader(c.Stdin)
	}
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb

	err := cmd.Run()
	attrs := []any{
		"cmd", c.Name,
		"file", common.FilenameFromContext(ctx),
		"stdin_bytes", len(c.Stdin),
		"duration_ms", time.Since(start).Milliseconds(),
	}
	if err != nil {
		logger.Error("exec.failed", append(attrs, "args", c.Args, "error", err, "stderr", tail(errb.String(), 8<<10))...)
	} else {
		logger.Debug("exec.ok", append(attrs, "stdout_bytes", out.Len(), "stderr_bytes", errb.Len())...)
	}
	return out.Bytes(), errb.Bytes(), err
}

// tail keeps the last n bytes of s; tesseract prints its fatal message last.
func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
