package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultConverterPath is where the antiword binary is expected relative to the working dir.
	DefaultConverterPath = "./antiword/antiword"
	// DefaultConverterTimeout bounds one converter run.
	DefaultConverterTimeout = 60 * time.Second
)

// DefaultConverterArgs asks the converter for UTF-8 output. The file path is appended.
var DefaultConverterArgs = []string{"-mUTF-8"}

// Converter turns a legacy .doc file into UTF-8 text bytes.
type Converter interface {
	Convert(ctx context.Context, path string) ([]byte, error)
}

// ExecConverter runs an external command-line converter and captures its stdout.
type ExecConverter struct {
	Path    string
	Args    []string
	Timeout time.Duration
	Logger  *zap.Logger
}

// NewExecConverter returns an ExecConverter for the executable at path.
// Nil args means DefaultConverterArgs; a zero timeout disables the deadline.
func NewExecConverter(path string, args []string, timeout time.Duration) *ExecConverter {
	if args == nil {
		args = DefaultConverterArgs
	}
	return &ExecConverter{Path: path, Args: args, Timeout: timeout}
}

// Convert runs `<Path> <Args...> <path>`. A non-zero exit returns *ExitError; a deadline
// kills the process and returns context.DeadlineExceeded.
func (c *ExecConverter) Convert(ctx context.Context, path string) ([]byte, error) {
	if c.Path == "" {
		return nil, errors.New("converter path not configured")
	}
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}
	args := append(append([]string(nil), c.Args...), path)
	cmd := exec.CommandContext(ctx, c.Path, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	if c.Logger != nil {
		c.Logger.Debug("converter finished",
			zap.String("converter", c.Path),
			zap.String("path", path),
			zap.Duration("elapsed", time.Since(start)),
			zap.Int("stdout_bytes", stdout.Len()),
			zap.Error(err))
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) && c.Timeout > 0 {
			return nil, fmt.Errorf("converter timed out after %s: %w", c.Timeout, ctxErr)
		}
		return nil, fmt.Errorf("converter cancelled: %w", ctxErr)
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, &ExitError{Code: exitErr.ExitCode(), Stderr: strings.TrimSpace(stderr.String())}
		}
		return nil, fmt.Errorf("run converter %s: %w", c.Path, err)
	}
	return stdout.Bytes(), nil
}
