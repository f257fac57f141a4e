package server

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/vinayprograms/deaddrop/errors"
)

// Environment variables handed to the external command.
const (
	EnvInput  = "DEADDROP_INPUT"
	EnvOutput = "DEADDROP_OUTPUT"
)

// execute runs one command attempt for a task: stage the verified payload
// on disk, invoke the command, collect the output file. Local artifacts are
// removed on every path.
func (s *Server) execute(ctx context.Context, taskID string, payload []byte) ([]byte, error) {
	inputPath := filepath.Join(s.workDir, taskID+".input")
	outputPath := filepath.Join(s.workDir, taskID+".output")
	defer os.Remove(inputPath)
	defer os.Remove(outputPath)

	if err := os.WriteFile(inputPath, payload, 0600); err != nil {
		return nil, errors.CommandFailure(taskID, "failed to stage input file", errors.WithCause(err))
	}
	return s.runCommand(ctx, taskID, inputPath, outputPath)
}

// runCommand invokes the configured command via bash with the input and
// output paths in its environment. Non-zero exit or a missing output file
// is a command failure.
func (s *Server) runCommand(ctx context.Context, taskID, inputPath, outputPath string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "bash", "-c", s.command)
	cmd.Dir = s.workDir
	cmd.Env = append(os.Environ(),
		EnvInput+"="+inputPath,
		EnvOutput+"="+outputPath,
	)

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, errors.CommandFailure(taskID, "command canceled", errors.WithCause(ctx.Err()))
		}
		reason := "failed to start command"
		if exitErr, ok := err.(*exec.ExitError); ok {
			reason = fmt.Sprintf("exit status %d", exitErr.ExitCode())
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			reason += ": " + truncate(msg, 256)
		}
		return nil, errors.CommandFailure(taskID, reason, errors.WithCause(err))
	}

	output, err := os.ReadFile(outputPath)
	if err != nil {
		return nil, errors.CommandFailure(taskID, "command produced no output file", errors.WithCause(err))
	}
	return output, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
