package builtin

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/google/shlex"

	toolcore "github.com/kairodev/kairo/internal/tool"
)

func init() {
	toolcore.RegisterBuiltin("bash", func(options toolcore.BuiltinOptions) (toolcore.Tool, error) {
		return &BashTool{workDir: options.WorkDir}, nil
	})
}

// BashTool executes a shell command line and returns combined output.
type BashTool struct {
	workDir string
}

func (t *BashTool) Name() string {
	return "bash"
}

func (t *BashTool) Description() string {
	return "Execute a bash command and return its combined stdout and stderr."
}

func (t *BashTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"command": map[string]interface{}{
				"type":        "string",
				"description": "The command line to execute",
			},
			"workdir": map[string]interface{}{
				"type":        "string",
				"description": "Working directory for command execution",
			},
		},
		"required": []string{"command"},
	}
}

func (t *BashTool) Execute(ctx context.Context, args map[string]interface{}) (string, error) {
	command, err := stringArg(args, "command")
	if err != nil {
		return "", err
	}

	var cmd *exec.Cmd
	if needsShell(command) {
		cmd = exec.CommandContext(ctx, "bash", "-c", command)
	} else {
		// A plain command line avoids the shell entirely.
		parts, splitErr := shlex.Split(command)
		if splitErr != nil || len(parts) == 0 {
			cmd = exec.CommandContext(ctx, "bash", "-c", command)
		} else {
			cmd = exec.CommandContext(ctx, parts[0], parts[1:]...)
		}
	}

	workdir := optionalStringArg(args, "workdir")
	if workdir == "" {
		workdir = t.workDir
	}
	cmd.Dir = workdir

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	runErr := cmd.Run()
	output := strings.TrimRight(out.String(), "\n")
	if runErr != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("command timed out")
		}
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			if output != "" {
				return "", fmt.Errorf("%v\n%s", runErr, output)
			}
			return "", runErr
		}
	}
	if output == "" {
		output = "(no output)"
	}
	// The exit code travels in the output so the model sees failures
	// it may want to recover from, rather than a hard tool error.
	return fmt.Sprintf("%s\n\n[Exit code: %d]", output, cmd.ProcessState.ExitCode()), nil
}

func needsShell(command string) bool {
	return strings.ContainsAny(command, "|&;<>()$`\\\"'*?[]#~={}%\n")
}
