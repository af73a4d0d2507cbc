package ldap

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// MoveRequest is a move handed to a DelegatedMover.
type MoveRequest struct {
	SourceDN    string
	TargetDN    string
	Credentials Credentials
}

// DelegatedMover moves a directory object with an external tool.
type DelegatedMover interface {
	Move(ctx context.Context, req MoveRequest) error
}

// CommandRunner runs a process to completion and returns its combined output.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// DefaultPowerShell is the executable used when none is configured.
const DefaultPowerShell = "powershell.exe"

// PowerShellMover moves objects with the ActiveDirectory module's
// Move-ADObject cmdlet.
type PowerShellMover struct {
	Executable string
	runner     CommandRunner
}

// NewPowerShellMover creates a mover that runs through runner, or os/exec
// when runner is nil.
func NewPowerShellMover(runner CommandRunner) *PowerShellMover {
	if runner == nil {
		runner = ExecRunner{}
	}
	return &PowerShellMover{
		Executable: DefaultPowerShell,
		runner:     runner,
	}
}

// Move runs Move-ADObject non-interactively. A non-zero exit is an error
// carrying the captured output.
func (m *PowerShellMover) Move(ctx context.Context, req MoveRequest) error {
	executable := m.Executable
	if executable == "" {
		executable = DefaultPowerShell
	}

	script := BuildMoveScript(req.SourceDN, req.TargetDN, req.Credentials)
	output, err := m.runner.Run(ctx, executable, "-NoProfile", "-NonInteractive", "-Command", script)
	if err == nil {
		return nil
	}

	detail := strings.TrimSpace(string(output))
	var exitErr *exec.ExitError
	switch {
	case errors.As(err, &exitErr) && detail != "":
		return fmt.Errorf("exit status %d: %s", exitErr.ExitCode(), detail)
	case errors.As(err, &exitErr):
		return fmt.Errorf("exit status %d", exitErr.ExitCode())
	case detail != "":
		return fmt.Errorf("%w: %s", err, detail)
	default:
		return err
	}
}

// BuildMoveScript returns the PowerShell command text for a move. With
// a username and password it first builds a PSCredential and passes it to
// the cmdlet; otherwise the command runs as the caller's identity.
func BuildMoveScript(sourceDN, targetDN string, creds Credentials) string {
	command := fmt.Sprintf(`Move-ADObject -Identity "%s" -TargetPath "%s"`,
		escapeDoubleQuoted(sourceDN), escapeDoubleQuoted(targetDN))

	if !creds.HasPassword() {
		return command
	}

	return fmt.Sprintf(
		"$cred = New-Object System.Management.Automation.PSCredential('%s', (ConvertTo-SecureString '%s' -AsPlainText -Force)); %s -Credential $cred",
		escapeSingleQuoted(creds.Username), escapeSingleQuoted(creds.Password), command)
}

// ManualCommand returns a credential-free command an operator can run by
// hand after a failed relocation, or "" when the DNs were never resolved.
func ManualCommand(outcome MoveOutcome) string {
	if outcome.SourceDN == "" || outcome.TargetDN == "" {
		return ""
	}
	return BuildMoveScript(outcome.SourceDN, outcome.TargetDN, Credentials{})
}

func escapeDoubleQuoted(s string) string {
	r := strings.NewReplacer("`", "``", `"`, "`\"", "$", "`$")
	return r.Replace(s)
}

func escapeSingleQuoted(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
