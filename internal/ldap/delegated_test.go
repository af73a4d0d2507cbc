package ldap

import (
	"context"
	"errors"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestBuildMoveScript(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		target   string
		creds    Credentials
		expected string
	}{
		{
			name:     "ambient identity",
			source:   testComputerDN,
			target:   testTargetDN,
			expected: `Move-ADObject -Identity "CN=PC01,OU=Sales,DC=example,DC=com" -TargetPath "OU=IT,DC=example,DC=com"`,
		},
		{
			name:   "explicit credentials",
			source: testComputerDN,
			target: testTargetDN,
			creds:  Credentials{Username: `EXAMPLE\operator`, Password: "hunter2"},
			expected: `$cred = New-Object System.Management.Automation.PSCredential('EXAMPLE\operator', ` +
				`(ConvertTo-SecureString 'hunter2' -AsPlainText -Force)); ` +
				`Move-ADObject -Identity "CN=PC01,OU=Sales,DC=example,DC=com" -TargetPath "OU=IT,DC=example,DC=com" -Credential $cred`,
		},
		{
			name:     "username without password",
			source:   testComputerDN,
			target:   testTargetDN,
			creds:    Credentials{Username: "admin@EXAMPLE.COM"},
			expected: `Move-ADObject -Identity "CN=PC01,OU=Sales,DC=example,DC=com" -TargetPath "OU=IT,DC=example,DC=com"`,
		},
		{
			name:     "password without username",
			source:   testComputerDN,
			target:   testTargetDN,
			creds:    Credentials{Password: "hunter2"},
			expected: `Move-ADObject -Identity "CN=PC01,OU=Sales,DC=example,DC=com" -TargetPath "OU=IT,DC=example,DC=com"`,
		},
		{
			name:     "quotes in DN",
			source:   `CN=PC "01",OU=Sales,DC=example,DC=com`,
			target:   "OU=$Cost`Centre,DC=example,DC=com",
			expected: "Move-ADObject -Identity \"CN=PC `\"01`\",OU=Sales,DC=example,DC=com\" -TargetPath \"OU=`$Cost``Centre,DC=example,DC=com\"",
		},
		{
			name:   "quotes in password",
			source: testComputerDN,
			target: testTargetDN,
			creds:  Credentials{Username: "o'brien", Password: "it's'secret"},
			expected: `$cred = New-Object System.Management.Automation.PSCredential('o''brien', ` +
				`(ConvertTo-SecureString 'it''s''secret' -AsPlainText -Force)); ` +
				`Move-ADObject -Identity "CN=PC01,OU=Sales,DC=example,DC=com" -TargetPath "OU=IT,DC=example,DC=com" -Credential $cred`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, BuildMoveScript(tt.source, tt.target, tt.creds))
		})
	}
}

func TestManualCommand(t *testing.T) {
	outcome := MoveOutcome{SourceDN: testComputerDN, TargetDN: testTargetDN}

	cmd := ManualCommand(outcome)

	assert.Equal(t, `Move-ADObject -Identity "CN=PC01,OU=Sales,DC=example,DC=com" -TargetPath "OU=IT,DC=example,DC=com"`, cmd)
	assert.NotContains(t, cmd, "Credential")
	assert.Empty(t, ManualCommand(MoveOutcome{SourceDN: testComputerDN}))
}

func TestPowerShellMover_Move(t *testing.T) {
	creds := Credentials{Username: `EXAMPLE\operator`, Password: "hunter2"}
	script := BuildMoveScript(testComputerDN, testTargetDN, creds)

	runner := &MockCommandRunner{}
	runner.On("Run", mock.Anything, DefaultPowerShell,
		[]string{"-NoProfile", "-NonInteractive", "-Command", script}).Return([]byte{}, nil).Once()

	err := NewPowerShellMover(runner).Move(context.Background(), MoveRequest{
		SourceDN:    testComputerDN,
		TargetDN:    testTargetDN,
		Credentials: creds,
	})

	require.NoError(t, err)
	runner.AssertExpectations(t)
}

func TestPowerShellMover_CustomExecutable(t *testing.T) {
	runner := &MockCommandRunner{}
	runner.On("Run", mock.Anything, "pwsh", mock.Anything).Return([]byte{}, nil).Once()

	mover := NewPowerShellMover(runner)
	mover.Executable = "pwsh"

	require.NoError(t, mover.Move(context.Background(), MoveRequest{SourceDN: testComputerDN, TargetDN: testTargetDN}))
	runner.AssertExpectations(t)
}

func TestPowerShellMover_Errors(t *testing.T) {
	tests := []struct {
		name     string
		output   string
		err      error
		expected string
	}{
		{
			name:     "not found with output",
			output:   "The term 'Move-ADObject' is not recognized\r\n",
			err:      errors.New("launch failed"),
			expected: "launch failed: The term 'Move-ADObject' is not recognized",
		},
		{
			name:     "not installed",
			err:      exec.ErrNotFound,
			expected: exec.ErrNotFound.Error(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &MockCommandRunner{}
			runner.On("Run", mock.Anything, mock.Anything, mock.Anything).Return([]byte(tt.output), tt.err)

			err := NewPowerShellMover(runner).Move(context.Background(), MoveRequest{SourceDN: testComputerDN, TargetDN: testTargetDN})

			assert.EqualError(t, err, tt.expected)
		})
	}
}

func TestPowerShellMover_ExitStatus(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	// produce a genuine *exec.ExitError
	output, exitErr := ExecRunner{}.Run(context.Background(), "sh", "-c", "echo 'Access is denied'; exit 3")
	require.Error(t, exitErr)

	tests := []struct {
		name     string
		output   []byte
		expected string
	}{
		{name: "with output", output: output, expected: "exit status 3: Access is denied"},
		{name: "silent", output: nil, expected: "exit status 3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &MockCommandRunner{}
			runner.On("Run", mock.Anything, mock.Anything, mock.Anything).Return(tt.output, exitErr)

			err := NewPowerShellMover(runner).Move(context.Background(), MoveRequest{SourceDN: testComputerDN, TargetDN: testTargetDN})

			assert.EqualError(t, err, tt.expected)
		})
	}
}

func TestNewPowerShellMover_DefaultRunner(t *testing.T) {
	mover := NewPowerShellMover(nil)
	assert.IsType(t, ExecRunner{}, mover.runner)
	assert.Equal(t, DefaultPowerShell, mover.Executable)
}
