package ldap

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	testComputerDN = "CN=PC01,OU=Sales,DC=example,DC=com"
	testTargetDN   = "OU=IT,DC=example,DC=com"
)

type relocatorFixture struct {
	dialer    *MockDialer
	computer  *MockSession
	target    *MockSession
	delegated *MockDelegatedMover
	creds     Credentials
}

func newRelocatorFixture(computerDN, targetDN string) *relocatorFixture {
	f := &relocatorFixture{
		dialer:    &MockDialer{},
		computer:  newMockSession("LDAP://" + computerDN),
		target:    newMockSession("LDAP://" + targetDN),
		delegated: &MockDelegatedMover{},
		creds:     Credentials{Username: `EXAMPLE\operator`, Password: "hunter2"},
	}

	f.dialer.On("Open", mock.Anything, MustParseDirectoryPath("LDAP://"+computerDN), f.creds).Return(f.computer, nil)
	f.dialer.On("Open", mock.Anything, MustParseDirectoryPath("LDAP://"+targetDN), f.creds).Return(f.target, nil)

	f.computer.On("Entry", mock.Anything).Return(&Entry{DN: computerDN, Name: RDNValue(computerDN)}, nil)
	f.computer.On("Close").Return(nil)
	f.target.On("Entry", mock.Anything).Return(&Entry{DN: targetDN, Name: RDNValue(targetDN)}, nil)
	f.target.On("Close").Return(nil)

	return f
}

func (f *relocatorFixture) relocator(opts RelocatorOptions) *Relocator {
	return NewRelocator(f.dialer, f.creds, f.delegated, nil, opts)
}

func (f *relocatorFixture) relocate(opts RelocatorOptions, computerDN, targetDN string) MoveOutcome {
	return f.relocator(opts).Relocate(context.Background(), "LDAP://"+computerDN, "LDAP://"+targetDN)
}

func TestRelocator_DirectMove(t *testing.T) {
	f := newRelocatorFixture(testComputerDN, testTargetDN)
	f.computer.On("MoveTo", mock.Anything, testTargetDN).Return("CN=PC01,"+testTargetDN, nil).Once()

	outcome := f.relocate(RelocatorOptions{}, testComputerDN, testTargetDN)

	assert.True(t, outcome.Success)
	assert.Equal(t, MethodDirect, outcome.MethodUsed)
	assert.Equal(t, testComputerDN, outcome.SourceDN)
	assert.Equal(t, testTargetDN, outcome.TargetDN)
	assert.Equal(t, "CN=PC01,"+testTargetDN, outcome.NewDN)
	assert.NotNil(t, outcome.AttemptErrors)
	assert.Empty(t, outcome.AttemptErrors)

	f.delegated.AssertNotCalled(t, "Move", mock.Anything, mock.Anything)
	f.computer.AssertCalled(t, "Close")
	f.target.AssertCalled(t, "Close")
}

func TestRelocator_FallsBackToDelegated(t *testing.T) {
	f := newRelocatorFixture(testComputerDN, testTargetDN)
	f.computer.On("MoveTo", mock.Anything, testTargetDN).Return("", errors.New("access denied")).Once()
	f.delegated.On("Move", mock.Anything, MoveRequest{
		SourceDN:    testComputerDN,
		TargetDN:    testTargetDN,
		Credentials: f.creds,
	}).Return(nil).Once()

	outcome := f.relocate(RelocatorOptions{}, testComputerDN, testTargetDN)

	assert.True(t, outcome.Success)
	assert.Equal(t, MethodDelegatedCLI, outcome.MethodUsed)
	assert.Equal(t, []string{"direct: access denied"}, outcome.AttemptErrors)
	assert.Equal(t, "CN=PC01,"+testTargetDN, outcome.NewDN)
	f.delegated.AssertExpectations(t)
}

func TestRelocator_AllMethodsFail(t *testing.T) {
	f := newRelocatorFixture(testComputerDN, testTargetDN)
	f.computer.On("MoveTo", mock.Anything, testTargetDN).Return("", errors.New("access denied"))
	f.delegated.On("Move", mock.Anything, mock.Anything).Return(errors.New("exit status 1: Access is denied"))

	outcome := f.relocate(RelocatorOptions{}, testComputerDN, testTargetDN)

	assert.False(t, outcome.Success)
	assert.Empty(t, outcome.MethodUsed)
	assert.Equal(t, MessageAllFailed, outcome.Message)
	assert.Equal(t, []string{
		"direct: access denied",
		"delegated-cli: exit status 1: Access is denied",
	}, outcome.AttemptErrors)
	assert.Equal(t, testComputerDN, outcome.SourceDN, "DNs are kept for the manual command")
	assert.Equal(t, testTargetDN, outcome.TargetDN)
}

func TestRelocator_DelegatedDisabled(t *testing.T) {
	tests := []struct {
		name      string
		opts      RelocatorOptions
		delegated bool
	}{
		{name: "option set", opts: RelocatorOptions{DisableDelegated: true}, delegated: true},
		{name: "no mover", opts: RelocatorOptions{}, delegated: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRelocatorFixture(testComputerDN, testTargetDN)
			f.computer.On("MoveTo", mock.Anything, testTargetDN).Return("", errors.New("access denied"))

			var mover DelegatedMover
			if tt.delegated {
				mover = f.delegated
			}
			r := NewRelocator(f.dialer, f.creds, mover, nil, tt.opts)

			outcome := r.Relocate(context.Background(), "LDAP://"+testComputerDN, "LDAP://"+testTargetDN)

			assert.False(t, outcome.Success)
			assert.Equal(t, []string{
				"direct: access denied",
				"delegated-cli: delegated move disabled",
			}, outcome.AttemptErrors)
			f.delegated.AssertNotCalled(t, "Move", mock.Anything, mock.Anything)
		})
	}
}

func TestRelocator_AlreadyInTarget(t *testing.T) {
	computerDN := "CN=PC01,OU=IT,DC=example,DC=com"
	targetDN := "ou=it,dc=example,dc=com"
	f := newRelocatorFixture(computerDN, targetDN)

	outcome := f.relocate(RelocatorOptions{}, computerDN, targetDN)

	assert.False(t, outcome.Success)
	assert.Equal(t, MessageAlreadyInTarget, outcome.Message)
	assert.Empty(t, outcome.AttemptErrors)
	assert.Empty(t, outcome.MethodUsed)
	f.computer.AssertNotCalled(t, "MoveTo", mock.Anything, mock.Anything)
	f.delegated.AssertNotCalled(t, "Move", mock.Anything, mock.Anything)
}

func TestRelocator_ContainmentPolicy(t *testing.T) {
	// the computer sits in a child OU of the target
	computerDN := "CN=PC01,OU=Laptops,OU=IT,DC=example,DC=com"

	t.Run("parent moves into ancestor", func(t *testing.T) {
		f := newRelocatorFixture(computerDN, testTargetDN)
		f.computer.On("MoveTo", mock.Anything, testTargetDN).Return("CN=PC01,"+testTargetDN, nil)

		outcome := f.relocate(RelocatorOptions{Containment: ContainmentParent}, computerDN, testTargetDN)

		assert.True(t, outcome.Success)
		assert.Equal(t, MethodDirect, outcome.MethodUsed)
	})

	t.Run("substring refuses ancestor", func(t *testing.T) {
		f := newRelocatorFixture(computerDN, testTargetDN)

		outcome := f.relocate(RelocatorOptions{Containment: ContainmentSubstring}, computerDN, testTargetDN)

		assert.False(t, outcome.Success)
		assert.Equal(t, MessageAlreadyInTarget, outcome.Message)
		f.computer.AssertNotCalled(t, "MoveTo", mock.Anything, mock.Anything)
	})
}

func TestRelocator_ResolutionFailure(t *testing.T) {
	t.Run("target cannot be opened", func(t *testing.T) {
		f := &relocatorFixture{
			dialer:    &MockDialer{},
			computer:  newMockSession("LDAP://" + testComputerDN),
			delegated: &MockDelegatedMover{},
		}
		f.dialer.On("Open", mock.Anything, MustParseDirectoryPath("LDAP://"+testComputerDN), Credentials{}).Return(f.computer, nil)
		f.dialer.On("Open", mock.Anything, MustParseDirectoryPath("LDAP://"+testTargetDN), Credentials{}).
			Return(nil, NewConnectionError("LDAP://"+testTargetDN, "cannot bind to directory object", false, errors.New("no such object")))
		f.computer.On("Entry", mock.Anything).Return(&Entry{DN: testComputerDN}, nil)
		f.computer.On("Close").Return(nil).Once()

		outcome := f.relocate(RelocatorOptions{}, testComputerDN, testTargetDN)

		assert.False(t, outcome.Success)
		assert.Contains(t, outcome.Message, "could not resolve target distinguished name")
		assert.Contains(t, outcome.Message, "no such object")
		assert.Empty(t, outcome.SourceDN)
		assert.Empty(t, outcome.TargetDN)
		assert.Empty(t, outcome.AttemptErrors)
		f.computer.AssertExpectations(t)
	})

	t.Run("computer entry unreadable", func(t *testing.T) {
		f := &relocatorFixture{
			dialer:   &MockDialer{},
			computer: newMockSession("LDAP://" + testComputerDN),
		}
		f.dialer.On("Open", mock.Anything, mock.Anything, Credentials{}).Return(f.computer, nil)
		f.computer.On("Entry", mock.Anything).Return(nil, errors.New("timeout"))
		f.computer.On("Close").Return(nil).Once()

		outcome := NewRelocator(f.dialer, Credentials{}, nil, nil, RelocatorOptions{}).
			Relocate(context.Background(), "LDAP://"+testComputerDN, "LDAP://"+testTargetDN)

		assert.Equal(t, "could not resolve computer distinguished name: timeout", outcome.Message)
		f.computer.AssertExpectations(t)
	})

	t.Run("invalid computer path", func(t *testing.T) {
		dialer := &MockDialer{}

		outcome := NewRelocator(dialer, Credentials{}, nil, nil, RelocatorOptions{}).
			Relocate(context.Background(), "PC01", "LDAP://"+testTargetDN)

		assert.False(t, outcome.Success)
		assert.Contains(t, outcome.Message, "could not resolve computer distinguished name")
		dialer.AssertNotCalled(t, "Open", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestRelocator_LogsOutcome(t *testing.T) {
	f := newRelocatorFixture(testComputerDN, testTargetDN)
	f.computer.On("MoveTo", mock.Anything, testTargetDN).Return("", errors.New("access denied"))
	f.delegated.On("Move", mock.Anything, mock.Anything).Return(nil)
	logger := &recordingLogger{}

	outcome := NewRelocator(f.dialer, f.creds, f.delegated, logger, RelocatorOptions{}).
		Relocate(context.Background(), "LDAP://"+testComputerDN, "LDAP://"+testTargetDN)

	require.True(t, outcome.Success)
	assert.Contains(t, logger.messages, "warn: Direct move failed")
	assert.Contains(t, logger.messages, "info: Computer moved")
}

func TestContainmentPolicy_Contains(t *testing.T) {
	tests := []struct {
		name       string
		policy     ContainmentPolicy
		computerDN string
		targetDN   string
		want       bool
	}{
		{"parent exact", ContainmentParent, "CN=PC01,OU=IT,DC=example,DC=com", "OU=IT,DC=example,DC=com", true},
		{"parent ignores case", ContainmentParent, "CN=PC01,OU=IT,DC=example,DC=com", "ou=it,dc=EXAMPLE,dc=com", true},
		{"parent rejects ancestor", ContainmentParent, "CN=PC01,OU=Laptops,OU=IT,DC=example,DC=com", "OU=IT,DC=example,DC=com", false},
		{"parent rejects sibling", ContainmentParent, "CN=PC01,OU=Sales,DC=example,DC=com", "OU=IT,DC=example,DC=com", false},
		{"parent rejects invalid", ContainmentParent, "not a dn", "OU=IT,DC=example,DC=com", false},
		{"substring ancestor", ContainmentSubstring, "CN=PC01,OU=Laptops,OU=IT,DC=example,DC=com", "OU=IT,DC=example,DC=com", true},
		{"substring is case sensitive", ContainmentSubstring, "CN=PC01,OU=IT,DC=example,DC=com", "ou=it,dc=example,dc=com", false},
		{"empty policy is parent", ContainmentPolicy(""), "CN=PC01,OU=IT,DC=example,DC=com", "OU=IT,DC=example,DC=com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.policy.Contains(tt.computerDN, tt.targetDN))
		})
	}
}

func TestNewRelocator_DefaultsContainment(t *testing.T) {
	r := NewRelocator(&MockDialer{}, Credentials{}, nil, nil, RelocatorOptions{})
	assert.Equal(t, ContainmentParent, r.opts.Containment)
}
