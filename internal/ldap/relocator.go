package ldap

import (
	"context"
	"fmt"
	"maps"
	"strings"

	"github.com/creasty/defaults"
)

// Method names recorded in MoveOutcome.MethodUsed and as attempt error prefixes.
const (
	MethodDirect       = "direct"
	MethodDelegatedCLI = "delegated-cli"
)

// Outcome messages.
const (
	MessageAlreadyInTarget = "computer is already in the target organizational unit"
	MessageAllFailed       = "all relocation methods failed"
)

// ContainmentPolicy decides when a computer already counts as being in the
// target.
type ContainmentPolicy string

const (
	// ContainmentParent compares the computer's parent DN with the target
	// DN component-wise, ignoring case.
	ContainmentParent ContainmentPolicy = "parent"
	// ContainmentSubstring reports containment whenever the target DN occurs
	// anywhere in the computer DN. This also blocks moves to any ancestor of
	// the current OU.
	ContainmentSubstring ContainmentPolicy = "substring"
)

// Contains reports whether computerDN is already in targetDN.
func (p ContainmentPolicy) Contains(computerDN, targetDN string) bool {
	switch p {
	case ContainmentSubstring:
		return strings.Contains(computerDN, targetDN)
	default:
		parent, err := ParentDN(computerDN)
		if err != nil {
			return false
		}
		return EqualDN(parent, targetDN)
	}
}

// RelocatorOptions configure a Relocator.
type RelocatorOptions struct {
	Containment      ContainmentPolicy `default:"parent"`
	DisableDelegated bool
}

// Relocator moves computer objects between organizational units.
type Relocator struct {
	dialer    Dialer
	creds     Credentials
	delegated DelegatedMover
	opts      RelocatorOptions
	logger    Logger
}

// NewRelocator creates a relocator. creds are used for the directory
// sessions and passed on to the delegated mover. A nil delegated mover
// behaves like DisableDelegated.
func NewRelocator(dialer Dialer, creds Credentials, delegated DelegatedMover, logger Logger, opts RelocatorOptions) *Relocator {
	if err := defaults.Set(&opts); err != nil {
		panic(fmt.Sprintf("invalid relocator defaults: %v", err))
	}

	return &Relocator{
		dialer:    dialer,
		creds:     creds,
		delegated: delegated,
		opts:      opts,
		logger:    loggerOrNop(logger),
	}
}

// Relocate moves the computer at computerPath under the OU at targetOUPath.
// It tries a direct ModifyDN first and the delegated command second. Every
// failure is reported through the returned outcome.
func (r *Relocator) Relocate(ctx context.Context, computerPath, targetOUPath string) MoveOutcome {
	outcome := MoveOutcome{AttemptErrors: []string{}}

	fields := map[string]any{
		"computer_path": computerPath,
		"target_path":   targetOUPath,
	}
	r.logger.Debug("Starting relocation", fields)

	computer, err := r.open(ctx, computerPath)
	if err != nil {
		return r.resolutionFailed(outcome, "computer", err, fields)
	}
	defer computer.Close()

	sourceDN, err := readDN(ctx, computer)
	if err != nil {
		return r.resolutionFailed(outcome, "computer", err, fields)
	}

	targetDN, err := r.resolveDN(ctx, targetOUPath)
	if err != nil {
		return r.resolutionFailed(outcome, "target", err, fields)
	}

	outcome.SourceDN = sourceDN
	outcome.TargetDN = targetDN
	fields["source_dn"] = sourceDN
	fields["target_dn"] = targetDN

	if r.opts.Containment.Contains(sourceDN, targetDN) {
		outcome.Message = MessageAlreadyInTarget
		r.logger.Info("Computer already in target", fields)
		return outcome
	}

	newDN, err := computer.MoveTo(ctx, targetDN)
	if err == nil {
		outcome.Success = true
		outcome.MethodUsed = MethodDirect
		outcome.NewDN = newDN
		outcome.Message = fmt.Sprintf("computer moved to %s", targetDN)
		r.logger.Info("Computer moved", withMethod(fields, MethodDirect))
		return outcome
	}
	outcome.AttemptErrors = append(outcome.AttemptErrors, MethodDirect+": "+err.Error())
	r.logger.Warn("Direct move failed", withError(fields, err))

	if err := r.moveDelegated(ctx, sourceDN, targetDN); err != nil {
		outcome.AttemptErrors = append(outcome.AttemptErrors, MethodDelegatedCLI+": "+err.Error())
		r.logger.Warn("Delegated move failed", withError(fields, err))
	} else {
		rdn, _ := splitRDN(sourceDN)
		outcome.Success = true
		outcome.MethodUsed = MethodDelegatedCLI
		outcome.NewDN = rdn + "," + targetDN
		outcome.Message = fmt.Sprintf("computer moved to %s", targetDN)
		r.logger.Info("Computer moved", withMethod(fields, MethodDelegatedCLI))
		return outcome
	}

	outcome.Message = MessageAllFailed
	r.logger.Error("Relocation failed", map[string]any{
		"source_dn":      sourceDN,
		"target_dn":      targetDN,
		"attempt_errors": outcome.AttemptErrors,
	})
	return outcome
}

func (r *Relocator) open(ctx context.Context, raw string) (Session, error) {
	path, err := ParseDirectoryPath(raw)
	if err != nil {
		return nil, err
	}
	return r.dialer.Open(ctx, path, r.creds)
}

func (r *Relocator) resolveDN(ctx context.Context, raw string) (string, error) {
	session, err := r.open(ctx, raw)
	if err != nil {
		return "", err
	}
	defer session.Close()

	return readDN(ctx, session)
}

func readDN(ctx context.Context, session Session) (string, error) {
	entry, err := session.Entry(ctx)
	if err != nil {
		return "", err
	}
	if entry == nil || entry.DN == "" {
		return "", fmt.Errorf("empty distinguished name")
	}
	return entry.DN, nil
}

func (r *Relocator) moveDelegated(ctx context.Context, sourceDN, targetDN string) error {
	if r.opts.DisableDelegated || r.delegated == nil {
		return fmt.Errorf("delegated move disabled")
	}

	return r.delegated.Move(ctx, MoveRequest{
		SourceDN:    sourceDN,
		TargetDN:    targetDN,
		Credentials: r.creds,
	})
}

func (r *Relocator) resolutionFailed(outcome MoveOutcome, which string, err error, fields map[string]any) MoveOutcome {
	outcome.Message = fmt.Sprintf("could not resolve %s distinguished name: %v", which, err)
	r.logger.Error("Relocation resolution failed", withError(fields, err))
	return outcome
}

func withError(fields map[string]any, err error) map[string]any {
	out := maps.Clone(fields)
	out["error"] = err.Error()
	return out
}

func withMethod(fields map[string]any, method string) map[string]any {
	out := maps.Clone(fields)
	out["method"] = method
	return out
}
