/*
Package ldap provides the Active Directory browsing and computer relocation
core used by the Terraform provider and the admover CLI.

# Architecture Overview

The package is organized into a few small components:

  - Dialer/Session: scoped connection handles opened per directory path
  - Browser: depth-first traversal of the OU tree with computer filtering
  - Relocator: computer moves with a direct attempt and a delegated fallback
  - Handlers: utility operations (DN, GUID, SID conversion)

# Connection Management

Every operation opens its own connection and releases it before returning.
There is no pool and no state is shared between calls:

  - SRV-based domain controller discovery for serverless paths
  - LDAPS, or StartTLS on plain LDAP
  - NTLM, simple, Kerberos and ambient identity authentication

# Directory Paths

Paths are LDAP URLs. A root path may omit the server, in which case the
domain is derived from its DC components:

	LDAP://DC=example,DC=com
	ldaps://dc1.example.com/OU=Sales,DC=example,DC=com

# Traversal

	browser := ldap.NewBrowser(dialer, logger)
	tree, err := browser.Traverse(ctx, root, creds, true, false)

Objects are classified once, through a small table, into organizational
units, the well-known Computers container and computers. Anything else is
skipped.

# Relocation

	relocator := ldap.NewRelocator(dialer, creds, ldap.NewPowerShellMover(nil), logger, opts)
	outcome := relocator.Relocate(ctx, computerPath, targetPath)

Relocate never returns an error. Failed attempts are recorded in
MoveOutcome.AttemptErrors in the order they were tried.

# Error Handling

ConnectionError is returned when a path cannot be opened. DirectoryReadError
wraps failures while reading an opened path. Both support errors.As and
errors.Unwrap. LDAPError adds result code categorization.
*/
package ldap
