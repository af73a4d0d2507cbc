package ldap

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Browser builds trees of organizational units, Computers containers and
// computers.
type Browser struct {
	dialer Dialer
	logger Logger
}

// NewBrowser creates a browser that opens sessions through dialer.
func NewBrowser(dialer Dialer, logger Logger) *Browser {
	return &Browser{
		dialer: dialer,
		logger: loggerOrNop(logger),
	}
}

// Traverse walks the tree below rootPath depth-first, in the server's child
// order. Computers are emitted as leaves only when includeComputers is set.
// With requireComputersInSubtree, an OU or Computers container is kept only
// if a computer exists somewhere below it.
//
// Failure to open rootPath returns a *ConnectionError; any failure below it
// returns a *DirectoryReadError and no partial tree.
func (b *Browser) Traverse(ctx context.Context, rootPath string, creds Credentials, includeComputers, requireComputersInSubtree bool) ([]*DirectoryObject, error) {
	path, err := ParseDirectoryPath(rootPath)
	if err != nil {
		return nil, NewConnectionError(rootPath, "invalid directory path", false, err)
	}

	start := time.Now()
	fields := map[string]any{
		"root_path":                    path.String(),
		"include_computers":            includeComputers,
		"require_computers_in_subtree": requireComputersInSubtree,
	}
	b.logger.Debug("Starting traversal", fields)

	t := &traversal{
		browser:          b,
		creds:            creds,
		includeComputers: includeComputers,
		requireComputers: requireComputersInSubtree,
	}

	session, err := b.dialer.Open(ctx, path, creds)
	if err != nil {
		fields["error"] = err.Error()
		b.logger.Error("Traversal root could not be opened", fields)
		return nil, asConnectionError(path, err)
	}

	nodes, err := t.walkOpened(ctx, session)
	if err != nil {
		fields["error"] = err.Error()
		b.logger.Error("Traversal failed", fields)
		return nil, err
	}

	fields["duration_ms"] = time.Since(start).Milliseconds()
	fields["top_level_nodes"] = len(nodes)
	b.logger.Info("Traversal completed", fields)

	return nodes, nil
}

// FullStructure returns every OU, Computers container and computer below root.
func (b *Browser) FullStructure(ctx context.Context, rootPath string, creds Credentials) ([]*DirectoryObject, error) {
	return b.Traverse(ctx, rootPath, creds, true, false)
}

// ComputerBearingOUs returns only the OUs and Computers containers that have
// a computer somewhere below them, without the computers themselves.
func (b *Browser) ComputerBearingOUs(ctx context.Context, rootPath string, creds Credentials) ([]*DirectoryObject, error) {
	return b.Traverse(ctx, rootPath, creds, false, true)
}

type traversal struct {
	browser          *Browser
	creds            Credentials
	includeComputers bool
	requireComputers bool
}

// walk opens path and returns its filtered children.
func (t *traversal) walk(ctx context.Context, path DirectoryPath) ([]*DirectoryObject, error) {
	session, err := t.browser.dialer.Open(ctx, path, t.creds)
	if err != nil {
		return nil, NewDirectoryReadError(path.String(), err)
	}
	return t.walkOpened(ctx, session)
}

func (t *traversal) walkOpened(ctx context.Context, session Session) ([]*DirectoryObject, error) {
	path := session.Path()

	children, err := readChildren(ctx, session)
	if err != nil {
		return nil, NewDirectoryReadError(path.String(), err)
	}

	nodes := make([]*DirectoryObject, 0, len(children))
	for _, child := range children {
		kind := Classify(child)
		childPath := path.Child(child.DN)

		switch {
		case kind == KindComputer:
			if t.includeComputers {
				nodes = append(nodes, newDirectoryObject(child, childPath, kind))
			}

		case kind.IsContainer():
			if t.requireComputers && !t.hasComputers(ctx, childPath) {
				t.browser.logger.Trace("Skipping branch without computers", map[string]any{
					"dn": child.DN,
				})
				continue
			}

			node := newDirectoryObject(child, childPath, kind)
			node.Children, err = t.walk(ctx, childPath)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, node)
		}
	}

	return nodes, nil
}

// readChildren enumerates and releases session.
func readChildren(ctx context.Context, session Session) ([]*Entry, error) {
	defer session.Close()
	return session.Children(ctx)
}

// hasComputers reports whether path holds a computer directly or anywhere
// below it. Any failure counts as no computers for its step.
func (t *traversal) hasComputers(ctx context.Context, path DirectoryPath) bool {
	session, err := t.browser.dialer.Open(ctx, path, t.creds)
	if err != nil {
		t.probeFailed(path, "open", err)
		return false
	}
	defer session.Close()

	children, err := session.Children(ctx)
	if err != nil {
		t.probeFailed(path, "children", err)
	}
	for _, child := range children {
		if Classify(child) == KindComputer {
			return true
		}
	}

	found, err := session.HasDescendant(ctx, computerFilter)
	if err != nil {
		t.probeFailed(path, "subtree_search", err)
		return false
	}

	return found
}

func (t *traversal) probeFailed(path DirectoryPath, step string, err error) {
	t.browser.logger.Debug("Computer probe failed", map[string]any{
		"path":  path.String(),
		"step":  step,
		"error": err.Error(),
	})
}

func newDirectoryObject(entry *Entry, path DirectoryPath, kind ObjectKind) *DirectoryObject {
	return &DirectoryObject{
		Name:              entry.Name,
		Path:              path.String(),
		DistinguishedName: entry.DN,
		Kind:              kind,
		Children:          []*DirectoryObject{},
	}
}

func asConnectionError(path DirectoryPath, err error) *ConnectionError {
	var connErr *ConnectionError
	if errors.As(err, &connErr) {
		return connErr
	}
	return NewConnectionError(path.String(), "failed to open directory connection", false, err)
}

// Walk visits every node in pre-order. depth starts at zero for top-level
// nodes and parent is nil for them.
func Walk(nodes []*DirectoryObject, fn func(node, parent *DirectoryObject, depth int)) {
	var visit func(nodes []*DirectoryObject, parent *DirectoryObject, depth int)
	visit = func(nodes []*DirectoryObject, parent *DirectoryObject, depth int) {
		for _, node := range nodes {
			fn(node, parent, depth)
			visit(node.Children, node, depth+1)
		}
	}
	visit(nodes, nil, 0)
}

// FlatNode is a DirectoryObject flattened for tabular consumers.
type FlatNode struct {
	Name              string
	Path              string
	DistinguishedName string
	Kind              ObjectKind
	ParentPath        string
	Depth             int
	ChildCount        int
}

// Flatten lists the tree in pre-order.
func Flatten(nodes []*DirectoryObject) []FlatNode {
	var flat []FlatNode
	Walk(nodes, func(node, parent *DirectoryObject, depth int) {
		fn := FlatNode{
			Name:              node.Name,
			Path:              node.Path,
			DistinguishedName: node.DistinguishedName,
			Kind:              node.Kind,
			Depth:             depth,
			ChildCount:        len(node.Children),
		}
		if parent != nil {
			fn.ParentPath = parent.Path
		}
		flat = append(flat, fn)
	})
	return flat
}

// FindComputer returns the first computer named name (case-insensitive), or nil.
func FindComputer(nodes []*DirectoryObject, name string) *DirectoryObject {
	var found *DirectoryObject
	Walk(nodes, func(node, _ *DirectoryObject, _ int) {
		if found == nil && node.Kind == KindComputer && strings.EqualFold(node.Name, name) {
			found = node
		}
	})
	return found
}
