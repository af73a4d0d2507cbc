package ldap

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/stretchr/testify/mock"
)

// MockDialer implements Dialer for testing.
type MockDialer struct {
	mock.Mock
}

func (m *MockDialer) Open(ctx context.Context, path DirectoryPath, creds Credentials) (Session, error) {
	args := m.Called(ctx, path, creds)
	if session, ok := args.Get(0).(Session); ok {
		return session, args.Error(1)
	}
	return nil, args.Error(1)
}

// MockSession implements Session for testing.
type MockSession struct {
	mock.Mock
	path DirectoryPath
}

func newMockSession(raw string) *MockSession {
	return &MockSession{path: MustParseDirectoryPath(raw)}
}

func (m *MockSession) Path() DirectoryPath {
	return m.path
}

func (m *MockSession) Entry(ctx context.Context) (*Entry, error) {
	args := m.Called(ctx)
	if entry, ok := args.Get(0).(*Entry); ok {
		return entry, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSession) Children(ctx context.Context) ([]*Entry, error) {
	args := m.Called(ctx)
	if entries, ok := args.Get(0).([]*Entry); ok {
		return entries, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSession) HasDescendant(ctx context.Context, filter string) (bool, error) {
	args := m.Called(ctx, filter)
	return args.Bool(0), args.Error(1)
}

func (m *MockSession) MoveTo(ctx context.Context, newParentDN string) (string, error) {
	args := m.Called(ctx, newParentDN)
	return args.String(0), args.Error(1)
}

func (m *MockSession) FindByGUID(ctx context.Context, guid string) (*Entry, error) {
	args := m.Called(ctx, guid)
	if entry, ok := args.Get(0).(*Entry); ok {
		return entry, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSession) WhoAmI(ctx context.Context) (*WhoAmIResult, error) {
	args := m.Called(ctx)
	if result, ok := args.Get(0).(*WhoAmIResult); ok {
		return result, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSession) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockDelegatedMover implements DelegatedMover for testing.
type MockDelegatedMover struct {
	mock.Mock
}

func (m *MockDelegatedMover) Move(ctx context.Context, req MoveRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

// MockCommandRunner implements CommandRunner for testing.
type MockCommandRunner struct {
	mock.Mock
}

func (m *MockCommandRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	called := m.Called(ctx, name, args)
	output, _ := called.Get(0).([]byte)
	return output, called.Error(1)
}

// fakeDirectory is an in-memory directory for traversal tests. Objects are
// keyed by lowercased DN and children keep insertion order.
type fakeDirectory struct {
	mu       sync.Mutex
	objects  map[string]*fakeObject
	opens    map[string]int
	open     int // sessions currently open
	failOpen map[string]error
	failList map[string]error
	failHas  map[string]error
}

type fakeObject struct {
	entry    *Entry
	children []string
}

func newFakeDirectory(rootDN string) *fakeDirectory {
	d := &fakeDirectory{
		objects:  map[string]*fakeObject{},
		opens:    map[string]int{},
		failOpen: map[string]error{},
		failList: map[string]error{},
		failHas:  map[string]error{},
	}
	d.objects[strings.ToLower(rootDN)] = &fakeObject{entry: &Entry{
		DN:            rootDN,
		Name:          RDNValue(rootDN),
		ObjectClasses: []string{"top", "domain", "domainDNS"},
	}}
	return d
}

func (d *fakeDirectory) add(parentDN, rdn string, classes ...string) string {
	dn := rdn + "," + parentDN
	d.objects[strings.ToLower(dn)] = &fakeObject{entry: &Entry{
		DN:            dn,
		Name:          RDNValue(dn),
		ObjectClasses: classes,
	}}
	parent := d.objects[strings.ToLower(parentDN)]
	parent.children = append(parent.children, strings.ToLower(dn))
	return dn
}

func (d *fakeDirectory) addOU(parentDN, name string) string {
	return d.add(parentDN, "OU="+name, "top", "organizationalUnit")
}

func (d *fakeDirectory) addComputer(parentDN, name string) string {
	return d.add(parentDN, "CN="+name, "top", "person", "organizationalPerson", "user", "computer")
}

func (d *fakeDirectory) addContainer(parentDN, name string) string {
	return d.add(parentDN, "CN="+name, "top", "container")
}

func (d *fakeDirectory) addUser(parentDN, name string) string {
	return d.add(parentDN, "CN="+name, "top", "person", "organizationalPerson", "user")
}

func (d *fakeDirectory) openCount(dn string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.opens[strings.ToLower(dn)]
}

func (d *fakeDirectory) openSessions() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.open
}

func (d *fakeDirectory) Open(_ context.Context, path DirectoryPath, _ Credentials) (Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	key := strings.ToLower(path.DN)
	d.opens[key]++
	if err := d.failOpen[key]; err != nil {
		return nil, NewConnectionError(path.String(), "failed to open directory connection", false, err)
	}
	if _, ok := d.objects[key]; !ok {
		return nil, NewConnectionError(path.String(), "cannot bind to directory object", false, errors.New("no such object"))
	}

	d.open++
	return &fakeSession{dir: d, path: path, key: key}, nil
}

type fakeSession struct {
	dir    *fakeDirectory
	path   DirectoryPath
	key    string
	closed bool
}

func (s *fakeSession) Path() DirectoryPath { return s.path }

func (s *fakeSession) Entry(context.Context) (*Entry, error) {
	return s.dir.objects[s.key].entry, nil
}

func (s *fakeSession) Children(context.Context) ([]*Entry, error) {
	if err := s.dir.failList[s.key]; err != nil {
		return nil, err
	}
	var entries []*Entry
	for _, child := range s.dir.objects[s.key].children {
		entries = append(entries, s.dir.objects[child].entry)
	}
	return entries, nil
}

func (s *fakeSession) HasDescendant(_ context.Context, _ string) (bool, error) {
	if err := s.dir.failHas[s.key]; err != nil {
		return false, err
	}
	var search func(key string) bool
	search = func(key string) bool {
		for _, child := range s.dir.objects[key].children {
			if Classify(s.dir.objects[child].entry) == KindComputer || search(child) {
				return true
			}
		}
		return false
	}
	return search(s.key), nil
}

func (s *fakeSession) MoveTo(context.Context, string) (string, error) {
	return "", errors.New("not supported")
}

func (s *fakeSession) FindByGUID(context.Context, string) (*Entry, error) {
	return nil, nil
}

func (s *fakeSession) WhoAmI(context.Context) (*WhoAmIResult, error) {
	return ParseAuthzID("u:EXAMPLE\\tester"), nil
}

func (s *fakeSession) Close() error {
	s.dir.mu.Lock()
	defer s.dir.mu.Unlock()
	if !s.closed {
		s.closed = true
		s.dir.open--
	}
	return nil
}

// recordingLogger captures log messages for assertions.
type recordingLogger struct {
	mu       sync.Mutex
	messages []string
}

func (l *recordingLogger) record(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, level+": "+msg)
}

func (l *recordingLogger) Debug(msg string, _ map[string]any) { l.record("debug", msg) }
func (l *recordingLogger) Info(msg string, _ map[string]any)  { l.record("info", msg) }
func (l *recordingLogger) Warn(msg string, _ map[string]any)  { l.record("warn", msg) }
func (l *recordingLogger) Error(msg string, _ map[string]any) { l.record("error", msg) }
func (l *recordingLogger) Trace(msg string, _ map[string]any) { l.record("trace", msg) }
