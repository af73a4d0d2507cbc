// Package ldaptest provides an in-memory directory for tests of code built
// on the ldap package.
package ldaptest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	ldapclient "github.com/isometry/terraform-provider-admover/internal/ldap"
)

// DefaultIdentity is returned by WhoAmI unless Identity is set.
const DefaultIdentity = `u:EXAMPLE\tester`

// Directory is an in-memory directory implementing ldapclient.Dialer.
// Objects are keyed by lowercased DN and children keep insertion order.
type Directory struct {
	mu      sync.Mutex
	rootDN  string
	objects map[string]*object
	opens   int

	// FailOpen makes every Open fail with a connection error wrapping it.
	FailOpen error
	// FailMove makes every MoveTo fail with it.
	FailMove error
	// Identity overrides the WhoAmI result.
	Identity *ldapclient.WhoAmIResult
}

type object struct {
	entry    *ldapclient.Entry
	parent   string
	children []string
}

// NewDirectory creates a directory holding only the domain object rootDN.
func NewDirectory(rootDN string) *Directory {
	d := &Directory{rootDN: rootDN, objects: map[string]*object{}}
	d.objects[strings.ToLower(rootDN)] = &object{entry: &ldapclient.Entry{
		DN:            rootDN,
		Name:          ldapclient.RDNValue(rootDN),
		ObjectClasses: []string{"top", "domain", "domainDNS"},
		GUID:          uuid.NewString(),
	}}
	return d
}

// RootPath returns the serverless path of the domain object.
func (d *Directory) RootPath() string {
	return "LDAP://" + d.rootDN
}

// ProviderData wraps the directory with empty credentials.
func (d *Directory) ProviderData() *ldapclient.ProviderData {
	return ldapclient.NewProviderData(d, ldapclient.Credentials{}, d.RootPath())
}

// Add creates rdn below parentDN with the given object classes and returns
// its DN.
func (d *Directory) Add(parentDN, rdn string, classes ...string) string {
	d.mu.Lock()
	defer d.mu.Unlock()

	dn := rdn + "," + parentDN
	key := strings.ToLower(dn)
	parent, ok := d.objects[strings.ToLower(parentDN)]
	if !ok {
		panic(fmt.Sprintf("ldaptest: parent %s does not exist", parentDN))
	}

	d.objects[key] = &object{
		entry: &ldapclient.Entry{
			DN:            dn,
			Name:          ldapclient.RDNValue(dn),
			ObjectClasses: classes,
			GUID:          uuid.NewString(),
		},
		parent: strings.ToLower(parentDN),
	}
	parent.children = append(parent.children, key)
	return dn
}

func (d *Directory) AddOU(parentDN, name string) string {
	return d.Add(parentDN, "OU="+name, "top", "organizationalUnit")
}

func (d *Directory) AddContainer(parentDN, name string) string {
	return d.Add(parentDN, "CN="+name, "top", "container")
}

func (d *Directory) AddComputer(parentDN, name string) string {
	return d.Add(parentDN, "CN="+name, "top", "person", "organizationalPerson", "user", "computer")
}

// Entry returns the object at dn, or nil.
func (d *Directory) Entry(dn string) *ldapclient.Entry {
	d.mu.Lock()
	defer d.mu.Unlock()
	if obj, ok := d.objects[strings.ToLower(dn)]; ok {
		return obj.entry
	}
	return nil
}

// Opens returns the number of sessions opened so far.
func (d *Directory) Opens() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.opens
}

func (d *Directory) Open(_ context.Context, path ldapclient.DirectoryPath, _ ldapclient.Credentials) (ldapclient.Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.FailOpen != nil {
		return nil, ldapclient.NewConnectionError(path.String(), "failed to open directory connection", false, d.FailOpen)
	}
	key := strings.ToLower(path.DN)
	if _, ok := d.objects[key]; !ok {
		return nil, ldapclient.NewConnectionError(path.String(), "cannot bind to directory object", false, errors.New("no such object"))
	}
	d.opens++
	return &session{dir: d, path: path, key: key}, nil
}

type session struct {
	dir  *Directory
	path ldapclient.DirectoryPath
	key  string
}

func (s *session) Path() ldapclient.DirectoryPath { return s.path }

func (s *session) Entry(context.Context) (*ldapclient.Entry, error) {
	s.dir.mu.Lock()
	defer s.dir.mu.Unlock()
	return s.dir.objects[s.key].entry, nil
}

func (s *session) Children(context.Context) ([]*ldapclient.Entry, error) {
	s.dir.mu.Lock()
	defer s.dir.mu.Unlock()
	var entries []*ldapclient.Entry
	for _, child := range s.dir.objects[s.key].children {
		entries = append(entries, s.dir.objects[child].entry)
	}
	return entries, nil
}

func (s *session) HasDescendant(context.Context, string) (bool, error) {
	s.dir.mu.Lock()
	defer s.dir.mu.Unlock()
	var search func(key string) bool
	search = func(key string) bool {
		for _, child := range s.dir.objects[key].children {
			if ldapclient.Classify(s.dir.objects[child].entry) == ldapclient.KindComputer || search(child) {
				return true
			}
		}
		return false
	}
	return search(s.key), nil
}

func (s *session) MoveTo(_ context.Context, newParentDN string) (string, error) {
	s.dir.mu.Lock()
	defer s.dir.mu.Unlock()

	if s.dir.FailMove != nil {
		return "", s.dir.FailMove
	}
	newParent, ok := s.dir.objects[strings.ToLower(newParentDN)]
	if !ok {
		return "", fmt.Errorf("no such object: %s", newParentDN)
	}

	obj := s.dir.objects[s.key]
	oldParent := s.dir.objects[obj.parent]
	for i, child := range oldParent.children {
		if child == s.key {
			oldParent.children = append(oldParent.children[:i], oldParent.children[i+1:]...)
			break
		}
	}

	rdn, _, _ := strings.Cut(obj.entry.DN, ",")
	newDN := rdn + "," + newParent.entry.DN
	newKey := strings.ToLower(newDN)

	moved := *obj.entry
	moved.DN = newDN
	delete(s.dir.objects, s.key)
	s.dir.objects[newKey] = &object{entry: &moved, parent: strings.ToLower(newParentDN), children: obj.children}
	newParent.children = append(newParent.children, newKey)
	s.key = newKey

	return newDN, nil
}

func (s *session) FindByGUID(_ context.Context, guid string) (*ldapclient.Entry, error) {
	s.dir.mu.Lock()
	defer s.dir.mu.Unlock()
	for _, obj := range s.dir.objects {
		if strings.EqualFold(obj.entry.GUID, guid) {
			return obj.entry, nil
		}
	}
	return nil, nil
}

func (s *session) WhoAmI(context.Context) (*ldapclient.WhoAmIResult, error) {
	s.dir.mu.Lock()
	defer s.dir.mu.Unlock()
	if s.dir.Identity != nil {
		return s.dir.Identity, nil
	}
	return ldapclient.ParseAuthzID(DefaultIdentity), nil
}

func (s *session) Close() error { return nil }
