package keys

import (
	"sort"
	"sync"

	"github.com/backkem/crownstone/pkg/crypto/rc5"
)

// Sphere is one installation a client is a member of.
type Sphere struct {
	// ID is the cloud identifier of the sphere.
	ID string

	// ShortID is the one byte identifier carried in broadcasts.
	ShortID uint8

	// Keys is the sphere's key material.
	Keys KeySet
}

type sphereEntry struct {
	sphere Sphere
	rc5    *rc5.ExpandedKey
}

// Store holds the key sets of every sphere, plus the expanded RC5 key of each
// sphere's localization key, computed on first use.
//
// Thread Safety: All methods are safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	spheres map[string]*sphereEntry
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{spheres: make(map[string]*sphereEntry)}
}

// Put adds or replaces a sphere. Replacing a sphere drops its cached RC5 key.
func (s *Store) Put(sphere Sphere) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spheres[sphere.ID] = &sphereEntry{sphere: sphere}
}

// Get returns a sphere by ID.
func (s *Store) Get(id string) (Sphere, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.spheres[id]
	if !ok {
		return Sphere{}, false
	}
	return e.sphere, true
}

// KeySet returns the key set of a sphere.
func (s *Store) KeySet(id string) (KeySet, error) {
	sphere, ok := s.Get(id)
	if !ok {
		return KeySet{}, ErrSphereNotFound
	}
	return sphere.Keys, nil
}

// Remove deletes a sphere.
//
// Returns ErrSphereNotFound if the sphere doesn't exist.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.spheres[id]; !ok {
		return ErrSphereNotFound
	}
	delete(s.spheres, id)
	return nil
}

// Spheres returns the IDs of all spheres in sorted order.
func (s *Store) Spheres() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.spheres))
	for id := range s.spheres {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of spheres.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.spheres)
}

// RC5Key returns the expanded RC5 key derived from the sphere's localization
// key. The expansion runs once per sphere and is cached.
//
// Returns ErrSphereNotFound or ErrNoKey.
func (s *Store) RC5Key(id string) (*rc5.ExpandedKey, error) {
	s.mu.RLock()
	e, ok := s.spheres[id]
	var cached *rc5.ExpandedKey
	if ok {
		cached = e.rc5
	}
	s.mu.RUnlock()

	if !ok {
		return nil, ErrSphereNotFound
	}
	if cached != nil {
		return cached, nil
	}

	key, ok := e.sphere.Keys.Localization()
	if !ok {
		return nil, ErrNoKey
	}
	expanded := rc5.ExpandKey(key)

	s.mu.Lock()
	defer s.mu.Unlock()
	// The sphere may have been replaced while expanding.
	if cur, ok := s.spheres[id]; ok && cur == e {
		if e.rc5 == nil {
			e.rc5 = expanded
		}
		return e.rc5, nil
	}
	return expanded, nil
}
