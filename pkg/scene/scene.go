// Package scene holds the named, versioned sculptable objects of a
// session. The version counter implements the compare-and-swap contract
// that callers pipelining asynchronous mesh updates rely on: an update
// computed against a stale version is rejected instead of applied.
package scene

import (
	"fmt"
	"sort"
	"sync"

	"github.com/imacul/sculpt/pkg/mesh"
)

// Object is one sculptable mesh in the scene.
type Object struct {
	Name    string
	Mesh    *mesh.Mesh
	Version uint64
}

// Registry manages scene objects by name. Safe for concurrent use; note
// that the mesh buffers themselves are single-writer per stroke.
type Registry struct {
	mu      sync.Mutex
	objects map[string]*Object
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{objects: make(map[string]*Object)}
}

// Add registers a mesh under the given name at version 1. Re-adding an
// existing name is an error; use Swap to replace geometry.
func (r *Registry) Add(name string, m *mesh.Mesh) (*Object, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.objects[name]; exists {
		return nil, fmt.Errorf("scene: object %q already exists", name)
	}
	obj := &Object{Name: name, Mesh: m, Version: 1}
	r.objects[name] = obj
	return obj, nil
}

// Get returns the object with the given name, or nil.
func (r *Registry) Get(name string) *Object {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.objects[name]
}

// Remove deletes an object. Removing an absent name is a no-op.
func (r *Registry) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.objects, name)
}

// Swap installs a new mesh for name if the update was computed against the
// object's current version, bumping the version on success. A stale version
// leaves the object untouched and returns an error; the caller re-reads and
// recomputes.
func (r *Registry) Swap(name string, m *mesh.Mesh, computedAgainst uint64) (*Object, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	obj, ok := r.objects[name]
	if !ok {
		return nil, fmt.Errorf("scene: object %q not found", name)
	}
	if obj.Version != computedAgainst {
		return nil, fmt.Errorf("scene: stale update for %q: computed against version %d, current %d",
			name, computedAgainst, obj.Version)
	}
	obj.Mesh = m
	obj.Version++
	return obj, nil
}

// Names returns all object names in sorted order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.objects))
	for name := range r.objects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of objects.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.objects)
}
