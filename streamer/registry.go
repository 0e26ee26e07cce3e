package streamer

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
)

// Class is a registered struct type.
type Class struct {
	Name string
	Type reflect.Type
	Info Info

	deps []*Class
}

// Closure returns the infos of c and every class nested in it, c first.
func (c *Class) Closure() []Info {
	var (
		infos []Info
		seen  = map[string]bool{}
		walk  func(*Class)
	)
	walk = func(k *Class) {
		if seen[k.Name] {
			return
		}
		seen[k.Name] = true
		infos = append(infos, k.Info)
		for _, d := range k.deps {
			walk(d)
		}
	}
	walk(c)
	return infos
}

// Verify checks c and its nested classes against infos read from a file.
func (c *Class) Verify(stored map[string]Info) error {
	for _, info := range c.Closure() {
		got, ok := stored[info.Class]
		if !ok {
			return fmt.Errorf("%w: class %q not described in file", ErrTypeMismatch, info.Class)
		}
		if got.Checksum != info.Checksum {
			return fmt.Errorf("%w: class %q: file has %s, registered %s", ErrTypeMismatch, info.Class, got, info)
		}
	}
	return nil
}

// Registry maps class names to Go types. It is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]*Class
	byType map[reflect.Type]*Class
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]*Class),
		byType: make(map[reflect.Type]*Class),
	}
}

// Default is the process-wide registry used when none is configured.
var Default = NewRegistry()

// Register registers a named struct type and its nested structs.
// v may be a reflect.Type, a value or a pointer to a value.
// Registering the same type again is a no-op.
func (r *Registry) Register(v any) (*Class, error) {
	t, ok := v.(reflect.Type)
	if !ok {
		t = reflect.TypeOf(v)
	}
	if t == nil {
		return nil, fmt.Errorf("%w: nil", ErrUnsupportedType)
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: class must be a struct, got %s", ErrUnsupportedType, t)
	}
	if err := Validate(t); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.register(t)
}

// Register registers T in r.
func Register[T any](r *Registry) (*Class, error) {
	return r.Register(reflect.TypeFor[T]())
}

func (r *Registry) register(t reflect.Type) (*Class, error) {
	if c, ok := r.byType[t]; ok {
		return c, nil
	}
	name := t.Name()
	if other, ok := r.byName[name]; ok {
		return nil, fmt.Errorf("%w: class %q already registered for %s", ErrTypeMismatch, name, other.Type)
	}

	c := &Class{Name: name, Type: t, Info: newInfo(t)}
	// Insert before walking members so self-referencing types terminate.
	r.byName[name] = c
	r.byType[t] = c

	for _, f := range fieldsOf(t) {
		for _, nt := range nestedStructs(f.typ) {
			dep, err := r.register(nt)
			if err != nil {
				delete(r.byName, name)
				delete(r.byType, t)
				return nil, err
			}
			c.deps = append(c.deps, dep)
		}
	}
	return c, nil
}

// Lookup returns the class registered under name.
func (r *Registry) Lookup(name string) (*Class, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byName[name]
	return c, ok
}

// LookupType returns the class registered for t (or *t).
func (r *Registry) LookupType(t reflect.Type) (*Class, bool) {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byType[t]
	return c, ok
}

// Require returns the class for t, or ErrMissingDictionary.
func (r *Registry) Require(t reflect.Type) (*Class, error) {
	c, ok := r.LookupType(t)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingDictionary, TypeName(t))
	}
	return c, nil
}

// Classes returns the registered class names in order.
func (r *Registry) Classes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
