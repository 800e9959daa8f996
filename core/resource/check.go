package resource

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
)

// contractMethods lists the methods every Service must expose.
var contractMethods = []string{"GetAll", "GetItem", "Save", "DeleteItem"}

// InvalidResourceServiceError is returned when a builder is constructed with
// a value that does not satisfy Service.
type InvalidResourceServiceError struct {
	Module  string
	Builder string
	Name    string
	Missing []string
}

// Error returns the error message.
func (e *InvalidResourceServiceError) Error() string {
	subject := "service"
	if e.Name != "" {
		subject = fmt.Sprintf("service %q", e.Name)
	}
	return fmt.Sprintf("module %q: %s builder: %s does not satisfy the resource contract (missing %s)",
		e.Module, e.Builder, subject, strings.Join(e.Missing, ", "))
}

// Check verifies that v satisfies Service and returns it typed. module and
// builder are only used for the error report.
func Check(module, builder string, v any) (Service, error) {
	if isNil(v) {
		return nil, &InvalidResourceServiceError{
			Module:  module,
			Builder: builder,
			Missing: append([]string(nil), contractMethods...),
		}
	}

	if svc, ok := v.(Service); ok {
		return svc, nil
	}

	t := reflect.TypeOf(v)
	var missing []string
	for _, name := range contractMethods {
		if _, ok := t.MethodByName(name); !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		// All names exist but with the wrong signatures.
		missing = append(missing, "matching signatures")
	}
	return nil, &InvalidResourceServiceError{Module: module, Builder: builder, Missing: missing}
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

// Registry maps service names to implementations so declarative manifests
// can refer to them by name.
type Registry struct {
	mu       sync.RWMutex
	services map[string]any
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{services: make(map[string]any)}
}

// Register adds a named service. The value is checked lazily, when a
// builder asks for it, so the error carries the consuming module's name.
func (r *Registry) Register(name string, svc any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.services[name]; exists {
		return fmt.Errorf("service %q already registered", name)
	}
	r.services[name] = svc
	return nil
}

// Resolve returns the named service checked against the contract.
func (r *Registry) Resolve(module, builder, name string) (Service, error) {
	r.mu.RLock()
	v := r.services[name]
	r.mu.RUnlock()

	svc, err := Check(module, builder, v)
	if invalid, ok := err.(*InvalidResourceServiceError); ok {
		invalid.Name = name
	}
	return svc, err
}

// Names returns registered service names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.services))
	for name := range r.services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NameOf returns the name svc was registered under, or "".
func (r *Registry) NameOf(svc any) string {
	if svc == nil || !reflect.TypeOf(svc).Comparable() {
		return ""
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	for name, v := range r.services {
		if v != nil && reflect.TypeOf(v).Comparable() && v == svc {
			return name
		}
	}
	return ""
}

// Get returns the raw value registered under name.
func (r *Registry) Get(name string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.services[name]
	return v, ok
}
