// Package authz exposes the read-only authorization state consulted by
// render-time predicates. The store itself lives outside this module; this
// package defines the queries a predicate may ask and a snapshot value that
// answers them.
package authz

import (
	"context"
	"net/http"
	"sort"
	"strings"
)

// User is the current user record.
type User struct {
	ID       string         `json:"id" yaml:"id"`
	FullName string         `json:"full_name" yaml:"full_name"`
	Email    string         `json:"email,omitempty" yaml:"email,omitempty"`
	Admin    bool           `json:"is_admin" yaml:"is_admin"`
	Locale   string         `json:"user_language,omitempty" yaml:"user_language,omitempty"`
	Attrs    map[string]any `json:"attrs,omitempty" yaml:"attrs,omitempty"`
}

// Store answers the authorization queries predicates are allowed to ask.
// Implementations must be safe to read concurrently and must not be mutated
// by predicates.
type Store interface {
	// User returns the current user ("user/user").
	User() User

	// Can reports whether the user holds permission, optionally scoped to
	// one entity id ("user/can").
	Can(permission string, scope ...string) bool

	// CanInAnyProject reports whether the user holds permission in at least
	// one scope ("user/canInAnyProject").
	CanInAnyProject(permission string) bool

	// Value returns auxiliary store data such as "companyData".
	Value(key string) (any, bool)
}

// Snapshot is an immutable Store built from explicit state.
type Snapshot struct {
	CurrentUser User

	// Global permissions apply regardless of scope.
	Global map[string]bool

	// Scoped maps permission -> scope id -> granted.
	Scoped map[string]map[string]bool

	// Data holds auxiliary values keyed by name.
	Data map[string]any
}

// Anonymous is a snapshot with no user and no permissions.
var Anonymous Store = Snapshot{}

// User returns the current user.
func (s Snapshot) User() User {
	return s.CurrentUser
}

// Can reports whether the permission is granted, globally or for scope.
func (s Snapshot) Can(permission string, scope ...string) bool {
	if s.CurrentUser.Admin || s.Global[permission] {
		return true
	}
	if len(scope) == 0 || scope[0] == "" {
		return false
	}
	return s.Scoped[permission][scope[0]]
}

// CanInAnyProject reports whether the permission is granted in any scope.
func (s Snapshot) CanInAnyProject(permission string) bool {
	if s.CurrentUser.Admin || s.Global[permission] {
		return true
	}
	for _, granted := range s.Scoped[permission] {
		if granted {
			return true
		}
	}
	return false
}

// Value returns auxiliary data.
func (s Snapshot) Value(key string) (any, bool) {
	v, ok := s.Data[key]
	return v, ok
}

// Permissions returns all globally granted permissions, sorted.
func (s Snapshot) Permissions() []string {
	var out []string
	for p, ok := range s.Global {
		if ok {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}

// Resolver builds the authorization state for one HTTP request.
type Resolver interface {
	Resolve(r *http.Request) Store
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(r *http.Request) Store

// Resolve calls f(r).
func (f ResolverFunc) Resolve(r *http.Request) Store {
	return f(r)
}

// Header names read by HeaderResolver.
const (
	HeaderUserID      = "X-User-Id"
	HeaderUserName    = "X-User-Name"
	HeaderAdmin       = "X-User-Admin"
	HeaderPermissions = "X-Permissions"
	HeaderLocale      = "Accept-Language"
)

// HeaderResolver reads identity from request headers set by an upstream
// authentication proxy. Permissions are a comma-separated list; an entry of
// the form "tasks/edit@42" grants the permission for scope 42 only.
type HeaderResolver struct {
	// Data is shared auxiliary data added to every snapshot.
	Data map[string]any
}

// Resolve builds a Snapshot from r's headers.
func (h HeaderResolver) Resolve(r *http.Request) Store {
	snap := Snapshot{
		CurrentUser: User{
			ID:       r.Header.Get(HeaderUserID),
			FullName: r.Header.Get(HeaderUserName),
			Admin:    r.Header.Get(HeaderAdmin) == "1" || strings.EqualFold(r.Header.Get(HeaderAdmin), "true"),
			Locale:   r.Header.Get(HeaderLocale),
		},
		Global: map[string]bool{},
		Scoped: map[string]map[string]bool{},
		Data:   h.Data,
	}

	for _, entry := range strings.Split(r.Header.Get(HeaderPermissions), ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		perm, scope, scoped := strings.Cut(entry, "@")
		if !scoped {
			snap.Global[perm] = true
			continue
		}
		if snap.Scoped[perm] == nil {
			snap.Scoped[perm] = map[string]bool{}
		}
		snap.Scoped[perm][scope] = true
	}
	return snap
}

type ctxKey struct{}

// WithStore attaches store to ctx.
func WithStore(ctx context.Context, store Store) context.Context {
	return context.WithValue(ctx, ctxKey{}, store)
}

// FromContext returns the store attached to ctx, or Anonymous.
func FromContext(ctx context.Context) Store {
	if s, ok := ctx.Value(ctxKey{}).(Store); ok && s != nil {
		return s
	}
	return Anonymous
}
