// Package i18n holds the per-locale string tables contributed by modules.
//
// Tables are merged during bootstrap and frozen before serving. Keys are
// flattened to dotted paths ("projects.grid-title"). When two modules write
// the same key the last writer wins and the collision is reported.
package i18n

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ErrFrozen is returned by Add after Freeze.
var ErrFrozen = errors.New("localization store is frozen")

// Collision records a key written by more than one module.
type Collision struct {
	Locale   string
	Key      string
	Previous string
	Module   string
}

func (c Collision) String() string {
	return fmt.Sprintf("%s:%s (was %s, now %s)", c.Locale, c.Key, c.Previous, c.Module)
}

// Store is the localization store.
type Store struct {
	mu       sync.RWMutex
	tables   map[string]map[string]string
	owners   map[string]map[string]string
	frozen   bool
	fallback string
	matcher  language.Matcher
	tags     []string
	logger   zerolog.Logger
}

// New creates a store. fallback is used when a key is missing from the
// requested locale and when the requested locale matches nothing.
func New(logger zerolog.Logger, fallback string) *Store {
	if fallback == "" {
		fallback = "en"
	}
	return &Store{
		tables:   make(map[string]map[string]string),
		owners:   make(map[string]map[string]string),
		fallback: fallback,
		logger:   logger,
	}
}

// Add merges per-locale tables owned by module. Nested maps are flattened.
func (s *Store) Add(module string, data map[string]map[string]any) ([]Collision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.frozen {
		return nil, ErrFrozen
	}

	var collisions []Collision
	for _, locale := range sortedLocales(data) {
		flat := map[string]string{}
		flatten("", data[locale], flat)

		table, ok := s.tables[locale]
		if !ok {
			table = make(map[string]string)
			s.tables[locale] = table
			s.owners[locale] = make(map[string]string)
			s.matcher = nil
		}
		owners := s.owners[locale]

		for _, key := range sortedKeys(flat) {
			if prev, exists := owners[key]; exists && table[key] != flat[key] {
				c := Collision{Locale: locale, Key: key, Previous: prev, Module: module}
				collisions = append(collisions, c)
				s.logger.Warn().
					Str("locale", locale).
					Str("key", key).
					Str("previous", prev).
					Str("module", module).
					Msg("localization key overwritten")
			}
			table[key] = flat[key]
			owners[key] = module
		}
	}
	return collisions, nil
}

func flatten(prefix string, in map[string]any, out map[string]string) {
	for k, v := range in {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]any:
			flatten(key, val, out)
		case map[any]any:
			m := make(map[string]any, len(val))
			for mk, mv := range val {
				m[fmt.Sprint(mk)] = mv
			}
			flatten(key, m, out)
		case nil:
			out[key] = ""
		default:
			out[key] = fmt.Sprint(val)
		}
	}
}

// Freeze rejects further writes.
func (s *Store) Freeze() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frozen = true
	s.buildMatcher()
}

// Frozen reports whether Freeze was called.
func (s *Store) Frozen() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frozen
}

func (s *Store) buildMatcher() {
	s.tags = nil
	if _, ok := s.tables[s.fallback]; ok {
		s.tags = append(s.tags, s.fallback)
	}
	for _, l := range sortedLocales(s.tables) {
		if l != s.fallback {
			s.tags = append(s.tags, l)
		}
	}
	supported := make([]language.Tag, 0, len(s.tags))
	for _, l := range s.tags {
		supported = append(supported, language.Make(l))
	}
	s.matcher = language.NewMatcher(supported)
}

// Match returns the available locale best matching requested, which may be
// a locale code or an Accept-Language header value.
func (s *Store) Match(requested string) string {
	s.mu.Lock()
	if s.matcher == nil {
		s.buildMatcher()
	}
	matcher, tags := s.matcher, s.tags
	s.mu.Unlock()

	if len(tags) == 0 {
		return s.fallback
	}
	if _, ok := s.lookupTable(requested); ok {
		return requested
	}
	want, _, err := language.ParseAcceptLanguage(requested)
	if err != nil || len(want) == 0 {
		return s.fallback
	}
	_, idx, conf := matcher.Match(want...)
	if conf == language.No {
		return s.fallback
	}
	return tags[idx]
}

func (s *Store) lookupTable(locale string) (map[string]string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tables[locale]
	return t, ok
}

// Locales returns the available locale codes, sorted.
func (s *Store) Locales() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedLocales(s.tables)
}

// Table returns a copy of the flattened table for the locale matching
// requested, with fallback keys filled in.
func (s *Store) Table(requested string) (string, map[string]string) {
	locale := s.Match(requested)

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string)
	for k, v := range s.tables[s.fallback] {
		out[k] = v
	}
	for k, v := range s.tables[locale] {
		out[k] = v
	}
	return locale, out
}

// Owner returns the module that last wrote key in locale.
func (s *Store) Owner(locale, key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.owners[locale][key]
	return m, ok
}

// T translates key for locale, falling back to the fallback locale and then
// to the key itself.
func (s *Store) T(locale, key string) string {
	locale = s.Match(locale)

	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.tables[locale][key]; ok {
		return v
	}
	if v, ok := s.tables[s.fallback][key]; ok {
		return v
	}
	return key
}

// TC translates key with pluralization. Messages hold "one | many" or
// "zero | one | many" choices; "{count}" and "{n}" are replaced with n
// formatted for the locale.
func (s *Store) TC(locale, key string, n int) string {
	msg := s.T(locale, key)
	choices := strings.Split(msg, "|")
	for i := range choices {
		choices[i] = strings.TrimSpace(choices[i])
	}

	var out string
	switch len(choices) {
	case 1:
		out = choices[0]
	case 2:
		if n == 1 {
			out = choices[0]
		} else {
			out = choices[1]
		}
	default:
		switch {
		case n == 0:
			out = choices[0]
		case n == 1:
			out = choices[1]
		default:
			out = choices[2]
		}
	}

	count := message.NewPrinter(language.Make(s.Match(locale))).Sprintf("%d", n)
	out = strings.ReplaceAll(out, "{count}", count)
	return strings.ReplaceAll(out, "{n}", count)
}

func sortedLocales[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortedKeys(m map[string]string) []string {
	return sortedLocales(m)
}
