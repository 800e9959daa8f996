package schema

import "fmt"

// PredicateError describes a predicate that panicked during evaluation.
type PredicateError struct {
	Name  string
	Value any
}

func (e *PredicateError) Error() string {
	return fmt.Sprintf("predicate %q panicked: %v", e.Name, e.Value)
}

// Eval runs a render-time predicate. A nil predicate is true. A panicking
// predicate is treated as false and reported through the error.
func Eval(name string, fn func() bool) (ok bool, err error) {
	if fn == nil {
		return true, nil
	}
	defer func() {
		if r := recover(); r != nil {
			ok = false
			err = &PredicateError{Name: name, Value: r}
		}
	}()
	return fn(), nil
}
