package engine

import (
	"errors"
	"fmt"
	"strings"

	"tmplpress/internal/loader"
)

// ErrNoLoader is returned by every resolution operation when the
// environment has no loader attached.
var ErrNoLoader = errors.New("no loader configured for this environment")

// NoneFoundError reports that SelectTemplate exhausted its candidate
// list without resolving any of them. It names every attempted
// candidate so callers can see the full search.
type NoneFoundError struct {
	Names []string
}

func (e *NoneFoundError) Error() string {
	if len(e.Names) == 0 {
		return "tried to select from an empty list of templates"
	}
	return fmt.Sprintf("none of the templates given were found: %s", strings.Join(e.Names, ", "))
}

// IsNotFound reports whether err represents a missing template, either
// a single loader not-found or an aggregate from SelectTemplate.
func IsNotFound(err error) bool {
	if loader.IsNotFound(err) {
		return true
	}
	var none *NoneFoundError
	return errors.As(err, &none)
}
