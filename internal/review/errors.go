package review

import (
	"fmt"

	"github.com/pkg/errors"
)

// Sentinel errors. Match with errors.Is.
var (
	ErrNotFound    = errors.New("review: item not found")
	ErrValidation  = errors.New("review: validation failed")
	ErrPersistence = errors.New("review: persistence failed")
)

func notFound(id string) error {
	return errors.Wrapf(ErrNotFound, "item %q", id)
}

func invalid(err error) error {
	return errors.Wrap(ErrValidation, err.Error())
}

func invalidf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrValidation, format, args...)
}

// PersistenceWarning reports a store failure. The in-memory state it
// refers to is already committed; only the saved copy is stale.
type PersistenceWarning struct {
	Key string
	Err error
}

func (w *PersistenceWarning) Error() string {
	return fmt.Sprintf("review: saving %s: %v", w.Key, w.Err)
}

func (w *PersistenceWarning) Unwrap() error { return w.Err }

func (w *PersistenceWarning) Is(target error) bool { return target == ErrPersistence }
