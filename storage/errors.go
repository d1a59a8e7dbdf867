package storage

import (
	"errors"
	"fmt"
)

// ErrorKind classifies client failures. Validation kinds are raised before any
// network round-trip; KindNotFound can only be known after one.
type ErrorKind string

const (
	KindKeyRequired       ErrorKind = "key_required"
	KindKeyInvalid        ErrorKind = "key_invalid"
	KindSourceKeyRequired ErrorKind = "source_key_required"
	KindSourceKeyInvalid  ErrorKind = "source_key_invalid"
	KindDataRequired      ErrorKind = "data_required"
	KindDataInvalid       ErrorKind = "data_invalid"
	KindListRequired      ErrorKind = "list_required"
	KindListInvalid       ErrorKind = "list_invalid"
	KindItemRequired      ErrorKind = "item_required"
	KindItemInvalid       ErrorKind = "item_invalid"
	KindNotFound          ErrorKind = "not_found"
	KindDirectoryRequired ErrorKind = "directory_required"
	KindDirectoryInvalid  ErrorKind = "directory_invalid"
)

type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// IsKind reports whether err is a storage Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var se *Error
	return errors.As(err, &se) && se.Kind == kind
}

func IsNotFound(err error) bool {
	return IsKind(err, KindNotFound)
}

// ErrObjectNotExist is returned by Backend implementations when a key does not
// exist; the client maps it to KindNotFound.
var ErrObjectNotExist = errors.New("object does not exist")
