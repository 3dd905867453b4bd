package transfer

import (
	"errors"
	"fmt"
)

// ImportKind classifies why a structured import was rejected.
type ImportKind int

const (
	MalformedSyntax ImportKind = iota + 1
	WrongShape
	InvalidRecord
)

var (
	ErrMalformedSyntax = errors.New("malformed syntax")
	ErrWrongShape      = errors.New("expected an array of transactions")
	ErrInvalidRecord   = errors.New("invalid record")
)

func (k ImportKind) String() string {
	switch k {
	case MalformedSyntax:
		return "malformed_syntax"
	case WrongShape:
		return "wrong_shape"
	case InvalidRecord:
		return "invalid_record"
	default:
		return "unknown"
	}
}

func (k ImportKind) sentinel() error {
	switch k {
	case MalformedSyntax:
		return ErrMalformedSyntax
	case WrongShape:
		return ErrWrongShape
	case InvalidRecord:
		return ErrInvalidRecord
	default:
		return nil
	}
}

// ImportError rejects a whole import. Index is the position of the first bad
// element for InvalidRecord and -1 otherwise.
type ImportError struct {
	Kind  ImportKind
	Index int
	Err   error
}

func (e *ImportError) Error() string {
	msg := e.Kind.sentinel().Error()
	if e.Kind == InvalidRecord && e.Index >= 0 {
		msg = fmt.Sprintf("%s at index %d", msg, e.Index)
	}
	if e.Err != nil {
		return fmt.Sprintf("import: %s: %v", msg, e.Err)
	}
	return "import: " + msg
}

func (e *ImportError) Unwrap() error { return e.Err }

// Is matches the kind sentinels, so errors.Is(err, ErrWrongShape) works on a
// wrapped ImportError.
func (e *ImportError) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

// Message is the text shown to the user. Each kind reads differently.
func (e *ImportError) Message() string {
	switch e.Kind {
	case MalformedSyntax:
		return "The file is not valid JSON."
	case WrongShape:
		return "Invalid file format (expected an array of transactions)."
	case InvalidRecord:
		return fmt.Sprintf("Incomplete or malformed data (record %d).", e.Index+1)
	default:
		return "Import failed."
	}
}

func malformed(err error) *ImportError {
	return &ImportError{Kind: MalformedSyntax, Index: -1, Err: err}
}

func wrongShape(err error) *ImportError {
	return &ImportError{Kind: WrongShape, Index: -1, Err: err}
}

func invalidRecord(i int, err error) *ImportError {
	return &ImportError{Kind: InvalidRecord, Index: i, Err: err}
}
