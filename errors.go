package tinyhsm

import "errors"

// Configuration errors, reported at registration time. A registry that
// returned one of these must not be used to build machines.
var (
	ErrReservedID     = errors.New("reserved state id")
	ErrNegativeID     = errors.New("negative state id")
	ErrDuplicateState = errors.New("duplicate state id")
	ErrUnknownParent  = errors.New("unknown parent state")
	ErrNilConstructor = errors.New("nil constructor")
	ErrFrozen         = errors.New("registry is frozen")
)

// Protocol-misuse errors, reported to the caller at run time. They indicate a
// bug in the calling state logic, not engine corruption, and are recoverable.
var (
	ErrUnknownState   = errors.New("unknown state")
	ErrAlreadyStarted = errors.New("machine already started")
	ErrNotDispatching = errors.New("transition requested outside event dispatch")
	ErrNoParent       = errors.New("active leaf has no parent")
	ErrTypeMismatch   = errors.New("parent state mismatch")
)
