package store

import "errors"

var (
	// ErrNotFound is returned when a record id does not exist in its collection.
	ErrNotFound = errors.New("record not found")
	// ErrAnimalNotFound is returned when a health case or gestation targets an unknown animal.
	ErrAnimalNotFound = errors.New("animal not found")
	// ErrConflict is returned when another writer saved the document first. The mutation is discarded.
	ErrConflict = errors.New("document changed by another writer")
	// ErrTerminalStatus is returned when an operation would move a sold or deceased animal.
	ErrTerminalStatus = errors.New("animal is sold or deceased")
	// ErrCaseResolved is returned when a resolved health case is modified.
	ErrCaseResolved = errors.New("health case already resolved")
	// ErrGestationClosed is returned when a completed or failed gestation is modified.
	ErrGestationClosed = errors.New("gestation already closed")
	// ErrInvalidRecord is returned when a record breaks a field invariant.
	ErrInvalidRecord = errors.New("invalid record")
	// ErrHandleClosed is returned by operations on a closed handle.
	ErrHandleClosed = errors.New("store handle closed")
)

// errNoop aborts a mutation that would not change the document.
var errNoop = errors.New("no change")
