package domain

import "fmt"

// ErrHostUnreachable wraps any remote capability call that faulted. The
// caller excludes the host from the current round and moves on.
type ErrHostUnreachable struct {
	Addr string
	Err  error
}

func (e ErrHostUnreachable) Error() string {
	return fmt.Sprintf("host %s unreachable: %v", e.Addr, e.Err)
}

func (e ErrHostUnreachable) Unwrap() error {
	return e.Err
}

// ErrMigrationFault is returned when a migrate call fails for any reason.
// All failure categories are indistinguishable to the caller; every one
// triggers the same rollback.
type ErrMigrationFault struct {
	Addr string
	Err  error
}

func (e ErrMigrationFault) Error() string {
	return fmt.Sprintf("migrate to %s: %v", e.Addr, e.Err)
}

func (e ErrMigrationFault) Unwrap() error {
	return e.Err
}

// ErrNoSuchEntryPoint is reported by a host asked to resume an agent at
// an entry point it does not know.
type ErrNoSuchEntryPoint struct {
	Name string
}

func (e ErrNoSuchEntryPoint) Error() string {
	return fmt.Sprintf("no such entry point: %s", e.Name)
}

// ErrUnknownResident is reported by a host asked about an agent that is
// not resident there.
type ErrUnknownResident struct {
	ID string
}

func (e ErrUnknownResident) Error() string {
	return fmt.Sprintf("unknown resident: %s", e.ID)
}
