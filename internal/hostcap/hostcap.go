// Package hostcap defines the capability contract a roaming agent
// consumes from hosts, and its HTTP implementation. The agent core never
// depends on how a host is built, only on this interface.
package hostcap

import (
	"context"

	"github.com/google/uuid"

	"github.com/roamnet/rover/internal/domain"
)

// Host is the per-host capability surface. Every call is a remote
// operation that may block, time out, or fail independently; failures
// are reported as explicit errors and never panic.
type Host interface {
	// Addr is the stable identity of the host. Handles are compared by
	// address, never by client value.
	Addr() string

	// Ping is a liveness probe. The returned string is a greeting from
	// the host, useful only for diagnostics.
	Ping(ctx context.Context) (string, error)

	// IsSafe reports the host's safety classification.
	IsSafe(ctx context.Context) (bool, error)

	// NumResidents reports how many agents are currently resident.
	NumResidents(ctx context.Context) (int, error)

	// ResidentIDs lists the identities of all resident agents.
	ResidentIDs(ctx context.Context) ([]uuid.UUID, error)

	// AddResident registers an agent in the host's resident set.
	AddResident(ctx context.Context, snap domain.Snapshot) error

	// RemoveResident deletes an agent from the host's resident set.
	RemoveResident(ctx context.Context, id uuid.UUID) error

	// TagResident asks the host to mark a resident agent "it". It
	// reports whether the resident accepted the tag.
	TagResident(ctx context.Context, id uuid.UUID) (bool, error)

	// Migrate ships an agent snapshot to the host and asks it to resume
	// execution at the named entry point. On success the caller's
	// instance is finished; control has moved.
	Migrate(ctx context.Context, req domain.MigrateRequest) error
}

// Same reports whether two handles refer to the same host.
func Same(a, b Host) bool {
	return a != nil && b != nil && a.Addr() == b.Addr()
}
