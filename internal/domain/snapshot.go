package domain

import (
	"time"

	"github.com/google/uuid"
)

// EntryPointLoop is the resumption point a host invokes after accepting
// a migrated agent. It is currently the only entry point agents request.
const EntryPointLoop = "loop"

// Snapshot is the full serializable state of a roaming agent. It is what
// physically moves between hosts: the source ships it with an entry point
// name, the destination decodes it and starts a fresh instance there.
//
// The agent identity is assigned once at creation and survives every
// relocation. Everything transient (discovery client, host handles) is
// reconstructed on arrival and deliberately absent here.
type Snapshot struct {
	ID        uuid.UUID `json:"id"`
	Label     string    `json:"label"`
	Tagged    bool      `json:"tagged"`
	JumpCount int       `json:"jump_count"`

	// CurrentHostAddr is the address of the host this snapshot was sent
	// to. The destination fills it in before resuming the agent.
	CurrentHostAddr string `json:"current_host_addr,omitempty"`

	RestraintSleep time.Duration `json:"restraint_sleep"`
	RetrySleep     time.Duration `json:"retry_sleep"`
	StayPeriod     time.Duration `json:"stay_period"`
	MaxResults     int           `json:"max_results"`
	Debug          bool          `json:"debug"`
	RegistryURL    string        `json:"registry_url"`
}

// HostInfo is the stable identity of a host as published in the registry.
// Two handles refer to the same host iff their addresses are equal;
// client objects are never compared.
type HostInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Addr string `json:"addr"`
}

// MigrateRequest is the wire form of a migration attempt.
type MigrateRequest struct {
	Snapshot   Snapshot `json:"snapshot"`
	EntryPoint string   `json:"entry_point"`
	Args       []string `json:"args,omitempty"`
}
