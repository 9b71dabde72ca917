// Package host is a reference implementation of the host environment
// roaming agents live in. It keeps an in-memory resident table, executes
// accepted migrations by resuming the shipped snapshot in a fresh
// goroutine, and forwards tag requests to the resident they name.
package host

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/roamnet/rover/internal/agent"
	"github.com/roamnet/rover/internal/domain"
	"github.com/roamnet/rover/internal/hostcap"
)

// Runner is a locally executing agent instance. Residents that merely
// re-registered here from elsewhere have no Runner and cannot be tagged.
type Runner interface {
	ID() uuid.UUID
	SetTagged(on bool) bool
	Run(ctx context.Context) error
}

type resident struct {
	snap   domain.Snapshot
	runner Runner
}

// Config describes one host.
type Config struct {
	Name string
	// PublicURL is the address other agents reach this host at; it is
	// what gets announced to the registry and written into snapshots.
	PublicURL string
	// Safe is the host's safety classification, reported verbatim to
	// probing agents.
	Safe bool
}

// Host is the engine behind the capability endpoints. Resident
// bookkeeping is mutex-guarded: add, remove and tag arrive concurrently
// from however many agents are talking to us.
type Host struct {
	id   string
	cfg  Config
	info domain.HostInfo

	mu        sync.Mutex
	residents map[uuid.UUID]*resident

	// resume turns an accepted snapshot into a runnable instance.
	// Swappable in tests.
	resume func(snap domain.Snapshot) (Runner, error)

	logger *slog.Logger
}

// New creates a host engine.
func New(cfg Config, logger *slog.Logger) *Host {
	h := &Host{
		id:        uuid.NewString(),
		cfg:       cfg,
		residents: make(map[uuid.UUID]*resident),
		logger:    logger,
	}
	h.info = domain.HostInfo{ID: h.id, Name: cfg.Name, Addr: cfg.PublicURL}
	h.resume = func(snap domain.Snapshot) (Runner, error) {
		self := hostcap.NewClient(h.info, logger)
		return agent.Resume(snap, self, logger)
	}
	return h
}

// Info returns the identity this host announces to the registry.
func (h *Host) Info() domain.HostInfo {
	return h.info
}

// Ping answers the liveness probe.
func (h *Host) Ping() string {
	return fmt.Sprintf("pong from %s", h.cfg.Name)
}

// Safe reports the host's safety classification.
func (h *Host) Safe() bool {
	return h.cfg.Safe
}

// NumResidents reports the current occupancy.
func (h *Host) NumResidents() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.residents)
}

// ResidentIDs lists the identities of all residents.
func (h *Host) ResidentIDs() []uuid.UUID {
	h.mu.Lock()
	defer h.mu.Unlock()
	ids := make([]uuid.UUID, 0, len(h.residents))
	for id := range h.residents {
		ids = append(ids, id)
	}
	return ids
}

// AddResident registers an agent that is not executing here, typically
// one re-attaching after a failed jump.
func (h *Host) AddResident(snap domain.Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.residents[snap.ID]; ok {
		return
	}
	h.residents[snap.ID] = &resident{snap: snap}
	h.logger.Debug("resident added", "id", snap.ID, "label", snap.Label)
}

// RemoveResident drops an agent from the resident set.
func (h *Host) RemoveResident(id uuid.UUID) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.residents[id]; !ok {
		return domain.ErrUnknownResident{ID: id.String()}
	}
	delete(h.residents, id)
	h.logger.Debug("resident removed", "id", id)
	return nil
}

// TagResident asks the named resident to become "it". Residents without
// a local runner cannot receive the mark and decline. Reports acceptance.
func (h *Host) TagResident(id uuid.UUID) (bool, error) {
	h.mu.Lock()
	r, ok := h.residents[id]
	h.mu.Unlock()
	if !ok {
		return false, domain.ErrUnknownResident{ID: id.String()}
	}
	if r.runner == nil {
		return false, nil
	}
	return r.runner.SetTagged(true), nil
}

// AcceptMigration validates and executes an inbound migration: the
// snapshot is resumed as a fresh instance at the named entry point,
// registered as a resident, and started. The new instance's current host
// is this one. Residents run detached from the request that delivered
// them; they live until they jump away or the process dies.
func (h *Host) AcceptMigration(req domain.MigrateRequest) error {
	if req.EntryPoint != domain.EntryPointLoop {
		return domain.ErrNoSuchEntryPoint{Name: req.EntryPoint}
	}

	snap := req.Snapshot
	snap.CurrentHostAddr = h.info.Addr

	runner, err := h.resume(snap)
	if err != nil {
		return fmt.Errorf("resume agent: %w", err)
	}

	h.mu.Lock()
	h.residents[snap.ID] = &resident{snap: snap, runner: runner}
	h.mu.Unlock()

	h.logger.Info("accepted migration", "id", snap.ID, "label", snap.Label, "jumps", snap.JumpCount)

	go func() {
		if err := runner.Run(context.Background()); err != nil {
			h.logger.Debug("resident stopped", "id", snap.ID, "err", err)
		}
		// The agent detaches itself before jumping away; this sweeps up
		// whatever is left when the detach was lost or the run aborted.
		h.mu.Lock()
		if cur, ok := h.residents[snap.ID]; ok && cur.runner == runner {
			delete(h.residents, snap.ID)
		}
		h.mu.Unlock()
	}()

	return nil
}
