// Package agent implements the roaming tag-game agent: a single
// sequential control loop that discovers hosts through the registry,
// scores them, and relocates itself to a chosen one. A successful
// migration ends the local instance; the destination host resumes a
// fresh one from the shipped snapshot.
package agent

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/roamnet/rover/internal/config"
	"github.com/roamnet/rover/internal/discovery"
	"github.com/roamnet/rover/internal/domain"
	"github.com/roamnet/rover/internal/hostcap"
)

// Agent is one execution instance of a roaming agent. Its identity is
// minted once at creation and preserved across every relocation; the
// instance itself lives only until its first successful migration.
type Agent struct {
	id    uuid.UUID
	label string

	restraintSleep time.Duration
	retrySleep     time.Duration
	stayPeriod     time.Duration
	maxResults     int
	debug          bool
	registryURL    string

	jumpCount int

	state tagState

	current  hostcap.Host
	previous hostcap.Host

	disco  *discovery.Client
	dial   func(domain.HostInfo) hostcap.Host
	rng    *rand.Rand
	logger *slog.Logger
}

// New creates a first-generation agent from startup configuration. The
// discovery client is the only construction step that can fail, and a
// failure here aborts startup: an agent that cannot query the registry
// can never do anything.
func New(cfg *config.Config, logger *slog.Logger) (*Agent, error) {
	disco, err := discovery.New(cfg.RegistryURL, cfg.MaxResults, logger)
	if err != nil {
		return nil, err
	}

	a := &Agent{
		id:             uuid.New(),
		label:          cfg.Label,
		restraintSleep: cfg.RestraintSleep,
		retrySleep:     cfg.RetrySleep,
		stayPeriod:     cfg.StayPeriod,
		maxResults:     cfg.MaxResults,
		debug:          cfg.Debug,
		registryURL:    cfg.RegistryURL,
		disco:          disco,
		rng:            rand.New(rand.NewSource(time.Now().UnixNano())),
		logger:         logger,
	}
	a.dial = func(info domain.HostInfo) hostcap.Host {
		return hostcap.NewClient(info, logger)
	}
	a.state.tagged = cfg.StartTagged
	return a, nil
}

// Resume reconstructs an agent instance from a migrated snapshot, already
// resident at current. The discovery client is rebuilt from scratch: it
// holds live connection state and never travels in a snapshot.
func Resume(snap domain.Snapshot, current hostcap.Host, logger *slog.Logger) (*Agent, error) {
	disco, err := discovery.New(snap.RegistryURL, snap.MaxResults, logger)
	if err != nil {
		return nil, err
	}

	a := &Agent{
		id:             snap.ID,
		label:          snap.Label,
		restraintSleep: snap.RestraintSleep,
		retrySleep:     snap.RetrySleep,
		stayPeriod:     snap.StayPeriod,
		maxResults:     snap.MaxResults,
		debug:          snap.Debug,
		registryURL:    snap.RegistryURL,
		jumpCount:      snap.JumpCount,
		current:        current,
		disco:          disco,
		rng:            rand.New(rand.NewSource(time.Now().UnixNano())),
		logger:         logger,
	}
	a.dial = func(info domain.HostInfo) hostcap.Host {
		return hostcap.NewClient(info, logger)
	}
	a.state.tagged = snap.Tagged
	return a, nil
}

// ID returns the agent's permanent identity.
func (a *Agent) ID() uuid.UUID {
	return a.id
}

// Label returns the id string used in log messages.
func (a *Agent) Label() string {
	return a.label
}

// SetTagged forwards to the tag controller; a host calls this when
// another agent passes the mark here.
func (a *Agent) SetTagged(on bool) bool {
	ok := a.state.SetTagged(on)
	switch {
	case on && ok:
		a.logger.Info("I am tagged", "agent", a.label)
	case on && !ok:
		a.logger.Info("refused tag while moving", "agent", a.label)
	default:
		a.logger.Info("I am untagged", "agent", a.label)
	}
	return ok
}

// Tagged reports whether the agent is currently "it".
func (a *Agent) Tagged() bool {
	return a.state.Tagged()
}

// Snapshot captures the agent's serializable state for migration.
func (a *Agent) Snapshot() domain.Snapshot {
	return domain.Snapshot{
		ID:             a.id,
		Label:          a.label,
		Tagged:         a.state.Tagged(),
		JumpCount:      a.jumpCount,
		RestraintSleep: a.restraintSleep,
		RetrySleep:     a.retrySleep,
		StayPeriod:     a.stayPeriod,
		MaxResults:     a.maxResults,
		Debug:          a.debug,
		RegistryURL:    a.registryURL,
	}
}

// Run is the agent's control loop, and the entry point a destination host
// invokes after a migration. It returns nil when a migration succeeded
// and the instance is finished, or the context error if the process is
// shutting down. Nothing else gets out: every remote fault is absorbed
// into a branch decision.
func (a *Agent) Run(ctx context.Context) error {
	a.state.setMoving(false)
	a.jumpCount++

	if a.jumpCount > 1 {
		a.logger.Info("arrived at new host", "agent", a.label, "jumps", a.jumpCount, "host", a.current.Addr())
	}

	for {
		if a.state.Tagged() && a.current != nil {
			a.hunt(ctx)
		}

		a.logger.Debug("entering restraint sleep", "agent", a.label, "jumps", a.jumpCount)
		if err := snooze(ctx, a.restraintSleep); err != nil {
			return err
		}

		hosts, err := a.disco.WaitForHosts(ctx, a.retrySleep)
		if err != nil {
			return err
		}
		a.logger.Debug("found hosts", "count", len(hosts))

		candidates := make([]hostcap.Host, 0, len(hosts))
		for _, info := range hosts {
			candidates = append(candidates, a.dial(info))
		}

		target := chooseTarget(ctx, candidates, a.current, a.state.Tagged(), a.rng, a.logger)

		switch {
		case target == nil:
			a.logger.Info("all hosts failed", "agent", a.label, "jumps", a.jumpCount)

		case hostcap.Same(target, a.current):
			a.logger.Debug("staying at current host", "agent", a.label)
			if err := snooze(ctx, a.stayPeriod); err != nil {
				return err
			}

		case a.state.Tagged() && a.current != nil && a.stalling(ctx):
			// Tagged with company at home: hold position and try the
			// hunt again next cycle instead of leaving.
			if err := snooze(ctx, a.restraintSleep); err != nil {
				return err
			}

		default:
			if a.attemptMigration(ctx, target) {
				return nil
			}
		}

		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

// stalling reports whether the current host has more residents than just
// this agent. A fault counts as stalling: the cycle is abandoned and the
// loop tries again after a sleep.
func (a *Agent) stalling(ctx context.Context) bool {
	occupancy, err := a.current.NumResidents(ctx)
	if err != nil {
		a.logger.Debug("occupancy check failed", "addr", a.current.Addr(), "err", err)
		return true
	}
	if occupancy > 1 {
		a.logger.Debug("deferring jump, other agents present", "occupancy", occupancy)
		return true
	}
	return false
}

func snooze(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
