package agent

import (
	"context"

	"github.com/roamnet/rover/internal/domain"
	"github.com/roamnet/rover/internal/hostcap"
)

// attemptMigration executes one optimistic migration to target. The agent
// detaches from its current host first, points itself at the target, and
// then asks the target to resume it there. Reports whether control moved.
//
// On a remote fault of any kind the attempt is rolled back: the current
// host is restored, the moving flag cleared, and the agent re-registered
// where it was. There is no retry against the same target within a cycle;
// the loop simply runs discovery again.
func (a *Agent) attemptMigration(ctx context.Context, target hostcap.Host) bool {
	a.logger.Info("trying to jump", "agent", a.label, "jumps", a.jumpCount, "target", target.Addr())

	// Best-effort detach. A failure here leaves a stale resident entry
	// on the old host, which its own bookkeeping has to tolerate anyway.
	if a.current != nil {
		if err := a.current.RemoveResident(ctx, a.id); err != nil {
			a.logger.Debug("detach failed", "addr", a.current.Addr(), "err", err)
		}
	}

	a.previous = a.current
	a.current = target
	a.state.setMoving(true)

	snap := a.Snapshot()
	snap.CurrentHostAddr = target.Addr()

	err := target.Migrate(ctx, domain.MigrateRequest{
		Snapshot:   snap,
		EntryPoint: domain.EntryPointLoop,
	})
	if err == nil {
		// Control has moved; this instance is done.
		a.logger.Info("jumped", "agent", a.label, "jumps", a.jumpCount, "host", target.Addr())
		return true
	}

	a.current = a.previous
	a.state.setMoving(false)
	if a.current != nil {
		if err := a.current.AddResident(ctx, a.Snapshot()); err != nil {
			a.logger.Debug("re-register failed", "addr", a.current.Addr(), "err", err)
		}
	}
	a.logger.Debug("jump failed", "target", target.Addr(), "err", err)
	return false
}
