package agent

import (
	"context"
	"sync"
)

// tagState owns the tagged/moving flag pair. The host delivers tags from
// its own handler goroutine while the loop runs, so access is serialized
// here rather than relying on the loop's single thread.
type tagState struct {
	mu     sync.Mutex
	tagged bool
	moving bool
}

// SetTagged flips the tagged flag. Tagging is rejected while the agent is
// mid-migration: the mark would be lost with the instance. Untagging
// always succeeds. Reports whether the change was applied.
func (t *tagState) SetTagged(on bool) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if on && t.moving {
		return false
	}
	t.tagged = on
	return true
}

// Tagged reports whether the agent is currently "it".
func (t *tagState) Tagged() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tagged
}

// Moving reports whether the agent is between detach and migration
// outcome.
func (t *tagState) Moving() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.moving
}

func (t *tagState) setMoving(on bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.moving = on
}

// hunt is the action a tagged agent takes at the start of a cycle while
// co-located with other agents: ask the current host for its residents
// and try, in random order, to pass the mark to one of them. The first
// acceptance clears this agent's own tag; remote failures just move on to
// the next candidate. With fewer than two residents there is nobody to
// hunt.
func (a *Agent) hunt(ctx context.Context) {
	a.logger.Info("I am it, hunting", "agent", a.label, "jumps", a.jumpCount)

	ids, err := a.current.ResidentIDs(ctx)
	if err != nil {
		a.logger.Debug("resident list failed", "err", err)
		return
	}

	a.rng.Shuffle(len(ids), func(i, j int) {
		ids[i], ids[j] = ids[j], ids[i]
	})

	if len(ids) < 2 {
		return
	}
	for _, id := range ids {
		if id == a.id {
			continue
		}
		accepted, err := a.current.TagResident(ctx, id)
		if err != nil {
			a.logger.Debug("tag attempt failed", "target", id, "err", err)
			continue
		}
		if accepted {
			a.SetTagged(false)
			a.logger.Info("passed the tag", "agent", a.label, "target", id)
			break
		}
	}
}
