package agent

import (
	"context"
	"log/slog"
	"math"
	"math/rand"

	"github.com/roamnet/rover/internal/hostcap"
)

// chooseTarget scores the candidate hosts and picks a destination, or nil
// when no host answered at all.
//
// Every candidate is probed first; hosts that fail the probe are out of
// the round. Untagged agents additionally drop hosts that report
// themselves unsafe, remembering the last unsafe host as a fallback so a
// homeless agent is never stranded by the safety filter alone. Scores are
// the hosts' occupancy counts, with the current host credited one for the
// agent's own departure. Tagged agents chase the highest score (crowds
// mean prey); untagged agents flee to the lowest. Ties go to whichever
// host the shuffle put first, and the current host only loses to a
// strictly better score.
func chooseTarget(ctx context.Context, candidates []hostcap.Host, current hostcap.Host, tagged bool, rng *rand.Rand, logger *slog.Logger) hostcap.Host {
	scores := make(map[string]int)
	byAddr := make(map[string]hostcap.Host)
	responded := 0

	var unsafeFallback hostcap.Host

	for _, cand := range candidates {
		greeting, err := cand.Ping(ctx)
		if err != nil {
			logger.Debug("ping failed", "addr", cand.Addr(), "err", err)
			continue
		}
		logger.Debug("ping ok", "addr", cand.Addr(), "greeting", greeting)
		responded++

		if !tagged {
			safe, err := cand.IsSafe(ctx)
			if err != nil {
				logger.Debug("safety check failed", "addr", cand.Addr(), "err", err)
				continue
			}
			if !safe {
				unsafeFallback = cand
				continue
			}
		}

		occupancy, err := cand.NumResidents(ctx)
		if err != nil {
			logger.Debug("occupancy check failed", "addr", cand.Addr(), "err", err)
			continue
		}
		if hostcap.Same(cand, current) {
			occupancy-- // this agent leaves when it jumps
		}
		scores[cand.Addr()] = occupancy
		byAddr[cand.Addr()] = cand
	}

	if responded == 0 {
		return nil
	}
	if len(scores) == 0 {
		if current != nil {
			return current
		}
		return unsafeFallback
	}

	order := make([]string, 0, len(scores))
	for addr := range scores {
		order = append(order, addr)
	}
	rng.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})

	// Seed the running best with the current host when it is scorable,
	// so nothing replaces it without strictly beating its score.
	var best hostcap.Host
	var bestScore int
	if tagged {
		bestScore = -1
	} else {
		bestScore = math.MaxInt
	}
	if current != nil {
		if s, ok := scores[current.Addr()]; ok {
			best = current
			bestScore = s
		}
	}

	for _, addr := range order {
		s := scores[addr]
		if (tagged && s > bestScore) || (!tagged && s < bestScore) {
			best = byAddr[addr]
			bestScore = s
		}
	}
	return best
}
