// Package registry implements the discovery service agents query to
// enumerate available hosts, plus the client hosts use to announce
// themselves into it.
package registry

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/roamnet/rover/internal/domain"
)

// DefaultTTL is how long an announcement stays live without a refresh.
const DefaultTTL = 60 * time.Second

type entry struct {
	info domain.HostInfo
	seen time.Time
}

// Table is the in-memory host table. Hosts re-announce on a ticker and
// age out after the TTL, so dead hosts disappear from discovery results
// on their own.
type Table struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]entry

	now    func() time.Time
	logger *slog.Logger
}

// NewTable creates a host table with the given announcement TTL.
func NewTable(ttl time.Duration, logger *slog.Logger) *Table {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Table{
		ttl:     ttl,
		entries: make(map[string]entry),
		now:     time.Now,
		logger:  logger,
	}
}

// Announce records or refreshes a host.
func (t *Table) Announce(info domain.HostInfo) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.entries[info.ID]; !ok {
		t.logger.Info("host announced", "id", info.ID, "name", info.Name, "addr", info.Addr)
	}
	t.entries[info.ID] = entry{info: info, seen: t.now()}
}

// Find returns up to max live hosts, name-ordered. The result may be
// empty; it is never an error.
func (t *Table) Find(max int) []domain.HostInfo {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := t.now().Add(-t.ttl)
	hosts := make([]domain.HostInfo, 0, len(t.entries))
	for id, e := range t.entries {
		if e.seen.Before(cutoff) {
			t.logger.Info("host expired", "id", id, "name", e.info.Name)
			delete(t.entries, id)
			continue
		}
		hosts = append(hosts, e.info)
	}

	sort.Slice(hosts, func(i, j int) bool {
		if hosts[i].Name != hosts[j].Name {
			return hosts[i].Name < hosts[j].Name
		}
		return hosts[i].ID < hosts[j].ID
	})

	if max < 0 {
		max = 0
	}
	if len(hosts) > max {
		hosts = hosts[:max]
	}
	return hosts
}
