package agent

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roamnet/rover/internal/hostcap"
)

func choose(t *testing.T, candidates []hostcap.Host, current hostcap.Host, tagged bool, seed int64) hostcap.Host {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	return chooseTarget(context.Background(), candidates, current, tagged, rng, discardLogger())
}

func TestUntaggedPrefersLeastCrowdedHost(t *testing.T) {
	// Current host has occupancy 3 (adjusted 2), H2 has 1, H3 fails to
	// probe. The evader picks H2.
	h1 := newFakeHost("http://h1", 3)
	h2 := newFakeHost("http://h2", 1)
	h3 := newFakeHost("http://h3", 0)
	h3.pingErr = errRemote

	got := choose(t, []hostcap.Host{h1, h2, h3}, h1, false, 1)
	require.NotNil(t, got)
	assert.Equal(t, h2.Addr(), got.Addr())
}

func TestTaggedPrefersMostCrowdedHost(t *testing.T) {
	// Current host has occupancy 2 (adjusted 1), H2 has 5. The hunter
	// picks H2.
	h1 := newFakeHost("http://h1", 2)
	h2 := newFakeHost("http://h2", 5)

	got := choose(t, []hostcap.Host{h1, h2}, h1, true, 1)
	require.NotNil(t, got)
	assert.Equal(t, h2.Addr(), got.Addr())
}

func TestNoRespondersReturnsNone(t *testing.T) {
	h1 := newFakeHost("http://h1", 0)
	h2 := newFakeHost("http://h2", 0)
	h1.pingErr = errRemote
	h2.pingErr = errRemote

	assert.Nil(t, choose(t, []hostcap.Host{h1, h2}, nil, false, 1))
	assert.Nil(t, choose(t, []hostcap.Host{h1, h2}, nil, true, 1))
}

func TestCurrentHostScoreIsReducedByOne(t *testing.T) {
	// Current host reports 2 residents including self; the other host
	// reports 1. Adjusted scores tie at 1, and the current host seeds
	// the running best, so nothing replaces it.
	current := newFakeHost("http://current", 2)
	other := newFakeHost("http://other", 1)

	got := choose(t, []hostcap.Host{current, other}, current, false, 7)
	require.NotNil(t, got)
	assert.Equal(t, current.Addr(), got.Addr())
}

func TestUnsafeHostsAreFilteredWhenUntagged(t *testing.T) {
	safe := newFakeHost("http://safe", 9)
	unsafe := newFakeHost("http://unsafe", 0)
	unsafe.safe = false

	got := choose(t, []hostcap.Host{safe, unsafe}, nil, false, 1)
	require.NotNil(t, got)
	assert.Equal(t, safe.Addr(), got.Addr())
}

func TestUnsafeHostsAreScorableWhenTagged(t *testing.T) {
	quiet := newFakeHost("http://quiet", 1)
	unsafe := newFakeHost("http://unsafe", 4)
	unsafe.safe = false

	got := choose(t, []hostcap.Host{quiet, unsafe}, nil, true, 1)
	require.NotNil(t, got)
	assert.Equal(t, unsafe.Addr(), got.Addr())
}

func TestAllUnsafeFallsBackToCurrentHost(t *testing.T) {
	current := newFakeHost("http://current", 1)
	current.safe = false
	other := newFakeHost("http://other", 1)
	other.safe = false

	got := choose(t, []hostcap.Host{current, other}, current, false, 1)
	require.NotNil(t, got)
	assert.Equal(t, current.Addr(), got.Addr())
}

func TestAllUnsafeWithoutCurrentFallsBackToUnsafeHost(t *testing.T) {
	// The agent has no home and every responder is unsafe: rather than
	// stranding it, selection hands back the last unsafe host seen.
	first := newFakeHost("http://first", 1)
	first.safe = false
	last := newFakeHost("http://last", 1)
	last.safe = false

	got := choose(t, []hostcap.Host{first, last}, nil, false, 1)
	require.NotNil(t, got)
	assert.Equal(t, last.Addr(), got.Addr())
}

func TestTieBreakIsDeterministicForAFixedSeed(t *testing.T) {
	a := newFakeHost("http://a", 2)
	b := newFakeHost("http://b", 2)
	c := newFakeHost("http://c", 2)
	candidates := []hostcap.Host{a, b, c}

	first := choose(t, candidates, nil, false, 42)
	require.NotNil(t, first)
	assert.Contains(t, []string{a.Addr(), b.Addr(), c.Addr()}, first.Addr())

	again := choose(t, candidates, nil, false, 42)
	require.NotNil(t, again)
	assert.Equal(t, first.Addr(), again.Addr())
}

func TestSafetyCheckFaultExcludesHost(t *testing.T) {
	flaky := newFakeHost("http://flaky", 0)
	flaky.safeErr = errRemote
	steady := newFakeHost("http://steady", 3)

	got := choose(t, []hostcap.Host{flaky, steady}, nil, false, 1)
	require.NotNil(t, got)
	assert.Equal(t, steady.Addr(), got.Addr())
}

func TestOccupancyFaultExcludesHost(t *testing.T) {
	flaky := newFakeHost("http://flaky", 0)
	flaky.occErr = errRemote
	steady := newFakeHost("http://steady", 3)

	got := choose(t, []hostcap.Host{flaky, steady}, nil, true, 1)
	require.NotNil(t, got)
	assert.Equal(t, steady.Addr(), got.Addr())
}
