package host

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roamnet/rover/internal/domain"
	"github.com/roamnet/rover/internal/hostcap"
)

// newCapabilityClient serves a host over httptest and returns a real
// capability client pointed at it, exercising both sides of the wire.
func newCapabilityClient(t *testing.T, h *Host) *hostcap.Client {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewHandler(h).RegisterRoutes(router)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return hostcap.NewClient(domain.HostInfo{
		ID:   h.Info().ID,
		Name: h.Info().Name,
		Addr: srv.URL,
	}, discardLogger())
}

func TestCapabilityRoundTrip(t *testing.T) {
	ctx := context.Background()
	h, runners := newTestHost(t)
	client := newCapabilityClient(t, h)

	greeting, err := client.Ping(ctx)
	require.NoError(t, err)
	assert.Equal(t, "pong from test-host", greeting)

	safe, err := client.IsSafe(ctx)
	require.NoError(t, err)
	assert.True(t, safe)

	id := uuid.New()
	require.NoError(t, client.AddResident(ctx, snapshotFor(id)))

	count, err := client.NumResidents(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	ids, err := client.ResidentIDs(ctx)
	require.NoError(t, err)
	assert.Contains(t, ids, id)

	// Snapshot-only residents decline the tag.
	accepted, err := client.TagResident(ctx, id)
	require.NoError(t, err)
	assert.False(t, accepted)

	require.NoError(t, client.RemoveResident(ctx, id))
	count, err = client.NumResidents(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	// Migration over the wire lands a running resident that accepts.
	migrated := uuid.New()
	require.NoError(t, client.Migrate(ctx, domain.MigrateRequest{
		Snapshot:   snapshotFor(migrated),
		EntryPoint: domain.EntryPointLoop,
	}))

	accepted, err = client.TagResident(ctx, migrated)
	require.NoError(t, err)
	assert.True(t, accepted)
	assert.True(t, runners[migrated].Tagged())
}

func TestMigrateUnknownEntryPointFaults(t *testing.T) {
	ctx := context.Background()
	h, _ := newTestHost(t)
	client := newCapabilityClient(t, h)

	err := client.Migrate(ctx, domain.MigrateRequest{
		Snapshot:   snapshotFor(uuid.New()),
		EntryPoint: "bogus",
	})
	var fault domain.ErrMigrationFault
	require.ErrorAs(t, err, &fault)
	assert.Zero(t, h.NumResidents())
}

func TestRemoveUnknownResidentFaultsOverTheWire(t *testing.T) {
	ctx := context.Background()
	h, _ := newTestHost(t)
	client := newCapabilityClient(t, h)

	err := client.RemoveResident(ctx, uuid.New())
	assert.Error(t, err)
}
