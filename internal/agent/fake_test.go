package agent

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/roamnet/rover/internal/domain"
)

var errRemote = errors.New("remote fault")

// fakeHost is an in-memory stand-in for a remote host capability.
type fakeHost struct {
	mu sync.Mutex

	addr      string
	pingErr   error
	safe      bool
	safeErr   error
	occupancy int
	occErr    error

	residents []uuid.UUID

	tagAccept map[uuid.UUID]bool
	tagErr    map[uuid.UUID]error
	tagCalls  []uuid.UUID

	addCalls    []domain.Snapshot
	removeCalls []uuid.UUID

	migrateErr   error
	migrateCalls []domain.MigrateRequest
}

func newFakeHost(addr string, occupancy int) *fakeHost {
	return &fakeHost{
		addr:      addr,
		safe:      true,
		occupancy: occupancy,
		tagAccept: make(map[uuid.UUID]bool),
		tagErr:    make(map[uuid.UUID]error),
	}
}

func (f *fakeHost) Addr() string {
	return f.addr
}

func (f *fakeHost) Ping(ctx context.Context) (string, error) {
	if f.pingErr != nil {
		return "", f.pingErr
	}
	return "pong from " + f.addr, nil
}

func (f *fakeHost) IsSafe(ctx context.Context) (bool, error) {
	if f.safeErr != nil {
		return false, f.safeErr
	}
	return f.safe, nil
}

func (f *fakeHost) NumResidents(ctx context.Context) (int, error) {
	if f.occErr != nil {
		return 0, f.occErr
	}
	return f.occupancy, nil
}

func (f *fakeHost) ResidentIDs(ctx context.Context) ([]uuid.UUID, error) {
	return append([]uuid.UUID(nil), f.residents...), nil
}

func (f *fakeHost) AddResident(ctx context.Context, snap domain.Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addCalls = append(f.addCalls, snap)
	return nil
}

func (f *fakeHost) RemoveResident(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removeCalls = append(f.removeCalls, id)
	return nil
}

func (f *fakeHost) TagResident(ctx context.Context, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tagCalls = append(f.tagCalls, id)
	if err := f.tagErr[id]; err != nil {
		return false, err
	}
	return f.tagAccept[id], nil
}

func (f *fakeHost) Migrate(ctx context.Context, req domain.MigrateRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.migrateCalls = append(f.migrateCalls, req)
	if f.migrateErr != nil {
		return domain.ErrMigrationFault{Addr: f.addr, Err: f.migrateErr}
	}
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
