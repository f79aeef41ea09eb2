package services

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/recall/internal/core/domain"
)

// recordingIngest records calls made by the watcher.
type recordingIngest struct {
	mu         sync.Mutex
	ingests    int
	files      []string
	ingestErr  error
	fileErr    error
	fileResult domain.ImageOutcome
}

func (r *recordingIngest) Ingest(_ context.Context, opts domain.IngestOptions) (*domain.IngestReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ingests++
	if r.ingestErr != nil {
		return nil, r.ingestErr
	}
	return domain.NewIngestReport(opts.Directory), nil
}

func (r *recordingIngest) IngestFile(_ context.Context, path string, _ bool) (domain.IngestProgress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.files = append(r.files, path)
	outcome := r.fileResult
	if outcome == "" {
		outcome = domain.OutcomeProcessed
	}
	return domain.IngestProgress{Path: path, Outcome: outcome}, r.fileErr
}

func (r *recordingIngest) ingestCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ingests
}

func (r *recordingIngest) fileList() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.files...)
}

// startWatch runs Watch in the background and returns a stop function yielding its error.
func startWatch(
	t *testing.T, ingest *recordingIngest, changes chan domain.ImageChange, opts domain.WatchOptions,
) func() error {
	t.Helper()
	svc := NewWatchService(ingest, &dirSource{changes: changes}, nil)
	svc.SetSettle(20 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Watch(ctx, opts) }()

	return func() error {
		cancel()
		select {
		case err := <-done:
			return err
		case <-time.After(2 * time.Second):
			t.Fatal("watch did not stop")
			return nil
		}
	}
}

func TestWatchService_InitialIngestThenChanges(t *testing.T) {
	dir := photoDir(t, nil)
	ingest := &recordingIngest{}
	changes := make(chan domain.ImageChange, 10)

	var mu sync.Mutex
	var seen []domain.IngestProgress
	stop := startWatch(t, ingest, changes, domain.WatchOptions{
		Directory: dir,
		Progress: func(p domain.IngestProgress) {
			mu.Lock()
			seen = append(seen, p)
			mu.Unlock()
		},
	})

	require.Eventually(t, func() bool { return ingest.ingestCount() == 1 }, time.Second, 5*time.Millisecond)

	photo := filepath.Join(dir, "new.jpg")
	changes <- domain.ImageChange{Type: domain.ChangeCreated, Path: photo}
	changes <- domain.ImageChange{Type: domain.ChangeUpdated, Path: photo}
	changes <- domain.ImageChange{Type: domain.ChangeCreated, Path: filepath.Join(dir, "notes.txt")}
	changes <- domain.ImageChange{Type: domain.ChangeDeleted, Path: filepath.Join(dir, "gone.jpg")}

	require.Eventually(t, func() bool { return len(ingest.fileList()) == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, stop())

	// Bursts on one path collapse into a single pass
	assert.Equal(t, []string{photo}, ingest.fileList())
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 1)
	assert.Equal(t, photo, seen[0].Path)
}

func TestWatchService_OCRFailureKeepsWatching(t *testing.T) {
	dir := photoDir(t, nil)
	ingest := &recordingIngest{fileResult: domain.OutcomeFailed}
	changes := make(chan domain.ImageChange, 10)
	stop := startWatch(t, ingest, changes, domain.WatchOptions{Directory: dir})

	changes <- domain.ImageChange{Type: domain.ChangeCreated, Path: filepath.Join(dir, "a.jpg")}
	require.Eventually(t, func() bool { return len(ingest.fileList()) == 1 }, time.Second, 5*time.Millisecond)
	changes <- domain.ImageChange{Type: domain.ChangeCreated, Path: filepath.Join(dir, "b.jpg")}
	require.Eventually(t, func() bool { return len(ingest.fileList()) == 2 }, time.Second, 5*time.Millisecond)

	assert.NoError(t, stop())
}

func TestWatchService_StoreFailureStops(t *testing.T) {
	dir := photoDir(t, nil)
	ingest := &recordingIngest{fileErr: errors.Join(domain.ErrStoreWrite, errors.New("disk full"))}
	changes := make(chan domain.ImageChange, 1)

	svc := NewWatchService(ingest, &dirSource{changes: changes}, nil)
	svc.SetSettle(10 * time.Millisecond)
	changes <- domain.ImageChange{Type: domain.ChangeCreated, Path: filepath.Join(dir, "a.jpg")}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := svc.Watch(ctx, domain.WatchOptions{Directory: dir})
	assert.ErrorIs(t, err, domain.ErrStoreWrite)
}

func TestWatchService_InitialIngestError(t *testing.T) {
	dir := photoDir(t, nil)
	ingest := &recordingIngest{ingestErr: errors.Join(domain.ErrStoreWrite, errors.New("locked"))}
	svc := NewWatchService(ingest, &dirSource{changes: make(chan domain.ImageChange)}, nil)

	err := svc.Watch(context.Background(), domain.WatchOptions{Directory: dir})
	assert.ErrorIs(t, err, domain.ErrStoreWrite)
}

func TestWatchService_InvalidRescanSchedule(t *testing.T) {
	dir := photoDir(t, nil)
	svc := NewWatchService(&recordingIngest{}, &dirSource{changes: make(chan domain.ImageChange)}, nil)

	err := svc.Watch(context.Background(), domain.WatchOptions{Directory: dir, Rescan: "whenever"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestWatchService_PeriodicRescan(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for the rescan schedule")
	}
	dir := photoDir(t, nil)
	ingest := &recordingIngest{}
	stop := startWatch(t, ingest, make(chan domain.ImageChange), domain.WatchOptions{
		Directory: dir,
		Rescan:    "@every 1s",
	})

	require.Eventually(t, func() bool { return ingest.ingestCount() >= 2 }, 3*time.Second, 20*time.Millisecond)
	assert.NoError(t, stop())
}

func TestWatchService_ClosedChannelStops(t *testing.T) {
	dir := photoDir(t, nil)
	changes := make(chan domain.ImageChange)
	close(changes)
	svc := NewWatchService(&recordingIngest{}, &dirSource{changes: changes}, nil)

	assert.NoError(t, svc.Watch(context.Background(), domain.WatchOptions{Directory: dir}))
}

func TestWatchService_WatchUnsupported(t *testing.T) {
	dir := photoDir(t, nil)
	svc := NewWatchService(&recordingIngest{}, &dirSource{}, nil)

	err := svc.Watch(context.Background(), domain.WatchOptions{Directory: dir})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "watching")
}
