package conversion_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reelhouse/internal/conversion"
	"reelhouse/internal/logging"
	"reelhouse/internal/queue"
	"reelhouse/internal/testsupport"
)

func fixedClock(unix int64) func() time.Time {
	return func() time.Time { return time.Unix(unix, 0) }
}

func TestRequestConversionInsertsPendingJob(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	intake := conversion.NewIntake(store, logging.NewNop(), conversion.WithClock(fixedClock(1_000)))
	ctx := context.Background()

	created, err := intake.RequestConversion(ctx, "/media/a.mp4", "thumbnail")
	require.NoError(t, err)
	assert.True(t, created)

	jobs, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	job := jobs[0]
	assert.Equal(t, "/media/a.mp4", job.SourceFilename)
	assert.Equal(t, "thumbnail", job.Operation)
	assert.Equal(t, queue.StatusPending, job.Status)
	assert.Equal(t, int64(1_000), job.TimeRequested)
	assert.Nil(t, job.TimeCompleted)
	assert.Equal(t, 1, job.TimesTried)
}

func TestRequestConversionDeduplicatesWithinWindow(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	testsupport.InsertJob(t, store, "/media/a.mp4", "thumbnail", 1_000)

	intake := conversion.NewIntake(store, logging.NewNop(), conversion.WithClock(fixedClock(1_010)))
	created, err := intake.RequestConversion(ctx, "/media/a.mp4", "thumbnail")
	require.NoError(t, err)
	assert.False(t, created)

	jobs, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, jobs, 1)
}

func TestRequestConversionDeduplicatesRunningJob(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	job := testsupport.InsertJob(t, store, "/media/a.mp4", "categorize", 1_000)
	require.NoError(t, store.MarkRunning(ctx, job.ID))

	intake := conversion.NewIntake(store, logging.NewNop(), conversion.WithClock(fixedClock(1_500)))
	created, err := intake.RequestConversion(ctx, "/media/a.mp4", "categorize")
	require.NoError(t, err)
	assert.False(t, created)
}

func TestRequestConversionWindowBoundary(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	testsupport.InsertJob(t, store, "/media/a.mp4", "thumbnail", 1_000)

	// age == window is already stale
	intake := conversion.NewIntake(store, logging.NewNop(), conversion.WithClock(fixedClock(1_000+3600)))
	created, err := intake.RequestConversion(ctx, "/media/a.mp4", "thumbnail")
	require.NoError(t, err)
	assert.True(t, created)
}

func TestRequestConversionSubSecondClockStaysInWindow(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	testsupport.InsertJob(t, store, "/media/a.mp4", "thumbnail", 1_000)

	clock := func() time.Time { return time.Unix(1_000+3599, int64(900*time.Millisecond)) }
	intake := conversion.NewIntake(store, logging.NewNop(), conversion.WithClock(clock))
	created, err := intake.RequestConversion(ctx, "/media/a.mp4", "thumbnail")
	require.NoError(t, err)
	assert.False(t, created)
}

func TestRequestConversionStaleActiveJobCreatesRetry(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	now := int64(100_000)
	stale := &queue.Job{
		SourceFilename: "/media/a.mp4",
		Operation:      "thumbnail",
		TimeRequested:  now - 4000,
		TimesTried:     2,
	}
	_, err := store.Insert(ctx, stale)
	require.NoError(t, err)

	intake := conversion.NewIntake(store, logging.NewNop(), conversion.WithClock(fixedClock(now)))
	created, err := intake.RequestConversion(ctx, "/media/a.mp4", "thumbnail")
	require.NoError(t, err)
	assert.True(t, created)

	jobs, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 2)

	assert.Equal(t, stale.ID, jobs[0].ID)
	assert.Equal(t, queue.StatusPending, jobs[0].Status)
	assert.Equal(t, 2, jobs[0].TimesTried)

	assert.Equal(t, now, jobs[1].TimeRequested)
	assert.Equal(t, 3, jobs[1].TimesTried)
	assert.Equal(t, queue.StatusPending, jobs[1].Status)
}

func TestRequestConversionIgnoresTerminalJobs(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	job := testsupport.InsertJob(t, store, "/media/a.mp4", "thumbnail", 1_000)
	require.NoError(t, store.UpdateStatus(ctx, job.ID, queue.StatusCompleted, time.Unix(1_001, 0)))

	intake := conversion.NewIntake(store, logging.NewNop(), conversion.WithClock(fixedClock(1_002)))
	created, err := intake.RequestConversion(ctx, "/media/a.mp4", "thumbnail")
	require.NoError(t, err)
	assert.True(t, created)

	jobs, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, 1, jobs[1].TimesTried)
}

func TestRequestConversionKeysOnOperation(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	intake := conversion.NewIntake(store, logging.NewNop(), conversion.WithClock(fixedClock(1_000)))

	for _, op := range []string{"thumbnail", "categorize"} {
		created, err := intake.RequestConversion(ctx, "/media/a.mp4", op)
		require.NoError(t, err)
		assert.True(t, created, op)
	}
}

func TestRequestConversionCanonicalizesOperation(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	intake := conversion.NewIntake(store, logging.NewNop(), conversion.WithClock(fixedClock(1_000)))

	created, err := intake.RequestConversion(ctx, " /media/a.mp4 ", " Thumbnail ")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = intake.RequestConversion(ctx, "/media/a.mp4", "thumbnail")
	require.NoError(t, err)
	assert.False(t, created)

	jobs, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "thumbnail", jobs[0].Operation)
	assert.Equal(t, "/media/a.mp4", jobs[0].SourceFilename)
}

func TestRequestConversionKeepsUnknownOperationVerbatim(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	intake := conversion.NewIntake(store, logging.NewNop())

	created, err := intake.RequestConversion(ctx, "/media/a.mp4", "Transcode")
	require.NoError(t, err)
	assert.True(t, created)

	jobs, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "Transcode", jobs[0].Operation)
}

func TestRequestConversionRejectsInvalidInput(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	intake := conversion.NewIntake(store, logging.NewNop())

	cases := map[string][2]string{
		"empty source":    {"", "thumbnail"},
		"blank source":    {"   ", "thumbnail"},
		"empty operation": {"/media/a.mp4", ""},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			created, err := intake.RequestConversion(context.Background(), tc[0], tc[1])
			assert.False(t, created)
			assert.True(t, errors.Is(err, conversion.ErrInvalidRequest), "got %v", err)
		})
	}

	jobs, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

type failingStore struct{ err error }

func (f failingStore) FindActive(context.Context, string, string) (*queue.Job, error) {
	return nil, f.err
}

func (f failingStore) Insert(context.Context, *queue.Job) (int64, error) {
	return 0, f.err
}

func TestRequestConversionPropagatesStoreErrors(t *testing.T) {
	boom := errors.New("database is locked")
	intake := conversion.NewIntake(failingStore{err: boom}, logging.NewNop())
	created, err := intake.RequestConversion(context.Background(), "/media/a.mp4", "thumbnail")
	assert.False(t, created)
	assert.ErrorIs(t, err, boom)
}
