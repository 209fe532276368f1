package conversion_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reelhouse/internal/conversion"
	"reelhouse/internal/ffmpeg"
	"reelhouse/internal/logging"
	"reelhouse/internal/queue"
	"reelhouse/internal/services/tagging"
	"reelhouse/internal/tags"
	"reelhouse/internal/testsupport"
)

type recordedCall struct {
	executable string
	args       []string
}

type fakeRunner struct {
	mu    sync.Mutex
	calls []recordedCall
	err   error
}

func (f *fakeRunner) Run(_ context.Context, executable string, args []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, recordedCall{executable: executable, args: append([]string(nil), args...)})
	return f.err
}

type fakeTagger struct {
	urls   []string
	result tagging.Result
	err    error
}

func (f *fakeTagger) TagImage(_ context.Context, imageURL string) (tagging.Result, error) {
	f.urls = append(f.urls, imageURL)
	return f.result, f.err
}

type dispatcherFixture struct {
	dispatcher *conversion.Dispatcher
	runner     *fakeRunner
	tagger     *fakeTagger
	tags       *tags.Store
	convDir    string
}

func newDispatcherFixture(t *testing.T) *dispatcherFixture {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	dcfg, err := conversion.NewDispatcherConfig(cfg, "/usr/bin/ffmpeg")
	require.NoError(t, err)

	fx := &dispatcherFixture{
		runner:  &fakeRunner{},
		tagger:  &fakeTagger{},
		tags:    tags.NewStore(store.DB()),
		convDir: cfg.ConversionsDir(),
	}
	fx.dispatcher = conversion.NewDispatcher(dcfg, fx.runner, fx.tagger, fx.tags, logging.NewNop())
	return fx
}

func job(id int64, source, op string) *queue.Job {
	return &queue.Job{ID: id, SourceFilename: source, Operation: op, Status: queue.StatusRunning, TimeRequested: 1_000, TimesTried: 1}
}

func TestExecuteThumbnailRunsToolWithDerivedOutput(t *testing.T) {
	fx := newDispatcherFixture(t)
	source := testsupport.WriteSource(t, filepath.Join(t.TempDir(), "v", "movie.mp4"))

	err := fx.dispatcher.Execute(context.Background(), job(1, source, "thumbnail"))
	require.NoError(t, err)

	require.Len(t, fx.runner.calls, 1)
	call := fx.runner.calls[0]
	assert.Equal(t, "/usr/bin/ffmpeg", call.executable)
	output := filepath.Join(filepath.Dir(source), "thumbs", "movie.webp")
	assert.Contains(t, call.args, source)
	assert.Equal(t, output, call.args[len(call.args)-1])

	info, err := os.Stat(filepath.Dir(output))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Empty(t, fx.tagger.urls)
}

func TestExecuteThumbnailToolFailure(t *testing.T) {
	fx := newDispatcherFixture(t)
	fx.runner.err = &ffmpeg.ToolError{Kind: ffmpeg.NonZeroExit, Executable: "/usr/bin/ffmpeg", Code: 1}
	source := testsupport.WriteSource(t, filepath.Join(t.TempDir(), "movie.mp4"))

	err := fx.dispatcher.Execute(context.Background(), job(1, source, "thumbnail"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ffmpeg.ErrNonZeroExit)
}

func TestExecuteCategorizeStoresNewTags(t *testing.T) {
	fx := newDispatcherFixture(t)
	fx.tagger.result = tagging.Result{
		Tags:        []string{"Beach", "Sunset", "beach", "  ", "日本"},
		Description: "Golden hour on the coast.",
	}
	source := "/media/trip/day1.mp4"
	ctx := context.Background()

	require.NoError(t, fx.dispatcher.Execute(ctx, job(7, source, "categorize")))

	require.Len(t, fx.runner.calls, 1)
	frame := filepath.Join(fx.convDir, "7.jpg")
	call := fx.runner.calls[0]
	assert.Equal(t, frame, call.args[len(call.args)-1])
	assert.Contains(t, call.args, source)

	assert.Equal(t, []string{"http://media.test/categorize/7.jpg"}, fx.tagger.urls)

	stored, err := fx.tags.ListBySource(ctx, source)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, "Beach", stored[0].Text)
	assert.Equal(t, "beach", stored[0].Slug)
	assert.Equal(t, "Sunset", stored[1].Text)
	assert.Equal(t, "sunset", stored[1].Slug)
}

func TestExecuteCategorizeIsIdempotentForTags(t *testing.T) {
	fx := newDispatcherFixture(t)
	fx.tagger.result = tagging.Result{Tags: []string{"Street Food", "market"}}
	source := "/media/trip/day2.mp4"
	ctx := context.Background()

	require.NoError(t, fx.dispatcher.Execute(ctx, job(1, source, "categorize")))
	fx.tagger.result = tagging.Result{Tags: []string{"street food", "Market", "night"}}
	require.NoError(t, fx.dispatcher.Execute(ctx, job(2, source, "categorize")))

	stored, err := fx.tags.ListBySource(ctx, source)
	require.NoError(t, err)
	slugs := make([]string, 0, len(stored))
	for _, tag := range stored {
		slugs = append(slugs, tag.Slug)
	}
	assert.ElementsMatch(t, []string{"street-food", "market", "night"}, slugs)
}

func TestExecuteCategorizeToolFailureSkipsTagging(t *testing.T) {
	fx := newDispatcherFixture(t)
	fx.runner.err = &ffmpeg.ToolError{Kind: ffmpeg.SpawnFailed, Executable: "/usr/bin/ffmpeg", Message: "no such file"}

	err := fx.dispatcher.Execute(context.Background(), job(3, "/media/a.mp4", "categorize"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ffmpeg.ErrSpawnFailed)
	assert.Empty(t, fx.tagger.urls)
}

func TestExecuteCategorizeTaggerFailure(t *testing.T) {
	fx := newDispatcherFixture(t)
	fx.tagger.err = tagging.ErrMalformedResponse
	ctx := context.Background()

	err := fx.dispatcher.Execute(ctx, job(4, "/media/a.mp4", "categorize"))
	require.Error(t, err)
	assert.ErrorIs(t, err, tagging.ErrMalformedResponse)

	stored, err := fx.tags.ListBySource(ctx, "/media/a.mp4")
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestExecuteReservedAndUnknownOperationsSucceedWithoutWork(t *testing.T) {
	for _, op := range []string{"scaledown", "makeclip", "transcode", "Thumbnails"} {
		t.Run(op, func(t *testing.T) {
			fx := newDispatcherFixture(t)
			require.NoError(t, fx.dispatcher.Execute(context.Background(), job(1, "/media/a.mp4", op)))
			assert.Empty(t, fx.runner.calls)
			assert.Empty(t, fx.tagger.urls)
		})
	}
}

func TestExecuteUsesCanonicalKindCaseInsensitively(t *testing.T) {
	fx := newDispatcherFixture(t)
	source := testsupport.WriteSource(t, filepath.Join(t.TempDir(), "clip.mkv"))
	require.NoError(t, fx.dispatcher.Execute(context.Background(), job(1, source, "THUMBNAIL")))
	assert.Len(t, fx.runner.calls, 1)
}

func TestFrameURL(t *testing.T) {
	cases := map[string]string{
		"http://media.test":          "http://media.test/categorize/12.jpg",
		"https://example.org/media/": "https://example.org/media/categorize/12.jpg",
	}
	for base, want := range cases {
		got, err := conversion.FrameURL(base, 12)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := conversion.FrameURL("://bad", 1)
	assert.Error(t, err)
}

func TestNewDispatcherConfigRejectsBadTemplate(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Tools.ThumbnailArgs = `-i "{input}`
	_, err := conversion.NewDispatcherConfig(cfg, "/usr/bin/ffmpeg")
	assert.Error(t, err)
	assert.False(t, errors.Is(err, conversion.ErrInvalidRequest))
}
