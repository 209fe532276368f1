package ffmpeg_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reelhouse/internal/ffmpeg"
	"reelhouse/internal/testsupport"
)

func TestRunSuccess(t *testing.T) {
	stub := testsupport.WriteStubScript(t, t.TempDir(), "ffmpeg", 0)
	err := ffmpeg.NewRunner(0).Run(context.Background(), stub, []string{"-version"})
	assert.NoError(t, err)
}

func TestRunNonZeroExit(t *testing.T) {
	stub := testsupport.WriteStubScript(t, t.TempDir(), "ffmpeg", 3)
	err := ffmpeg.NewRunner(0).Run(context.Background(), stub, nil)
	require.Error(t, err)

	var toolErr *ffmpeg.ToolError
	require.True(t, errors.As(err, &toolErr))
	assert.Equal(t, ffmpeg.NonZeroExit, toolErr.Kind)
	assert.Equal(t, 3, toolErr.Code)
	assert.ErrorIs(t, err, ffmpeg.ErrNonZeroExit)
	assert.NotErrorIs(t, err, ffmpeg.ErrSpawnFailed)
}

func TestRunSpawnFailure(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "does-not-exist")
	err := ffmpeg.NewRunner(0).Run(context.Background(), missing, nil)
	require.Error(t, err)

	var toolErr *ffmpeg.ToolError
	require.True(t, errors.As(err, &toolErr))
	assert.Equal(t, ffmpeg.SpawnFailed, toolErr.Kind)
	assert.NotEmpty(t, toolErr.Message)
	assert.ErrorIs(t, err, ffmpeg.ErrSpawnFailed)

	assert.ErrorIs(t, ffmpeg.NewRunner(0).Run(context.Background(), "  ", nil), ffmpeg.ErrSpawnFailed)
}

func TestRunTimeoutKillsProcess(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "slow")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\nexec sleep 5\n"), 0o755))

	start := time.Now()
	err := ffmpeg.NewRunner(100*time.Millisecond).Run(context.Background(), script, nil)
	assert.ErrorIs(t, err, ffmpeg.ErrNonZeroExit)
	assert.Less(t, time.Since(start), 4*time.Second)
}

func TestRunPassesArgumentsVerbatim(t *testing.T) {
	dir := t.TempDir()
	record := filepath.Join(dir, "args.txt")
	script := filepath.Join(dir, "record")
	body := "#!/bin/sh\nprintf '%s\\n' \"$@\" > '" + record + "'\n"
	require.NoError(t, os.WriteFile(script, []byte(body), 0o755))

	tmpl := ffmpeg.MustParseTemplate(`-y -ss 1 -i {input} -vf "scale=320:-2" {output}`)
	args := tmpl.Expand("/media/my movie.mp4", "/out/1.jpg")
	require.NoError(t, ffmpeg.NewRunner(0).Run(context.Background(), script, args))

	data, err := os.ReadFile(record)
	require.NoError(t, err)
	got := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Equal(t, []string{"-y", "-ss", "1", "-i", "/media/my movie.mp4", "-vf", "scale=320:-2", "/out/1.jpg"}, got)
}

func TestParseTemplateErrors(t *testing.T) {
	_, err := ffmpeg.ParseTemplate("")
	assert.Error(t, err)
	_, err = ffmpeg.ParseTemplate(`-i "{input}`)
	assert.Error(t, err)
}

func TestOutputPaths(t *testing.T) {
	assert.Equal(t, filepath.Join("/media/trips", "thumbs", "movie.webp"), ffmpeg.ThumbnailPath("/media/trips/movie.mp4"))
	assert.Equal(t, filepath.Join("thumbs", "clip.final.webp"), ffmpeg.ThumbnailPath("clip.final.mov"))
	assert.Equal(t, filepath.Join("/seg/ai/conversions", "42.jpg"), ffmpeg.FramePath("/seg/ai/conversions", 42))

	target := filepath.Join(t.TempDir(), "a", "thumbs", "x.webp")
	require.NoError(t, ffmpeg.EnsureParent(target))
	require.NoError(t, ffmpeg.EnsureParent(target))
	info, err := os.Stat(filepath.Dir(target))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
