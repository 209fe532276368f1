package conversion

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"reelhouse/internal/config"
	"reelhouse/internal/ffmpeg"
	"reelhouse/internal/logging"
	"reelhouse/internal/queue"
	"reelhouse/internal/services/tagging"
	"reelhouse/internal/tags"
)

// ToolRunner executes the media tool.
type ToolRunner interface {
	Run(ctx context.Context, executable string, args []string) error
}

// Tagger describes an image by URL.
type Tagger interface {
	TagImage(ctx context.Context, imageURL string) (tagging.Result, error)
}

// TagStore records tags for a source file.
type TagStore interface {
	IsDuplicate(ctx context.Context, source, text, slug string) (bool, error)
	InsertTag(ctx context.Context, source, text, slug string) error
}

// DispatcherConfig carries the resolved settings the dispatcher needs.
type DispatcherConfig struct {
	FFmpegPath     string
	ThumbnailArgs  ffmpeg.Template
	CategorizeArgs ffmpeg.Template
	ConversionsDir string
	PublicBaseURL  string
}

// NewDispatcherConfig parses the argument templates from cfg and pairs them
// with an already resolved ffmpeg path.
func NewDispatcherConfig(cfg *config.Config, ffmpegPath string) (DispatcherConfig, error) {
	thumbnail, err := ffmpeg.ParseTemplate(cfg.Tools.ThumbnailArgs)
	if err != nil {
		return DispatcherConfig{}, fmt.Errorf("tools.thumbnail_args: %w", err)
	}
	categorize, err := ffmpeg.ParseTemplate(cfg.Tools.CategorizeArgs)
	if err != nil {
		return DispatcherConfig{}, fmt.Errorf("tools.categorize_args: %w", err)
	}
	return DispatcherConfig{
		FFmpegPath:     ffmpegPath,
		ThumbnailArgs:  thumbnail,
		CategorizeArgs: categorize,
		ConversionsDir: cfg.ConversionsDir(),
		PublicBaseURL:  cfg.Tagging.PublicBaseURL,
	}, nil
}

// Dispatcher maps a job's operation to its side effects.
type Dispatcher struct {
	cfg    DispatcherConfig
	runner ToolRunner
	tagger Tagger
	tags   TagStore
	logger *slog.Logger
}

// NewDispatcher constructs a Dispatcher.
func NewDispatcher(cfg DispatcherConfig, runner ToolRunner, tagger Tagger, tagStore TagStore, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		cfg:    cfg,
		runner: runner,
		tagger: tagger,
		tags:   tagStore,
		logger: logging.NewComponentLogger(logger, "dispatcher"),
	}
}

// Execute performs the job's operation. A nil return means the job should be
// marked Completed; any error means Failed. Unknown operations and the
// reserved Scaledown and MakeClip operations succeed without doing anything.
func (d *Dispatcher) Execute(ctx context.Context, job *queue.Job) error {
	logger := logging.WithContext(ctx, d.logger).With(
		logging.String(logging.FieldSource, job.SourceFilename),
		logging.String(logging.FieldOperation, job.Operation),
	)

	switch job.Kind() {
	case queue.OperationThumbnail:
		return d.thumbnail(ctx, logger, job)
	case queue.OperationCategorize:
		return d.categorize(ctx, logger, job)
	case queue.OperationScaledown, queue.OperationMakeClip:
		logger.Info("operation not implemented; completing without changes",
			logging.String(logging.FieldEventType, "operation_reserved"),
		)
		return nil
	default:
		logging.WarnWithContext(logger, "unrecognized operation; completing without changes", "operation_unknown",
			logging.String(logging.FieldErrorHint, "request one of thumbnail, scaledown, makeclip, categorize"),
			logging.String(logging.FieldImpact, "no output produced for this job"),
		)
		return nil
	}
}

func (d *Dispatcher) thumbnail(ctx context.Context, logger *slog.Logger, job *queue.Job) error {
	output := ffmpeg.ThumbnailPath(job.SourceFilename)
	if err := ffmpeg.EnsureParent(output); err != nil {
		return fmt.Errorf("thumbnail: %w", err)
	}
	args := d.cfg.ThumbnailArgs.Expand(job.SourceFilename, output)
	if err := d.runner.Run(ctx, d.cfg.FFmpegPath, args); err != nil {
		return fmt.Errorf("thumbnail: %w", err)
	}
	logger.Info("thumbnail written",
		logging.String("output", output),
		logging.String(logging.FieldEventType, "thumbnail_written"),
	)
	return nil
}

func (d *Dispatcher) categorize(ctx context.Context, logger *slog.Logger, job *queue.Job) error {
	frame := ffmpeg.FramePath(d.cfg.ConversionsDir, job.ID)
	if err := ffmpeg.EnsureParent(frame); err != nil {
		return fmt.Errorf("categorize: %w", err)
	}
	args := d.cfg.CategorizeArgs.Expand(job.SourceFilename, frame)
	if err := d.runner.Run(ctx, d.cfg.FFmpegPath, args); err != nil {
		return fmt.Errorf("categorize: extract frame: %w", err)
	}

	imageURL, err := FrameURL(d.cfg.PublicBaseURL, job.ID)
	if err != nil {
		return fmt.Errorf("categorize: %w", err)
	}
	result, err := d.tagger.TagImage(ctx, imageURL)
	if err != nil {
		return fmt.Errorf("categorize: tag frame: %w", err)
	}

	inserted, skipped := 0, 0
	for _, text := range result.Tags {
		text = strings.TrimSpace(text)
		slug := tags.Slug(text)
		if slug == "" {
			skipped++
			logger.Debug("tag has no usable characters; skipping", logging.String("tag", text))
			continue
		}
		dup, err := d.tags.IsDuplicate(ctx, job.SourceFilename, text, slug)
		if err != nil {
			return fmt.Errorf("categorize: %w", err)
		}
		if dup {
			skipped++
			continue
		}
		if err := d.tags.InsertTag(ctx, job.SourceFilename, text, slug); err != nil {
			return fmt.Errorf("categorize: %w", err)
		}
		inserted++
	}

	logger.Info("frame categorized",
		logging.String("frame", frame),
		logging.Int("tags_inserted", inserted),
		logging.Int("tags_skipped", skipped),
		logging.String("description", result.Description),
		logging.String(logging.FieldEventType, "frame_categorized"),
	)
	return nil
}

// FrameURL returns the public address the media server serves a categorize
// frame under.
func FrameURL(base string, jobID int64) (string, error) {
	out, err := url.JoinPath(base, "categorize", strconv.FormatInt(jobID, 10)+".jpg")
	if err != nil {
		return "", fmt.Errorf("build frame url: %w", err)
	}
	return out, nil
}
