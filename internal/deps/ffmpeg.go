package deps

// FFmpegRequirement describes the media tool used for thumbnails and
// categorize frames. path is the resolved tool location, which may be a bare
// command name looked up on PATH.
func FFmpegRequirement(path string) Requirement {
	return Requirement{
		Name:        "FFmpeg",
		Command:     path,
		Description: "Required for thumbnails and categorize frames",
	}
}

// CheckFFmpeg reports whether the configured ffmpeg can be executed.
func CheckFFmpeg(path string) Status {
	return Check(FFmpegRequirement(path))
}
