// Package ffmpeg runs the external media tool for conversion jobs.
//
// Runner spawns the configured executable with its standard streams attached
// to the null device and reports only whether it exited cleanly. Argument
// lists come from shell-like templates with {input} and {output}
// placeholders, and the helpers in paths.go compute where each operation
// writes its result. Nothing here retries or reads tool output; deciding what
// a failure means is the caller's job.
package ffmpeg
