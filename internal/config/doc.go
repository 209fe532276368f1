// Package config loads, normalizes, and validates reelhouse configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// FFMPEG_PATH and OPENAI_API_KEY. The Config type centralizes every knob the
// daemon and CLI need so the queue database, frame output directory, and the
// tagging service credentials are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
