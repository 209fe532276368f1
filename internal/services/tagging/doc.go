// Package tagging asks a remote vision model for descriptive tags and a short
// description of an image.
//
// TagImage performs exactly one chat completion request containing the system
// instruction and the image URL, unwraps the provider envelope, and decodes
// the model's JSON reply into a Result. Failures are reported as
// ErrRequestFailed (transport or HTTP status) or ErrMalformedResponse (the
// body or the model content does not match the expected shape). The client
// never retries; a failed attempt fails the calling job.
package tagging
