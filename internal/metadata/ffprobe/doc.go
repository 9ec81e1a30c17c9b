// Package ffprobe runs ffprobe on a single file and exposes the embedded
// timecode and video frame rate from its JSON output.
//
// It has no seqlink-specific dependencies.
package ffprobe
