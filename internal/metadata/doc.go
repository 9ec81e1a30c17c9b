// Package metadata reads the two header fields the linker cares about from a
// single image file: an embedded SMPTE timecode and a frame rate.
//
// Readers never fail. A corrupt, truncated, or unsupported file reports both
// fields absent (the zero Info) and the caller decides whether that matters.
// The native reader understands OpenEXR and DPX headers; the ffprobe reader
// shells out to ffprobe for anything else ffmpeg can open.
package metadata
