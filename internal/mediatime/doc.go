// Package mediatime provides the small time model the linker needs to talk
// about clip ranges: rate-scaled RationalTime values, half-open TimeRanges,
// and SMPTE timecode parsing/formatting (including 29.97/59.94 drop-frame).
//
// Type names follow editorial timeline tools (RationalTime, TimeRange).
package mediatime
