package metadata

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

const (
	dpxHeaderSize        = 2048
	dpxFilmRateOffset    = 1724
	dpxTimecodeOffset    = 1920
	dpxTVRateOffset      = 1940
	dpxMagicBigEndian    = "SDPX"
	dpxMagicLittleEndian = "XPDS"
)

var errNotDPX = errors.New("not a DPX file")

// readDPX reads the film and television headers of a DPX file. The film
// header frame rate wins; the television header rate is the fallback.
func readDPX(r io.Reader) (Info, error) {
	header := make([]byte, dpxHeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return Info{}, fmt.Errorf("read dpx header: %w", err)
	}

	var order binary.ByteOrder
	switch string(header[:4]) {
	case dpxMagicBigEndian:
		order = binary.BigEndian
	case dpxMagicLittleEndian:
		order = binary.LittleEndian
	default:
		return Info{}, errNotDPX
	}

	var info Info
	for _, offset := range []int{dpxFilmRateOffset, dpxTVRateOffset} {
		rate := float64(math.Float32frombits(order.Uint32(header[offset:])))
		if !math.IsNaN(rate) && !math.IsInf(rate, 0) && rate > 0 {
			info.FrameRate = rate
			break
		}
	}
	// Writers that zero the header instead of filling it with the undefined
	// pattern leave a zero timecode word; without a rate it is treated as unset.
	word := order.Uint32(header[dpxTimecodeOffset:])
	if word == 0 && info.FrameRate == 0 {
		return info, nil
	}
	if tc, err := DecodeTimecode(word); err == nil {
		info.Timecode = tc
	}
	return info, nil
}

// WriteDPXHeader writes a zeroed DPX header with the timecode and film frame
// rate fields populated. Empty timecode and zero rate are written as the
// DPX "undefined" pattern.
func WriteDPXHeader(w io.Writer, order binary.ByteOrder, timecode string, rate float32) error {
	header := make([]byte, dpxHeaderSize)
	if order == binary.LittleEndian {
		copy(header, dpxMagicLittleEndian)
	} else {
		order = binary.BigEndian
		copy(header, dpxMagicBigEndian)
	}
	word := uint32(0xFFFFFFFF)
	if timecode != "" {
		packed, err := EncodeTimecode(timecode)
		if err != nil {
			return err
		}
		word = packed
	}
	order.PutUint32(header[dpxTimecodeOffset:], word)
	rateBits := uint32(0xFFFFFFFF)
	if rate > 0 {
		rateBits = math.Float32bits(rate)
	}
	order.PutUint32(header[dpxFilmRateOffset:], rateBits)
	order.PutUint32(header[dpxTVRateOffset:], 0xFFFFFFFF)
	_, err := w.Write(header)
	return err
}
