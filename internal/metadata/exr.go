package metadata

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	exrMagic          = 0x01312f76
	exrMaxAttributes  = 1024
	exrMaxNameLength  = 256
	exrMaxValueLength = 1 << 20
)

var errNotEXR = errors.New("not an OpenEXR file")

// readEXR scans the first header of an OpenEXR file for the timeCode and
// framesPerSecond attributes.
func readEXR(r io.Reader) (Info, error) {
	br := bufio.NewReader(r)

	var preamble [8]byte
	if _, err := io.ReadFull(br, preamble[:]); err != nil {
		return Info{}, fmt.Errorf("read exr preamble: %w", err)
	}
	if binary.LittleEndian.Uint32(preamble[:4]) != exrMagic {
		return Info{}, errNotEXR
	}

	var info Info
	for i := 0; i < exrMaxAttributes; i++ {
		name, err := readCString(br, exrMaxNameLength)
		if err != nil {
			return Info{}, fmt.Errorf("read exr attribute name: %w", err)
		}
		if name == "" {
			return info, nil
		}
		typeName, err := readCString(br, exrMaxNameLength)
		if err != nil {
			return Info{}, fmt.Errorf("read exr attribute type: %w", err)
		}
		var size int32
		if err := binary.Read(br, binary.LittleEndian, &size); err != nil {
			return Info{}, fmt.Errorf("read exr attribute size: %w", err)
		}
		if size < 0 || size > exrMaxValueLength {
			return Info{}, fmt.Errorf("exr attribute %q: bad size %d", name, size)
		}
		value := make([]byte, size)
		if _, err := io.ReadFull(br, value); err != nil {
			return Info{}, fmt.Errorf("read exr attribute %q: %w", name, err)
		}

		switch {
		case name == "timeCode" && typeName == "timecode" && size >= 4:
			if tc, err := DecodeTimecode(binary.LittleEndian.Uint32(value[:4])); err == nil {
				info.Timecode = tc
			}
		case name == "framesPerSecond" && typeName == "rational" && size >= 8:
			num := int32(binary.LittleEndian.Uint32(value[:4]))
			den := binary.LittleEndian.Uint32(value[4:8])
			if num > 0 && den > 0 {
				info.FrameRate = float64(num) / float64(den)
			}
		}
	}
	return Info{}, fmt.Errorf("exr header: more than %d attributes", exrMaxAttributes)
}

func readCString(br *bufio.Reader, limit int) (string, error) {
	buf := make([]byte, 0, 32)
	for {
		b, err := br.ReadByte()
		if err != nil {
			return "", err
		}
		if b == 0 {
			return string(buf), nil
		}
		if len(buf) >= limit {
			return "", fmt.Errorf("string exceeds %d bytes", limit)
		}
		buf = append(buf, b)
	}
}

// exrAttribute is one header attribute written by WriteEXRHeader.
type exrAttribute struct {
	Name  string
	Type  string
	Value []byte
}

// WriteEXRHeader writes a minimal single-part OpenEXR header carrying the
// given timecode and rate. It is enough for header readers, not for decoders;
// fixtures and tooling use it to fake plates.
func WriteEXRHeader(w io.Writer, timecode string, fpsNum int32, fpsDen uint32) error {
	attrs := []exrAttribute{
		{Name: "compression", Type: "compression", Value: []byte{0}},
	}
	if timecode != "" {
		word, err := EncodeTimecode(timecode)
		if err != nil {
			return err
		}
		value := make([]byte, 8)
		binary.LittleEndian.PutUint32(value, word)
		attrs = append(attrs, exrAttribute{Name: "timeCode", Type: "timecode", Value: value})
	}
	if fpsNum > 0 && fpsDen > 0 {
		value := make([]byte, 8)
		binary.LittleEndian.PutUint32(value, uint32(fpsNum))
		binary.LittleEndian.PutUint32(value[4:], fpsDen)
		attrs = append(attrs, exrAttribute{Name: "framesPerSecond", Type: "rational", Value: value})
	}

	var header []byte
	header = binary.LittleEndian.AppendUint32(header, exrMagic)
	header = binary.LittleEndian.AppendUint32(header, 2)
	for _, attr := range attrs {
		header = append(header, attr.Name...)
		header = append(header, 0)
		header = append(header, attr.Type...)
		header = append(header, 0)
		header = binary.LittleEndian.AppendUint32(header, uint32(len(attr.Value)))
		header = append(header, attr.Value...)
	}
	header = append(header, 0)
	_, err := w.Write(header)
	return err
}
