package playback

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrNotWAVE is returned for data that is not a RIFF/WAVE file
var ErrNotWAVE = errors.New("not a RIFF/WAVE file")

// PCM is the decoded sample data of a WAVE file
type PCM struct {
	SampleRate    int
	Channels      int
	BitsPerSample int
	Data          []byte
}

// ParseWAV extracts the PCM samples from a WAVE file. Only integer PCM
// (format tag 1) is supported. A data chunk declared empty or running past
// the end of the input, as written by streaming servers, extends to the
// end of the input.
func ParseWAV(b []byte) (*PCM, error) {
	if len(b) < 12 || string(b[0:4]) != "RIFF" || string(b[8:12]) != "WAVE" {
		return nil, ErrNotWAVE
	}

	var pcm PCM
	haveFormat := false
	pos := 12
	for pos+8 <= len(b) {
		id := string(b[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(b[pos+4 : pos+8]))
		body := pos + 8
		end := body + size
		if end > len(b) || end < body {
			end = len(b)
		}

		switch id {
		case "fmt ":
			if end-body < 16 {
				return nil, fmt.Errorf("short fmt chunk: %d bytes", end-body)
			}
			if tag := binary.LittleEndian.Uint16(b[body:]); tag != 1 {
				return nil, fmt.Errorf("unsupported WAVE format tag %d", tag)
			}
			pcm.Channels = int(binary.LittleEndian.Uint16(b[body+2:]))
			pcm.SampleRate = int(binary.LittleEndian.Uint32(b[body+4:]))
			pcm.BitsPerSample = int(binary.LittleEndian.Uint16(b[body+14:]))
			haveFormat = true
		case "data":
			if !haveFormat {
				return nil, errors.New("data chunk before fmt chunk")
			}
			if size == 0 {
				end = len(b)
			}
			pcm.Data = b[body:end]
			return &pcm, nil
		}

		// Chunks are padded to an even size
		pos = end + end%2
	}

	if !haveFormat {
		return nil, errors.New("missing fmt chunk")
	}
	return nil, errors.New("missing data chunk")
}
