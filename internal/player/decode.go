package player

import (
	"fmt"
	"io"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/wav"
)

// Extensions the native backend decodes.
var nativeTypes = []string{"mp3", "flac", "wav", "ogg", "oga", "opus", "m4a", "mp4"}

// decode opens src with the decoder for ext. The returned streamer owns src.
func decode(ext string, src io.ReadSeekCloser) (beep.StreamSeekCloser, beep.Format, error) {
	switch ext {
	case "mp3":
		return decodeGoMP3(src)
	case "flac":
		// Some taggers prepend ID3v2 to FLAC files, which the decoder rejects.
		if err := skipID3v2(src); err != nil {
			return nil, beep.Format{}, fmt.Errorf("skip id3v2 tag: %w", err)
		}
		return flac.Decode(src)
	case "wav":
		return wav.Decode(src)
	case "ogg", "oga", "opus":
		return decodeOgg(src)
	case "m4a", "mp4":
		return decodeM4A(src)
	default:
		return nil, beep.Format{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

// skipID3v2 positions r after a leading ID3v2 tag, or at the start when
// there is none.
func skipID3v2(r io.ReadSeeker) error {
	var header [10]byte
	n, err := io.ReadFull(r, header[:])
	if err != nil && n < len(header) {
		_, serr := r.Seek(0, io.SeekStart)
		return serr
	}
	if string(header[0:3]) != "ID3" {
		_, err = r.Seek(0, io.SeekStart)
		return err
	}
	// Tag size is a syncsafe integer: 7 bits per byte.
	size := int64(header[6])<<21 | int64(header[7])<<14 | int64(header[8])<<7 | int64(header[9])
	_, err = r.Seek(10+size, io.SeekStart)
	return err
}
