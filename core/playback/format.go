package playback

import "bytes"

// Format is an encoded audio container.
type Format string

const (
	FormatMP3     Format = "mp3"
	FormatVorbis  Format = "vorbis"
	FormatWAV     Format = "wav"
	FormatUnknown Format = "unknown"
)

// Sniff identifies the audio format from the leading bytes of data.
func Sniff(data []byte) Format {
	switch {
	case bytes.HasPrefix(data, []byte("OggS")):
		return FormatVorbis
	case len(data) >= 12 && bytes.Equal(data[0:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WAVE")):
		return FormatWAV
	case bytes.HasPrefix(data, []byte("ID3")):
		return FormatMP3
	case len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		// bare MPEG audio frame sync
		return FormatMP3
	}
	return FormatUnknown
}
