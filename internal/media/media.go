package media

import (
	"github.com/gabriel-vasile/mimetype"
)

// DetectFile returns the MIME type of the file at path from its magic bytes.
// Unknown content is reported as application/octet-stream.
func DetectFile(path string) (string, error) {
	m, err := mimetype.DetectFile(path)
	if err != nil {
		return "", err
	}
	return m.String(), nil
}

// IsAudio reports whether mime is an audio type, or a container Telegram
// uses for audio (video/webm, video/mp4, audio-only ogg variants).
func IsAudio(mime string) bool {
	m := mimetype.Lookup(mime)
	if m == nil {
		return false
	}
	for ; m != nil; m = m.Parent() {
		switch m.String() {
		case "audio/ogg", "audio/mpeg", "audio/wav", "audio/flac", "audio/mp4", "audio/x-m4a",
			"audio/webm", "video/webm", "video/mp4", "audio/aac", "audio/opus":
			return true
		}
	}
	return false
}
