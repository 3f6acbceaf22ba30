package mimetypes

import (
	"chat-sync/domain"
	"chat-sync/errors"
	"fmt"
	"mime"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

type MIME string

const (
	ApplicationPDF  MIME = "application/pdf"
	ApplicationZIP  MIME = "application/zip"
	ApplicationJSON MIME = "application/json"
	TextPlain       MIME = "text/plain"
	ImagePNG        MIME = "image/png"
	ImageJPEG       MIME = "image/jpeg"
	ImageGIF        MIME = "image/gif"
	AudioMPEG       MIME = "audio/mpeg"
	AudioWAV        MIME = "audio/wav"
	VideoMP4        MIME = "video/mp4"
)

// Classify normalises a declared attachment MIME type and maps it to the
// attachment kind shown by the chat. Types unknown to the detector are refused.
func Classify(declared string) (MIME, domain.AttachmentKind, error) {
	mt, _, err := mime.ParseMediaType(declared)
	if err != nil {
		return "", "", fmt.Errorf("%w: %q", errors.ErrUnsupportedMIME, declared)
	}
	known := mimetype.Lookup(mt)
	if known == nil {
		return "", "", fmt.Errorf("%w: %q", errors.ErrUnsupportedMIME, declared)
	}
	canonical := known.String()
	if i := strings.IndexByte(canonical, ';'); i >= 0 {
		canonical = canonical[:i]
	}
	return MIME(canonical), kindOf(canonical), nil
}

func kindOf(mt string) domain.AttachmentKind {
	switch {
	case strings.HasPrefix(mt, "image/"):
		return domain.AttachmentImage
	case strings.HasPrefix(mt, "audio/"):
		return domain.AttachmentAudio
	case strings.HasPrefix(mt, "video/"):
		return domain.AttachmentVideo
	default:
		return domain.AttachmentDocument
	}
}
