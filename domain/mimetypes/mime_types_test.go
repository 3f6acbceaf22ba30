package mimetypes

import (
	"chat-sync/domain"
	"chat-sync/errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		declared string
		wantMIME MIME
		wantKind domain.AttachmentKind
		wantErr  bool
	}{
		{"PNG", "image/png", ImagePNG, domain.AttachmentImage, false},
		{"JPEG", "image/jpeg", ImageJPEG, domain.AttachmentImage, false},
		{"MP3", "audio/mpeg", AudioMPEG, domain.AttachmentAudio, false},
		{"MP4", "video/mp4", VideoMP4, domain.AttachmentVideo, false},
		{"PDF", "application/pdf", ApplicationPDF, domain.AttachmentDocument, false},
		{"Plain text with charset", "text/plain; charset=utf-8", TextPlain, domain.AttachmentDocument, false},
		{"Unknown type", "application/x-not-a-real-type", "", "", true},
		{"Invalid MIME", "not a mime", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			got, kind, err := Classify(tt.declared)
			if tt.wantErr {
				req.ErrorIs(err, errors.ErrUnsupportedMIME)
				return
			}
			req.NoError(err)
			req.Equal(tt.wantMIME, got)
			req.Equal(tt.wantKind, kind)
		})
	}
}
