package upload

import (
	"testing"
)

// Minimal valid file headers per format.
var (
	jpegHead = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F'}
	pngHead  = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}
	gifHead  = []byte("GIF89a")
)

func TestValidateImageBySniffAccepted(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		head []byte
	}{
		{"photo.jpg", jpegHead},
		{"photo.JPEG", jpegHead},
		{"photo.png", pngHead},
		{"photo.gif", gifHead},
	}

	for _, tc := range cases {
		if _, err := ValidateImageBySniff(tc.name, tc.head); err != nil {
			t.Fatalf("expected %s to be accepted, got %v", tc.name, err)
		}
	}
}

func TestValidateImageBySniffBadExtension(t *testing.T) {
	t.Parallel()

	if _, err := ValidateImageBySniff("photo.svg", pngHead); err == nil {
		t.Fatal("expected svg extension to be rejected")
	}
	if _, err := ValidateImageBySniff("report.pdf", jpegHead); err == nil {
		t.Fatal("expected pdf extension to be rejected")
	}
}

func TestValidateImageBySniffHTMLPayload(t *testing.T) {
	t.Parallel()

	if _, err := ValidateImageBySniff("photo.png", []byte("<html><body>hi</body></html>")); err == nil {
		t.Fatal("expected HTML content to be rejected")
	}
}

func TestValidateImageBySniffMismatchedContent(t *testing.T) {
	t.Parallel()

	if _, err := ValidateImageBySniff("photo.jpg", []byte("%PDF-1.4 ........")); err == nil {
		t.Fatal("expected PDF content behind a jpg extension to be rejected")
	}
}
