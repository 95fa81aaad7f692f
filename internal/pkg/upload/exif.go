package upload

import (
	"os"
	"time"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/mknote"
)

func init() {
	// Register Nikon and Canon maker notes
	exif.RegisterParsers(mknote.All...)
}

// ExtractTakenAt reads the capture timestamp from an image's EXIF
// block. Images without EXIF data return nil; this is never an error
// worth failing a report over.
func ExtractTakenAt(filePath string) *time.Time {
	f, err := os.Open(filePath)
	if err != nil {
		return nil
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return nil
	}

	taken, err := x.DateTime()
	if err != nil {
		return nil
	}
	return &taken
}
