package upload

import (
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"github.com/bachesrosario/baches-api/internal/pkg/env"
)

const thumbnailWidth = 480

// Dir returns the directory uploaded images are written to.
func Dir() string {
	return env.GetEnv("UPLOAD_DIR", "./uploads")
}

// SaveImages validates and stores multipart image files under the
// upload directory with random filenames. It returns the public
// /uploads paths in the order the files were sent.
func SaveImages(files []*multipart.FileHeader) ([]string, error) {
	dir := Dir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	paths := make([]string, 0, len(files))
	for _, fh := range files {
		path, err := saveImage(fh, dir)
		if err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func saveImage(fh *multipart.FileHeader, dir string) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	head := make([]byte, 512)
	n, err := src.Read(head)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read uploaded file: %w", err)
	}
	if _, err := ValidateImageBySniff(fh.Filename, head[:n]); err != nil {
		return "", err
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", err
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	name := uuid.New().String() + ext
	target := filepath.Join(dir, name)

	dst, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("failed to store uploaded file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(target)
		return "", fmt.Errorf("failed to store uploaded file: %w", err)
	}

	// Thumbnail generation is best-effort; the original is what counts.
	if err := writeThumbnail(target, dir, name); err != nil {
		log.Printf("thumbnail generation failed for %s: %v", name, err)
	}

	return "/uploads/" + name, nil
}

func writeThumbnail(source, dir, name string) error {
	img, err := imaging.Open(source, imaging.AutoOrientation(true))
	if err != nil {
		return err
	}
	if img.Bounds().Dx() <= thumbnailWidth {
		return nil
	}
	thumb := imaging.Resize(img, thumbnailWidth, 0, imaging.Lanczos)
	return imaging.Save(thumb, filepath.Join(dir, "thumb_"+name))
}
