package store

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var imageExt = map[string]string{
	"image/gif":  ".gif",
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
	"image/bmp":  ".bmp",
}

// SaveImage stores an uploaded post image under dir/posts and returns its
// path relative to dir. Content that does not sniff as an image is rejected
// with a ValidationError on the "image" field.
func SaveImage(dir string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", invalid("image", "the submitted file is empty")
	}
	ct := http.DetectContentType(data)
	ext, ok := imageExt[strings.SplitN(ct, ";", 2)[0]]
	if !ok {
		return "", invalid("image", "upload a valid image; the file you uploaded was either not an image or a corrupted image")
	}

	rel := filepath.ToSlash(filepath.Join("posts", uuid.New().String()+ext))
	full := filepath.Join(dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", errors.Wrap(err, "create media dir")
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", errors.Wrap(err, "write image")
	}
	return rel, nil
}
