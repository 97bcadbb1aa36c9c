package storage

import (
	"path"
	"strings"

	"github.com/google/uuid"
)

// imageTypes are the content types accepted for product images.
var imageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ImageExtension returns the file extension for an accepted image content
// type, or false when the type is not allowed.
func ImageExtension(contentType string) (string, bool) {
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	ext, ok := imageTypes[ct]
	return ext, ok
}

// ProductImageKey builds a collision-free object key under products/.
func ProductImageKey(ext string) string {
	return path.Join("products", uuid.NewString()+ext)
}
