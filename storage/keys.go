package storage

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Visibility drives the top-level key prefix and, for public, the bucket
// access policy.
type Visibility string

const (
	VisibilityPublic          Visibility = "public"
	VisibilityPrivate         Visibility = "private"
	VisibilityPendingDeletion Visibility = "pending-deletion"
)

// VisibilityForActive maps an image's active flag to its key prefix.
func VisibilityForActive(active bool) Visibility {
	if active {
		return VisibilityPublic
	}
	return VisibilityPrivate
}

var (
	// directory segments are [\w-]+; the final name segment may carry
	// dot-delimited extensions (thumbnails end in .thumbnail.jpeg).
	keyPattern       = regexp.MustCompile(`^[\w-]+(/[\w-]+)*/[\w-]+(\.[\w-]+)*$`)
	directoryPattern = regexp.MustCompile(`^[\w-]+(/[\w-]+)*/?$`)
)

// IsValidKey reports whether key matches the visibility/path/name grammar.
// Pure predicate; the client raises the corresponding errors.
func IsValidKey(key string) bool {
	return keyPattern.MatchString(key)
}

func isValidDirectory(directory string) bool {
	return directoryPattern.MatchString(directory)
}

// ResolveImageKey builds the canonical object key for a product image.
// The extension may be passed with or without a leading dot; an empty
// extension produces a bare key.
func ResolveImageKey(productID, imageID uuid.UUID, visibility Visibility, extension string) string {
	ext := normalizeExtension(extension)
	return fmt.Sprintf("%s/products/%s/images/%s%s", visibility, productID, imageID, ext)
}

// ResolveThumbnailKey builds the thumbnail key for a product image. Thumbnails
// are always emitted as JPEG regardless of the source extension.
func ResolveThumbnailKey(productID, imageID uuid.UUID, visibility Visibility) string {
	return fmt.Sprintf("%s/products/%s/images/%s.thumbnail.jpeg", visibility, productID, imageID)
}

func normalizeExtension(extension string) string {
	ext := strings.TrimPrefix(strings.TrimSpace(extension), ".")
	if ext == "" {
		return ""
	}
	return "." + ext
}

// GenerateUniqueKeySuffix returns a collision-resistant basename that keeps
// the original file's extension (empty when the name has none).
func GenerateUniqueKeySuffix(originalName string) string {
	return uuid.New().String() + filepath.Ext(originalName)
}
