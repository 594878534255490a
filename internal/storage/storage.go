// Package storage exports generated images and pronunciation audio to a
// local directory, a Cloud Storage bucket or an S3 bucket.
package storage

import (
	"context"
	"mime"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

type Store interface {
	Save(ctx context.Context, name, contentType string, data []byte) (string, error)
	List(ctx context.Context) ([]string, error)
}

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"audio/mpeg": ".mp3",
	"audio/wav":  ".wav",
}

// FileName builds a unique export name from label, e.g. "Zhāng Wěi" and
// "image/jpeg" give "zhang-wei-1b9d6bcd.jpg". Labels with no Latin letters
// fall back to "name".
func FileName(label, contentType string) string {
	slug := Slug(label)
	if slug == "" {
		slug = "name"
	}
	return slug + "-" + uuid.NewString()[:8] + Extension(contentType)
}

func Extension(contentType string) string {
	if ext, ok := extensions[contentType]; ok {
		return ext
	}
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ".bin"
}

// Slug lowercases label, strips tone marks and joins ASCII letter and digit
// runs with hyphens.
func Slug(label string) string {
	stripped, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), label)
	if err != nil {
		stripped = label
	}

	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(stripped) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			pendingHyphen = false
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}
