package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"path"
	"strings"
)

// maxSlugLen caps the readable part of artifact filenames.
const maxSlugLen = 48

// artifactName derives a filesystem-safe filename for a URL: a slug of
// the host and path, a short content-independent hash for uniqueness,
// and the given extension. Two URLs never collide unless their full
// strings are equal.
func artifactName(rawURL, ext string) string {
	sum := sha256.Sum256([]byte(rawURL))
	return slugify(rawURL) + "-" + hex.EncodeToString(sum[:6]) + ext
}

// imageExt picks the extension for a saved image: the URL path's own
// extension when present, otherwise one derived from the Content-Type.
func imageExt(rawURL, contentType string) string {
	if u, err := url.Parse(rawURL); err == nil {
		if ext := path.Ext(u.Path); ext != "" && len(ext) <= 5 {
			return strings.ToLower(ext)
		}
	}

	mediaType := contentType
	if i := strings.IndexByte(mediaType, ';'); i >= 0 {
		mediaType = mediaType[:i]
	}
	switch strings.TrimSpace(strings.ToLower(mediaType)) {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/svg+xml":
		return ".svg"
	case "image/tiff":
		return ".tiff"
	case "image/x-icon", "image/vnd.microsoft.icon":
		return ".ico"
	default:
		return ".img"
	}
}

// slugify folds a URL into lowercase letters, digits, and single
// hyphens, truncated to maxSlugLen.
func slugify(rawURL string) string {
	s := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		s = u.Host + u.Path
	}

	var b strings.Builder
	lastHyphen := true // suppress a leading hyphen
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
		if b.Len() >= maxSlugLen {
			break
		}
	}

	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		return "page"
	}
	return slug
}
