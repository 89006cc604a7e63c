package blockpress

import (
	"mime"
	"os"
	"path"
	"strings"

	"github.com/eringen/blockpress/views"
)

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// absoluteURL resolves a site-relative reference against base. Absolute
// URLs are returned unchanged.
func absoluteURL(base, ref string) string {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	return views.BuildURL(base, ref)
}

func imageMIME(ref string) string {
	if i := strings.IndexAny(ref, "?#"); i >= 0 {
		ref = ref[:i]
	}
	if t := mime.TypeByExtension(path.Ext(ref)); strings.HasPrefix(t, "image/") {
		return t
	}
	return "image/jpeg"
}
