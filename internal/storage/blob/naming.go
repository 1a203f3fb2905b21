package blob

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// UniqueName derives a collision-resistant object name from a random
// identifier plus the original file's extension.
func UniqueName(filename string) string {
	return uuid.NewString() + strings.ToLower(path.Ext(filename))
}

// ObjectPath resolves a stored public URL to its bucket-relative object
// key. The reconcile sweep uses it to compare row URLs against listed keys.
func ObjectPath(rawURL, bucket string) (string, error) {
	return resolveObjectPath(rawURL, bucket)
}

// resolveObjectPath turns a stored public URL back into a bucket-relative
// object path: strip scheme and host, URL-decode, and drop a leading bucket
// segment when the URL is path-style.
func resolveObjectPath(rawURL, bucket string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse blob url %q: %w", rawURL, err)
	}

	p, err := url.PathUnescape(u.Path)
	if err != nil {
		p = u.Path
	}
	p = strings.TrimPrefix(p, "/")
	p = strings.TrimPrefix(p, bucket+"/")

	if p == "" {
		return "", fmt.Errorf("blob url %q has no object path", rawURL)
	}
	return p, nil
}

// replacementKey places a new unique name in the same logical directory as
// the object being replaced.
func replacementKey(oldKey, filename string) string {
	dir := path.Dir(oldKey)
	if dir == "." {
		return UniqueName(filename)
	}
	return dir + "/" + UniqueName(filename)
}

// decodeContent applies the dual-mode disposition: textual content types
// that decode as UTF-8 come back verbatim, everything else base64-wrapped.
func decodeContent(data []byte, contentType string) *Content {
	if isTextual(contentType) && utf8.Valid(data) {
		return &Content{
			Content:  string(data),
			Encoding: "utf-8",
			IsBase64: false,
		}
	}
	return &Content{
		Content:  base64.StdEncoding.EncodeToString(data),
		Encoding: "base64",
		IsBase64: true,
	}
}

func isTextual(contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if strings.HasPrefix(ct, "text/") {
		return true
	}
	switch ct {
	case "application/json", "application/javascript", "application/xml",
		"application/x-yaml", "application/yaml":
		return true
	}
	return false
}
