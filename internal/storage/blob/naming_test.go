package blob

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUniqueName(t *testing.T) {
	name := UniqueName("Report.PDF")
	assert.True(t, strings.HasSuffix(name, ".pdf"), "extension should be lowercased: %s", name)

	_, err := uuid.Parse(strings.TrimSuffix(name, ".pdf"))
	assert.NoError(t, err, "stem should be a uuid: %s", name)

	assert.NotEqual(t, UniqueName("a.txt"), UniqueName("a.txt"))
}

func TestUniqueName_NoExtension(t *testing.T) {
	name := UniqueName("Makefile")
	_, err := uuid.Parse(name)
	assert.NoError(t, err)
}

func TestObjectPath(t *testing.T) {
	cases := []struct {
		name   string
		url    string
		bucket string
		want   string
	}{
		{
			name:   "gcs path style strips bucket segment",
			url:    "https://storage.googleapis.com/my-bucket/uploads/p1/abc.txt",
			bucket: "my-bucket",
			want:   "uploads/p1/abc.txt",
		},
		{
			name:   "s3 virtual hosted keeps full path",
			url:    "https://my-bucket.s3.us-east-1.amazonaws.com/uploads/p1/abc.txt",
			bucket: "my-bucket",
			want:   "uploads/p1/abc.txt",
		},
		{
			name:   "percent encoding is decoded",
			url:    "https://storage.googleapis.com/my-bucket/uploads/p1/a%20b.txt",
			bucket: "my-bucket",
			want:   "uploads/p1/a b.txt",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ObjectPath(tc.url, tc.bucket)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestObjectPath_NoObject(t *testing.T) {
	_, err := ObjectPath("https://storage.googleapis.com/my-bucket/", "my-bucket")
	assert.Error(t, err)
}

func TestReplacementKey(t *testing.T) {
	key := replacementKey("uploads/p1/old-name.txt", "new.go")
	assert.True(t, strings.HasPrefix(key, "uploads/p1/"), "replacement stays in the same directory: %s", key)
	assert.True(t, strings.HasSuffix(key, ".go"))
	assert.NotEqual(t, "uploads/p1/old-name.txt", key)
}

func TestReplacementKey_RootObject(t *testing.T) {
	key := replacementKey("old.txt", "new.txt")
	assert.False(t, strings.Contains(key, "/"))
}

func TestDecodeContent(t *testing.T) {
	t.Run("utf8 text comes back verbatim", func(t *testing.T) {
		c := decodeContent([]byte("package main\n"), "text/x-go")
		assert.Equal(t, "package main\n", c.Content)
		assert.Equal(t, "utf-8", c.Encoding)
		assert.False(t, c.IsBase64)
	})

	t.Run("json with charset parameter is textual", func(t *testing.T) {
		c := decodeContent([]byte(`{"ok":true}`), "application/json; charset=utf-8")
		assert.False(t, c.IsBase64)
	})

	t.Run("binary content type is base64", func(t *testing.T) {
		raw := []byte{0x89, 0x50, 0x4e, 0x47}
		c := decodeContent(raw, "image/png")
		assert.True(t, c.IsBase64)
		assert.Equal(t, "base64", c.Encoding)

		decoded, err := base64.StdEncoding.DecodeString(c.Content)
		require.NoError(t, err)
		assert.Equal(t, raw, decoded)
	})

	t.Run("textual type with invalid utf8 falls back to base64", func(t *testing.T) {
		c := decodeContent([]byte{0xff, 0xfe, 0x00}, "text/plain")
		assert.True(t, c.IsBase64)
	})
}
