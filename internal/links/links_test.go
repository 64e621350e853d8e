// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package links

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractVideoID(t *testing.T) {
	tests := []struct {
		url  string
		want string
		ok   bool
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://www.youtube.com/v/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://www.youtube.com/watch?feature=share&v=dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://youtube.com/shorts/abcDEF_123-", "abcDEF_123-", true},
		{"https://www.youtube.com/watch?v=short", "", false},
		{"https://vimeo.com/123456", "", false},
	}
	for _, tt := range tests {
		got, ok := ExtractVideoID(tt.url)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ExtractVideoID(%q) = %q, %v; want %q, %v", tt.url, got, ok, tt.want, tt.ok)
		}
	}
}

func TestExtractVideoReferences(t *testing.T) {
	text := "Watch https://youtu.be/dQw4w9WgXcQ then read https://example.com/notes " +
		"and https://www.youtube.com/watch?v=9bZkp7q19f0 again https://youtu.be/dQw4w9WgXcQ"

	refs := ExtractVideoReferences(text)
	require.Len(t, refs, 3)

	assert.Equal(t, "dQw4w9WgXcQ", refs[0].ID)
	assert.Equal(t, "https://www.youtube.com/watch?v=dQw4w9WgXcQ", refs[0].URL)
	assert.Equal(t, "https://img.youtube.com/vi/dQw4w9WgXcQ/maxresdefault.jpg", refs[0].ThumbnailURL)
	assert.Equal(t, "9bZkp7q19f0", refs[1].ID)
	assert.Equal(t, refs[0].ID, refs[2].ID)
}

func TestExtractVideoReferences_None(t *testing.T) {
	assert.Empty(t, ExtractVideoReferences("no links here"))
	assert.Empty(t, ExtractVideoReferences("youtube.com/watch?v=dQw4w9WgXcQ without scheme"))
	assert.False(t, IsVideoURL("https://example.com"))
	assert.True(t, IsVideoURL("https://youtu.be/dQw4w9WgXcQ"))
}

func TestThumbnails(t *testing.T) {
	set := Thumbnails("abc")
	assert.Equal(t, "https://img.youtube.com/vi/abc/hqdefault.jpg", set.High)
	assert.Equal(t, "https://img.youtube.com/vi/abc/mqdefault.jpg", set.Medium)
	assert.Equal(t, "https://img.youtube.com/vi/abc/default.jpg", set.Default)
}
