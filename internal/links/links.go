// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package links

import "regexp"

// VideoReference is one recognized video link.
type VideoReference struct {
	ID           string `json:"videoId"`
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnailUrl"`
	// Source is the link as it appeared in the text.
	Source string `json:"source"`
}

// ThumbnailSet lists the still images YouTube serves for a video.
type ThumbnailSet struct {
	MaxRes  string `json:"maxres"`
	High    string `json:"high"`
	Medium  string `json:"medium"`
	Default string `json:"default"`
}

var (
	urlPattern = regexp.MustCompile(`https?://\S+`)

	// Each pattern captures the 11 character video ID.
	videoPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/|youtube\.com/embed/|youtube\.com/v/)([A-Za-z0-9_-]{11})`),
		regexp.MustCompile(`youtube\.com/watch\?.*[&?]v=([A-Za-z0-9_-]{11})`),
		regexp.MustCompile(`youtube\.com/shorts/([A-Za-z0-9_-]{11})`),
	}
)

// ExtractVideoID returns the video ID of a single URL.
func ExtractVideoID(url string) (string, bool) {
	for _, p := range videoPatterns {
		if m := p.FindStringSubmatch(url); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// IsVideoURL reports whether url points at a YouTube video.
func IsVideoURL(url string) bool {
	_, ok := ExtractVideoID(url)
	return ok
}

// WatchURL returns the canonical watch page for id.
func WatchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}

// Thumbnails returns every thumbnail variant for id.
func Thumbnails(id string) ThumbnailSet {
	base := "https://img.youtube.com/vi/" + id + "/"
	return ThumbnailSet{
		MaxRes:  base + "maxresdefault.jpg",
		High:    base + "hqdefault.jpg",
		Medium:  base + "mqdefault.jpg",
		Default: base + "default.jpg",
	}
}

// ExtractVideoReferences returns one reference per video link in text, in
// order of appearance. Repeated links yield repeated references.
func ExtractVideoReferences(text string) []VideoReference {
	var refs []VideoReference
	for _, candidate := range urlPattern.FindAllString(text, -1) {
		id, ok := ExtractVideoID(candidate)
		if !ok {
			continue
		}
		refs = append(refs, VideoReference{
			ID:           id,
			URL:          WatchURL(id),
			ThumbnailURL: Thumbnails(id).MaxRes,
			Source:       candidate,
		})
	}
	return refs
}
