package models

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxContentLength is the longest message body the server accepts.
const MaxContentLength = 1024

type Message struct {
	ID           int64     `json:"id"`
	ChannelID    int64     `json:"channel_id"`
	UserID       int64     `json:"user_id"`
	Username     string    `json:"username,omitempty"`
	Content      string    `json:"content"`
	ImageURL     *string   `json:"image_url,omitempty"`
	ThumbnailURL *string   `json:"thumbnail_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

var (
	htmlTagRe     = regexp.MustCompile(`<[^>]*>`)
	controlCharRe = regexp.MustCompile("[\x00-\x08\x0b\x0c\x0e-\x1f\x7f]")
)

// SanitizeContent mirrors the server-side message validator: truncate to
// MaxContentLength characters, strip HTML tags and control characters
// (newlines and tabs survive), and trim surrounding whitespace. Truncation
// counts runes, not bytes, so multibyte text is never split mid-rune.
func SanitizeContent(content string) string {
	if content == "" {
		return content
	}
	if utf8.RuneCountInString(content) > MaxContentLength {
		runes := []rune(content)
		content = string(runes[:MaxContentLength])
	}
	content = htmlTagRe.ReplaceAllString(content, "")
	content = controlCharRe.ReplaceAllString(content, "")
	return strings.TrimSpace(content)
}
