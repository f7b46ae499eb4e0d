package media

import (
	"regexp"
	"strings"
)

// Kind identifies the platform a recognized media reference belongs to.
type Kind string

const (
	KindYouTube   Kind = "youtube"
	KindVK        Kind = "vk"
	KindInstagram Kind = "instagram"
	KindTikTok    Kind = "tiktok"
)

// Ref is a recognized media reference extracted from a message body.
// Exactly one of the payload fields is meaningful per Kind: VideoID for
// YouTube, OwnerID+VideoID for VK, URL for Instagram (canonical post URL)
// and TikTok (original matched substring, passed through verbatim).
type Ref struct {
	Kind    Kind
	VideoID string
	OwnerID string
	URL     string
}

// Content is the result of classifying a message body: the body with the
// matched media reference stripped, plus the reference itself (nil when no
// platform pattern matched).
type Content struct {
	Text  string
	Media *Ref
}

var (
	youtubeRe = regexp.MustCompile(`(?:https?://)?(?:www\.)?(?:youtube\.com/(?:[^/\n\s]+/\S+/|(?:v|e(?:mbed)?|shorts)/|\S*?[?&]v=)|youtu\.be/)([a-zA-Z0-9_-]{11})`)
	vkRe      = regexp.MustCompile(`(?:https?://)?(?:www\.)?(?:vk\.com/video|vkvideo\.ru/video)([-0-9]+)_([0-9]+)`)
	instaRe   = regexp.MustCompile(`(?:https?://)?(?:www\.)?instagram\.com/(?:p|reel|tv)/([a-zA-Z0-9_-]+)`)
	tiktokRe  = regexp.MustCompile(`(?:https?://)?(?:www\.|vm\.|vt\.)?tiktok\.com/@?[a-zA-Z0-9_.]+/video/\d+|https?://(?:vm|vt)\.tiktok\.com/[a-zA-Z0-9]+`)

	// Removal patterns for Instagram and TikTok also swallow a trailing
	// slash and query string so the display text does not keep tracking
	// parameters the extraction pattern itself ignores.
	instaStripRe  = regexp.MustCompile(`(?:https?://)?(?:www\.)?instagram\.com/(?:p|reel|tv)/[a-zA-Z0-9_-]+/?(?:\?\S*)?`)
	tiktokStripRe = regexp.MustCompile(`(?:https?://)?(?:www\.|vm\.|vt\.)?tiktok\.com/(?:@?[a-zA-Z0-9_.]+/video/\d+|(?:t/)?[a-zA-Z0-9]+)/?(?:\?\S*)?`)
)

// ExtractYouTubeID returns the 11-character video id from the first YouTube
// URL in text, or "" if none. Recognizes watch URLs, youtu.be short links,
// embed paths and shorts paths.
func ExtractYouTubeID(text string) string {
	m := youtubeRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1]
}

// ExtractVKVideo returns the owner id and video id from the first VK video
// URL in text. Both are "" if none.
func ExtractVKVideo(text string) (ownerID, videoID string) {
	m := vkRe.FindStringSubmatch(text)
	if m == nil {
		return "", ""
	}
	return m[1], m[2]
}

// ExtractInstagramURL returns a canonical post URL synthesized from the
// shortcode of the first Instagram /p/, /reel/ or /tv/ URL in text.
func ExtractInstagramURL(text string) string {
	m := instaRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return "https://www.instagram.com/p/" + m[1] + "/"
}

// ExtractTikTokURL returns the first TikTok URL in text verbatim, accepting
// the canonical @user/video/<digits> path and vm/vt short links.
func ExtractTikTokURL(text string) string {
	return tiktokRe.FindString(text)
}

// Classify splits a message body into display text and at most one media
// reference. Patterns are tested in fixed priority order (YouTube > VK >
// Instagram > TikTok); the first match wins and no second pass occurs, so a
// lower-priority URL in the same body stays in the display text. The matched
// substring is removed with the pattern itself, not a fixed-width slice, and
// only the ends of the remaining text are trimmed.
//
// Classify is pure: no network or state access.
func Classify(body string) Content {
	if body == "" {
		return Content{}
	}

	if m := youtubeRe.FindStringSubmatch(body); m != nil {
		return Content{
			Text:  stripFirst(youtubeRe, body),
			Media: &Ref{Kind: KindYouTube, VideoID: m[1]},
		}
	}

	if m := vkRe.FindStringSubmatch(body); m != nil {
		return Content{
			Text:  stripFirst(vkRe, body),
			Media: &Ref{Kind: KindVK, OwnerID: m[1], VideoID: m[2]},
		}
	}

	if m := instaRe.FindStringSubmatch(body); m != nil {
		return Content{
			Text:  stripFirst(instaStripRe, body),
			Media: &Ref{Kind: KindInstagram, URL: "https://www.instagram.com/p/" + m[1] + "/"},
		}
	}

	if m := tiktokRe.FindString(body); m != "" {
		return Content{
			Text:  stripFirst(tiktokStripRe, body),
			Media: &Ref{Kind: KindTikTok, URL: m},
		}
	}

	return Content{Text: strings.TrimSpace(body)}
}

// stripFirst removes the first occurrence of re from s and trims the ends.
func stripFirst(re *regexp.Regexp, s string) string {
	loc := re.FindStringIndex(s)
	if loc == nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(s[:loc[0]] + s[loc[1]:])
}
