package media

import (
	"context"
	"log/slog"
	"regexp"
)

// Resolver turns an Instagram or TikTok post URL into a direct playable
// media URL. Implemented by the REST client against the server's
// /utils/resolve_* endpoints.
type Resolver interface {
	ResolveInstagram(ctx context.Context, url string) (string, error)
	ResolveTikTok(ctx context.Context, url string) (string, error)
}

// Embed is a render-ready view of a media reference. FrameURL is always set
// and points at a passive third-party player frame; PlayerURL is set only
// when an async resolution step produced a direct playable URL.
type Embed struct {
	Kind      Kind
	PlayerURL string
	FrameURL  string
}

// Native reports whether the embed can be played with a native video element.
func (e Embed) Native() bool {
	return e.PlayerURL != ""
}

var tiktokVideoIDRe = regexp.MustCompile(`video/(\d+)`)

// Renderer maps classified media references to embeds. YouTube and VK are
// resolved from structured data with no network call; Instagram and TikTok
// go through the Resolver and fall back to a passive frame on failure.
type Renderer struct {
	resolver Resolver
}

func NewRenderer(resolver Resolver) *Renderer {
	return &Renderer{resolver: resolver}
}

// Resolve returns an embed for ref. Resolution failures are non-fatal: the
// passive fallback frame is returned instead and nothing is reported to the
// user.
func (r *Renderer) Resolve(ctx context.Context, ref Ref) Embed {
	switch ref.Kind {
	case KindYouTube:
		return Embed{
			Kind:     KindYouTube,
			FrameURL: "https://www.youtube.com/embed/" + ref.VideoID,
		}

	case KindVK:
		return Embed{
			Kind:     KindVK,
			FrameURL: "https://vk.com/video_ext.php?oid=" + ref.OwnerID + "&id=" + ref.VideoID + "&hd=2",
		}

	case KindInstagram:
		e := Embed{Kind: KindInstagram, FrameURL: instagramFrameURL(ref.URL)}
		if r.resolver != nil {
			if playable, err := r.resolver.ResolveInstagram(ctx, ref.URL); err == nil {
				e.PlayerURL = playable
			} else {
				slog.Debug("instagram resolution failed", "url", ref.URL, "error", err)
			}
		}
		return e

	case KindTikTok:
		e := Embed{Kind: KindTikTok, FrameURL: tiktokFrameURL(ref.URL)}
		if r.resolver != nil {
			if playable, err := r.resolver.ResolveTikTok(ctx, ref.URL); err == nil {
				e.PlayerURL = playable
			} else {
				slog.Debug("tiktok resolution failed", "url", ref.URL, "error", err)
			}
		}
		return e
	}

	return Embed{Kind: ref.Kind, FrameURL: ref.URL}
}

// instagramFrameURL builds the passive embed frame from the post shortcode,
// or returns the URL as-is when no shortcode can be extracted.
func instagramFrameURL(url string) string {
	if m := instaRe.FindStringSubmatch(url); m != nil {
		return "https://www.instagram.com/p/" + m[1] + "/embed"
	}
	return url
}

// tiktokFrameURL builds the passive embed frame from the numeric video id,
// or returns the URL as-is for short links that carry no id.
func tiktokFrameURL(url string) string {
	if m := tiktokVideoIDRe.FindStringSubmatch(url); m != nil {
		return "https://www.tiktok.com/embed/v2/" + m[1]
	}
	return url
}
