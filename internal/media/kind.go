// Package media classifies, stores and attaches the image, video and audio
// files referenced by portfolio projects.
package media

import (
	"fmt"
	"mime"
	"net/url"
	"strings"

	"github.com/designstudio/portfolio-backend/internal/projects/domain"
)

// Kind is the classified type of a media file.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
	KindAudio Kind = "audio"
)

// Display-time suffix sets. ".ogg" is in both; video is checked first.
var (
	videoExtensions = []string{".mp4", ".webm", ".mov", ".ogg"}
	audioExtensions = []string{".mp3", ".wav", ".ogg", ".m4a"}
)

// ClassifyMIME maps a MIME type to a Kind. It is the authoritative
// upload-time classification.
func ClassifyMIME(mimeType string) (Kind, error) {
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	if parsed, _, err := mime.ParseMediaType(mt); err == nil {
		mt = parsed
	}
	switch {
	case strings.HasPrefix(mt, "image/"):
		return KindImage, nil
	case strings.HasPrefix(mt, "video/"):
		return KindVideo, nil
	case strings.HasPrefix(mt, "audio/"):
		return KindAudio, nil
	}
	return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedMediaType, mimeType)
}

// KindFromURL infers the kind of a stored reference from its suffix, for
// records that only carry a URL. Anything unrecognised is treated as an image.
func KindFromURL(ref string) Kind {
	p := strings.ToLower(strings.TrimSpace(ref))
	if u, err := url.Parse(p); err == nil && u.Path != "" {
		p = u.Path
	} else if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if hasSuffix(p, videoExtensions) {
		return KindVideo
	}
	if hasSuffix(p, audioExtensions) {
		return KindAudio
	}
	return KindImage
}

func hasSuffix(s string, exts []string) bool {
	for _, ext := range exts {
		if strings.HasSuffix(s, ext) {
			return true
		}
	}
	return false
}

// UsesVideoSlot reports whether references of this kind live in Project.Video.
func (k Kind) UsesVideoSlot() bool {
	return k == KindVideo || k == KindAudio
}

// Assign places url into the slot matching k, clearing the other slot.
func (k Kind) Assign(p *domain.Project, url string) {
	if k.UsesVideoSlot() {
		p.SetVideo(url)
		return
	}
	p.SetImage(url)
}

// AttachedKind reports the kind of the media currently attached to p, and
// false when p has none.
func AttachedKind(p domain.Project) (Kind, bool) {
	switch {
	case p.Video != "":
		return KindFromURL(p.Video), true
	case p.Image != "":
		return KindImage, true
	}
	return "", false
}
