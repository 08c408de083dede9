package emote

import (
	"fmt"
	"net/url"
)

// Size selects the image resolution of generated references.
type Size int

const (
	MinSize     Size = 1
	MaxSize     Size = 3
	DefaultSize Size = 2
)

// Valid reports whether s is a supported size.
func (s Size) Valid() bool {
	return s >= MinSize && s <= MaxSize
}

// ImageURL builds the CDN URL of an emote image.
func ImageURL(p Provider, id string, size Size) string {
	id = url.PathEscape(id)
	switch p {
	case Native:
		return fmt.Sprintf("https://static-cdn.jtvnw.net/emoticons/v2/%s/default/dark/%d.0", id, size)
	case SevenTV:
		return fmt.Sprintf("https://cdn.7tv.app/emote/%s/%dx.webp", id, size)
	case FFZ:
		return fmt.Sprintf("https://cdn.frankerfacez.com/emote/%s/%d", id, size)
	case BTTV:
		return fmt.Sprintf("https://cdn.betterttv.net/emote/%s/%dx", id, size)
	}
	return ""
}

// Reference renders the markup fragment for an emote.
func Reference(p Provider, id string, size Size) string {
	src := ImageURL(p, id, size)
	if src == "" {
		return ""
	}
	return fmt.Sprintf(`<img class="%s-emote emote" src="%s">`, p, src)
}
