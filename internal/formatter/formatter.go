package formatter

import (
	"regexp"
	"strings"

	"github.com/kyokomi/emoji/v2"
	"github.com/microcosm-cc/bluemonday"
)

var (
	shortcodeRe  = regexp.MustCompile(`:[a-zA-Z0-9_+-]+:`)
	emoteClassRe = regexp.MustCompile(`^[A-Za-z]+-emote emote$`)
	emoteSrcRe   = regexp.MustCompile(`^https://(static-cdn\.jtvnw\.net|cdn\.7tv\.app|cdn\.frankerfacez\.com|cdn\.betterttv\.net)/`)
)

// Options selects the post-processing steps applied to rendered markup.
type Options struct {
	ExpandShortcodes bool
	Sanitize         bool
}

// Formatter post-processes the output of the emote pipeline.
type Formatter struct {
	opts   Options
	policy *bluemonday.Policy
}

// New creates a Formatter.
func New(opts Options) *Formatter {
	return &Formatter{opts: opts, policy: emotePolicy()}
}

// emotePolicy keeps emote images from the known CDNs and escapes everything else.
func emotePolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowURLSchemes("https")
	p.RequireParseableURLs(true)
	p.AllowAttrs("class").Matching(emoteClassRe).OnElements("img")
	p.AllowAttrs("src").Matching(emoteSrcRe).OnElements("img")
	p.AllowElements("img")
	return p
}

// Format applies the enabled steps. Shortcodes are expanded before
// sanitizing so the policy sees the final text.
func (f *Formatter) Format(markup string) string {
	if f.opts.ExpandShortcodes {
		markup = ExpandShortcodes(markup)
	}
	if f.opts.Sanitize {
		markup = f.policy.Sanitize(markup)
	}
	return markup
}

// ExpandShortcodes replaces :name: shortcodes with their Unicode emoji.
// Unknown shortcodes are left as they are.
func ExpandShortcodes(text string) string {
	codes := emoji.CodeMap()
	return shortcodeRe.ReplaceAllStringFunc(text, func(match string) string {
		if v, ok := codes[match]; ok {
			return strings.TrimSpace(v)
		}
		return match
	})
}
