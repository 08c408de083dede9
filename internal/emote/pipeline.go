package emote

import (
	"strings"
	"unicode"
)

// token is a maximal run of either whitespace or non-whitespace runes.
// start and end are inclusive rune offsets into the original message.
type token struct {
	text       string
	start, end int
	space      bool
	resolved   bool
}

func tokenize(message string) []token {
	var (
		tokens []token
		pos    int
		begin  = -1
		beginB int
		space  bool
	)
	flush := func(endByte int) {
		if begin < 0 {
			return
		}
		tokens = append(tokens, token{text: message[beginB:endByte], start: begin, end: pos - 1, space: space})
		begin = -1
	}
	for i, r := range message {
		isSpace := unicode.IsSpace(r)
		if begin >= 0 && isSpace != space {
			flush(i)
		}
		if begin < 0 {
			begin, beginB, space = pos, i, isSpace
		}
		pos++
	}
	flush(len(message))
	return tokens
}

func join(tokens []token) string {
	var sb strings.Builder
	for _, t := range tokens {
		sb.WriteString(t.text)
	}
	return sb.String()
}

// resolveNative replaces every word whose span is declared in tags.
func resolveNative(tokens []token, tags TagRanges, purge bool, size Size) {
	spans := tags.spans()
	if len(spans) == 0 {
		return
	}
	for i := range tokens {
		t := &tokens[i]
		if t.space || t.resolved {
			continue
		}
		id, ok := spans[span{start: t.start, end: t.end}]
		if !ok {
			continue
		}
		t.resolved = true
		if purge {
			t.text = ""
		} else {
			t.text = Reference(Native, id, size)
		}
	}
}

// resolveCatalog replaces every unresolved word the snapshot's matcher
// recognizes. Resolved words carry generated markup and are never rescanned.
func resolveCatalog(tokens []token, p Provider, snap *snapshot, purge bool, size Size) {
	if len(snap.table) == 0 {
		return
	}
	for i := range tokens {
		t := &tokens[i]
		if t.space || t.resolved || !snap.matcher.Match(t.text) {
			continue
		}
		name := t.text
		t.resolved = true
		t.text = ""
		if purge {
			continue
		}
		if id, ok := snap.table[name]; ok {
			t.text = Reference(p, id, size)
		}
	}
}
