package emote

import (
	"sort"
	"strconv"
	"strings"
)

// TagRanges maps a native emote identifier to the inclusive "start-end" rune
// ranges where it occurs in a message.
type TagRanges map[string][]string

type span struct {
	start, end int
}

// ParseEmotesTag parses the IRC emotes tag form "25:0-4,12-16/1902:6-10".
// Malformed parts are skipped.
func ParseEmotesTag(tag string) TagRanges {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return nil
	}
	out := make(TagRanges)
	for _, part := range strings.Split(tag, "/") {
		id, ranges, ok := strings.Cut(part, ":")
		if !ok || id == "" || ranges == "" {
			continue
		}
		for _, r := range strings.Split(ranges, ",") {
			if _, ok := parseSpan(r); ok {
				out[id] = append(out[id], r)
			}
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func parseSpan(r string) (span, bool) {
	a, b, ok := strings.Cut(strings.TrimSpace(r), "-")
	if !ok {
		return span{}, false
	}
	start, err := strconv.Atoi(a)
	if err != nil {
		return span{}, false
	}
	end, err := strconv.Atoi(b)
	if err != nil {
		return span{}, false
	}
	if start < 0 || end < start {
		return span{}, false
	}
	return span{start: start, end: end}, true
}

// spans indexes the declared ranges by position. When two identifiers declare
// the same range the lowest identifier wins.
func (t TagRanges) spans() map[span]string {
	if len(t) == 0 {
		return nil
	}
	ids := make([]string, 0, len(t))
	for id := range t {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make(map[span]string)
	for _, id := range ids {
		for _, r := range t[id] {
			sp, ok := parseSpan(r)
			if !ok {
				continue
			}
			if _, taken := out[sp]; !taken {
				out[sp] = id
			}
		}
	}
	return out
}
