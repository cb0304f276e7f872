package postfmt

import "strings"

// Compose joins the caption with #-prefixed hashtags, separated by a blank
// line. Hashtags already carrying a # keep it.
func Compose(caption string, hashtags []string) string {
	tags := make([]string, 0, len(hashtags))
	for _, h := range hashtags {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		if !strings.HasPrefix(h, "#") {
			h = "#" + h
		}
		tags = append(tags, h)
	}
	if len(tags) == 0 {
		return caption
	}
	if caption == "" {
		return strings.Join(tags, " ")
	}
	return caption + "\n\n" + strings.Join(tags, " ")
}

// Truncate cuts s to at most limit runes. limit <= 0 means no limit.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

// ComposeLimited composes and truncates in one step.
func ComposeLimited(caption string, hashtags []string, limit int) string {
	return Truncate(Compose(caption, hashtags), limit)
}
