// Package extract pulls tracker identifiers out of the free-text labels that
// Rally and Clarity exports put in their reference columns, for example
// "Feature F214458: Improve login", "ITPR082135 - Platform Modernization" or
// "Theme T4426: Core Services".
//
// Every function looks at the first match only and never fails.
package extract

import (
	"regexp"
	"strings"
)

var (
	portfolioItemRe = regexp.MustCompile(`[FE]\d+`)
	storyRe         = regexp.MustCompile(`US\d+`)
	itprRe          = regexp.MustCompile(`ITPR\d+`)
	themeRe         = regexp.MustCompile(`Theme (T\d+)`)
)

// FormattedID returns the first Feature (F…) or Epic (E…) identifier in text,
// or text unchanged when there is none.
func FormattedID(text string) string {
	if m := portfolioItemRe.FindString(text); m != "" {
		return m
	}
	return text
}

// StoryID returns the first user story identifier (US…) in text, or the
// trimmed text when there is none.
func StoryID(text string) string {
	if m := storyRe.FindString(text); m != "" {
		return m
	}
	return strings.TrimSpace(text)
}

// ITPRCode returns the first ITPR code in text, or "".
func ITPRCode(text string) string {
	return itprRe.FindString(text)
}

// Theme returns the T… part of the first "Theme T…" in text, or "".
func Theme(text string) string {
	m := themeRe.FindStringSubmatch(text)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}
