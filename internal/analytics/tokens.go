package analytics

import (
	"regexp"
	"strings"

	"react-analytics/internal/domain"
)

// punctuation is trimmed from both ends of every token.
const punctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~“”"

var stopWords = map[string]struct{}{
	"a":    {},
	"the":  {},
	"it":   {},
	"that": {},
	"and":  {},
	"in":   {},
	"i":    {},
	"have": {},
}

// Escaped references as the chat platform writes them: <#C123> or
// <#C123|general>, <@U123> or <@U123|alice>.
var (
	channelRef = regexp.MustCompile(`<#([^>|]+)(?:\|[^>]*)?>`)
	userRef    = regexp.MustCompile(`<@([^>|]+)(?:\|[^>]*)?>`)
)

func stripPunctuation(token string) string {
	return strings.Trim(token, punctuation)
}

func isStopWord(token string) bool {
	_, ok := stopWords[token]
	return ok
}

// splitWords splits on the space character only, not on all whitespace.
func splitWords(text string) []string {
	return strings.Split(text, " ")
}

// ResolveToken turns one raw word into the key it is counted under. Escaped
// channel and user references with a known id become the display name;
// everything else is lower-cased with punctuation trimmed. The second
// result is false for tokens that are discarded: empty after trimming, or a
// stop word.
//
// Channel references are tried before user references.
func ResolveToken(raw string, dir domain.Directory) (string, bool) {
	stripped := stripPunctuation(strings.ToLower(raw))
	if stripped == "" || isStopWord(stripped) {
		return "", false
	}

	if m := channelRef.FindStringSubmatch(raw); m != nil {
		if name, ok := dir.ChannelName(m[1]); ok {
			return name, true
		}
	}
	if m := userRef.FindStringSubmatch(raw); m != nil {
		if name, ok := dir.UserName(m[1]); ok {
			return name, true
		}
	}

	return stripped, true
}

// Tokens returns the distinct resolved keys of a message in the order they
// first appear. A word repeated within one message is returned once.
func Tokens(text string, dir domain.Directory) []string {
	var tokens []string
	seen := make(map[string]struct{})
	for _, raw := range splitWords(text) {
		key, ok := ResolveToken(raw, dir)
		if !ok {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		tokens = append(tokens, key)
	}
	return tokens
}
