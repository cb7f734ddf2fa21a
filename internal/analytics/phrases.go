package analytics

import (
	"encoding/json"
	"strings"
)

// PhraseLength is the number of consecutive words in a mined phrase.
const PhraseLength = 3

// Notices the platform posts on behalf of users. Phrases containing one of
// these are never reported.
var boilerplatePhrases = []string{
	"joined the channel",
	"left the channel",
	"pinned a message",
	"uploaded a file",
}

type Phrase [PhraseLength]string

func (p Phrase) String() string {
	return strings.Join(p[:], " ")
}

func (p Phrase) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

func (p Phrase) minable() bool {
	for _, word := range p {
		if word == "" {
			return false
		}
	}
	joined := p.String()
	for _, notice := range boilerplatePhrases {
		if strings.Contains(joined, notice) {
			return false
		}
	}
	return true
}

// Phrases slides a window of PhraseLength words over a message and returns
// each distinct phrase once, in order of first appearance. Words are
// lower-cased and trimmed of punctuation; a window holding a word that is
// nothing but punctuation is skipped. Stop words are kept so phrases read
// naturally.
func Phrases(text string) []Phrase {
	raw := splitWords(strings.ToLower(text))
	words := make([]string, len(raw))
	for i, w := range raw {
		words[i] = stripPunctuation(w)
	}

	var phrases []Phrase
	seen := make(map[Phrase]struct{})
	for i := 0; i+PhraseLength <= len(words); i++ {
		var p Phrase
		copy(p[:], words[i:i+PhraseLength])
		if !p.minable() {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		phrases = append(phrases, p)
	}
	return phrases
}
