package analytics

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"react-analytics/internal/domain"
)

func TestResolveToken(t *testing.T) {
	dir := domain.Directory{
		Users:    map[string]string{"U1": "alice", "C7": "user-seven"},
		Channels: map[string]string{"C1": "general", "C7": "channel-seven"},
	}

	tests := []struct {
		name   string
		raw    string
		want   string
		wantOK bool
	}{
		{name: "plain word is lower-cased", raw: "Hello", want: "hello", wantOK: true},
		{name: "edge punctuation trimmed", raw: "“great!”", want: "great", wantOK: true},
		{name: "inner punctuation kept", raw: "don't", want: "don't", wantOK: true},
		{name: "known user", raw: "<@U1>", want: "alice", wantOK: true},
		{name: "known user with label", raw: "<@U1|al>", want: "alice", wantOK: true},
		{name: "known user followed by comma", raw: "<@U1>,", want: "alice", wantOK: true},
		{name: "known channel", raw: "<#C1|general>", want: "general", wantOK: true},
		{name: "unknown user falls back", raw: "<@U9>", want: "u9", wantOK: true},
		{name: "unknown channel falls back", raw: "<#C9>", want: "c9", wantOK: true},
		{name: "channel pattern resolves first", raw: "<#C7>", want: "channel-seven", wantOK: true},
		{name: "user pattern with shared id", raw: "<@C7>", want: "user-seven", wantOK: true},
		{name: "stop word dropped", raw: "The", wantOK: false},
		{name: "pure punctuation dropped", raw: "...", wantOK: false},
		{name: "empty dropped", raw: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ResolveToken(tt.raw, dir)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTokens_DedupWithinMessage(t *testing.T) {
	dir := domain.Directory{Users: map[string]string{"U1": "alice"}}

	got := Tokens("hello <@U1> hello", dir)
	assert.Equal(t, []string{"hello", "alice"}, got)
}

func TestTokens_SplitsOnSpaceOnly(t *testing.T) {
	got := Tokens("one\ttwo  three", domain.Directory{})
	assert.Equal(t, []string{"one\ttwo", "three"}, got)
}

func TestTokens_Idempotent(t *testing.T) {
	texts := []string{
		"hello world again",
		"we shipped the release friday",
		"alpha beta alpha gamma",
	}
	for _, text := range texts {
		first := Tokens(text, domain.Directory{})
		second := Tokens(strings.Join(first, " "), domain.Directory{})
		assert.ElementsMatch(t, first, second, text)
	}
}
