// Package command parses the /reacts slash command and renders query
// results as chat messages.
package command

import (
	"errors"
	"regexp"
	"strings"
)

const (
	MostUsed      = "most_used"
	MostReactedTo = "most_reacted_to"
	MostUnique    = "most_unique"
	Buzzwords     = "buzzwords"
	MostReacts    = "most_reacts"
	MostMessages  = "most_messages"
	CommonPhrases = "common_phrases"
	MostActive    = "most_active"
	Help          = "help"
)

// BuzzwordCount is how many words are listed per react.
const BuzzwordCount = 10

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrMissingReact   = errors.New("specify at least one react")
)

// usage lists the commands in the order help shows them.
var usage = []struct {
	name string
	args string
}{
	{MostUsed, "[_optional_ *@User*]"},
	{MostReactedTo, "[_optional_ *@User*]"},
	{MostUnique, "[_optional_ *#channel*]"},
	{Buzzwords, "[_required_ :react:, :react2: ...]"},
	{MostReacts, ""},
	{MostMessages, ""},
	{CommonPhrases, ""},
	{MostActive, ""},
}

var (
	userArg  = regexp.MustCompile(`<@([^>|]+)(?:\|[^>]*)?>`)
	chanArg  = regexp.MustCompile(`<#([^>|]+)(?:\|[^>]*)?>`)
	reactArg = regexp.MustCompile(`:([^:\s]+):`)
)

// Command is a parsed slash command.
type Command struct {
	Name string
	// UserID is the user the query is narrowed to, if one was mentioned.
	UserID string
	// ChannelID is the channel the query is narrowed to, if one was mentioned.
	ChannelID string
	// Reacts are the react names given to buzzwords, without colons.
	Reacts []string
}

// Parse reads the text typed after the slash command. The first word picks
// the command; the rest are its arguments.
func Parse(text string) (Command, error) {
	text = strings.TrimSpace(text)
	name, args, _ := strings.Cut(text, " ")
	name = strings.ToLower(name)

	cmd := Command{Name: name}
	switch name {
	case Help:
	case MostUsed, MostReactedTo:
		if m := userArg.FindStringSubmatch(args); m != nil {
			cmd.UserID = m[1]
		}
	case MostUnique:
		if m := chanArg.FindStringSubmatch(args); m != nil {
			cmd.ChannelID = m[1]
		}
	case Buzzwords:
		seen := make(map[string]struct{})
		for _, m := range reactArg.FindAllStringSubmatch(args, -1) {
			if _, dup := seen[m[1]]; dup {
				continue
			}
			seen[m[1]] = struct{}{}
			cmd.Reacts = append(cmd.Reacts, m[1])
		}
		if len(cmd.Reacts) == 0 {
			return cmd, ErrMissingReact
		}
	case MostReacts, MostMessages, CommonPhrases, MostActive:
	default:
		return cmd, ErrUnknownCommand
	}
	return cmd, nil
}

// HelpText lists every command with its arguments.
func HelpText() string {
	var b strings.Builder
	for _, u := range usage {
		b.WriteString(u.name)
		if u.args != "" {
			b.WriteString(" " + u.args)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// UnknownText is the reply to text that is not a command.
const UnknownText = "use [/reacts help] for options"
