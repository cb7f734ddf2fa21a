package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"react-analytics/internal/analytics"
	"react-analytics/internal/domain"
	"react-analytics/internal/store/memstore"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    Command
		wantErr error
	}{
		{name: "bare command", text: "most_used", want: Command{Name: MostUsed}},
		{name: "case and spaces", text: "  MOST_ACTIVE  ", want: Command{Name: MostActive}},
		{name: "user with label", text: "most_used <@U123|alice>", want: Command{Name: MostUsed, UserID: "U123"}},
		{name: "user without label", text: "most_reacted_to <@U123>", want: Command{Name: MostReactedTo, UserID: "U123"}},
		{name: "channel", text: "most_unique <#C42|general>", want: Command{Name: MostUnique, ChannelID: "C42"}},
		{
			name: "reacts deduplicated in order",
			text: "buzzwords :fire: :+1::fire: :tada:",
			want: Command{Name: Buzzwords, Reacts: []string{"fire", "+1", "tada"}},
		},
		{name: "buzzwords needs a react", text: "buzzwords", want: Command{Name: Buzzwords}, wantErr: ErrMissingReact},
		{name: "help", text: "help", want: Command{Name: Help}},
		{name: "unknown", text: "make_coffee now", want: Command{Name: "make_coffee"}, wantErr: ErrUnknownCommand},
		{name: "empty", text: "", want: Command{}, wantErr: ErrUnknownCommand},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.text)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHelpText(t *testing.T) {
	help := HelpText()
	assert.Contains(t, help, "most_used [_optional_ *@User*]\n")
	assert.Contains(t, help, "buzzwords [_required_ :react:, :react2: ...]\n")
	assert.Contains(t, help, "most_active\n")
}

type staticDirectory domain.Directory

func (d staticDirectory) Snapshot(context.Context) domain.Directory { return domain.Directory(d) }

func newRunner(t *testing.T) (*Runner, *memstore.Store) {
	t.Helper()
	repo := memstore.New()
	ctx := context.Background()

	post := func(channel, ts, user, text string) domain.MessageID {
		id := domain.NewMessageID(channel, ts)
		require.NoError(t, repo.InsertMessage(ctx, domain.Message{ID: id, UserID: user, Text: text}))
		return id
	}
	react := func(id domain.MessageID, user, name string) {
		require.NoError(t, repo.IncrementReact(ctx, id, user, name))
	}

	a := post("C1", "1.0", "U1", "ship it today")
	b := post("C1", "2.0", "U2", "ship it today please <@U1>")
	react(a, "U2", "fire")
	react(a, "U3", "fire")
	react(a, "U3", "tada")
	react(b, "U1", "+1")

	dir := staticDirectory{Users: map[string]string{"U1": "alice"}}
	return NewRunner(analytics.NewEngine(repo, nil, nil), repo, dir), repo
}

func TestRunner_Run(t *testing.T) {
	runner, _ := newRunner(t)

	tests := []struct {
		name string
		cmd  Command
		want string
	}{
		{
			name: "most used",
			cmd:  Command{Name: MostUsed},
			want: "Most used reacts:\n:fire: : 2\n:+1: : 1\n:tada: : 1\n",
		},
		{
			name: "most used by user",
			cmd:  Command{Name: MostUsed, UserID: "U3"},
			want: "Most used reacts by <@U3>:\n:fire: : 1\n:tada: : 1\n",
		},
		{
			name: "most reacted to",
			cmd:  Command{Name: MostReactedTo},
			want: "Most reacted to posts:\nship it today : 3\nship it today please <@U1> : 1\n",
		},
		{
			name: "most reacted to for user",
			cmd:  Command{Name: MostReactedTo, UserID: "U1"},
			want: "Most reacted to posts for alice:\nship it today : 3\n",
		},
		{
			name: "most unique",
			cmd:  Command{Name: MostUnique, ChannelID: "C1"},
			want: "Messages with most unique reacts:\nship it today : :fire: :tada: \nship it today please <@U1> : :+1: \n",
		},
		{
			name: "buzzwords",
			cmd:  Command{Name: Buzzwords, Reacts: []string{"+1", "wave"}},
			want: ":+1:: ship, today, please, alice\n:wave:: React not used\n",
		},
		{
			name: "most reacts",
			cmd:  Command{Name: MostReacts},
			want: "Users that react the most:\n<@U3>: 2\n<@U1>: 1\n<@U2>: 1\n",
		},
		{
			name: "most messages",
			cmd:  Command{Name: MostMessages},
			want: "Users with the most messages:\n<@U1>: 1\n<@U2>: 1\n",
		},
		{
			name: "most active",
			cmd:  Command{Name: MostActive},
			want: "Most active users:\n<@U1>\n<@U2>\n<@U3>\n",
		},
		{
			name: "common phrases",
			cmd:  Command{Name: CommonPhrases},
			want: "Common Phrases:\nship it today\nit today please\ntoday please u1\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := runner.Run(context.Background(), tt.cmd)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRunner_UnknownCommand(t *testing.T) {
	runner, _ := newRunner(t)

	_, err := runner.Run(context.Background(), Command{Name: "nope"})
	assert.ErrorIs(t, err, ErrUnknownCommand)
}

func TestRunner_WithoutDirectory(t *testing.T) {
	withDir, repo := newRunner(t)
	runner := NewRunner(withDir.engine, repo, nil)

	tests := []struct {
		name string
		cmd  Command
		want string
	}{
		{
			name: "most reacted to for user keeps the id",
			cmd:  Command{Name: MostReactedTo, UserID: "U1"},
			want: "Most reacted to posts for U1:\nship it today : 3\n",
		},
		{
			name: "buzzwords leave mentions unresolved",
			cmd:  Command{Name: Buzzwords, Reacts: []string{"+1"}},
			want: ":+1:: ship, today, please, u1\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := runner.Run(context.Background(), tt.cmd)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
