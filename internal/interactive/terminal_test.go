package interactive

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/kolah/oinkctl/internal/form"
	"github.com/kolah/oinkctl/internal/model"
	"github.com/kolah/oinkctl/internal/schema"
	"github.com/stretchr/testify/require"
)

func TestTerminalPrompt(t *testing.T) {
	var out bytes.Buffer
	term := NewTerminal(strings.NewReader("DEBUG\n"), &out)

	answer, err := term.Prompt(form.Field{
		Name:        "loggingLevel",
		Description: "Server log level",
		Type:        model.TypeString,
		Required:    true,
		Enum:        []any{"TRACE", "DEBUG"},
		Default:     "TRACE",
	})
	require.NoError(t, err)
	require.Equal(t, "DEBUG", answer)
	require.Equal(t, "  # Server log level\nloggingLevel (string) [required] {TRACE, DEBUG} <default: TRACE>: ", out.String())

	_, err = term.Prompt(form.Field{Name: "x"})
	require.ErrorIs(t, err, io.EOF)
}

func TestTerminalPromptList(t *testing.T) {
	var out bytes.Buffer
	term := NewTerminal(strings.NewReader("a,b\n"), &out)

	_, err := term.Prompt(form.Field{Name: "redirectUris", Kind: schema.KindArray, ItemType: model.TypeString, Current: []any{"x"}})
	require.NoError(t, err)
	require.Equal(t, "redirectUris (list of string, comma separated) <[x]>: ", out.String())
}

func TestTerminalChoose(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int
		err      error
	}{
		{"number", "2\n", 1, nil},
		{"invalid then valid", "7\nx\n1\n", 0, nil},
		{"back", "b\n", Back, nil},
		{"empty is back", "\n", Back, nil},
		{"quit", "q\n", 0, ErrQuit},
		{"eof", "", 0, io.EOF},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			term := NewTerminal(strings.NewReader(tt.input), io.Discard)
			choice, err := term.Choose("Menu", []string{"a", "b"})
			if tt.err != nil {
				require.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.expected, choice)
		})
	}
}

func TestTerminalConfirm(t *testing.T) {
	term := NewTerminal(strings.NewReader("YES\nn\n\n"), io.Discard)
	for _, expected := range []bool{true, false, false} {
		ok, err := term.Confirm("Continue?")
		require.NoError(t, err)
		require.Equal(t, expected, ok)
	}
}

func TestListStateNames(t *testing.T) {
	require.Equal(t, "AwaitingParams", awaitingParams.String())
	require.Equal(t, "ReturnToParent", returnToParent.String())
}

func TestAsList(t *testing.T) {
	require.Nil(t, asList(nil))
	require.Equal(t, []any{1, 2}, asList([]any{1, 2}))
	require.Equal(t, []any{"a"}, asList(map[string]any{"entries": []any{"a"}, "totalEntriesCount": 1}))
	single := map[string]any{"inum": "1"}
	require.Equal(t, []any{single}, asList(single))
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name     string
		item     any
		expected string
	}{
		{"summary keys", map[string]any{"inum": "1", "displayName": "web", "x": 2}, "web  1"},
		{"json fallback", map[string]any{"x": 2}, `{"x":2}`},
		{"scalar", 42, "42"},
		{"long ascii", []any{strings.Repeat("a", 80)}, `["` + strings.Repeat("a", 68) + "..."},
		{"long multibyte", []any{strings.Repeat("é", 80)}, `["` + strings.Repeat("é", 68) + "..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := summarize(tt.item)
			require.Equal(t, tt.expected, got)
			require.True(t, utf8.ValidString(got))
		})
	}
}
