package fake

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/YaqiinCargo/CargoBox/internal/integrations/assistant"
)

func TestStreamChat_ReplaysChunks(t *testing.T) {
	c := New("bir ", "ikki")

	var sb strings.Builder
	err := c.StreamChat(context.Background(), "sys", []assistant.Message{
		{Role: assistant.RoleUser, Text: "salom"},
	}, func(text string) { sb.WriteString(text) })

	require.NoError(t, err)
	require.Equal(t, "bir ikki", sb.String())
	require.Equal(t, "sys", c.LastSystem)
	require.Len(t, c.LastHistory, 1)
}

func TestStreamChat_Error(t *testing.T) {
	c := New("unused")
	want := errors.New("model down")
	c.SetError(want)

	err := c.StreamChat(context.Background(), "", nil, func(string) {
		t.Fatal("no deltas expected")
	})
	require.ErrorIs(t, err, want)
}
