package chat

import (
	"testing"

	"github.com/parley-cli/parley/pkg/chats/message"
	"github.com/parley-cli/parley/pkg/chats/role"

	"github.com/stretchr/testify/assert"
)

func TestChat_ZeroValue(t *testing.T) {
	var c Chat

	assert.Equal(t, 0, c.Len())

	_, ok := c.Last()
	assert.False(t, ok)
}

func TestChat_Append(t *testing.T) {
	c := New()
	c.Append(message.NewText(role.User, "hi"))
	c.Append(message.NewText(role.Assistant, "hello"))

	assert.Equal(t, 2, c.Len())
	assert.Equal(t, role.User, c.At(0).Role)

	last, ok := c.Last()
	assert.True(t, ok)
	assert.Equal(t, "hello", last.TextContent())
}

func TestChat_AppendPreservesOrder(t *testing.T) {
	c := New(
		message.NewText(role.User, "one"),
		message.NewText(role.Assistant, "two"),
	)
	c.Append(message.NewText(role.User, "three"))

	var texts []string
	c.Each(func(_ int, m message.Message) bool {
		texts = append(texts, m.TextContent())
		return true
	})

	assert.Equal(t, []string{"one", "two", "three"}, texts)
}

func TestChat_MessagesReturnsCopy(t *testing.T) {
	c := New(message.NewText(role.User, "hi"))

	msgs := c.Messages()
	msgs[0] = message.NewText(role.User, "mutated")

	assert.Equal(t, "hi", c.At(0).TextContent())
}

func TestChat_ByRole(t *testing.T) {
	c := New(
		message.NewText(role.User, "q1"),
		message.NewText(role.Assistant, "a1"),
		message.NewText(role.User, "q2"),
	)

	users := c.ByRole(role.User)
	assert.Len(t, users, 2)
	assert.Equal(t, "q2", users[1].TextContent())

	assert.Empty(t, c.ByRole(role.System))
}

func TestChat_EachEarlyStop(t *testing.T) {
	c := New(
		message.NewText(role.User, "one"),
		message.NewText(role.User, "two"),
	)

	var seen int
	c.Each(func(_ int, _ message.Message) bool {
		seen++
		return false
	})

	assert.Equal(t, 1, seen)
}
