package bot

import (
	"context"

	"winterbot/internal/db"

	"github.com/bwmarrin/discordgo"
)

// Context is handed to a command for one invocation. It is a
// context.Context and a db.Handle bound to the bot's pool, so commands can
// write c.QueryRow(c, ...) directly.
type Context struct {
	context.Context
	*db.Handle

	Bot     *Bot
	Session Session
	Command *Command
	Message *discordgo.Message
	// Args is the text after the command name, trimmed.
	Args string
}

func newContext(ctx context.Context, b *Bot, cmd *Command, msg *discordgo.Message, args string) *Context {
	return &Context{
		Context: ctx,
		Handle:  db.NewHandle(b.pool),
		Bot:     b,
		Session: b.session,
		Command: cmd,
		Message: msg,
		Args:    args,
	}
}

// NoMentions suppresses every mention notification of a message.
func NoMentions() *discordgo.MessageAllowedMentions {
	return &discordgo.MessageAllowedMentions{Parse: []discordgo.AllowedMentionType{}}
}

// Send posts content to the channel the command was issued in.
func (c *Context) Send(content string) (*discordgo.Message, error) {
	return c.SendTo(c.Message.ChannelID, &discordgo.MessageSend{Content: content})
}

// SendTo posts a message to any channel.
func (c *Context) SendTo(channelID string, data *discordgo.MessageSend) (*discordgo.Message, error) {
	return c.Session.ChannelMessageSendComplex(channelID, data, discordgo.WithContext(c))
}

// DeleteMessage deletes the message that triggered the command.
func (c *Context) DeleteMessage() error {
	return c.Session.ChannelMessageDelete(c.Message.ChannelID, c.Message.ID, discordgo.WithContext(c))
}
