package misc

import (
	"errors"
	"fmt"
	"strings"

	"winterbot/internal/bot"

	"github.com/bwmarrin/discordgo"
)

// send deletes the invoking message and relays its text. A leading word that
// names a text channel of the guild selects the destination; otherwise the
// text goes to the current channel.
func send(c *bot.Context) error {
	if c.Args == "" {
		return fmt.Errorf("%w: text", bot.ErrMissingArgument)
	}
	if err := c.DeleteMessage(); err != nil {
		return fmt.Errorf("deleting invoking message: %w", err)
	}

	channelID := c.Message.ChannelID
	words := strings.Split(c.Args, " ")
	ch, err := c.ResolveTextChannel(words[0])
	switch {
	case err == nil:
		channelID = ch.ID
		words = words[1:]
	case !errors.Is(err, bot.ErrChannelNotFound):
		c.Bot.Logger().Warn("channel lookup failed, relaying to current channel", "arg", words[0], "err", err)
	}

	text := strings.Join(words, " ")
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%w: text", bot.ErrMissingArgument)
	}

	_, err = c.SendTo(channelID, &discordgo.MessageSend{
		Content:         text,
		AllowedMentions: bot.NoMentions(),
	})
	return err
}
