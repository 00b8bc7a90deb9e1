package bot

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// ErrChannelNotFound is returned when an argument does not name a text channel.
var ErrChannelNotFound = errors.New("text channel not found")

var (
	channelMention = regexp.MustCompile(`^<#(\d{15,20})>$`)
	snowflake      = regexp.MustCompile(`^\d{15,20}$`)
)

func isTextChannel(ch *discordgo.Channel) bool {
	return ch.Type == discordgo.ChannelTypeGuildText || ch.Type == discordgo.ChannelTypeGuildNews
}

// ResolveTextChannel converts a channel mention, a channel ID or a channel
// name (with or without a leading '#') into a text channel. Outside a guild
// only mentions and IDs resolve; inside one the channel must belong to it.
func (c *Context) ResolveTextChannel(arg string) (*discordgo.Channel, error) {
	id := ""
	if m := channelMention.FindStringSubmatch(arg); m != nil {
		id = m[1]
	} else if snowflake.MatchString(arg) {
		id = arg
	}

	if id != "" {
		ch, err := c.Session.Channel(id, discordgo.WithContext(c))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrChannelNotFound, arg, err)
		}
		if !isTextChannel(ch) || (c.Message.GuildID != "" && ch.GuildID != c.Message.GuildID) {
			return nil, fmt.Errorf("%w: %s", ErrChannelNotFound, arg)
		}
		return ch, nil
	}

	name := strings.TrimPrefix(arg, "#")
	if c.Message.GuildID == "" || name == "" {
		return nil, fmt.Errorf("%w: %s", ErrChannelNotFound, arg)
	}

	channels, err := c.Session.GuildChannels(c.Message.GuildID, discordgo.WithContext(c))
	if err != nil {
		return nil, err
	}
	for _, ch := range channels {
		if isTextChannel(ch) && ch.Name == name {
			return ch, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrChannelNotFound, arg)
}
