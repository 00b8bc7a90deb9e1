// Package bottest provides a recording bot.Session for command tests.
package bottest

import (
	"errors"
	"sync"

	"github.com/bwmarrin/discordgo"
)

// ErrUnknownChannel mimics Discord's 404 for channels the session does not know.
var ErrUnknownChannel = errors.New("bottest: unknown channel")

// Sent is one message posted through the session.
type Sent struct {
	ChannelID string
	Message   *discordgo.MessageSend
}

// Deleted identifies a deleted message.
type Deleted struct {
	ChannelID string
	MessageID string
}

// Session is a fake bot.Session backed by a fixed set of channels.
type Session struct {
	Channels []*discordgo.Channel
	SendErr  error

	mu      sync.Mutex
	sent    []Sent
	deleted []Deleted
}

func (s *Session) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	if s.SendErr != nil {
		return nil, s.SendErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, Sent{ChannelID: channelID, Message: data})
	return &discordgo.Message{ChannelID: channelID, Content: data.Content}, nil
}

func (s *Session) ChannelMessageDelete(channelID, messageID string, _ ...discordgo.RequestOption) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, Deleted{ChannelID: channelID, MessageID: messageID})
	return nil
}

func (s *Session) Channel(channelID string, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	for _, ch := range s.Channels {
		if ch.ID == channelID {
			return ch, nil
		}
	}
	return nil, ErrUnknownChannel
}

func (s *Session) GuildChannels(guildID string, _ ...discordgo.RequestOption) ([]*discordgo.Channel, error) {
	var out []*discordgo.Channel
	for _, ch := range s.Channels {
		if ch.GuildID == guildID {
			out = append(out, ch)
		}
	}
	return out, nil
}

// Sent returns the messages posted so far.
func (s *Session) Sent() []Sent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Sent(nil), s.sent...)
}

// Deleted returns the messages deleted so far.
func (s *Session) Deleted() []Deleted {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Deleted(nil), s.deleted...)
}

// Message builds an incoming guild message.
func Message(guildID, channelID, authorID, content string) *discordgo.Message {
	return &discordgo.Message{
		ID:        "900000000000000001",
		GuildID:   guildID,
		ChannelID: channelID,
		Content:   content,
		Author:    &discordgo.User{ID: authorID, Username: "tester"},
	}
}
