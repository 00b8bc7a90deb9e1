// Package misc holds the 8ball feature and the send relay command.
package misc

import (
	"winterbot/internal/bot"
	"winterbot/internal/db"
	"winterbot/internal/web/api"
)

type Extension struct{}

func (Extension) Name() string { return "misc" }

func (Extension) Setup(b *bot.Bot) error {
	if err := b.AddCommand(&bot.Command{
		Name:     "8ball",
		Help:     "Answers a yes or no question",
		Cooldown: true,
		Run:      eightBall,
	}); err != nil {
		return err
	}
	if err := b.AddCommand(&bot.Command{
		Name:      "send",
		Help:      "Relays text to a channel",
		Hidden:    true,
		OwnerOnly: true,
		Run:       send,
	}); err != nil {
		return err
	}

	if r := b.Router(); r != nil {
		api.RegisterEightBallRoutes(r, b.Logger())
	}
	return nil
}

// eightBall ignores the question text.
func eightBall(c *bot.Context) error {
	response, err := db.RandomResponse(c, c.Handle)
	if err != nil {
		return err
	}
	_, err = c.Send(response)
	return err
}
