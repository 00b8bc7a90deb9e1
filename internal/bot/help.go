package bot

import (
	"fmt"
	"strings"
)

func helpCommand() *Command {
	return &Command{
		Name: "help",
		Help: "Shows this message",
		Run:  runHelp,
	}
}

func runHelp(c *Context) error {
	var sb strings.Builder
	sb.WriteString("```\n")
	for _, cmd := range c.Bot.Commands() {
		if cmd.Hidden {
			continue
		}
		fmt.Fprintf(&sb, "%s%-10s %s\n", c.Bot.Prefix(), cmd.Name, cmd.Help)
	}
	sb.WriteString("```")

	_, err := c.Send(sb.String())
	return err
}
