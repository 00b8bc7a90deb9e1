// Package bot is a small prefix-command framework on top of discordgo.
//
// Every command invocation gets a Context holding its own db.Handle, which
// is released when the command returns, fails or panics.
package bot

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"winterbot/internal/db"

	"github.com/bwmarrin/discordgo"
	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
)

var (
	ErrUnknownCommand  = errors.New("unknown command")
	ErrMissingArgument = errors.New("missing required argument")
	ErrNotOwner        = errors.New("command is restricted to bot owners")
	ErrOnCooldown      = errors.New("command is on cooldown")
)

// Session is the part of *discordgo.Session the bot talks to.
type Session interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error
	Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	GuildChannels(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Channel, error)
}

// Limiter decides whether a user may run a command right now.
type Limiter interface {
	Allow(ctx context.Context, command, userID string) (bool, error)
}

// Command is a prefix command.
type Command struct {
	Name    string
	Aliases []string
	Help    string
	// Hidden commands are left out of help.
	Hidden bool
	// OwnerOnly commands can only be run by configured owners.
	OwnerOnly bool
	// Cooldown applies the bot's Limiter to the command.
	Cooldown bool
	Run      func(c *Context) error
}

// Extension bundles commands (and possibly HTTP routes) loaded at startup.
type Extension interface {
	Name() string
	Setup(b *Bot) error
}

// Options configures a Bot.
type Options struct {
	// ClientID is the application ID used for the invite link. Optional.
	ClientID string
	Prefix   string
	Owners   []string
	Limiter  Limiter
	Logger   *log.Logger
	// Router receives HTTP routes registered by extensions. May be nil.
	Router gin.IRouter
}

// Bot dispatches messages to commands.
type Bot struct {
	session  Session
	pool     db.Pool
	clientID string
	router   gin.IRouter
	logger   *log.Logger
	prefix   string
	owners   map[string]struct{}
	limiter  Limiter

	mu       sync.RWMutex
	commands map[string]*Command
	ordered  []*Command

	baseCtx   context.Context
	readyOnce sync.Once
	uptime    time.Time
}

// New creates a bot that answers on session and queries pool.
func New(session Session, pool db.Pool, opts Options) *Bot {
	if opts.Prefix == "" {
		opts.Prefix = "?"
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	owners := make(map[string]struct{}, len(opts.Owners))
	for _, id := range opts.Owners {
		owners[id] = struct{}{}
	}

	b := &Bot{
		session:  session,
		pool:     pool,
		clientID: opts.ClientID,
		router:   opts.Router,
		logger:   opts.Logger.WithPrefix("BOT"),
		prefix:   opts.Prefix,
		owners:   owners,
		limiter:  opts.Limiter,
		commands: make(map[string]*Command),
		baseCtx:  context.Background(),
	}
	if err := b.AddCommand(helpCommand()); err != nil {
		panic(err)
	}
	return b
}

// Pool is the shared pool every Context handle is bound to.
func (b *Bot) Pool() db.Pool { return b.pool }

// Router is where extensions mount HTTP routes; nil when the bot runs without a web server.
func (b *Bot) Router() gin.IRouter { return b.router }

func (b *Bot) Logger() *log.Logger { return b.logger }

func (b *Bot) Prefix() string { return b.prefix }

// Uptime is when the bot first became ready; zero before that.
func (b *Bot) Uptime() time.Time {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.uptime
}

// InviteURL is the OAuth2 link that adds the bot to a guild with the
// permissions its commands need. Empty without a client ID.
func (b *Bot) InviteURL() string {
	if b.clientID == "" {
		return ""
	}
	perms := discordgo.PermissionViewChannel |
		discordgo.PermissionSendMessages |
		discordgo.PermissionManageMessages |
		discordgo.PermissionReadMessageHistory
	return fmt.Sprintf("https://discord.com/oauth2/authorize?client_id=%s&scope=bot&permissions=%d", b.clientID, perms)
}

// IsOwner reports whether userID is a configured owner.
func (b *Bot) IsOwner(userID string) bool {
	_, ok := b.owners[userID]
	return ok
}

// AddCommand registers cmd under its name and aliases.
func (b *Bot) AddCommand(cmd *Command) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	names := append([]string{cmd.Name}, cmd.Aliases...)
	for _, name := range names {
		if name == "" || strings.IndexFunc(name, unicode.IsSpace) >= 0 {
			return fmt.Errorf("invalid command name %q", name)
		}
		if _, exists := b.commands[name]; exists {
			return fmt.Errorf("command %q is already registered", name)
		}
	}
	for _, name := range names {
		b.commands[name] = cmd
	}
	b.ordered = append(b.ordered, cmd)
	return nil
}

// Command looks a command up by name or alias.
func (b *Bot) Command(name string) *Command {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.commands[name]
}

// Commands returns the registered commands sorted by name.
func (b *Bot) Commands() []*Command {
	b.mu.RLock()
	cmds := append([]*Command(nil), b.ordered...)
	b.mu.RUnlock()

	sort.Slice(cmds, func(i, j int) bool { return cmds[i].Name < cmds[j].Name })
	return cmds
}

// LoadExtensions sets up each extension. A failing extension is logged and
// skipped so the rest of the bot still starts.
func (b *Bot) LoadExtensions(exts ...Extension) (loaded int) {
	for _, ext := range exts {
		if err := ext.Setup(b); err != nil {
			b.logger.Error("failed to load extension", "extension", ext.Name(), "err", err)
			continue
		}
		b.logger.Info("loaded extension", "extension", ext.Name())
		loaded++
	}
	return loaded
}

// splitInvocation splits "8ball will it rain" into the command name and
// its argument text.
func splitInvocation(s string) (name, args string) {
	idx := strings.IndexFunc(s, unicode.IsSpace)
	if idx < 0 {
		return s, ""
	}
	return s[:idx], strings.TrimSpace(s[idx:])
}

// Dispatch runs the command named by msg, if any. Messages from bots and
// messages without the prefix are ignored.
func (b *Bot) Dispatch(ctx context.Context, msg *discordgo.Message) error {
	if msg.Author == nil || msg.Author.Bot {
		return nil
	}
	if !strings.HasPrefix(msg.Content, b.prefix) {
		return nil
	}

	name, args := splitInvocation(strings.TrimPrefix(msg.Content, b.prefix))
	if name == "" {
		return nil
	}
	cmd := b.Command(name)
	if cmd == nil {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}

	c := newContext(ctx, b, cmd, msg, args)
	// Whatever the command did with its handle, nothing stays checked out.
	defer c.Release()

	return b.invoke(c)
}

func (b *Bot) invoke(c *Context) (err error) {
	cmd := c.Command
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("command %s panicked: %v", cmd.Name, r)
		}
	}()

	if cmd.OwnerOnly && !b.IsOwner(c.Message.Author.ID) {
		return ErrNotOwner
	}
	if cmd.Cooldown && b.limiter != nil {
		ok, err := b.limiter.Allow(c, cmd.Name, c.Message.Author.ID)
		switch {
		case err != nil:
			// A limiter outage must not take the commands down with it.
			b.logger.Warn("cooldown check failed, allowing command", "command", cmd.Name, "err", err)
		case !ok:
			return ErrOnCooldown
		}
	}

	return cmd.Run(c)
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	// Ready fires again after reconnects; keep the first uptime.
	b.readyOnce.Do(func() {
		b.mu.Lock()
		b.uptime = time.Now().UTC()
		b.mu.Unlock()
	})
	b.logger.Info("ready", "user", r.User.String(), "id", r.User.ID)
	if invite := b.InviteURL(); invite != "" {
		b.logger.Info("invite the bot with " + invite)
	}
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	err := b.Dispatch(b.baseCtx, m.Message)
	switch {
	case err == nil:
	case errors.Is(err, ErrUnknownCommand):
		b.logger.Debug("ignoring command", "err", err)
	case errors.Is(err, ErrOnCooldown), errors.Is(err, ErrNotOwner):
		b.logger.Info("command refused", "author", m.Author.ID, "content", m.Content, "err", err)
	default:
		b.logger.Error("command failed", "author", m.Author.ID, "content", m.Content, "err", err)
	}
}

// Run connects s to the gateway and serves commands until ctx is done.
// s must be the same session the bot was created with.
func (b *Bot) Run(ctx context.Context, s *discordgo.Session) error {
	b.baseCtx = ctx
	s.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent
	removeReady := s.AddHandler(b.onReady)
	removeMessage := s.AddHandler(b.onMessageCreate)
	defer removeReady()
	defer removeMessage()

	if err := s.Open(); err != nil {
		return fmt.Errorf("opening gateway session: %w", err)
	}
	b.logger.Info("connected to gateway")

	<-ctx.Done()
	if err := s.Close(); err != nil {
		b.logger.Warn("failed to close gateway session", "err", err)
	}
	b.logger.Info("disconnected from gateway")
	return nil
}
