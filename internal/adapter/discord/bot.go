package discord

import (
	"context"
	"time"

	"gambling-bot/internal/core/domain"
	"gambling-bot/internal/core/ports"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
)

const embedColor = 0xF1C40F // gold

// Config tunes the message handler.
type Config struct {
	OwnerID  string
	DedupTTL time.Duration // 0 disables the duplicate-delivery guard
	Timeout  time.Duration // per-command deadline; 0 means 30s
}

// Bot turns Discord messages into dispatcher invocations and posts the replies.
type Bot struct {
	session    Session
	dispatcher ports.Dispatcher
	deduper    ports.EventDeduper // nil = no dedup
	cfg        Config
	log        zerolog.Logger
}

// NewBot creates a Bot. Register it with AddHandlers before opening the session.
func NewBot(session Session, dispatcher ports.Dispatcher, deduper ports.EventDeduper, cfg Config, log zerolog.Logger) *Bot {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Bot{
		session:    session,
		dispatcher: dispatcher,
		deduper:    deduper,
		cfg:        cfg,
		log:        log,
	}
}

// AddHandlers wires the bot's gateway event handlers into s.
func (b *Bot) AddHandlers(s *discordgo.Session) {
	s.AddHandler(b.onReady)
	s.AddHandler(b.onMessageCreate)
}

func (b *Bot) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	if r.User == nil {
		return
	}
	b.log.Info().Str("user", r.User.Username).Int("guilds", len(r.Guilds)).Msgf("Bot is online as %s", r.User.Username)
}

func (b *Bot) onMessageCreate(_ *discordgo.Session, m *discordgo.MessageCreate) {
	ctx, cancel := context.WithTimeout(context.Background(), b.cfg.Timeout)
	defer cancel()
	b.HandleMessage(ctx, m.Message)
}

// HandleMessage processes one message. Messages from bots, messages without
// the prefix and unknown commands are ignored.
func (b *Bot) HandleMessage(ctx context.Context, m *discordgo.Message) {
	if m == nil || m.Author == nil || m.Author.Bot {
		return
	}
	name, args, ok := ParseCommand(m.Content, b.dispatcher.Prefix())
	if !ok {
		return
	}

	log := b.log.With().
		Str("message_id", m.ID).
		Str("command", name).
		Str("user_id", m.Author.ID).
		Logger()

	if b.deduper != nil && b.cfg.DedupTTL > 0 {
		first, err := b.deduper.FirstSeen(ctx, m.ID, b.cfg.DedupTTL)
		if err != nil {
			log.Warn().Err(err).Msg("dedup check failed, processing message")
		} else if !first {
			log.Debug().Msg("duplicate message delivery skipped")
			return
		}
	}

	inv := ports.Invocation{
		Name:    name,
		Args:    args,
		Caller:  b.caller(m),
		Targets: b.targets(m, args),
	}

	reply, ok := b.dispatcher.Dispatch(ctx, inv)
	if !ok {
		return
	}

	if _, err := b.session.ChannelMessageSendComplex(m.ChannelID, render(reply)); err != nil {
		log.Error().Err(err).Msg("failed to send reply")
	}
}

func (b *Bot) caller(m *discordgo.Message) domain.Caller {
	c := domain.Caller{
		UserID:      m.Author.ID,
		DisplayName: displayName(m),
		GuildID:     m.GuildID,
		ChannelID:   m.ChannelID,
		IsOwner:     b.cfg.OwnerID != "" && m.Author.ID == b.cfg.OwnerID,
	}
	if m.GuildID != "" {
		perms, err := b.session.UserChannelPermissions(m.Author.ID, m.ChannelID)
		if err != nil {
			b.log.Warn().Err(err).Str("user_id", m.Author.ID).Msg("permission lookup failed, treating as non-admin")
		} else {
			c.IsAdmin = perms&discordgo.PermissionAdministrator != 0
		}
	}
	return c
}

// targets resolves every argument that references a user. Mentions come with
// the message; raw ids are looked up in the guild when possible.
func (b *Bot) targets(m *discordgo.Message, args []string) map[string]ports.Target {
	out := make(map[string]ports.Target)
	for _, arg := range args {
		id, ok := ParseUserRef(arg)
		if !ok {
			continue
		}
		t := ports.Target{UserID: id, DisplayName: id}
		if u := mentioned(m, id); u != nil {
			t.DisplayName = u.Username
		} else if m.GuildID != "" {
			if member, err := b.session.GuildMember(m.GuildID, id); err == nil && member.User != nil {
				t.DisplayName = member.User.Username
			}
		}
		out[arg] = t
	}
	return out
}

// displayName prefers the guild nickname, then the global name, then the username.
func displayName(m *discordgo.Message) string {
	if m.Member != nil && m.Member.Nick != "" {
		return m.Member.Nick
	}
	if m.Author.GlobalName != "" {
		return m.Author.GlobalName
	}
	return m.Author.Username
}

func mentioned(m *discordgo.Message, id string) *discordgo.User {
	for _, u := range m.Mentions {
		if u != nil && u.ID == id {
			return u
		}
	}
	return nil
}

// render turns a reply into a plain message or, when it has a title, an embed.
func render(r ports.Reply) *discordgo.MessageSend {
	if r.Title == "" && len(r.Fields) == 0 {
		return &discordgo.MessageSend{Content: r.Text}
	}
	embed := &discordgo.MessageEmbed{
		Title:       r.Title,
		Description: r.Text,
		Color:       embedColor,
	}
	for _, f := range r.Fields {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   f.Name,
			Value:  f.Value,
			Inline: f.Inline,
		})
	}
	return &discordgo.MessageSend{Embeds: []*discordgo.MessageEmbed{embed}}
}
