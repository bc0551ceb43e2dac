package discord

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
)

const membersPageSize = 1000

// AdminNotifier implements ports.AdminNotifier by direct-messaging every
// non-bot member with the Administrator permission.
type AdminNotifier struct {
	session Session
	log     zerolog.Logger
}

// NewAdminNotifier creates an AdminNotifier.
func NewAdminNotifier(session Session, log zerolog.Logger) *AdminNotifier {
	return &AdminNotifier{session: session, log: log}
}

// NotifyAdmins is best-effort: lookup and delivery failures are logged and skipped.
func (n *AdminNotifier) NotifyAdmins(ctx context.Context, guildID, message string) {
	log := n.log.With().Str("guild_id", guildID).Logger()

	guild, err := n.session.Guild(guildID)
	if err != nil {
		log.Warn().Err(err).Msg("admin notify: guild lookup failed")
		return
	}
	adminRoles := make(map[string]bool)
	for _, r := range guild.Roles {
		if r.Permissions&discordgo.PermissionAdministrator != 0 {
			adminRoles[r.ID] = true
		}
	}

	sent := 0
	after := ""
	for {
		if ctx.Err() != nil {
			return
		}
		prev := after
		members, err := n.session.GuildMembers(guildID, after, membersPageSize)
		if err != nil {
			log.Warn().Err(err).Msg("admin notify: member listing failed")
			return
		}
		for _, m := range members {
			if m.User == nil {
				continue
			}
			after = m.User.ID
			if m.User.Bot || !isAdmin(guild, adminRoles, m) {
				continue
			}
			if n.send(m.User.ID, message) {
				sent++
			} else {
				log.Debug().Str("user_id", m.User.ID).Msg("admin notify: DM not delivered")
			}
		}
		if len(members) < membersPageSize || after == prev {
			break
		}
	}

	log.Info().Int("recipients", sent).Msg("admins notified")
}

func (n *AdminNotifier) send(userID, message string) bool {
	ch, err := n.session.UserChannelCreate(userID)
	if err != nil {
		return false
	}
	_, err = n.session.ChannelMessageSend(ch.ID, message)
	return err == nil
}

func isAdmin(guild *discordgo.Guild, adminRoles map[string]bool, m *discordgo.Member) bool {
	if guild.OwnerID != "" && m.User.ID == guild.OwnerID {
		return true
	}
	for _, id := range m.Roles {
		if adminRoles[id] {
			return true
		}
	}
	return false
}
