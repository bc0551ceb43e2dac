package discord

import (
	"errors"
	"sync"

	"github.com/bwmarrin/discordgo"
)

// fakeSession records outgoing traffic and serves canned guild data.
type fakeSession struct {
	mu sync.Mutex

	perms       map[string]int64 // user id -> channel permissions
	permsErr    error
	guild       *discordgo.Guild
	guildErr    error
	members     []*discordgo.Member
	dmFail      map[string]bool
	sent        map[string][]*discordgo.MessageSend // channel id -> messages
	dms         map[string][]string                 // user id -> DM contents
	memberPages int
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		perms:  map[string]int64{},
		dmFail: map[string]bool{},
		sent:   map[string][]*discordgo.MessageSend{},
		dms:    map[string][]string{},
	}
}

func (f *fakeSession) ChannelMessageSend(channelID, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	userID := channelID[len("dm-"):]
	f.dms[userID] = append(f.dms[userID], content)
	return &discordgo.Message{ChannelID: channelID, Content: content}, nil
}

func (f *fakeSession) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent[channelID] = append(f.sent[channelID], data)
	return &discordgo.Message{ChannelID: channelID}, nil
}

func (f *fakeSession) UserChannelPermissions(userID, _ string, _ ...discordgo.RequestOption) (int64, error) {
	if f.permsErr != nil {
		return 0, f.permsErr
	}
	return f.perms[userID], nil
}

func (f *fakeSession) UserChannelCreate(recipientID string, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	if f.dmFail[recipientID] {
		return nil, errors.New("cannot send messages to this user")
	}
	return &discordgo.Channel{ID: "dm-" + recipientID}, nil
}

func (f *fakeSession) Guild(guildID string, _ ...discordgo.RequestOption) (*discordgo.Guild, error) {
	if f.guildErr != nil {
		return nil, f.guildErr
	}
	return f.guild, nil
}

func (f *fakeSession) GuildMember(_, userID string, _ ...discordgo.RequestOption) (*discordgo.Member, error) {
	for _, m := range f.members {
		if m.User != nil && m.User.ID == userID {
			return m, nil
		}
	}
	return nil, errors.New("unknown member")
}

func (f *fakeSession) GuildMembers(_ string, after string, limit int, _ ...discordgo.RequestOption) ([]*discordgo.Member, error) {
	f.mu.Lock()
	f.memberPages++
	f.mu.Unlock()

	start := 0
	if after != "" {
		for i, m := range f.members {
			if m.User != nil && m.User.ID == after {
				start = i + 1
			}
		}
	}
	end := start + limit
	if end > len(f.members) {
		end = len(f.members)
	}
	return f.members[start:end], nil
}
