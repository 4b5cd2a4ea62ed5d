package plugins

import (
	"context"
	"sync"

	"github.com/jose-valero/rickbot/internal/domain"
)

type sentMessage struct {
	ChannelID string
	Content   string
}

type fakeMessenger struct {
	mu   sync.Mutex
	fail error
	sent []sentMessage
}

func (f *fakeMessenger) Send(_ context.Context, channelID, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.sent = append(f.sent, sentMessage{ChannelID: channelID, Content: content})
	return nil
}

func (f *fakeMessenger) messages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent...)
}

type fakeChannels struct {
	byName map[string]string
	def    string
}

func (f *fakeChannels) ChannelByName(_, name string) (string, bool) {
	id, ok := f.byName[name]
	return id, ok
}

func (f *fakeChannels) DefaultChannel(string) string { return f.def }

func msgEvent(guildID, channelID, authorID, content string) domain.Event {
	return domain.Event{
		Kind:    domain.EventMessage,
		GuildID: guildID,
		Message: &domain.Message{
			GuildID:   guildID,
			ChannelID: channelID,
			Content:   content,
			Author:    domain.User{ID: authorID, Name: "user-" + authorID},
		},
		Guild: &domain.Guild{ID: guildID, Name: "Test Guild"},
	}
}
