package discord

import (
	"context"
	"log"

	"github.com/bwmarrin/discordgo"
)

// Messenger implementa plugin.Messenger sobre la sesión. Un envío
// fallido se loguea y se devuelve; los reintentos no son cosa nuestra.
type Messenger struct {
	s *discordgo.Session
}

func NewMessenger(s *discordgo.Session) *Messenger {
	return &Messenger{s: s}
}

func (m *Messenger) Send(ctx context.Context, channelID, content string) error {
	_, err := m.s.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx))
	if err != nil {
		log.Printf("send a %s: %v", channelID, err)
	}
	return err
}
