package discord

import "github.com/bwmarrin/discordgo"

// Channels implementa plugin.ChannelResolver sobre el state de la
// sesión; no pega al REST API en el hot path.
type Channels struct {
	s *discordgo.Session
}

func NewChannels(s *discordgo.Session) *Channels {
	return &Channels{s: s}
}

func (c *Channels) ChannelByName(guildID, name string) (string, bool) {
	gld, err := c.s.State.Guild(guildID)
	if err != nil || gld == nil {
		return "", false
	}
	for _, ch := range gld.Channels {
		if ch.Name == name && ch.Type == discordgo.ChannelTypeGuildText {
			return ch.ID, true
		}
	}
	return "", false
}

// DefaultChannel devuelve el canal de sistema del guild, o el primer
// canal de texto si no hay uno configurado.
func (c *Channels) DefaultChannel(guildID string) string {
	gld, err := c.s.State.Guild(guildID)
	if err != nil || gld == nil {
		return ""
	}
	if gld.SystemChannelID != "" {
		return gld.SystemChannelID
	}
	for _, ch := range gld.Channels {
		if ch.Type == discordgo.ChannelTypeGuildText {
			return ch.ID
		}
	}
	return ""
}
