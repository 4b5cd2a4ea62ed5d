// Package discord adapta la sesión de discordgo al modelo de eventos
// del runtime. Ningún tipo de discordgo cruza hacia internal/app.
package discord

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/rickbot/internal/app/plugin"
	"github.com/jose-valero/rickbot/internal/domain"
)

type Gateway struct {
	s          *discordgo.Session
	dispatcher *plugin.Dispatcher
}

func NewGateway(s *discordgo.Session, dispatcher *plugin.Dispatcher) *Gateway {
	return &Gateway{s: s, dispatcher: dispatcher}
}

// Bind registra los handlers de la sesión. Cada uno traduce el payload
// de discordgo a un domain.Event y lo entrega al dispatcher.
func (g *Gateway) Bind() {
	g.s.AddHandler(g.onReady)
	g.s.AddHandler(g.onMessageCreate)
	g.s.AddHandler(g.onGuildMemberAdd)
	g.s.AddHandler(g.onGuildCreate)
	g.s.AddHandler(g.onGuildDelete)
}

func (g *Gateway) onReady(_ *discordgo.Session, _ *discordgo.Ready) {
	g.dispatcher.Dispatch(context.Background(), domain.Event{Kind: domain.EventReady})
}

func (g *Gateway) onMessageCreate(_ *discordgo.Session, m *discordgo.MessageCreate) {
	msg := &domain.Message{
		ID:        m.ID,
		GuildID:   m.GuildID,
		ChannelID: m.ChannelID,
		Content:   m.Content,
		Author:    toUser(m.Author),
	}
	if m.Member != nil {
		msg.AuthorRoles = m.Member.Roles
	}
	for _, u := range m.Mentions {
		msg.Mentions = append(msg.Mentions, toUser(u))
	}
	g.dispatcher.Dispatch(context.Background(), domain.Event{
		Kind:    domain.EventMessage,
		GuildID: m.GuildID,
		Message: msg,
		Guild:   g.guildInfo(m.GuildID),
	})
}

func (g *Gateway) onGuildMemberAdd(_ *discordgo.Session, m *discordgo.GuildMemberAdd) {
	g.dispatcher.Dispatch(context.Background(), domain.Event{
		Kind:    domain.EventMemberJoin,
		GuildID: m.GuildID,
		Member: &domain.Member{
			User:    toUser(m.User),
			GuildID: m.GuildID,
			Roles:   m.Roles,
		},
		Guild: g.guildInfo(m.GuildID),
	})
}

func (g *Gateway) onGuildCreate(_ *discordgo.Session, gc *discordgo.GuildCreate) {
	g.dispatcher.Dispatch(context.Background(), domain.Event{
		Kind:    domain.EventGuildCreate,
		GuildID: gc.ID,
		Guild: &domain.Guild{
			ID:              gc.ID,
			Name:            gc.Name,
			Icon:            gc.Icon,
			SystemChannelID: gc.SystemChannelID,
		},
	})
}

func (g *Gateway) onGuildDelete(_ *discordgo.Session, gd *discordgo.GuildDelete) {
	g.dispatcher.Dispatch(context.Background(), domain.Event{
		Kind:    domain.EventGuildRemove,
		GuildID: gd.ID,
	})
}

func (g *Gateway) guildInfo(guildID string) *domain.Guild {
	if guildID == "" {
		return nil
	}
	gld, err := g.s.State.Guild(guildID)
	if err != nil || gld == nil {
		return nil
	}
	return &domain.Guild{
		ID:              gld.ID,
		Name:            gld.Name,
		Icon:            gld.Icon,
		SystemChannelID: gld.SystemChannelID,
	}
}

func toUser(u *discordgo.User) domain.User {
	if u == nil {
		return domain.User{}
	}
	return domain.User{
		ID:            u.ID,
		Name:          u.Username,
		Discriminator: u.Discriminator,
		Avatar:        u.Avatar,
		Bot:           u.Bot,
	}
}
