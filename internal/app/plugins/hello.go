package plugins

import (
	"context"
	"fmt"

	"github.com/jose-valero/rickbot/internal/app/plugin"
	"github.com/jose-valero/rickbot/internal/domain"
)

const helloName = "Hello"

// Hello es el plugin de humo: saluda al que escribe `!hello`.
type Hello struct {
	msg plugin.Messenger
}

func NewHello(msg plugin.Messenger) *Hello {
	return &Hello{msg: msg}
}

func (p *Hello) Descriptor() plugin.Descriptor {
	return plugin.Descriptor{
		Name: helloName,
		Handlers: map[domain.EventKind]plugin.HandlerFunc{
			domain.EventMessage: p.onMessage,
		},
	}
}

func (p *Hello) onMessage(ctx context.Context, ev domain.Event) error {
	m := ev.Message
	if m == nil || m.Content != "!hello" {
		return nil
	}
	guildName := m.GuildID
	if ev.Guild != nil && ev.Guild.Name != "" {
		guildName = ev.Guild.Name
	}
	return p.msg.Send(ctx, m.ChannelID,
		fmt.Sprintf("Hello! %s from %s!", m.Author.Mention(), guildName))
}
