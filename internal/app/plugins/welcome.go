package plugins

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jose-valero/rickbot/internal/app/plugin"
	"github.com/jose-valero/rickbot/internal/domain"
	"github.com/jose-valero/rickbot/internal/infra/storage"
)

const welcomeName = "Welcome"

// Welcome saluda a cada miembro que entra, en el canal configurado o en
// el destino por defecto del guild. Un envío fallido se reporta, no se
// reintenta.
type Welcome struct {
	kv       storage.KV
	msg      plugin.Messenger
	channels plugin.ChannelResolver
}

func NewWelcome(kv storage.KV, msg plugin.Messenger, channels plugin.ChannelResolver) *Welcome {
	return &Welcome{kv: kv, msg: msg, channels: channels}
}

func (p *Welcome) Descriptor() plugin.Descriptor {
	return plugin.Descriptor{
		Name: welcomeName,
		Handlers: map[domain.EventKind]plugin.HandlerFunc{
			domain.EventMemberJoin: p.onMemberJoin,
		},
	}
}

func (p *Welcome) key(guildID, rest string) string {
	return plugin.Key(welcomeName, guildID, rest)
}

func (p *Welcome) onMemberJoin(ctx context.Context, ev domain.Event) error {
	member := ev.Member
	if member == nil {
		return nil
	}
	tmplKey := p.key(member.GuildID, "welcome_message")
	tmpl, err := p.kv.Get(ctx, tmplKey)
	if errors.Is(err, storage.ErrNotFound) {
		return &ConfigError{Key: tmplKey, Err: err}
	}
	if err != nil {
		return err
	}

	guildName := member.GuildID
	if ev.Guild != nil && ev.Guild.Name != "" {
		guildName = ev.Guild.Name
	}
	text := strings.NewReplacer(
		"{server}", guildName,
		"{user}", member.User.Mention(),
	).Replace(tmpl)

	dest := p.channels.DefaultChannel(member.GuildID)
	if name, err := p.kv.Get(ctx, p.key(member.GuildID, "channel_name")); err == nil && name != "" {
		if id, ok := p.channels.ChannelByName(member.GuildID, name); ok {
			dest = id
		}
	}
	if dest == "" {
		return fmt.Errorf("guild %s sin destino para la bienvenida", member.GuildID)
	}
	return p.msg.Send(ctx, dest, text)
}
