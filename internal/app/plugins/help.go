package plugins

import (
	"context"
	"sort"
	"strings"

	"github.com/jose-valero/rickbot/internal/app/plugin"
	"github.com/jose-valero/rickbot/internal/domain"
)

const helpName = "Help"

const helpFallback = "There are no commands for me to show! :cry:"

// Help arma el resumen de comandos a partir de los plugins habilitados
// que exponen la capability Describable.
type Help struct {
	registry *plugin.Registry
	msg      plugin.Messenger
}

func NewHelp(registry *plugin.Registry, msg plugin.Messenger) *Help {
	return &Help{registry: registry, msg: msg}
}

func (p *Help) Descriptor() plugin.Descriptor {
	return plugin.Descriptor{
		Name: helpName,
		Handlers: map[domain.EventKind]plugin.HandlerFunc{
			domain.EventMessage: p.onMessage,
		},
	}
}

func (p *Help) onMessage(ctx context.Context, ev domain.Event) error {
	m := ev.Message
	if m == nil || m.Content != "!help" {
		return nil
	}
	text, err := p.Generate(ctx, m.GuildID)
	if err != nil {
		return err
	}
	return p.msg.Send(ctx, m.ChannelID, text)
}

// Generate compone la ayuda del guild: plugins habilitados (menos este),
// ordenados por nombre para que la salida sea determinista.
func (p *Help) Generate(ctx context.Context, guildID string) (string, error) {
	enabled, err := p.registry.EnabledFor(ctx, guildID)
	if err != nil {
		return "", err
	}
	sort.Slice(enabled, func(i, j int) bool { return enabled[i].Name < enabled[j].Name })

	var b strings.Builder
	for _, reg := range enabled {
		if reg.Name == helpName {
			continue
		}
		d, ok := reg.Plugin.(plugin.Describable)
		if !ok {
			continue
		}
		cmds := d.Commands(ctx, guildID)
		if len(cmds) == 0 {
			continue
		}
		b.WriteString("**" + d.DisplayName() + "**\n")
		for _, c := range cmds {
			b.WriteString("   **" + c.Name + "**")
			if c.Description != "" {
				b.WriteString(" " + c.Description)
			}
			b.WriteString("\n")
		}
	}
	if b.Len() == 0 {
		return helpFallback, nil
	}
	return b.String(), nil
}
