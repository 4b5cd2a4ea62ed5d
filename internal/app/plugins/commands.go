package plugins

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/jose-valero/rickbot/internal/app/plugin"
	"github.com/jose-valero/rickbot/internal/domain"
	"github.com/jose-valero/rickbot/internal/infra/storage"
)

const (
	commandsName  = "Commands"
	triggerMarker = "!"

	maxTriggerLen  = 15
	maxResponseLen = 2000
)

// el trigger sin el marcador: letras, dígitos, guión y guión bajo
var triggerRe = regexp.MustCompile(`^[A-Za-z0-9_-]{1,15}$`)

// Commands responde triggers custom del guild con texto literal. La
// tabla la edita la superficie administrativa vía AddCommand /
// RemoveCommand; el path de eventos solo la lee.
type Commands struct {
	kv  storage.KV
	msg plugin.Messenger
}

func NewCommands(kv storage.KV, msg plugin.Messenger) *Commands {
	return &Commands{kv: kv, msg: msg}
}

func (p *Commands) Descriptor() plugin.Descriptor {
	return plugin.Descriptor{
		Name: commandsName,
		Handlers: map[domain.EventKind]plugin.HandlerFunc{
			domain.EventMessage: p.onMessage,
		},
	}
}

func (p *Commands) DisplayName() string { return "Custom commands" }

// Commands lista los triggers del guild para la ayuda.
func (p *Commands) Commands(ctx context.Context, guildID string) []plugin.CommandInfo {
	triggers, err := p.kv.SMembers(ctx, p.key(guildID, "commands"))
	if err != nil {
		return nil
	}
	sort.Strings(triggers)
	out := make([]plugin.CommandInfo, 0, len(triggers))
	for _, t := range triggers {
		out = append(out, plugin.CommandInfo{Name: t})
	}
	return out
}

func (p *Commands) key(guildID, rest string) string {
	return plugin.Key(commandsName, guildID, rest)
}

func (p *Commands) onMessage(ctx context.Context, ev domain.Event) error {
	m := ev.Message
	if m == nil || m.Content == "" {
		return nil
	}
	// match exacto del contenido completo, sin substring ni case-folding
	hit, err := p.kv.SIsMember(ctx, p.key(m.GuildID, "commands"), m.Content)
	if err != nil {
		return err
	}
	if !hit {
		return nil
	}
	resp, err := p.kv.Get(ctx, p.key(m.GuildID, "command:"+m.Content))
	if errors.Is(err, storage.ErrNotFound) {
		// el set y la tabla de respuestas quedaron fuera de sync
		return fmt.Errorf("command %q sin respuesta guardada", m.Content)
	}
	if err != nil {
		return err
	}
	return p.msg.Send(ctx, m.ChannelID, resp)
}

// AddCommand registra o pisa un trigger. Lo invoca la superficie
// administrativa; las violaciones de límites no mutan storage.
func (p *Commands) AddCommand(ctx context.Context, guildID, trigger, response string) error {
	trigger = strings.TrimPrefix(trigger, triggerMarker)
	if !triggerRe.MatchString(trigger) {
		return &ValidationError{Msg: fmt.Sprintf(
			"command name must be 1-%d characters of letters, digits, '_' or '-'", maxTriggerLen)}
	}
	if len(response) == 0 || len(response) > maxResponseLen {
		return &ValidationError{Msg: fmt.Sprintf(
			"command response must be 1-%d characters", maxResponseLen)}
	}
	full := triggerMarker + trigger
	if err := p.kv.Set(ctx, p.key(guildID, "command:"+full), response, 0); err != nil {
		return err
	}
	return p.kv.SAdd(ctx, p.key(guildID, "commands"), full)
}

func (p *Commands) RemoveCommand(ctx context.Context, guildID, trigger string) error {
	full := triggerMarker + strings.TrimPrefix(trigger, triggerMarker)
	if err := p.kv.SRem(ctx, p.key(guildID, "commands"), full); err != nil {
		return err
	}
	return p.kv.Del(ctx, p.key(guildID, "command:"+full))
}
