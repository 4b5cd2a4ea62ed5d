// Package plugin contiene el runtime de plugins: catálogo estático,
// resolución del set habilitado por guild y el dispatcher que hace el
// fan-out concurrente de eventos.
package plugin

import (
	"context"
	"fmt"

	"github.com/jose-valero/rickbot/internal/domain"
	"github.com/jose-valero/rickbot/internal/infra/storage"
)

// HandlerFunc procesa un evento ya resuelto a un guild.
type HandlerFunc func(ctx context.Context, ev domain.Event) error

// Descriptor declara un plugin: nombre único en el catálogo y la tabla
// evento → handler, construida una sola vez al registrarlo. Nada de
// descubrir handlers por nombre en runtime.
type Descriptor struct {
	Name     string
	Handlers map[domain.EventKind]HandlerFunc
}

// Plugin es lo mínimo que implementa cada feature module.
type Plugin interface {
	Descriptor() Descriptor
}

// CommandInfo describe un comando de usuario para el listado de ayuda.
type CommandInfo struct {
	Name        string
	Description string
}

// Describable es la capability opcional que un plugin implementa
// directamente para aparecer en la ayuda; se chequea por aserción de
// interfaz, no por atributos parchados.
type Describable interface {
	DisplayName() string
	Commands(ctx context.Context, guildID string) []CommandInfo
}

// Registered es una entrada del catálogo: la instancia más su descriptor
// ya resuelto.
type Registered struct {
	Plugin   Plugin
	Name     string
	Handlers map[domain.EventKind]HandlerFunc
}

// Registry es el catálogo inmutable de plugins conocidos. Se llena una
// vez en el arranque; después solo se lee.
type Registry struct {
	kv      storage.KV
	byName  map[string]*Registered
	ordered []*Registered
}

func NewRegistry(kv storage.KV) *Registry {
	return &Registry{
		kv:     kv,
		byName: make(map[string]*Registered),
	}
}

// Register agrega un plugin al catálogo. Nombre duplicado es un error de
// programación y se corta en el arranque, no en pleno dispatch.
func (r *Registry) Register(p Plugin) error {
	desc := p.Descriptor()
	if desc.Name == "" {
		return fmt.Errorf("plugin sin nombre")
	}
	if _, dup := r.byName[desc.Name]; dup {
		return fmt.Errorf("plugin %q registrado dos veces", desc.Name)
	}
	reg := &Registered{Plugin: p, Name: desc.Name, Handlers: desc.Handlers}
	r.byName[desc.Name] = reg
	r.ordered = append(r.ordered, reg)
	return nil
}

// EnabledFor devuelve los plugins activos para un guild: una sola
// lectura del set `plugins:<id>` intersectada con el catálogo. Nombres
// desconocidos (plugins viejos, typos del dashboard) se ignoran.
func (r *Registry) EnabledFor(ctx context.Context, guildID string) ([]*Registered, error) {
	names, err := r.kv.SMembers(ctx, EnabledKey(guildID))
	if err != nil {
		return nil, fmt.Errorf("enabled plugins de %s: %w", guildID, err)
	}
	enabled := make(map[string]struct{}, len(names))
	for _, n := range names {
		enabled[n] = struct{}{}
	}
	var out []*Registered
	for _, reg := range r.ordered {
		if _, ok := enabled[reg.Name]; ok {
			out = append(out, reg)
		}
	}
	return out, nil
}
