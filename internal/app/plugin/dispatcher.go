package plugin

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/jose-valero/rickbot/internal/domain"
	"github.com/jose-valero/rickbot/internal/infra/storage"
)

// Dispatcher rutea cada evento entrante: los eventos de ciclo de vida
// los maneja él mismo en forma síncrona, el resto se abre en una
// goroutine por plugin habilitado. Entre plugins no hay garantía de
// orden y un fallo en uno no toca a los hermanos.
type Dispatcher struct {
	registry *Registry
	kv       storage.KV
	reporter Reporter

	wg sync.WaitGroup
}

func NewDispatcher(registry *Registry, kv storage.KV, reporter Reporter) *Dispatcher {
	if reporter == nil {
		reporter = LogReporter{}
	}
	return &Dispatcher{registry: registry, kv: kv, reporter: reporter}
}

func (d *Dispatcher) Dispatch(ctx context.Context, ev domain.Event) {
	switch ev.Kind {
	case domain.EventReady:
		log.Println("✅ gateway listo, despachando eventos")
		return
	case domain.EventGuildCreate:
		d.handleGuildCreate(ctx, ev)
		return
	case domain.EventGuildRemove:
		d.handleGuildRemove(ctx, ev)
		return
	}

	if ev.GuildID == "" {
		// evento sin guild: no es ruteable a plugins
		return
	}

	enabled, err := d.registry.EnabledFor(ctx, ev.GuildID)
	if err != nil {
		d.reporter.Report(ctx, "dispatch", err)
		return
	}
	for _, reg := range enabled {
		h, ok := reg.Handlers[ev.Kind]
		if !ok {
			continue
		}
		d.wg.Add(1)
		go d.run(ctx, reg.Name, h, ev)
	}
}

// run es la frontera de aislamiento de cada unidad de trabajo: panics y
// errores se reportan acá y no se propagan.
func (d *Dispatcher) run(ctx context.Context, name string, h HandlerFunc, ev domain.Event) {
	defer d.wg.Done()
	defer func() {
		if rec := recover(); rec != nil {
			d.reporter.Report(ctx, "plugin "+name, fmt.Errorf("panic: %v", rec))
		}
	}()
	if err := h(ctx, ev); err != nil {
		d.reporter.Report(ctx, "plugin "+name, err)
	}
}

// Wait drena las unidades en vuelo; se usa en el shutdown.
func (d *Dispatcher) Wait() { d.wg.Wait() }

func (d *Dispatcher) handleGuildCreate(ctx context.Context, ev domain.Event) {
	g := ev.Guild
	if g == nil {
		return
	}
	if err := d.kv.SAdd(ctx, ServersKey, g.ID); err != nil {
		d.reporter.Report(ctx, "guild create", err)
		return
	}
	if err := d.kv.Set(ctx, ServerNameKey(g.ID), g.Name, 0); err != nil {
		d.reporter.Report(ctx, "guild create", err)
	}
	if g.Icon != "" {
		if err := d.kv.Set(ctx, ServerIconKey(g.ID), g.Icon, 0); err != nil {
			d.reporter.Report(ctx, "guild create", err)
		}
	}
}

func (d *Dispatcher) handleGuildRemove(ctx context.Context, ev domain.Event) {
	if ev.GuildID == "" {
		return
	}
	if err := d.kv.SRem(ctx, ServersKey, ev.GuildID); err != nil {
		d.reporter.Report(ctx, "guild remove", err)
		return
	}
	if err := d.kv.Del(ctx, ServerNameKey(ev.GuildID), ServerIconKey(ev.GuildID)); err != nil {
		d.reporter.Report(ctx, "guild remove", err)
	}
}
