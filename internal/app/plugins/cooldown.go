package plugins

import (
	"context"
	"time"

	"github.com/jose-valero/rickbot/internal/app/plugin"
	"github.com/jose-valero/rickbot/internal/infra/storage"
)

// CooldownGate limita a un efecto por ventana por (guild, actor). La
// decisión es un único SET NX EX en el storage: un check de existencia
// seguido de un set separado sería una carrera bajo eventos
// concurrentes del mismo actor.
type CooldownGate struct {
	kv storage.KV
}

func NewCooldownGate(kv storage.KV) *CooldownGate {
	return &CooldownGate{kv: kv}
}

// TryGrant intenta crear el marcador de cooldown; true significa que la
// ventana estaba libre y el grant procede. El marcador expira solo,
// nunca se borra explícito. TTL <= 0 desactiva el gate para ese guild.
func (g *CooldownGate) TryGrant(ctx context.Context, pluginName, guildID, userID string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		return true, nil
	}
	key := plugin.Key(pluginName, guildID, "player:"+userID+":cooldown")
	return g.kv.SetNX(ctx, key, "1", ttl)
}
