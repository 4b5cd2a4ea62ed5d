package plugins

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jose-valero/rickbot/internal/app/level"
	"github.com/jose-valero/rickbot/internal/app/plugin"
	"github.com/jose-valero/rickbot/internal/domain"
	"github.com/jose-valero/rickbot/internal/infra/storage"
)

const (
	levelsName = "Levels"

	// ventana por defecto cuando el guild no configuró `:cooldown`
	defaultCooldown = 60 * time.Second

	leaderboardSize = 10
)

// Levels acumula XP por mensaje con un cooldown por (guild, actor) y
// responde las consultas `!levels` y `!xp`.
type Levels struct {
	kv     storage.KV
	msg    plugin.Messenger
	gate   *CooldownGate
	selfID string

	// randXP produce el incremento de cada grant; inyectable en tests
	randXP func() int64
}

func NewLevels(kv storage.KV, msg plugin.Messenger, selfID string) *Levels {
	return &Levels{
		kv:     kv,
		msg:    msg,
		gate:   NewCooldownGate(kv),
		selfID: selfID,
		randXP: func() int64 { return rand.Int64N(6) + 5 }, // [5,10]
	}
}

func (p *Levels) Descriptor() plugin.Descriptor {
	return plugin.Descriptor{
		Name: levelsName,
		Handlers: map[domain.EventKind]plugin.HandlerFunc{
			domain.EventMessage: p.onMessage,
		},
	}
}

func (p *Levels) DisplayName() string { return "Levels" }

func (p *Levels) Commands(context.Context, string) []plugin.CommandInfo {
	return []plugin.CommandInfo{
		{Name: "!levels", Description: "Gives you the leaderboard for your server!"},
		{Name: "!xp", Description: "Gives you your xp, level and rank"},
	}
}

func (p *Levels) key(guildID, rest string) string {
	return plugin.Key(levelsName, guildID, rest)
}

func (p *Levels) onMessage(ctx context.Context, ev domain.Event) error {
	m := ev.Message
	if m == nil || m.Author.ID == p.selfID {
		return nil
	}
	switch {
	case m.Content == "!levels":
		return p.leaderboard(ctx, ev)
	case m.Content == "!xp" || strings.HasPrefix(m.Content, "!xp "):
		return p.report(ctx, ev)
	}
	return p.accrue(ctx, ev)
}

// banned chequea las listas de exclusión del guild; un actor baneado ni
// consulta ni acumula.
func (p *Levels) banned(ctx context.Context, guildID, userID string, roles []string) (bool, error) {
	ok, err := p.kv.SIsMember(ctx, p.key(guildID, "banned_members"), userID)
	if err != nil || ok {
		return ok, err
	}
	for _, role := range roles {
		ok, err := p.kv.SIsMember(ctx, p.key(guildID, "banned_roles"), role)
		if err != nil || ok {
			return ok, err
		}
	}
	return false, nil
}

func (p *Levels) accrue(ctx context.Context, ev domain.Event) error {
	m := ev.Message
	if b, err := p.banned(ctx, m.GuildID, m.Author.ID, m.AuthorRoles); err != nil || b {
		return err
	}

	if err := p.kv.SAdd(ctx, p.key(m.GuildID, "players"), m.Author.ID); err != nil {
		return err
	}
	// snapshot de nombre/avatar y metadata del server: best-effort,
	// fuera del invariante de XP
	profileErr := p.snapshotProfile(ctx, ev)

	ttl, err := p.cooldown(ctx, m.GuildID)
	if err != nil {
		return err
	}
	granted, err := p.gate.TryGrant(ctx, levelsName, m.GuildID, m.Author.ID, ttl)
	if err != nil {
		return err
	}
	if !granted {
		// dentro de la ventana: sin cambio de XP
		return profileErr
	}

	prevLvl := 0
	lvlKey := p.key(m.GuildID, "player:"+m.Author.ID+":lvl")
	if raw, err := p.kv.Get(ctx, lvlKey); err == nil {
		prevLvl, _ = strconv.Atoi(raw)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	total, err := p.kv.IncrBy(ctx, p.key(m.GuildID, "player:"+m.Author.ID+":xp"), p.randXP())
	if err != nil {
		return err
	}
	newLvl := level.FromXP(total)
	// el nivel guardado es un cache del recálculo, nunca fuente de verdad
	if err := p.kv.Set(ctx, lvlKey, strconv.Itoa(newLvl), 0); err != nil {
		return err
	}

	if newLvl > prevLvl {
		if err := p.announce(ctx, m, newLvl); err != nil {
			return err
		}
	}
	return profileErr
}

func (p *Levels) snapshotProfile(ctx context.Context, ev domain.Event) error {
	m := ev.Message
	var errs []error
	set := func(key, val string) {
		if val == "" {
			return
		}
		if err := p.kv.Set(ctx, key, val, 0); err != nil {
			errs = append(errs, err)
		}
	}
	if g := ev.Guild; g != nil {
		set(plugin.ServerNameKey(g.ID), g.Name)
		set(plugin.ServerIconKey(g.ID), g.Icon)
	}
	prefix := "player:" + m.Author.ID + ":"
	set(p.key(m.GuildID, prefix+"name"), m.Author.Name)
	set(p.key(m.GuildID, prefix+"discriminator"), m.Author.Discriminator)
	set(p.key(m.GuildID, prefix+"avatar"), m.Author.Avatar)
	return errors.Join(errs...)
}

func (p *Levels) cooldown(ctx context.Context, guildID string) (time.Duration, error) {
	key := p.key(guildID, "cooldown")
	raw, err := p.kv.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return defaultCooldown, nil
	}
	if err != nil {
		return 0, err
	}
	secs, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, &ConfigError{Key: key, Err: err}
	}
	return time.Duration(secs) * time.Second, nil
}

func (p *Levels) announce(ctx context.Context, m *domain.Message, newLvl int) error {
	enabled, err := p.kv.Get(ctx, p.key(m.GuildID, "announcement_enabled"))
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if enabled == "" || enabled == "0" || enabled == "false" {
		return nil
	}
	tmplKey := p.key(m.GuildID, "announcement")
	tmpl, err := p.kv.Get(ctx, tmplKey)
	if errors.Is(err, storage.ErrNotFound) {
		return &ConfigError{Key: tmplKey, Err: err}
	}
	if err != nil {
		return err
	}
	text := strings.NewReplacer(
		"{player}", m.Author.Mention(),
		"{level}", strconv.Itoa(newLvl),
	).Replace(tmpl)
	return p.msg.Send(ctx, m.ChannelID, text)
}

func (p *Levels) report(ctx context.Context, ev domain.Event) error {
	m := ev.Message
	if b, err := p.banned(ctx, m.GuildID, m.Author.ID, m.AuthorRoles); err != nil || b {
		return err
	}

	target := m.Author
	if len(m.Mentions) > 0 {
		target = m.Mentions[0]
	}

	ranked, err := p.kv.SIsMember(ctx, p.key(m.GuildID, "players"), target.ID)
	if err != nil {
		return err
	}
	if !ranked {
		return p.msg.Send(ctx, m.ChannelID, fmt.Sprintf(
			"**%s**. It looks like you haven't been ranked yet. "+
				"Get talking in the chats to get ranked and assigned xp!",
			target.Mention()))
	}

	raw, err := p.kv.Get(ctx, p.key(m.GuildID, "player:"+target.ID+":xp"))
	if err != nil {
		return err
	}
	total, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("xp de %s corrupto: %w", target.ID, err)
	}
	lvl, into, needed := level.Progress(total)
	rank, count, err := p.rank(ctx, m.GuildID, target.ID)
	if err != nil {
		return err
	}
	return p.msg.Send(ctx, m.ChannelID, fmt.Sprintf(
		"%s: **Level %d** | **XP %d/%d** | **Total XP %d** | **Rank %d/%d**",
		target.Mention(), lvl, into, needed, total, rank, count))
}

func (p *Levels) leaderboard(ctx context.Context, ev domain.Event) error {
	m := ev.Message
	guildName := m.GuildID
	if ev.Guild != nil && ev.Guild.Name != "" {
		guildName = ev.Guild.Name
	}
	players, err := p.topPlayers(ctx, m.GuildID, leaderboardSize)
	if err != nil {
		return err
	}
	if len(players) == 0 {
		return p.msg.Send(ctx, m.ChannelID, fmt.Sprintf(
			"Nobody is ranked in **%s** yet. Get talking! :speech_balloon:", guildName))
	}
	var b strings.Builder
	fmt.Fprintf(&b, ":trophy: **%s** leaderboard:\n", guildName)
	for i, pl := range players {
		name := pl.ID
		if n, err := p.kv.Get(ctx, p.key(m.GuildID, "player:"+pl.ID+":name")); err == nil && n != "" {
			name = n
		}
		fmt.Fprintf(&b, "%d) **%s** — Level %d · %d XP\n", i+1, name, level.FromXP(pl.XP), pl.XP)
	}
	return p.msg.Send(ctx, m.ChannelID, b.String())
}

type rankedPlayer struct {
	ID string
	XP int64
}

// topPlayers ordena el set de jugadores por la clave externa de XP
// (SORT BY) y deshace los empates en el cliente por id ascendente, para
// que el orden sea determinista venga del backend que venga. n <= 0
// trae el set completo.
func (p *Levels) topPlayers(ctx context.Context, guildID string, n int64) ([]rankedPlayer, error) {
	flat, err := p.kv.Sort(ctx, p.key(guildID, "players"), storage.SortArgs{
		By:    p.key(guildID, "player:*:xp"),
		Get:   []string{"#", p.key(guildID, "player:*:xp")},
		Count: n,
		Desc:  true,
	})
	if err != nil {
		return nil, err
	}
	out := make([]rankedPlayer, 0, len(flat)/2)
	for i := 0; i+1 < len(flat); i += 2 {
		xp, _ := strconv.ParseInt(flat[i+1], 10, 64)
		out = append(out, rankedPlayer{ID: flat[i], XP: xp})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].XP != out[j].XP {
			return out[i].XP > out[j].XP
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// rank devuelve la posición 1-based por XP descendente y el total de
// jugadores rankeados del guild.
func (p *Levels) rank(ctx context.Context, guildID, userID string) (int, int, error) {
	players, err := p.topPlayers(ctx, guildID, -1)
	if err != nil {
		return 0, 0, err
	}
	for i, pl := range players {
		if pl.ID == userID {
			return i + 1, len(players), nil
		}
	}
	return 0, len(players), nil
}
