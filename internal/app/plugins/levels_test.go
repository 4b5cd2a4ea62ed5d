package plugins

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/jose-valero/rickbot/internal/domain"
	"github.com/jose-valero/rickbot/internal/infra/storage"
)

func newLevelsForTest(t *testing.T) (*Levels, *storage.Memory, *fakeMessenger) {
	t.Helper()
	mem := storage.NewMemory()
	msgr := &fakeMessenger{}
	return NewLevels(mem, msgr, "bot-id"), mem, msgr
}

func handleMessage(t *testing.T, p *Levels, ev domain.Event) error {
	t.Helper()
	return p.Descriptor().Handlers[domain.EventMessage](context.Background(), ev)
}

func getXP(t *testing.T, mem *storage.Memory, guildID, userID string) int64 {
	t.Helper()
	raw, err := mem.Get(context.Background(), "Levels."+guildID+":player:"+userID+":xp")
	if errors.Is(err, storage.ErrNotFound) {
		return 0
	}
	if err != nil {
		t.Fatal(err)
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		t.Fatal(err)
	}
	return n
}

func TestLevels_AccrualGrantsXPInRange(t *testing.T) {
	p, mem, _ := newLevelsForTest(t)
	if err := handleMessage(t, p, msgEvent("g1", "c1", "u1", "hola gente")); err != nil {
		t.Fatal(err)
	}
	xp := getXP(t, mem, "g1", "u1")
	if xp < 5 || xp > 10 {
		t.Errorf("xp = %d, want in [5,10]", xp)
	}
	lvl, err := mem.Get(context.Background(), "Levels.g1:player:u1:lvl")
	if err != nil || lvl != "0" {
		t.Errorf("cached level = %q (err %v), want \"0\"", lvl, err)
	}
}

func TestLevels_CooldownBlocksSecondGrant(t *testing.T) {
	p, mem, _ := newLevelsForTest(t)
	p.randXP = func() int64 { return 5 }

	for i := 0; i < 2; i++ {
		if err := handleMessage(t, p, msgEvent("g1", "c1", "u1", "msg")); err != nil {
			t.Fatal(err)
		}
	}
	if xp := getXP(t, mem, "g1", "u1"); xp != 5 {
		t.Errorf("xp = %d, want 5 (second message inside the window)", xp)
	}
}

func TestLevels_CooldownZeroDisablesGate(t *testing.T) {
	p, mem, _ := newLevelsForTest(t)
	p.randXP = func() int64 { return 5 }
	mem.Set(context.Background(), "Levels.g1:cooldown", "0", 0)

	for i := 0; i < 3; i++ {
		if err := handleMessage(t, p, msgEvent("g1", "c1", "u1", "msg")); err != nil {
			t.Fatal(err)
		}
	}
	if xp := getXP(t, mem, "g1", "u1"); xp != 15 {
		t.Errorf("xp = %d, want 15 (gate disabled)", xp)
	}
}

func TestLevels_MalformedCooldownAbortsWithoutMutation(t *testing.T) {
	p, mem, _ := newLevelsForTest(t)
	mem.Set(context.Background(), "Levels.g1:cooldown", "sixty", 0)

	err := handleMessage(t, p, msgEvent("g1", "c1", "u1", "msg"))
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("want ConfigError, got %v", err)
	}
	if xp := getXP(t, mem, "g1", "u1"); xp != 0 {
		t.Errorf("xp = %d, want 0 (no grant on config error)", xp)
	}
}

func TestLevels_SelfMessagesIgnored(t *testing.T) {
	p, mem, msgr := newLevelsForTest(t)
	if err := handleMessage(t, p, msgEvent("g1", "c1", "bot-id", "!xp")); err != nil {
		t.Fatal(err)
	}
	if len(msgr.messages()) != 0 {
		t.Error("self message must not produce a reply")
	}
	if xp := getXP(t, mem, "g1", "bot-id"); xp != 0 {
		t.Error("self message must not accrue xp")
	}
}

func TestLevels_BannedMemberExcluded(t *testing.T) {
	ctx := context.Background()
	p, mem, msgr := newLevelsForTest(t)
	mem.SAdd(ctx, "Levels.g1:banned_members", "u1")

	if err := handleMessage(t, p, msgEvent("g1", "c1", "u1", "chatting away")); err != nil {
		t.Fatal(err)
	}
	if xp := getXP(t, mem, "g1", "u1"); xp != 0 {
		t.Errorf("banned member accrued %d xp", xp)
	}
	// el query explícito también queda bloqueado
	if err := handleMessage(t, p, msgEvent("g1", "c1", "u1", "!xp")); err != nil {
		t.Fatal(err)
	}
	if len(msgr.messages()) != 0 {
		t.Error("banned member must not get an !xp reply")
	}
}

func TestLevels_BannedRoleExcluded(t *testing.T) {
	ctx := context.Background()
	p, mem, _ := newLevelsForTest(t)
	mem.SAdd(ctx, "Levels.g1:banned_roles", "r9")

	ev := msgEvent("g1", "c1", "u1", "hola")
	ev.Message.AuthorRoles = []string{"r1", "r9"}
	if err := handleMessage(t, p, ev); err != nil {
		t.Fatal(err)
	}
	if xp := getXP(t, mem, "g1", "u1"); xp != 0 {
		t.Errorf("member with banned role accrued %d xp", xp)
	}
}

func TestLevels_AnnouncementOnLevelUp(t *testing.T) {
	ctx := context.Background()
	p, mem, msgr := newLevelsForTest(t)
	p.randXP = func() int64 { return 100 } // cruza el umbral del nivel 0 de una
	mem.Set(ctx, "Levels.g1:announcement_enabled", "1", 0)
	mem.Set(ctx, "Levels.g1:announcement", "GG {player}, you reached level {level}!", 0)

	if err := handleMessage(t, p, msgEvent("g1", "c1", "u1", "grinding")); err != nil {
		t.Fatal(err)
	}
	got := msgr.messages()
	if len(got) != 1 {
		t.Fatalf("want 1 announcement, got %d", len(got))
	}
	want := "GG <@u1>, you reached level 1!"
	if got[0].Content != want || got[0].ChannelID != "c1" {
		t.Errorf("announcement = %+v, want %q on c1", got[0], want)
	}
}

func TestLevels_NoAnnouncementWhenDisabled(t *testing.T) {
	ctx := context.Background()
	p, mem, msgr := newLevelsForTest(t)
	p.randXP = func() int64 { return 100 }
	mem.Set(ctx, "Levels.g1:announcement_enabled", "0", 0)
	mem.Set(ctx, "Levels.g1:announcement", "GG {player} {level}", 0)

	if err := handleMessage(t, p, msgEvent("g1", "c1", "u1", "grinding")); err != nil {
		t.Fatal(err)
	}
	if len(msgr.messages()) != 0 {
		t.Error("announcement disabled, no message expected")
	}
}

func seedPlayer(t *testing.T, mem *storage.Memory, guildID, userID string, xp int64) {
	t.Helper()
	ctx := context.Background()
	mem.SAdd(ctx, "Levels."+guildID+":players", userID)
	mem.Set(ctx, "Levels."+guildID+":player:"+userID+":xp", strconv.FormatInt(xp, 10), 0)
	mem.Set(ctx, "Levels."+guildID+":player:"+userID+":name", "user-"+userID, 0)
}

func TestLevels_XPReport(t *testing.T) {
	p, mem, msgr := newLevelsForTest(t)
	seedPlayer(t, mem, "g1", "u1", 250)
	seedPlayer(t, mem, "g1", "u2", 100)
	seedPlayer(t, mem, "g1", "u3", 50)

	if err := handleMessage(t, p, msgEvent("g1", "c1", "u1", "!xp")); err != nil {
		t.Fatal(err)
	}
	got := msgr.messages()
	if len(got) != 1 {
		t.Fatalf("want 1 reply, got %d", len(got))
	}
	// 250 = 100 (nivel 0) + 120 (nivel 1) + 30 dentro del nivel 2
	want := "<@u1>: **Level 2** | **XP 30/144** | **Total XP 250** | **Rank 1/3**"
	if got[0].Content != want {
		t.Errorf("reply = %q, want %q", got[0].Content, want)
	}
}

func TestLevels_XPReportUnranked(t *testing.T) {
	p, _, msgr := newLevelsForTest(t)
	if err := handleMessage(t, p, msgEvent("g1", "c1", "u1", "!xp")); err != nil {
		t.Fatal(err)
	}
	got := msgr.messages()
	if len(got) != 1 || !strings.Contains(got[0].Content, "haven't been ranked yet") {
		t.Errorf("want the not-ranked nudge, got %+v", got)
	}
}

func TestLevels_XPReportForMention(t *testing.T) {
	p, mem, msgr := newLevelsForTest(t)
	seedPlayer(t, mem, "g1", "u2", 100)

	ev := msgEvent("g1", "c1", "u1", "!xp <@u2>")
	ev.Message.Mentions = []domain.User{{ID: "u2", Name: "user-u2"}}
	if err := handleMessage(t, p, ev); err != nil {
		t.Fatal(err)
	}
	got := msgr.messages()
	if len(got) != 1 || !strings.HasPrefix(got[0].Content, "<@u2>:") {
		t.Errorf("want a report about u2, got %+v", got)
	}
}

func TestLevels_LeaderboardOrderAndTies(t *testing.T) {
	p, mem, msgr := newLevelsForTest(t)
	seedPlayer(t, mem, "g1", "u-b", 200)
	seedPlayer(t, mem, "g1", "u-a", 200) // empate, gana el id menor
	seedPlayer(t, mem, "g1", "u-c", 500)

	if err := handleMessage(t, p, msgEvent("g1", "c1", "u1", "!levels")); err != nil {
		t.Fatal(err)
	}
	got := msgr.messages()
	if len(got) != 1 {
		t.Fatalf("want 1 reply, got %d", len(got))
	}
	lines := strings.Split(strings.TrimRight(got[0].Content, "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("want header + 3 rows, got %d lines:\n%s", len(lines), got[0].Content)
	}
	for i, wantName := range []string{"user-u-c", "user-u-a", "user-u-b"} {
		if !strings.Contains(lines[i+1], wantName) {
			t.Errorf("row %d = %q, want it to contain %q", i+1, lines[i+1], wantName)
		}
	}
}

func TestLevels_ConcurrentAccrualNoLostUpdates(t *testing.T) {
	p, mem, _ := newLevelsForTest(t)
	p.randXP = func() int64 { return 7 }

	const actors = 100
	var wg sync.WaitGroup
	for i := 0; i < actors; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			ev := msgEvent("g1", "c1", fmt.Sprintf("u%03d", n), "concurrent chatter")
			if err := handleMessage(t, p, ev); err != nil {
				t.Error(err)
			}
		}(i)
	}
	wg.Wait()

	var total int64
	for i := 0; i < actors; i++ {
		xp := getXP(t, mem, "g1", fmt.Sprintf("u%03d", i))
		if xp != 7 {
			t.Errorf("actor u%03d xp = %d, want 7", i, xp)
		}
		total += xp
	}
	if total != 7*actors {
		t.Errorf("total xp = %d, want %d (no lost updates)", total, 7*actors)
	}
}
