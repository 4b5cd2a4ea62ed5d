package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/joho/godotenv"

	discordadapter "github.com/jose-valero/rickbot/internal/adapters/discord"
	"github.com/jose-valero/rickbot/internal/app/plugin"
	"github.com/jose-valero/rickbot/internal/app/plugins"
	"github.com/jose-valero/rickbot/internal/infra/config"
	"github.com/jose-valero/rickbot/internal/infra/sched"
	"github.com/jose-valero/rickbot/internal/infra/storage"
)

func main() {
	_ = godotenv.Load()
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg := config.Load()

	// Storage compartido con el dashboard
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	kv, err := storage.OpenRedis(ctx, cfg.RedisURL)
	cancel()
	if err != nil {
		log.Fatal("redis:", err)
	}
	defer kv.Close()
	log.Println("✅ storage listo")

	// Discord session
	auth := cfg.DiscordToken
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(auth)), "bot ") {
		auth = "Bot " + strings.TrimSpace(auth)
	}
	s, err := discordgo.New(auth)
	if err != nil {
		log.Fatal(err)
	}
	s.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMembers |
		discordgo.IntentMessageContent
	if err := s.Open(); err != nil {
		log.Fatal(err)
	}
	defer s.Close()
	log.Printf("✅ conectado como %s (%s)", s.State.User.Username, s.State.User.ID)

	msgr := discordadapter.NewMessenger(s)
	chans := discordadapter.NewChannels(s)

	// Catálogo de plugins: lista explícita, armada una sola vez
	registry := plugin.NewRegistry(kv)
	help := plugins.NewHelp(registry, msgr)
	for _, p := range []plugin.Plugin{
		plugins.NewLevels(kv, msgr, s.State.User.ID),
		plugins.NewCommands(kv, msgr),
		plugins.NewWelcome(kv, msgr, chans),
		help,
		plugins.NewHello(msgr),
	} {
		if err := registry.Register(p); err != nil {
			log.Fatal("registry:", err)
		}
	}

	dispatcher := plugin.NewDispatcher(registry, kv, plugin.LogReporter{})
	gw := discordadapter.NewGateway(s, dispatcher)
	gw.Bind()
	log.Println("✅ plugins registrados, eventos enlazados")

	// Heartbeat + snapshot de estadísticas
	scheduler, err := sched.Start(kv, cfg.HeartbeatInterval)
	if err != nil {
		log.Fatal("scheduler:", err)
	}
	defer func() { _ = scheduler.Shutdown() }()

	// Esperar señal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-stop

	log.Println("cerrando: drenando handlers en vuelo…")
	dispatcher.Wait()
}
