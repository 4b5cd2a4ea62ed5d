package plugin

import (
	"context"
	"log"
)

// Lo implementa internal/adapters/discord.Messenger
type Messenger interface {
	Send(ctx context.Context, channelID, content string) error
}

// Lo implementa internal/adapters/discord.Channels
type ChannelResolver interface {
	ChannelByName(guildID, name string) (string, bool)
	DefaultChannel(guildID string) string
}

// Reporter recibe los fallos operacionales (storage caído, handler que
// explota). Nunca llegan al usuario final.
type Reporter interface {
	Report(ctx context.Context, scope string, err error)
}

// LogReporter es el Reporter por defecto: todo al log del proceso.
type LogReporter struct{}

func (LogReporter) Report(_ context.Context, scope string, err error) {
	log.Printf("⚠️ %s: %v", scope, err)
}
