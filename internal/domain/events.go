package domain

// EventKind identifica el tipo de evento de plataforma ya normalizado.
type EventKind string

const (
	EventReady       EventKind = "ready"
	EventMessage     EventKind = "message"
	EventMemberJoin  EventKind = "member_join"
	EventGuildCreate EventKind = "guild_create"
	EventGuildRemove EventKind = "guild_remove"
)

type User struct {
	ID            string
	Name          string
	Discriminator string
	Avatar        string
	Bot           bool
}

// Mention arma la mención de plataforma del usuario.
func (u User) Mention() string { return "<@" + u.ID + ">" }

type Member struct {
	User    User
	GuildID string
	Roles   []string
}

type Guild struct {
	ID              string
	Name            string
	Icon            string
	SystemChannelID string
}

type Message struct {
	ID          string
	GuildID     string
	ChannelID   string
	Content     string
	Author      User
	AuthorRoles []string
	Mentions    []User
}

// Event es lo único que cruza del adapter de plataforma al runtime de
// plugins; exactamente uno de los campos opcionales viene seteado según
// el Kind.
type Event struct {
	Kind    EventKind
	GuildID string
	Message *Message
	Member  *Member
	Guild   *Guild
}
