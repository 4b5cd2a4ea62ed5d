package plugin

// Claves del namespace compartido con el dashboard. Cambiar cualquiera
// de estos formatos rompe el contrato con la superficie administrativa.

const ServersKey = "servers"

func ServerNameKey(guildID string) string { return "server:" + guildID + ":name" }
func ServerIconKey(guildID string) string { return "server:" + guildID + ":icon" }

// EnabledKey es el set de plugins activos de un guild; lo escribe el
// dashboard, acá solo se lee.
func EnabledKey(guildID string) string { return "plugins:" + guildID }

// Key arma una clave dentro del namespace de un plugin:
// <Plugin>.<guild>:<resto>
func Key(plugin, guildID, rest string) string {
	return plugin + "." + guildID + ":" + rest
}
