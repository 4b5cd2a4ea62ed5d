// Package plugins contiene los feature modules que consumen eventos:
// niveles/XP, comandos custom, bienvenida, ayuda y el saludo.
package plugins

import "fmt"

// ConfigError: una configuración por guild ausente u obligatoriamente
// malformada. La operación afectada se aborta sin mutar nada.
type ConfigError struct {
	Key string
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %v", e.Key, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// ValidationError: entrada administrativa fuera de los límites
// declarados. El mensaje vuelve a la superficie que editó; no se muta
// storage.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }
