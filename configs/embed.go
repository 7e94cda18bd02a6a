// Package configs embeds the commented configuration template that
// 'pantry config init' writes for a new user.
package configs

import _ "embed"

// UserConfigTemplate is written to $XDG_CONFIG_HOME/pantry/config.yaml by
// 'pantry config init'. Its values equal the built-in defaults.
//
//go:embed user-config.example.yaml
var UserConfigTemplate string
