// Package configs provides embedded configuration templates for notelink.
//
// Templates are embedded at build time so `notelink config init` works from
// any installation.
//
// Configuration hierarchy (see internal/config Load()):
//  1. Hardcoded defaults (internal/config NewConfig())
//  2. User config ($XDG_CONFIG_HOME/notelink/config.yaml)
//  3. Vault config (.notelink.yaml in the vault root)
//  4. Environment variables (NOTELINK_*)
package configs

import _ "embed"

// UserConfigTemplate is written by `notelink config init` to the user
// config path. It holds personal defaults applied to every vault.
//
//go:embed user-config.example.yaml
var UserConfigTemplate string

// VaultConfigTemplate is written by `notelink config init --vault <dir>` to
// .notelink.yaml in the vault root.
//
//go:embed vault-config.example.yaml
var VaultConfigTemplate string
