// Package locales holds the message bundles shipped with the bot.
package locales

import "embed"

// FS has one directory of TOML bundles per locale.
//
//go:embed */*.toml
var FS embed.FS

// Native is the locale every other locale falls back to.
const Native = "en-GB"
