// Package config handles loading and validation of brancher configuration.
//
// Configuration is read from ~/.config/brancher/config.toml, or from the
// file named by BRANCHER_CONFIG.
//
// # Key Settings
//
//   - git_path: git executable (default: git from PATH)
//   - smart: "ask", "always" or "never" stash-and-retry on local changes
//   - rollback: "ask", "always" or "never" undo after a failure
//   - delete_on_merge: "nothing", "propose" or "delete"
//
// # Hooks Configuration
//
// Hooks are defined in [hooks.NAME] sections:
//
//	[hooks.deps]
//	command = "npm install"
//	description = "Install dependencies"
//	on = ["checkout", "new"]
//
// Hooks with "on" run automatically in every repository where a matching
// operation succeeded. Hooks without "on" only run via explicit --hook=name.
//
// A repository may add hooks, or disable global ones with enabled = false,
// in a .brancher.toml at its root.
package config
