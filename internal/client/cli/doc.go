// Package cli provides the interactive postbridge command-line client.
//
// It wires configuration, the HTTP API transport, and an interactive REPL
// that talks to one server. Typical flow: prompt for credentials, start a
// background connectivity watcher, and execute user commands.
//
// Key features:
//   - Register / Login / Logout
//   - Compose a post and publish it to configured targets
//   - List own posts, read the public feed, show a single post
//   - Upload media files and reference them by storage key
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App, StartOnlineStatusWatcher, and runREPL for details.
package cli
