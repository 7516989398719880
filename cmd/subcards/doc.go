// Package main hosts the subcards CLI entrypoint and command graph.
//
// The Cobra-based command tree turns a vocabulary export and a directory of
// subtitle files into an Anki-importable TSV (generate), and exposes the
// supporting pieces on their own: merged corpus exports (merge), reconciled
// vocabulary inspection (vocab), CC-CEDICT management (dict), the
// translation cache (cache), and configuration scaffolding (config).
//
// Configuration is resolved lazily once per invocation; command-line flags
// override individual settings. Ctrl-C cancels the running command and any
// cards built so far are still written.
package main
