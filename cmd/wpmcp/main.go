// Package main is the entry point for the wpmcp binary.
//
// wpmcp bridges MCP clients to the WordPress REST API: 'wpmcp setup' stores
// the site credentials, 'wpmcp serve' speaks MCP over stdio. Command
// dispatch lives in internal/cli.
package main

import (
	"fmt"
	"os"

	"wpmcp/internal/cli"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := cli.NewRootCmd(version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
