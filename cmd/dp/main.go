// Package main provides dp, a CLI for editing document bundles with
// write-back cached properties.
package main

import (
	"os"
	"strings"

	"github.com/calvinalkan/docprop/internal/cli"
)

func main() {
	environ := os.Environ()
	env := make(map[string]string, len(environ))

	for _, e := range environ {
		if k, v, ok := strings.Cut(e, "="); ok {
			env[k] = v
		}
	}

	os.Exit(cli.Run(os.Stdin, os.Stdout, os.Stderr, os.Args, env))
}
