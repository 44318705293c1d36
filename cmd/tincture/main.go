// tincture - A palette designer with eyedropper sampling
//
// tincture tunes a three-colour palette, derives Accent and Text from Main,
// samples colours from reference images and exports the result as JSON.
//
// Copyright (c) 2025 John Mylchreest
// Licensed under the MIT License
package main

import (
	"os"

	"github.com/jmylchreest/tincture/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
