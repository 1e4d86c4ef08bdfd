// Package main is the production entry point for the TuneDeck music player.
//
// TuneDeck is a playlist player with two front ends sharing one core:
// - a Fyne desktop window (default)
// - a Bubble Tea terminal interface
//
// Build:
//
//	go build -o build/tunedeck ./cmd/tunedeck
//
// Run:
//
//	./build/tunedeck [files...]
//	./build/tunedeck tui [files...]
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
