package main

import (
	"fmt"

	"github.com/evolvsys/evolv/internal/embed"
	"github.com/evolvsys/evolv/internal/gateway"
)

// ListCmd enumerates the engines and embedders registered via init in
// the running binary.
type ListCmd struct{}

func (l *ListCmd) Run() error {
	fmt.Println("Gateway engines:")
	for _, name := range gateway.List() {
		fmt.Printf(" %s\n", name)
	}

	fmt.Println("\nEmbedders:")
	for _, name := range embed.List() {
		fmt.Printf(" %s\n", name)
	}
	return nil
}
