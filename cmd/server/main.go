// Package main is the entry point for the midistream API server
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/james-see/midistream/pkg/api"
)

func main() {
	port := flag.Int("port", 8080, "Server port")
	workers := flag.Int("workers", 0, "Parallel track decoders per request (0 = one per CPU)")
	flag.Parse()

	fmt.Printf("Starting midistream API server on port %d...\n", *port)
	fmt.Printf("Swagger docs available at http://localhost:%d/swagger/index.html\n", *port)

	if err := api.StartServer(*port, *workers); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
