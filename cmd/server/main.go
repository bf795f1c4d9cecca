// cmd/server/main.go
package main

import (
	"log"
	"os"

	"questlab/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}
