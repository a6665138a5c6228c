package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/viant/storegate/cli"
)

func main() {
	// .env is optional
	_ = godotenv.Load()
	if err := cli.Run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}
