package main

import (
	_ "github.com/joho/godotenv/autoload"

	"toolkithub/internal/cli"
)

func main() {
	cli.Execute()
}
