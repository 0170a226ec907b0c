package main

import (
	"github.com/mlg-games/duelrelay/internal/cli"
)

func main() {
	cli.Execute()
}
