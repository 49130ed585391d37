package main

import "github.com/marketlens/screener/cmd/screener/commands"

func main() {
	commands.Execute()
}
