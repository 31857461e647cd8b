package main

import "github.com/strrl/claude-lens/cmd/claude-lens/commands"

func main() {
	commands.Execute()
}
