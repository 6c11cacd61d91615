package main

import "github.com/ermos/backupmanager/internal/commands"

func main() {
	commands.Execute()
}
