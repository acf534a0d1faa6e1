package main

import "github.com/legitYosal/vddk-test/cmd/commands"

func main() {
	commands.Execute()
}
