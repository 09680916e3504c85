package main

import "inboxhub/cmd/cli/command"

func main() {
	command.Execute()
}
