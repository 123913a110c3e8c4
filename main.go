package main

import "discord-moderator/cmd"

func main() {
	cmd.Execute()
}
