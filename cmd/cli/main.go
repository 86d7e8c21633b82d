package main

import "github.com/YumikoKawaii/sherry-archive/cmd/cli/command"

func main() {
	command.Execute()
}
