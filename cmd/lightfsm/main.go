package main

import "github.com/lucasols/light-fsm/internal/cli"

func main() {
	cli.Execute()
}
