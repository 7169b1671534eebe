package main

import "github.com/dalbodeule/hop-msg/internal/cli"

func main() {
	cli.Execute()
}
