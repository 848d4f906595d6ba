package main

import "bakehouse/internal/cli"

func main() {
	cli.Execute()
}
