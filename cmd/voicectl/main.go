package main

import "github.com/dkeye/Voice/internal/cli"

func main() {
	cli.Execute()
}
