package main

import (
	"github.com/typeforge/genbind/pkg/cli"
)

func main() {
	cli.Run()
}
