package main

import (
	"github.com/robotalks/hdlc485/pkg/cli/sh"
	"github.com/robotalks/hdlc485/pkg/env"
)

//go-build: CGO_ENABLED=0

func init() {
	env.SetupFlags()
}

func main() {
	sh.Main()
}
