package main

import (
	"flag"
	"fmt"
)

// version is set at build time.
var version = "dev"

type versionCommand struct{}

func (cmd *versionCommand) Name() string {
	return "version"
}

func (cmd *versionCommand) Help() string {
	return "Print version"
}

func (cmd *versionCommand) Register(*flag.FlagSet) {}

func (cmd *versionCommand) Run() error {
	fmt.Printf("audiograph %s\n", version)
	return nil
}
