package main

import (
	cmd "github.com/brandforge/gen-server/cmd/forge"
)

func main() {
	cmd.Execute()
}
