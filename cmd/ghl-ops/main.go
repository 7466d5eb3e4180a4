package main

import "github.com/mikey/ghl-ops/cmd/ghl-ops/cmd"

func main() {
	cmd.Execute()
}
