package main

import "github.com/cloudpilot-dev/cloudpilot/cmd"

// version is the application version, overridden at build time via
// -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cmd.SetVersion(version)
	cmd.Execute()
}
