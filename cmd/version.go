// File: cmd/version.go
package cmd

// Version is set at build time:
// go build -ldflags "-X github.com/EdenOved/formpilot/cmd.Version=1.0.0"
var Version = "dev"
