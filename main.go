package main

import (
	"os"

	"github.com/hpkotak/askcmd/cmd"
)

func main() {
	os.Exit(cmd.ExitCode(cmd.Execute()))
}
