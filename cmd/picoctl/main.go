package main

import "github.com/picobrain/console/cmd/picoctl/cmd"

func main() {
	cmd.Execute()
}
