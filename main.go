package main

import "logger-netcfg/cmd"

func main() {
	cmd.Execute()
}
