package main

import "github.com/audiolibrelab/focusd/cmd"

func main() {
	cmd.Execute()
}
