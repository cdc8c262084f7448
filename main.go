package main

import "github.com/theopenlane/eushield/cmd"

func main() {
	cmd.Execute()
}
