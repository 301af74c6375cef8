package main

import "go-midiviz/cmd"

func main() {
	cmd.Execute()
}
