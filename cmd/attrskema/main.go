package main

import "github.com/reoring/attrskema/cmd/attrskema/cmd"

func main() {
	cmd.Execute()
}
