package main

import "github.com/shopworks/attrkit/cmd"

func main() {
	cmd.Execute()
}
