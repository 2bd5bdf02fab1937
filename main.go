package main

import "github.com/deploymenttheory/go-fsrip/cmd"

func main() {
	cmd.Execute()
}
