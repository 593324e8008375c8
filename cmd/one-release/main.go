package main

import "github.com/oshokin/one-release/cmd/one-release/cmd"

func main() {
	cmd.Execute()
}
