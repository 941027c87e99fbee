package main

import "github.com/plutus-app/plutus/cmd/plutusctl/cmd"

func main() {
	cmd.Execute()
}
