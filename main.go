package main

import "github.com/rickcrawford/defaultvocab/cmd"

func main() {
	cmd.Execute()
}
