package main

import "github.com/evilarceus/go-binserializer/cmd"

func main() {
	cmd.Execute()
}
