package main

import "github.com/keuin/daigunyun/cmd/daigunyun/cmd"

func main() {
	cmd.Execute()
}
