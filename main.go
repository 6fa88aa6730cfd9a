package main

import "github.com/sqlmcp/cmd"

func main() {
	cmd.Execute()
}
