// cmd/server/main.go
package main

import "github.com/Annany2002/nebula-studio/cmd/server/commands"

func main() {
	commands.Execute()
}
