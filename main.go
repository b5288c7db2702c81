package main

import (
	"songclub/cmd"
)

func main() {
	cmd.Execute()
}
