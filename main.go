package main

import "github.com/theirongolddev/tripgate/cmd"

func main() {
	cmd.Execute()
}
