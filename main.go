package main

import "github.com/KaramelBytes/callscope/cmd"

func main() {
	cmd.Execute()
}
