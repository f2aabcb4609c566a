package main

import "podcastr/cmd"

func main() {
	cmd.Execute()
}
