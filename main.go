package main

import "story-feed-backend/cmd"

func main() {
	cmd.Run()
}
