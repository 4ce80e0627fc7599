package main

import "github.com/Taichi-iskw/yt-comments/cmd"

func main() {
	cmd.Execute()
}
