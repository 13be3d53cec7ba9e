package main

import "ytsummarizer/internal/cli"

func main() {
	cli.Main()
}
