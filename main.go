package main

import "github.com/kindred-recs/kindred/cmd"

func main() {
	cmd.Execute()
}
