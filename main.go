package main

import "github/chapool/go-rollup/cmd"

func main() {
	cmd.Execute()
}
