package main

import "github.com/tokligence/tokligence-datastream/internal/cli"

func main() {
	cli.Execute()
}
