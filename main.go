package main

import "github.com/gnames/drugref/cmd"

func main() {
	cmd.Execute()
}
