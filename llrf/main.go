// Package main is the entry of the LLRF station simulator.
package main

import "github.com/sarchlab/llrf/llrf/cmd"

func main() {
	cmd.Execute()
}
