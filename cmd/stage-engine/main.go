// Package main provides the entry point for the stage-engine CLI.
package main

func main() {
	Execute()
}
