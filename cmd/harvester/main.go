// Package main provides the entry point for the report harvester CLI.
//
// Usage:
//
//	harvester run [--full]
//	harvester watch [--full]
package main

func main() {
	Execute()
}
