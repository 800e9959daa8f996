// Package main is the entry point for adminkit.
package main

func main() {
	Execute()
}
