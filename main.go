/*
Copyright © 2024 buildwatch authors
*/
package main

import "github.com/buildwatch/buildwatch/cmd"

func main() {
	cmd.Execute()
}
