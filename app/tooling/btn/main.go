// This program provides a command line client for a running node.
package main

import "github.com/btnlabs/blockchain/app/tooling/btn/cmd"

func main() {
	cmd.Execute()
}
