// Command acnetping is a thin diagnostic driver over the acnet client
// library's Level-II helpers. It is outside the library's core — a
// convenience for operators, not part of the protocol engine.
package main

import "github.com/fnal-controls/acnet-go/cmd/acnetping/cmd"

func main() {
	cmd.Execute()
}
