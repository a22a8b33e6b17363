// Command mmucachesim replays virtual address traces through an emulated MMU
// cache and reports how the page-walk steps hit or miss.
package main

import (
	"github.com/tebeka/atexit"

	"github.com/sarchlab/mmucache/cmd/mmucachesim/cmd"
)

func main() {
	cmd.Execute()
	atexit.Exit(0)
}
