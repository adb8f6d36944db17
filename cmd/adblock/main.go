// Command adblock evaluates resource requests against filter lists.
package main

import "github.com/AdguardTeam/adblock/internal/cmd"

func main() {
	cmd.Main()
}
