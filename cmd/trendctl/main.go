// Command trendctl runs trend service operations from the command line.
package main

import (
	"os"

	"stock_trend/cmd/trendctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
