// Command figures fetches World Bank climate series for the configured
// countries and renders the temperature and precipitation figures.
//
// Usage:
//
//	figures render all
//	figures render composite
//	figures version
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
