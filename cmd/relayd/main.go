// Command relayd is the relayd server binary: a cobra CLI wrapping the
// serve and version subcommands (§6 "CLI detail").
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
