// Command groupgate runs the group-scoped GraphQL gateway and its
// operational tooling.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "groupgate:", err)
		os.Exit(1)
	}
}
