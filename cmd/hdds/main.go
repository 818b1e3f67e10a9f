// Command hdds runs an HDDS domain participant process: a thin operator
// CLI around the github.com/naskel/hdds participant runtime.
package main

import (
	"fmt"
	"os"

	"github.com/naskel/hdds/cmd/hdds/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
