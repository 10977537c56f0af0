// Command oxyscene validates, bakes and views declarative scene descriptions.
package main

import (
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
