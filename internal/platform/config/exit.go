package config

import (
	"fmt"
	"io"
	"log"
	"os"
)

var (
	exitOutput io.Writer = os.Stderr
	exitFunc             = os.Exit
)

// Exitf writes a formatted error message to stderr, prefixed like the
// standard logger, and exits with code 1.
func Exitf(format string, args ...any) {
	fmt.Fprintf(exitOutput, log.Prefix()+format+"\n", args...)
	exitFunc(1)
}
