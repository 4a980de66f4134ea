// main is the entry point for the tierscope CLI.
package main

import (
	"fmt"
	"os"

	"github.com/huangsam/tierscope/cmd"
	"github.com/huangsam/tierscope/internal/contract"
)

func main() {
	// Commands replace this logger once the configured level and format are known.
	if err := contract.InitLogger(contract.LogConfig{Level: contract.DefaultLogLevel, Format: contract.LogFormatConsole}); err != nil {
		fmt.Fprintln(os.Stderr, "❌", err)
		os.Exit(1)
	}
	if err := cmd.Execute(); err != nil {
		contract.LogFatal("tierscope failed", err)
	}
}
