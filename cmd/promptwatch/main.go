/*
Package main is the entry point for the promptwatch CLI.

promptwatch watches AI tool windows for sensitive data and weak prompts.

Usage:

	promptwatch [command]

Available Commands:

	run       Start monitoring in the foreground
	check     Analyze a prompt for sensitive data and quality
	prefs     Show or change preferences
	alerts    Review security alerts
	stats     Summarize AI tool usage and risk
	cleanup   Delete history older than the retention period
	version   Show version information
*/
package main

import (
	"fmt"
	"os"

	"github.com/khanglvm/promptwatch/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
