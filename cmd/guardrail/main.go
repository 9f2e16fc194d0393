// Command guardrail detects and redacts sensitive data in text by
// calling a configured inference service, with rate limiting and
// retries applied to every outbound call.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set via ldflags during build
// Example: go build -ldflags="-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "guardrail",
	Short: "Redact sensitive data in text before AI processing",
	Long: `Guardrail identifies and redacts sensitive information (emails, phone
numbers, credentials, and other configured categories) from text using a
detection model, optionally handing the redacted text to a downstream
processing model. All model calls pass through a dual-budget rate
limiter and a classified retry controller.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("guardrail %s (%s)\n", version, commit)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(redactCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
