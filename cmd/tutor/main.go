// Command tutor runs the Telangana State Board tutoring assistant, either as
// an HTTP service or as an interactive terminal chat.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ai9campus/smarttutor/internal/config"
	"github.com/ai9campus/smarttutor/internal/tutor"
)

var version = "dev"

var (
	envFiles []string
	v        = config.New()
)

var rootCmd = &cobra.Command{
	Use:           "tutor",
	Short:         "AI9Campus Smart Tutor for the Telangana SCERT curriculum",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		config.LoadDotenv(envFiles...)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("smarttutor %s\n", version)
	},
}

func main() {
	err := rootCmd.Execute()
	if err == nil {
		return
	}
	var startupErr *config.StartupError
	if errors.As(err, &startupErr) {
		fmt.Fprintln(os.Stderr, tutor.StartupNotice(startupErr.Key, startupErr.Hint).Markdown())
		os.Exit(1)
	}
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringSliceVar(&envFiles, "env-file", nil, "dotenv files to load (default .env)")
	flags.String("provider", "", "completion provider: groq, openai or anthropic")
	flags.String("model", "", "model identifier")
	flags.String("log-level", "", "log level (debug|info|warn|error)")
	flags.String("log-format", "", "log format (text|json)")
	serveCmd.Flags().Int("port", 0, "HTTP port")

	bindings := []struct {
		key   string
		flags *pflag.FlagSet
		name  string
	}{
		{"TUTOR_PROVIDER", flags, "provider"},
		{"TUTOR_MODEL", flags, "model"},
		{"LOG_LEVEL", flags, "log-level"},
		{"LOG_FORMAT", flags, "log-format"},
		{"TUTOR_PORT", serveCmd.Flags(), "port"},
	}
	for _, b := range bindings {
		if err := v.BindPFlag(b.key, b.flags.Lookup(b.name)); err != nil {
			fmt.Fprintf(os.Stderr, "Error binding %s flag: %v\n", b.name, err)
			os.Exit(1)
		}
	}

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(versionCmd)
}
