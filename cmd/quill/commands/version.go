package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/quill/internal/version"
	"github.com/jmylchreest/quill/pkg/llm"
	"github.com/jmylchreest/quill/pkg/quill"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(version.Get())
		}
		_, _ = fmt.Fprintln(out, version.Full("quill"))
		_, _ = fmt.Fprintf(out, "  Library:    %s\n", quill.Version())
		_, err := fmt.Fprintf(out, "  Providers:  %v\n", llm.AvailableProviders())
		return err
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().Bool("json", false, "print as JSON")
}
