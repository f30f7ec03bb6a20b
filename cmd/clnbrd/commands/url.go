package commands

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oliveoi1/clnbrd/internal/output"
	"github.com/oliveoi1/clnbrd/pkg/urlclean"
)

var urlCmd = &cobra.Command{
	Use:   "url [url...]",
	Short: "Strip tracking parameters from URLs",
	Long: `Remove tracking parameters (utm_*, fbclid, gclid and site-specific ones)
from each URL given as an argument, or from every URL found in stdin.

Examples:
  clnbrd url "https://example.com/?utm_source=x&id=3"
  cat links.txt | clnbrd url`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if len(args) > 0 {
			for _, a := range args {
				fmt.Fprintln(out, urlclean.CleanURL(a))
			}
			return nil
		}

		scanner := bufio.NewScanner(cmd.InOrStdin())
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			fmt.Fprintln(out, urlclean.CleanText(scanner.Text()))
		}
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		return nil
	},
}

var urlRulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the site-specific URL rules",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		t := output.NewTable(cmd.OutOrStdout(), "DOMAIN", "REMOVE", "KEEP ONLY", "TRUNCATE AT")
		for _, r := range urlclean.Rules {
			t.Row(r.Domain, strings.Join(r.Remove, ","), strings.Join(r.Keep, ","), r.TruncatePath)
		}
		return t.Flush()
	},
}

func init() {
	rootCmd.AddCommand(urlCmd)
	urlCmd.AddCommand(urlRulesCmd)
}
