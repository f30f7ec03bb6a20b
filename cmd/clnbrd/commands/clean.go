package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/oliveoi1/clnbrd/internal/clipboard"
	"github.com/oliveoi1/clnbrd/internal/output"
	"github.com/oliveoi1/clnbrd/pkg/cleaner/clnbrd"
)

var cleanCmd = &cobra.Command{
	Use:   "clean [file...]",
	Short: "Clean text from files, stdin or the clipboard",
	Long: `Clean text with the active profile, a named profile or a preset.

Without arguments the text is read from stdin. With --clipboard the system
clipboard is cleaned in place and nothing is read from stdin.

Examples:
  pbpaste | clnbrd clean
  clnbrd clean --preset minimal README.txt
  clnbrd clean --set smart_quotes=false --stats notes.txt
  clnbrd clean --compare notes.txt
  clnbrd clean --clipboard`,
	RunE: runClean,
}

func init() {
	rootCmd.AddCommand(cleanCmd)

	cleanCmd.Flags().BoolP("clipboard", "c", false, "clean the system clipboard in place")
	cleanCmd.Flags().StringP("preset", "p", "", "use a preset instead of a profile: "+strings.Join(clnbrd.PresetNames(), ", "))
	cleanCmd.Flags().String("profile", "", "use a named profile instead of the active one")
	cleanCmd.Flags().StringArray("set", nil, "override a rule for this run (field=value, repeatable)")
	cleanCmd.Flags().Bool("stats", false, "print pipeline statistics to stderr")
	cleanCmd.Flags().Bool("compare", false, "compare every preset on the input instead of cleaning it")
	cleanCmd.Flags().StringP("output", "o", "", "write the cleaned text to a file instead of stdout")
}

func runClean(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	useClipboard, _ := cmd.Flags().GetBool("clipboard")
	presetName, _ := cmd.Flags().GetString("preset")
	profileRef, _ := cmd.Flags().GetString("profile")
	overrides, _ := cmd.Flags().GetStringArray("set")
	showStats, _ := cmd.Flags().GetBool("stats")
	compare, _ := cmd.Flags().GetBool("compare")
	outputPath, _ := cmd.Flags().GetString("output")

	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}

	source, err := resolveRules(presetName, profileRef)
	if err != nil {
		return err
	}
	rules, err := applyOverrides(source(), overrides)
	if err != nil {
		return err
	}

	if useClipboard {
		return cleanClipboard(ctx, cmd.OutOrStdout(), format, rules)
	}

	input, err := readInput(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	if compare {
		return compareAll(cmd.OutOrStdout(), format, input, rules)
	}

	result := clnbrd.New(rules).CleanWithStats(input)

	if showStats {
		fmt.Fprint(os.Stderr, result.Stats.String())
	}

	if format != output.FormatText {
		return output.Print(cmd.OutOrStdout(), format, result)
	}
	return writeOutput(cmd.OutOrStdout(), outputPath, result.Content)
}

// applyOverrides returns a copy of rules with field=value pairs applied.
func applyOverrides(rules clnbrd.RuleSet, overrides []string) (clnbrd.RuleSet, error) {
	if len(overrides) == 0 {
		return rules, nil
	}
	rules = rules.Clone()
	for _, o := range overrides {
		name, value, ok := strings.Cut(o, "=")
		if !ok {
			return rules, fmt.Errorf("invalid override %q: expected field=value", o)
		}
		field, err := clnbrd.ParseField(strings.TrimSpace(name))
		if err != nil {
			return rules, err
		}
		if err := rules.Set(field, value); err != nil {
			return rules, err
		}
	}
	return rules, nil
}

func readInput(stdin io.Reader, files []string) (string, error) {
	if len(files) == 0 {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}

	var sb strings.Builder
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", f, err)
		}
		sb.Write(data)
	}
	return sb.String(), nil
}

func writeOutput(stdout io.Writer, path, text string) error {
	if path == "" {
		_, err := io.WriteString(stdout, text)
		return err
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	logInfo("Wrote %s to %s", output.Bytes(len(text)), path)
	return nil
}

func cleanClipboard(ctx context.Context, w io.Writer, format output.Format, rules clnbrd.RuleSet) error {
	cb, err := clipboard.Open(cfg.Clipboard.Backend)
	if err != nil {
		return err
	}
	store, err := openHistory(ctx)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	engine := newEngine(cb, nil, func() clnbrd.RuleSet { return rules }, store)
	tx, err := engine.CleanInPlace(ctx)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, transactionTimeout())
	defer cancel()
	res, err := waitTransaction(ctx, tx)
	if err != nil {
		return err
	}
	if err := output.Print(w, format, resultView(res)); err != nil {
		return err
	}
	return res.Err
}

// presetComparison is one row of --compare output.
type presetComparison struct {
	Name             string        `json:"name" yaml:"name"`
	InputBytes       int           `json:"input_bytes" yaml:"input_bytes"`
	OutputBytes      int           `json:"output_bytes" yaml:"output_bytes"`
	ReductionPercent float64       `json:"reduction_percent" yaml:"reduction_percent"`
	Changed          []string      `json:"changed_by" yaml:"changed_by"`
	Duration         time.Duration `json:"duration_ns" yaml:"duration_ns"`
}

type comparisonTable []presetComparison

func (c comparisonTable) Render(w io.Writer) error {
	t := output.NewTable(w, "RULES", "INPUT", "OUTPUT", "REDUCTION", "CHANGED BY")
	for _, row := range c {
		t.Row(row.Name,
			output.Bytes(row.InputBytes),
			output.Bytes(row.OutputBytes),
			output.Percent(row.ReductionPercent),
			strings.Join(row.Changed, ","))
	}
	return t.Flush()
}

func compareAll(w io.Writer, format output.Format, input string, current clnbrd.RuleSet) error {
	type ruleSet struct {
		name  string
		rules clnbrd.RuleSet
	}
	sets := []ruleSet{{"current", current}}
	for _, name := range clnbrd.PresetNames() {
		rules, _ := clnbrd.Preset(name)
		sets = append(sets, ruleSet{name, rules})
	}

	rows := make(comparisonTable, 0, len(sets))
	for _, s := range sets {
		res := clnbrd.New(s.rules).CleanWithStats(input)
		rows = append(rows, presetComparison{
			Name:             s.name,
			InputBytes:       res.Stats.InputBytes,
			OutputBytes:      res.Stats.OutputBytes,
			ReductionPercent: res.Stats.ReductionPercent(),
			Changed:          res.Stats.Changed(),
			Duration:         res.Stats.TotalDuration,
		})
	}

	if format == output.FormatText {
		return rows.Render(w)
	}
	return output.PrintList(w, format, []presetComparison(rows))
}
