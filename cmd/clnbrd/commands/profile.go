package commands

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oliveoi1/clnbrd/internal/output"
	"github.com/oliveoi1/clnbrd/internal/profile"
	"github.com/oliveoi1/clnbrd/pkg/cleaner/clnbrd"
)

var profileCmd = &cobra.Command{
	Use:     "profile",
	Aliases: []string{"profiles"},
	Short:   "Manage cleaning profiles",
	Long: `A profile is a named set of cleaning rules. Exactly one profile is active;
"clnbrd watch" picks up changes without restarting.

Profiles are referenced by id, name (case-insensitive) or a unique id prefix.`,
}

var profileListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List profiles",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openProfiles()
		if err != nil {
			return err
		}
		format, err := outputFormat(cmd)
		if err != nil {
			return err
		}
		list := store.List()
		if format == output.FormatText {
			return profileTable{active: store.Active().ID, profiles: list}.Render(cmd.OutOrStdout())
		}
		return output.PrintList(cmd.OutOrStdout(), format, list)
	},
}

var profileShowCmd = &cobra.Command{
	Use:   "show [profile]",
	Short: "Show a profile's rules (default: the active profile)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openProfiles()
		if err != nil {
			return err
		}
		p := store.Active()
		if len(args) == 1 {
			if p, err = store.Find(args[0]); err != nil {
				return err
			}
		}
		format, err := outputFormat(cmd)
		if err != nil {
			return err
		}
		if format == output.FormatText {
			return profileView(p).Render(cmd.OutOrStdout())
		}
		return output.Print(cmd.OutOrStdout(), format, p)
	},
}

var profileCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a profile from the active profile, another profile or a preset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		from, _ := cmd.Flags().GetString("from")
		activate, _ := cmd.Flags().GetBool("use")

		store, err := openProfiles()
		if err != nil {
			return err
		}
		p, err := store.Create(args[0], from)
		if err != nil {
			return err
		}
		logInfo("Created profile %q (%s)", p.Name, p.ID)
		if activate {
			if err := store.SetActive(p.ID); err != nil {
				return err
			}
			logInfo("Active profile is now %q", p.Name)
		}
		return nil
	},
}

var profileUseCmd = &cobra.Command{
	Use:   "use <profile>",
	Short: "Make a profile active",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openProfiles()
		if err != nil {
			return err
		}
		if err := store.SetActive(args[0]); err != nil {
			return err
		}
		logInfo("Active profile is now %q", store.Active().Name)
		return nil
	},
}

var profileRenameCmd = &cobra.Command{
	Use:   "rename <profile> <new-name>",
	Short: "Rename a profile",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openProfiles()
		if err != nil {
			return err
		}
		if err := store.Rename(args[0], args[1]); err != nil {
			return err
		}
		logInfo("Renamed profile to %q", strings.TrimSpace(args[1]))
		return nil
	},
}

var profileRmCmd = &cobra.Command{
	Use:     "rm <profile>",
	Aliases: []string{"delete"},
	Short:   "Delete a profile",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openProfiles()
		if err != nil {
			return err
		}
		p, err := store.Find(args[0])
		if err != nil {
			return err
		}
		if err := store.Delete(p.ID); err != nil {
			return err
		}
		logInfo("Deleted profile %q; active profile is %q", p.Name, store.Active().Name)
		return nil
	},
}

var profileSetCmd = &cobra.Command{
	Use:   "set <profile> <field> <value>",
	Short: "Change one rule of a profile",
	Long: `Change one rule of a profile. Run "clnbrd profile fields" for the field names.

Examples:
  clnbrd profile set default convert_smart_quotes false
  clnbrd profile set work emdash_replacement " - "`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		field, err := clnbrd.ParseField(args[1])
		if err != nil {
			return err
		}
		store, err := openProfiles()
		if err != nil {
			return err
		}
		return store.Edit(args[0], func(r *clnbrd.RuleSet) error {
			return r.Set(field, args[2])
		})
	},
}

var profileRuleCmd = &cobra.Command{
	Use:   "rule",
	Short: "Manage a profile's custom find/replace rules",
}

var profileRuleAddCmd = &cobra.Command{
	Use:   "add <profile> <find> <replace>",
	Short: "Append a literal find/replace rule",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		if args[1] == "" {
			return fmt.Errorf("find text is empty")
		}
		store, err := openProfiles()
		if err != nil {
			return err
		}
		return store.Edit(args[0], func(r *clnbrd.RuleSet) error {
			r.AddRule(args[1], args[2])
			return nil
		})
	},
}

var profileRuleRmCmd = &cobra.Command{
	Use:   "rm <profile> <index>",
	Short: "Remove a custom rule by its index in \"profile show\"",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		i, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid rule index %q", args[1])
		}
		store, err := openProfiles()
		if err != nil {
			return err
		}
		return store.Edit(args[0], func(r *clnbrd.RuleSet) error {
			if !r.RemoveRule(i) {
				return fmt.Errorf("no custom rule at index %d", i)
			}
			return nil
		})
	},
}

var profileFieldsCmd = &cobra.Command{
	Use:   "fields",
	Short: "List the rule fields accepted by \"profile set\" and \"clean --set\"",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults := clnbrd.DefaultRuleSet()
		t := output.NewTable(cmd.OutOrStdout(), "FIELD", "TYPE", "DEFAULT")
		for _, f := range clnbrd.Fields() {
			kind := "text"
			if f.IsBool() {
				kind = "bool"
			}
			t.Row(string(f), kind, strconv.Quote(defaults.Get(f)))
		}
		return t.Flush()
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileListCmd, profileShowCmd, profileCreateCmd, profileUseCmd,
		profileRenameCmd, profileRmCmd, profileSetCmd, profileRuleCmd, profileFieldsCmd)
	profileRuleCmd.AddCommand(profileRuleAddCmd, profileRuleRmCmd)

	profileCreateCmd.Flags().String("from", "", "profile or preset to copy ("+strings.Join(clnbrd.PresetNames(), ", ")+")")
	profileCreateCmd.Flags().Bool("use", false, "make the new profile active")
}

type profileTable struct {
	active   string
	profiles []profile.Profile
}

func (p profileTable) Render(w io.Writer) error {
	t := output.NewTable(w, "ACTIVE", "ID", "NAME", "PASSES", "UPDATED")
	for _, pr := range p.profiles {
		mark := ""
		if pr.ID == p.active {
			mark = "*"
		}
		t.Row(mark, shortID(pr.ID), pr.Name,
			strconv.Itoa(len(pr.Rules.Enabled())), output.Age(pr.UpdatedAt))
	}
	return t.Flush()
}

type profileView profile.Profile

func (p profileView) Render(w io.Writer) error {
	fmt.Fprintf(w, "%s (%s)\n", p.Name, p.ID)
	fmt.Fprintf(w, "pipeline: %s\n\n", clnbrd.New(p.Rules).Chain().Name())
	t := output.NewTable(w, "FIELD", "VALUE")
	for _, f := range clnbrd.Fields() {
		v := p.Rules.Get(f)
		if !f.IsBool() {
			v = strconv.Quote(v)
		}
		t.Row(string(f), v)
	}
	if err := t.Flush(); err != nil {
		return err
	}
	if len(p.Rules.CustomRules) == 0 {
		return nil
	}
	fmt.Fprintln(w, "\nCustom rules:")
	rt := output.NewTable(w, "#", "FIND", "REPLACE")
	for i, r := range p.Rules.CustomRules {
		rt.Row(strconv.Itoa(i), strconv.Quote(r.Find), strconv.Quote(r.Replace))
	}
	return rt.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
