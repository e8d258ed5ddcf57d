package cmd

import (
	"encoding/json"
	"os"

	"github.com/reel-cli/reel/color"
	"github.com/reel-cli/reel/filesystem"
	"github.com/reel-cli/reel/icon"
	"github.com/reel-cli/reel/key"
	"github.com/reel-cli/reel/log"
	"github.com/reel-cli/reel/playback"
	"github.com/reel-cli/reel/rule"
	"github.com/reel-cli/reel/style"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(classifyCmd)

	classifyCmd.Flags().StringP("origin", "o", "", "Page the URLs were observed on, selects host rules")
	classifyCmd.Flags().BoolP("json", "j", false, "Print classifications as JSON")
	classifyCmd.Flags().Bool("builtin", false, "Ignore the resolver configuration and use built-in rules only")

	classifyCmd.SetOut(os.Stdout)
}

var classifyCmd = &cobra.Command{
	Use:   "classify URL...",
	Short: "Tell whether URLs look like media, ads or neither",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		origin := lo.Must(cmd.Flags().GetString("origin"))

		engine := rule.New(nil)
		if !lo.Must(cmd.Flags().GetBool("builtin")) {
			engine = rule.New(classificationRules(cmd))
		}

		results := lo.Map(args, func(u string, _ int) rule.Classification {
			return engine.Classify(u, origin)
		})

		if lo.Must(cmd.Flags().GetBool("json")) {
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			handleErr(encoder.Encode(results))
			return
		}

		for _, c := range results {
			mark := icon.Get(icon.Resolver)
			switch {
			case c.ShouldFilter:
				mark = icon.Get(icon.Filtered)
			case c.IsMedia:
				mark = icon.Get(icon.Media)
			}

			cmd.Printf("%s %s\n", mark, c.URL)
			cmd.Printf("  %s %s  %s %s", style.Faint("media"), style.Verdict(c.IsMedia), style.Faint("filtered"), style.Verdict(c.ShouldFilter))
			if c.Format != "" {
				cmd.Printf("  %s %s", style.Faint("format"), style.Fg(color.Yellow)(c.Format))
			}
			cmd.Println()
		}
	},
}

// classificationRules returns the configured host rules. A missing local configuration is not
// an error for classification; the built-in rules still apply.
func classificationRules(cmd *cobra.Command) *rule.Table {
	source := resolverSource()
	if exists, _ := filesystem.API().Exists(source); !exists && !playback.IsNetworkURL(source) {
		log.Debugf("classify: %s not found, using built-in rules", source)
		return rule.NewTable(nil, viper.GetStringSlice(key.RulesAds))
	}

	snapshot, err := loadSnapshot(cmd.Context(), newFetcher())
	if err != nil {
		log.Warnf("classify: %s", err)
		return rule.NewTable(nil, viper.GetStringSlice(key.RulesAds))
	}
	return snapshot.Rules
}
