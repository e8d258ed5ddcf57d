package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/reel-cli/reel/browser"
	"github.com/reel-cli/reel/color"
	"github.com/reel-cli/reel/constant"
	"github.com/reel-cli/reel/icon"
	"github.com/reel-cli/reel/key"
	"github.com/reel-cli/reel/playback"
	"github.com/reel-cli/reel/resolver"
	"github.com/reel-cli/reel/style"
	"github.com/reel-cli/reel/util"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// lookupResolver finds a configured resolver, suggesting close names when there is none.
func lookupResolver(snapshot *resolver.Snapshot, name string) (resolver.Descriptor, error) {
	if d, ok := snapshot.Lookup(name); ok {
		return d, nil
	}

	ranks := fuzzy.RankFindFold(name, snapshot.Names())
	sort.Sort(ranks)
	if len(ranks) == 0 {
		return resolver.Descriptor{}, fmt.Errorf("%w: unknown resolver %s", playback.ErrNoResolverAvailable, style.Fg(color.Red)(name))
	}

	return resolver.Descriptor{}, fmt.Errorf(
		"%w: unknown resolver %s, did you mean %s?",
		playback.ErrNoResolverAvailable,
		style.Fg(color.Red)(name),
		style.Fg(color.Yellow)(ranks[0].Target),
	)
}

func completionResolverNames(cmd *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	snapshot, err := loadSnapshot(cmd.Context(), newFetcher())
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}

	if toComplete == "" {
		return snapshot.Names(), cobra.ShellCompDirectiveNoFileComp
	}
	return fuzzy.FindFold(toComplete, snapshot.Names()), cobra.ShellCompDirectiveNoFileComp
}

func kindColor(k resolver.Kind) lipgloss.Color {
	switch k {
	case resolver.BrowserSniff:
		return color.Sniff
	case resolver.SuperResolve:
		return color.Super
	default:
		return color.JSON
	}
}

func init() {
	rootCmd.AddCommand(resolversCmd)
}

var resolversCmd = &cobra.Command{
	Use:     "resolvers",
	Aliases: []string{"parses"},
	Short:   "Inspect the configured resolvers",
}

func init() {
	resolversCmd.AddCommand(resolversListCmd)

	resolversListCmd.Flags().StringP("kind", "k", "", "Only resolvers of this kind (sniff, json, json-federated, json-aggregate, super)")
	resolversListCmd.Flags().StringP("flag", "f", "", "Only resolvers declaring this flag")
	resolversListCmd.Flags().BoolP("json", "j", false, "Print descriptors as JSON")
	resolversListCmd.Flags().BoolP("raw", "r", false, "Print names only")
	resolversListCmd.MarkFlagsMutuallyExclusive("json", "raw")

	resolversListCmd.SetOut(os.Stdout)
}

var resolversListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured resolvers in dispatch order",
	Run: func(cmd *cobra.Command, args []string) {
		snapshot, err := loadSnapshot(cmd.Context(), newFetcher())
		handleErr(err)

		descriptors := snapshot.Descriptors

		if kind := lo.Must(cmd.Flags().GetString("kind")); kind != "" {
			k, err := resolver.ParseKind(kind)
			handleErr(err)
			descriptors = snapshot.OfKind(k)
		}

		if flag := lo.Must(cmd.Flags().GetString("flag")); flag != "" {
			descriptors = lo.Filter(descriptors, func(d resolver.Descriptor, _ int) bool {
				return d.HasFlag(flag)
			})
		}

		switch {
		case lo.Must(cmd.Flags().GetBool("json")):
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			handleErr(encoder.Encode(descriptors))
		case lo.Must(cmd.Flags().GetBool("raw")):
			for _, d := range descriptors {
				cmd.Println(d.Name)
			}
		default:
			for _, d := range descriptors {
				cmd.Printf("%s %s %s\n", icon.Get(icon.Resolver), style.Bold(d.Name), style.Tag(lipgloss.Color("0"), kindColor(d.Kind))(d.Kind.String()))
				if d.URL != "" {
					cmd.Printf("  %s\n", style.Faint(d.URL))
				}
				if len(d.Ext.Flags) > 0 {
					cmd.Printf("  %s %v\n", style.Fg(color.Purple)("flags"), d.Ext.Flags)
				}
			}
		}
	},
}

func init() {
	resolversCmd.AddCommand(resolversCheckCmd)
	resolversCheckCmd.SetOut(os.Stdout)
}

var resolversCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the resolver configuration and the sniffing browser",
	Run: func(cmd *cobra.Command, args []string) {
		source := resolverSource()
		erase := util.PrintErasable(fmt.Sprintf("%s Loading %s...", icon.Get(icon.Progress), source))
		snapshot, err := loadSnapshot(cmd.Context(), newFetcher())
		erase()
		handleErr(err)

		cmd.Printf("%s %s\n", icon.Get(icon.Success), style.Bold(source))

		counts := lo.CountValuesBy(snapshot.Descriptors, func(d resolver.Descriptor) resolver.Kind { return d.Kind })
		kinds := lo.Keys(counts)
		sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
		for _, k := range kinds {
			cmd.Printf("  %s %s\n", style.Fg(kindColor(k))(k.String()), util.Quantify(counts[k], "resolver", "resolvers"))
		}
		cmd.Printf("  %s %s\n", style.Fg(color.Purple)("rules"), util.Quantify(len(snapshot.Rules.Hosts()), "host", "hosts"))

		if len(snapshot.OfKind(resolver.BrowserSniff)) == 0 {
			return
		}
		if !viper.GetBool(key.SniffEnabled) {
			cmd.Printf("%s sniffing is disabled, %s unusable\n", icon.Get(icon.Warn), util.Quantify(len(snapshot.OfKind(resolver.BrowserSniff)), "resolver is", "resolvers are"))
			return
		}

		if bin, ok := browser.Available(viper.GetString(key.SniffBrowserBin)); ok {
			cmd.Printf("%s browser %s\n", icon.Get(icon.Success), style.Faint(bin))
			return
		}
		printMissingBrowser(cmd)
	},
}

// printMissingBrowser explains that a Chromium build will be downloaded on first sniff.
func printMissingBrowser(cmd *cobra.Command) {
	var installCmd string
	switch runtime.GOOS {
	case constant.Darwin:
		installCmd = "brew install --cask chromium"
	case constant.Linux:
		installCmd = "sudo apt install chromium"
	case constant.Windows:
		installCmd = "scoop install chromium"
	}

	title := style.New().Bold(true).Foreground(color.Orange).Render(fmt.Sprintf("%s No browser found", icon.Get(icon.Warn)))
	body := fmt.Sprintf("Sniffing resolvers need Chromium. A build will be downloaded on first use,\nor set %s to an installed one.", style.Fg(color.Purple)(key.SniffBrowserBin))

	if installCmd != "" {
		body += fmt.Sprintf("\n\nTo install it, try running:\n  %s", style.New().Foreground(color.Accent).Bold(true).Render(installCmd))
	}

	cmd.Println(style.Box(color.Orange).Render(lipgloss.JoinVertical(lipgloss.Left, title, "", body)))
}
