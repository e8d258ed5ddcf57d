// Package cmd implements the reel command line.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	cc "github.com/ivanpirog/coloredcobra"
	"github.com/reel-cli/reel/color"
	"github.com/reel-cli/reel/constant"
	"github.com/reel-cli/reel/icon"
	"github.com/reel-cli/reel/key"
	"github.com/reel-cli/reel/log"
	"github.com/reel-cli/reel/style"
	"github.com/reel-cli/reel/util"
	"github.com/reel-cli/reel/version"
	"github.com/reel-cli/reel/where"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print the application version")

	rootCmd.PersistentFlags().StringP("icons", "I", "", "Icon variant (emoji, nerd, plain, kaomoji, squares)")
	lo.Must0(rootCmd.RegisterFlagCompletionFunc("icons", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return icon.AvailableVariants(), cobra.ShellCompDirectiveDefault
	}))
	lo.Must0(viper.BindPFlag(key.IconsVariant, rootCmd.PersistentFlags().Lookup("icons")))

	rootCmd.PersistentFlags().StringP("resolvers", "R", "", "Resolver configuration, a local path or an http(s) URL")
	lo.Must0(viper.BindPFlag(key.ResolversSource, rootCmd.PersistentFlags().Lookup("resolvers")))

	rootCmd.PersistentFlags().Bool("no-sniff", false, "Never start a browser; sniffing resolvers fail as unsupported")

	helpFunc := rootCmd.HelpFunc()
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		helpFunc(cmd, args)
		version.Notify(context.Background(), os.Stderr, newFetcher())
	})

	go func() {
		_ = util.Delete(where.Temp())
	}()
}

var rootCmd = &cobra.Command{
	Use:   constant.Reel,
	Short: "Turn video page links into playable stream URLs",
	Long: constant.AsciiArtLogo + "\n" +
		style.New().Italic(true).Foreground(color.HiPurple).Render("    - Turn video page links into playable stream URLs"),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if lo.Must(cmd.Flags().GetBool("no-sniff")) {
			viper.Set(key.SniffEnabled, false)
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		if cmd.Flags().Changed("version") {
			versionCmd.Run(versionCmd, args)
			return
		}
		handleErr(cmd.Help())
	},
}

// Execute runs the command tree.
func Execute() {
	if viper.GetBool(key.CliColored) {
		cc.Init(&cc.Config{
			RootCmd:       rootCmd,
			Headings:      cc.HiCyan + cc.Bold + cc.Underline,
			Commands:      cc.HiYellow + cc.Bold,
			Example:       cc.Italic,
			ExecName:      cc.Bold,
			Flags:         cc.Bold,
			FlagsDataType: cc.Italic + cc.HiBlue,
		})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func handleErr(err error) {
	if err != nil {
		log.Error(err)
		_, _ = fmt.Fprintf(os.Stderr, "%s %s\n", icon.Get(icon.Fail), strings.Trim(err.Error(), " \n"))
		os.Exit(1)
	}
}
