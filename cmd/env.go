package cmd

import (
	"os"
	"strings"

	"github.com/reel-cli/reel/color"
	"github.com/reel-cli/reel/config"
	"github.com/reel-cli/reel/constant"
	"github.com/reel-cli/reel/style"
	"github.com/reel-cli/reel/where"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"golang.org/x/exp/slices"
)

func init() {
	rootCmd.AddCommand(envCmd)
	envCmd.Flags().BoolP("set-only", "s", false, "Only show variables that are set")
	envCmd.Flags().BoolP("unset-only", "u", false, "Only show variables that are unset")

	envCmd.MarkFlagsMutuallyExclusive("set-only", "unset-only")
}

// envName maps a config key to the environment variable viper reads it from.
func envName(k string) string {
	if k == where.EnvConfigPath {
		return k
	}
	return strings.ToUpper(constant.Reel + "_" + config.EnvKeyReplacer.Replace(k))
}

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "Show the environment variables reel reads",
	Run: func(cmd *cobra.Command, args []string) {
		setOnly := lo.Must(cmd.Flags().GetBool("set-only"))
		unsetOnly := lo.Must(cmd.Flags().GetBool("unset-only"))

		names := lo.Map(append(slices.Clone(config.EnvExposed), where.EnvConfigPath), func(k string, _ int) string {
			return envName(k)
		})
		slices.Sort(names)

		for _, env := range names {
			value, present := os.LookupEnv(env)
			present = present && value != ""

			if (setOnly && !present) || (unsetOnly && present) {
				continue
			}

			cmd.Print(style.New().Bold(true).Foreground(color.Purple).Render(env))
			cmd.Print("=")

			if present {
				cmd.Println(style.Fg(color.Green)(value))
			} else {
				cmd.Println(style.Fg(color.Red)("unset"))
			}
		}
	},
}
