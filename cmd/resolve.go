package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/reel-cli/reel/color"
	"github.com/reel-cli/reel/icon"
	"github.com/reel-cli/reel/key"
	"github.com/reel-cli/reel/playback"
	"github.com/reel-cli/reel/resolver"
	"github.com/reel-cli/reel/style"
	"github.com/reel-cli/reel/util"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/exp/slices"
	"golang.org/x/sync/errgroup"
)

// resolveOutput is one line of `reel resolve --json`.
type resolveOutput struct {
	Input  string           `json:"input" jsonschema:"description=URL given on the command line."`
	Result *playback.Result `json:"result,omitempty" jsonschema:"description=Resolution outcome. Absent when resolution failed."`
	Error  string           `json:"error,omitempty" jsonschema:"description=Why resolution failed."`
}

func init() {
	rootCmd.AddCommand(resolveCmd)

	resolveCmd.Flags().StringP("flag", "f", "", "Playback source tag used to pick the resolver cohort")
	resolveCmd.Flags().StringP("resolver", "r", "", "Pin the first resolution layer to the named resolver")
	lo.Must0(resolveCmd.RegisterFlagCompletionFunc("resolver", completionResolverNames))
	resolveCmd.Flags().String("hint", "", "Resolver hint: json:<template>, parse:<name> or a resolver page URL")
	resolveCmd.Flags().StringArrayP("header", "H", nil, "Request header as name:value, repeatable")
	resolveCmd.Flags().BoolP("json", "j", false, "Print results as JSON")
	resolveCmd.Flags().IntP("concurrency", "c", 0, "URLs resolved at once")
	lo.Must0(viper.BindPFlag(key.ResolveConcurrency, resolveCmd.Flags().Lookup("concurrency")))

	resolveCmd.SetOut(os.Stdout)
}

var resolveCmd = &cobra.Command{
	Use:   "resolve URL...",
	Short: "Resolve page URLs into playable stream URLs",
	Example: `  reel resolve https://v.example.com/play/123
  reel resolve --flag qq --json https://v.qq.com/x/cover/abc.html
  reel resolve --hint 'json:https://jx.example/api/?url=' https://site/ep1`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var (
			flag    = lo.Must(cmd.Flags().GetString("flag"))
			name    = lo.Must(cmd.Flags().GetString("resolver"))
			hint    = lo.Must(cmd.Flags().GetString("hint"))
			asJson  = lo.Must(cmd.Flags().GetBool("json"))
			headers = lo.Must(cmd.Flags().GetStringArray("header"))
		)

		requestHeaders, err := util.ParseHeaders(headers)
		handleErr(err)

		ctx := cmd.Context()
		eng, err := newEngine(ctx)
		handleErr(err)

		var pinned *resolver.Descriptor
		if name != "" {
			d, err := lookupResolver(eng.dispatcher.Snapshot(), name)
			if err != nil {
				eng.Close()
				handleErr(err)
			}
			pinned = &d
		}

		outputs := make([]resolveOutput, len(args))

		var g errgroup.Group
		g.SetLimit(max(1, viper.GetInt(key.ResolveConcurrency)))

		erase := func() {}
		if !asJson {
			erase = util.PrintErasable(fmt.Sprintf("%s Resolving %s...", icon.Get(icon.Progress), util.Quantify(len(args), "link", "links")))
		}

		for i, link := range args {
			g.Go(func() error {
				req := playback.Request{
					URL:             link,
					Headers:         playback.MergeHeaders(requestHeaders),
					NeedsResolution: true,
					Hint:            hint,
					Flag:            flag,
				}

				outputs[i].Input = link
				result, err := eng.dispatcher.Resolve(ctx, req, pinned)
				if err != nil {
					outputs[i].Error = err.Error()
					return nil
				}
				outputs[i].Result = &result
				return nil
			})
		}

		_ = g.Wait()
		erase()
		eng.Close()

		if asJson {
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			handleErr(encoder.Encode(outputs))
		} else {
			for _, out := range outputs {
				printResolved(cmd, out)
			}
		}

		if lo.SomeBy(outputs, func(o resolveOutput) bool { return o.Error != "" }) {
			os.Exit(1)
		}
	},
}

func printResolved(cmd *cobra.Command, out resolveOutput) {
	if out.Error != "" {
		cmd.PrintErrf("%s %s\n  %s\n", icon.Get(icon.Fail), out.Input, style.Fg(color.Red)(out.Error))
		return
	}

	r := out.Result
	status := icon.Get(icon.Success)
	if r.NeedsResolution {
		status = icon.Get(icon.Warn)
	}

	cmd.Printf("%s %s\n", status, style.Faint(out.Input))
	cmd.Printf("  %s %s\n", icon.Get(icon.Media), style.Bold(r.URL))

	details := lo.Compact([]string{
		lo.Ternary(r.ResolvedBy != "", "via "+style.Fg(color.Accent)(r.ResolvedBy), ""),
		lo.Ternary(r.Format != "", "format "+style.Fg(color.Yellow)(r.Format), ""),
		lo.Ternary(r.NeedsResolution, style.Fg(color.Orange)("still needs resolution"), ""),
	})
	if len(details) > 0 {
		cmd.Printf("  %s\n", style.Faint(strings.Join(details, " · ")))
	}

	names := lo.Keys(r.Headers)
	slices.Sort(names)
	for _, name := range names {
		cmd.Printf("  %s %s\n", style.Fg(color.Purple)(name+":"), r.Headers[name])
	}
}
