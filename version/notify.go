package version

import (
	"context"
	"fmt"
	"io"

	"github.com/reel-cli/reel/color"
	"github.com/reel-cli/reel/constant"
	"github.com/reel-cli/reel/icon"
	"github.com/reel-cli/reel/key"
	"github.com/reel-cli/reel/log"
	"github.com/reel-cli/reel/network"
	"github.com/reel-cli/reel/style"
	"github.com/reel-cli/reel/util"
	"github.com/spf13/viper"
)

// Notify writes a notice to w when a newer release exists. Lookup failures are only logged.
func Notify(ctx context.Context, w io.Writer, fetcher network.Fetcher) {
	if !viper.GetBool(key.CliVersionCheck) {
		return
	}

	erase := util.PrintErasable(fmt.Sprintf("%s Checking for a new version...", icon.Get(icon.Progress)))
	latest, err := Latest(ctx, fetcher)
	erase()
	if err != nil {
		log.Debugf("version check: %s", err)
		return
	}

	if cmp, err := Compare(latest, constant.Version); err != nil || cmp <= 0 {
		return
	}

	_, _ = fmt.Fprintf(w, "\n%s New version is available %s %s\n%s\n\n",
		style.Fg(color.Green)("▇▇▇"),
		style.Bold(latest),
		style.Faint(fmt.Sprintf("(you're on %s)", constant.Version)),
		style.Faint("https://github.com/reel-cli/reel/releases/tag/v"+latest),
	)
}
