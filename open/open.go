// Package open hands paths and URLs to the platform's default handler.
package open

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/reel-cli/reel/constant"
)

// Start opens target without waiting for the handler to exit.
// A non-empty app names the program to open it with.
func Start(target, app string) error {
	cmd, err := Command(runtime.GOOS, target, app)
	if err != nil {
		return err
	}
	return cmd.Start()
}

// Command builds the launcher invocation for goos.
func Command(goos, target, app string) (*exec.Cmd, error) {
	switch goos {
	case constant.Windows:
		if app != "" {
			return exec.Command("cmd", "/C", "start", "", app, target), nil
		}
		rundll := filepath.Join(os.Getenv("SYSTEMROOT"), "System32", "rundll32.exe")
		return exec.Command(rundll, "url.dll,FileProtocolHandler", target), nil
	case constant.Darwin:
		if app != "" {
			return exec.Command("open", "-a", app, target), nil
		}
		return exec.Command("open", target), nil
	case constant.Linux:
		if app != "" {
			return exec.Command(app, target), nil
		}
		return exec.Command("xdg-open", target), nil
	case constant.Android:
		return exec.Command("termux-open", target), nil
	default:
		return nil, fmt.Errorf("unsupported OS: %s", goos)
	}
}
