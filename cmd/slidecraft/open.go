package main

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// macApps maps the browser names accepted in [browser] to macOS app bundles.
var macApps = map[string]string{
	"chrome":  "Google Chrome",
	"firefox": "Firefox",
	"safari":  "Safari",
	"edge":    "Microsoft Edge",
}

// linuxBins maps the same names to executables on PATH.
var linuxBins = map[string]string{
	"chrome":   "google-chrome",
	"chromium": "chromium",
	"firefox":  "firefox",
	"edge":     "microsoft-edge",
}

// openCommand returns the command that shows url in the named browser on
// goos. An empty name uses the desktop's default handler.
func openCommand(goos, name, url string) (string, []string, error) {
	name = strings.TrimSpace(name)
	key := strings.ToLower(name)

	switch goos {
	case "darwin":
		if key == "" {
			return "open", []string{url}, nil
		}
		app, ok := macApps[key]
		if !ok {
			app = name
		}
		return "open", []string{"-a", app, url}, nil
	case "windows":
		if name == "" {
			return "rundll32", []string{"url.dll,FileProtocolHandler", url}, nil
		}
		if key == "edge" {
			name = "msedge"
		}
		return "cmd", []string{"/c", "start", "", name, url}, nil
	case "linux", "freebsd", "openbsd", "netbsd":
		if name == "" {
			return "xdg-open", []string{url}, nil
		}
		bin, ok := linuxBins[key]
		if !ok {
			bin = name
		}
		return bin, []string{url}, nil
	default:
		return "", nil, fmt.Errorf("opening a browser is not supported on %s", goos)
	}
}

// openInBrowser starts the browser and does not wait for it to exit.
func openInBrowser(name, url string) error {
	bin, args, err := openCommand(runtime.GOOS, name, url)
	if err != nil {
		return err
	}
	if _, err := exec.LookPath(bin); err != nil {
		return fmt.Errorf("browser %q not found: %w", bin, err)
	}

	cmd := exec.Command(bin, args...) // #nosec G204 - bin comes from a fixed table or the user's own config
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launching browser: %w", err)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}
