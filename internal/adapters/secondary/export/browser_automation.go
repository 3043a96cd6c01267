package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"

	"github.com/chromedp/chromedp"

	"github.com/fredcamaral/slidecraft/internal/adapters/secondary/renderer"
	"github.com/fredcamaral/slidecraft/internal/domain/ports"
)

// BrowserConfig configures the headless browser capturer
type BrowserConfig struct {
	ExecutablePath string
	TempDir        string
	Logger         *slog.Logger
}

// BrowserCapturer screenshots slides rendered by the HTML renderer in a
// headless Chrome instance. One browser process serves every capture; each
// capture runs in its own tab.
type BrowserCapturer struct {
	executablePath string
	tempDir        string
	logger         *slog.Logger

	allocCtx    context.Context
	allocCancel context.CancelFunc
	browserCtx  context.Context
	cancel      context.CancelFunc

	mu    sync.Mutex
	decks *deckCache
}

// NewBrowserCapturer locates Chrome and starts the browser lazily on the
// first capture.
func NewBrowserCapturer(config BrowserConfig) (*BrowserCapturer, error) {
	execPath := config.ExecutablePath
	if execPath == "" {
		var err error
		execPath, err = findChromeExecutable()
		if err != nil {
			return nil, &ExportError{
				Type:    ErrorTypeBrowser,
				Message: "could not find Chrome/Chromium executable",
				Code:    "NO_BROWSER",
				Cause:   err,
			}
		}
	}

	tempDir := config.TempDir
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &BrowserCapturer{
		executablePath: execPath,
		tempDir:        tempDir,
		logger:         logger,
		decks:          newDeckCache(tempDir, logger),
	}, nil
}

// Name identifies the capturer in logs and metrics.
func (b *BrowserCapturer) Name() string {
	return "browser"
}

func (b *BrowserCapturer) browser() (context.Context, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.browserCtx != nil {
		if err := b.browserCtx.Err(); err == nil {
			return b.browserCtx, nil
		}
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.ExecPath(b.executablePath),
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.Headless,
		chromedp.DisableGPU,
		chromedp.Flag("hide-scrollbars", true),
		chromedp.WindowSize(ports.SlideWidth, ports.SlideHeight),
	)
	b.allocCtx, b.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	b.browserCtx, b.cancel = chromedp.NewContext(b.allocCtx)

	// Run with no actions starts the browser process.
	if err := chromedp.Run(b.browserCtx); err != nil {
		b.cancel()
		b.allocCancel()
		b.browserCtx = nil
		return nil, fmt.Errorf("starting headless browser: %w", err)
	}
	b.logger.Debug("headless browser started", slog.String("path", b.executablePath))
	return b.browserCtx, nil
}

// deckFile returns the rendered HTML for the request's revision and theme.
// Each presentation keeps only its latest rendering on disk.
func (b *BrowserCapturer) deckFile(req ports.CaptureRequest) (string, func(), error) {
	p := req.Presentation
	key := strconv.FormatInt(p.UpdatedAt.UnixNano(), 10) + "@" + req.Theme.ID
	return b.decks.acquire(p.ID, key, func() ([]byte, error) {
		return renderer.RenderDeck(p, req.Theme, renderer.ModePresent)
	})
}

// Capture screenshots the slide's section element.
func (b *BrowserCapturer) Capture(ctx context.Context, req ports.CaptureRequest) (*ports.Bitmap, error) {
	if req.Presentation == nil || req.Index < 0 || req.Index >= len(req.Presentation.Slides) {
		return nil, fmt.Errorf("slide %d out of range", req.Index)
	}

	path, release, err := b.deckFile(req)
	if err != nil {
		return nil, err
	}
	defer release()

	browserCtx, err := b.browser()
	if err != nil {
		return nil, err
	}

	tabCtx, cancelTab := chromedp.NewContext(browserCtx)
	defer cancelTab()

	// The tab inherits the browser's lifetime; tie it to the caller too.
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	scale := req.Scale
	if scale <= 0 {
		scale = 1
	}

	selector := "#slide-" + strconv.Itoa(req.Index)
	var buf []byte
	err = chromedp.Run(tabCtx,
		chromedp.EmulateViewport(ports.SlideWidth, ports.SlideHeight, chromedp.EmulateScale(scale)),
		chromedp.Navigate("file://"+filepath.ToSlash(path)),
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.Screenshot(selector, &buf, chromedp.NodeVisible, chromedp.ByQuery),
	)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("browser capture of slide %d: %w", req.Index+1, err)
	}

	return &ports.Bitmap{
		Width:  int(float64(ports.SlideWidth) * scale),
		Height: int(float64(ports.SlideHeight) * scale),
		PNG:    buf,
	}, nil
}

// Close stops the browser and removes rendered deck files.
func (b *BrowserCapturer) Close() error {
	b.mu.Lock()
	if b.cancel != nil {
		b.cancel()
		b.allocCancel()
		b.browserCtx = nil
	}
	b.mu.Unlock()

	return b.decks.clear()
}

// findChromeExecutable attempts to find Chrome or Chromium executable
func findChromeExecutable() (string, error) {
	var candidates []string

	switch runtime.GOOS {
	case "darwin": // macOS
		candidates = []string{
			"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
			"/Applications/Chromium.app/Contents/MacOS/Chromium",
		}
	case "linux":
		candidates = []string{
			"/usr/bin/google-chrome",
			"/usr/bin/google-chrome-stable",
			"/usr/bin/chromium",
			"/usr/bin/chromium-browser",
			"/snap/bin/chromium",
		}
	case "windows":
		candidates = []string{
			"C:\\Program Files\\Google\\Chrome\\Application\\chrome.exe",
			"C:\\Program Files (x86)\\Google\\Chrome\\Application\\chrome.exe",
		}
	}

	for _, candidate := range candidates {
		if isExecutableFile(candidate) {
			return candidate, nil
		}
	}

	for _, name := range []string{"google-chrome", "chromium", "chromium-browser", "chrome", "chrome.exe"} {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}

	return "", errors.New("no Chrome or Chromium executable found; install one or set export.chrome_path")
}

// isExecutableFile checks if a file exists and is executable
func isExecutableFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}

	// On Windows, we can't easily check execute permissions
	if runtime.GOOS == "windows" {
		return !info.IsDir()
	}

	return !info.IsDir() && (info.Mode()&0111) != 0
}

var _ ports.SlideCapturer = (*BrowserCapturer)(nil)
