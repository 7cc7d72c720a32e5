package loader

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/danieljhkim/discord-loader/internal/clock"
)

// PollInterval is how often windows are scanned when the runtime does not
// report navigations.
const PollInterval = time.Second

var mainView = regexp.MustCompile(`^https?://[\w.-]+/channels(/|$)`)

// IsMainView reports whether url is the application's main content view.
func IsMainView(url string) bool {
	return mainView.MatchString(url)
}

// Injector runs the main page script in every window that reaches the main
// view, at most once per window.
type Injector struct {
	rt     Runtime
	clock  clock.Clock
	script string
	logger *log.Logger

	mu       sync.Mutex
	injected map[int]bool
}

// NewInjector creates an injector that requires mainpageJS in the window.
func NewInjector(rt Runtime, clk clock.Clock, mainpageJS string, logger *log.Logger) *Injector {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Injector{
		rt:       rt,
		clock:    clk,
		script:   mainpageScript(mainpageJS),
		logger:   logger,
		injected: make(map[int]bool),
	}
}

// mainpageScript also guards inside the page, so a reloaded window that
// keeps its ID but loses its page state is not covered twice by one load.
func mainpageScript(mainpageJS string) string {
	quoted, _ := json.Marshal(mainpageJS)
	return fmt.Sprintf("if(!window.__discordLoader){window.__discordLoader=true;require(%s)}", quoted)
}

// Start begins watching windows. Runtimes with navigation events drive the
// injector directly; otherwise windows are polled until ctx is done.
func (i *Injector) Start(ctx context.Context) {
	if events, ok := i.rt.(NavigationEvents); ok {
		events.OnNavigated(func(w Window, url string) {
			i.consider(w, url)
		})
		i.Scan()
		return
	}

	ticker := i.clock.NewTicker(PollInterval)
	i.Scan()
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C():
				i.Scan()
			}
		}
	}()
}

// Scan checks every open window once and returns how many were injected.
func (i *Injector) Scan() int {
	n := 0
	for _, w := range i.rt.Windows() {
		if i.consider(w, w.URL()) {
			n++
		}
	}
	return n
}

// consider marks the window before asking it to run the script, so a scan
// that fires while the script is still running skips the window.
func (i *Injector) consider(w Window, url string) bool {
	if !IsMainView(url) {
		return false
	}

	i.mu.Lock()
	if i.injected[w.ID()] {
		i.mu.Unlock()
		return false
	}
	i.injected[w.ID()] = true
	i.mu.Unlock()

	if err := w.ExecuteScript(i.script); err != nil {
		i.logger.Error("failed to inject main page script", "window", w.ID(), "err", err)
		return false
	}
	i.logger.Debug("injected main page script", "window", w.ID(), "url", url)
	return true
}

// Injected reports whether the window has been injected.
func (i *Injector) Injected(id int) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.injected[id]
}
