package orchestrator

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/fsnotify/fsnotify"
	"golang.org/x/term"

	"github.com/msp-agents/msp/internal/logging"
	"github.com/msp-agents/msp/internal/util"
)

// tailLines is how many trailing scratchpad lines each snapshot shows.
const tailLines = 3

var (
	pollerTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	pollerLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	pollerErrStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	pollerDimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Poller periodically renders a snapshot of every registered
// scratchpad so a human can watch workers make progress. It wakes on a
// timer and, when the filesystem supports it, immediately on writes to
// a watched scratchpad.
type Poller struct {
	interval time.Duration
	out      io.Writer
	logger   *logging.Logger

	mu       sync.Mutex
	pads     []padEntry
	watched  map[string]bool
	watcher  *fsnotify.Watcher
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	started  bool
	renderMu sync.Mutex
}

type padEntry struct {
	label string
	path  string
}

// NewPoller creates a Poller writing snapshots to out.
func NewPoller(interval time.Duration, out io.Writer, logger *logging.Logger) *Poller {
	if logger == nil {
		logger = logging.NopLogger()
	}
	if out == nil {
		out = os.Stdout
	}
	return &Poller{
		interval: interval,
		out:      out,
		logger:   logger,
		watched:  map[string]bool{},
	}
}

// Watch registers a scratchpad under a display label. The scratchpad
// file does not need to exist yet; its parent directory is watched so
// the first write wakes the poller.
func (p *Poller) Watch(label, path string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.pads = append(p.pads, padEntry{label: label, path: path})

	dir := filepath.Dir(path)
	if p.watcher != nil && !p.watched[dir] {
		if err := p.watcher.Add(dir); err != nil {
			p.logger.Warn("cannot watch scratchpad directory", "dir", dir, "error", err)
		} else {
			p.watched[dir] = true
		}
	}
}

// Start begins polling until Stop is called or ctx is canceled.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		// Timer-only polling still works without inotify.
		p.logger.Warn("fsnotify unavailable, falling back to timer only", "error", err)
		watcher = nil
	}
	p.watcher = watcher
	if watcher != nil {
		for _, pad := range p.pads {
			dir := filepath.Dir(pad.path)
			if p.watched[dir] {
				continue
			}
			if err := watcher.Add(dir); err != nil {
				p.logger.Warn("cannot watch scratchpad directory", "dir", dir, "error", err)
				continue
			}
			p.watched[dir] = true
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.started = true
	p.mu.Unlock()

	p.wg.Add(1)
	go p.loop(runCtx)
	return nil
}

// Stop halts polling and renders one final snapshot.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	cancel := p.cancel
	p.started = false
	p.mu.Unlock()

	cancel()
	p.wg.Wait()

	p.mu.Lock()
	if p.watcher != nil {
		p.watcher.Close()
		p.watcher = nil
	}
	p.mu.Unlock()

	p.RenderOnce()
}

func (p *Poller) loop(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	var events chan fsnotify.Event
	var errs chan error
	p.mu.Lock()
	if p.watcher != nil {
		events = p.watcher.Events
		errs = p.watcher.Errors
	}
	p.mu.Unlock()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.RenderOnce()
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 && p.isWatchedPad(ev.Name) {
				p.RenderOnce()
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			p.logger.Warn("scratchpad watch error", "error", err)
		}
	}
}

func (p *Poller) isWatchedPad(name string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, pad := range p.pads {
		if pad.path == name {
			return true
		}
	}
	return false
}

// RenderOnce writes a single snapshot of all watched scratchpads.
func (p *Poller) RenderOnce() {
	p.mu.Lock()
	pads := make([]padEntry, len(p.pads))
	copy(pads, p.pads)
	p.mu.Unlock()

	if len(pads) == 0 {
		return
	}

	p.renderMu.Lock()
	defer p.renderMu.Unlock()

	width := terminalWidth()
	var sb strings.Builder
	sb.WriteString(pollerTitleStyle.Render("── worker status "))
	sb.WriteString(pollerDimStyle.Render(time.Now().Format("15:04:05")))
	sb.WriteString("\n")

	for _, pad := range pads {
		sb.WriteString(pollerLabelStyle.Render(pad.label))
		sb.WriteString("\n")

		lines, err := tailFile(pad.path, tailLines)
		if err != nil {
			sb.WriteString("  " + pollerErrStyle.Render(fmt.Sprintf("(unreadable: %v)", err)) + "\n")
			continue
		}
		if len(lines) == 0 {
			sb.WriteString("  " + pollerDimStyle.Render("(no output yet)") + "\n")
			continue
		}
		for _, line := range lines {
			sb.WriteString("  " + util.TruncateANSI(line, width-2) + "\n")
		}
	}

	fmt.Fprint(p.out, sb.String())
}

// tailFile returns up to n trailing non-empty lines of the file. A
// missing file is not an error, just an empty tail.
func tailFile(path string, n int) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines, nil
}

func terminalWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return 80
}
