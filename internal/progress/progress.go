// Package progress writes page-walk status lines to stderr while a
// scrape runs.
package progress

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// Indicator reports how far a result-page walk has gotten. Both sold
// variants scrape concurrently, so all methods are safe for concurrent
// use.
type Indicator struct {
	enabled   bool
	message   string
	total     int
	startTime time.Time

	mu        sync.Mutex
	pages     int
	fragments int
}

// NewIndicator creates an indicator for a walk of up to total pages per
// variant. A disabled indicator discards every call.
func NewIndicator(message string, total int, enabled bool) *Indicator {
	return &Indicator{
		enabled:   enabled,
		message:   message,
		total:     total,
		startTime: time.Now(),
	}
}

// ForPages creates an indicator for a sold-listing page walk
func ForPages(message string, maxPages int, quiet bool) *Indicator {
	return NewIndicator(message, maxPages, !quiet)
}

// Start begins the progress indication
func (p *Indicator) Start() {
	if !p.enabled {
		return
	}
	p.startTime = time.Now()
	fmt.Fprintf(os.Stderr, "%s...\n", p.message)
}

// PageDone records one fetched result page and the fragments it held.
func (p *Indicator) PageDone(fragments int) {
	if !p.enabled {
		return
	}

	p.mu.Lock()
	p.pages++
	p.fragments += fragments
	pages, collected := p.pages, p.fragments
	p.mu.Unlock()

	if p.total > 0 {
		// Both sold variants walk up to total pages each.
		percentage := float64(pages) / float64(p.total*2) * 100
		if percentage > 100 {
			percentage = 100
		}
		fmt.Fprintf(os.Stderr, "\r%s [%s] %d pages, %d listings",
			p.message, p.bar(percentage), pages, collected)
	} else {
		fmt.Fprintf(os.Stderr, "\r%s %d pages, %d listings", p.message, pages, collected)
	}
}

// Finish completes the progress indication
func (p *Indicator) Finish() {
	if !p.enabled {
		return
	}

	p.mu.Lock()
	pages, collected := p.pages, p.fragments
	p.mu.Unlock()

	elapsed := time.Since(p.startTime)
	fmt.Fprintf(os.Stderr, "\r%s done: %d pages, %d listings in %s\n",
		p.message, pages, collected, formatDuration(elapsed))
}

// FinishWithError completes the progress indication after a failed walk
func (p *Indicator) FinishWithError(err error) {
	if !p.enabled {
		return
	}

	elapsed := time.Since(p.startTime)
	fmt.Fprintf(os.Stderr, "\r%s failed after %s: %v\n",
		p.message, formatDuration(elapsed), err)
}

// bar renders a fixed-width visual progress bar.
func (p *Indicator) bar(percentage float64) string {
	const width = 30
	filled := int(percentage / 100.0 * width)

	var bar strings.Builder
	for i := 0; i < width; i++ {
		if i < filled {
			bar.WriteString("█")
		} else if i == filled && percentage < 100 {
			bar.WriteString("▓")
		} else {
			bar.WriteString("░")
		}
	}
	return bar.String()
}

// formatDuration formats a duration for display
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	} else if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	} else if d < time.Hour {
		return fmt.Sprintf("%.1fm", d.Minutes())
	}
	return fmt.Sprintf("%.1fh", d.Hours())
}
