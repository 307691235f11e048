package fake

import (
	"context"
	"sync"
	"time"
)

// Source описывает поведение одного URL в фейковом фетчере.
type Source struct {
	Text  string
	Delay time.Duration
	Fail  bool
	// Hang — источник "висит" до отмены контекста (для тестов гонки).
	Hang bool
}

// Fetcher — фейковый sheets.Fetcher для тестов сервисов.
type Fetcher struct {
	mu      sync.Mutex
	sources map[string]Source
	calls   map[string]int
}

func New() *Fetcher {
	return &Fetcher{
		sources: map[string]Source{},
		calls:   map[string]int{},
	}
}

func (f *Fetcher) Set(url, text string) {
	f.SetSource(url, Source{Text: text})
}

func (f *Fetcher) SetSource(url string, s Source) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sources[url] = s
}

func (f *Fetcher) Calls(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[url]
}

func (f *Fetcher) Fetch(ctx context.Context, url string) (string, bool) {
	f.mu.Lock()
	s, ok := f.sources[url]
	f.calls[url]++
	f.mu.Unlock()

	if !ok || s.Fail {
		return "", false
	}
	if s.Hang {
		<-ctx.Done()
		return "", false
	}
	if s.Delay > 0 {
		select {
		case <-time.After(s.Delay):
		case <-ctx.Done():
			return "", false
		}
	}
	return s.Text, true
}
