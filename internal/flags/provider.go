// Package flags lists countries from a remote directory and fetches their
// flag images.
package flags

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"
)

const (
	DefaultURL     = "https://restcountries.com/v3.1/all?fields=name,cca2,flags"
	DefaultTimeout = 15 * time.Second

	maxBody = 32 << 20
)

var ErrUnexpectedStatus = errors.New("flags: unexpected response status")

// Country is one selectable entry of the directory.
type Country struct {
	Label    string
	Code     string
	ImageURL string
}

type entry struct {
	Name struct {
		Common string `json:"common"`
	} `json:"name"`
	CCA2  string `json:"cca2"`
	Flags struct {
		PNG string `json:"png"`
	} `json:"flags"`
}

// Provider loads the directory once and serves lookups from memory.
type Provider struct {
	url    string
	client *http.Client
	log    *slog.Logger

	once      sync.Once
	mu        sync.RWMutex
	countries []Country
	byCode    map[string]Country
}

func NewProvider(url string, timeout time.Duration, logger *slog.Logger) *Provider {
	if url == "" {
		url = DefaultURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Provider{
		url:    url,
		client: &http.Client{Timeout: timeout},
		log:    logger,
	}
}

// Load fetches the directory on the first call. Failures are logged and
// leave the list empty; later calls do not retry.
func (p *Provider) Load(ctx context.Context) {
	p.once.Do(func() {
		countries, err := p.fetchDirectory(ctx)
		if err != nil {
			p.log.Warn("country directory unavailable", "url", p.url, "error", err)
			return
		}
		p.set(countries)
		p.log.Info("country directory loaded", "countries", len(countries))
	})
}

func (p *Provider) fetchDirectory(ctx context.Context) ([]Country, error) {
	data, err := p.Fetch(ctx, p.url)
	if err != nil {
		return nil, err
	}
	var entries []entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("flags: decode directory: %w", err)
	}

	countries := make([]Country, 0, len(entries))
	for _, e := range entries {
		if e.CCA2 == "" || e.Flags.PNG == "" {
			continue
		}
		label := e.Name.Common
		if label == "" {
			label = e.CCA2
		}
		countries = append(countries, Country{Label: label, Code: e.CCA2, ImageURL: e.Flags.PNG})
	}
	sort.SliceStable(countries, func(i, j int) bool {
		return countries[i].Label < countries[j].Label
	})
	return countries, nil
}

func (p *Provider) set(countries []Country) {
	byCode := make(map[string]Country, len(countries))
	for _, c := range countries {
		byCode[c.Code] = c
	}
	p.mu.Lock()
	p.countries = countries
	p.byCode = byCode
	p.mu.Unlock()
}

// Countries returns the loaded directory sorted by label.
func (p *Provider) Countries() []Country {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]Country, len(p.countries))
	copy(out, p.countries)
	return out
}

func (p *Provider) Labels() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	labels := make([]string, len(p.countries))
	for i, c := range p.countries {
		labels[i] = c.Label
	}
	return labels
}

// Resolve maps a country code to its flag image URL.
func (p *Provider) Resolve(code string) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	c, ok := p.byCode[code]
	return c.ImageURL, ok
}

// Fetch GETs url and returns the response body.
func (p *Provider) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("flags: build request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("flags: get %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s from %s", ErrUnexpectedStatus, resp.Status, url)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("flags: read %s: %w", url, err)
	}
	return data, nil
}
