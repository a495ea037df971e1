// Package branding reads tenant presentation settings used in user-facing
// messages.
package branding

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Settings keys stored in the settings table.
const (
	KeyCurrency    = "currency"
	KeyCompanyName = "company_name"
	KeyLocale      = "locale"
)

// Settings is the resolved branding of the installation.
type Settings struct {
	Currency    currency.Unit
	CompanyName string
	Locale      language.Tag
}

// Loader fetches raw settings rows.
type Loader interface {
	LoadSettings(ctx context.Context) (map[string]string, error)
}

// Reader caches Settings for a TTL and coalesces concurrent loads.
type Reader struct {
	loader   Loader
	ttl      time.Duration
	defaults Settings
	logger   *slog.Logger
	now      func() time.Time

	group   singleflight.Group
	mu      sync.RWMutex
	cached  Settings
	expires time.Time
}

// Config configures NewReader.
type Config struct {
	TTL             time.Duration
	DefaultCurrency string
	DefaultLocale   string
}

// NewReader constructs a Reader. Invalid defaults fall back to USD and
// English.
func NewReader(loader Loader, cfg Config, logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Minute
	}
	defaults := Settings{Currency: currency.USD, Locale: language.English}
	if unit, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(cfg.DefaultCurrency))); err == nil {
		defaults.Currency = unit
	}
	if tag, err := language.Parse(strings.TrimSpace(cfg.DefaultLocale)); err == nil {
		defaults.Locale = tag
	}
	return &Reader{
		loader:   loader,
		ttl:      cfg.TTL,
		defaults: defaults,
		logger:   logger,
		now:      time.Now,
	}
}

// Settings returns the cached settings, loading them when expired. Load
// failures fall back to the configured defaults and are not cached.
func (r *Reader) Settings(ctx context.Context) Settings {
	if r == nil {
		return Settings{Currency: currency.USD, Locale: language.English}
	}
	r.mu.RLock()
	if r.now().Before(r.expires) {
		s := r.cached
		r.mu.RUnlock()
		return s
	}
	r.mu.RUnlock()
	if r.loader == nil {
		return r.defaults
	}

	ch := r.group.DoChan("settings", func() (interface{}, error) {
		raw, err := r.loader.LoadSettings(ctx)
		if err != nil {
			return nil, err
		}
		s := r.resolve(raw)
		r.mu.Lock()
		r.cached = s
		r.expires = r.now().Add(r.ttl)
		r.mu.Unlock()
		return s, nil
	})
	select {
	case <-ctx.Done():
		return r.defaults
	case res := <-ch:
		if res.Err != nil {
			r.logger.Warn("load branding settings", slog.Any("error", res.Err))
			return r.defaults
		}
		return res.Val.(Settings)
	}
}

func (r *Reader) resolve(raw map[string]string) Settings {
	s := r.defaults
	if code := strings.TrimSpace(raw[KeyCurrency]); code != "" {
		if unit, err := currency.ParseISO(strings.ToUpper(code)); err == nil {
			s.Currency = unit
		} else {
			r.logger.Warn("ignoring unknown currency setting", slog.String("currency", code))
		}
	}
	if name := strings.TrimSpace(raw[KeyCompanyName]); name != "" {
		s.CompanyName = name
	}
	if locale := strings.TrimSpace(raw[KeyLocale]); locale != "" {
		if tag, err := language.Parse(locale); err == nil {
			s.Locale = tag
		}
	}
	return s
}

// Invalidate drops the cached settings.
func (r *Reader) Invalidate() {
	r.mu.Lock()
	r.expires = time.Time{}
	r.mu.Unlock()
}

// FormatAmount renders amount in the configured currency and locale, e.g.
// "USD 1,250.00".
func (r *Reader) FormatAmount(ctx context.Context, amount decimal.Decimal) string {
	s := r.Settings(ctx)
	value, _ := amount.Round(2).Float64()
	return message.NewPrinter(s.Locale).Sprintf("%s %.2f", s.Currency.String(), value)
}
