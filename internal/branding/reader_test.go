package branding

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/currency"
)

type stubLoader struct {
	calls atomic.Int32
	data  map[string]string
	err   error
	wait  chan struct{}
}

func (s *stubLoader) LoadSettings(context.Context) (map[string]string, error) {
	s.calls.Add(1)
	if s.wait != nil {
		<-s.wait
	}
	return s.data, s.err
}

func TestReaderCachesWithinTTL(t *testing.T) {
	loader := &stubLoader{data: map[string]string{KeyCurrency: "eur", KeyCompanyName: "Print Shop"}}
	r := NewReader(loader, Config{TTL: time.Minute}, nil)
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	s := r.Settings(context.Background())
	require.Equal(t, currency.EUR, s.Currency)
	require.Equal(t, "Print Shop", s.CompanyName)
	r.Settings(context.Background())
	require.EqualValues(t, 1, loader.calls.Load())

	now = now.Add(2 * time.Minute)
	r.Settings(context.Background())
	require.EqualValues(t, 2, loader.calls.Load())

	r.Invalidate()
	r.Settings(context.Background())
	require.EqualValues(t, 3, loader.calls.Load())
}

func TestReaderCoalescesConcurrentLoads(t *testing.T) {
	loader := &stubLoader{data: map[string]string{KeyCurrency: "GBP"}, wait: make(chan struct{})}
	r := NewReader(loader, Config{}, nil)

	var wg sync.WaitGroup
	results := make([]Settings, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = r.Settings(context.Background())
		}(i)
	}
	require.Eventually(t, func() bool { return loader.calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(loader.wait)
	wg.Wait()

	require.EqualValues(t, 1, loader.calls.Load())
	for _, s := range results {
		require.Equal(t, currency.GBP, s.Currency)
	}
}

func TestReaderFallsBackToDefaults(t *testing.T) {
	loader := &stubLoader{err: errors.New("relation settings does not exist")}
	r := NewReader(loader, Config{DefaultCurrency: "USD"}, nil)

	s := r.Settings(context.Background())
	require.Equal(t, currency.USD, s.Currency)
	r.Settings(context.Background())
	require.EqualValues(t, 2, loader.calls.Load())

	unknown := NewReader(&stubLoader{data: map[string]string{KeyCurrency: "ZZZ"}}, Config{DefaultCurrency: "JPY"}, nil)
	require.Equal(t, currency.JPY, unknown.Settings(context.Background()).Currency)
}

func TestFormatAmount(t *testing.T) {
	r := NewReader(nil, Config{DefaultCurrency: "USD"}, nil)
	require.Equal(t, "USD 500.00", r.FormatAmount(context.Background(), decimal.NewFromInt(500)))
	require.Equal(t, "USD 12.35", r.FormatAmount(context.Background(), decimal.RequireFromString("12.345")))
}
