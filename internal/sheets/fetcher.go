package sheets

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/YaqiinCargo/CargoBox/internal/cache"
)

const cacheKeyPrefix = "sheet:"

// Fetcher отдаёт сырой текст таблицы по URL. Любой сбой источника
// (сеть, не-2xx) схлопывается в ok=false — наверх ошибки не идут,
// UI должен деградировать до "не найдено", а не падать.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, bool)
}

// CachedFetcher — Fetcher поверх BytesCache с TTL. Ключ кэша — исходный
// URL; в сам запрос добавляется t=<unix ms>, чтобы обойти промежуточные
// HTTP-кэши. Неудачный фетч кэш не трогает: следующий вызов повторит
// запрос сразу, а не через TTL.
type CachedFetcher struct {
	cache cache.BytesCache
	ttl   time.Duration
	httpc *http.Client
	now   func() time.Time
}

func NewCachedFetcher(c cache.BytesCache, ttl time.Duration) *CachedFetcher {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedFetcher{
		cache: c,
		ttl:   ttl,
		httpc: &http.Client{
			Timeout: 10 * time.Second,
		},
		now: time.Now,
	}
}

func (f *CachedFetcher) WithTimeout(d time.Duration) *CachedFetcher {
	if d > 0 {
		f.httpc.Timeout = d
	}
	return f
}

func (f *CachedFetcher) Fetch(ctx context.Context, url string) (string, bool) {
	if b, ok, err := f.cache.Get(ctx, cacheKeyPrefix+url); err == nil && ok {
		return string(b), true
	}

	sep := "?"
	if strings.Contains(url, "?") {
		sep = "&"
	}
	fetchURL := url + sep + "t=" + strconv.FormatInt(f.now().UnixMilli(), 10)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fetchURL, nil)
	if err != nil {
		return "", false
	}
	resp, err := f.httpc.Do(req)
	if err != nil {
		slog.Debug("sheet fetch failed", "url", url, "error", err.Error())
		return "", false
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		slog.Debug("sheet fetch non-2xx", "url", url, "status", resp.StatusCode)
		return "", false
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", false
	}

	// Кэш best effort: если redis лёг, отдаём данные без кэширования.
	_ = f.cache.Set(ctx, cacheKeyPrefix+url, b, f.ttl)
	return string(b), true
}

// ClearCache сносит все закэшированные таблицы (ручной refresh из UI).
func (f *CachedFetcher) ClearCache(ctx context.Context) error {
	return f.cache.DeleteByPrefix(ctx, cacheKeyPrefix)
}
