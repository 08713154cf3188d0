package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"StockSignal/internal/domain/models"
	domrepo "StockSignal/internal/domain/repository"
)

const cacheExt = ".json"

// FilePriceCache keeps one JSON file per key under dir. Freshness is the file's mtime.
// Writes go to a temp file that is renamed into place, so readers never see a partial file.
type FilePriceCache struct {
	dir string
	now func() time.Time
}

var _ domrepo.PriceCache = (*FilePriceCache)(nil)

func NewFilePriceCache(dir string) (*FilePriceCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &FilePriceCache{dir: dir, now: time.Now}, nil
}

func (c *FilePriceCache) path(key string) string {
	return filepath.Join(c.dir, sanitizeKey(key)+cacheExt)
}

func (c *FilePriceCache) Load(_ context.Context, key string, maxAge time.Duration) (models.PriceSeries, bool, error) {
	p := c.path(key)
	info, err := os.Stat(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if c.now().Sub(info.ModTime()) >= maxAge {
		return nil, false, nil
	}

	b, err := os.ReadFile(p)
	if err != nil {
		return nil, false, err
	}
	var series models.PriceSeries
	if err := json.Unmarshal(b, &series); err != nil {
		return nil, false, fmt.Errorf("decode %s: %w", filepath.Base(p), err)
	}
	return series, true, nil
}

func (c *FilePriceCache) Store(_ context.Context, key string, series models.PriceSeries) error {
	b, err := json.Marshal(series)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(c.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.path(key)); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

// Clear removes files for symbol, or every cache file when symbol is empty.
func (c *FilePriceCache) Clear(_ context.Context, symbol string) error {
	pattern := "*" + cacheExt
	if symbol != "" {
		pattern = sanitizeKey(symbol) + "_*" + cacheExt
	}
	matches, err := filepath.Glob(filepath.Join(c.dir, pattern))
	if err != nil {
		return err
	}
	var errs []error
	for _, m := range matches {
		if err := os.Remove(m); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// sanitizeKey keeps keys to a safe file-name alphabet (BRK.B and ^GSPC are valid tickers).
func sanitizeKey(key string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-', r == '.':
			return r
		default:
			return '-'
		}
	}, key)
}
