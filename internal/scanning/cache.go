package scanning

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.etcd.io/bbolt"
)

const textBucketName = "ocr_text"

// TextCache defines the interface for storing recognized text by key
type TextCache interface {
	// Get returns the cached text and whether it was found
	Get(key string) (string, bool, error)

	// Put stores the text for a key
	Put(key string, text string) error

	// Close closes the cache
	Close() error
}

type cachedText struct {
	Text      string    `json:"text"`
	ScannedAt time.Time `json:"scanned_at"`
}

// BoltCache implements the TextCache interface using BoltDB
type BoltCache struct {
	db *bbolt.DB
}

// NewBoltCache opens (or creates) the cache database
func NewBoltCache(path string) (*BoltCache, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(textBucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltCache{db: db}, nil
}

// Get retrieves cached text by key
func (b *BoltCache) Get(key string) (string, bool, error) {
	var entry *cachedText
	err := b.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(textBucketName)).Get([]byte(key))
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &entry)
	})
	if err != nil {
		return "", false, fmt.Errorf("reading cached text: %w", err)
	}
	if entry == nil {
		return "", false, nil
	}
	return entry.Text, true, nil
}

// Put stores text under a key
func (b *BoltCache) Put(key string, text string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(cachedText{Text: text, ScannedAt: time.Now().UTC()})
		if err != nil {
			return fmt.Errorf("marshaling cached text: %w", err)
		}
		return tx.Bucket([]byte(textBucketName)).Put([]byte(key), data)
	})
}

// Close closes the database
func (b *BoltCache) Close() error {
	return b.db.Close()
}

// CachedScanner skips recognition of images it has already seen with the same
// engine settings
type CachedScanner struct {
	scanner     Scanner
	cache       TextCache
	fingerprint string
}

// NewCachedScanner wraps a scanner. The fingerprint identifies the engine and its
// settings; changing it invalidates previous entries.
func NewCachedScanner(scanner Scanner, cache TextCache, fingerprint string) *CachedScanner {
	return &CachedScanner{
		scanner:     scanner,
		cache:       cache,
		fingerprint: fingerprint,
	}
}

// Fingerprint describes an engine and the options that change its output
func Fingerprint(engine string, opts Options) string {
	return fmt.Sprintf("%s|%s|%d|%s", engine, opts.Language, opts.PageSegMode, opts.ExtraConfig)
}

func (c *CachedScanner) key(imageData []byte) string {
	h := sha256.New()
	h.Write([]byte(c.fingerprint))
	h.Write([]byte{0})
	h.Write(imageData)
	return hex.EncodeToString(h.Sum(nil))
}

// ScanText returns the cached text or delegates to the wrapped scanner.
// Cache failures are logged and never fail the scan.
func (c *CachedScanner) ScanText(ctx context.Context, imageData []byte, contentType string) (string, error) {
	key := c.key(imageData)

	text, ok, err := c.cache.Get(key)
	if err != nil {
		slog.Warn("Error reading OCR cache", "error", err)
	} else if ok {
		slog.Debug("OCR cache hit", "key", key)
		return text, nil
	}

	text, err = c.scanner.ScanText(ctx, imageData, contentType)
	if err != nil {
		return "", err
	}

	if err := c.cache.Put(key, text); err != nil {
		slog.Warn("Error writing OCR cache", "error", err)
	}
	return text, nil
}

// Close closes both the wrapped scanner and the cache
func (c *CachedScanner) Close() error {
	return errors.Join(c.scanner.Close(), c.cache.Close())
}
