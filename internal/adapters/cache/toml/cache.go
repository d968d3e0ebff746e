// Package toml caches fetched entries in a versioned TOML file so entry
// views keep working offline. Writes go through a temp file and rename.
package toml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/stackgnosis/sg-cli/internal/domain"
	"github.com/stackgnosis/sg-cli/internal/ports"
)

const (
	configName      = "config"
	configType      = "toml"
	cachePathKey    = "cache.path"
	cacheFileMode   = 0o600
	cacheDirMode    = 0o700
	cacheConfigDir  = ".config/sg"
	cacheFile       = "entries.toml"
	tempFilePattern = ".entries-*.toml.tmp"
)

type Cache struct {
	cachePath string
	mu        *sync.RWMutex
}

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

var _ ports.EntryCache = (*Cache)(nil)

// NewCache resolves the cache path from config (key cache.path), falling
// back to ~/.config/sg/entries.toml.
func NewCache(cfg *viper.Viper) (*Cache, error) {
	if cfg == nil {
		cfg = viper.New()
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	defaultPath := filepath.Join(homeDir, cacheConfigDir, cacheFile)

	cfg.SetConfigName(configName)
	cfg.SetConfigType(configType)
	cfg.AddConfigPath(filepath.Join(homeDir, cacheConfigDir))
	cfg.SetDefault(cachePathKey, defaultPath)

	err = cfg.ReadInConfig()
	if err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cachePath := cfg.GetString(cachePathKey)
	if cachePath == "" {
		return nil, errors.New("entry cache path is empty")
	}
	cachePath, err = normalizeCachePath(cachePath)
	if err != nil {
		return nil, err
	}

	return &Cache{cachePath: cachePath, mu: lockForPath(cachePath)}, nil
}

func (c *Cache) Get(ctx context.Context, slug string) (domain.Entry, error) {
	if err := ctx.Err(); err != nil {
		return domain.Entry{}, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	file, err := c.readSchema()
	if err != nil {
		return domain.Entry{}, err
	}

	for _, entry := range file.Entries {
		if entry.Slug == slug {
			return fromSchema(entry), nil
		}
	}

	return domain.Entry{}, domain.ErrEntryNotFound
}

func (c *Cache) List(ctx context.Context) ([]domain.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	file, err := c.readSchema()
	if err != nil {
		return nil, err
	}

	entries := make([]domain.Entry, 0, len(file.Entries))
	for _, entry := range file.Entries {
		entries = append(entries, fromSchema(entry))
	}

	return entries, nil
}

func (c *Cache) Put(ctx context.Context, entry domain.Entry) error {
	return c.update(ctx, []domain.Entry{entry})
}

func (c *Cache) PutAll(ctx context.Context, entries []domain.Entry) error {
	return c.update(ctx, entries)
}

func (c *Cache) update(ctx context.Context, entries []domain.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	file, err := c.readSchema()
	if err != nil {
		return err
	}
	file.applyDefaults()

	fetchedAt := time.Now().UTC().Format(time.RFC3339)
	for _, entry := range entries {
		encoded := toSchema(entry)
		encoded.FetchedAt = fetchedAt

		updated := false
		for i := range file.Entries {
			if file.Entries[i].Slug == encoded.Slug {
				file.Entries[i] = encoded
				updated = true
				break
			}
		}
		if !updated {
			file.Entries = append(file.Entries, encoded)
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	return c.writeSchema(file)
}

func (c *Cache) readSchema() (fileSchema, error) {
	data, err := os.ReadFile(c.cachePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fileSchema{}, nil
		}
		return fileSchema{}, fmt.Errorf("read entry cache: %w", err)
	}

	var file fileSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return fileSchema{}, fmt.Errorf("decode entry cache: %w", err)
	}
	if err := file.validateVersion(); err != nil {
		return fileSchema{}, err
	}
	file.applyDefaults()

	return file, nil
}

func (c *Cache) writeSchema(file fileSchema) error {
	file.applyDefaults()

	if err := os.MkdirAll(filepath.Dir(c.cachePath), cacheDirMode); err != nil {
		return fmt.Errorf("create entry cache directory: %w", err)
	}

	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode entry cache: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(c.cachePath), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp cache file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp cache file: %w", err)
	}

	if err := tempFile.Chmod(cacheFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp cache file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp cache file: %w", err)
	}

	if err := os.Rename(tempName, c.cachePath); err != nil {
		return fmt.Errorf("replace entry cache file: %w", err)
	}

	cleanup = false

	if err := os.Chmod(c.cachePath, cacheFileMode); err != nil {
		return fmt.Errorf("chmod entry cache file: %w", err)
	}

	return nil
}

func toSchema(entry domain.Entry) entrySchema {
	encoded := entrySchema{
		Identifier:  entry.Identifier,
		Slug:        entry.Slug,
		Title:       entry.Title,
		Description: entry.Description,
		DateCreated: entry.DateCreated,
		DateUpdated: entry.DateUpdated,
	}
	for _, ref := range entry.Related {
		encoded.Related = append(encoded.Related, entryRefSchema{Slug: ref.Slug, Title: ref.Title})
	}
	return encoded
}

func fromSchema(entry entrySchema) domain.Entry {
	decoded := domain.Entry{
		Identifier:  entry.Identifier,
		Slug:        entry.Slug,
		Title:       entry.Title,
		Description: entry.Description,
		DateCreated: entry.DateCreated,
		DateUpdated: entry.DateUpdated,
	}
	for _, ref := range entry.Related {
		decoded.Related = append(decoded.Related, domain.EntryRef{Slug: ref.Slug, Title: ref.Title})
	}
	return decoded
}

func normalizeCachePath(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve entry cache path: %w", err)
	}

	return filepath.Clean(absPath), nil
}

func lockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}

	mu := &sync.RWMutex{}
	pathLockMap[path] = mu
	return mu
}
