// Package images lists the card image database and resolves thumbnail URLs.
// Image bytes are served elsewhere; this package only names them.
package images

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/JonMunkholm/cardinventory/internal/core"
	"github.com/JonMunkholm/cardinventory/internal/logging"
	"github.com/JonMunkholm/cardinventory/internal/metrics"
)

// ErrInvalidPath is returned for listing paths that leave the image root.
var ErrInvalidPath = errors.New("invalid image path")

const (
	// URLPrefix is where the image database is served relative to BaseURL.
	URLPrefix = "/image-database"

	DefaultCacheSize = 256
	DefaultCacheTTL  = 5 * time.Minute
)

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".gif": true,
}

// Directory is a sub-directory of a listing. Path is usable as the next
// List argument.
type Directory struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// File is one image with the URL it is served at.
type File struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Listing is the content of one image-database directory.
type Listing struct {
	Path        string      `json:"path"`
	Directories []Directory `json:"directories"`
	Files       []File      `json:"files"`
}

// Lister reads directories under a root and caches the results.
type Lister struct {
	root    fs.FS
	baseURL string
	cache   *expirable.LRU[string, Listing]
}

// NewLister lists images under root. baseURL prefixes file URLs, for
// example "http://localhost:3001".
func NewLister(root, baseURL string, cacheSize int, ttl time.Duration) *Lister {
	return NewListerFS(os.DirFS(root), baseURL, cacheSize, ttl)
}

// NewListerFS is NewLister over any fs.FS.
func NewListerFS(root fs.FS, baseURL string, cacheSize int, ttl time.Duration) *Lister {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Lister{
		root:    root,
		baseURL: strings.TrimRight(baseURL, "/"),
		cache:   expirable.NewLRU[string, Listing](cacheSize, nil, ttl),
	}
}

// CleanPath turns a user-supplied listing path into a rooted, cleaned
// path. Any ".." segment is rejected.
func CleanPath(p string) (string, error) {
	p = strings.ReplaceAll(p, "\\", "/")
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return "", fmt.Errorf("%w: %q", ErrInvalidPath, p)
		}
	}
	return path.Clean("/" + p), nil
}

// List returns the directories and image files at p. Directories sort by
// name, files by the number in their name ("2.jpg" before "10.jpg").
func (l *Lister) List(ctx context.Context, p string) (Listing, error) {
	clean, err := CleanPath(p)
	if err != nil {
		return Listing{}, err
	}

	if cached, ok := l.cache.Get(clean); ok {
		metrics.ImageListingCacheHits.Inc()
		return cached, nil
	}
	metrics.ImageListingCacheMisses.Inc()

	if err := ctx.Err(); err != nil {
		return Listing{}, err
	}

	dir := "."
	if clean != "/" {
		dir = strings.TrimPrefix(clean, "/")
	}

	entries, err := fs.ReadDir(l.root, dir)
	if errors.Is(err, fs.ErrNotExist) {
		return Listing{}, fmt.Errorf("image directory %s: %w", clean, core.ErrNotFound)
	}
	if err != nil {
		return Listing{}, fmt.Errorf("read image directory %s: %w", clean, err)
	}

	listing := Listing{
		Path:        clean,
		Directories: []Directory{},
		Files:       []File{},
	}
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if e.IsDir() {
			listing.Directories = append(listing.Directories, Directory{
				Name: name,
				Path: path.Join(clean, name),
			})
			continue
		}
		if !imageExtensions[strings.ToLower(path.Ext(name))] {
			continue
		}
		listing.Files = append(listing.Files, File{
			Name: name,
			URL:  l.fileURL(path.Join(clean, name)),
		})
	}

	slices.SortFunc(listing.Directories, func(a, b Directory) int {
		return strings.Compare(a.Name, b.Name)
	})
	slices.SortStableFunc(listing.Files, func(a, b File) int {
		return compareNumericNames(a.Name, b.Name)
	})

	l.cache.Add(clean, listing)
	logging.FromContext(ctx).Debug("image directory listed", "path", clean,
		"directories", len(listing.Directories), "files", len(listing.Files))
	return listing, nil
}

// Invalidate drops every cached listing so the next List reads the
// directory again, for example after images were added on disk.
func (l *Lister) Invalidate() {
	l.cache.Purge()
}

func (l *Lister) fileURL(rooted string) string {
	segs := strings.Split(strings.TrimPrefix(rooted, "/"), "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return l.baseURL + URLPrefix + "/" + strings.Join(segs, "/")
}

// compareNumericNames orders names by their leading number. Names without
// one sort after numbered names, alphabetically.
func compareNumericNames(a, b string) int {
	na, aok := leadingNumber(a)
	nb, bok := leadingNumber(b)
	switch {
	case aok && bok:
		if na != nb {
			if na < nb {
				return -1
			}
			return 1
		}
	case aok:
		return -1
	case bok:
		return 1
	}
	return strings.Compare(a, b)
}

func leadingNumber(name string) (int, bool) {
	stem, _, _ := strings.Cut(name, ".")
	n, err := strconv.Atoi(stem)
	return n, err == nil
}
