// Package atlas loads, caches and tracks the lifetime of texture atlases.
//
// Atlas images are read from an ofs.FileSystem, decoded, and uploaded through
// an Uploader, usually the DrawManager the atlases will be drawn with. PNG,
// JPEG, BMP and WebP images are supported.
//
// Decoding is safe for concurrent use and can happen on any goroutine.
// Uploading and deleting textures only happens in Atlas, Discard, Sweep and
// Close, which must be called from the render goroutine.
package atlas

import (
	"image"
	_ "image/jpeg" // image decoders
	_ "image/png"
	"io"
	"path"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/db47h/grender"
	"github.com/db47h/ofs"
	"github.com/fsnotify/fsnotify"
	"github.com/golang/freetype/truetype"
	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
	"golang.org/x/xerrors"
)

var errMissingAsset = xerrors.New("asset not found")

// Uploader creates and deletes textures.
type Uploader interface {
	Upload(img image.Image) grender.TextureID
	DeleteTexture(id grender.TextureID)
}

var handles uint32

func newHandle() grender.AtlasHandle {
	return grender.AtlasHandle(atomic.AddUint32(&handles, 1))
}

// Kind designates the kind of an asset.
type Kind int

const (
	KindAtlas Kind = iota
	KindFont
)

// Asset uniquely describes an asset.
type Asset struct {
	Kind
	Name string
}

func (a Asset) String() string {
	switch a.Kind {
	case KindAtlas:
		return "atlas " + a.Name
	case KindFont:
		return "font " + a.Name
	}
	return "unknown asset " + a.Name
}

// Result wraps the result from preloading an atlas.
type Result struct {
	Asset
	Err error
}

// an atlas image, uploaded on first use.
type entry struct {
	img    image.Image
	bounds image.Rectangle
	atlas  *grender.TextureAtlas
}

// A Manager manages asynchronous (pre)loading and caching of atlases and
// fonts.
type Manager struct {
	fs       ofs.FileSystem
	up       Uploader
	cfg      *config
	log      *zap.Logger
	m        sync.Mutex
	cond     *sync.Cond
	assets   map[Asset]interface{}
	pending  map[Asset]struct{}
	stale    []grender.TextureID
	watchers []*fsnotify.Watcher
}

// NewManager returns a new atlas Manager.
func NewManager(fs ofs.FileSystem, up Uploader, options ...Option) *Manager {
	cfg := defaultConfig()
	for _, o := range options {
		o.set(cfg)
	}

	m := &Manager{
		fs:      fs,
		up:      up,
		cfg:     cfg,
		log:     cfg.log,
		assets:  make(map[Asset]interface{}),
		pending: make(map[Asset]struct{}),
	}
	m.cond = sync.NewCond(&m.m)
	return m
}

type loadState int

const (
	stateMissing = iota
	statePending
	stateLoaded
)

func (m *Manager) lookup(a Asset) (data interface{}, state loadState) {
	if data, ok := m.assets[a]; ok {
		return data, stateLoaded
	}
	if _, ok := m.pending[a]; ok {
		return nil, statePending
	}
	return nil, stateMissing
}

func (m *Manager) assetPath(a Asset) string {
	switch a.Kind {
	case KindAtlas:
		return path.Join(m.cfg.atlasPath, a.Name)
	case KindFont:
		return path.Join(m.cfg.fontPath, a.Name)
	}
	return a.Name
}

// load reads an asset from disk. It must be called without holding m.m.
func (m *Manager) load(a Asset) (interface{}, error) {
	f, err := m.fs.Open(m.assetPath(a))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	switch a.Kind {
	case KindAtlas:
		img, _, err := image.Decode(f)
		if err != nil {
			return nil, err
		}
		return &entry{img: img, bounds: img.Bounds()}, nil
	case KindFont:
		data, err := io.ReadAll(f)
		if err != nil {
			return nil, err
		}
		return truetype.Parse(data)
	}
	return nil, xerrors.Errorf("unknown asset kind %d", a.Kind)
}

// get returns an asset from cache or synchronously loads it from disk if not
// in the cache. If this asset is being loaded from another goroutine, get will
// wait for the asset to be loaded and return the cached version.
//
// m.m must be held.
func (m *Manager) get(a Asset) (interface{}, error) {
	for {
		data, s := m.lookup(a)
		switch s {
		case stateMissing:
			m.pending[a] = struct{}{}
			m.m.Unlock()
			data, err := m.load(a)
			m.m.Lock()
			delete(m.pending, a)
			m.cond.Broadcast()
			if err != nil {
				return nil, xerrors.Errorf("load %s: %w", a, err)
			}
			m.assets[a] = data
			return data, nil
		case stateLoaded:
			return data, nil
		}
		m.cond.Wait()
	}
}

// Atlas returns the named atlas, loading and uploading it if needed.
//
// The returned atlas stays valid until it is discarded, flushed by Preload or
// changed on disk while watched.
func (m *Manager) Atlas(name string) (*grender.TextureAtlas, error) {
	m.m.Lock()
	defer m.m.Unlock()
	a := Asset{KindAtlas, name}
	data, err := m.get(a)
	if err != nil {
		return nil, err
	}
	e, ok := data.(*entry)
	if !ok {
		return nil, xerrors.Errorf("%s: not an atlas", a)
	}
	if e.atlas == nil {
		e.atlas = grender.NewTextureAtlas(newHandle(), m.up.Upload(e.img))
		e.img = nil
		m.log.Debug("Atlas uploaded",
			zap.String("name", name),
			zap.Stringer("handle", e.atlas.Handle()),
			zap.Uint32("texture", uint32(e.atlas.Texture())))
	}
	return e.atlas, nil
}

// Bounds returns the bounds of the named atlas image, loading it if needed.
func (m *Manager) Bounds(name string) (image.Rectangle, error) {
	m.m.Lock()
	defer m.m.Unlock()
	a := Asset{KindAtlas, name}
	data, err := m.get(a)
	if err != nil {
		return image.Rectangle{}, err
	}
	e, ok := data.(*entry)
	if !ok {
		return image.Rectangle{}, xerrors.Errorf("%s: not an atlas", a)
	}
	return e.bounds, nil
}

// Font returns the named font.
func (m *Manager) Font(name string) (*truetype.Font, error) {
	m.m.Lock()
	defer m.m.Unlock()
	a := Asset{KindFont, name}
	data, err := m.get(a)
	if err != nil {
		return nil, err
	}
	f, ok := data.(*truetype.Font)
	if !ok {
		return nil, xerrors.Errorf("%s: not a font", a)
	}
	return f, nil
}

// drop removes a loaded asset from the cache. The texture of a released atlas
// is queued for deletion by the next Sweep. m.m must be held.
func (m *Manager) drop(a Asset) bool {
	data, ok := m.assets[a]
	if !ok {
		return false
	}
	delete(m.assets, a)
	if e, ok := data.(*entry); ok && e.atlas != nil {
		e.atlas.Release()
		m.stale = append(m.stale, e.atlas.Texture())
	}
	return true
}

// Discard removes the named atlas from the cache, releases it and deletes its
// texture. Commands referencing it that are flushed afterwards are skipped.
func (m *Manager) Discard(name string) (err error) {
	a := Asset{KindAtlas, name}
	defer func() {
		if err != nil {
			err = xerrors.Errorf("discard %s: %w", a, err)
		}
	}()
	m.m.Lock()
	defer m.m.Unlock()
	for {
		if m.drop(a) {
			m.sweep()
			return nil
		}
		if _, ok := m.pending[a]; !ok {
			return errMissingAsset
		}
		m.cond.Wait()
	}
}

// Sweep deletes the textures of atlases released by Preload or by a watcher.
// It returns the number of deleted textures.
func (m *Manager) Sweep() int {
	m.m.Lock()
	defer m.m.Unlock()
	return m.sweep()
}

func (m *Manager) sweep() int {
	n := len(m.stale)
	for _, id := range m.stale {
		m.up.DeleteTexture(id)
	}
	m.stale = m.stale[:0]
	return n
}

// Close stops all watchers, then releases all atlases and deletes their
// textures. Loads in progress are waited for.
func (m *Manager) Close() error {
	m.m.Lock()
	defer m.m.Unlock()
	var errs errorList
	for _, w := range m.watchers {
		if err := w.Close(); err != nil {
			errs = append(errs, xerrors.Errorf("close watcher: %w", err))
		}
	}
	m.watchers = nil
	for len(m.pending) > 0 {
		m.cond.Wait()
	}
	for a := range m.assets {
		m.drop(a)
	}
	m.sweep()
	if errs != nil {
		return errs
	}
	return nil
}

// Preload bulk preloads atlases. If the flush argument is true, cached atlases
// not present in the names list will be released and removed from the cache.
// It returns a channel to read preload results from as well as the number of
// items that will actually be preloaded. This item count is informational
// only and callers should rely on the rc channel being closed to ensure that
// the operation is complete.
//
// Images are only decoded. Their textures are created by the first call to
// Atlas.
//
// Calling Preload concurrently may result in unexpected side effects, like
// flushing atlases that should not be. An alternative is to build the names
// slice concurrently and have a single goroutine call Preload and Wait.
func (m *Manager) Preload(names []string, flush bool) (rc <-chan Result, n int) {
	m.m.Lock()
	if flush {
		keep := make(map[string]struct{}, len(names))
		for _, name := range names {
			keep[name] = struct{}{}
		}
		for a := range m.assets {
			if _, ok := keep[a.Name]; !ok && a.Kind == KindAtlas {
				m.drop(a)
			}
		}
	}

	// mark atlases as pending and ignore loaded/pending ones
	assets := make([]Asset, 0, len(names))
	for _, name := range names {
		a := Asset{KindAtlas, name}
		if _, state := m.lookup(a); state != stateMissing {
			continue
		}
		m.pending[a] = struct{}{}
		assets = append(assets, a)
	}
	m.m.Unlock()

	c := make(chan Result)
	go m.preload(assets, c)
	return c, len(assets)
}

func (m *Manager) preload(assets []Asset, rc chan Result) {
	// spawn a limited number of workers. This is to prevent excessive
	// simultaneous disk access on mechanical hard drives.
	c := make(chan Asset)
	var wg sync.WaitGroup
	for i := 0; i < m.cfg.workers && i < len(assets); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for a := range c {
				data, err := m.load(a)
				m.m.Lock()
				if err != nil {
					err = xerrors.Errorf("preload %s: %w", a, err)
				} else {
					m.assets[a] = data
				}
				delete(m.pending, a)
				m.cond.Broadcast()
				m.m.Unlock()
				rc <- Result{Asset: a, Err: err}
			}
		}()
	}
	for _, a := range assets {
		c <- a
	}
	close(c)
	wg.Wait()
	close(rc)
}

// Wait waits for completion of a previous Preload and returns any load errors.
func Wait(rc <-chan Result) error {
	var errs errorList
	for r := range rc {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	if errs != nil {
		return errs
	}
	return nil
}

type errorList []error

func (e errorList) Error() string {
	var sb strings.Builder
	for i, err := range e {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(err.Error())
	}
	return sb.String()
}
