// Package gallery runs the per-property image upload queue: bounded intake,
// independent parallel uploads with progress, and cover selection.
package gallery

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"inmuebles-backend/internal/pkg/slug"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"
)

// MaxImages is the most images one property may hold, counting existing ones.
const MaxImages = 40

// ErrEntryNotFound is returned by Retry and SetCover for unknown targets.
var ErrEntryNotFound = errors.New("gallery: entry not found")

// Uploader stores an object and returns its public URL. progress may be nil.
// Delete is used for uploads that finish after their entry was removed.
type Uploader interface {
	Upload(ctx context.Context, key string, body []byte, contentType string, progress func(sent, total int64)) (string, error)
	Delete(ctx context.Context, key string) error
}

// State of one gallery entry.
type State string

const (
	StatePending   State = "pendiente"
	StateUploading State = "subiendo"
	StateDone      State = "listo"
	StateFailed    State = "error"
)

// File is one image handed to the gallery.
type File struct {
	Name string
	Data []byte
}

// Entry is a read-only view of one image slot.
type Entry struct {
	ID       string `json:"id"`
	Name     string `json:"nombre"`
	State    State  `json:"estado"`
	Progress int    `json:"progreso"`
	URL      string `json:"url,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Snapshot is the full gallery state at one instant.
type Snapshot struct {
	Entries []Entry `json:"imagenes"`
	Cover   string  `json:"imagenPrincipal,omitempty"`
}

// Config for New. Existing URLs are seeded as completed entries and count
// toward MaxImages.
type Config struct {
	Storage  Uploader
	Code     string
	Existing []string
	Cover    string
	OnChange func(Snapshot)
	Compress func([]byte) ([]byte, error)
	Now      func() time.Time
}

type entry struct {
	Entry
	file File
}

// Gallery is safe for concurrent use. All state changes happen under mu;
// OnChange is called after mu is released.
type Gallery struct {
	mu       sync.Mutex
	storage  Uploader
	code     string
	entries  []*entry
	cover    string
	onChange func(Snapshot)
	compress func([]byte) ([]byte, error)
	now      func() time.Time

	wg conc.WaitGroup
}

func New(cfg Config) *Gallery {
	g := &Gallery{
		storage:  cfg.Storage,
		code:     cfg.Code,
		cover:    cfg.Cover,
		onChange: cfg.OnChange,
		compress: cfg.Compress,
		now:      cfg.Now,
	}
	if g.compress == nil {
		g.compress = Compress
	}
	if g.now == nil {
		g.now = time.Now
	}
	for _, u := range cfg.Existing {
		if u == "" {
			continue
		}
		g.entries = append(g.entries, &entry{Entry: Entry{
			ID:       uuid.NewString(),
			Name:     path.Base(u),
			State:    StateDone,
			Progress: 100,
			URL:      u,
		}})
	}
	if g.cover == "" {
		g.cover = g.firstURL()
	}
	return g
}

// Add accepts as many files as fit under MaxImages, drops the rest and
// starts one upload per accepted file. It returns the accepted entries.
func (g *Gallery) Add(ctx context.Context, files []File) []Entry {
	g.mu.Lock()
	room := MaxImages - len(g.entries)
	if room < 0 {
		room = 0
	}
	if len(files) > room {
		log.Info().Str("codigo", g.code).Int("recibidas", len(files)).Int("aceptadas", room).
			Msg("gallery: image cap reached, dropping extra files")
		files = files[:room]
	}
	added := make([]*entry, 0, len(files))
	for _, f := range files {
		e := &entry{
			Entry: Entry{ID: uuid.NewString(), Name: f.Name, State: StatePending},
			file:  f,
		}
		g.entries = append(g.entries, e)
		added = append(added, e)
	}
	views := make([]Entry, len(added))
	for i, e := range added {
		views[i] = e.Entry
	}
	snap := g.snapshotLocked()
	g.mu.Unlock()

	g.notify(snap)
	for _, e := range added {
		e := e
		g.wg.Go(func() { g.upload(ctx, e) })
	}
	return views
}

// Wait blocks until every started upload has finished.
func (g *Gallery) Wait() {
	g.wg.Wait()
}

func (g *Gallery) upload(ctx context.Context, e *entry) {
	g.update(e, func() {
		e.State = StateUploading
		e.Progress = 0
		e.Error = ""
	})

	data, err := g.compress(e.file.Data)
	if err != nil {
		log.Warn().Err(err).Str("codigo", g.code).Str("archivo", e.Name).Msg("gallery: could not process image")
		g.fail(e, "No se pudo procesar la imagen.")
		return
	}

	key := g.objectKey(e.Name)
	url, err := g.storage.Upload(ctx, key, data, "image/jpeg", func(sent, total int64) {
		if total <= 0 {
			return
		}
		pct := int(sent * 100 / total)
		if pct > 99 {
			pct = 99 // 100 only once the URL is known
		}
		g.update(e, func() {
			if pct > e.Progress {
				e.Progress = pct
			}
		})
	})
	if err != nil {
		log.Error().Err(err).Str("codigo", g.code).Str("key", key).Msg("gallery: upload failed")
		g.fail(e, "Error al subir la imagen.")
		return
	}

	g.mu.Lock()
	if g.indexLocked(e.ID) < 0 {
		g.mu.Unlock()
		if err := g.storage.Delete(context.WithoutCancel(ctx), key); err != nil {
			log.Warn().Err(err).Str("codigo", g.code).Str("url", url).Msg("gallery: could not delete upload of a removed entry")
		}
		return
	}
	e.State = StateDone
	e.Progress = 100
	e.URL = url
	e.file = File{}
	if g.cover == "" {
		g.cover = url
	}
	snap := g.snapshotLocked()
	g.mu.Unlock()
	g.notify(snap)
}

func (g *Gallery) objectKey(name string) string {
	base := slug.SanitizeFileName(name)
	base = strings.TrimSuffix(base, path.Ext(base))
	if base == "" {
		base = "imagen"
	}
	code := slug.SanitizeFileName(strings.ToLower(g.code))
	return fmt.Sprintf("propiedades/%s/%d-%s-%s.jpg", strings.ToUpper(code), g.now().UnixMilli(), uuid.NewString()[:8], base)
}

func (g *Gallery) update(e *entry, fn func()) {
	g.mu.Lock()
	fn()
	snap := g.snapshotLocked()
	g.mu.Unlock()
	g.notify(snap)
}

func (g *Gallery) fail(e *entry, msg string) {
	g.update(e, func() {
		e.State = StateFailed
		e.Error = msg
	})
}

// Remove drops an entry. Removing the cover promotes the first completed
// remaining entry, or clears the cover.
func (g *Gallery) Remove(id string) bool {
	g.mu.Lock()
	i := g.indexLocked(id)
	if i < 0 {
		g.mu.Unlock()
		return false
	}
	removed := g.entries[i]
	g.entries = append(g.entries[:i], g.entries[i+1:]...)
	if removed.URL != "" && removed.URL == g.cover {
		g.cover = g.firstURL()
	}
	snap := g.snapshotLocked()
	g.mu.Unlock()
	g.notify(snap)
	return true
}

// SetCover makes url the cover. It must belong to a completed entry.
func (g *Gallery) SetCover(url string) error {
	g.mu.Lock()
	found := false
	for _, e := range g.entries {
		if e.URL == url && e.State == StateDone {
			found = true
			break
		}
	}
	if !found {
		g.mu.Unlock()
		return ErrEntryNotFound
	}
	g.cover = url
	snap := g.snapshotLocked()
	g.mu.Unlock()
	g.notify(snap)
	return nil
}

// Retry re-runs a failed entry.
func (g *Gallery) Retry(ctx context.Context, id string) error {
	g.mu.Lock()
	i := g.indexLocked(id)
	if i < 0 || g.entries[i].State != StateFailed {
		g.mu.Unlock()
		return ErrEntryNotFound
	}
	e := g.entries[i]
	e.State = StatePending
	e.Error = ""
	g.mu.Unlock()

	g.wg.Go(func() { g.upload(ctx, e) })
	return nil
}

func (g *Gallery) Cover() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cover
}

// URLs returns the completed image URLs in gallery order.
func (g *Gallery) URLs() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, 0, len(g.entries))
	for _, e := range g.entries {
		if e.State == StateDone && e.URL != "" {
			out = append(out, e.URL)
		}
	}
	return out
}

func (g *Gallery) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snapshotLocked()
}

func (g *Gallery) snapshotLocked() Snapshot {
	s := Snapshot{Entries: make([]Entry, len(g.entries)), Cover: g.cover}
	for i, e := range g.entries {
		s.Entries[i] = e.Entry
	}
	return s
}

func (g *Gallery) indexLocked(id string) int {
	for i, e := range g.entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func (g *Gallery) firstURL() string {
	for _, e := range g.entries {
		if e.State == StateDone && e.URL != "" {
			return e.URL
		}
	}
	return ""
}

func (g *Gallery) notify(s Snapshot) {
	if g.onChange != nil {
		g.onChange(s)
	}
}
