// Package session owns the single active audit session: the current
// report, the persisted artifact, the live renderable handle and the
// risk cursor. The controller is the only place store clears and
// handle releases are paired, so the degraded report-only state is
// never entered by accident.
package session

import (
	"context"
	"log"
	"sync"

	"golang.org/x/sync/errgroup"

	"subtext/internal/handle"
	"subtext/internal/report"
)

// ReportCache persists the active report across restarts.
type ReportCache interface {
	Save(ctx context.Context, r report.Report) error
	Load(ctx context.Context) (report.Report, bool, error)
	Clear(ctx context.Context) error
}

// ArtifactStore persists the uploaded document bytes across restarts.
type ArtifactStore interface {
	Put(ctx context.Context, data []byte) error
	Get(ctx context.Context) ([]byte, bool, error)
	Clear(ctx context.Context) error
}

// FindingIndex receives the active report's findings for keyword
// lookup. May be nil when search is not wired.
type FindingIndex interface {
	Index(r report.Report)
	Clear()
}

// Cursor is the read-only navigation view handed to the presentation
// layer.
type Cursor struct {
	Index   int            `json:"index"`
	Total   int            `json:"total"`
	Finding report.Finding `json:"finding"`
	Page    int            `json:"page,omitempty"`
	HasPage bool           `json:"hasPage"`
}

// Snapshot is the read-only session view handed to the presentation
// layer.
type Snapshot struct {
	Report   *report.Report `json:"report,omitempty"`
	HandleID string         `json:"handleId,omitempty"`
	Cursor   *Cursor        `json:"cursor,omitempty"`
	Degraded bool           `json:"degraded"`
}

// Controller composes the stores, the handle manager and the
// navigator. Adoption and reset are serialized end to end under opMu —
// the persist calls included, so the stores always hold the last
// adopted report and never a superseded one. mu guards only the
// in-memory state, so cursor reads stay cheap.
type Controller struct {
	reports   ReportCache
	artifacts ArtifactStore
	handles   *handle.Manager
	index     FindingIndex

	opMu sync.Mutex

	mu       sync.Mutex
	active   *report.Report
	nav      *report.Navigator
	degraded bool
}

func NewController(reports ReportCache, artifacts ArtifactStore, handles *handle.Manager, index FindingIndex) *Controller {
	return &Controller{
		reports:   reports,
		artifacts: artifacts,
		handles:   handles,
		index:     index,
	}
}

// Startup rehydrates the session from the stores. The report and the
// artifact load concurrently; every read-path failure is absorbed as
// absence, so a corrupt cache degrades to an empty session and a
// missing artifact to the report-only state. Rehydration never writes
// back to the stores.
func (c *Controller) Startup(ctx context.Context) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	var (
		rep    report.Report
		repOK  bool
		blob   []byte
		blobOK bool
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, ok, err := c.reports.Load(gctx)
		if err != nil {
			log.Printf("session: report rehydration unavailable: %v", err)
			return nil
		}
		rep, repOK = r, ok
		return nil
	})
	g.Go(func() error {
		b, ok, err := c.artifacts.Get(gctx)
		if err != nil {
			log.Printf("session: artifact rehydration unavailable: %v", err)
			return nil
		}
		blob, blobOK = b, ok
		return nil
	})
	_ = g.Wait()

	if !repOK {
		// A stored artifact without a report is useless: the viewer
		// only opens from an active report.
		return
	}

	c.mu.Lock()
	c.active = &rep
	c.nav = report.NewNavigator(rep)
	if blobOK {
		c.handles.Acquire(blob)
		c.degraded = false
	} else {
		c.degraded = true
	}
	degraded := c.degraded
	c.mu.Unlock()

	if c.index != nil {
		c.index.Index(rep)
	}
	if degraded {
		log.Printf("session: rehydrated report without document, viewer preview unavailable")
	}
}

// Adopt makes a freshly analyzed report the active one. This is the
// single point at which upload success changes session state: the
// report is persisted, the artifact stored, a new handle acquired and
// the cursor reset. opMu is held across the persists too, so two
// back-to-back adoptions cannot interleave their store writes and
// leave a superseded report behind for the next rehydration.
// Persistence failures are non-fatal warnings — the in-memory session
// stays authoritative for this process run.
func (c *Controller) Adopt(ctx context.Context, r report.Report, data []byte) Snapshot {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	c.active = &r
	c.nav = report.NewNavigator(r)
	c.handles.Acquire(data)
	c.degraded = false
	snap := c.snapshotLocked()
	c.mu.Unlock()

	if err := c.reports.Save(ctx, r); err != nil {
		log.Printf("session: report not persisted, rehydration lost for next start: %v", err)
	}
	if err := c.artifacts.Put(ctx, data); err != nil {
		log.Printf("session: artifact not persisted, document preview lost for next start: %v", err)
	}
	if c.index != nil {
		c.index.Index(r)
	}
	return snap
}

// Reset clears the session: both stores, the live handle, the cursor.
// Clear failures are logged and do not stop the in-memory reset. Like
// Adopt, the whole transition holds opMu so a concurrent adoption
// cannot persist into stores that are mid-clear.
func (c *Controller) Reset(ctx context.Context) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	c.active = nil
	c.nav = nil
	c.degraded = false
	c.handles.Release()
	c.mu.Unlock()

	if err := c.reports.Clear(ctx); err != nil {
		log.Printf("session: report clear failed: %v", err)
	}
	if err := c.artifacts.Clear(ctx); err != nil {
		log.Printf("session: artifact clear failed: %v", err)
	}
	if c.index != nil {
		c.index.Clear()
	}
}

// Close releases the live handle on shutdown.
func (c *Controller) Close() {
	c.handles.Release()
}

// Snapshot returns the current session view.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	snap := Snapshot{Degraded: c.degraded}
	if c.active != nil {
		snap.Report = c.active
	}
	if id, ok := c.handles.Current(); ok {
		snap.HandleID = id
	}
	snap.Cursor = c.cursorLocked()
	return snap
}

// Next advances the risk cursor, saturating at the last finding.
func (c *Controller) Next() (Cursor, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.nav == nil {
		return Cursor{}, false
	}
	c.nav.Next()
	return c.currentCursorLocked()
}

// Previous moves the risk cursor back, saturating at the first finding.
func (c *Controller) Previous() (Cursor, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.nav == nil {
		return Cursor{}, false
	}
	c.nav.Previous()
	return c.currentCursorLocked()
}

// JumpTo clamps i into range and moves the cursor there.
func (c *Controller) JumpTo(i int) (Cursor, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.nav == nil {
		return Cursor{}, false
	}
	c.nav.JumpTo(i)
	return c.currentCursorLocked()
}

// CurrentCursor returns the cursor without moving it.
func (c *Controller) CurrentCursor() (Cursor, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.nav == nil {
		return Cursor{}, false
	}
	return c.currentCursorLocked()
}

func (c *Controller) currentCursorLocked() (Cursor, bool) {
	cursor := c.cursorLocked()
	if cursor == nil {
		return Cursor{}, false
	}
	return *cursor, true
}

func (c *Controller) cursorLocked() *Cursor {
	if c.nav == nil {
		return nil
	}
	idx, ok := c.nav.Index()
	if !ok {
		return nil
	}
	finding, _ := c.nav.Current()
	cursor := &Cursor{Index: idx, Total: c.nav.Len(), Finding: finding}
	if page, hasPage := c.nav.JumpTarget(); hasPage {
		cursor.Page = page
		cursor.HasPage = true
	}
	return cursor
}

// Document dereferences a renderable handle. A stale or unknown id
// yields false; the viewer shows "preview unavailable" rather than an
// error.
func (c *Controller) Document(id string) ([]byte, bool) {
	return c.handles.Deref(id)
}
