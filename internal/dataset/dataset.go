// Package dataset loads one work version of the metadata bundles into an
// immutable snapshot and keeps the current snapshot swappable.
package dataset

import (
	"context"
	"encoding/json"
	"path"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	nxerrors "nxmeta/internal/errors"
	"nxmeta/internal/grouping"
	"nxmeta/internal/lineage"
	"nxmeta/internal/logging"
	"nxmeta/internal/reconcile"
)

// DefaultVersion is the work version loaded when none is given.
const DefaultVersion = "WORK800"

// Snapshot is one loaded work version. It is never mutated after Load.
type Snapshot struct {
	Version  string    `json:"version"`
	LoadedAt time.Time `json:"loadedAt"`

	Edges []lineage.Edge `json:"-"`

	// CodebaseProperties and CodebaseEvents feed the lineage report.
	CodebaseProperties reconcile.NameSets `json:"-"`
	CodebaseEvents     reconcile.NameSets `json:"-"`
	// The All* sets are the codebase side of reconciliation.
	AllComponentProperties reconcile.NameSets `json:"-"`
	AllComponentEvents     reconcile.NameSets `json:"-"`
	MetainfoProperties     reconcile.NameSets `json:"-"`
	MetainfoEvents         reconcile.NameSets `json:"-"`
	ComponentNames         []string           `json:"-"`

	Resolver *lineage.Resolver `json:"-"`
	Groups   grouping.Groups   `json:"-"`

	// Annotations is loaded alongside the bundles but may be unavailable.
	Annotations AnnotationStatus `json:"-"`
}

// Stats summarizes a snapshot for health output.
type Stats struct {
	Version    string                    `json:"version"`
	LoadedAt   time.Time                 `json:"loadedAt"`
	Edges      int                       `json:"edges"`
	Components int                       `json:"components"`
	Groups     map[grouping.Category]int `json:"groups"`
}

// Stats reports sizes.
func (s *Snapshot) Stats() Stats {
	st := Stats{
		Version:    s.Version,
		LoadedAt:   s.LoadedAt,
		Edges:      len(s.Edges),
		Components: s.Groups.Len(),
		Groups:     make(map[grouping.Category]int, len(grouping.Order)),
	}
	for _, c := range grouping.Order {
		st.Groups[c] = len(s.Groups[c])
	}
	return st
}

// Sources returns the name sets compared by a full reconciliation.
func (s *Snapshot) Sources() reconcile.Sources {
	return reconcile.Sources{
		CodebaseProperties: s.AllComponentProperties,
		CodebaseEvents:     s.AllComponentEvents,
		MetainfoProperties: s.MetainfoProperties,
		MetainfoEvents:     s.MetainfoEvents,
	}
}

// Components lists every grouped component name.
func (s *Snapshot) Components() []string {
	return s.Groups.All()
}

// NewSnapshot derives the resolver and groups from already decoded bundles.
func NewSnapshot(version string, b Bundles, marker string, now time.Time) *Snapshot {
	r := lineage.NewResolver(b.Edges)
	return &Snapshot{
		Version:                version,
		LoadedAt:               now,
		Edges:                  b.Edges,
		CodebaseProperties:     reconcile.NewNameSets(b.CodebaseProperties, reconcile.Properties),
		CodebaseEvents:         reconcile.NewNameSets(b.CodebaseEvents, reconcile.Events),
		AllComponentProperties: reconcile.NewNameSets(b.AllComponentProperties, reconcile.Properties),
		AllComponentEvents:     reconcile.NewNameSets(b.AllComponentEvents, reconcile.Events),
		MetainfoProperties:     reconcile.NewNameSets(b.MetainfoProperties, reconcile.Properties),
		MetainfoEvents:         reconcile.NewNameSets(b.MetainfoEvents, reconcile.Events),
		ComponentNames:         b.ComponentNames,
		Resolver:               r,
		Groups:                 grouping.ClassifyWith(r, b.Edges, marker),
	}
}

// Bundles is the raw decoded content of one work version.
type Bundles struct {
	Edges                  []lineage.Edge
	CodebaseProperties     []reconcile.Entry
	CodebaseEvents         []reconcile.Entry
	AllComponentProperties []reconcile.Entry
	AllComponentEvents     []reconcile.Entry
	MetainfoProperties     []reconcile.Entry
	MetainfoEvents         []reconcile.Entry
	ComponentNames         []string
}

// Holder publishes the current snapshot. Readers always see a complete
// snapshot, either the previous one or the new one.
type Holder struct {
	current atomic.Pointer[Snapshot]
}

// Current returns the loaded snapshot, or nil before the first load.
func (h *Holder) Current() *Snapshot {
	return h.current.Load()
}

// Store replaces the current snapshot and returns the previous one.
func (h *Holder) Store(s *Snapshot) *Snapshot {
	return h.current.Swap(s)
}

// Options configure a Loader.
type Options struct {
	Root   string
	Marker string
	Logger *logging.Logger
	// Fetcher overrides the fetcher derived from Root.
	Fetcher Fetcher
	Now     func() time.Time
}

// Loader reads work versions from a data root.
type Loader struct {
	fetcher Fetcher
	marker  string
	logger  *logging.Logger
	now     func() time.Time
}

// NewLoader creates a loader for opts.Root.
func NewLoader(opts Options) *Loader {
	l := &Loader{
		fetcher: opts.Fetcher,
		marker:  opts.Marker,
		logger:  opts.Logger,
		now:     opts.Now,
	}
	if l.fetcher == nil {
		l.fetcher = NewFetcher(opts.Root)
	}
	if l.marker == "" {
		l.marker = grouping.DefaultMarker
	}
	if l.logger == nil {
		l.logger = logging.Nop()
	}
	if l.now == nil {
		l.now = time.Now
	}
	return l
}

// Load fetches every bundle of version in parallel. The load succeeds only
// when all bundles arrive and decode; otherwise nothing is returned.
func (l *Loader) Load(ctx context.Context, version string) (*Snapshot, error) {
	if version == "" {
		version = DefaultVersion
	}
	start := l.now()

	m, err := LoadManifest(ctx, l.fetcher)
	if err != nil {
		return nil, nxerrors.New(nxerrors.FetchFailed, "loading bundle manifest", err)
	}

	var b Bundles
	g, gctx := errgroup.WithContext(ctx)
	fetch := func(rel string, into interface{}) {
		full := path.Join(version, rel)
		g.Go(func() error {
			data, err := l.fetcher.Fetch(gctx, full)
			if err != nil {
				return nxerrors.New(nxerrors.FetchFailed, "fetching "+l.fetcher.Location(full), err)
			}
			if err := json.Unmarshal(data, into); err != nil {
				return nxerrors.New(nxerrors.FetchFailed, "decoding "+l.fetcher.Location(full), err)
			}
			return nil
		})
	}
	fetch(m.Edges, &b.Edges)
	fetch(m.Codebase.Properties, &b.CodebaseProperties)
	fetch(m.Codebase.Events, &b.CodebaseEvents)
	fetch(m.Codebase.AllProperties, &b.AllComponentProperties)
	fetch(m.Codebase.AllEvents, &b.AllComponentEvents)
	fetch(m.Metainfo.Properties, &b.MetainfoProperties)
	fetch(m.Metainfo.Events, &b.MetainfoEvents)
	fetch(m.ComponentNames, &b.ComponentNames)

	// Outside the group: a missing annotation bundle must not cancel or
	// fail the load.
	annotations := make(chan AnnotationStatus, 1)
	go func() {
		annotations <- l.loadAnnotations(ctx, version, m.Annotations)
	}()

	if err := g.Wait(); err != nil {
		l.logger.Error("Dataset load failed", logging.Fields{
			"version": version,
			"error":   err.Error(),
		})
		return nil, err
	}

	snap := NewSnapshot(version, b, l.marker, l.now())
	snap.Annotations = <-annotations
	l.logger.Info("Dataset loaded", logging.Fields{
		"version":    version,
		"edges":      len(b.Edges),
		"components": snap.Groups.Len(),
		"annotated":  len(snap.Annotations.Files),
		"durationMs": l.now().Sub(start).Milliseconds(),
	})
	return snap, nil
}

// Reload loads version and publishes it in h. On failure h is unchanged.
func (l *Loader) Reload(ctx context.Context, h *Holder, version string) (*Snapshot, error) {
	snap, err := l.Load(ctx, version)
	if err != nil {
		return nil, err
	}
	h.Store(snap)
	return snap, nil
}
