package dataset

import (
	"context"

	"github.com/pelletier/go-toml/v2"

	nxerrors "nxmeta/internal/errors"
)

// ManifestFile is read from the data root when present.
const ManifestFile = "bundles.toml"

// Manifest holds bundle paths relative to <root>/<version>.
//
//	edges = "codebase/output.json"
//	[metainfo]
//	properties = "metainfo/output_property_metainfo.json"
type Manifest struct {
	Edges          string        `toml:"edges"`
	ComponentNames string        `toml:"component_names"`
	// Annotations is optional; its absence never fails a load.
	Annotations string `toml:"annotations"`
	Codebase       CodebasePaths `toml:"codebase"`
	Metainfo       KindPaths     `toml:"metainfo"`
}

// CodebasePaths are the bundles produced by the source parser.
type CodebasePaths struct {
	Properties    string `toml:"properties"`
	Events        string `toml:"events"`
	AllProperties string `toml:"all_properties"`
	AllEvents     string `toml:"all_events"`
}

// KindPaths are a properties and an events bundle.
type KindPaths struct {
	Properties string `toml:"properties"`
	Events     string `toml:"events"`
}

// DefaultManifest is the layout of the published bundle tree. The all-events
// bundle is the same file as the events bundle.
func DefaultManifest() Manifest {
	return Manifest{
		Edges:          "codebase/output.json",
		ComponentNames: "aggregated_component_names.json",
		Annotations:    "codebase/output_annotations.json",
		Codebase: CodebasePaths{
			Properties:    "codebase/output_property.json",
			Events:        "codebase/output_event.json",
			AllProperties: "codebase/all_component_properties.json",
			AllEvents:     "codebase/output_event.json",
		},
		Metainfo: KindPaths{
			Properties: "metainfo/output_property_metainfo.json",
			Events:     "metainfo/output_event_metainfo.json",
		},
	}
}

// ParseManifest decodes a manifest; unset entries keep their defaults.
func ParseManifest(data []byte) (Manifest, error) {
	m := DefaultManifest()
	if err := toml.Unmarshal(data, &m); err != nil {
		return Manifest{}, nxerrors.New(nxerrors.InvalidArgument, "parsing "+ManifestFile, err)
	}
	def := DefaultManifest()
	fill(&m.Edges, def.Edges)
	fill(&m.ComponentNames, def.ComponentNames)
	fill(&m.Annotations, def.Annotations)
	fill(&m.Codebase.Properties, def.Codebase.Properties)
	fill(&m.Codebase.Events, def.Codebase.Events)
	fill(&m.Codebase.AllProperties, def.Codebase.AllProperties)
	fill(&m.Codebase.AllEvents, def.Codebase.AllEvents)
	fill(&m.Metainfo.Properties, def.Metainfo.Properties)
	fill(&m.Metainfo.Events, def.Metainfo.Events)
	return m, nil
}

func fill(dst *string, def string) {
	if *dst == "" {
		*dst = def
	}
}

// Marshal renders the manifest as TOML.
func (m Manifest) Marshal() ([]byte, error) {
	return toml.Marshal(m)
}

// LoadManifest reads ManifestFile from the root, falling back to
// DefaultManifest when there is none.
func LoadManifest(ctx context.Context, f Fetcher) (Manifest, error) {
	data, err := f.Fetch(ctx, ManifestFile)
	if err != nil {
		if nxerrors.HasCode(err, nxerrors.NotFound) {
			return DefaultManifest(), nil
		}
		return Manifest{}, err
	}
	return ParseManifest(data)
}
