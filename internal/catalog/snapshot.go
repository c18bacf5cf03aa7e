package catalog

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"

	"github.com/rs/zerolog/log"
)

// Bundled snapshot names.
const (
	ProductsSnapshot       = "products.json"
	BakeryProductsSnapshot = "bakery-products.json"
)

//go:embed data/*.json
var bundled embed.FS

// SnapshotData is the document shape of every bundled snapshot.
type SnapshotData struct {
	Products   []Product  `json:"products"`
	Categories []Category `json:"categories"`
}

// Snapshot is the result of a static load. Success is false when the
// document could not be read or decoded; Data is then empty.
type Snapshot struct {
	Data    SnapshotData
	Success bool
}

// Loader reads bundled catalog snapshots. It keeps no cache: each Load
// re-reads the document.
type Loader struct {
	fsys fs.FS
}

// NewLoader builds a loader over fsys. A nil fsys uses the snapshots
// embedded in the binary.
func NewLoader(fsys fs.FS) *Loader {
	if fsys == nil {
		sub, err := fs.Sub(bundled, "data")
		if err != nil {
			// embed paths are fixed at build time
			panic(fmt.Sprintf("catalog: bundled data missing: %v", err))
		}
		fsys = sub
	}
	return &Loader{fsys: fsys}
}

// Load reads and decodes the named snapshot.
func (l *Loader) Load(name string) Snapshot {
	raw, err := fs.ReadFile(l.fsys, name)
	if err != nil {
		log.Warn().Err(err).Str("snapshot", name).Msg("catalog: failed to read static snapshot")
		return Snapshot{Data: SnapshotData{Products: []Product{}, Categories: []Category{}}}
	}

	var data SnapshotData
	if err := json.Unmarshal(raw, &data); err != nil {
		log.Warn().Err(err).Str("snapshot", name).Msg("catalog: failed to decode static snapshot")
		return Snapshot{Data: SnapshotData{Products: []Product{}, Categories: []Category{}}}
	}
	if data.Products == nil {
		data.Products = []Product{}
	}
	if data.Categories == nil {
		data.Categories = []Category{}
	}

	return Snapshot{Data: data, Success: true}
}
