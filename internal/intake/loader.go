package intake

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Veraticus/oic-ledger/internal/common"
	"github.com/Veraticus/oic-ledger/internal/model"
	"github.com/Veraticus/oic-ledger/internal/ofx"
)

// Loader reads documents from manifest and OFX paths.
type Loader struct {
	ofx *ofx.Parser
}

// NewLoader creates a Loader.
func NewLoader() *Loader {
	return &Loader{ofx: ofx.NewParser()}
}

// Load reads every path in order and returns the documents they hold.
// Manifests are .json, .yaml or .yml; bank downloads are .ofx or .qfx.
func (l *Loader) Load(ctx context.Context, paths ...string) ([]model.RawDocument, error) {
	var docs []model.RawDocument
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("loading interrupted: %w", err)
		}

		var (
			loaded []model.RawDocument
			err    error
		)
		switch strings.ToLower(filepath.Ext(p)) {
		case ".json", ".yaml", ".yml":
			loaded, err = l.loadManifest(ctx, p)
		case ".ofx", ".qfx":
			loaded, err = l.loadOFX(ctx, ofx.Source{Name: p}, p)
		default:
			err = fmt.Errorf("%w: %s", common.ErrUnsupportedInput, p)
		}
		if err != nil {
			return nil, err
		}

		common.LogDebug("Loaded input", common.Fields{"path": p, "documents": len(loaded)})
		docs = append(docs, loaded...)
	}
	return docs, nil
}

func (l *Loader) loadManifest(ctx context.Context, path string) ([]model.RawDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}

	m, err := ParseManifest(data)
	if err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}

	docs, err := m.RawDocuments()
	if err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	for _, src := range m.OFX {
		full := src.Path
		if !filepath.IsAbs(full) {
			full = filepath.Join(dir, full)
		}
		loaded, err := l.loadOFX(ctx, ofx.Source{Name: src.Path, Holder: src.Holder, Institution: src.Institution}, full)
		if err != nil {
			return nil, fmt.Errorf("manifest %s: %w", path, err)
		}
		docs = append(docs, loaded...)
	}
	return docs, nil
}

func (l *Loader) loadOFX(ctx context.Context, src ofx.Source, path string) ([]model.RawDocument, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			common.LogWarn("Failed to close file", common.Fields{"path": path, "error": cerr.Error()})
		}
	}()

	docs, err := l.ofx.ParseFile(ctx, src, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return docs, nil
}
