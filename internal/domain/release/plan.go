package release

import (
	"fmt"
	"path/filepath"
	"slices"
	"sort"
)

// Kind tells build artifacts and static assets apart.
type Kind int

const (
	// KindArtifact is the compiled executable.
	KindArtifact Kind = iota
	// KindAsset is a static file copied unchanged into every release.
	KindAsset
)

func (k Kind) String() string {
	switch k {
	case KindArtifact:
		return "artifact"
	case KindAsset:
		return "asset"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Placement is a single file copied into the release directory.
type Placement struct {
	// Kind is the type of the placed file.
	Kind Kind
	// Source is the path of the file relative to the project root.
	Source string
	// Destination is the path of the copy relative to the release directory.
	Destination string
}

// Inputs describe what goes into a release.
type Inputs struct {
	// Artifact is the path of the built executable relative to the project root.
	Artifact string
	// AssetSourceDir is the directory holding the static assets.
	AssetSourceDir string
	// Assets are the file names of the static assets.
	Assets []string
	// Layout selects the placement of the assets.
	Layout Layout
	// AssetsSubdir is the subdirectory used by LayoutNested.
	AssetsSubdir string
	// NestedAssets are the assets moved into AssetsSubdir by LayoutNested.
	NestedAssets []string
}

// Plan is the ordered list of placements making up a release.
type Plan struct {
	// Layout is the layout the plan was built for.
	Layout Layout
	// Dirs are the directories created inside the release directory before any copy.
	Dirs []string
	// Placements start with the artifact, followed by assets in configured order.
	Placements []Placement
}

// NewPlan computes the placements for the given inputs.
func NewPlan(in Inputs) (*Plan, error) {
	if !in.Layout.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLayout, in.Layout)
	}

	if in.Artifact == "" {
		return nil, ErrNoArtifact
	}

	plan := &Plan{
		Layout:     in.Layout,
		Placements: make([]Placement, 0, len(in.Assets)+1),
	}

	plan.Placements = append(plan.Placements, Placement{
		Kind:        KindArtifact,
		Source:      filepath.Clean(in.Artifact),
		Destination: filepath.Base(in.Artifact),
	})

	for _, name := range in.Assets {
		dst := name
		if in.Layout == LayoutNested && slices.Contains(in.NestedAssets, name) {
			dst = filepath.Join(in.AssetsSubdir, name)

			if !slices.Contains(plan.Dirs, in.AssetsSubdir) {
				plan.Dirs = append(plan.Dirs, in.AssetsSubdir)
			}
		}

		plan.Placements = append(plan.Placements, Placement{
			Kind:        KindAsset,
			Source:      filepath.Join(in.AssetSourceDir, name),
			Destination: dst,
		})
	}

	seen := make(map[string]struct{}, len(plan.Placements)+len(plan.Dirs))
	for _, dir := range plan.Dirs {
		seen[filepath.ToSlash(dir)] = struct{}{}
	}

	for _, p := range plan.Placements {
		key := filepath.ToSlash(p.Destination)
		if _, ok := seen[key]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateDestination, key)
		}

		seen[key] = struct{}{}
	}

	return plan, nil
}

// Files returns the sorted slash-separated destinations of every placement.
func (p *Plan) Files() []string {
	files := make([]string, 0, len(p.Placements))
	for _, pl := range p.Placements {
		files = append(files, filepath.ToSlash(pl.Destination))
	}

	sort.Strings(files)

	return files
}

// Assets returns the asset placements.
func (p *Plan) Assets() []Placement {
	assets := make([]Placement, 0, len(p.Placements))
	for _, pl := range p.Placements {
		if pl.Kind == KindAsset {
			assets = append(assets, pl)
		}
	}

	return assets
}
