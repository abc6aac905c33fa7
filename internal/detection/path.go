package detection

import (
	"context"
	"errors"
	"image"
)

// ErrNoImagePath is returned by PathDetector when the context carries no path.
var ErrNoImagePath = errors.New("no image path in context")

type imagePathKey struct{}

// WithImagePath attaches the source path of the image being processed.
func WithImagePath(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, imagePathKey{}, path)
}

// ImagePathFrom returns the path attached by WithImagePath.
func ImagePathFrom(ctx context.Context) (string, bool) {
	p, ok := ctx.Value(imagePathKey{}).(string)
	return p, ok && p != ""
}

// PathDetector loads the sidecar of whichever image the context names, so a
// single pipeline can serve a whole directory of recorded detections.
type PathDetector struct {
	Suffix string
}

// NewPathDetector returns a detector using suffix, or SidecarSuffix if empty.
func NewPathDetector(suffix string) *PathDetector {
	if suffix == "" {
		suffix = SidecarSuffix
	}
	return &PathDetector{Suffix: suffix}
}

func (d *PathDetector) load(ctx context.Context) (*SidecarDetector, error) {
	path, ok := ImagePathFrom(ctx)
	if !ok {
		return nil, ErrNoImagePath
	}
	sc, err := LoadSidecar(SidecarPathWithSuffix(path, d.Suffix))
	if err != nil {
		return nil, err
	}
	return NewSidecarDetector(sc), nil
}

// DetectRegions implements the region detector role.
func (d *PathDetector) DetectRegions(ctx context.Context, img image.Image) ([]Box, error) {
	sd, err := d.load(ctx)
	if err != nil {
		return nil, err
	}
	return sd.DetectRegions(ctx, img)
}

// DetectChars implements the character detector role.
func (d *PathDetector) DetectChars(ctx context.Context, img image.Image) ([]Box, error) {
	sd, err := d.load(ctx)
	if err != nil {
		return nil, err
	}
	return sd.DetectChars(ctx, img)
}
