package disk

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/deploymenttheory/go-fsrip/internal/disk/descriptor"
	"github.com/deploymenttheory/go-fsrip/internal/interfaces"
)

// descriptorExtensions mark files holding an image description rather than
// raw image bytes
var descriptorExtensions = map[string]bool{
	".yaml": true,
	".yml":  true,
	".json": true,
}

// ResolveWalker picks the walker kind for an image path. Auto selects the
// descriptor walker by file extension and go-diskfs for everything else.
func ResolveWalker(imagePath, kind string) (string, error) {
	switch strings.ToLower(kind) {
	case "", WalkerAuto:
		if descriptorExtensions[strings.ToLower(filepath.Ext(imagePath))] {
			return WalkerDescriptor, nil
		}
		return WalkerDiskfs, nil
	case WalkerDescriptor:
		return WalkerDescriptor, nil
	case WalkerDiskfs:
		return WalkerDiskfs, nil
	default:
		return "", fmt.Errorf("unknown walker %q", kind)
	}
}

// Open returns a walker for the image. Only the first path is used for raw
// images; split images are not supported.
func Open(paths []string, kind string, fs afero.Fs, logger zerolog.Logger) (interfaces.ImageWalker, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no image files given")
	}
	if len(paths) > 1 {
		logger.Warn().Strs("ignored", paths[1:]).Msg("split images are not supported, using the first file only")
	}
	imagePath := paths[0]

	resolved, err := ResolveWalker(imagePath, kind)
	if err != nil {
		return nil, err
	}
	logger.Debug().Str("walker", resolved).Str("image", imagePath).Msg("opening image")

	if resolved == WalkerDescriptor {
		w, err := descriptor.Open(fs, imagePath)
		if err != nil {
			return nil, err
		}
		return w.WithLogger(logger), nil
	}
	w, err := OpenDiskfs(imagePath, logger)
	if err != nil {
		return nil, err
	}
	return w, nil
}
