package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// DefaultStyleName is the style applied to Markdown documents unless another
// one is chosen.
const DefaultStyleName = "default"

// NoStyle disables the built-in style.
const NoStyle = "none"

// MaxStyleSize bounds user style files.
const MaxStyleSize = 1 << 20

// ResolveStyle returns the CSS for nameOrPath. Values containing a path
// separator or ending in .css are read from disk; anything else names a
// built-in style. NoStyle yields "".
func ResolveStyle(nameOrPath string) (string, error) {
	if nameOrPath == NoStyle {
		return "", nil
	}
	if !isStylePath(nameOrPath) {
		return LoadStyle(nameOrPath)
	}

	info, err := os.Stat(nameOrPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrStyleNotFound, nameOrPath)
		}
		return "", fmt.Errorf("%w: %v", ErrAssetRead, err)
	}
	if info.Size() > MaxStyleSize {
		return "", fmt.Errorf("%w: %s is %d bytes (max %d)", ErrAssetRead, nameOrPath, info.Size(), MaxStyleSize)
	}

	data, err := os.ReadFile(nameOrPath) // #nosec G304 -- user-provided style path
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAssetRead, err)
	}
	return string(data), nil
}

func isStylePath(s string) bool {
	return strings.ContainsAny(s, `/\`) || strings.HasSuffix(strings.ToLower(s), ".css")
}
