package assets

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"
)

//go:embed styles/*.css
var styles embed.FS

// LoadStyle returns a built-in CSS style by name, without the .css extension.
// Returns ErrStyleNotFound if the style does not exist and
// ErrInvalidAssetName if the name contains path separators or dots.
func LoadStyle(name string) (string, error) {
	if err := ValidateAssetName(name); err != nil {
		return "", err
	}

	content, err := styles.ReadFile("styles/" + name + ".css")
	if err != nil {
		return "", fmt.Errorf("%w: %q (available: %s)", ErrStyleNotFound, name, strings.Join(StyleNames(), ", "))
	}

	return string(content), nil
}

// StyleNames lists the built-in styles, sorted.
func StyleNames() []string {
	entries, err := fs.ReadDir(styles, "styles")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), path.Ext(e.Name())))
	}
	slices.Sort(names)
	return names
}
