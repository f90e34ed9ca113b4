package assets

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// TestLoadStyle - Built-in styles by name
// ---------------------------------------------------------------------------

func TestLoadStyle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		styleName string
		wantErr   error
	}{
		{name: "default style", styleName: "default"},
		{name: "compact style", styleName: "compact"},
		{name: "nonexistent style", styleName: "nonexistent", wantErr: ErrStyleNotFound},
		{name: "valid name with hyphen", styleName: "my-style", wantErr: ErrStyleNotFound},
		{name: "empty name", styleName: "", wantErr: ErrInvalidAssetName},
		{name: "path traversal with slash", styleName: "../secret", wantErr: ErrInvalidAssetName},
		{name: "path traversal with backslash", styleName: "..\\secret", wantErr: ErrInvalidAssetName},
		{name: "name with dot", styleName: "default.css", wantErr: ErrInvalidAssetName},
		{name: "absolute path", styleName: "/etc/passwd", wantErr: ErrInvalidAssetName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			content, err := LoadStyle(tt.styleName)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("LoadStyle(%q) error = %v, want %v", tt.styleName, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadStyle(%q) unexpected error: %v", tt.styleName, err)
			}
			if !strings.Contains(content, "body") {
				t.Errorf("LoadStyle(%q) returned unexpected content:\n%s", tt.styleName, content)
			}
		})
	}
}

func TestLoadStyle_NotFoundListsStyles(t *testing.T) {
	t.Parallel()

	_, err := LoadStyle("fancy")
	if err == nil || !strings.Contains(err.Error(), "compact, default") {
		t.Errorf("error = %v, want the available styles listed", err)
	}
}

func TestStyleNames(t *testing.T) {
	t.Parallel()

	if got, want := StyleNames(), []string{"compact", "default"}; !slices.Equal(got, want) {
		t.Errorf("StyleNames() = %q, want %q", got, want)
	}
	if !slices.Contains(StyleNames(), DefaultStyleName) {
		t.Errorf("DefaultStyleName %q is not embedded", DefaultStyleName)
	}
}

// ---------------------------------------------------------------------------
// TestResolveStyle - Names, paths and none
// ---------------------------------------------------------------------------

func TestResolveStyle(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	custom := filepath.Join(dir, "print.css")
	if err := os.WriteFile(custom, []byte("body { margin: 0 }"), 0o600); err != nil {
		t.Fatal(err)
	}
	big := filepath.Join(dir, "big.css")
	if err := os.WriteFile(big, make([]byte, MaxStyleSize+1), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		input   string
		want    string // substring; empty with no error means ""
		wantErr error
	}{
		{name: "none disables", input: NoStyle},
		{name: "built-in name", input: "compact", want: "font-size: 9pt"},
		{name: "custom path", input: custom, want: "margin: 0"},
		{name: "missing path", input: filepath.Join(dir, "absent.css"), wantErr: ErrStyleNotFound},
		{name: "bare css file name is a path", input: "absent.css", wantErr: ErrStyleNotFound},
		{name: "oversized file", input: big, wantErr: ErrAssetRead},
		{name: "unknown name", input: "fancy", wantErr: ErrStyleNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ResolveStyle(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("ResolveStyle(%q) error = %v, want %v", tt.input, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveStyle(%q) unexpected error: %v", tt.input, err)
			}
			if tt.want == "" && got != "" {
				t.Errorf("ResolveStyle(%q) = %q, want empty", tt.input, got)
			}
			if !strings.Contains(got, tt.want) {
				t.Errorf("ResolveStyle(%q) = %q, want it to contain %q", tt.input, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestValidateAssetName - Name safety
// ---------------------------------------------------------------------------

func TestValidateAssetName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		wantErr bool
	}{
		{input: "default"},
		{input: "my-style"},
		{input: "my_style"},
		{input: "Style123"},
		{input: "", wantErr: true},
		{input: "path/to/style", wantErr: true},
		{input: "path\\to\\style", wantErr: true},
		{input: "..", wantErr: true},
		{input: "style.css", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			err := ValidateAssetName(tt.input)
			if tt.wantErr != errors.Is(err, ErrInvalidAssetName) {
				t.Errorf("ValidateAssetName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
