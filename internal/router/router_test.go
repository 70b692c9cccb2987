package router

import (
	"path/filepath"
	"testing"

	"github.com/mitchellh/go-homedir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveActiveFile(t *testing.T) {
	reg := Registry{{Name: "J", Path: "/a"}, {Name: "D", Path: "/b"}}

	tests := []struct {
		name     string
		registry Registry
		active   string
		override string
		want     string
	}{
		{"active registered", reg, "/b", "", "/b"},
		{"active unregistered", reg, "/c", "", "/a"},
		{"no active", reg, "", "", "/a"},
		{"active needs cleaning", reg, "/x/../b/", "", "/b"},
		{"override wins", reg, "/b", "/z", "/z"},
		{"empty registry", nil, "/b", "", "/default.org"},
		{"override in single-file mode", nil, "", "/z", "/z"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveActiveFile(tt.registry, tt.active, tt.override, "/default.org")
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalize(t *testing.T) {
	home, err := homedir.Dir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "journal.org"), Normalize("~/journal.org"))
	assert.Equal(t, "/a/b", Normalize("/a/./c/../b"))
	assert.Equal(t, "", Normalize(""))
	assert.True(t, filepath.IsAbs(Normalize("relative.org")))
}

func TestRegistryLookup(t *testing.T) {
	reg := Registry{{Name: "work", Path: "/j/work.org"}, {Name: "home", Path: "/j/home.org"}}
	e, ok := reg.Lookup("home")
	require.True(t, ok)
	assert.Equal(t, "/j/home.org", e.Path)

	e, ok = reg.Lookup("/j/../j/work.org")
	require.True(t, ok)
	assert.Equal(t, "work", e.Name)

	_, ok = reg.Lookup("other")
	assert.False(t, ok)
	assert.Equal(t, []string{"/j/work.org", "/j/home.org"}, reg.Paths())
}
