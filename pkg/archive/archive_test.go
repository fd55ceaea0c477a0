package archive

import (
	"path/filepath"
	"testing"

	"github.com/arthur-debert/sdeploy/pkg/errors"
	"github.com/arthur-debert/sdeploy/pkg/testutil"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readFile(t *testing.T, fs afero.Fs, path string) string {
	t.Helper()
	data, err := afero.ReadFile(fs, filepath.FromSlash(path))
	require.NoError(t, err)
	return string(data)
}

func TestIsArchive(t *testing.T) {
	assert.True(t, IsArchive("build/out.zip"))
	assert.False(t, IsArchive("build/out.ZIP"), "extension match is case-sensitive")
	assert.False(t, IsArchive("build/out.tar.gz"))
	assert.False(t, IsArchive("build/out"))
}

func TestExtract(t *testing.T) {
	t.Run("single_root_is_hoisted", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		testutil.MakeZip(t, fs, "/in/site.zip", map[string]string{
			"site/":             "",
			"site/index.html":   "index",
			"site/css/main.css": "css",
		})

		result, err := Extract(fs, "/in/site.zip", "/scratch", ExtractOptions{FlattenSingleRoot: true})
		require.NoError(t, err)

		assert.Equal(t, "site", result.Root)
		assert.Equal(t, 2, result.Files)
		assert.Equal(t, "index", readFile(t, fs, "/scratch/index.html"))
		assert.Equal(t, "css", readFile(t, fs, "/scratch/css/main.css"))
		exists, _ := afero.DirExists(fs, "/scratch/site")
		assert.False(t, exists, "root folder must not be kept")
	})

	t.Run("single_root_without_directory_entries", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		testutil.MakeZip(t, fs, "/in/app.zip", map[string]string{
			"app/bin/run": "#!",
		})

		result, err := Extract(fs, "/in/app.zip", "/scratch", ExtractOptions{FlattenSingleRoot: true})
		require.NoError(t, err)
		assert.Equal(t, "app", result.Root)
		assert.Equal(t, "#!", readFile(t, fs, "/scratch/bin/run"))
	})

	t.Run("file_named_like_root_is_kept", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		testutil.MakeZip(t, fs, "/in/app.zip", map[string]string{
			"app/":           "",
			"app/app":        "BINARY",
			"app/config.txt": "cfg",
		})

		result, err := Extract(fs, "/in/app.zip", "/scratch", ExtractOptions{FlattenSingleRoot: true})
		require.NoError(t, err)
		assert.Equal(t, "app", result.Root)
		assert.Equal(t, 2, result.Files)
		assert.Equal(t, "BINARY", readFile(t, fs, "/scratch/app"))
		assert.Equal(t, "cfg", readFile(t, fs, "/scratch/config.txt"))
	})

	t.Run("top_level_file_prevents_hoist", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		testutil.MakeZip(t, fs, "/in/mixed.zip", map[string]string{
			"site/index.html": "index",
			"README.txt":      "readme",
		})

		result, err := Extract(fs, "/in/mixed.zip", "/scratch", ExtractOptions{FlattenSingleRoot: true})
		require.NoError(t, err)
		assert.Empty(t, result.Root)
		assert.Equal(t, "index", readFile(t, fs, "/scratch/site/index.html"))
		assert.Equal(t, "readme", readFile(t, fs, "/scratch/README.txt"))
	})

	t.Run("two_roots_prevent_hoist", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		testutil.MakeZip(t, fs, "/in/two.zip", map[string]string{
			"a/x.txt": "x",
			"b/y.txt": "y",
		})

		result, err := Extract(fs, "/in/two.zip", "/scratch", ExtractOptions{FlattenSingleRoot: true})
		require.NoError(t, err)
		assert.Empty(t, result.Root)
		assert.Equal(t, "x", readFile(t, fs, "/scratch/a/x.txt"))
		assert.Equal(t, "y", readFile(t, fs, "/scratch/b/y.txt"))
	})

	t.Run("hoist_disabled", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		testutil.MakeZip(t, fs, "/in/site.zip", map[string]string{"site/index.html": "index"})

		result, err := Extract(fs, "/in/site.zip", "/scratch", ExtractOptions{})
		require.NoError(t, err)
		assert.Empty(t, result.Root)
		assert.Equal(t, "index", readFile(t, fs, "/scratch/site/index.html"))
	})

	t.Run("backslash_entry_names", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		testutil.MakeZip(t, fs, "/in/win.zip", map[string]string{`bin\tool.exe`: "MZ", "bin2.txt": "t"})

		_, err := Extract(fs, "/in/win.zip", "/scratch", ExtractOptions{FlattenSingleRoot: true})
		require.NoError(t, err)
		assert.Equal(t, "MZ", readFile(t, fs, "/scratch/bin/tool.exe"))
	})

	t.Run("zip_slip_rejected", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		testutil.MakeZip(t, fs, "/in/evil.zip", map[string]string{"../../etc/passwd": "root"})

		_, err := Extract(fs, "/in/evil.zip", "/scratch", ExtractOptions{})
		require.Error(t, err)
		assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
		exists, _ := afero.Exists(fs, "/etc/passwd")
		assert.False(t, exists)
	})

	t.Run("not_a_zip", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "/in/bad.zip", []byte("plain text"), 0644))

		_, err := Extract(fs, "/in/bad.zip", "/scratch", ExtractOptions{})
		require.Error(t, err)
		assert.True(t, errors.IsErrorCode(err, errors.ErrArchive))
	})
}

func TestCreateRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	files := map[string]string{
		"index.html":      "<h1>v1</h1>",
		"assets/app.js":   "console.log(1)",
		"assets/img/logo": "\x89PNG",
	}
	for rel, content := range files {
		path := filepath.Join("/dest", filepath.FromSlash(rel))
		require.NoError(t, fs.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0644))
	}
	require.NoError(t, fs.MkdirAll("/dest/empty", 0755))
	require.NoError(t, fs.MkdirAll("/backup", 0755))

	result, err := Create(fs, "/dest", "/backup/dest.zip")
	require.NoError(t, err)
	assert.Equal(t, 3, result.Files)

	_, err = Extract(fs, "/backup/dest.zip", "/restored", ExtractOptions{})
	require.NoError(t, err)

	for rel, want := range files {
		assert.Equal(t, want, readFile(t, fs, filepath.Join("/restored", rel)), rel)
	}
	exists, _ := afero.DirExists(fs, "/restored/empty")
	assert.True(t, exists, "empty directory survives the round trip")
}

func TestCreateRefusesToOverwrite(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/dest", 0755))
	require.NoError(t, afero.WriteFile(fs, "/backup/dest.zip", []byte("existing"), 0644))

	_, err := Create(fs, "/dest", "/backup/dest.zip")
	require.Error(t, err)
	assert.Equal(t, "existing", readFile(t, fs, "/backup/dest.zip"))
}

func TestCreateMissingSourceRemovesPartialZip(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/backup", 0755))

	_, err := Create(fs, "/missing", "/backup/missing.zip")
	require.Error(t, err)
	exists, _ := afero.Exists(fs, "/backup/missing.zip")
	assert.False(t, exists)
}

func TestEntryName(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{"a/b.txt", "a/b.txt", false},
		{"a/", "a", false},
		{`a\b.txt`, "a/b.txt", false},
		{"./a/../b.txt", "b.txt", false},
		{"../x", "", true},
		{"/abs", "", true},
		{"a/../../x", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := entryName(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
