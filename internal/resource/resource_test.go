package resource

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danieljhkim/discord-loader/internal/fsops"
)

var sampleFiles = map[string]string{
	"loader-template.js":     "require(\"<INVOKER>\");",
	"root/invoker/index.js":  "index",
	"root/invoker/before.js": "before",
	"root/user/mainpage.css": "body {}",
}

func providers(t *testing.T) map[string]Provider {
	t.Helper()

	fsys := fsops.NewRealFS()
	mapFS := fstest.MapFS{}
	dir := t.TempDir()
	for name, content := range sampleFiles {
		mapFS[name] = &fstest.MapFile{Data: []byte(content)}
		full := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0644))
	}

	return map[string]Provider{
		"fs":  NewFSProvider(mapFS, fsys),
		"dir": NewDirProvider(dir, fsys),
	}
}

func TestProviders_ReadResource(t *testing.T) {
	for name, p := range providers(t) {
		t.Run(name, func(t *testing.T) {
			data, err := p.ReadResource("root/invoker/index.js")
			require.NoError(t, err)
			assert.Equal(t, "index", string(data))

			_, err = p.ReadResource("root/invoker/missing.js")
			assert.True(t, errors.Is(err, ErrResourceNotFound))

			_, err = p.ReadResource("../outside.js")
			assert.True(t, errors.Is(err, ErrResourceNotFound))

			_, err = p.ReadResource("root/invoker")
			assert.Error(t, err)
		})
	}
}

func TestProviders_List(t *testing.T) {
	for name, p := range providers(t) {
		t.Run(name, func(t *testing.T) {
			names, err := p.List(RootPrefix)
			require.NoError(t, err)
			assert.Equal(t, []string{"root/invoker/before.js", "root/invoker/index.js", "root/user/mainpage.css"}, names)

			_, err = p.List("nope")
			assert.True(t, errors.Is(err, ErrResourceNotFound))
		})
	}
}

func TestProviders_ExtractTreeMatchesReadResource(t *testing.T) {
	for name, p := range providers(t) {
		t.Run(name, func(t *testing.T) {
			dest := filepath.Join(t.TempDir(), "loader")
			require.NoError(t, p.ExtractTree(RootPrefix, dest))

			names, err := p.List(RootPrefix)
			require.NoError(t, err)
			for _, logical := range names {
				want, err := p.ReadResource(logical)
				require.NoError(t, err)

				rel, ok := relativeTo(RootPrefix, logical)
				require.True(t, ok)
				got, err := os.ReadFile(filepath.Join(dest, filepath.FromSlash(rel)))
				require.NoError(t, err)
				assert.Equal(t, string(want), string(got), logical)
			}
		})
	}
}

func TestProviders_ExtractTreeClobbers(t *testing.T) {
	for name, p := range providers(t) {
		t.Run(name, func(t *testing.T) {
			dest := filepath.Join(t.TempDir(), "invoker")
			require.NoError(t, os.MkdirAll(dest, 0755))
			require.NoError(t, os.WriteFile(filepath.Join(dest, "index.js"), []byte("stale content from an older loader"), 0644))

			require.NoError(t, p.ExtractTree(InvokerPrefix, dest))

			got, err := os.ReadFile(filepath.Join(dest, "index.js"))
			require.NoError(t, err)
			assert.Equal(t, "index", string(got))

			err = p.ExtractTree("root/missing", dest)
			assert.True(t, errors.Is(err, ErrResourceNotFound))
		})
	}
}

func TestEmbeddedProvider_ShipsLoaderTree(t *testing.T) {
	p, err := NewEmbeddedProvider(fsops.NewRealFS())
	require.NoError(t, err)

	tmpl, err := p.ReadResource(LoaderTemplate)
	require.NoError(t, err)
	assert.Contains(t, string(tmpl), "<INVOKER>")
	assert.Contains(t, string(tmpl), "<PACKAGE_JSON>")

	invoker, err := p.List(InvokerPrefix)
	require.NoError(t, err)
	assert.Contains(t, invoker, "root/invoker/index.js")
	assert.Contains(t, invoker, "root/invoker/registry.js")

	user, err := p.List(UserPrefix)
	require.NoError(t, err)
	assert.Contains(t, user, "root/user/mainpage.css")
}

func TestEmbeddedProvider_InvokerMatchesResolverContract(t *testing.T) {
	p, err := NewEmbeddedProvider(fsops.NewRealFS())
	require.NoError(t, err)

	before, err := p.ReadResource(InvokerPrefix + "/before.js")
	require.NoError(t, err)
	src := string(before)

	// Same steps as loader.Resolver.Parse, in the same order.
	strip := strings.Index(src, "split(/[?#]/)")
	decode := strings.Index(src, "decodeURIComponent(")
	profile := strings.Index(src, "replace(PROFILE_TOKEN")
	require.True(t, strip >= 0, "query and fragment must be dropped")
	require.True(t, decode >= 0, "file must be percent-decoded")
	require.True(t, profile >= 0, "profile placeholder must be substituted")
	assert.Less(t, strip, decode)
	assert.Less(t, decode, profile)
	assert.Contains(t, src, "encodeURIComponent", "redirect must re-escape the file")

	hooks := map[string]string{"before.js": src}
	after, err := p.ReadResource(InvokerPrefix + "/after.js")
	require.NoError(t, err)
	hooks["after.js"] = string(after)

	for name, body := range hooks {
		assert.Contains(t, body, "fs.existsSync(", name)
		assert.NotContains(t, body, "require(path.join(session.userDir", name)
	}
}

func TestSelect(t *testing.T) {
	fsys := fsops.NewRealFS()

	p, err := Select("", fsys)
	require.NoError(t, err)
	assert.IsType(t, &EmbeddedProvider{}, p)

	dir := t.TempDir()
	p, err = Select(dir, fsys)
	require.NoError(t, err)
	assert.IsType(t, &DirProvider{}, p)

	_, err = Select(filepath.Join(dir, "missing"), fsys)
	assert.True(t, errors.Is(err, ErrResourceNotFound))
}
