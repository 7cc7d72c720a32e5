package loader

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danieljhkim/discord-loader/internal/session"
)

func testResolver() (*Resolver, session.Session) {
	s := session.Session{
		Profile:    "alpha",
		UserDir:    filepath.Join("host", "loader", "user"),
		InvokerDir: filepath.Join("host", "loader", "invoker"),
	}
	return NewResolver(s, nil), s
}

func TestResolver_Resolve(t *testing.T) {
	r, s := testResolver()

	tests := []struct {
		name string
		url  string
		want string
	}{
		{"user file", "l-data://user/mainpage.css", filepath.Join(s.UserDir, "mainpage.css")},
		{"profile placeholder", "l-data://user/~PROFILE~/x", filepath.Join(s.UserDir, "alpha", "x")},
		{"invoker file", "l-data://invoker/mainpage.js", filepath.Join(s.InvokerDir, "mainpage.js")},
		{"nested", "l-data://user/themes/dark/theme.css", filepath.Join(s.UserDir, "themes", "dark", "theme.css")},
		{"extra slashes", "l-data:///user/mainpage.css", filepath.Join(s.UserDir, "mainpage.css")},
		{"query dropped", "l-data://user/mainpage.css?v=2#top", filepath.Join(s.UserDir, "mainpage.css")},
		{"escaped", "l-data://user/my%20theme.css", filepath.Join(s.UserDir, "my theme.css")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(tt.url)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolver_Failures(t *testing.T) {
	r, _ := testResolver()

	for _, url := range []string{
		"l-data://foo/x",
		"l-data://user",
		"l-data://user/",
		"l-data://",
		"l-data://user/../../secret.txt",
		"l-data://invoker/a/../../b",
		"l-data://user/%zz",
	} {
		t.Run(url, func(t *testing.T) {
			_, err := r.Resolve(url)
			assert.True(t, errors.Is(err, ErrResolveFailed), "got %v", err)
		})
	}
}

func TestResolver_RedirectsToInternalScheme(t *testing.T) {
	r, _ := testResolver()

	got, err := r.ResolveRequest("l-data://user/~PROFILE~/theme.css")
	require.NoError(t, err)
	assert.Equal(t, "l-data-int://user/alpha/theme.css", got)
}

func TestResolver_ProfileWithPercentSign(t *testing.T) {
	s := session.Session{
		Profile:    "50%off",
		UserDir:    filepath.Join("host", "loader", "user"),
		InvokerDir: filepath.Join("host", "loader", "invoker"),
	}
	r := NewResolver(s, nil)

	req, err := r.Parse("l-data://user/~PROFILE~/theme.css")
	require.NoError(t, err)
	assert.Equal(t, "50%off/theme.css", req.File)

	internal, err := r.ResolveRequest("l-data://user/~PROFILE~/theme.css")
	require.NoError(t, err)
	assert.Equal(t, "l-data-int://user/50%25off/theme.css", internal)

	got, err := r.Resolve("l-data://user/~PROFILE~/theme.css")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(s.UserDir, "50%off", "theme.css"), got)
}

func TestResolver_Register(t *testing.T) {
	r, s := testResolver()
	rt := newFakeRuntime()

	r.Register(rt)
	assert.Equal(t, []string{Scheme}, rt.standard)
	assert.Empty(t, rt.files, "protocols wait for ready")

	rt.fireReady()
	require.Contains(t, rt.redirects, Scheme)
	require.Contains(t, rt.files, InternalScheme)

	internal, err := rt.redirects[Scheme]("l-data://user/mainpage.css")
	require.NoError(t, err)
	path, err := rt.files[InternalScheme](internal)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(s.UserDir, "mainpage.css"), path)

	_, err = rt.redirects[Scheme]("l-data://nope/x")
	assert.True(t, errors.Is(err, ErrResolveFailed))
}
