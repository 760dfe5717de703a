package provider_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/alanmeadows/shipit/internal/provider"
	"github.com/alanmeadows/shipit/mocks"
)

// newBackend returns a mock RemoteClient that only answers Name and MatchesURL.
func newBackend(ctrl *gomock.Controller, name, host string) *mocks.MockRemoteClient {
	m := mocks.NewMockRemoteClient(ctrl)
	m.EXPECT().Name().Return(name).AnyTimes()
	m.EXPECT().MatchesURL(gomock.Any()).DoAndReturn(func(url string) bool {
		return strings.Contains(url, host)
	}).AnyTimes()
	return m
}

func TestDetect(t *testing.T) {
	ctrl := gomock.NewController(t)
	reg := provider.NewRegistry()
	reg.Register(newBackend(ctrl, "github", "github.com"))
	reg.Register(newBackend(ctrl, "enterprise", "git.example.com"))

	t.Run("detect GitHub", func(t *testing.T) {
		b, err := reg.Detect("https://github.com/owner/repo/pull/123")
		require.NoError(t, err)
		assert.Equal(t, "github", b.Name())
	})

	t.Run("detect enterprise", func(t *testing.T) {
		b, err := reg.Detect("https://git.example.com/owner/repo/pull/9")
		require.NoError(t, err)
		assert.Equal(t, "enterprise", b.Name())
	})

	t.Run("detect unknown", func(t *testing.T) {
		_, err := reg.Detect("https://gitlab.com/owner/repo/-/merge_requests/1")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "no registered backend")
	})
}

func TestGet(t *testing.T) {
	ctrl := gomock.NewController(t)
	reg := provider.NewRegistry()
	reg.Register(newBackend(ctrl, "gh", "github.com"))
	reg.Register(newBackend(ctrl, "github", "github.com"))

	t.Run("get by name", func(t *testing.T) {
		b, err := reg.Get("gh")
		require.NoError(t, err)
		assert.Equal(t, "gh", b.Name())
	})

	t.Run("get unknown", func(t *testing.T) {
		_, err := reg.Get("bitbucket")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "no registered backend with name")
	})

	t.Run("names are sorted", func(t *testing.T) {
		assert.Equal(t, []string{"gh", "github"}, reg.Names())
	})
}

func TestRegisterReplacesSameName(t *testing.T) {
	ctrl := gomock.NewController(t)
	reg := provider.NewRegistry()
	first := newBackend(ctrl, "github", "github.com")
	second := newBackend(ctrl, "github", "github.com")

	reg.Register(first)
	reg.Register(second)

	b, err := reg.Get("github")
	require.NoError(t, err)
	assert.Same(t, second, b)
	assert.Len(t, reg.Names(), 1)
}
