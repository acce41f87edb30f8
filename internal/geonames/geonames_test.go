package geonames

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"liheapcli/internal/config"
	apperrors "liheapcli/internal/errors"
	"liheapcli/internal/shared/testutil"
)

const usTxt = "US\t92101\tSan Diego\tCalifornia\tCA\tSan Diego\t073\t\t\t32.7194\t-117.1628\t4\n" +
	"US\t92101\tDuplicate Place\tCalifornia\tCA\n" +
	"US\t90001\tlos angeles\tCalifornia\tCA\n" +
	"US\t\tNo Code\tCalifornia\tCA\n" +
	"short\trow\n"

func archive(t *testing.T, member, content string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create(member)
	require.NoError(t, err)
	_, err = w.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestParseTSV(t *testing.T) {
	places, err := ParseTSV(strings.NewReader(usTxt), SourceLocal)
	require.NoError(t, err)

	assert.Equal(t, 2, places.Len())
	name, ok := places.Get("92101")
	assert.True(t, ok)
	assert.Equal(t, "SAN DIEGO", name)
	name, _ = places.Get("90001")
	assert.Equal(t, "LOS ANGELES", name)
	_, ok = places.Get("10001")
	assert.False(t, ok)
}

func TestParseTSV_Empty(t *testing.T) {
	_, err := ParseTSV(strings.NewReader(""), SourceLocal)
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestParseArchive(t *testing.T) {
	places, err := ParseArchive(archive(t, "US.txt", usTxt), "US.txt", SourceRemote)
	require.NoError(t, err)
	assert.Equal(t, SourceRemote, places.Source)
	assert.Equal(t, 2, places.Len())

	_, err = ParseArchive(archive(t, "readme.txt", "x"), "US.txt", SourceRemote)
	assert.Error(t, err)

	_, err = ParseArchive([]byte("not a zip"), "US.txt", SourceRemote)
	assert.Error(t, err)
}

func TestRemote(t *testing.T) {
	body := archive(t, "US.txt", usTxt)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/US.zip" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(body)
	}))
	defer server.Close()

	places, err := NewRemote(server.URL+"/US.zip", "US.txt", time.Second).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, places.Len())

	_, err = NewRemote(server.URL+"/missing.zip", "US.txt", time.Second).Load(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNetwork))
}

func TestRemote_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	}))
	defer server.Close()

	_, err := NewRemote(server.URL, "US.txt", 50*time.Millisecond).Load(context.Background())
	assert.Error(t, err)
}

func TestLocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "US.txt")
	require.NoError(t, os.WriteFile(path, []byte(usTxt), 0644))

	places, err := LocalFile{Path: path}.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SourceLocal, places.Source)

	_, err = LocalFile{Path: filepath.Join(t.TempDir(), "absent.txt")}.Load(context.Background())
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
}

type stubLookup struct {
	name   string
	places Places
	err    error
	calls  int
}

func (s *stubLookup) Source() string { return s.name }

func (s *stubLookup) Load(context.Context) (Places, error) {
	s.calls++
	return s.places, s.err
}

func TestFallback(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)

	failing := &stubLookup{name: SourceRemote, err: apperrors.NewNetworkError("down", nil)}
	local := &stubLookup{name: SourceLocal, places: Places{Source: SourceLocal, Names: map[string]string{"92101": "SAN DIEGO"}}}
	never := &stubLookup{name: "never"}

	places, err := NewFallback(logger, failing, local, never).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SourceLocal, places.Source)
	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 0, never.calls)
	assert.Equal(t, 1, handler.CountMessage("geonames_source_failed"))
}

func TestFallback_AllFail(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)

	places, err := NewFallback(logger,
		&stubLookup{name: SourceRemote, err: assert.AnError},
		&stubLookup{name: SourceLocal, err: assert.AnError},
	).Load(context.Background())

	require.NoError(t, err)
	assert.Equal(t, SourceNone, places.Source)
	assert.Equal(t, 0, places.Len())
	assert.Equal(t, 1, handler.CountMessage("geonames_unavailable"))
}

func TestNewFromConfig(t *testing.T) {
	cfg := config.Default().GeoNames
	assert.Len(t, NewFromConfig(cfg, nil).lookups, 2)

	cfg.UseHTTP = false
	chain := NewFromConfig(cfg, nil)
	require.Len(t, chain.lookups, 1)
	assert.Equal(t, SourceLocal, chain.lookups[0].Source())
}
