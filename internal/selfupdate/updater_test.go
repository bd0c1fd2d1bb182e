package selfupdate

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const darwinAsset = "nutrify_Darwin_all.tar.gz"

func TestAssetNameFor(t *testing.T) {
	tests := []struct {
		name    string
		goos    string
		goarch  string
		want    string
		wantErr bool
	}{
		{"darwin amd64", "darwin", "amd64", darwinAsset, false},
		{"darwin arm64", "darwin", "arm64", darwinAsset, false},
		{"linux amd64", "linux", "amd64", "nutrify_Linux_x86_64.tar.gz", false},
		{"linux arm64", "linux", "arm64", "nutrify_Linux_arm64.tar.gz", false},
		{"linux 386", "linux", "386", "", true},
		{"windows", "windows", "amd64", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := assetNameFor(tt.goos, tt.goarch)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseChecksums(t *testing.T) {
	got := parseChecksums([]byte("abc123  nutrify_Darwin_all.tar.gz\nbadline\n  \nfoo  bar  baz\ndef456  nutrify_Linux_x86_64.tar.gz\n"))
	assert.Equal(t, map[string]string{
		"nutrify_Darwin_all.tar.gz":   "abc123",
		"nutrify_Linux_x86_64.tar.gz": "def456",
	}, got)
	assert.Empty(t, parseChecksums(nil))
}

func TestVerifyChecksum(t *testing.T) {
	data := []byte("hello world")
	h := sha256.Sum256(data)

	assert.NoError(t, verifyChecksum(data, hex.EncodeToString(h[:])))
	assert.ErrorIs(t, verifyChecksum(data, "00"), ErrChecksum)
}

func TestExtractBinary(t *testing.T) {
	content := []byte("#!/bin/sh\necho nutrify")

	got, err := extractBinary(buildTarGz(t, "nutrify_2.0.0/nutrify", content))
	require.NoError(t, err)
	assert.Equal(t, content, got)

	_, err = extractBinary(buildTarGz(t, "README.md", content))
	assert.ErrorContains(t, err, "not found")
}

func TestApplyUpdateKeepsPrevious(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "nutrify")
	require.NoError(t, os.WriteFile(target, []byte("old"), 0755))

	require.NoError(t, applyUpdate([]byte("new-binary-content"), target))

	got, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "new-binary-content", string(got))

	info, err := os.Stat(target)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0755), info.Mode().Perm())

	prev, err := os.ReadFile(target + previousSuffix)
	require.NoError(t, err)
	assert.Equal(t, "old", string(prev))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "no temp files left behind")
}

// releaseServer serves one release of a darwin archive. sum replaces the
// archive checksum when set.
func releaseServer(t *testing.T, tag string, archive []byte, sum string) *httptest.Server {
	t.Helper()
	if sum == "" {
		h := sha256.Sum256(archive)
		sum = hex.EncodeToString(h[:])
	}
	download := "/abhisek/nutrify/releases/download/" + tag + "/"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/abhisek/nutrify/releases/latest":
			_, _ = fmt.Fprintf(w, `{"tag_name":%q,"html_url":"https://example.com/%s"}`, tag, tag)
		case download + darwinAsset:
			_, _ = w.Write(archive)
		case download + "checksums.txt":
			_, _ = fmt.Fprintf(w, "%s  %s\n", sum, darwinAsset)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func testChecker(server *httptest.Server, execPath string) *Checker {
	return NewChecker(
		WithBaseURL(server.URL),
		WithDownloadBaseURL(server.URL),
		withPlatform("darwin", "arm64"),
		withExecPath(func() (string, error) { return execPath, nil }),
	)
}

func TestUpdate(t *testing.T) {
	binary := []byte("new-nutrify-binary")
	archive := buildTarGz(t, "nutrify", binary)
	noop := func(UpdateProgress) {}

	t.Run("happy path then rollback", func(t *testing.T) {
		execPath := filepath.Join(t.TempDir(), "nutrify")
		require.NoError(t, os.WriteFile(execPath, []byte("old"), 0755))
		checker := testChecker(releaseServer(t, "v2.0.0", archive, ""), execPath)

		var stages []string
		err := checker.Update(context.Background(), &UpdateInput{CurrentVersion: "v1.0.0"}, func(p UpdateProgress) {
			stages = append(stages, p.Stage)
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"check", "download", "verify", "extract", "apply", "done"}, stages)

		got, err := os.ReadFile(execPath)
		require.NoError(t, err)
		assert.Equal(t, binary, got)

		require.NoError(t, checker.Rollback())
		got, err = os.ReadFile(execPath)
		require.NoError(t, err)
		assert.Equal(t, "old", string(got))
		assert.ErrorIs(t, checker.Rollback(), ErrNoPrevious)
	})

	t.Run("pinned version skips the check", func(t *testing.T) {
		execPath := filepath.Join(t.TempDir(), "nutrify")
		require.NoError(t, os.WriteFile(execPath, []byte("old"), 0755))
		checker := testChecker(releaseServer(t, "v1.4.0", archive, ""), execPath)

		var stages []string
		err := checker.Update(context.Background(), &UpdateInput{CurrentVersion: "v2.0.0", TargetVersion: "1.4.0"}, func(p UpdateProgress) {
			stages = append(stages, p.Stage)
		})
		require.NoError(t, err)
		assert.NotContains(t, stages, "check")
	})

	t.Run("pinned version must be semver", func(t *testing.T) {
		err := NewChecker().Update(context.Background(), &UpdateInput{CurrentVersion: "v1.0.0", TargetVersion: "latest"}, noop)
		assert.ErrorIs(t, err, ErrBadVersion)
	})

	t.Run("pinned current version", func(t *testing.T) {
		err := NewChecker().Update(context.Background(), &UpdateInput{CurrentVersion: "v1.0.0", TargetVersion: "1.0.0"}, noop)
		assert.ErrorIs(t, err, ErrAlreadyLatest)
	})

	t.Run("dev build", func(t *testing.T) {
		for _, v := range []string{"(devel)", "", "dev"} {
			err := NewChecker().Update(context.Background(), &UpdateInput{CurrentVersion: v}, noop)
			assert.ErrorIs(t, err, ErrDevBuild, v)
		}
	})

	t.Run("already latest", func(t *testing.T) {
		checker := testChecker(releaseServer(t, "v1.0.0", archive, ""), "")
		err := checker.Update(context.Background(), &UpdateInput{CurrentVersion: "v1.0.0"}, noop)
		assert.ErrorIs(t, err, ErrAlreadyLatest)
	})

	t.Run("checksum mismatch", func(t *testing.T) {
		execPath := filepath.Join(t.TempDir(), "nutrify")
		require.NoError(t, os.WriteFile(execPath, []byte("old"), 0755))
		checker := testChecker(releaseServer(t, "v2.0.0", archive, "0000"), execPath)

		err := checker.Update(context.Background(), &UpdateInput{CurrentVersion: "v1.0.0"}, noop)
		assert.ErrorIs(t, err, ErrChecksum)
		got, _ := os.ReadFile(execPath)
		assert.Equal(t, "old", string(got))
	})

	t.Run("download failure", func(t *testing.T) {
		checker := NewChecker(
			WithBaseURL(releaseServer(t, "v2.0.0", archive, "").URL),
			WithDownloadBaseURL(releaseServer(t, "v9.9.9", archive, "").URL),
			withPlatform("darwin", "arm64"),
		)
		err := checker.Update(context.Background(), &UpdateInput{CurrentVersion: "v1.0.0"}, noop)
		assert.ErrorContains(t, err, "download archive")
	})

	t.Run("unsupported platform", func(t *testing.T) {
		checker := NewChecker(WithBaseURL(releaseServer(t, "v2.0.0", archive, "").URL), withPlatform("windows", "amd64"))
		err := checker.Update(context.Background(), &UpdateInput{CurrentVersion: "v1.0.0"}, noop)
		assert.ErrorContains(t, err, "install from source")
	})
}

// buildTarGz creates a tar.gz archive containing a single file.
func buildTarGz(t *testing.T, name string, content []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gw)

	require.NoError(t, tw.WriteHeader(&tar.Header{
		Typeflag: tar.TypeReg,
		Name:     name,
		Size:     int64(len(content)),
		Mode:     0755,
	}))
	_, err := tw.Write(content)
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	require.NoError(t, gw.Close())
	return buf.Bytes()
}
