package compress_test

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/arthur-debert/webinstall/pkg/compress"
	"github.com/arthur-debert/webinstall/pkg/filesystem"
	"github.com/arthur-debert/webinstall/pkg/tools"
	"github.com/arthur-debert/webinstall/pkg/types"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBrotli mimics the brotli CLI: it writes <input>.br unless told not to
type fakeBrotli struct {
	code    int
	noWrite bool
	calls   [][]string
}

func (f *fakeBrotli) Run(_ context.Context, name string, args ...string) tools.Result {
	f.calls = append(f.calls, append([]string{name}, args...))
	if f.code != 0 {
		return tools.Result{ExitCode: f.code, Stderr: "boom"}
	}
	if !f.noWrite {
		in := args[len(args)-1]
		out := in + ".br"
		if args[0] == "--input" {
			in, out = args[1], args[3]
		}
		data, _ := os.ReadFile(in)
		_ = os.WriteFile(out, append([]byte("br:"), data...), 0600)
	}
	return tools.Result{}
}

var brotliTools = types.ToolAvailability{BrotliPath: "brotli", BrotliVersion: "brotli 1.0.9"}

func installed(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func gunzip(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	zr, err := gzip.NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	plain, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Empty(t, zr.Name)
	assert.True(t, zr.ModTime.IsZero() || zr.ModTime.Unix() == 0)
	return string(plain)
}

func TestGzip_Deterministic(t *testing.T) {
	dst := installed(t, "Client.js", "var a = 1;\nvar a = 1;\nvar a = 1;\n")
	stage := compress.NewStage(filesystem.NewOS(), &fakeBrotli{}, types.ToolAvailability{}, compress.Options{Gzip: true})

	require.NoError(t, stage.Gzip(dst))
	first, err := os.ReadFile(dst + ".gz")
	require.NoError(t, err)

	require.NoError(t, stage.Gzip(dst))
	second, err := os.ReadFile(dst + ".gz")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, "var a = 1;\nvar a = 1;\nvar a = 1;\n", gunzip(t, dst+".gz"))

	info, err := os.Stat(dst + ".gz")
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), info.Mode().Perm())
}

func TestCompress_ProducesBothSiblings(t *testing.T) {
	dst := installed(t, "Client.js", "content")
	runner := &fakeBrotli{}
	stage := compress.NewStage(filesystem.NewOS(), runner, brotliTools, compress.Options{Gzip: true, Brotli: true, Exclude: []string{"png"}})

	var res types.AssetResult
	stage.Compress(context.Background(), types.NewAsset("/src", "Client.js"), dst, &res)

	assert.Equal(t, []string{dst + ".gz", dst + ".br"}, res.Compressed)
	assert.Empty(t, res.Warnings)
	require.Len(t, runner.calls, 1)
	assert.Equal(t, []string{"brotli", "-k", dst}, runner.calls[0])
	assert.FileExists(t, dst+".br")
}

func TestCompress_LegacyBrotliFlags(t *testing.T) {
	dst := installed(t, "Client.js", "content")
	runner := &fakeBrotli{}
	legacy := types.ToolAvailability{BrotliPath: "bro", BrotliVersion: "bro 0.5"}
	stage := compress.NewStage(filesystem.NewOS(), runner, legacy, compress.Options{Brotli: true})

	var res types.AssetResult
	stage.Compress(context.Background(), types.NewAsset("/src", "Client.js"), dst, &res)

	require.Len(t, runner.calls, 1)
	assert.Equal(t, []string{"bro", "--input", dst, "--output", dst + ".br", "--quality", "11"}, runner.calls[0])
	assert.FileExists(t, dst+".br")
}

func TestCompress_SkipsExcludedAndConfig(t *testing.T) {
	runner := &fakeBrotli{}
	stage := compress.NewStage(filesystem.NewOS(), runner, brotliTools, compress.Options{Gzip: true, Brotli: true, Exclude: []string{"png"}})

	png := installed(t, "favicon.png", "png")
	var res types.AssetResult
	stage.Compress(context.Background(), types.NewAsset("/src", "favicon.png"), png, &res)
	assert.NoFileExists(t, png+".gz")
	assert.NoFileExists(t, png+".br")

	cfg := installed(t, "default-settings.txt", "a=b")
	asset := types.NewConfigAsset("/src", "default-settings.txt")
	stage.Compress(context.Background(), asset, cfg, &res)
	assert.NoFileExists(t, cfg+".gz")

	assert.Empty(t, res.Compressed)
	assert.Empty(t, runner.calls)
}

func TestCompress_BrotliFailureIsNotFatal(t *testing.T) {
	dst := installed(t, "Client.js", "content")
	// stale output of an earlier run must not survive a failed regeneration
	require.NoError(t, os.WriteFile(dst+".br", []byte("stale"), 0644))

	stage := compress.NewStage(filesystem.NewOS(), &fakeBrotli{code: 1}, brotliTools, compress.Options{Gzip: true, Brotli: true})

	var res types.AssetResult
	stage.Compress(context.Background(), types.NewAsset("/src", "Client.js"), dst, &res)

	assert.Equal(t, []string{dst + ".gz"}, res.Compressed)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "brotli error code=1")
	assert.NoFileExists(t, dst+".br")
}

func TestCompress_BrotliSuccessWithoutOutput(t *testing.T) {
	dst := installed(t, "Client.js", "content")
	stage := compress.NewStage(filesystem.NewOS(), &fakeBrotli{noWrite: true}, brotliTools, compress.Options{Brotli: true})

	var res types.AssetResult
	stage.Compress(context.Background(), types.NewAsset("/src", "Client.js"), dst, &res)

	assert.Empty(t, res.Compressed)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "did not create")
}

func TestCompress_BrotliUnavailable(t *testing.T) {
	dst := installed(t, "Client.js", "content")
	runner := &fakeBrotli{}
	stage := compress.NewStage(filesystem.NewOS(), runner, types.ToolAvailability{}, compress.Options{Gzip: true, Brotli: true})

	var res types.AssetResult
	stage.Compress(context.Background(), types.NewAsset("/src", "Client.js"), dst, &res)

	assert.Equal(t, []string{dst + ".gz"}, res.Compressed)
	assert.Empty(t, runner.calls)
}
