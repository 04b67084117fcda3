package installer_test

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/arthur-debert/webinstall/pkg/config"
	"github.com/arthur-debert/webinstall/pkg/errors"
	"github.com/arthur-debert/webinstall/pkg/installer"
	"github.com/arthur-debert/webinstall/pkg/testutil"
	"github.com/arthur-debert/webinstall/pkg/tools"
	"github.com/arthur-debert/webinstall/pkg/types"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var modernBrotli = types.ToolAvailability{BrotliPath: "/usr/bin/brotli", BrotliVersion: "brotli 1.0.9"}

func withUglify(avail types.ToolAvailability) types.ToolAvailability {
	avail.Minifier = tools.MinifierUglifyJS
	avail.MinifierCommand = []string{"uglifyjs"}
	return avail
}

func addClient(env *testutil.TestEnvironment) {
	env.AddAsset("index.html", "<html>\n<script>\n  let ready = false;\n</script>\n</html>\n")
	env.AddAsset("js/app.js", "let x = 1;\nconst y = 2;\nfor (let i = 0; i < 3; i++) {}\n")
	env.AddAsset("js/plain.js", "var untouched = true;\n")
	env.AddAsset("css/client.css", "body { margin: 0; }\n")
	env.AddAsset("icons/logo.png", "\x89PNG fake")
	env.AddAsset("default-settings.txt", "# settings\nlet_me = stay\n")
}

func install(t *testing.T, env *testutil.TestEnvironment, runner *testutil.FakeRunner, avail types.ToolAvailability) *types.Report {
	t.Helper()
	report, err := installer.New(env.Config,
		installer.WithRunner(runner),
		installer.WithTools(avail),
	).Install(context.Background())
	require.NoError(t, err)
	require.NotNil(t, report)
	return report
}

func gunzip(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	zr, err := gzip.NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	out, err := io.ReadAll(zr)
	require.NoError(t, err)
	return string(out)
}

func TestInstall_CopiesTransformsAndCompresses(t *testing.T) {
	env := testutil.NewTestEnvironment(t)
	addClient(env)
	runner := testutil.NewFakeRunner().Handle("brotli", testutil.BrotliTool())

	report := install(t, env, runner, modernBrotli)

	// declarations are downgraded in scripts and the entry point
	assert.Equal(t, "var x = 1;\nvar y = 2;\nfor(var i = 0; i < 3; i++) {}\n", env.ReadInstalled("js/app.js"))
	assert.Equal(t, "<html>\n<script>\nvar ready = false;\n</script>\n</html>\n", env.ReadInstalled("index.html"))
	assert.Equal(t, "var untouched = true;\n", env.ReadInstalled("js/plain.js"))
	assert.Equal(t, "body { margin: 0; }\n", env.ReadInstalled("css/client.css"))

	// gzip sibling holds the installed content
	assert.Equal(t, env.ReadInstalled("js/app.js"), gunzip(t, env.InstallPath("js/app.js.gz")))
	assert.FileExists(t, env.InstallPath("js/app.js.br"))
	assert.FileExists(t, env.InstallPath("css/client.css.gz"))
	assert.FileExists(t, env.InstallPath("css/client.css.br"))

	// images are never compressed
	assert.FileExists(t, env.InstallPath("icons/logo.png"))
	assert.NoFileExists(t, env.InstallPath("icons/logo.png.gz"))
	assert.NoFileExists(t, env.InstallPath("icons/logo.png.br"))

	res, ok := report.Find("js/app.js")
	require.True(t, ok)
	assert.Equal(t, types.OutcomeCopied, res.Outcome)
	assert.True(t, res.Transformed)
	assert.Len(t, res.Compressed, 2)

	res, ok = report.Find("js/plain.js")
	require.True(t, ok)
	assert.False(t, res.Transformed)

	info, err := os.Stat(env.InstallPath("js/app.js"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), info.Mode().Perm())
}

func TestInstall_LeavesSourceTreeUntouched(t *testing.T) {
	env := testutil.NewTestEnvironment(t)
	addClient(env)
	before := testutil.Snapshot(t, env.SourceDir)

	runner := testutil.NewFakeRunner().
		Handle("uglifyjs", testutil.UglifyTool()).
		Handle("brotli", testutil.BrotliTool())
	install(t, env, runner, withUglify(modernBrotli))

	assert.Equal(t, before, testutil.Snapshot(t, env.SourceDir))
	assert.Empty(t, testutil.FindWithSuffix(t, env.SourceDir, ".tmp"))
	assert.Empty(t, testutil.FindWithSuffix(t, env.InstallDir(), ".tmp"))
}

func TestInstall_Idempotent(t *testing.T) {
	env := testutil.NewTestEnvironment(t)
	addClient(env)
	env.AddAsset("lib/jquery.js", "bundled jquery")
	system := env.AddSystemFile("javascript/jquery/jquery.js", "system jquery")
	env.Config.Symlinks = []config.SymlinkRule{{Name: "jquery.js", Candidates: []string{system}}}
	env.Config.ExtraSymlinks = []config.SymlinkRule{{Name: "background.png", Candidates: []string{system}}}

	runner := testutil.NewFakeRunner().
		Handle("uglifyjs", testutil.UglifyTool()).
		Handle("brotli", testutil.BrotliTool())

	install(t, env, runner, withUglify(modernBrotli))
	first := testutil.Snapshot(t, env.Root)
	install(t, env, runner, withUglify(modernBrotli))
	second := testutil.Snapshot(t, env.Root)

	assert.Equal(t, first, second)
}

func TestInstall_SymlinkPrecedence(t *testing.T) {
	env := testutil.NewTestEnvironment(t)
	env.AddAsset("js/lib/jquery.js", "let bundled = 1;\n")
	env.AddAsset("js/lib/jquery-ui.js", "let bundled = 2;\n")
	env.AddAsset("js/lib/other.js", "let bundled = 3;\n")
	jquery := env.AddSystemFile("javascript/jquery/jquery.js", "system jquery")
	env.AddSystemFile("jquery-ui-1.13/jquery-ui.js", "system jquery-ui")

	env.Config.Symlinks = []config.SymlinkRule{
		{Name: "jquery.js", Candidates: []string{filepath.Join(env.SystemDir, "missing", "jquery.js"), jquery}},
		{Name: "jquery-ui.js", Candidates: []string{filepath.Join(env.SystemDir, "jquery-ui-*", "jquery-ui.js")}},
		{Name: "other.js", Candidates: []string{filepath.Join(env.SystemDir, "nowhere", "other.js")}},
	}

	runner := testutil.NewFakeRunner().
		Handle("uglifyjs", testutil.UglifyTool()).
		Handle("brotli", testutil.BrotliTool())
	report := install(t, env, runner, withUglify(modernBrotli))

	for rel, want := range map[string]string{
		"js/lib/jquery.js":    jquery,
		"js/lib/jquery-ui.js": filepath.Join(env.SystemDir, "jquery-ui-1.13", "jquery-ui.js"),
	} {
		dest := env.InstallPath(rel)
		info, err := os.Lstat(dest)
		require.NoError(t, err, rel)
		assert.True(t, info.Mode()&os.ModeSymlink != 0, rel)
		target, err := os.Readlink(dest)
		require.NoError(t, err)
		assert.Equal(t, want, target)

		assert.NoFileExists(t, dest+".gz")
		assert.NoFileExists(t, dest+".br")

		res, ok := report.Find(rel)
		require.True(t, ok)
		assert.Equal(t, types.OutcomeSymlinked, res.Outcome)
		assert.Equal(t, want, res.LinkTarget)
	}

	// no candidate exists, so the asset goes through the pipeline
	res, ok := report.Find("js/lib/other.js")
	require.True(t, ok)
	assert.Equal(t, types.OutcomeMinified, res.Outcome)
	assert.FileExists(t, env.InstallPath("js/lib/other.js.gz"))

	// the minifier never saw the linked assets
	assert.Len(t, runner.CallsTo("uglifyjs"), 1)
}

func TestInstall_SymlinkReplacesEarlierCopy(t *testing.T) {
	env := testutil.NewTestEnvironment(t)
	env.AddAsset("jquery.js", "bundled")
	runner := testutil.NewFakeRunner().Handle("brotli", testutil.BrotliTool())

	install(t, env, runner, modernBrotli)
	require.FileExists(t, env.InstallPath("jquery.js.gz"))

	system := env.AddSystemFile("jquery.js", "system")
	env.Config.Symlinks = []config.SymlinkRule{{Name: "jquery.js", Candidates: []string{system}}}
	install(t, env, runner, modernBrotli)

	target, err := os.Readlink(env.InstallPath("jquery.js"))
	require.NoError(t, err)
	assert.Equal(t, system, target)
	assert.NoFileExists(t, env.InstallPath("jquery.js.gz"))
	assert.NoFileExists(t, env.InstallPath("jquery.js.br"))
}

func TestInstall_ConfigurationFileIsolation(t *testing.T) {
	env := testutil.NewTestEnvironment(t)
	addClient(env)
	runner := testutil.NewFakeRunner().Handle("brotli", testutil.BrotliTool())

	report := install(t, env, runner, modernBrotli)

	dest := env.InstallPath("default-settings.txt")
	info, err := os.Lstat(dest)
	require.NoError(t, err)
	require.True(t, info.Mode()&os.ModeSymlink != 0)

	// the link points at the runtime location, without the staging root
	target, err := os.Readlink(dest)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/etc/html5-client", "default-settings.txt"), target)

	content, err := os.ReadFile(env.ConfigPath("default-settings.txt"))
	require.NoError(t, err)
	assert.Equal(t, "# settings\nlet_me = stay\n", string(content))

	for _, path := range []string{dest, env.ConfigPath("default-settings.txt")} {
		assert.NoFileExists(t, path+".gz")
		assert.NoFileExists(t, path+".br")
	}

	res, ok := report.Find("default-settings.txt")
	require.True(t, ok)
	assert.Equal(t, types.OutcomeConfig, res.Outcome)
	assert.Equal(t, target, res.LinkTarget)
}

func TestInstall_RelativeDirsKeepConfigLinkReachable(t *testing.T) {
	env := testutil.NewTestEnvironment(t)
	env.AddAsset("default-settings.txt", "server=localhost\n")
	env.AddAsset("index.html", "<html></html>\n")
	work := env.Config.Platform.WorkDir
	env.Config.Root = ""
	env.Config.InstallDir = "www"
	env.Config.ConfigDir = "etc"

	report := install(t, env, testutil.NewFakeRunner(), types.ToolAvailability{})
	assert.Equal(t, filepath.Join(work, "www"), report.InstallDir)

	dest := filepath.Join(work, "www", "default-settings.txt")
	target, err := os.Readlink(dest)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(work, "etc", "default-settings.txt"), target)

	content, err := os.ReadFile(dest)
	require.NoError(t, err, "link must resolve from the install directory")
	assert.Equal(t, "server=localhost\n", string(content))
	assert.FileExists(t, filepath.Join(work, "www", "index.html"))
}

func TestInstall_MinifierFailureFallsBackToCopy(t *testing.T) {
	env := testutil.NewTestEnvironment(t)
	env.AddAsset("js/app.js", "let x = 1;\n")
	runner := testutil.NewFakeRunner().
		Handle("uglifyjs", testutil.FailingTool(2, "parse error")).
		Handle("brotli", testutil.BrotliTool())

	report := install(t, env, runner, withUglify(modernBrotli))

	// the fallback copies the transformed text, not the original
	assert.Equal(t, "var x = 1;\n", env.ReadInstalled("js/app.js"))
	assert.FileExists(t, env.InstallPath("js/app.js.gz"))

	res, ok := report.Find("js/app.js")
	require.True(t, ok)
	assert.Equal(t, types.OutcomeMinifyFallback, res.Outcome)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "returned error 2")
	assert.Empty(t, testutil.FindWithSuffix(t, env.SourceDir, ".tmp"))
}

func TestInstall_MinifierWithoutOutputFallsBackToCopy(t *testing.T) {
	env := testutil.NewTestEnvironment(t)
	env.AddAsset("js/app.js", "var x = 1;\n")
	silent := func([]string) tools.Result { return tools.Result{} }
	runner := testutil.NewFakeRunner().Handle("uglifyjs", silent)

	report := install(t, env, runner, withUglify(types.ToolAvailability{}))

	assert.Equal(t, "var x = 1;\n", env.ReadInstalled("js/app.js"))
	res, ok := report.Find("js/app.js")
	require.True(t, ok)
	assert.Equal(t, types.OutcomeMinifyFallback, res.Outcome)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "produced no output")
}

func TestInstall_MinifiesTransformedSource(t *testing.T) {
	env := testutil.NewTestEnvironment(t)
	src := env.AddAsset("js/app.js", "let x = 1;\n")
	env.AddAsset("js/plain.js", "var y = 2;\n")
	env.AddAsset("index.html", "<html></html>\n")
	runner := testutil.NewFakeRunner().Handle("uglifyjs", testutil.UglifyTool())

	report := install(t, env, runner, withUglify(types.ToolAvailability{}))

	assert.Equal(t, "/*min*/var x = 1;", env.ReadInstalled("js/app.js"))
	assert.Equal(t, "/*min*/var y = 2;", env.ReadInstalled("js/plain.js"))
	// only scripts are minified
	assert.Equal(t, "<html></html>\n", env.ReadInstalled("index.html"))

	calls := runner.CallsTo("uglifyjs")
	require.Len(t, calls, 2)
	byDest := map[string][]string{}
	for _, c := range calls {
		byDest[c[3]] = c
	}
	appCall := byDest[env.InstallPath("js/app.js")]
	require.NotNil(t, appCall)
	assert.Equal(t, []string{"uglifyjs", src + ".tmp", "-o", env.InstallPath("js/app.js"), "--compress"}, appCall)

	assert.Equal(t, 2, report.Count(types.OutcomeMinified))
	// brotli is unavailable, gzip still runs
	assert.FileExists(t, env.InstallPath("js/app.js.gz"))
	assert.NoFileExists(t, env.InstallPath("js/app.js.br"))
}

func TestInstall_BrotliFailureIsAWarning(t *testing.T) {
	env := testutil.NewTestEnvironment(t)
	env.AddAsset("css/client.css", "body {}\n")
	runner := testutil.NewFakeRunner().Handle("brotli", testutil.FailingTool(1, "bad"))

	report := install(t, env, runner, modernBrotli)

	assert.FileExists(t, env.InstallPath("css/client.css.gz"))
	assert.NoFileExists(t, env.InstallPath("css/client.css.br"))
	res, ok := report.Find("css/client.css")
	require.True(t, ok)
	assert.Equal(t, types.OutcomeCopied, res.Outcome)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "brotli error code=1")
}

func TestInstall_LegacyBrotliFlags(t *testing.T) {
	env := testutil.NewTestEnvironment(t)
	env.AddAsset("css/client.css", "body {}\n")
	runner := testutil.NewFakeRunner().Handle("brotli", testutil.BrotliTool())
	legacy := types.ToolAvailability{BrotliPath: "/usr/bin/brotli", BrotliVersion: "brotli 0.6.0"}

	install(t, env, runner, legacy)

	dest := env.InstallPath("css/client.css")
	calls := runner.CallsTo("brotli")
	require.Len(t, calls, 1)
	assert.Equal(t, []string{"/usr/bin/brotli", "--input", dest, "--output", dest + ".br", "--quality", "11"}, calls[0])
	assert.FileExists(t, dest+".br")
}

func TestInstall_CompressionDisabled(t *testing.T) {
	env := testutil.NewTestEnvironment(t)
	env.AddAsset("css/client.css", "body {}\n")
	env.Config.Gzip = false
	env.Config.Brotli = false
	runner := testutil.NewFakeRunner().Handle("brotli", testutil.BrotliTool())

	install(t, env, runner, modernBrotli)

	assert.NoFileExists(t, env.InstallPath("css/client.css.gz"))
	assert.NoFileExists(t, env.InstallPath("css/client.css.br"))
	assert.Empty(t, runner.Calls)
}

func TestInstall_ExtraSymlinks(t *testing.T) {
	env := testutil.NewTestEnvironment(t)
	env.AddAsset("index.html", "<html></html>\n")
	bg := env.AddSystemFile("backgrounds/default.png", "png")
	env.Config.ExtraSymlinks = []config.SymlinkRule{
		{Name: "background.png", Candidates: []string{filepath.Join(env.SystemDir, "missing.png"), bg}},
		{Name: "absent.png", Candidates: []string{filepath.Join(env.SystemDir, "missing.png")}},
	}

	report := install(t, env, testutil.NewFakeRunner(), types.ToolAvailability{})

	target, err := os.Readlink(env.InstallPath("background.png"))
	require.NoError(t, err)
	assert.Equal(t, bg, target)
	assert.NoFileExists(t, env.InstallPath("absent.png"))

	require.Len(t, report.ExtraLinks, 1)
	assert.Equal(t, "background.png", report.ExtraLinks[0].Name)
	assert.Equal(t, bg, report.ExtraLinks[0].Target)
}

func TestInstall_MissingSource(t *testing.T) {
	env := testutil.NewTestEnvironment(t)
	env.Config.SourceDir = filepath.Join(env.SourceDir, "nope")

	report, err := installer.New(env.Config,
		installer.WithRunner(testutil.NewFakeRunner()),
		installer.WithTools(types.ToolAvailability{}),
	).Install(context.Background())

	require.Error(t, err)
	assert.Nil(t, report)
	assert.True(t, errors.IsErrorCode(err, errors.ErrSourceNotFound))
}

func TestInstall_RelativeSourceUsesWorkDir(t *testing.T) {
	env := testutil.NewTestEnvironment(t)
	env.AddAsset("index.html", "<html></html>\n")
	env.Config.SourceDir = filepath.Base(env.SourceDir)
	env.Config.Platform.WorkDir = filepath.Dir(env.SourceDir)

	install(t, env, testutil.NewFakeRunner(), types.ToolAvailability{})

	assert.Equal(t, "<html></html>\n", env.ReadInstalled("index.html"))
}

func TestInstall_Cancelled(t *testing.T) {
	env := testutil.NewTestEnvironment(t)
	env.AddAsset("index.html", "<html></html>\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := installer.New(env.Config,
		installer.WithRunner(testutil.NewFakeRunner()),
		installer.WithTools(types.ToolAvailability{}),
	).Install(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, env.InstallPath("index.html"))
}

func TestTarget(t *testing.T) {
	cfg := &config.Config{Root: "/stage", InstallDir: "/usr/share/app/www", ConfigDir: "/etc/app"}
	inst := installer.New(cfg)

	plain := inst.Target(types.NewAsset("/src", "js/app.js"))
	assert.Equal(t, filepath.Join("/stage", "usr/share/app/www", "js/app.js"), plain.Dest)
	assert.Empty(t, plain.LinkTarget)

	asset := types.NewConfigAsset("/src", "default-settings.txt")
	conf := inst.Target(asset)
	assert.Equal(t, filepath.Join("/etc/app", "default-settings.txt"), conf.LinkTarget)
	assert.Equal(t, filepath.Join("/stage", "etc/app", "default-settings.txt"), conf.ConfigDest)
}

func writeScript(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("#!/bin/sh\n"+body), 0755))
}

func TestInstall_ProbesToolsOnSearchPath(t *testing.T) {
	env := testutil.NewTestEnvironment(t)
	env.AddAsset("js/app.js", "const a = 1;\n")
	env.AddAsset("css/client.css", "body {}\n")

	bin := t.TempDir()
	writeScript(t, bin, "uglifyjs", `printf '/*u*/' > "$3"; cat "$1" >> "$3"`+"\n")
	writeScript(t, bin, "brotli", `if [ "$1" = "--version" ]; then echo "brotli 1.1.0"; exit 0; fi
cp "$2" "$2.br"
`)
	env.Config.Minifier = tools.MinifierUglifyJS
	env.Config.Platform.SearchPath = []string{bin}

	report, err := installer.New(env.Config).Install(context.Background())
	require.NoError(t, err)

	assert.Equal(t, tools.MinifierUglifyJS, report.Tools.Minifier)
	assert.Equal(t, filepath.Join(bin, "brotli"), report.Tools.BrotliPath)
	assert.Equal(t, "brotli 1.1.0", report.Tools.BrotliVersion)

	assert.Equal(t, "/*u*/var a = 1;\n", env.ReadInstalled("js/app.js"))
	assert.FileExists(t, env.InstallPath("js/app.js.br"))
	assert.FileExists(t, env.InstallPath("css/client.css.br"))
	assert.Empty(t, testutil.FindWithSuffix(t, env.SourceDir, ".tmp"))
}

func TestInstall_MissingMinifierCopies(t *testing.T) {
	env := testutil.NewTestEnvironment(t)
	env.AddAsset("js/app.js", "let a = 1;\n")
	env.Config.Minifier = tools.MinifierHJSMin
	env.Config.Brotli = false
	env.Config.Platform.SearchPath = []string{t.TempDir()}

	report, err := installer.New(env.Config).Install(context.Background())
	require.NoError(t, err)

	assert.False(t, report.Tools.CanMinify())
	assert.Equal(t, "var a = 1;\n", env.ReadInstalled("js/app.js"))
	res, ok := report.Find("js/app.js")
	require.True(t, ok)
	assert.Equal(t, types.OutcomeCopied, res.Outcome)
}
