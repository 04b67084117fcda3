package testutil

import (
	"context"
	"os"
	"strings"
	"sync"

	"github.com/arthur-debert/webinstall/pkg/tools"
)

// ToolFunc scripts the behavior of one external tool
type ToolFunc func(args []string) tools.Result

// FakeRunner dispatches commands to scripted tools by base name and
// records every invocation. Unknown tools fail as if not installed.
type FakeRunner struct {
	mu    sync.Mutex
	tools map[string]ToolFunc
	Calls [][]string
}

// NewFakeRunner creates a runner without any tools
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{tools: make(map[string]ToolFunc)}
}

// Handle registers fn for commands whose base name is name
func (f *FakeRunner) Handle(name string, fn ToolFunc) *FakeRunner {
	f.tools[name] = fn
	return f
}

// Run implements tools.Runner
func (f *FakeRunner) Run(_ context.Context, name string, args ...string) tools.Result {
	f.mu.Lock()
	f.Calls = append(f.Calls, append([]string{name}, args...))
	f.mu.Unlock()

	base := name
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	fn, ok := f.tools[base]
	if !ok {
		return tools.Result{ExitCode: -1, Err: os.ErrNotExist}
	}
	return fn(args)
}

// CallsTo returns the recorded invocations of a tool
func (f *FakeRunner) CallsTo(name string) [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var calls [][]string
	for _, c := range f.Calls {
		base := c[0]
		if i := strings.LastIndexAny(base, `/\`); i >= 0 {
			base = base[i+1:]
		}
		if base == name {
			calls = append(calls, c)
		}
	}
	return calls
}

// FailingTool exits with code and the given stderr without side effects
func FailingTool(code int, stderr string) ToolFunc {
	return func([]string) tools.Result {
		return tools.Result{ExitCode: code, Stderr: stderr}
	}
}

// UglifyTool mimics `uglifyjs SRC -o DST --compress` by writing a marker
// line followed by the source with blank lines removed
func UglifyTool() ToolFunc {
	return func(args []string) tools.Result {
		src, dst := args[0], args[2]
		data, err := os.ReadFile(src)
		if err != nil {
			return tools.Result{ExitCode: 1, Stderr: err.Error()}
		}
		var out []string
		for _, line := range strings.Split(string(data), "\n") {
			if strings.TrimSpace(line) != "" {
				out = append(out, strings.TrimSpace(line))
			}
		}
		content := "/*min*/" + strings.Join(out, "")
		if err := os.WriteFile(dst, []byte(content), 0600); err != nil {
			return tools.Result{ExitCode: 1, Stderr: err.Error()}
		}
		return tools.Result{}
	}
}

// BrotliTool mimics `brotli -k DST` by writing DST.br
func BrotliTool() ToolFunc {
	return func(args []string) tools.Result {
		in := args[len(args)-1]
		out := in + ".br"
		if args[0] == "--input" {
			in, out = args[1], args[3]
		}
		data, err := os.ReadFile(in)
		if err != nil {
			return tools.Result{ExitCode: 1, Stderr: err.Error()}
		}
		if err := os.WriteFile(out, append([]byte("BR"), data...), 0600); err != nil {
			return tools.Result{ExitCode: 1, Stderr: err.Error()}
		}
		return tools.Result{}
	}
}
