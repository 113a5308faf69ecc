package crash

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"galleria/internal/domain"
	"galleria/internal/prefs"
)

func TestWriteReportCreatesFileInTemp(t *testing.T) {
	path, err := writeReport(nil, "boom", []byte("stacktrace"))
	if err != nil {
		t.Fatalf("writeReport error: %v", err)
	}
	t.Cleanup(func() { _ = os.Remove(path) })
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	s := string(b)
	if !strings.Contains(s, "Galleria Crash Report") {
		t.Fatalf("report header missing")
	}
	if !strings.Contains(s, "Panic: boom") {
		t.Fatalf("panic content missing: %s", s)
	}
}

func TestWriteReportUsesContextDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	path, err := writeReport(&Context{Dir: dir, Command: "layout"}, "kaboom", []byte("stack"))
	if err != nil {
		t.Fatalf("writeReport error: %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Fatalf("expected report under %s, got %s", dir, path)
	}
	b, _ := os.ReadFile(path)
	if !strings.Contains(string(b), "Command: layout") {
		t.Fatalf("command missing: %s", b)
	}
}

func silenceStderr(t *testing.T) {
	t.Helper()
	old := os.Stderr
	r, w, _ := os.Pipe()
	os.Stderr = w
	t.Cleanup(func() {
		_ = w.Close()
		os.Stderr = old
		_, _ = io.Copy(io.Discard, r)
	})
}

func TestRecoverWritesReportAndSavesPrefs(t *testing.T) {
	silenceStderr(t)
	code := 0
	oldExit := exitFn
	exitFn = func(c int) { code = c }
	t.Cleanup(func() { exitFn = oldExit })

	dir := t.TempDir()
	kv := prefs.NewMemoryKV()
	cc := &Context{Dir: dir, Prefs: kv, State: func() domain.FilterState {
		return domain.FilterState{Checks: map[string]bool{"rpf": false}, Fandom: "alpha", Sort: domain.SortOldest}
	}}
	func() {
		defer Recover(cc)
		panic("boom")
	}()

	if code != 2 {
		t.Fatalf("exit code = %d", code)
	}
	files, _ := os.ReadDir(dir)
	if len(files) != 1 || !strings.HasPrefix(files[0].Name(), "galleria-crash-") {
		t.Fatalf("report files = %v", files)
	}
	st, found := prefs.Load(kv)
	if !found || st.Fandom != "alpha" || st.Sort != domain.SortOldest {
		t.Fatalf("selection not saved: %+v", st)
	}
}

func TestRecoverSurvivesBrokenState(t *testing.T) {
	silenceStderr(t)
	called := false
	oldExit := exitFn
	exitFn = func(int) { called = true }
	t.Cleanup(func() { exitFn = oldExit })

	cc := &Context{Dir: t.TempDir(), Prefs: prefs.NewMemoryKV(), State: func() domain.FilterState { panic("nested") }}
	func() {
		defer Recover(cc)
		panic("boom")
	}()
	if !called {
		t.Fatalf("exit not called")
	}
}

func TestRecoverWithoutPanicIsNoop(t *testing.T) {
	oldExit := exitFn
	exitFn = func(int) { t.Fatalf("exit called without panic") }
	t.Cleanup(func() { exitFn = oldExit })
	func() {
		defer Recover(nil)
	}()
}
