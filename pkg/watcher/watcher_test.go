package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ejb-verifier/pkg/report"
)

type recordingDeployer struct {
	mu    sync.Mutex
	paths []string
}

func (d *recordingDeployer) VerifyArchive(_ context.Context, path string) (*report.Report, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.paths = append(d.paths, path)
	if filepath.Base(path) == "broken.jar" {
		return nil, errors.New("not a jar")
	}
	return &report.Report{ID: "r", Archive: path}, nil
}

// start 启动监视器，返回结果通道与停止函数
func start(t *testing.T, dir string, d Deployer) (<-chan Result, func()) {
	t.Helper()
	results := make(chan Result, 16)
	w := New(dir, d,
		WithDebounce(150*time.Millisecond),
		WithResultHandler(func(r Result) { results <- r }))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	return results, func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("watcher did not stop")
		}
	}
}

func next(t *testing.T, results <-chan Result) Result {
	t.Helper()
	select {
	case r := <-results:
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("no verification result")
		return Result{}
	}
}

func TestVerifiesExistingArchives(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.jar"), []byte("b"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.JAR"), []byte("a"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600))

	results, stop := start(t, dir, &recordingDeployer{})
	defer stop()

	assert.Equal(t, filepath.Join(dir, "a.JAR"), next(t, results).Path)
	assert.Equal(t, filepath.Join(dir, "b.jar"), next(t, results).Path)
}

func TestDebouncesWrites(t *testing.T) {
	dir := t.TempDir()
	d := &recordingDeployer{}
	results, stop := start(t, dir, d)
	defer stop()

	// 等待监视器就绪
	time.Sleep(100 * time.Millisecond)

	path := filepath.Join(dir, "bank.jar")
	f, err := os.Create(path)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		_, err := f.Write([]byte("chunk"))
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)
	}
	require.NoError(t, f.Close())
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("x"), 0o600))

	r := next(t, results)
	assert.Equal(t, path, r.Path)
	assert.NoError(t, r.Err)

	// 窗口过后不应再有第二次验证
	select {
	case extra := <-results:
		t.Fatalf("unexpected second verification of %s", extra.Path)
	case <-time.After(500 * time.Millisecond):
	}
}

func TestReportsDeployerErrors(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.jar"), []byte("x"), 0o600))

	results, stop := start(t, dir, &recordingDeployer{})
	defer stop()

	r := next(t, results)
	assert.Error(t, r.Err)
	assert.Nil(t, r.Report)
}

func TestRunErrors(t *testing.T) {
	t.Run("目录不存在", func(t *testing.T) {
		w := New(filepath.Join(t.TempDir(), "missing"), &recordingDeployer{})
		assert.Error(t, w.Run(context.Background()))
	})

	t.Run("没有部署器", func(t *testing.T) {
		w := New(t.TempDir(), nil)
		assert.Error(t, w.Run(context.Background()))
	})
}

func TestSupersededTimer(t *testing.T) {
	ctx := context.Background()
	w := New(t.TempDir(), &recordingDeployer{}, WithDebounce(time.Hour))
	path := filepath.Join(w.dir, "bank.jar")

	w.schedule(ctx, path)
	first := w.timers[path]
	w.schedule(ctx, path)
	second := w.timers[path]
	require.NotSame(t, first, second)

	t.Run("旧计时器到期被丢弃", func(t *testing.T) {
		w.fire(ctx, path, first)
		assert.Same(t, second, w.timers[path])
		assert.Empty(t, w.ready)
	})

	t.Run("当前计时器到期投递一次", func(t *testing.T) {
		w.fire(ctx, path, second)
		assert.NotContains(t, w.timers, path)
		require.Len(t, w.ready, 1)
		assert.Equal(t, path, <-w.ready)
	})

	t.Run("取消后到期被丢弃", func(t *testing.T) {
		w.schedule(ctx, path)
		pending := w.timers[path]
		w.cancel(path)
		w.fire(ctx, path, pending)
		assert.Empty(t, w.ready)
	})

	w.stopTimers()
}

func TestIsJar(t *testing.T) {
	assert.True(t, isJar("/deploy/bank.jar"))
	assert.True(t, isJar("BANK.JAR"))
	assert.False(t, isJar("bank.jar.tmp"))
	assert.False(t, isJar("bank"))
}
