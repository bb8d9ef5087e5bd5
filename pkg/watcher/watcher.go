// Package watcher 监视热部署目录，新放入或被改写的 jar 在写入稳定后自动验证
package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"ejb-verifier/pkg/report"
)

// DefaultDebounce 同一文件连续事件的合并窗口
const DefaultDebounce = 300 * time.Millisecond

// Deployer 验证一个部署单元
type Deployer interface {
	VerifyArchive(ctx context.Context, path string) (*report.Report, error)
}

// Result 一次自动验证的结果
type Result struct {
	Path   string
	Report *report.Report
	Err    error
}

// Option 监视器选项
type Option func(*Watcher)

// WithDebounce 设置合并窗口
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithLogger 设置日志
func WithLogger(log *zap.Logger) Option {
	return func(w *Watcher) {
		if log != nil {
			w.log = log
		}
	}
}

// WithResultHandler 每次验证完成后回调（在监视协程中同步执行）
func WithResultHandler(fn func(Result)) Option {
	return func(w *Watcher) { w.onResult = fn }
}

// Watcher 热部署目录监视器
// 职责：过滤 *.jar 的创建与写入事件，按文件合并短时间内的连续事件，逐个交给部署器
type Watcher struct {
	dir      string
	deployer Deployer
	debounce time.Duration
	log      *zap.Logger
	onResult func(Result)

	mu     sync.Mutex
	timers map[string]*time.Timer
	ready  chan string
}

// New 创建监视器
func New(dir string, d Deployer, opts ...Option) *Watcher {
	w := &Watcher{
		dir:      dir,
		deployer: d,
		debounce: DefaultDebounce,
		log:      zap.NewNop(),
		timers:   make(map[string]*time.Timer),
		ready:    make(chan string, 16),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run 先验证目录中已有的 jar，再持续监视直到 ctx 结束
func (w *Watcher) Run(ctx context.Context) error {
	if w.deployer == nil {
		return errors.New("watcher: deployer is required")
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch init: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	w.log.Info("watching deploy directory", zap.String("dir", w.dir), zap.Duration("debounce", w.debounce))

	existing, err := w.scan()
	if err != nil {
		return err
	}
	for _, path := range existing {
		w.deploy(ctx, path)
	}

	defer w.stopTimers()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handle(ctx, ev)
		case path := <-w.ready:
			w.deploy(ctx, path)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", zap.Error(err))
		}
	}
}

// scan 目录中已有的 jar（按名称排序）
func (w *Watcher) scan() ([]string, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", w.dir, err)
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() && isJar(e.Name()) {
			out = append(out, filepath.Join(w.dir, e.Name()))
		}
	}
	return out, nil
}

func (w *Watcher) handle(ctx context.Context, ev fsnotify.Event) {
	if !isJar(ev.Name) {
		return
	}
	switch {
	case ev.Has(fsnotify.Create), ev.Has(fsnotify.Write):
		w.schedule(ctx, ev.Name)
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		w.cancel(ev.Name)
	}
}

// schedule 重置该文件的计时器，窗口内没有新事件时投递到 ready
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.timers[path]; ok {
		t.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(w.debounce, func() { w.fire(ctx, path, t) })
	w.timers[path] = t
}

// fire 计时器到期；已被新计时器替换或已取消时丢弃
func (w *Watcher) fire(ctx context.Context, path string, t *time.Timer) {
	w.mu.Lock()
	if w.timers[path] != t {
		w.mu.Unlock()
		return
	}
	delete(w.timers, path)
	w.mu.Unlock()
	select {
	case w.ready <- path:
	case <-ctx.Done():
	}
}

func (w *Watcher) cancel(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.timers[path]; ok {
		t.Stop()
		delete(w.timers, path)
	}
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.timers {
		t.Stop()
		delete(w.timers, path)
	}
}

func (w *Watcher) deploy(ctx context.Context, path string) {
	r, err := w.deployer.VerifyArchive(ctx, path)
	switch {
	case err != nil:
		w.log.Error("verification failed", zap.String("archive", path), zap.Error(err))
	case r.Passed():
		w.log.Info("archive verified", zap.String("archive", path), zap.String("report", r.ID))
	default:
		w.log.Warn("archive refused",
			zap.String("archive", path),
			zap.String("report", r.ID),
			zap.Int("violations", r.ViolationCount()))
	}
	if w.onResult != nil {
		w.onResult(Result{Path: path, Report: r, Err: err})
	}
}

func isJar(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".jar")
}
