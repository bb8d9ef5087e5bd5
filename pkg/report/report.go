// Package report 把验证事件整理成可展示、可持久化的报告
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"ejb-verifier/pkg/verifier"
	"ejb-verifier/pkg/verifier/core"
)

// ============================================================================
// 报告模型
// ============================================================================

// Violation 一条违规
type Violation struct {
	Section string `json:"section"`
	Info    string `json:"info,omitempty"`
	Message string `json:"message"`
	Method  string `json:"method,omitempty"`
}

// BeanReport 单个 Bean 的报告
type BeanReport struct {
	Name       string      `json:"name"`
	Kind       string      `json:"kind"`
	Verified   bool        `json:"verified"`
	Violations []Violation `json:"violations,omitempty"`
}

// Report 一个部署单元的验证报告
type Report struct {
	ID         string       `json:"id"`
	Archive    string       `json:"archive"`
	Digest     string       `json:"digest"`
	Version    string       `json:"version"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Beans      []BeanReport `json:"beans"`
}

// Passed 所有 Bean 都通过且没有任何违规
func (r *Report) Passed() bool {
	for _, b := range r.Beans {
		if !b.Verified || len(b.Violations) > 0 {
			return false
		}
	}
	return true
}

// ViolationCount 违规总数
func (r *Report) ViolationCount() int {
	n := 0
	for _, b := range r.Beans {
		n += len(b.Violations)
	}
	return n
}

// Bean 按名称查找
func (r *Report) Bean(name string) (*BeanReport, bool) {
	for i := range r.Beans {
		if r.Beans[i].Name == name {
			return &r.Beans[i], true
		}
	}
	return nil, false
}

// ============================================================================
// 报告构建器
// ============================================================================

// Builder 作为验证监听器收集事件，验证结束后生成报告
// 事件按到达顺序记录；Bean 的顺序与种类以验证结果为准
type Builder struct {
	mu       sync.Mutex
	report   *Report
	index    map[string]int
	now      func() time.Time
	finished bool
}

var _ core.VerificationListener = (*Builder)(nil)

// NewBuilder 创建构建器，记录开始时间
func NewBuilder(archive, digest string) *Builder {
	b := &Builder{index: make(map[string]int), now: time.Now}
	b.report = &Report{
		ID:        uuid.NewString(),
		Archive:   archive,
		Digest:    digest,
		StartedAt: b.now().UTC(),
	}
	return b
}

func (b *Builder) SpecViolation(e core.VerificationEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	bean := b.bean(e.BeanName)
	bean.Violations = append(bean.Violations, Violation{
		Section: e.Section.ID,
		Info:    e.Section.Info,
		Message: e.Message,
		Method:  e.Method,
	})
}

func (b *Builder) BeanChecked(e core.VerificationEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bean(e.BeanName).Verified = true
}

// bean 获取或追加 Bean 报告，调用方持有锁
func (b *Builder) bean(name string) *BeanReport {
	i, ok := b.index[name]
	if !ok {
		i = len(b.report.Beans)
		b.index[name] = i
		b.report.Beans = append(b.report.Beans, BeanReport{Name: name})
	}
	return &b.report.Beans[i]
}

// Finish 合并验证结果并返回报告
// 结果中的每个 Bean 都会出现在报告中（按声明顺序），没有事件的 Bean 也不例外
func (b *Builder) Finish(result verifier.Result) *Report {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.finished {
		return b.report
	}
	b.finished = true

	beans := make([]BeanReport, 0, len(result.Beans))
	for _, br := range result.Beans {
		bean := BeanReport{Name: br.Name}
		if i, ok := b.index[br.Name]; ok {
			bean = b.report.Beans[i]
		}
		bean.Kind = br.Kind.String()
		bean.Verified = br.Verified
		beans = append(beans, bean)
	}
	b.report.Beans = beans
	b.report.Version = result.Version
	b.report.FinishedAt = b.now().UTC()
	return b.report
}

// ============================================================================
// 渲染
// ============================================================================

// WriteJSON 输出缩进的 JSON
func WriteJSON(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// WriteText 输出人类可读的文本
func WriteText(w io.Writer, r *Report) error {
	ew := &errWriter{w: w}
	ew.printf("%s (EJB %s, digest %s)\n", r.Archive, shortVersion(r.Version), shortDigest(r.Digest))
	verified := 0
	for _, b := range r.Beans {
		status := "FAIL"
		if b.Verified && len(b.Violations) == 0 {
			status = " OK "
			verified++
		}
		ew.printf("[%s] %s (%s)\n", status, b.Name, b.Kind)
		for _, v := range b.Violations {
			ew.printf("    %s  %s\n", v.Section, v.Message)
			if v.Method != "" {
				ew.printf("        method: %s\n", v.Method)
			}
		}
	}
	ew.printf("%d beans, %d verified, %d violations\n", len(r.Beans), verified, r.ViolationCount())
	return ew.err
}

func shortVersion(v string) string {
	if parsed, err := core.ParseVersion(v); err == nil {
		return parsed.Short()
	}
	return v
}

func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	if d == "" {
		return "-"
	}
	return d
}

// errWriter 记住第一个写入错误
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}
