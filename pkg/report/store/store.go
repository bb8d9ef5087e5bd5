// Package store 基于 gorm 的验证报告持久化
package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"ejb-verifier/pkg/report"
)

var (
	// ErrNotFound 报告不存在
	ErrNotFound = errors.New("report not found")
	// ErrUnknownDriver 不支持的数据库驱动
	ErrUnknownDriver = errors.New("unknown database driver")
	// ErrUnavailable 存储未初始化
	ErrUnavailable = errors.New("report store unavailable")
)

// DefaultListLimit List 未指定数量时的上限
const DefaultListLimit = 50

// Store 报告仓库
type Store struct {
	db *gorm.DB
}

// Open 按驱动名打开数据库并迁移表结构
// driver: sqlite | mysql | postgres
func Open(driver, dsn string) (*Store, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite", "sqlite3":
		dialector = sqlite.Open(dsn)
	case "mysql":
		dialector = mysql.Open(dsn)
	case "postgres", "postgresql":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	s := New(db)
	if err := s.AutoMigrate(); err != nil {
		return nil, err
	}
	return s, nil
}

// New 包装已有连接
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// AutoMigrate 创建或更新表结构
func (s *Store) AutoMigrate() error {
	if s.db == nil {
		return ErrUnavailable
	}
	return s.db.AutoMigrate(&ReportModel{}, &BeanModel{}, &ViolationModel{})
}

// Close 关闭底层连接
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Save 保存报告（报告、Bean、违规在同一事务中写入）
func (s *Store) Save(ctx context.Context, r *report.Report) error {
	if s.db == nil {
		return ErrUnavailable
	}
	if r == nil || r.ID == "" {
		return errors.New("report id is required")
	}
	model := toModel(r)
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&model).Error
	})
}

// Get 按 ID 读取报告
func (s *Store) Get(ctx context.Context, id string) (*report.Report, error) {
	if s.db == nil {
		return nil, ErrUnavailable
	}
	var model ReportModel
	err := s.preload(s.db.WithContext(ctx)).Where("id = ?", id).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return fromModel(&model), nil
}

// LatestByDigest 同一内容最近一次的报告
func (s *Store) LatestByDigest(ctx context.Context, digest string) (*report.Report, error) {
	if s.db == nil {
		return nil, ErrUnavailable
	}
	var model ReportModel
	err := s.preload(s.db.WithContext(ctx)).
		Where("digest = ?", digest).
		Order("started_at desc").
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: digest %s", ErrNotFound, digest)
	}
	if err != nil {
		return nil, err
	}
	return fromModel(&model), nil
}

// List 最近的报告，archive 为空时不过滤；limit <= 0 时使用 DefaultListLimit
func (s *Store) List(ctx context.Context, archive string, limit int) ([]*report.Report, error) {
	if s.db == nil {
		return nil, ErrUnavailable
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	q := s.preload(s.db.WithContext(ctx))
	if archive != "" {
		q = q.Where("archive = ?", archive)
	}
	var models []ReportModel
	if err := q.Order("started_at desc").Limit(limit).Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]*report.Report, 0, len(models))
	for i := range models {
		out = append(out, fromModel(&models[i]))
	}
	return out, nil
}

func (s *Store) preload(q *gorm.DB) *gorm.DB {
	byPosition := func(db *gorm.DB) *gorm.DB { return db.Order("position") }
	return q.Preload("Beans", byPosition).Preload("Violations", byPosition)
}

// ============================================================================
// 模型转换
// ============================================================================

func toModel(r *report.Report) ReportModel {
	m := ReportModel{
		ID:         r.ID,
		Archive:    r.Archive,
		Digest:     r.Digest,
		Version:    r.Version,
		Passed:     r.Passed(),
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
	}
	pos := 0
	for i, b := range r.Beans {
		m.Beans = append(m.Beans, BeanModel{
			ReportID: r.ID,
			Position: i,
			Name:     b.Name,
			Kind:     b.Kind,
			Verified: b.Verified,
		})
		for _, v := range b.Violations {
			m.Violations = append(m.Violations, ViolationModel{
				ReportID: r.ID,
				Bean:     b.Name,
				Position: pos,
				Section:  v.Section,
				Info:     v.Info,
				Message:  v.Message,
				Method:   v.Method,
			})
			pos++
		}
	}
	return m
}

func fromModel(m *ReportModel) *report.Report {
	r := &report.Report{
		ID:         m.ID,
		Archive:    m.Archive,
		Digest:     m.Digest,
		Version:    m.Version,
		StartedAt:  m.StartedAt,
		FinishedAt: m.FinishedAt,
		Beans:      make([]report.BeanReport, 0, len(m.Beans)),
	}
	index := make(map[string]int, len(m.Beans))
	for _, b := range m.Beans {
		index[b.Name] = len(r.Beans)
		r.Beans = append(r.Beans, report.BeanReport{Name: b.Name, Kind: b.Kind, Verified: b.Verified})
	}
	for _, v := range m.Violations {
		i, ok := index[v.Bean]
		if !ok {
			index[v.Bean] = len(r.Beans)
			i = len(r.Beans)
			r.Beans = append(r.Beans, report.BeanReport{Name: v.Bean})
		}
		r.Beans[i].Violations = append(r.Beans[i].Violations, report.Violation{
			Section: v.Section,
			Info:    v.Info,
			Message: v.Message,
			Method:  v.Method,
		})
	}
	return r
}
