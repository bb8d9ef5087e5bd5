package main

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	"ejb-verifier/pkg/config"
	"ejb-verifier/pkg/deployer"
	"ejb-verifier/pkg/logger"
	"ejb-verifier/pkg/report/cache"
	"ejb-verifier/pkg/report/store"
)

// app 由配置组装出的运行组件
type app struct {
	cfg      *config.Config
	log      *zap.Logger
	store    *store.Store
	cache    cache.Cache
	deployer *deployer.Deployer
	closers  []func()
}

// newApp 读取配置并组装组件；override 在验证前修改配置（命令行参数优先）
func newApp(configPath string, stderr io.Writer, override func(*config.Config)) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if override != nil {
		override(cfg)
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	a := &app{cfg: cfg}
	if cfg.Log.File != "" {
		a.log, err = logger.New(cfg.Log)
	} else {
		a.log, err = logger.NewWithWriter(cfg.Log, stderr)
	}
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() { _ = a.log.Sync() })

	opts := []deployer.Option{deployer.WithLogger(a.log)}

	if cfg.Store.Enabled() {
		s, err := store.Open(cfg.Store.Driver, cfg.Store.DSN)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.store = s
		a.closers = append(a.closers, func() { _ = s.Close() })
		opts = append(opts, deployer.WithStore(s))
	}

	if cfg.Cache.RedisAddr != "" {
		rc, err := cache.NewRedis(cache.RedisOptions{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
			TTL:      cfg.Cache.TTL,
		})
		if err != nil {
			a.Close()
			return nil, err
		}
		a.cache = rc
		a.closers = append(a.closers, func() { _ = rc.Close() })
	} else {
		a.cache = cache.NewMemory()
	}
	opts = append(opts, deployer.WithCache(a.cache))

	a.deployer, err = deployer.New(cfg.Verifier, opts...)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("deployer: %w", err)
	}
	return a, nil
}

// Close 逆序释放资源
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
