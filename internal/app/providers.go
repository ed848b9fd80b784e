package app

import (
	"context"

	"bodycomp/internal/config"
)

// appBuilderDeps 让 wire 注入器只依赖 Build，测试可替换实现。
type appBuilderDeps interface {
	Build(context.Context) (*App, error)
}

func provideAppFromBuilder(b appBuilderDeps, ctx context.Context) (*App, error) {
	return b.Build(ctx)
}

func provideAppBuilder(cfg *config.Config) *AppBuilder {
	return NewAppBuilder(cfg)
}
