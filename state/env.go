// Package state defines shared program state.
package state

import (
	"context"
	"time"

	"go.uber.org/zap"

	"respimg/config"
	"respimg/render"
	"respimg/site"
)

type envKey struct{}

// LocalEnv keeps everything program needs in a single place.
type LocalEnv struct {
	Cfg *config.Config
	Rpt *config.Report
	Log *zap.Logger

	// used by render subcommand
	Overwrite bool

	start         time.Time
	restoreStdLog func()
}

func EnvFromContext(ctx context.Context) *LocalEnv {
	if env, ok := ctx.Value(envKey{}).(*LocalEnv); ok {
		return env
	}
	// this should never happen
	panic("localenv not found in context")
}

func ContextWithEnv(ctx context.Context) context.Context {
	return context.WithValue(ctx, envKey{}, newLocalEnv())
}

func (e *LocalEnv) Uptime() time.Duration {
	return time.Since(e.start)
}

// NewPage starts render of a single page, generated CSS goes to styles.
func (e *LocalEnv) NewPage(page render.PageContext, styles render.StyleSink) *render.Page {
	return render.NewPage(e.Cfg, site.NewFS(&e.Cfg.Site), site.NewURLs(e.Cfg.Site.BaseURL), page, styles, e.Log)
}

func (e *LocalEnv) RedirectStdLog() {
	if e.Log == nil {
		return
	}
	e.restoreStdLog = zap.RedirectStdLog(e.Log)
}

func (e *LocalEnv) RestoreStdLog() {
	if e.Log != nil {
		_ = e.Log.Sync()
	}
	if e.restoreStdLog != nil {
		e.restoreStdLog()
	}
}

func newLocalEnv() *LocalEnv {
	return &LocalEnv{start: time.Now()}
}
