package generate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"text/template"
	"time"

	"github.com/fsnotify/fsnotify"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"respimg/site"
	"respimg/state"
)

// settle is how long file system has to be quiet before page is rendered
// again in watch mode.
const settle = 300 * time.Millisecond

// RunPage renders page template making image_element and
// background_image_class functions available to it. Generated CSS is
// injected into page head.
func RunPage(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("render")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no page template has been specified")
	}
	if src, err = filepath.Abs(src); err != nil {
		return err
	}
	dst := cmd.Args().Get(1)
	if len(dst) > 0 {
		if dst, err = filepath.Abs(dst); err != nil {
			return err
		}
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}
	env.Overwrite = cmd.Bool("overwrite")

	if len(dst) > 0 && !env.Overwrite {
		if _, err := os.Stat(dst); err == nil {
			return fmt.Errorf("output file already exists: %s", dst)
		}
	}

	if err := renderPage(env, log, src, dst); err != nil {
		return err
	}
	if !cmd.Bool("watch") {
		return nil
	}
	return watch(ctx, env, log, src, dst)
}

func renderPage(env *state.LocalEnv, log *zap.Logger, src, dst string) error {
	start := time.Now()

	pc, err := site.PageFor(&env.Cfg.Site, src)
	if err != nil {
		return err
	}
	text, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("unable to read page template: %w", err)
	}

	var styles site.Styles
	page := env.NewPage(pc, &styles)

	tmpl, err := template.New(filepath.Base(src)).Funcs(page.FuncMap()).Parse(string(text))
	if err != nil {
		return fmt.Errorf("unable to parse page template %s: %w", src, err)
	}
	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, nil); err != nil {
		return fmt.Errorf("unable to render page %s: %w", src, err)
	}
	out := []byte(styles.Inject(buf.String()))

	if env.Rpt != nil {
		env.Rpt.StoreData("output/"+filepath.Base(src), out)
	}
	if len(dst) == 0 {
		_, err = os.Stdout.Write(out)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}
	if err := os.WriteFile(dst, out, 0644); err != nil {
		return fmt.Errorf("unable to write page: %w", err)
	}
	log.Info("Page rendered", zap.String("route", pc.Route()), zap.String("to", dst), zap.Duration("elapsed", time.Since(start)))
	return nil
}

// watchDirs returns directories changes in which may affect rendered page.
func watchDirs(env *state.LocalEnv, src string) []string {
	dirs := []string{filepath.Dir(src), filepath.Join(env.Cfg.Site.Root, env.Cfg.Site.PagesDir)}
	fs := site.NewFS(&env.Cfg.Site)
	for name := range env.Cfg.Site.Streams {
		if dir, err := fs.ResolveNamedResource(name); err == nil {
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

// watch renders page again every time template or images change until
// context is cancelled. Render errors are logged, not fatal.
func watch(ctx context.Context, env *state.LocalEnv, log *zap.Logger, src, dst string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file system watcher: %w", err)
	}
	defer w.Close()

	seen := make(map[string]struct{})
	for _, dir := range watchDirs(env, src) {
		dir = filepath.Clean(dir)
		if _, ok := seen[dir]; ok {
			continue
		}
		seen[dir] = struct{}{}
		if err := w.Add(dir); err != nil {
			log.Warn("Unable to watch directory", zap.String("dir", dir), zap.Error(err))
			continue
		}
		log.Debug("Watching directory", zap.String("dir", dir))
	}
	log.Info("Watching for changes, interrupt to stop", zap.String("page", src))

	// timer fires once events stop arriving
	timer := time.NewTimer(settle)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("Stopped watching", zap.String("page", src))
			return nil

		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if event.Name == dst || !event.Has(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) {
				continue
			}
			log.Debug("Change detected", zap.String("file", event.Name), zap.Stringer("op", event.Op))
			timer.Reset(settle)

		case <-timer.C:
			if err := renderPage(env, log, src, dst); err != nil {
				log.Error("Unable to render page", zap.Error(err))
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("Watcher error", zap.Error(err))
		}
	}
}
