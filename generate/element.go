// Package generate implements program subcommands producing responsive
// image markup and stylesheets.
package generate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"respimg/markup"
	"respimg/render"
	"respimg/site"
	"respimg/state"
)

// pageContext returns page path patterns are resolved for, either the one
// template file belongs to or top of pages directory.
func pageContext(env *state.LocalEnv, file string) (*site.Page, error) {
	if len(file) > 0 {
		return site.PageFor(&env.Cfg.Site, file)
	}
	return site.NewPage(filepath.Join(env.Cfg.Site.Root, env.Cfg.Site.PagesDir), "/"), nil
}

func patternArg(cmd *cli.Command, log *zap.Logger) (string, error) {
	pattern := cmd.Args().Get(0)
	if len(pattern) == 0 {
		return "", errors.New("no image path pattern has been specified")
	}
	if cmd.Args().Len() > 1 {
		log.Warn("Malformed command line, too many patterns", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}
	return pattern, nil
}

func baseWidth(cmd *cli.Command) *int {
	if !cmd.IsSet("base-width") {
		return nil
	}
	w := int(cmd.Int("base-width"))
	return &w
}

// parseAttributes parses name=value pairs keeping their order.
func parseAttributes(pairs []string) (markup.Attributes, error) {
	attrs := make(markup.Attributes, 0, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || len(name) == 0 {
			return nil, fmt.Errorf("malformed attribute %q, expected NAME=VALUE", pair)
		}
		attrs = append(attrs, markup.Attribute{Name: name, Value: value})
	}
	return attrs, nil
}

// RunImage outputs <img> or <picture> element for path pattern.
func RunImage(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("image")

	pattern, err := patternArg(cmd, log)
	if err != nil {
		return err
	}
	attrs, err := parseAttributes(cmd.StringSlice("attr"))
	if err != nil {
		return err
	}
	pc, err := pageContext(env, cmd.String("page"))
	if err != nil {
		return err
	}

	var styles site.Styles
	elem, err := env.NewPage(pc, &styles).ImageElement(render.ImageParams{
		Path:       pattern,
		BaseWidth:  baseWidth(cmd),
		Attributes: attrs,
	})
	if err != nil {
		return err
	}
	log.Debug("Image element generated", zap.String("pattern", pattern), zap.String("route", pc.Route()))

	if env.Rpt != nil {
		env.Rpt.StoreData("output/image.html", []byte(elem))
	}
	_, err = fmt.Fprintln(os.Stdout, elem)
	return err
}

// RunBackground outputs stylesheet for background image class generated
// for path pattern.
func RunBackground(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("background")

	pattern, err := patternArg(cmd, log)
	if err != nil {
		return err
	}
	pc, err := pageContext(env, cmd.String("page"))
	if err != nil {
		return err
	}

	var styles site.Styles
	page := env.NewPage(pc, &styles)

	params := render.BackgroundParams{Path: pattern, BaseWidth: baseWidth(cmd)}
	if cmd.IsSet("sizes") {
		sizes := cmd.String("sizes")
		params.Sizes = &sizes
	}
	if props := cmd.String("properties"); len(props) > 0 {
		if params.Properties, err = page.ParseProperties(props); err != nil {
			return err
		}
	}

	class, err := page.BackgroundImageClass(params)
	if err != nil {
		return err
	}
	log.Info("Background image class generated", zap.String("class", class), zap.String("pattern", pattern))

	if env.Rpt != nil {
		env.Rpt.StoreData("output/background.css", []byte(styles.CSS()))
	}
	_, err = fmt.Fprint(os.Stdout, styles.CSS())
	return err
}
