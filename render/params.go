package render

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"
	"text/template"

	sprig "github.com/go-task/slim-sprig/v3"

	"respimg/css"
	"respimg/markup"
)

// Parameter names accepted by NewBackgroundParams.
const (
	ParamPath       = "path"
	ParamBaseWidth  = "base_width"
	ParamSizes      = "sizes"
	ParamProperties = "properties"
)

// NewBackgroundParams builds parameters from parameter map the way they are
// given in templates. Path is required, properties could be either a map
// or inline declarations text.
func NewBackgroundParams(m map[string]any) (BackgroundParams, error) {
	var params BackgroundParams

	v, ok := m[ParamPath]
	if !ok || v == nil {
		return params, fmt.Errorf("%w: %s", ErrMissingRequiredParameter, ParamPath)
	}
	path, ok := v.(string)
	if !ok {
		return params, fmt.Errorf("parameter %s must be a string, got %T", ParamPath, v)
	}
	if strings.TrimSpace(path) == "" {
		return params, fmt.Errorf("%w: %s is empty", ErrMissingRequiredParameter, ParamPath)
	}
	params.Path = path

	for _, name := range slices.Sorted(maps.Keys(m)) {
		v := m[name]
		switch name {
		case ParamPath:
		case ParamBaseWidth:
			w, err := toWidth(v)
			if err != nil {
				return params, fmt.Errorf("parameter %s: %w", name, err)
			}
			params.BaseWidth = w
		case ParamSizes:
			if v == nil {
				continue
			}
			s, ok := v.(string)
			if !ok {
				return params, fmt.Errorf("parameter %s must be a string, got %T", name, v)
			}
			params.Sizes = &s
		case ParamProperties:
			props, err := toProperties(v)
			if err != nil {
				return params, fmt.Errorf("parameter %s: %w", name, err)
			}
			params.Properties = props
		default:
			return params, fmt.Errorf("unknown parameter %q", name)
		}
	}
	return params, nil
}

// toWidth accepts numbers and numeric strings, nil means no width.
func toWidth(v any) (*int, error) {
	var w int
	switch n := v.(type) {
	case nil:
		return nil, nil
	case int:
		w = n
	case int64:
		w = int(n)
	case float64:
		if n != math.Trunc(n) {
			return nil, fmt.Errorf("width %v is not an integer", n)
		}
		w = int(n)
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return nil, fmt.Errorf("width %q is not a number", n)
		}
		w = i
	default:
		return nil, fmt.Errorf("unexpected width type %T", v)
	}
	if w <= 0 {
		return nil, fmt.Errorf("width %d must be positive", w)
	}
	return &w, nil
}

func toProperties(v any) (map[string]string, error) {
	switch p := v.(type) {
	case nil:
		return nil, nil
	case map[string]string:
		return maps.Clone(p), nil
	case map[string]any:
		props := make(map[string]string, len(p))
		for k, v := range p {
			props[k] = fmt.Sprint(v)
		}
		return props, nil
	case string:
		return css.NewParser(nil).ParseDeclarations(p)
	}
	return nil, fmt.Errorf("unexpected properties type %T", v)
}

func toAttributes(v any) (markup.Attributes, error) {
	switch a := v.(type) {
	case map[string]string:
		return markup.AttributesFromMap(a), nil
	case map[string]any:
		m := make(map[string]string, len(a))
		for k, v := range a {
			m[k] = fmt.Sprint(v)
		}
		return markup.AttributesFromMap(m), nil
	case markup.Attributes:
		return a, nil
	}
	return nil, fmt.Errorf("unexpected attributes type %T", v)
}

// FuncMap returns template functions bound to the page:
//
//	image_element PATH [BASE_WIDTH] [ATTRIBUTES]
//	background_image_class PATH [BASE_WIDTH [SIZES [PROPERTIES]]]
//	background_image_class_map PARAMS
//
// together with sprig functions (dict, list, etc.) to build arguments.
func (p *Page) FuncMap() template.FuncMap {
	funcMap := sprig.FuncMap()
	funcMap["image_element"] = p.imageElementFunc
	funcMap["background_image_class"] = p.backgroundImageClassFunc
	funcMap["background_image_class_map"] = func(m map[string]any) (string, error) {
		params, err := NewBackgroundParams(m)
		if err != nil {
			return "", err
		}
		return p.BackgroundImageClass(params)
	}
	return funcMap
}

func (p *Page) imageElementFunc(path string, args ...any) (string, error) {
	params := ImageParams{Path: path}
	if len(args) > 2 {
		return "", fmt.Errorf("image_element: too many arguments")
	}
	for _, arg := range args {
		switch arg.(type) {
		case map[string]string, map[string]any, markup.Attributes:
			attrs, err := toAttributes(arg)
			if err != nil {
				return "", fmt.Errorf("image_element: %w", err)
			}
			params.Attributes = attrs
		default:
			w, err := toWidth(arg)
			if err != nil {
				return "", fmt.Errorf("image_element: %w", err)
			}
			params.BaseWidth = w
		}
	}
	return p.ImageElement(params)
}

func (p *Page) backgroundImageClassFunc(path string, args ...any) (string, error) {
	m := map[string]any{ParamPath: path}
	names := []string{ParamBaseWidth, ParamSizes, ParamProperties}
	if len(args) > len(names) {
		return "", fmt.Errorf("background_image_class: too many arguments")
	}
	for i, arg := range args {
		m[names[i]] = arg
	}
	params, err := NewBackgroundParams(m)
	if err != nil {
		return "", fmt.Errorf("background_image_class: %w", err)
	}
	return p.BackgroundImageClass(params)
}
