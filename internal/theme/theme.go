package theme

import (
	"embed"
	"errors"
	"fmt"
	"image/color"
	"io/fs"
	"os"
	"strconv"
	"strings"

	yaml "gopkg.in/yaml.v3"
)

//go:embed themes.yaml
var defaultFiles embed.FS

var (
	ErrUnknownTheme = errors.New("unknown theme")
	ErrBadColor     = errors.New("unsupported color")
)

type StatLabels struct {
	Prob        string `yaml:"prob" json:"prob"`
	Resources   string `yaml:"resources" json:"resources"`
	Latency     string `yaml:"latency" json:"latency"`
	Moves       string `yaml:"moves" json:"moves"`
	Engine      string `yaml:"engine" json:"engine"`
	EngineValue string `yaml:"engine_value" json:"engineValue"`
}

type Labels struct {
	Title          []string   `yaml:"title" json:"title"`
	Subtitle       string     `yaml:"subtitle" json:"subtitle"`
	LogTitle       string     `yaml:"log_title" json:"logTitle"`
	MetricsTitle   string     `yaml:"metrics_title" json:"metricsTitle"`
	StatusLabel    string     `yaml:"status_label" json:"statusLabel"`
	CapturedTop    string     `yaml:"captured_top" json:"capturedTop"`
	CapturedBottom string     `yaml:"captured_bottom" json:"capturedBottom"`
	ResetButton    string     `yaml:"reset_button" json:"resetButton"`
	Footer         string     `yaml:"footer" json:"footer"`
	Stats          StatLabels `yaml:"stats" json:"stats"`
}

// Theme is pure presentation data: colours, glyphs, labels and flavor lines.
type Theme struct {
	ID           string            `yaml:"id"`
	Name         string            `yaml:"name"`
	Icon         string            `yaml:"icon"`
	Description  string            `yaml:"description"`
	CSSVars      map[string]string `yaml:"css_vars"`
	Fonts        []string          `yaml:"fonts"`
	Pieces       map[string]string `yaml:"pieces"`
	Labels       Labels            `yaml:"labels"`
	FlavorText   []string          `yaml:"flavor_text"`
	InitMessages []string          `yaml:"init_messages"`
}

// Glyph returns the symbol for a two-letter piece code such as "wq".
func (t Theme) Glyph(code string) string {
	return t.Pieces[code]
}

// Flavor returns the i-th flavor line, wrapping around.
func (t Theme) Flavor(i int) string {
	if len(t.FlavorText) == 0 {
		return ""
	}
	if i < 0 {
		i = -i
	}
	return t.FlavorText[i%len(t.FlavorText)]
}

// Color parses a css variable of the theme, returning fallback when absent or unparsable.
func (t Theme) Color(name string, fallback color.NRGBA) color.NRGBA {
	raw, ok := t.CSSVars[name]
	if !ok {
		return fallback
	}
	c, err := ParseColor(raw)
	if err != nil {
		return fallback
	}
	return c
}

type file struct {
	Default string  `yaml:"default"`
	Themes  []Theme `yaml:"themes"`
}

// Registry holds the loaded themes in declaration order.
type Registry struct {
	order       []string
	byID        map[string]Theme
	defaultName string
}

// Load reads the embedded theme table, or path when non-empty.
func Load(path string) (*Registry, error) {
	var (
		raw []byte
		err error
	)
	if strings.TrimSpace(path) != "" {
		raw, err = os.ReadFile(path)
	} else {
		raw, err = fs.ReadFile(defaultFiles, "themes.yaml")
	}
	if err != nil {
		return nil, fmt.Errorf("read themes: %w", err)
	}
	return parse(raw)
}

func parse(raw []byte) (*Registry, error) {
	var f file
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse themes: %w", err)
	}
	if len(f.Themes) == 0 {
		return nil, errors.New("no themes defined")
	}
	r := &Registry{byID: make(map[string]Theme, len(f.Themes))}
	for _, t := range f.Themes {
		id := strings.ToLower(strings.TrimSpace(t.ID))
		if id == "" {
			return nil, errors.New("theme without id")
		}
		if _, dup := r.byID[id]; dup {
			return nil, fmt.Errorf("duplicate theme %q", id)
		}
		t.ID = id
		r.byID[id] = t
		r.order = append(r.order, id)
	}
	r.defaultName = strings.ToLower(strings.TrimSpace(f.Default))
	if _, ok := r.byID[r.defaultName]; !ok {
		r.defaultName = r.order[0]
	}
	return r, nil
}

func (r *Registry) Get(id string) (Theme, error) {
	t, ok := r.byID[strings.ToLower(strings.TrimSpace(id))]
	if !ok {
		return Theme{}, fmt.Errorf("%w: %q", ErrUnknownTheme, id)
	}
	return t, nil
}

// Resolve returns the named theme, or the default when id is unknown or empty.
func (r *Registry) Resolve(id string) Theme {
	if t, err := r.Get(id); err == nil {
		return t
	}
	return r.byID[r.defaultName]
}

func (r *Registry) Default() Theme { return r.byID[r.defaultName] }

// SetDefault changes the fallback theme.
func (r *Registry) SetDefault(id string) error {
	t, err := r.Get(id)
	if err != nil {
		return err
	}
	r.defaultName = t.ID
	return nil
}

func (r *Registry) IDs() []string {
	return append([]string(nil), r.order...)
}

func (r *Registry) All() []Theme {
	out := make([]Theme, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// ParseColor understands "#rgb", "#rrggbb" and "rgba(r, g, b, a)" / "rgb(r, g, b)".
func ParseColor(s string) (color.NRGBA, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch {
	case strings.HasPrefix(v, "#"):
		return parseHex(v[1:])
	case strings.HasPrefix(v, "rgba(") && strings.HasSuffix(v, ")"):
		return parseFunc(v[len("rgba("):len(v)-1], 4)
	case strings.HasPrefix(v, "rgb(") && strings.HasSuffix(v, ")"):
		return parseFunc(v[len("rgb("):len(v)-1], 3)
	}
	return color.NRGBA{}, fmt.Errorf("%w: %q", ErrBadColor, s)
}

func parseHex(h string) (color.NRGBA, error) {
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return color.NRGBA{}, fmt.Errorf("%w: #%s", ErrBadColor, h)
	}
	n, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("%w: #%s", ErrBadColor, h)
	}
	return color.NRGBA{R: uint8(n >> 16), G: uint8(n >> 8), B: uint8(n), A: 255}, nil
}

func parseFunc(body string, want int) (color.NRGBA, error) {
	parts := strings.Split(body, ",")
	if len(parts) != want {
		return color.NRGBA{}, fmt.Errorf("%w: %q", ErrBadColor, body)
	}
	var ch [3]uint8
	for i := 0; i < 3; i++ {
		n, err := strconv.Atoi(strings.TrimSpace(parts[i]))
		if err != nil || n < 0 || n > 255 {
			return color.NRGBA{}, fmt.Errorf("%w: %q", ErrBadColor, body)
		}
		ch[i] = uint8(n)
	}
	alpha := uint8(255)
	if want == 4 {
		a, err := strconv.ParseFloat(strings.TrimSpace(parts[3]), 64)
		if err != nil || a < 0 || a > 1 {
			return color.NRGBA{}, fmt.Errorf("%w: %q", ErrBadColor, body)
		}
		alpha = uint8(a*255 + 0.5)
	}
	return color.NRGBA{R: ch[0], G: ch[1], B: ch[2], A: alpha}, nil
}
