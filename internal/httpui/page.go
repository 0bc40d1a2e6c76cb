package httpui

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"sort"
	"strings"

	"github.com/park285/age-of-ai-chess/internal/theme"
	"github.com/park285/age-of-ai-chess/pkg/uidto"
)

//go:embed page.html.tmpl
var pageSource string

var pageTemplate = template.Must(template.New("page").Parse(pageSource))

type pageData struct {
	Theme   theme.Theme
	State   uidto.State
	LiveURL string
}

// RootVars renders the theme's css variables as a :root rule.
func (p pageData) RootVars() template.CSS {
	keys := make([]string, 0, len(p.Theme.CSSVars))
	for k := range p.Theme.CSSVars {
		if strings.HasPrefix(k, "--") {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString(":root{")
	for _, k := range keys {
		v := strings.NewReplacer("<", "", ">", "", "{", "", "}", "").Replace(p.Theme.CSSVars[k])
		fmt.Fprintf(&b, "%s:%s;", k, v)
	}
	b.WriteString("}")
	return template.CSS(b.String())
}

func (p pageData) Title() string {
	return strings.Join(p.Theme.Labels.Title, " ")
}

func renderPage(d pageData) ([]byte, error) {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, d); err != nil {
		return nil, fmt.Errorf("render page: %w", err)
	}
	return buf.Bytes(), nil
}
