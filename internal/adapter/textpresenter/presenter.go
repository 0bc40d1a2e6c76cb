package textpresenter

import (
	"fmt"
	"io"
	"os"

	"github.com/park285/age-of-ai-chess/pkg/uidto"
)

// Presenter writes formatted output without coupling to the command layer.
type Presenter struct {
	out       io.Writer
	formatter *Formatter
}

func NewPresenter(out io.Writer, formatter *Formatter) *Presenter {
	if out == nil {
		out = os.Stdout
	}
	if formatter == nil {
		formatter = NewFormatter(nil)
	}
	return &Presenter{out: out, formatter: formatter}
}

func (p *Presenter) State(st *uidto.State) error {
	_, err := io.WriteString(p.out, p.formatter.State(st))
	return err
}

func (p *Presenter) Themes(list []uidto.ThemeSummary) error {
	_, err := io.WriteString(p.out, p.formatter.Themes(list))
	return err
}

// Error prints an error line.
func (p *Presenter) Error(err error) {
	if err == nil {
		return
	}
	_, _ = fmt.Fprintf(p.out, "error: %v\n", err)
}

// Image saves png bytes to path and reports where they went.
func (p *Presenter) Image(path string, png []byte) error {
	if err := os.WriteFile(path, png, 0o644); err != nil {
		return fmt.Errorf("write image: %w", err)
	}
	_, err := fmt.Fprintf(p.out, "board written to %s (%d bytes)\n", path, len(png))
	return err
}
