package selection

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"serialsync/internal/models"
)

// ErrNotInteractive indicates the prompt cannot be shown on a non-terminal input.
var ErrNotInteractive = errors.New("selection prompt needs an interactive terminal; pass --select instead")

const promptHelp = `Enter parts to fetch in the desired order: indexes or ranges ("3,1,2", "4-6"),
"all", "modified", or an empty line for none.`

// PromptSelector asks the operator on a terminal.
type PromptSelector struct {
	In         io.Reader
	Out        io.Writer
	TitleWidth int
}

// NewPromptSelector creates a prompt on the given streams.
func NewPromptSelector(in io.Reader, out io.Writer) *PromptSelector {
	return &PromptSelector{In: in, Out: out, TitleWidth: DefaultTitleWidth}
}

// Select implements Selector. Invalid input is reported and asked again; end of
// input selects nothing.
func (p *PromptSelector) Select(ctx context.Context, pub *models.Publication) ([]string, error) {
	fmt.Fprintf(p.Out, "%s (%d parts, %d modified)\n", pub.Title, len(pub.Parts), pub.ModifiedCount())
	fmt.Fprintln(p.Out, RenderParts(pub.Parts, p.TitleWidth))
	fmt.Fprintln(p.Out, promptHelp)

	scanner := bufio.NewScanner(p.In)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		fmt.Fprint(p.Out, "> ")

		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return nil, fmt.Errorf("failed to read selection: %w", err)
			}

			return nil, nil
		}

		refs, err := ParseExpression(scanner.Text(), pub.Parts)
		if err != nil {
			fmt.Fprintf(p.Out, "%v\n", err)

			continue
		}

		return refs, nil
	}
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}

	fd := f.Fd()

	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
