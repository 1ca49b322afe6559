package interactive

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/kolah/oinkctl/internal/form"
	"github.com/kolah/oinkctl/internal/schema"
)

// ErrQuit is returned when the operator leaves the session.
var ErrQuit = errors.New("quit")

// Back is the choice returned when the operator goes up one level.
const Back = -1

// Terminal is a line-oriented prompter. It implements form.Prompter.
type Terminal struct {
	in  *bufio.Scanner
	out io.Writer
}

func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{in: bufio.NewScanner(in), out: out}
}

// ReadLine shows prompt and returns the next input line without its line
// terminator. io.EOF is returned once input is exhausted.
func (t *Terminal) ReadLine(prompt string) (string, error) {
	fmt.Fprint(t.out, prompt)
	if !t.in.Scan() {
		if err := t.in.Err(); err != nil {
			return "", err
		}
		fmt.Fprintln(t.out)
		return "", io.EOF
	}
	return strings.TrimRight(t.in.Text(), "\r"), nil
}

func (t *Terminal) Prompt(f form.Field) (string, error) {
	if f.Description != "" {
		fmt.Fprintf(t.out, "  # %s\n", f.Description)
	}
	var b strings.Builder
	b.WriteString(f.Name)
	switch {
	case f.Kind == schema.KindArray && f.ItemType != "":
		fmt.Fprintf(&b, " (list of %s, comma separated)", f.ItemType)
	case f.Type != "":
		fmt.Fprintf(&b, " (%s)", f.Type)
	}
	if f.Required {
		b.WriteString(" [required]")
	}
	if len(f.Enum) > 0 {
		fmt.Fprintf(&b, " {%s}", form.EnumList(f.Enum))
	}
	switch {
	case f.Current != nil:
		fmt.Fprintf(&b, " <%v>", f.Current)
	case f.Default != nil:
		fmt.Fprintf(&b, " <default: %v>", f.Default)
	}
	b.WriteString(": ")
	return t.ReadLine(b.String())
}

func (t *Terminal) Confirm(question string) (bool, error) {
	answer, err := t.ReadLine(question + " [y/N]: ")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

func (t *Terminal) Report(err error) {
	fmt.Fprintf(t.out, "  ! %v\n", err)
}

func (t *Terminal) Println(a ...any) {
	fmt.Fprintln(t.out, a...)
}

// Choose lists options and returns the index picked, Back, or ErrQuit.
func (t *Terminal) Choose(title string, options []string) (int, error) {
	for {
		fmt.Fprintf(t.out, "\n== %s ==\n", title)
		for i, opt := range options {
			fmt.Fprintf(t.out, "%3d) %s\n", i+1, opt)
		}
		answer, err := t.ReadLine(fmt.Sprintf("Select 1-%d, b=back, q=quit: ", len(options)))
		if err != nil {
			return 0, err
		}
		answer = strings.ToLower(strings.TrimSpace(answer))
		switch answer {
		case "q":
			return 0, ErrQuit
		case "b", "":
			return Back, nil
		}
		n, err := strconv.Atoi(answer)
		if err != nil || n < 1 || n > len(options) {
			t.Report(fmt.Errorf("%q is not a valid choice", answer))
			continue
		}
		return n - 1, nil
	}
}
