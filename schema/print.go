package schema

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// PrintOptions controls tree rendering.
type PrintOptions struct {
	ShowTypes    bool
	ShowRequired bool
}

var (
	choiceColor   = color.New(color.FgGreen)
	memberColor   = color.New(color.FgMagenta)
	requiredColor = color.New(color.FgCyan)
	noteColor     = color.New(color.FgBlue)
	typeColor     = color.New(color.FgGreen)
)

// PrintTree renders an operation's request shape as an indented tree, marking
// choice groups and, optionally, required fields and declared types. Used by
// the axldebug CLI to answer "what does this call want from me".
func PrintTree(w io.Writer, op *OperationSchema, opts PrintOptions) {
	printNode(w, op.Request, 0, opts)
}

// PrintResponseTree renders the response shape, when the schema declares one.
func PrintResponseTree(w io.Writer, op *OperationSchema, opts PrintOptions) {
	if op.Response == nil {
		fmt.Fprintf(w, "%s declares no response element\n", op.Name)
		return
	}
	printNode(w, op.Response, 0, opts)
}

func printNode(w io.Writer, f *FieldSpec, indent int, opts PrintOptions) {
	var branch string
	switch {
	case indent == 0:
		branch = ""
	case indent == 1:
		branch = "  ┗ "
	default:
		branch = strings.Repeat("  |", indent-1) + "  ┗ "
	}

	name := f.Name
	var notes []string
	if f.Kind == KindChoice {
		name = choiceColor.Sprint("[ choice ]")
		notes = append(notes, "(choose only one child)")
	} else if f.parent != nil && f.parent.Kind == KindChoice {
		name = memberColor.Sprint(f.Name)
	}

	if opts.ShowRequired && f.Kind != KindChoice && f.parent != nil {
		if f.Required && chainRequired(f) {
			name = requiredColor.Sprint(f.Name)
			notes = append(notes, noteColor.Sprint("(required)"))
		} else if f.Required {
			notes = append(notes, "(required if parent is used)")
		}
	}

	if opts.ShowTypes && f.Kind != KindChoice && f.parent != nil {
		t := f.Kind.String()
		if f.Repeated {
			t += ", repeated"
		}
		if f.Kind == KindEnum {
			t += " {" + strings.Join(f.Enum, "|") + "}"
		}
		notes = append(notes, typeColor.Sprintf("(%s)", t))
	}

	line := branch + name
	if len(notes) > 0 {
		line += " " + strings.Join(notes, " ")
	}
	fmt.Fprintln(w, line)

	for _, c := range f.Children {
		printNode(w, c, indent+1, opts)
	}
}

// chainRequired reports whether every ancestor up to the root is itself
// required, i.e. the field is unconditionally required for the operation.
func chainRequired(f *FieldSpec) bool {
	for n := f; n != nil; n = n.parent {
		if n.Kind == KindChoice {
			if !n.Required {
				return false
			}
			continue
		}
		if !n.Required {
			return false
		}
	}
	return true
}
