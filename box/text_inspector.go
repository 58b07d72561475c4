package box

import (
	"fmt"
	"io"
	"strings"
)

type textFrame struct {
	isArray    bool
	arrayIndex int
	compact    bool
	fields     []string
}

// TextInspector renders a parsed tree as indented text (§4.7): two spaces
// per depth level, array elements prefixed with "(%8d)", and a
// "compact object" mode that joins its fields onto one line.
type TextInspector struct {
	w     io.Writer
	depth int
	stack []*textFrame
}

// NewTextInspector returns a TextInspector writing to w.
func NewTextInspector(w io.Writer) *TextInspector {
	return &TextInspector{w: w}
}

func (t *TextInspector) indent() string {
	return strings.Repeat("  ", t.depth)
}

// linePrefix computes the prefix for the next line to be written: the
// ordinary indent, unless the enclosing frame is an array, in which case
// it is the "(%8d)" element marker and the array's counter advances.
func (t *TextInspector) linePrefix() string {
	if len(t.stack) > 0 {
		top := t.stack[len(t.stack)-1]
		if top.isArray {
			p := fmt.Sprintf("%s(%8d) ", t.indent(), top.arrayIndex)
			top.arrayIndex++
			return p
		}
	}
	return t.indent()
}

func (t *TextInspector) writeLine(s string) {
	fmt.Fprintln(t.w, s)
}

// addField either writes "name: value" as its own line, or — inside a
// compact object — appends it to that object's pending single-line buffer.
func (t *TextInspector) addField(text string) {
	if len(t.stack) > 0 {
		top := t.stack[len(t.stack)-1]
		if top.compact {
			top.fields = append(top.fields, text)
			return
		}
	}
	t.writeLine(t.linePrefix() + text)
}

func (t *TextInspector) StartAtom(name string, isFull bool, version uint8, flags uint32, headerSize uint32, size uint64) error {
	line := fmt.Sprintf("%s[%s] size=%d+%d", t.linePrefix(), name, headerSize, size-uint64(headerSize))
	if isFull {
		line += fmt.Sprintf(", version=%d, flags=0x%06x", version, flags)
	}
	t.writeLine(line)
	t.depth++
	t.stack = append(t.stack, &textFrame{})
	return nil
}

func (t *TextInspector) EndAtom() error {
	t.depth--
	t.stack = t.stack[:len(t.stack)-1]
	return nil
}

func (t *TextInspector) StartDescriptor(name string, tag uint8, headerSize uint32, size uint32) error {
	line := fmt.Sprintf("%s<%s> tag=%#02x size=%d+%d", t.linePrefix(), name, tag, headerSize, size-headerSize)
	t.writeLine(line)
	t.depth++
	t.stack = append(t.stack, &textFrame{})
	return nil
}

func (t *TextInspector) EndDescriptor() error {
	t.depth--
	t.stack = t.stack[:len(t.stack)-1]
	return nil
}

func (t *TextInspector) StartArray(name string, n int) error {
	t.writeLine(fmt.Sprintf("%s%s[%d]:", t.linePrefix(), name, n))
	t.depth++
	t.stack = append(t.stack, &textFrame{isArray: true})
	return nil
}

func (t *TextInspector) EndArray() error {
	t.depth--
	t.stack = t.stack[:len(t.stack)-1]
	return nil
}

func (t *TextInspector) StartObject(name string, n int, compact bool) error {
	if compact {
		t.stack = append(t.stack, &textFrame{compact: true})
		return nil
	}
	if name != "" {
		t.writeLine(fmt.Sprintf("%s%s:", t.linePrefix(), name))
	}
	t.depth++
	t.stack = append(t.stack, &textFrame{})
	return nil
}

func (t *TextInspector) EndObject() error {
	top := t.stack[len(t.stack)-1]
	t.stack = t.stack[:len(t.stack)-1]
	if top.compact {
		t.writeLine(t.linePrefix() + strings.Join(top.fields, ", "))
		return nil
	}
	t.depth--
	return nil
}

func (t *TextInspector) AddString(name, value string) error {
	t.addField(fmt.Sprintf("%s: %s", name, value))
	return nil
}

func (t *TextInspector) AddUint(name string, value uint64, hex bool) error {
	if hex {
		t.addField(fmt.Sprintf("%s: %#x", name, value))
	} else {
		t.addField(fmt.Sprintf("%s: %d", name, value))
	}
	return nil
}

func (t *TextInspector) AddFloat(name string, value float64) error {
	t.addField(fmt.Sprintf("%s: %g", name, value))
	return nil
}

func (t *TextInspector) AddBytes(name string, value []byte) error {
	t.addField(fmt.Sprintf("%s: %x", name, value))
	return nil
}
