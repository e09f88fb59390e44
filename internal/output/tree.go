package output

import (
	"bytes"
	"io"
	"strings"

	"github.com/odysseus0/rssfeeder/internal/rss"
)

const textKey = "#text"

// Tree is the diagnostic rendering of an element: either a Text leaf or an
// *Object.
type Tree interface {
	isTree()
}

// Text is an element without children, rendered as its trimmed text.
type Text string

// Object is an element with children. Fields keep first-appearance order;
// a tag seen more than once renders as an array.
type Object struct {
	Fields []Field
	Text   string
}

type Field struct {
	Key    string
	Values []Tree
}

func (Text) isTree()    {}
func (*Object) isTree() {}

func BuildTree(el *rss.Element) Tree {
	text := strings.TrimSpace(el.Text)
	if len(el.Children) == 0 {
		return Text(text)
	}

	obj := &Object{Text: text}
	index := make(map[string]int, len(el.Children))
	for _, c := range el.Children {
		tag := c.Tag()
		sub := BuildTree(c)
		if i, ok := index[tag]; ok {
			obj.Fields[i].Values = append(obj.Fields[i].Values, sub)
			continue
		}
		index[tag] = len(obj.Fields)
		obj.Fields = append(obj.Fields, Field{Key: tag, Values: []Tree{sub}})
	}
	return obj
}

func (o *Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range o.Fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		var v any = f.Values[0]
		if len(f.Values) > 1 {
			v = f.Values
		}
		if err := writeMember(&buf, f.Key, v); err != nil {
			return nil, err
		}
	}
	if o.Text != "" {
		if len(o.Fields) > 0 {
			buf.WriteByte(',')
		}
		if err := writeMember(&buf, textKey, o.Text); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeMember(buf *bytes.Buffer, key string, v any) error {
	k, err := marshalCompact(key)
	if err != nil {
		return err
	}
	val, err := marshalCompact(v)
	if err != nil {
		return err
	}
	buf.Write(k)
	buf.WriteByte(':')
	buf.Write(val)
	return nil
}

// WriteTree prints the tree with the same JSON conventions as the output
// document.
func WriteTree(w io.Writer, t Tree) error {
	return newEncoder(w).Encode(t)
}
