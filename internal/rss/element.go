package rss

import "encoding/xml"

// Element is one node of a parsed XML document. Text holds the character
// data that appears before the first child element, matching how the
// diagnostic dump and the item fields read it.
type Element struct {
	Name     xml.Name
	Text     string
	Children []*Element
}

// Tag is the element name with its namespace URI in braces, or the bare
// local name when the element is not namespaced.
func (e *Element) Tag() string {
	if e.Name.Space == "" {
		return e.Name.Local
	}
	return "{" + e.Name.Space + "}" + e.Name.Local
}

// Find returns the first direct child with the given local name and no
// namespace.
func (e *Element) Find(local string) *Element {
	for _, c := range e.Children {
		if c.Name.Space == "" && c.Name.Local == local {
			return c
		}
	}
	return nil
}

func (e *Element) FindAll(local string) []*Element {
	var out []*Element
	for _, c := range e.Children {
		if c.Name.Space == "" && c.Name.Local == local {
			out = append(out, c)
		}
	}
	return out
}

// FindLocal returns the first direct child whose local name matches,
// whatever its namespace.
func (e *Element) FindLocal(local string) *Element {
	for _, c := range e.Children {
		if c.Name.Local == local {
			return c
		}
	}
	return nil
}

func (e *Element) ChildText(local string) string {
	if c := e.Find(local); c != nil {
		return c.Text
	}
	return ""
}
