package parser

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrMalformedDocument indicates the workbook XML could not be parsed.
var ErrMalformedDocument = errors.New("malformed workbook document")

// ErrNoWorkbook indicates a package holds no .twb document.
var ErrNoWorkbook = errors.New("no .twb document in package")

// Element is a parsed workbook XML element.
type Element struct {
	Name     xml.Name
	Attr     []xml.Attr
	Text     string
	Children []*Element
}

// Get returns the value of the un-prefixed attribute name, or "".
func (e *Element) Get(name string) string {
	v, _ := e.Lookup(name)
	return v
}

// Lookup returns the value of the un-prefixed attribute name and whether it exists.
func (e *Element) Lookup(name string) (string, bool) {
	for _, attr := range e.Attr {
		if attr.Name.Space == "" && attr.Name.Local == name {
			return attr.Value, true
		}
	}
	return "", false
}

// Document is a parsed workbook.
// Namespace is the root element's namespace URI ("" when none is declared);
// every lookup matches elements in that namespace only.
type Document struct {
	Root      *Element
	Namespace string
}

// ParseDocument parses workbook XML from r.
func ParseDocument(r io.Reader) (*Document, error) {
	decoder := xml.NewDecoder(r)

	var stack []*Element
	var root *Element

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
		}

		switch t := token.(type) {
		case xml.StartElement:
			el := &Element{Name: t.Name, Attr: append([]xml.Attr(nil), t.Attr...)}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("%w: multiple root elements", ErrMalformedDocument)
				}
				root = el
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, el)
			}
			stack = append(stack, el)
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].Text += string(t)
			}
		}
	}

	if root == nil {
		return nil, fmt.Errorf("%w: empty document", ErrMalformedDocument)
	}

	return &Document{Root: root, Namespace: root.Name.Space}, nil
}

func (d *Document) matches(e *Element, local string) bool {
	return e.Name.Local == local && e.Name.Space == d.Namespace
}

// FindAll returns every descendant of e named local, in document order.
func (d *Document) FindAll(e *Element, local string) []*Element {
	var result []*Element
	var walk func(*Element)
	walk = func(n *Element) {
		for _, c := range n.Children {
			if d.matches(c, local) {
				result = append(result, c)
			}
			walk(c)
		}
	}
	if e != nil {
		walk(e)
	}
	return result
}

// FindAllFunc returns every descendant of e in the document namespace whose
// local name satisfies match.
func (d *Document) FindAllFunc(e *Element, match func(local string) bool) []*Element {
	var result []*Element
	var walk func(*Element)
	walk = func(n *Element) {
		for _, c := range n.Children {
			if c.Name.Space == d.Namespace && match(c.Name.Local) {
				result = append(result, c)
			}
			walk(c)
		}
	}
	if e != nil {
		walk(e)
	}
	return result
}

// FindDescendant returns the first descendant of e named local.
func (d *Document) FindDescendant(e *Element, local string) *Element {
	if all := d.FindAll(e, local); len(all) > 0 {
		return all[0]
	}
	return nil
}

// Find returns the first direct child of e named local.
func (d *Document) Find(e *Element, local string) *Element {
	if e == nil {
		return nil
	}
	for _, c := range e.Children {
		if d.matches(c, local) {
			return c
		}
	}
	return nil
}

// FindChildren returns every direct child of e named local.
func (d *Document) FindChildren(e *Element, local string) []*Element {
	if e == nil {
		return nil
	}
	var result []*Element
	for _, c := range e.Children {
		if d.matches(c, local) {
			result = append(result, c)
		}
	}
	return result
}

// ChildText returns the text of the first direct child named local, or "".
func (d *Document) ChildText(e *Element, local string) string {
	if c := d.Find(e, local); c != nil {
		return c.Text
	}
	return ""
}

// LoadDocument parses a .twb file, or the first .twb inside a .twbx package.
func LoadDocument(path string) (*Document, error) {
	if strings.EqualFold(filepath.Ext(path), ".twbx") {
		r, err := zip.OpenReader(path)
		if err != nil {
			return nil, err
		}
		defer r.Close()

		data, err := readWorkbookEntry(&r.Reader)
		if err != nil {
			return nil, err
		}
		return ParseDocument(bytes.NewReader(data))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ParseDocument(f)
}

// readWorkbookEntry returns the content of the first .twb entry of a package.
func readWorkbookEntry(r *zip.Reader) ([]byte, error) {
	for _, f := range r.File {
		if strings.EqualFold(filepath.Ext(f.Name), ".twb") {
			return readZipFile(r, f.Name)
		}
	}
	return nil, ErrNoWorkbook
}

// ExtractPackage unpacks every entry of a .twbx package into dir and returns
// the written file paths.
func ExtractPackage(path, dir string) ([]string, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	base, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	var written []string
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}

		target := filepath.Join(base, filepath.FromSlash(f.Name))
		if !strings.HasPrefix(target, base+string(os.PathSeparator)) {
			return written, fmt.Errorf("package entry escapes target directory: %s", f.Name)
		}

		data, err := readZipFile(&r.Reader, f.Name)
		if err != nil {
			return written, err
		}
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return written, err
		}
		if err := os.WriteFile(target, data, 0644); err != nil {
			return written, err
		}
		written = append(written, target)
	}

	return written, nil
}

// Helper functions

func readZipFile(r *zip.Reader, name string) ([]byte, error) {
	for _, f := range r.File {
		if f.Name == name {
			rc, err := f.Open()
			if err != nil {
				return nil, err
			}
			defer rc.Close()
			return io.ReadAll(rc)
		}
	}
	return nil, nil
}
