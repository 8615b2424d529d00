package render

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// allowedTags survive sanitizing with their children. Other elements are
// unwrapped, except dropTags which disappear with their content.
var allowedTags = map[atom.Atom]bool{
	atom.P: true, atom.Br: true, atom.Strong: true, atom.B: true,
	atom.Em: true, atom.I: true, atom.U: true, atom.S: true,
	atom.Ul: true, atom.Ol: true, atom.Li: true, atom.Span: true,
	atom.Table: true, atom.Thead: true, atom.Tbody: true, atom.Tr: true,
	atom.Th: true, atom.Td: true, atom.A: true, atom.Code: true,
	atom.H3: true, atom.H4: true,
}

var dropTags = map[atom.Atom]bool{
	atom.Script: true, atom.Style: true, atom.Iframe: true, atom.Object: true,
	atom.Embed: true, atom.Form: true, atom.Input: true, atom.Button: true,
	atom.Textarea: true, atom.Select: true, atom.Noscript: true, atom.Template: true,
}

var allowedAttrs = map[atom.Atom][]string{
	atom.A:  {"href"},
	atom.Td: {"colspan", "rowspan"},
	atom.Th: {"colspan", "rowspan"},
}

// Sanitize keeps the formatting subset of a rich-text description and
// removes scripts, handlers and foreign attributes.
func Sanitize(fragment string) string {
	ctx := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), ctx)
	if err != nil {
		return html.EscapeString(fragment)
	}

	var buf bytes.Buffer
	for _, n := range nodes {
		for _, clean := range sanitizeNode(n) {
			if err := html.Render(&buf, clean); err != nil {
				return html.EscapeString(fragment)
			}
		}
	}
	return buf.String()
}

// sanitizeNode returns the nodes that replace n.
func sanitizeNode(n *html.Node) []*html.Node {
	switch n.Type {
	case html.TextNode:
		return []*html.Node{{Type: html.TextNode, Data: n.Data}}
	case html.ElementNode:
	default:
		return nil
	}

	if dropTags[n.DataAtom] {
		return nil
	}

	var children []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		children = append(children, sanitizeNode(c)...)
	}
	if !allowedTags[n.DataAtom] {
		return children
	}

	out := &html.Node{Type: html.ElementNode, Data: n.Data, DataAtom: n.DataAtom}
	for _, a := range n.Attr {
		if a.Namespace != "" || !allowedAttr(n.DataAtom, a.Key) {
			continue
		}
		if a.Key == "href" && !safeHref(a.Val) {
			continue
		}
		out.Attr = append(out.Attr, html.Attribute{Key: a.Key, Val: a.Val})
	}
	if n.DataAtom == atom.A {
		out.Attr = append(out.Attr,
			html.Attribute{Key: "target", Val: "_blank"},
			html.Attribute{Key: "rel", Val: "noopener noreferrer"},
		)
	}
	for _, c := range children {
		out.AppendChild(c)
	}
	return []*html.Node{out}
}

func allowedAttr(tag atom.Atom, key string) bool {
	for _, k := range allowedAttrs[tag] {
		if k == key {
			return true
		}
	}
	return false
}

func safeHref(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return strings.HasPrefix(v, "https://") ||
		strings.HasPrefix(v, "http://") ||
		strings.HasPrefix(v, "mailto:") ||
		strings.HasPrefix(v, "tel:")
}
