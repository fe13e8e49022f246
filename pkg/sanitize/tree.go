package sanitize

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// collect returns the descendants of root matching keep, in document order.  The result is a
// snapshot, callers may detach nodes while iterating it.
func collect(root *html.Node, keep func(*html.Node) bool) []*html.Node {
	var nodes []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if keep(c) {
				nodes = append(nodes, c)
			}
			walk(c)
		}
	}
	walk(root)
	return nodes
}

// children returns a snapshot of the direct children of n.
func children(n *html.Node) []*html.Node {
	var kids []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		kids = append(kids, c)
	}
	return kids
}

// attached reports whether n is still a descendant of root.
func attached(n, root *html.Node) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if p == root {
			return true
		}
	}
	return false
}

func isElement(n *html.Node) bool { return n.Type == html.ElementNode }

func isComment(n *html.Node) bool { return n.Type == html.CommentNode }

func isStyleElement(n *html.Node) bool {
	return n.Type == html.ElementNode && n.Namespace == "" && n.DataAtom == atom.Style
}

func tagName(n *html.Node) string {
	return strings.ToLower(n.Data)
}

// attrName returns the qualified name of an attribute, eg. xlink:href.
func attrName(a html.Attribute) string {
	if a.Namespace == "" {
		return strings.ToLower(a.Key)
	}
	return strings.ToLower(a.Namespace + ":" + a.Key)
}

// rawText reports whether the element holds unparsed text that must never be promoted into the
// surrounding markup.
func rawText(n *html.Node) bool {
	if n.Namespace != "" {
		return false
	}
	switch n.DataAtom {
	case atom.Script, atom.Style, atom.Xmp, atom.Iframe, atom.Noembed, atom.Noframes,
		atom.Noscript, atom.Plaintext:
		return true
	}
	return false
}

// structural reports whether the element is part of the document skeleton.
func structural(n *html.Node) bool {
	if n.Namespace != "" {
		return false
	}
	switch n.DataAtom {
	case atom.Html, atom.Head, atom.Body:
		return true
	}
	return false
}

// textContent concatenates the text children of n.
func textContent(n *html.Node) string {
	b := &strings.Builder{}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return b.String()
}

// setText replaces the children of n with a single text node.
func setText(n *html.Node, text string) {
	for _, c := range children(n) {
		n.RemoveChild(c)
	}
	if text != "" {
		n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	}
}

// unwrap replaces n with its children.
func unwrap(n *html.Node) []*html.Node {
	kids := children(n)
	for _, c := range kids {
		n.RemoveChild(c)
		n.Parent.InsertBefore(c, n)
	}
	n.Parent.RemoveChild(n)
	return kids
}
