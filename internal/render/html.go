// Package render turns an assembled document into HTML, Markdown or
// terminal text. Renderers only read the document.
package render

import (
	"bytes"
	"fmt"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/starford/procforge/internal/document"
)

const printCSS = `
body { font-family: -apple-system, "Segoe UI", sans-serif; color: #1d1d1f; margin: 0; }
.cover-page { min-height: 100vh; display: flex; flex-direction: column; align-items: center; justify-content: center; page-break-after: always; }
.cover-logo img { max-width: 200px; max-height: 120px; }
.cover-title { font-size: 2.5rem; font-weight: 700; color: #007aff; }
.header-cartouche, .print-fixed-header { display: flex; gap: 24px; border-bottom: 2px solid #007aff; padding: 8px 40px; font-size: 0.8rem; }
.print-fixed-header { display: none; }
main { padding: 40px; }
.preview-section h2 { color: #007aff; border-bottom: 1px solid #e5e5e7; }
.step-card { border: 1px solid #e5e5e7; border-radius: 8px; margin: 16px 0; padding: 16px; }
.empty { color: #8e8e93; font-style: italic; }
.badge { color: white; padding: 2px 8px; border-radius: 12px; font-weight: 600; }
@media print {
  .print-fixed-header { display: flex; position: fixed; top: 0; left: 0; right: 0; background: white; }
  .cover-page { position: relative; z-index: 2; background: white; }
}
`

// HTML renders doc as a standalone printable page. The running header is
// emitted once as a fixed print block, hidden behind the cover page.
func HTML(doc document.Document) ([]byte, error) {
	return renderTree(buildPage(doc, true))
}

func renderTree(root *html.Node) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("<!DOCTYPE html>\n")
	if err := html.Render(&buf, root); err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}
	return buf.Bytes(), nil
}

// buildPage builds the node tree of doc. Without chrome the head, the
// running header and the logo are left out.
func buildPage(doc document.Document, chrome bool) *html.Node {
	root := elem(atom.Html, "lang", "fr")
	if chrome {
		head := add(root, elem(atom.Head))
		add(head, elem(atom.Meta, "charset", "utf-8"))
		add(add(head, elem(atom.Title)), text(doc.Header.FullTitle))
		add(add(head, elem(atom.Style)), text(printCSS))
	}

	body := add(root, elem(atom.Body))
	add(body, cover(doc.Cover, chrome))
	if chrome {
		add(body, runningHeader(doc.Header))
	}

	content := add(body, elem(atom.Main))
	add(content, cartouche(doc.Cartouche))
	for _, s := range doc.Sections {
		add(content, section(s))
	}

	footer := add(body, elem(atom.Footer, "class", "document-footer"))
	for _, line := range doc.Footer.Lines {
		add(add(footer, elem(atom.P)), text(line))
	}
	return root
}

func cover(c document.Cover, withLogo bool) *html.Node {
	n := elem(atom.Section, "class", "cover-page")
	if withLogo && c.Logo != nil {
		logo := add(n, elem(atom.Div, "class", "cover-logo"))
		add(logo, elem(atom.Img, "src", *c.Logo, "alt", "Logo de la procédure"))
	}
	add(add(n, elem(atom.Div, "class", "cover-title")), text(c.Heading))
	add(add(n, elem(atom.H1, "class", "cover-subtitle")), text(c.Title))
	meta := add(n, elem(atom.Dl, "class", "cover-meta"))
	metaItem(meta, "Version", "v"+c.Version)
	metaItem(meta, "Auteur", c.Author)
	metaItem(meta, "Date", c.Date)
	return n
}

func runningHeader(h document.Header) *html.Node {
	n := elem(atom.Header, "class", "print-fixed-header")
	headerItem(n, "Procédure", h.Title, h.FullTitle)
	headerItem(n, "Référence", h.Reference, "")
	headerItem(n, "Version", "v"+h.Version, "")
	headerItem(n, "Date", h.Date, "")
	headerItem(n, "Modifié par", h.LastModifier, h.FullLastModifier)
	return n
}

func headerItem(parent *html.Node, label, value, full string) {
	item := add(parent, elem(atom.Div, "class", "header-item"))
	add(add(item, elem(atom.Span, "class", "header-label")), text(label))
	v := elem(atom.Span, "class", "header-value")
	if full != "" {
		v.Attr = append(v.Attr, html.Attribute{Key: "title", Val: full})
	}
	add(add(item, v), text(value))
}

func cartouche(c document.Cartouche) *html.Node {
	n := elem(atom.Div, "class", "header-cartouche")
	headerItem(n, "Référence", c.Reference, "")
	headerItem(n, "Version", "v"+c.Version, "")
	headerItem(n, "Date", c.Date, "")
	headerItem(n, "Validé par", c.Validator, "")
	return n
}

func section(s document.Section) *html.Node {
	n := elem(atom.Section, "class", "preview-section", "id", string(s.Kind))
	add(add(n, elem(atom.H2)), text(s.Heading))

	switch {
	case s.Objective != nil:
		add(add(n, elem(atom.H3)), text("Objectif"))
		add(add(n, elem(atom.P)), text(s.Objective.Objective))
		add(add(n, elem(atom.H3)), text("Portée"))
		cards(n, s.Objective.Scope)
	case s.Prerequisites != nil:
		for _, c := range s.Prerequisites.Categories {
			checklist(n, atom.H3, c)
		}
	case s.Steps != nil:
		if s.Steps.Empty {
			add(add(n, elem(atom.P, "class", "empty")), text(s.Steps.EmptyMessage))
		}
		for _, st := range s.Steps.Steps {
			add(n, step(st))
		}
	case s.History != nil:
		history(n, s.History)
	case s.Contact != nil:
		cards(n, s.Contact.Cards)
	}
	return n
}

func step(st document.StepBlock) *html.Node {
	n := elem(atom.Div, "class", "step-card")
	add(add(n, elem(atom.H3)), text(st.Title))
	cards(n, st.Cards)
	for _, a := range st.Actions {
		action := add(n, elem(atom.Div, "class", "action-card"))
		add(add(action, elem(atom.H4)), text(a.Title))
		for _, sc := range a.Scenarios {
			scenario := add(action, elem(atom.Div, "class", "scenario"))
			add(add(scenario, elem(atom.H5)), text(sc.Condition))
			ol := add(scenario, elem(atom.Ol))
			for _, line := range sc.Steps {
				add(add(ol, elem(atom.Li)), text(line))
			}
		}
	}
	if st.Controls != nil {
		checklist(n, atom.H4, *st.Controls)
	}
	if st.Result != "" {
		res := add(n, elem(atom.Div, "class", "step-result"))
		add(add(res, elem(atom.H4)), text("Résultat attendu :"))
		add(add(res, elem(atom.P)), text(st.Result))
	}
	return n
}

func history(parent *html.Node, h *document.HistorySection) {
	if len(h.Rows) == 0 {
		add(add(parent, elem(atom.P, "class", "empty")), text(h.EmptyMessage))
		return
	}
	table := add(parent, elem(atom.Table, "class", "version-table"))
	tr := add(add(table, elem(atom.Thead)), elem(atom.Tr))
	for _, col := range []string{"Version", "Auteur", "Date", "Type", "Commentaire"} {
		add(add(tr, elem(atom.Th)), text(col))
	}
	tbody := add(table, elem(atom.Tbody))
	for _, r := range h.Rows {
		row := add(tbody, elem(atom.Tr))
		version := "v" + r.Version
		if r.PreviousVersion != "" {
			version += " ← v" + r.PreviousVersion
		}
		add(add(row, elem(atom.Td)), text(version))
		add(add(row, elem(atom.Td)), text(r.Author))
		add(add(row, elem(atom.Td)), text(r.Date))
		badge := elem(atom.Span, "class", "badge", "style", "background: "+r.Color)
		add(add(add(row, elem(atom.Td)), badge), text(r.Label))
		add(add(row, elem(atom.Td)), text(r.Comment))
	}
}

func checklist(parent *html.Node, heading atom.Atom, l document.ItemList) {
	add(add(parent, elem(heading)), text(l.Title))
	if len(l.Items) == 0 {
		add(add(parent, elem(atom.P, "class", "empty")), text(l.EmptyMessage))
		return
	}
	ul := add(parent, elem(atom.Ul, "class", "checklist"))
	for _, item := range l.Items {
		add(add(ul, elem(atom.Li)), text("✓ "+item))
	}
}

func cards(parent *html.Node, cs []document.Card) {
	dl := add(parent, elem(atom.Dl, "class", "cards"))
	for _, c := range cs {
		metaItem(dl, c.Label, c.Value)
	}
}

func metaItem(dl *html.Node, label, value string) {
	add(add(dl, elem(atom.Dt)), text(label))
	add(add(dl, elem(atom.Dd)), text(value))
}

// elem creates an element node; attrs are key/value pairs.
func elem(a atom.Atom, attrs ...string) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: attrs[i], Val: attrs[i+1]})
	}
	return n
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// add appends child to parent and returns child.
func add(parent, child *html.Node) *html.Node {
	parent.AppendChild(child)
	return child
}
