package binding

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/poku-e/partyloader/internal/record"
)

// Kind is one of the six binding behaviours.
type Kind string

const (
	KindText   Kind = "text"
	KindHTML   Kind = "html"
	KindClass  Kind = "class"
	KindAttr   Kind = "attr"
	KindToggle Kind = "toggle"
	KindList   Kind = "list"
)

// Marker and auxiliary attributes read from the document.
const (
	AttrText      = "data-path"
	AttrHTML      = "data-path-html"
	AttrClass     = "data-path-class"
	AttrClassName = "data-class"
	AttrAttr      = "data-path-attr"
	AttrAttrName  = "data-attr-name"
	AttrToggle    = "data-path-toggle"
	AttrList      = "data-path-list"
	AttrListClass = "data-list-class"

	DefaultClass = "filled"
)

// Action describes what a binding did to its element.
type Action string

const (
	ActionNone        Action = "unchanged"
	ActionSetText     Action = "set-text"
	ActionSetHTML     Action = "set-html"
	ActionAddClass    Action = "add-class"
	ActionRemoveClass Action = "remove-class"
	ActionSetAttr     Action = "set-attr"
	ActionShow        Action = "show"
	ActionHide        Action = "hide"
	ActionFillList    Action = "fill-list"
)

// Outcome records one directive of a rendering pass.
type Outcome struct {
	Kind     Kind
	Path     string
	Aux      string // class name, attribute name or list item class
	Element  string
	Resolved bool
	Value    string
	Action   Action
}

type handler struct {
	kind   Kind
	marker string
	apply  func(el *goquery.Selection, v record.Value, ok bool) (aux string, action Action)
}

var handlers = []handler{
	{KindText, AttrText, applyText},
	{KindHTML, AttrHTML, applyHTML},
	{KindClass, AttrClass, applyClass},
	{KindAttr, AttrAttr, applyAttr},
	{KindToggle, AttrToggle, applyToggle},
	{KindList, AttrList, applyList},
}

// Apply runs all six binding passes over doc using rec as the data. It only
// reads rec. Elements whose path does not resolve keep their content, except
// class and toggle bindings which treat a missing value as false.
func Apply(doc *goquery.Document, rec *record.Record) []Outcome {
	var root record.Value
	if rec != nil {
		root = rec.Value
	}

	var out []Outcome
	for _, h := range handlers {
		doc.Find("[" + h.marker + "]").Each(func(_ int, el *goquery.Selection) {
			path, _ := el.Attr(h.marker)
			v, ok := record.Resolve(root, path)
			aux, action := h.apply(el, v, ok)
			o := Outcome{
				Kind:     h.kind,
				Path:     path,
				Aux:      aux,
				Element:  describe(el),
				Resolved: ok,
				Action:   action,
			}
			if ok {
				o.Value = v.String()
			}
			out = append(out, o)
		})
	}
	return out
}

func applyText(el *goquery.Selection, v record.Value, ok bool) (string, Action) {
	if !ok {
		return "", ActionNone
	}
	el.SetText(v.String())
	return "", ActionSetText
}

func applyHTML(el *goquery.Selection, v record.Value, ok bool) (string, Action) {
	if !ok {
		return "", ActionNone
	}
	el.SetHtml(v.String())
	return "", ActionSetHTML
}

func applyClass(el *goquery.Selection, v record.Value, ok bool) (string, Action) {
	name := el.AttrOr(AttrClassName, "")
	if name == "" {
		name = DefaultClass
	}
	if ok && v.Truthy() {
		el.AddClass(name)
		return name, ActionAddClass
	}
	el.RemoveClass(name)
	return name, ActionRemoveClass
}

func applyAttr(el *goquery.Selection, v record.Value, ok bool) (string, Action) {
	name := strings.TrimSpace(el.AttrOr(AttrAttrName, ""))
	if !ok || name == "" {
		return name, ActionNone
	}
	el.SetAttr(name, v.String())
	return name, ActionSetAttr
}

func applyToggle(el *goquery.Selection, v record.Value, ok bool) (string, Action) {
	style := el.AttrOr("style", "")
	if ok && v.Truthy() {
		style = setDisplay(style, "")
	} else {
		style = setDisplay(style, "none")
	}
	if style == "" {
		el.RemoveAttr("style")
	} else {
		el.SetAttr("style", style)
	}
	if ok && v.Truthy() {
		return "", ActionShow
	}
	return "", ActionHide
}

func applyList(el *goquery.Selection, v record.Value, ok bool) (string, Action) {
	itemClass := el.AttrOr(AttrListClass, "")
	if !ok {
		return itemClass, ActionNone
	}
	items, isList := v.Items()
	if !isList {
		return itemClass, ActionNone
	}

	el.Empty()
	for _, item := range items {
		el.AppendNodes(listItem(item.String(), itemClass))
	}
	return itemClass, ActionFillList
}

// listItem builds <div class="itemClass">text</div>; the text is never
// parsed as markup.
func listItem(text, class string) *html.Node {
	div := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	if class != "" {
		div.Attr = []html.Attribute{{Key: "class", Val: class}}
	}
	div.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	return div
}

func describe(el *goquery.Selection) string {
	name := goquery.NodeName(el)
	if id, ok := el.Attr("id"); ok && id != "" {
		return name + "#" + id
	}
	if cls, ok := el.Attr("class"); ok {
		if f := strings.Fields(cls); len(f) > 0 {
			return name + "." + f[0]
		}
	}
	return name
}
