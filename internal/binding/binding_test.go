package binding

import (
	"bytes"
	"context"
	"errors"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poku-e/partyloader/internal/record"
	"github.com/poku-e/partyloader/internal/source"
)

func parse(t *testing.T, markup string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	require.NoError(t, err)
	return doc
}

func rec(t *testing.T, doc string) *record.Record {
	t.Helper()
	ds, err := record.Decode(strings.NewReader(`{"characters":{"x":` + doc + `}}`))
	require.NoError(t, err)
	r, ok := ds.Character("x")
	require.True(t, ok)
	return r
}

func render(t *testing.T, doc *goquery.Document) string {
	t.Helper()
	out, err := doc.Html()
	require.NoError(t, err)
	return out
}

func TestApply_Text(t *testing.T) {
	doc := parse(t, `<span id="hp" data-path="combat.hp.current">10</span><span id="miss" data-path="combat.hp.temp">5</span>`)
	Apply(doc, rec(t, `{"combat":{"hp":{"current":17}}}`))

	assert.Equal(t, "17", doc.Find("#hp").Text())
	assert.Equal(t, "5", doc.Find("#miss").Text())
}

func TestApply_TextIsNotMarkup(t *testing.T) {
	doc := parse(t, `<p id="n" data-path="name">x</p>`)
	Apply(doc, rec(t, `{"name":"<b>Grog</b>"}`))

	assert.Equal(t, "<b>Grog</b>", doc.Find("#n").Text())
	assert.Zero(t, doc.Find("#n b").Length())
}

func TestApply_HTML(t *testing.T) {
	doc := parse(t, `<div id="bio" data-path-html="bio">old</div><div id="keep" data-path-html="none">kept</div>`)
	Apply(doc, rec(t, `{"bio":"<em>Raised</em> by wolves"}`))

	assert.Equal(t, "Raised", doc.Find("#bio em").Text())
	assert.Equal(t, "Raised by wolves", doc.Find("#bio").Text())
	assert.Equal(t, "kept", doc.Find("#keep").Text())
}

func TestApply_ClassToggle(t *testing.T) {
	markup := `<i id="a" class="dot" data-path-class="skills.Athletics.proficient"></i>
<i id="b" class="dot filled" data-path-class="skills.Stealth.proficient"></i>
<i id="c" class="dot proficient" data-path-class="skills.Missing.proficient" data-class="proficient"></i>
<i id="d" data-path-class="skills.Athletics.proficient" data-class="proficient"></i>`
	doc := parse(t, markup)
	outcomes := Apply(doc, rec(t, `{"skills":{"Athletics":{"proficient":true},"Stealth":{"proficient":false}}}`))

	assert.True(t, doc.Find("#a").HasClass("filled"))
	assert.True(t, doc.Find("#a").HasClass("dot"))
	assert.False(t, doc.Find("#b").HasClass("filled"))
	assert.True(t, doc.Find("#b").HasClass("dot"))
	assert.False(t, doc.Find("#c").HasClass("proficient"))
	assert.True(t, doc.Find("#d").HasClass("proficient"))
	assert.False(t, doc.Find("#d").HasClass("filled"))

	require.Len(t, outcomes, 4)
	assert.Equal(t, ActionAddClass, outcomes[0].Action)
	assert.Equal(t, "filled", outcomes[0].Aux)
	assert.Equal(t, ActionRemoveClass, outcomes[2].Action)
	assert.False(t, outcomes[2].Resolved)
}

func TestApply_Attr(t *testing.T) {
	doc := parse(t, `<div id="a" data-path-attr="combat.hp.current" data-attr-name="title"></div>
<div id="b" data-path-attr="combat.hp.current"></div>
<div id="c" data-path-attr="combat.hp.temp" data-attr-name="title" title="keep"></div>
<meter id="d" data-path-attr="combat.hp.max" data-attr-name="max" max="1"></meter>`)
	Apply(doc, rec(t, `{"combat":{"hp":{"current":17,"max":24.5}}}`))

	assert.Equal(t, "17", doc.Find("#a").AttrOr("title", ""))
	_, has := doc.Find("#b").Attr("title")
	assert.False(t, has)
	assert.Equal(t, "keep", doc.Find("#c").AttrOr("title", ""))
	assert.Equal(t, "24.5", doc.Find("#d").AttrOr("max", ""))
}

func TestApply_Toggle(t *testing.T) {
	doc := parse(t, `<div id="a" style="display: none; color: red" data-path-toggle="flags.inspired"></div>
<div id="b" data-path-toggle="flags.dead"></div>
<div id="c" style="display:none" data-path-toggle="flags.inspired"></div>
<div id="d" data-path-toggle="flags.missing"></div>
<div id="e" data-path-toggle="flags.empty"></div>`)
	Apply(doc, rec(t, `{"flags":{"inspired":true,"dead":false,"empty":""}}`))

	assert.Equal(t, "color: red;", doc.Find("#a").AttrOr("style", ""))
	assert.Equal(t, "display: none;", doc.Find("#b").AttrOr("style", ""))
	_, has := doc.Find("#c").Attr("style")
	assert.False(t, has)
	assert.Equal(t, "display: none;", doc.Find("#d").AttrOr("style", ""))
	assert.Equal(t, "display: none;", doc.Find("#e").AttrOr("style", ""))
}

func TestApply_List(t *testing.T) {
	doc := parse(t, `<div id="eq" data-path-list="equipment"><p>old</p><p>older</p></div>`)
	Apply(doc, rec(t, `{"equipment":["Sword","Shield"]}`))

	kids := doc.Find("#eq").Children()
	require.Equal(t, 2, kids.Length())
	assert.Equal(t, "Sword", kids.Eq(0).Text())
	assert.Equal(t, "Shield", kids.Eq(1).Text())
	assert.Zero(t, doc.Find("#eq p").Length())
	_, has := kids.Eq(0).Attr("class")
	assert.False(t, has)
}

func TestApply_ListItemsAndClass(t *testing.T) {
	doc := parse(t, `<ul id="l" data-path-list="items" data-list-class="equip-item"></ul>`)
	Apply(doc, rec(t, `{"items":["<b>rope</b>",3,true,{"name":"Axe","qty":1},["a"]]}`))

	kids := doc.Find("#l").Children()
	require.Equal(t, 5, kids.Length())
	kids.Each(func(_ int, s *goquery.Selection) {
		assert.Equal(t, "div", goquery.NodeName(s))
		assert.Equal(t, "equip-item", s.AttrOr("class", ""))
	})
	assert.Equal(t, "<b>rope</b>", kids.Eq(0).Text())
	assert.Zero(t, kids.Eq(0).Find("b").Length())
	assert.Equal(t, "3", kids.Eq(1).Text())
	assert.Equal(t, "true", kids.Eq(2).Text())
	assert.Equal(t, `{"name":"Axe","qty":1}`, kids.Eq(3).Text())
	assert.Equal(t, `["a"]`, kids.Eq(4).Text())
}

func TestApply_ListLeavesChildrenWhenNotAList(t *testing.T) {
	doc := parse(t, `<div id="a" data-path-list="missing"><p>keep</p></div><div id="b" data-path-list="name"><p>keep</p></div>`)
	Apply(doc, rec(t, `{"name":"Grog"}`))

	assert.Equal(t, "keep", doc.Find("#a p").Text())
	assert.Equal(t, "keep", doc.Find("#b p").Text())
}

func TestApply_DoesNotMutateRecord(t *testing.T) {
	r := rec(t, `{"name":"Grog","equipment":["Sword"],"skills":{"a":{"p":true}}}`)
	before := r.String()
	doc := parse(t, `<p data-path="name"></p><div data-path-list="equipment"></div><i data-path-class="skills.a.p"></i>`)
	Apply(doc, r)
	assert.Equal(t, before, r.String())
}

func TestApply_Idempotent(t *testing.T) {
	markup := `<html><body>
<span data-path="combat.hp.current">10</span>
<div data-path-html="bio">x</div>
<i class="a" data-path-class="skills.Athletics.proficient"></i>
<i class="a filled" data-path-class="skills.Stealth.proficient"></i>
<div data-path-attr="name" data-attr-name="title"></div>
<div style="color: red" data-path-toggle="flags.dead"></div>
<div data-path-list="equipment" data-list-class="item"><p>old</p></div>
</body></html>`
	r := rec(t, `{"name":"Grog","bio":"<em>big</em>","combat":{"hp":{"current":17}},
"skills":{"Athletics":{"proficient":true},"Stealth":{"proficient":false}},
"flags":{"dead":false},"equipment":["Sword","Shield"]}`)

	once := parse(t, markup)
	Apply(once, r)
	twice := parse(t, markup)
	Apply(twice, r)
	Apply(twice, r)

	assert.Equal(t, render(t, once), render(t, twice))
}

func TestSetDisplay(t *testing.T) {
	assert.Equal(t, "", setDisplay("", ""))
	assert.Equal(t, "display: none;", setDisplay("", "none"))
	assert.Equal(t, "color: red;", setDisplay("DISPLAY:block;color: red", ""))
	assert.Equal(t, "color: red; display: none;", setDisplay("color: red; display: block;", "none"))
}

func TestSetDisplay_KeepsQuotedSemicolons(t *testing.T) {
	tests := []struct {
		name  string
		style string
		value string
		want  string
	}{
		{"data uri shown", `background: url('data:image/png;base64,AAAA'); display: none`, "",
			`background: url('data:image/png;base64,AAAA');`},
		{"data uri hidden", `background: url('data:image/png;base64,AAAA')`, "none",
			`background: url('data:image/png;base64,AAAA'); display: none;`},
		{"quoted font", `font-family: 'A;B'`, "none", `font-family: 'A;B'; display: none;`},
		{"double quoted content", `content: "x; display: block"; display: none`, "",
			`content: "x; display: block";`},
		{"unquoted url", `background:url(a.png);display:none;color:red`, "",
			`background:url(a.png);color:red;`},
		{"function argument", `width: calc(1px + 2px); DISPLAY : flex`, "none",
			`width: calc(1px + 2px); display: none;`},
		{"display-like property", `display-mode: x; display: block`, "",
			`display-mode: x;`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, setDisplay(tt.style, tt.value))
		})
	}
}

func TestApply_ToggleKeepsOtherDeclarations(t *testing.T) {
	doc := parse(t, `<div id="a" style="background: url('data:image/png;base64,AAAA'); display: none" data-path-toggle="on"></div>
<div id="b" style="font-family: 'A;B'" data-path-toggle="off"></div>`)
	Apply(doc, rec(t, `{"on":true,"off":false}`))

	assert.Equal(t, `background: url('data:image/png;base64,AAAA');`, doc.Find("#a").AttrOr("style", ""))
	assert.Equal(t, `font-family: 'A;B'; display: none;`, doc.Find("#b").AttrOr("style", ""))
}

const page = `<html><body data-character="sekhmet">
<h1 id="name" data-path="name">Hardcoded</h1>
<span id="hp" data-path="combat.hp.current">10</span>
<ul id="eq" data-path-list="equipment"><li>Dagger</li></ul>
</body></html>`

func newPage(t *testing.T, markup, raw string) Page {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return Page{Doc: parse(t, markup), URL: u}
}

func fsEngine(data string, buf *bytes.Buffer) *Engine {
	return &Engine{
		Loader: source.FSLoader{FS: fstest.MapFS{"dnd/party.json": &fstest.MapFile{Data: []byte(data)}}},
		Logger: log.New(buf, "", 0),
	}
}

func TestEngine_Run(t *testing.T) {
	var buf bytes.Buffer
	e := fsEngine(`{"characters":{"sekhmet":{"name":"Sekhmet","combat":{"hp":{"current":17}},"equipment":["Sword","Shield"]}}}`, &buf)
	p := newPage(t, page, "http://localhost/dnd/characters/sekhmet.html")

	outcomes := e.Run(context.Background(), p)

	assert.Len(t, outcomes, 3)
	assert.Equal(t, "Sekhmet", p.Doc.Find("#name").Text())
	assert.Equal(t, "17", p.Doc.Find("#hp").Text())
	assert.Equal(t, 2, p.Doc.Find("#eq").Children().Length())
	assert.Contains(t, buf.String(), `injected data for "Sekhmet"`)
}

func TestEngine_RunFallsBackToKeyInLog(t *testing.T) {
	var buf bytes.Buffer
	e := fsEngine(`{"characters":{"sekhmet":{"combat":{"hp":{"current":17}}}}}`, &buf)
	p := newPage(t, page, "http://localhost/dnd/characters/sekhmet.html")

	e.Run(context.Background(), p)
	assert.Equal(t, "Hardcoded", p.Doc.Find("#name").Text())
	assert.Contains(t, buf.String(), `injected data for "sekhmet"`)
}

func TestEngine_RunLeavesPageOnFailure(t *testing.T) {
	tests := []struct {
		name   string
		engine func(buf *bytes.Buffer) *Engine
		markup string
		want   string
	}{
		{
			name:   "no character",
			engine: func(buf *bytes.Buffer) *Engine { return fsEngine(`{"characters":{}}`, buf) },
			markup: strings.Replace(page, ` data-character="sekhmet"`, "", 1),
			want:   "could not detect character",
		},
		{
			name:   "character not in data set",
			engine: func(buf *bytes.Buffer) *Engine { return fsEngine(`{"characters":{"grog":{}}}`, buf) },
			markup: page,
			want:   `character "sekhmet" not found`,
		},
		{
			name:   "malformed data",
			engine: func(buf *bytes.Buffer) *Engine { return fsEngine(`{"characters":`, buf) },
			markup: page,
			want:   "could not load party data",
		},
		{
			name: "missing data file",
			engine: func(buf *bytes.Buffer) *Engine {
				return &Engine{Loader: source.FSLoader{FS: fstest.MapFS{}}, Logger: log.New(buf, "", 0)}
			},
			markup: page,
			want:   "could not load party data",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			p := newPage(t, tt.markup, "http://localhost/dnd/")
			before := render(t, p.Doc)

			outcomes := tt.engine(&buf).Run(context.Background(), p)

			assert.Empty(t, outcomes)
			assert.Equal(t, before, render(t, p.Doc))
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}

func TestEngine_RunOverHTTP(t *testing.T) {
	var status = http.StatusOK
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/dnd/party.json" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"characters":{"sekhmet":{"name":"Sekhmet","combat":{"hp":{"current":17}}}}}`))
	}))
	defer srv.Close()

	var buf bytes.Buffer
	e := &Engine{Loader: source.SchemeLoader{HTTP: source.HTTPLoader{Client: srv.Client()}}, Logger: log.New(&buf, "", 0)}

	p := newPage(t, page, srv.URL+"/dnd/characters/sekhmet_textsheet.html")
	e.Run(context.Background(), p)
	assert.Equal(t, "17", p.Doc.Find("#hp").Text())

	status = http.StatusInternalServerError
	p = newPage(t, page, srv.URL+"/dnd/characters/sekhmet_textsheet.html")
	e.Run(context.Background(), p)
	assert.Equal(t, "10", p.Doc.Find("#hp").Text())
	assert.Contains(t, buf.String(), "HTTP 500")
}

func TestEngine_RunNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	p := newPage(t, page, base+"/dnd/characters/sekhmet.html")
	before := render(t, p.Doc)
	assert.NotPanics(t, func() {
		(&Engine{}).Run(context.Background(), p)
	})
	assert.Equal(t, before, render(t, p.Doc))
}

func TestEngine_Load(t *testing.T) {
	e := fsEngine(`{"characters":{"grog":{"name":"Grog"}}}`, &bytes.Buffer{})

	p := newPage(t, `<html><body></body></html>`, "http://localhost/dnd/characters/Grog.html")
	r, key, err := e.Load(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "grog", key)
	name, _ := r.Name()
	assert.Equal(t, "Grog", name)

	p = newPage(t, `<html><body data-character="vex"></body></html>`, "http://localhost/dnd/characters/Grog.html")
	_, key, err = e.Load(context.Background(), p)
	var nf *CharacterNotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "vex", key)
	assert.Equal(t, "vex", nf.Key)

	p = newPage(t, `<html><body></body></html>`, "http://localhost/dnd/")
	_, _, err = e.Load(context.Background(), p)
	assert.ErrorIs(t, err, ErrNoCharacter)
}

func TestEngine_RunOnLoad(t *testing.T) {
	var buf bytes.Buffer
	e := fsEngine(`{"characters":{"sekhmet":{"name":"Sekhmet"}}}`, &buf)
	var gotKey string
	var got *record.Record
	e.OnLoad = func(key string, r *record.Record) { gotKey, got = key, r }

	e.Run(context.Background(), newPage(t, page, "http://localhost/dnd/characters/sekhmet.html"))
	assert.Equal(t, "sekhmet", gotKey)
	require.NotNil(t, got)
	name, _ := got.Name()
	assert.Equal(t, "Sekhmet", name)

	got = nil
	e.Run(context.Background(), newPage(t, `<html><body><h1 data-path="name">x</h1></body></html>`, "http://localhost/dnd/"))
	assert.Nil(t, got)
}

func TestEngine_RunRecoversFromPanic(t *testing.T) {
	var buf bytes.Buffer
	e := fsEngine(`{"characters":{"sekhmet":{"name":"Sekhmet"}}}`, &buf)
	e.OnLoad = func(string, *record.Record) { panic("boom") }
	p := newPage(t, page, "http://localhost/dnd/characters/sekhmet.html")
	before := render(t, p.Doc)

	var outcomes []Outcome
	require.NotPanics(t, func() { outcomes = e.Run(context.Background(), p) })
	assert.Nil(t, outcomes)
	assert.Equal(t, before, render(t, p.Doc))
	assert.Contains(t, buf.String(), "[WARN] rendering pass aborted: boom")
}

func TestEngine_RunNilDocument(t *testing.T) {
	var buf bytes.Buffer
	out := (&Engine{Logger: log.New(&buf, "", 0)}).Run(context.Background(), Page{})
	assert.Nil(t, out)
	assert.Contains(t, buf.String(), "no document")
}
