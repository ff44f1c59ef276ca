package page

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"glossari/internal/domain"
	"glossari/internal/domtext"
	"glossari/internal/extractor"

	"github.com/go-shiori/dom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const article = `<html><head><title>Le chat qui dort</title></head><body>
<article>
	<h1>Le chat qui dort</h1>
	<p>Le chat dort. Il est <em>très</em>   fatigué.</p>
	<p>Le chien dort aussi. Il est fatigué.</p>
	<script>var fatigué = 1;</script>
</article>
</body></html>`

func TestFromText(t *testing.T) {
	snap := FromText("Première ligne.\n\n  Deuxième <ligne> & fin. \n")
	assert.Equal(t, "<html><body><p>Première ligne.</p><p>Deuxième &lt;ligne&gt; &amp; fin.</p></body></html>", snap.HTML)

	doc, err := snap.Document()
	require.NoError(t, err)
	assert.Len(t, dom.GetElementsByTagName(doc, "p"), 2)
}

func TestFindText(t *testing.T) {
	doc, err := Parse(article)
	require.NoError(t, err)

	tests := []struct {
		name       string
		text       string
		occurrence int
		expected   string
	}{
		{name: "single node", text: "chat", expected: "chat"},
		{name: "across inline element", text: "très fatigué", expected: "très   fatigué"},
		{name: "whitespace in request", text: "  Il est\ntrès ", expected: "Il est très"},
		{name: "second occurrence", text: "fatigué", occurrence: 1, expected: "fatigué"},
		{name: "negative occurrence is first", text: "Le chien", occurrence: -3, expected: "Le chien"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := FindText(doc, tt.text, tt.occurrence, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, strings.TrimSpace(r.Text()))
		})
	}
}

func TestFindText_OccurrenceReachesRightBlock(t *testing.T) {
	doc, err := Parse(article)
	require.NoError(t, err)

	r, err := FindText(doc, "fatigué", 1, nil)
	require.NoError(t, err)

	sel, err := extractor.New(extractor.Options{}, zap.NewNop()).Capture(r)
	require.NoError(t, err)
	assert.Equal(t, "Il est fatigué.", sel.Sentence)
	assert.Equal(t, "/html/body/article[1]/p[2]", sel.Locator.String())
}

func TestFindText_Within(t *testing.T) {
	doc, err := Parse(article)
	require.NoError(t, err)
	second := dom.GetElementsByTagName(doc, "p")[1]

	r, err := FindText(doc, "Il est", 0, second)
	require.NoError(t, err)
	assert.Equal(t, "Le chien dort aussi. Il est fatigué.", domtext.Text(r.StartContainer.Parent))
}

func TestFindText_Errors(t *testing.T) {
	doc, err := Parse(article)
	require.NoError(t, err)

	_, err = FindText(doc, "   ", 0, nil)
	assert.ErrorIs(t, err, domain.ErrEmptySelection)

	_, err = FindText(doc, "oiseau", 0, nil)
	assert.ErrorIs(t, err, ErrTextNotFound)

	_, err = FindText(doc, "fatigué", 2, nil)
	assert.ErrorIs(t, err, ErrTextNotFound)

	// Script text is never rendered.
	_, err = FindText(doc, "var", 0, nil)
	assert.ErrorIs(t, err, ErrTextNotFound)
}

func TestFetcher_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/article":
			assert.Contains(t, r.Header.Get("User-Agent"), "Mozilla/5.0")
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte(article))
		case "/big":
			_, _ = w.Write([]byte(strings.Repeat("a", MaxBodySize+10)))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := NewFetcher(zap.NewNop(), WithClient(srv.Client()))

	snap, err := f.Fetch(context.Background(), srv.URL+"/article")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/article", snap.URL)
	assert.Equal(t, article, snap.HTML)
	assert.Equal(t, "Le chat qui dort", snap.Title)

	_, err = f.Fetch(context.Background(), srv.URL+"/missing")
	assert.ErrorContains(t, err, "status 404")

	_, err = f.Fetch(context.Background(), srv.URL+"/big")
	assert.Error(t, err)

	_, err = f.Fetch(context.Background(), "ftp://example.com/file")
	assert.ErrorContains(t, err, "invalid page url")
}
