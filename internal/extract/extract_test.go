package extract

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDocumentText_DropsHiddenElements(t *testing.T) {
	t.Parallel()

	body := []byte(`<!DOCTYPE html>
<html>
<head>
  <title> Brand Home </title>
  <style>body { color: red; }</style>
  <script>var tracking = "secret";</script>
</head>
<body>
  <!-- internal note -->
  <h1>Welcome</h1>
  <p>  Fresh   coffee
     daily. </p>
  <noscript>Enable JavaScript</noscript>
  <div><span>Open</span><span>late</span></div>
</body>
</html>`)

	text, err := Text(body)
	require.NoError(t, err)
	require.Equal(t, "Brand Home Welcome Fresh   coffee\n     daily. Open late", text)
}

func TestDocumentText_EmptyDocument(t *testing.T) {
	t.Parallel()

	text, err := Text([]byte("   "))
	require.NoError(t, err)
	require.Empty(t, text)
}

func TestDocumentLinks_DocumentOrder(t *testing.T) {
	t.Parallel()

	doc, err := Parse([]byte(`<html><body>
<a href="/about">About</a>
<a name="anchor-only">No href</a>
<a href="https://other.example/x">Other</a>
<a href="">Empty</a>
<a href="mailto:hi@example.com">Mail</a>
</body></html>`))
	require.NoError(t, err)

	require.Equal(t, []string{
		"/about",
		"https://other.example/x",
		"",
		"mailto:hi@example.com",
	}, doc.Links())
}

func TestDocumentText_DoesNotMutateLinks(t *testing.T) {
	t.Parallel()

	doc, err := Parse([]byte(`<html><body><style>a{}</style><a href="/a">A</a></body></html>`))
	require.NoError(t, err)

	require.Equal(t, "A", doc.Text())
	require.Equal(t, []string{"/a"}, doc.Links())
	require.Equal(t, 1, doc.doc.Find("style").Length())
}
