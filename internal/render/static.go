package render

import (
	"bytes"
	"context"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"

	"github.com/nao1215/linkscan/internal/fetch"
)

// Static fetches pages with a plain GET and parses the returned HTML.
// Scripts are not executed, so dynamically inserted links are invisible
// to it, and it cannot capture screenshots.
type Static struct {
	client *fetch.Client
}

// NewStatic creates a static renderer fetching through the given client.
func NewStatic(client *fetch.Client) *Static {
	return &Static{client: client}
}

// Render fetches pageURL and extracts links and images from the HTML.
// Non-HTML responses yield a result with the status code and no links.
func (r *Static) Render(ctx context.Context, pageURL string) (*Result, error) {
	resp, err := r.client.Get(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	body, err := r.client.ReadBody(resp)
	if err != nil {
		return nil, err
	}

	result := &Result{
		StatusCode: resp.StatusCode,
		FinalURL:   resp.Request.URL.String(),
		Body:       string(body),
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(contentType, "text/html") && !strings.Contains(contentType, "application/xhtml") {
		return result, nil
	}

	// Decode to UTF-8 before parsing so non-UTF-8 pages extract cleanly.
	reader, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		reader = bytes.NewReader(body)
	}

	doc, err := html.Parse(reader)
	if err != nil {
		// The page was reachable; a parse failure only loses links.
		return result, nil
	}

	result.Links, result.Images = extractRefs(doc)
	return result, nil
}

// Close implements Renderer. The static renderer holds no resources.
func (r *Static) Close() error {
	return nil
}

// extractRefs walks the DOM and collects raw link and image references.
func extractRefs(doc *html.Node) (links, images []string) {
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "a", "area":
				if href := getAttr(n, "href"); href != "" {
					links = append(links, href)
				}
			case "iframe":
				if src := getAttr(n, "src"); src != "" {
					links = append(links, src)
				}
			case "img":
				if src := getAttr(n, "src"); src != "" {
					images = append(images, src)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return links, images
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
