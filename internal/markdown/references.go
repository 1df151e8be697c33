// Package markdown inspects article Markdown for links to the article's own media.
package markdown

import (
	"net/url"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var md = goldmark.New()

// FilePath is the public URL path of an article's media file.
func FilePath(articleID, filename string) string {
	return "/files/" + articleID + "/" + filename
}

// destinations returns every image and link destination in src, in document order.
func destinations(src []byte) []string {
	doc := md.Parser().Parse(text.NewReader(src))

	var dests []string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Image:
			dests = append(dests, string(node.Destination))
		case *ast.Link:
			dests = append(dests, string(node.Destination))
		}
		return ast.WalkContinue, nil
	})
	return dests
}

// mediaName returns the filename dest points at when it is a media URL of
// articleID, with any query string or fragment ignored.
func mediaName(dest, articleID string) (string, bool) {
	u, err := url.Parse(dest)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "", false
	}
	prefix := "/files/" + articleID + "/"
	if !strings.HasPrefix(u.Path, prefix) {
		return "", false
	}
	name := strings.TrimPrefix(u.Path, prefix)
	if name == "" || strings.Contains(name, "/") {
		return "", false
	}
	return name, true
}

// References returns the set of media filenames of articleID that src links to or embeds.
func References(src, articleID string) map[string]bool {
	refs := make(map[string]bool)
	for _, dest := range destinations([]byte(src)) {
		if name, ok := mediaName(dest, articleID); ok {
			refs[name] = true
		}
	}
	return refs
}

// RewriteArticleID points every media link of oldID in src at newID instead.
// Only link and image destinations are touched; prose mentioning the path is left alone.
func RewriteArticleID(src, oldID, newID string) string {
	if oldID == newID {
		return src
	}
	seen := make(map[string]bool)
	var pairs []string
	for _, dest := range destinations([]byte(src)) {
		if seen[dest] {
			continue
		}
		seen[dest] = true
		if _, ok := mediaName(dest, oldID); !ok {
			continue
		}
		rewritten := strings.Replace(dest, "/files/"+oldID+"/", "/files/"+newID+"/", 1)
		pairs = append(pairs, "("+dest, "("+rewritten, "<"+dest+">", "<"+rewritten+">")
	}
	if len(pairs) == 0 {
		return src
	}
	return strings.NewReplacer(pairs...).Replace(src)
}
