// Package web holds the HTML templates and static assets of the web UI.
package web

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/gofiber/template/html/v2"
)

// LayoutMain wraps every page.
const LayoutMain = "layouts/main"

//go:embed templates static
var content embed.FS

// NewEngine returns the template engine for fiber. Templates are parsed on
// first render.
func NewEngine() *html.Engine {
	return html.NewFileSystem(http.FS(mustSub("templates")), ".html")
}

// StaticFS serves the stylesheet and scripts.
func StaticFS() http.FileSystem {
	return http.FS(mustSub("static"))
}

func mustSub(dir string) fs.FS {
	sub, err := fs.Sub(content, dir)
	if err != nil {
		panic(err)
	}
	return sub
}
