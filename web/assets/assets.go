// Package assets holds the dashboard's static files.
package assets

import (
	"embed"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
)

//go:generate go run ../../scripts/syncdatastar

// DatastarBundle is the client runtime the panels need, relative to the
// static root. scripts/syncdatastar fetches the pinned release into it.
const DatastarBundle = "js/datastar.js"

//go:embed static
var staticFS embed.FS

// Static returns the embedded static files, rooted at the static directory.
func Static() fs.FS {
	fsys, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}

	return fsys
}

// Handler serves /static/ from dir when it has been collected there, and
// from the embedded files otherwise.
func Handler(dir string) http.Handler {
	fsys := Static()

	if dir != "" {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			slog.Info("Serving collected static files", "path", dir)

			fsys = os.DirFS(dir)
		}
	}

	return http.StripPrefix("/static/", http.FileServer(http.FS(fsys)))
}

// HasDatastar reports whether the Datastar bundle was embedded at build time.
func HasDatastar() bool {
	_, err := fs.Stat(Static(), DatastarBundle)

	return err == nil
}

func Path(name string) string {
	return "/static/" + name
}
