// image_handler.go -- book cover images for bare file names.
//
// A book's image is either a full URL, an absolute path, or a bare file name such
// as default_book.jpg. Bare names are served from /images/{name}, backed by the
// configured image directory; the default image falls back to a generated cover.
package catalog

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
)

// imageSrc maps a stored image value to the src attribute the browser needs.
func imageSrc(name string) string {
	if name == "" || strings.HasPrefix(name, "/") || strings.Contains(name, "://") {
		return name
	}
	return "/images/" + url.PathEscape(name)
}

// ServeImage handles GET /images/{name}.
func (h *Handler) ServeImage(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !fs.ValidPath(name) || strings.Contains(name, "/") {
		http.NotFound(w, r)
		return
	}

	if h.ImageDir != "" {
		dir := os.DirFS(h.ImageDir)
		if fi, err := fs.Stat(dir, name); err == nil && !fi.IsDir() {
			http.ServeFileFS(w, r, dir, name)
			return
		}
	}

	if name != h.DefImage {
		http.NotFound(w, r)
		return
	}
	cover, err := placeholderCover()
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Write(cover)
}

// placeholderCover is a plain book cover, encoded once.
var placeholderCover = sync.OnceValues(func() ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, 120, 180))
	draw.Draw(img, img.Bounds(), &image.Uniform{color.RGBA{0x8a, 0x6d, 0x4b, 0xff}}, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(0, 0, 14, 180), &image.Uniform{color.RGBA{0x5c, 0x46, 0x2f, 0xff}}, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(30, 40, 104, 48), &image.Uniform{color.RGBA{0xe8, 0xdc, 0xc4, 0xff}}, image.Point{}, draw.Src)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 80}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
})
