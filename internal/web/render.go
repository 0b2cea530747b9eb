package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin/render"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

const layoutFile = "templates/layout.html"

// Renderer implements gin's render.HTMLRender with one template set per page,
// each page combined with the shared layout.
type Renderer struct {
	pages map[string]*template.Template
}

func NewRenderer(display *time.Location) (*Renderer, error) {
	if display == nil {
		display = time.UTC
	}
	md := goldmark.New(
		goldmark.WithExtensions(extension.Linkify),
		goldmark.WithRendererOptions(gmhtml.WithHardWraps()),
	)
	funcs := Funcs(display, md)

	entries, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	r := &Renderer{pages: make(map[string]*template.Template)}
	for _, path := range entries {
		if path == layoutFile {
			continue
		}
		name := strings.TrimPrefix(path, "templates/")
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS, layoutFile, path)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

func (r *Renderer) Instance(name string, data any) render.Render {
	t, ok := r.pages[name]
	if !ok {
		panic("web: unknown template " + name)
	}
	return render.HTML{Template: t, Name: "layout", Data: data}
}

// Funcs returns the template helpers bound to the display timezone.
func Funcs(display *time.Location, md goldmark.Markdown) template.FuncMap {
	return template.FuncMap{
		"localTime": func(t time.Time) string {
			return FormatLocal(t, display)
		},
		"localRange": func(start, end time.Time) string {
			return FormatRange(start, end, display)
		},
		"inputValue": func(t time.Time) string {
			return t.In(display).Format("2006-01-02T15:04")
		},
		"markdown": func(note *string) template.HTML {
			if note == nil || strings.TrimSpace(*note) == "" {
				return ""
			}
			var buf bytes.Buffer
			if err := md.Convert([]byte(*note), &buf); err != nil {
				return template.HTML(template.HTMLEscapeString(*note))
			}
			return template.HTML(buf.String())
		},
		"join": strings.Join,
		"tzName": func() string {
			return display.String()
		},
	}
}

// FormatLocal renders an instant in the display timezone.
func FormatLocal(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02 (Mon) 15:04")
}

// FormatRange renders a slot window; the end date is omitted when it falls on the start day.
func FormatRange(start, end time.Time, loc *time.Location) string {
	s, e := start.In(loc), end.In(loc)
	if s.Year() == e.Year() && s.YearDay() == e.YearDay() {
		return s.Format("2006-01-02 (Mon) 15:04") + " - " + e.Format("15:04")
	}
	return s.Format("2006-01-02 (Mon) 15:04") + " - " + e.Format("2006-01-02 (Mon) 15:04")
}

func StaticFS() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}
