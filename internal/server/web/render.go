package web

import (
	"embed"
	"html/template"
	"io"

	"github.com/dmitrijs2005/todolist/internal/server/auth"
	"github.com/dmitrijs2005/todolist/internal/server/models"
	"github.com/dmitrijs2005/todolist/internal/server/services"
	"github.com/labstack/echo/v4"
)

//go:embed templates/*.html
var templateFS embed.FS

type templateRenderer struct {
	templates *template.Template
}

func newTemplateRenderer() (*templateRenderer, error) {
	t, err := template.New("").Funcs(template.FuncMap{
		"hasFlash": hasFlash,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &templateRenderer{templates: t}, nil
}

func (r *templateRenderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	return r.templates.ExecuteTemplate(w, name, data)
}

// page is the data every template receives.
type page struct {
	User    *models.User
	Flashes []auth.Flash
	Form    map[string]string
	Next    string
	Tasks   []*models.Task
	History *services.TaskPage
	Page    int
}

func hasFlash(flashes []auth.Flash, category, message string) bool {
	for _, f := range flashes {
		if f.Category == category && f.Message == message {
			return true
		}
	}
	return false
}

func errorFlashes(fields ...string) []auth.Flash {
	out := make([]auth.Flash, 0, len(fields))
	for _, f := range fields {
		out = append(out, auth.Flash{Category: auth.FlashError, Message: f})
	}
	return out
}
