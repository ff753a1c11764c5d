package view

import (
	"embed"
	"html/template"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/memonote/memo-service/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

var categoryLabels = map[model.Category]string{
	model.CategoryPersonal: "개인",
	model.CategoryWork:     "업무",
	model.CategoryStudy:    "학습",
	model.CategoryIdea:     "아이디어",
	model.CategoryOther:    "기타",
}

// CategoryLabel is the display name of a category; unknown values are shown as-is.
func CategoryLabel(c string) string {
	if l, ok := categoryLabels[model.Category(c)]; ok {
		return l
	}
	return c
}

// CategoryOption is one entry of a category selector.
type CategoryOption struct {
	Value    string
	Label    string
	Selected bool
}

// CategoryOptions lists the categories, optionally led by "all", marking selected.
func CategoryOptions(selected string, withAll bool) []CategoryOption {
	var out []CategoryOption
	if withAll {
		out = append(out, CategoryOption{Value: model.CategoryAll, Label: "전체", Selected: selected == "" || selected == model.CategoryAll})
	}
	for _, c := range model.Categories {
		out = append(out, CategoryOption{Value: string(c), Label: categoryLabels[c], Selected: selected == string(c)})
	}
	return out
}

// ListPage is the data of the memo list page.
type ListPage struct {
	Memos      []model.Memo
	Category   string
	Query      string
	Categories []CategoryOption
	Error      string
}

// EditPage is the data of the create/edit form. Memo.ID is empty for a new memo.
type EditPage struct {
	Memo       model.Memo
	TagsText   string
	Categories []CategoryOption
	Errors     []string
}

// NewEditPage prepares the form for m.
func NewEditPage(m model.Memo, errs ...string) EditPage {
	cat := m.Category
	if cat == "" {
		cat = string(model.CategoryOther)
	}
	return EditPage{
		Memo:       m,
		TagsText:   strings.Join(m.Tags, ", "),
		Categories: CategoryOptions(cat, false),
		Errors:     errs,
	}
}

// Pages renders the HTML views.
type Pages struct {
	list, detail, edit *template.Template
}

func NewPages() (*Pages, error) {
	funcs := template.FuncMap{
		"categoryLabel": CategoryLabel,
		"formatDate":    formatDate,
	}
	parse := func(page string) (*template.Template, error) {
		t, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+page)
		return t, errors.Wrapf(err, "parse template %s", page)
	}

	var p Pages
	var err error
	if p.list, err = parse("list.html"); err != nil {
		return nil, err
	}
	if p.detail, err = parse("detail.html"); err != nil {
		return nil, err
	}
	if p.edit, err = parse("edit.html"); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *Pages) List(w io.Writer, data ListPage) error {
	if data.Memos == nil {
		data.Memos = []model.Memo{}
	}
	return p.list.Execute(w, data)
}

// Detail renders a shell snapshot.
func (p *Pages) Detail(w io.Writer, st State) error {
	return p.detail.Execute(w, st)
}

func (p *Pages) Edit(w io.Writer, data EditPage) error {
	return p.edit.Execute(w, data)
}

// formatDate renders a stored timestamp for people; unparsable input is shown unchanged.
func formatDate(ts string) string {
	t, err := model.ParseTimestamp(ts)
	if err != nil {
		return ts
	}
	return t.Format("2006년 1월 2일 15:04")
}
