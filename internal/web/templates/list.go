package templates

import (
	"context"
	"strconv"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/masterconsole/internal/core"
)

// ListRow is one rendered document.
type ListRow struct {
	Key   string
	Cells []string
}

// ListParams fills the list view.
type ListParams struct {
	Entity  core.EntityInfo
	Columns []string
	Rows    []ListRow
	Search  string
}

// List renders the ordered, searchable list of one entity.
func List(lp ListParams) templ.Component {
	return component(func(ctx context.Context, p *page) {
		p.raw(`<h1>`)
		p.text(lp.Entity.Label)
		p.raw(`</h1><form method="get"><input type="search" name="q" placeholder="Search"`)
		p.attr("value", lp.Search)
		p.raw(`> <button type="submit">Search</button> <a`)
		p.attr("href", "/import/"+lp.Entity.Key)
		p.raw(`>Import CSV</a></form><p class="muted">`)
		p.text(strconv.Itoa(len(lp.Rows)) + " records")
		p.raw(`</p><table><thead><tr>`)
		for _, c := range lp.Columns {
			p.raw(`<th>`)
			p.text(c)
			p.raw(`</th>`)
		}
		p.raw(`</tr></thead><tbody>`)
		for _, row := range lp.Rows {
			p.raw(`<tr>`)
			for i, cell := range row.Cells {
				p.raw(`<td>`)
				if i == 0 {
					p.raw(`<a`)
					p.attr("href", "/list/"+lp.Entity.Key+"/"+row.Key)
					p.raw(`>`)
					p.text(cell)
					p.raw(`</a>`)
				} else {
					p.text(cell)
				}
				p.raw(`</td>`)
			}
			p.raw(`</tr>`)
		}
		p.raw(`</tbody></table>`)
	})
}

// DetailField is one labelled value of a document.
type DetailField struct {
	Path  string
	Value string
}

// DetailParams fills the detail view.
type DetailParams struct {
	Entity core.EntityInfo
	Key    string
	Name   string
	Fields []DetailField
}

// Detail renders every field of one document.
func Detail(dp DetailParams) templ.Component {
	return component(func(ctx context.Context, p *page) {
		p.raw(`<p><a`)
		p.attr("href", "/list/"+dp.Entity.Key)
		p.raw(`>&larr; `)
		p.text(dp.Entity.Label)
		p.raw(`</a></p><h1>`)
		p.text(dp.Key)
		if dp.Name != "" {
			p.raw(` <span class="muted">`)
			p.text(dp.Name)
			p.raw(`</span>`)
		}
		p.raw(`</h1><table><tbody>`)
		for _, f := range dp.Fields {
			p.raw(`<tr><th>`)
			p.text(f.Path)
			p.raw(`</th><td>`)
			p.text(f.Value)
			p.raw(`</td></tr>`)
		}
		p.raw(`</tbody></table>`)
	})
}
