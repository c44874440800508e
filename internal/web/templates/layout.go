package templates

import (
	"context"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/masterconsole/internal/core"
)

const styles = `
body{font-family:system-ui,"Hiragino Sans","Noto Sans JP",sans-serif;margin:0;background:#f6f7f9;color:#1f2933}
header{background:#1f2933;color:#fff;padding:.75rem 1.5rem;display:flex;gap:1.5rem;align-items:center}
header a{color:#cbd2d9;text-decoration:none}header form{margin-left:auto}
main{padding:1.5rem;max-width:1200px;margin:0 auto}
table{border-collapse:collapse;width:100%;background:#fff}th,td{border:1px solid #e4e7eb;padding:.4rem .6rem;text-align:left;font-size:.9rem}
th{background:#f0f2f5}.alert{background:#fde8e8;border:1px solid #f8b4b4;padding:.75rem;margin-bottom:1rem}
.ok{background:#def7ec;border-color:#84e1bc}.muted{color:#7b8794}
.bar{height:.75rem;background:#e4e7eb}.bar>div{height:100%;background:#3f83f8;width:0}
`

// LayoutParams carries page chrome.
type LayoutParams struct {
	Title    string
	Operator string
}

// Layout wraps body in the console chrome.
func Layout(lp LayoutParams, body templ.Component) templ.Component {
	return component(func(ctx context.Context, p *page) {
		p.raw(`<!DOCTYPE html><html lang="ja"><head><meta charset="utf-8"><title>`)
		p.text(lp.Title)
		p.raw(` | Master Console</title><style>` + styles + `</style></head><body><header><strong>Master Console</strong>`)
		if lp.Operator != "" {
			p.raw(`<a href="/">Menu</a><a href="/history">Import history</a><form method="post" action="/logout"><span class="muted">`)
			p.text(lp.Operator)
			p.raw(`</span> <button type="submit">Sign out</button></form>`)
		}
		p.raw(`</header><main>`)
		p.render(ctx, body)
		p.raw(`</main></body></html>`)
	})
}

// ErrorAlert renders a user-facing error with its code and suggested action.
func ErrorAlert(message, action, code string) templ.Component {
	return component(func(ctx context.Context, p *page) {
		p.raw(`<div class="alert" role="alert"><strong>`)
		p.text(message)
		p.raw(`</strong>`)
		if code != "" {
			p.raw(` <span class="muted">(Code: `)
			p.text(code)
			p.raw(`)</span>`)
		}
		if action != "" {
			p.raw(`<div>`)
			p.text(action)
			p.raw(`</div>`)
		}
		p.raw(`</div>`)
	})
}

// Menu lists every entity with its list and import links.
func Menu(entities []core.EntityInfo) templ.Component {
	return component(func(ctx context.Context, p *page) {
		p.raw(`<h1>Master data</h1><table><thead><tr><th>Entity</th><th>Collection</th><th></th><th></th></tr></thead><tbody>`)
		for _, e := range entities {
			p.raw(`<tr><td>`)
			p.text(e.Label)
			if e.CreatesUsers {
				p.raw(` <span class="muted">(creates sign-in accounts)</span>`)
			}
			p.raw(`</td><td class="muted">`)
			p.text(e.Collection)
			p.raw(`</td><td><a`)
			p.attr("href", "/list/"+e.Key)
			p.raw(`>List</a></td><td><a`)
			p.attr("href", "/import/"+e.Key)
			p.raw(`>Import CSV</a></td></tr>`)
		}
		p.raw(`</tbody></table>`)
	})
}
