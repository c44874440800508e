package templates

import (
	"context"
	"strconv"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/masterconsole/internal/core"
)

// HistoryParams fills the import history view.
type HistoryParams struct {
	Entity   string
	Entities []core.EntityInfo
	Runs     []core.RunRecord
}

// History renders recorded import runs, newest first.
func History(hp HistoryParams) templ.Component {
	return component(func(ctx context.Context, p *page) {
		p.raw(`<h1>Import history</h1><form method="get"><select name="entity"><option value="">All entities</option>`)
		for _, e := range hp.Entities {
			p.raw(`<option`)
			p.attr("value", e.Key)
			if e.Key == hp.Entity {
				p.raw(` selected`)
			}
			p.raw(`>`)
			p.text(e.Label)
			p.raw(`</option>`)
		}
		p.raw(`</select> <button type="submit">Filter</button> <a`)
		p.attr("href", "/api/history/export?entity="+hp.Entity)
		p.raw(`>Download CSV</a></form>`)

		if len(hp.Runs) == 0 {
			p.raw(`<p class="muted">No imports recorded yet.</p>`)
			return
		}
		p.raw(`<table><thead><tr><th>Started</th><th>Entity</th><th>File</th><th>Result</th><th>Written</th><th>Skipped</th><th>Operator</th><th>Duration</th></tr></thead><tbody>`)
		for _, r := range hp.Runs {
			p.raw(`<tr><td>`)
			p.text(r.StartedAt.Format("2006-01-02 15:04:05"))
			p.raw(`</td><td>`)
			p.text(r.Entity)
			p.raw(`</td><td>`)
			p.text(r.FileName)
			p.raw(`</td><td`)
			if r.Phase == core.PhaseFailed {
				p.attr("class", "alert")
			}
			p.raw(`>`)
			p.text(r.Message)
			p.raw(`</td><td>`)
			p.text(strconv.Itoa(r.Written))
			p.raw(`</td><td>`)
			p.text(strconv.Itoa(r.Skipped))
			p.raw(`</td><td>`)
			p.text(r.Operator)
			p.raw(`</td><td>`)
			p.text(strconv.FormatInt(r.DurationMs, 10) + " ms")
			p.raw(`</td></tr>`)
		}
		p.raw(`</tbody></table>`)
	})
}
