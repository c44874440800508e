package templates

import (
	"context"
	"strconv"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/masterconsole/internal/core"
)

// ImportParams fills the import form.
type ImportParams struct {
	Entity      core.EntityInfo
	LongPolling bool
	MaxFileSize int64
}

// progressScript submits the form, then follows the run over SSE or long
// polling until it reaches a terminal phase.
const progressScript = `
(function(){
  var form=document.getElementById("import-form"),status=document.getElementById("status"),
      bar=document.getElementById("bar"),longPoll=form.dataset.longPoll==="true";
  function show(p){
    var pct=p.phase==="complete"?100:(p.total>0?Math.floor(p.processed*100/p.total):0);
    bar.style.width=pct+"%";
    status.className=p.phase==="failed"?"alert":(p.phase==="complete"?"alert ok":"");
    status.textContent=p.message||(p.phase+" "+p.processed+"/"+p.total);
    return p.phase==="complete"||p.phase==="failed";
  }
  function poll(id,seq){
    fetch("/api/import/runs/"+id+"/progress?after="+seq,{headers:{Accept:"application/json"}})
      .then(function(r){return r.json();})
      .then(function(p){if(!show(p)){poll(id,p.seq);}})
      .catch(function(){status.textContent="Connection lost";});
  }
  function stream(id){
    var es=new EventSource("/api/import/runs/"+id+"/progress");
    es.addEventListener("progress",function(e){if(show(JSON.parse(e.data))){es.close();}});
    es.addEventListener("complete",function(e){es.close();var r=JSON.parse(e.data);if(r.phase){show(r);}});
    es.onerror=function(){es.close();poll(id,0);};
  }
  form.addEventListener("submit",function(e){
    e.preventDefault();
    status.className="";status.textContent="Uploading...";bar.style.width="0";
    fetch(form.action,{method:"POST",body:new FormData(form),headers:{Accept:"application/json"}})
      .then(function(r){return r.json().then(function(b){return {ok:r.ok,body:b};});})
      .then(function(res){
        if(!res.ok){status.className="alert";status.textContent=res.body.message+" (Code: "+res.body.code+")";return;}
        if(longPoll){poll(res.body.run_id,0);}else{stream(res.body.run_id);}
      });
  });
})();
`

// Import renders the upload form and the live progress panel.
func Import(ip ImportParams) templ.Component {
	return component(func(ctx context.Context, p *page) {
		p.raw(`<h1>`)
		p.text(ip.Entity.Label)
		p.raw(` CSV import</h1>`)
		if ip.Entity.Layout == "style-row" {
			p.raw(`<p class="muted">The first row holds style codes, the second row the column names.</p>`)
		}
		if ip.Entity.CreatesUsers {
			p.raw(`<p class="muted">Rows with an email and a login id of six or more characters also get a sign-in account.</p>`)
		}
		p.raw(`<form id="import-form" method="post" enctype="multipart/form-data"`)
		p.attr("action", "/api/import/"+ip.Entity.Key)
		p.attr("data-long-poll", strconv.FormatBool(ip.LongPolling))
		p.raw(`><input type="file" name="file" accept=".csv,text/csv" required> <button type="submit">Import</button>`)
		if ip.MaxFileSize > 0 {
			p.raw(` <span class="muted">max `)
			p.text(strconv.FormatInt(ip.MaxFileSize/(1024*1024), 10) + " MB")
			p.raw(`</span>`)
		}
		p.raw(`</form><div class="bar"><div id="bar"></div></div><p id="status" aria-live="polite"></p>`)
		p.raw(`<p><a`)
		p.attr("href", "/history?entity="+ip.Entity.Key)
		p.raw(`>Previous imports</a></p><script>` + progressScript + `</script>`)
	})
}
