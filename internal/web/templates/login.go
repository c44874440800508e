package templates

import (
	"context"

	"github.com/a-h/templ"
)

// LoginParams fills the sign-in form.
type LoginParams struct {
	Email string
	Next  string
	Error templ.Component
}

// Login renders the operator sign-in form.
func Login(lp LoginParams) templ.Component {
	return component(func(ctx context.Context, p *page) {
		p.raw(`<h1>Sign in</h1>`)
		p.render(ctx, lp.Error)
		p.raw(`<form method="post" action="/login"><input type="hidden" name="next"`)
		p.attr("value", lp.Next)
		p.raw(`><p><label>Email<br><input type="email" name="email" required autocomplete="username"`)
		p.attr("value", lp.Email)
		p.raw(`></label></p><p><label>Password<br><input type="password" name="password" required autocomplete="current-password"></label></p>`)
		p.raw(`<p><button type="submit">Sign in</button></p></form>`)
	})
}
