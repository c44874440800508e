// Package schemas registers every master-data import schema with the core
// registry. Import this package for its side effects.
package schemas

// Each file uses init() to register its schemas. Menu order follows the
// back-office console: staff and organization first, then fixtures,
// customers and products.

import "github.com/JonMunkholm/masterconsole/internal/core"

// col is the usual header pair: an English name from newer exports, then
// the Japanese header from the legacy system.
func col(english, japanese string) core.Selector {
	return core.Col(english, japanese)
}

// text is a text field read from a single Japanese header.
func text(name, header string) core.Field {
	return core.Text(name, core.Col(header))
}

func number(name, header string) core.Field {
	return core.Number(name, core.Col(header))
}

func flag(name, header string) core.Field {
	return core.Bool(name, core.Col(header))
}
