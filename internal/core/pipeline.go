package core

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/JonMunkholm/masterconsole/internal/docstore"
	"github.com/JonMunkholm/masterconsole/internal/identity"
	"github.com/JonMunkholm/masterconsole/internal/logging"
)

// UpdatedAtField is attached to every upserted document.
const UpdatedAtField = "updatedAt"

// Pipeline imports one file into the document store.
type Pipeline struct {
	Store    docstore.Store
	Identity identity.Provider
	Observer Observer

	// MaxFileSize caps the input read by Run. Zero disables the check.
	MaxFileSize int64

	// Now returns the write timestamp. Defaults to time.Now.
	Now func() time.Time
}

// Run imports r into the store using schema s. Errors never escape: the
// outcome, including the first failure, is reported in the Result.
func Run(ctx context.Context, s *Schema, r io.Reader, store docstore.Store, idp identity.Provider, onProgress ProgressFunc) Result {
	p := &Pipeline{Store: store, Identity: idp}
	return p.Run(ctx, s, r, onProgress)
}

// Run imports r using schema s, reporting progress after each row.
func (p *Pipeline) Run(ctx context.Context, s *Schema, r io.Reader, onProgress ProgressFunc) Result {
	started := p.now()
	obs := p.Observer
	if obs == nil {
		obs = nopObserver{}
	}
	if onProgress == nil {
		onProgress = func(Progress) {}
	}
	log := logging.FromContext(ctx).With("entity", s.Key)

	prog := Progress{Entity: s.Key, Phase: PhaseParsing}
	res := Result{Entity: s.Key, StartedAt: started}

	obs.ImportStarted(s.Key)
	fail := func(err error) Result {
		res.Phase = PhaseFailed
		res.Error = err.Error()
		res.Message = err.Error()
		res.Written = prog.Written
		res.AccountsCreated = prog.AccountsCreated
		res.Duration = p.now().Sub(started)

		prog.Phase = PhaseFailed
		prog.Error = res.Error
		prog.Message = res.Message
		onProgress(prog)

		obs.RowsWritten(s.Key, prog.Written)
		obs.AccountsCreated(s.Key, prog.AccountsCreated)
		obs.ImportFinished(s.Key, PhaseFailed, res.Duration)
		log.Warn("import failed", "written", prog.Written, "error", err)
		return res
	}

	onProgress(prog)

	data, enc, err := ReadInput(r, p.MaxFileSize)
	if err != nil {
		return fail(err)
	}
	sh, err := parseSheet(data, s.Layout)
	if err != nil {
		return fail(err)
	}

	pl := compile(s, sh)
	valid := pl.validRows(sh.rows)

	res.Total = len(valid)
	res.Skipped = len(sh.rows) - len(valid)
	prog.Total = res.Total
	prog.Skipped = res.Skipped
	prog.Phase = PhaseImporting
	obs.RowsSkipped(s.Key, res.Skipped)
	log.Info("import parsed", "rows", len(sh.rows), "valid", len(valid), "encoding", enc)
	onProgress(prog)

	var sess identity.Session
	if s.Identity != nil && p.Identity != nil {
		sess, err = p.Identity.OpenSession(ctx)
		if err != nil {
			return fail(fmt.Errorf("open identity session: %w", err))
		}
		defer func() {
			if cerr := sess.Close(); cerr != nil {
				log.Warn("close identity session", "error", cerr)
			}
		}()
	}

	for _, rw := range valid {
		if err := ctx.Err(); err != nil {
			return fail(err)
		}

		code, doc := pl.build(rw)

		if sess != nil {
			if uid, ok := p.createAccount(ctx, log, sess, s.Identity, code, doc); ok {
				doc[s.Identity.UIDField] = uid
				prog.AccountsCreated++
			}
		}

		doc[UpdatedAtField] = p.now()
		if err := p.Store.Upsert(ctx, s.Collection, code, doc); err != nil {
			log.Error("upsert failed", "code", code, "line", rw.line, "error", err)
			return fail(err)
		}

		prog.Processed++
		prog.Written++
		onProgress(prog)
	}

	res.Phase = PhaseComplete
	res.Written = prog.Written
	res.AccountsCreated = prog.AccountsCreated
	res.Message = completionMessage(s, res)
	res.Duration = p.now().Sub(started)

	prog.Phase = PhaseComplete
	prog.Message = res.Message
	onProgress(prog)

	obs.RowsWritten(s.Key, res.Written)
	obs.AccountsCreated(s.Key, res.AccountsCreated)
	obs.ImportFinished(s.Key, PhaseComplete, res.Duration)
	log.Info("import complete", "written", res.Written, "skipped", res.Skipped, "accounts", res.AccountsCreated)
	return res
}

// createAccount provisions a sign-in for the row. Provider errors such as an
// existing email are logged and the row is still written.
func (p *Pipeline) createAccount(ctx context.Context, log *slog.Logger, sess identity.Session, rule *IdentityRule, code string, doc docstore.Document) (string, bool) {
	email, _ := doc[rule.EmailColumn].(string)
	email = strings.TrimSpace(email)
	if email == "" || utf8.RuneCountInString(code) < identity.MinPasswordLength {
		return "", false
	}
	uid, err := sess.CreateAccount(ctx, email, code)
	if err != nil {
		log.Warn("account not created", "code", code, "error", err)
		return "", false
	}
	return uid, true
}

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func completionMessage(s *Schema, res Result) string {
	if s.Identity != nil {
		return fmt.Sprintf("%s: %d件 (新規Auth: %d件)", s.Done, res.Written, res.AccountsCreated)
	}
	return fmt.Sprintf("%s: %d件", s.Done, res.Written)
}

// plan is a schema resolved against one file's header.
type plan struct {
	schema  *Schema
	header  []string
	tokens  []string
	code    []int
	require [][]int
	fields  []planField
	groups  []planGroup
	flags   []int
}

type planField struct {
	name  string
	typ   FieldType
	cols  []int
	items [][]int
}

type planGroup struct {
	name   string
	fields []planField
}

func compile(s *Schema, sh *sheet) *plan {
	pl := &plan{schema: s, header: sh.header, tokens: sh.tokens}
	claimed := make(map[int]bool)
	claim := func(sel Selector) []int {
		cols := sel.resolve(sh.header)
		for _, c := range cols {
			claimed[c] = true
		}
		return cols
	}
	resolveFields := func(fields []Field) []planField {
		out := make([]planField, len(fields))
		for i, f := range fields {
			pf := planField{name: f.Name, typ: f.Type}
			if f.Type == TypeList {
				for _, item := range f.Items {
					pf.items = append(pf.items, claim(item))
				}
			} else {
				pf.cols = claim(f.From)
			}
			out[i] = pf
		}
		return out
	}

	pl.code = claim(s.Code.From)
	for _, req := range s.Require {
		pl.require = append(pl.require, claim(req))
	}
	pl.fields = resolveFields(s.Fields)
	for _, g := range s.Groups {
		pl.groups = append(pl.groups, planGroup{name: g.Name, fields: resolveFields(g.Fields)})
	}

	if s.Flags != nil {
		for i := s.Flags.FromColumn; i < len(sh.header); i++ {
			if !claimed[i] {
				pl.flags = append(pl.flags, i)
			}
		}
	}
	return pl
}

// value returns the first non-empty cleaned cell among cols.
func value(rw row, cols []int) string {
	for _, c := range cols {
		if v := CleanCell(rw.cell(c)); v != "" {
			return v
		}
	}
	return ""
}

func (pl *plan) codeOf(rw row) string {
	return pl.schema.Code.normalize(value(rw, pl.code))
}

// validRows returns the rows that carry a code and every required value.
func (pl *plan) validRows(rows []row) []row {
	valid := make([]row, 0, len(rows))
	for _, rw := range rows {
		if value(rw, pl.code) == "" {
			continue
		}
		ok := true
		for _, req := range pl.require {
			if value(rw, req) == "" {
				ok = false
				break
			}
		}
		if ok {
			valid = append(valid, rw)
		}
	}
	return valid
}

// build returns the row's code and document.
func (pl *plan) build(rw row) (string, docstore.Document) {
	s := pl.schema
	code := pl.codeOf(rw)
	doc := make(docstore.Document, len(pl.fields)+len(pl.groups)+2)

	if s.Passthrough {
		for i, h := range pl.header {
			if i < len(rw.cells) {
				doc[h] = rw.cells[i]
			} else {
				doc[h] = nil
			}
		}
	}
	if s.CodeField != "" {
		doc[s.CodeField] = code
	}

	buildFields(doc, rw, pl.fields)
	for _, g := range pl.groups {
		nested := make(map[string]any, len(g.fields))
		buildFields(nested, rw, g.fields)
		doc[g.name] = nested
	}

	if s.Flags != nil {
		doc[s.Flags.Field] = pl.flagTokens(rw)
	}
	return code, doc
}

func buildFields(dst map[string]any, rw row, fields []planField) {
	for _, f := range fields {
		if f.typ == TypeList {
			list := []string{}
			for _, cols := range f.items {
				if v := value(rw, cols); v != "" {
					list = append(list, v)
				}
			}
			dst[f.name] = list
			continue
		}
		dst[f.name] = coerce(f.typ, value(rw, f.cols))
	}
}

// flagTokens collects the token of every flag column holding "1".
func (pl *plan) flagTokens(rw row) []string {
	tokens := []string{}
	for _, i := range pl.flags {
		if strings.TrimSpace(rw.cell(i)) != "1" {
			continue
		}
		var tok string
		switch pl.schema.Flags.Tokens {
		case TokensStyleRow:
			if i < len(pl.tokens) {
				tok = pl.tokens[i]
			}
		default:
			if m := headerDigits.FindStringSubmatch(pl.header[i]); m != nil {
				tok = m[1]
			}
		}
		if tok != "" {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

// Preview parses data with s and returns up to limit documents without
// writing them, keyed by code. Skipped counts rows without a valid code.
func Preview(s *Schema, r io.Reader, limit int) ([]docstore.Record, int, error) {
	data, _, err := ReadInput(r, 0)
	if err != nil {
		return nil, 0, err
	}
	sh, err := parseSheet(data, s.Layout)
	if err != nil {
		return nil, 0, err
	}
	pl := compile(s, sh)
	valid := pl.validRows(sh.rows)
	skipped := len(sh.rows) - len(valid)
	if limit > 0 && len(valid) > limit {
		valid = valid[:limit]
	}
	out := make([]docstore.Record, len(valid))
	for i, rw := range valid {
		code, doc := pl.build(rw)
		out[i] = docstore.Record{Key: code, Doc: doc}
	}
	return out, skipped, nil
}
