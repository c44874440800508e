package core

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/JonMunkholm/masterconsole/internal/docstore"
	"github.com/JonMunkholm/masterconsole/internal/identity"
)

var fixedNow = time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)

func newTestPipeline(store docstore.Store, idp identity.Provider) *Pipeline {
	return &Pipeline{Store: store, Identity: idp, Now: func() time.Time { return fixedNow }}
}

func makerSchema() *Schema {
	return &Schema{
		Key:        "makers",
		Done:       "メーカーインポート完了",
		Collection: "makers",
		Code:       CodeRule{From: Col("code")},
		CodeField:  "code",
		Fields: []Field{
			Text("name", Col("name")),
			Number("rate", Col("rate")),
		},
	}
}

func collect(progress *[]Progress) ProgressFunc {
	return func(p Progress) { *progress = append(*progress, p) }
}

func getDoc(t *testing.T, store docstore.Store, collection, key string) docstore.Document {
	t.Helper()
	rec, err := store.Get(context.Background(), collection, key)
	if err != nil {
		t.Fatalf("Get(%s, %s) error = %v", collection, key, err)
	}
	return rec.Doc
}

// ----------------------------------------------------------------------------
// Row selection and counting
// ----------------------------------------------------------------------------

func TestRun_SkipsRowsWithoutCode(t *testing.T) {
	store := docstore.NewMemory()
	var progress []Progress

	res := newTestPipeline(store, nil).Run(context.Background(), makerSchema(),
		strings.NewReader("code,name,rate\nA,Alpha,1\n,Nameless,2\nB,Beta,3\n"), collect(&progress))

	if res.Failed() {
		t.Fatalf("Run() failed: %s", res.Error)
	}
	if res.Total != 2 || res.Written != 2 || res.Skipped != 1 {
		t.Errorf("Run() total/written/skipped = %d/%d/%d, want 2/2/1", res.Total, res.Written, res.Skipped)
	}
	if res.Message != "メーカーインポート完了: 2件" {
		t.Errorf("Message = %q", res.Message)
	}
	if store.Len("makers") != 2 {
		t.Errorf("stored %d documents, want 2", store.Len("makers"))
	}

	want := docstore.Document{"code": "A", "name": "Alpha", "rate": float64(1), UpdatedAtField: fixedNow}
	if diff := cmp.Diff(want, getDoc(t, store, "makers", "A")); diff != "" {
		t.Errorf("document A mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_ProgressSequence(t *testing.T) {
	store := docstore.NewMemory()
	var progress []Progress

	newTestPipeline(store, nil).Run(context.Background(), makerSchema(),
		strings.NewReader("code,name\nA,a\nB,b\nC,c\nD,d\n"), collect(&progress))

	if len(progress) < 3 {
		t.Fatalf("got %d progress updates, want at least 3", len(progress))
	}
	if progress[0].Phase != PhaseParsing {
		t.Errorf("first phase = %s, want parsing", progress[0].Phase)
	}
	last := progress[len(progress)-1]
	if last.Phase != PhaseComplete || last.Percent() != 100 {
		t.Errorf("last update = %+v, want complete at 100%%", last)
	}

	prev := -1
	for _, p := range progress {
		if p.Phase == PhaseImporting {
			if p.Total != 4 {
				t.Errorf("Total = %d, want 4", p.Total)
			}
			if p.Processed < prev {
				t.Errorf("Processed went backwards: %d after %d", p.Processed, prev)
			}
			prev = p.Processed
		}
	}
	if prev != 4 {
		t.Errorf("final Processed = %d, want 4", prev)
	}
}

func TestProgress_Percent(t *testing.T) {
	tests := []struct {
		name string
		p    Progress
		want int
	}{
		{"no rows yet", Progress{Phase: PhaseImporting}, 0},
		{"half", Progress{Phase: PhaseImporting, Total: 4, Processed: 2}, 50},
		{"rounds down", Progress{Phase: PhaseImporting, Total: 3, Processed: 1}, 33},
		{"capped", Progress{Phase: PhaseImporting, Total: 2, Processed: 5}, 100},
		{"complete with zero rows", Progress{Phase: PhaseComplete}, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.Percent(); got != tt.want {
				t.Errorf("Percent() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRun_EmptyFileCompletes(t *testing.T) {
	res := newTestPipeline(docstore.NewMemory(), nil).Run(context.Background(), makerSchema(), strings.NewReader(""), nil)
	if res.Phase != PhaseComplete || res.Written != 0 {
		t.Errorf("Run(empty) = %+v, want complete with 0 written", res)
	}
	if res.Message != "メーカーインポート完了: 0件" {
		t.Errorf("Message = %q", res.Message)
	}
}

// ----------------------------------------------------------------------------
// Failures
// ----------------------------------------------------------------------------

func TestRun_StopsAtFirstWriteFailure(t *testing.T) {
	store := docstore.NewMemory()
	boom := errors.New("connection reset by peer")
	store.FailWith(func(collection, key string) error {
		if key == "B" {
			return boom
		}
		return nil
	})

	var progress []Progress
	res := newTestPipeline(store, nil).Run(context.Background(), makerSchema(),
		strings.NewReader("code,name\nA,a\nB,b\nC,c\n"), collect(&progress))

	if res.Phase != PhaseFailed {
		t.Fatalf("Phase = %s, want failed", res.Phase)
	}
	if res.Error != boom.Error() || res.Message != boom.Error() {
		t.Errorf("Error/Message = %q/%q, want %q", res.Error, res.Message, boom.Error())
	}
	if res.Written != 1 {
		t.Errorf("Written = %d, want 1", res.Written)
	}
	if store.Len("makers") != 1 {
		t.Errorf("stored %d documents, want 1 (rows after the failure are not attempted)", store.Len("makers"))
	}
	if last := progress[len(progress)-1]; last.Phase != PhaseFailed || last.Error != boom.Error() {
		t.Errorf("last progress = %+v, want failed", last)
	}
}

func TestRun_FileTooLarge(t *testing.T) {
	p := newTestPipeline(docstore.NewMemory(), nil)
	p.MaxFileSize = 8
	res := p.Run(context.Background(), makerSchema(), strings.NewReader("code,name\nA,a\n"), nil)
	if !strings.HasPrefix(res.Error, "file too large") {
		t.Errorf("Error = %q, want file too large", res.Error)
	}
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := docstore.NewMemory()
	res := newTestPipeline(store, nil).Run(ctx, makerSchema(), strings.NewReader("code\nA\nB\n"), nil)
	if res.Error != context.Canceled.Error() {
		t.Errorf("Error = %q, want %q", res.Error, context.Canceled.Error())
	}
	if store.Len("makers") != 0 {
		t.Errorf("stored %d documents after cancel, want 0", store.Len("makers"))
	}
}

// ----------------------------------------------------------------------------
// Document shape
// ----------------------------------------------------------------------------

func TestRun_MergeKeepsUnmappedFields(t *testing.T) {
	store := docstore.NewMemory()
	ctx := context.Background()
	if err := store.Upsert(ctx, "makers", "A", docstore.Document{"name": "old", "note": "keep"}); err != nil {
		t.Fatal(err)
	}

	newTestPipeline(store, nil).Run(ctx, makerSchema(), strings.NewReader("code,name\nA,new\n"), nil)

	doc := getDoc(t, store, "makers", "A")
	if doc["name"] != "new" || doc["note"] != "keep" {
		t.Errorf("merged doc = %v, want name=new and note=keep", doc)
	}
}

func TestRun_CodePadding(t *testing.T) {
	s := &Schema{
		Key:        "seams",
		Collection: "seams",
		Code:       CodeRule{From: Col("品番"), PadLeft: 6},
		CodeField:  "code",
	}
	store := docstore.NewMemory()
	newTestPipeline(store, nil).Run(context.Background(), s, strings.NewReader("品番\n123\n1234567\n"), nil)

	if doc := getDoc(t, store, "seams", "000123"); doc["code"] != "000123" {
		t.Errorf("code = %v, want 000123", doc["code"])
	}
	getDoc(t, store, "seams", "1234567")
}

func TestRun_GroupsAndLists(t *testing.T) {
	s := &Schema{
		Key:        "customers",
		Collection: "customers",
		Code:       CodeRule{From: Col("得意先コード", "customerCode")},
		Groups: []Group{
			{Name: "billing", Fields: []Field{
				NumberOrNull("creditLimit", Col("与信限度額")),
				Bool("closed", Col("締め")),
			}},
		},
		Fields: []Field{
			List("tags", Col("tag1"), Col("tag2"), Col("tag3")),
			Date("since", Col("since")),
		},
	}
	store := docstore.NewMemory()
	data := "customerCode,与信限度額,締め,tag1,tag2,tag3,since\nC1,,TRUE,x,,z,2024/1/5\nC2,\"1,000\",0,,,,\n"
	res := newTestPipeline(store, nil).Run(context.Background(), s, strings.NewReader(data), nil)
	if res.Failed() {
		t.Fatalf("Run() failed: %s", res.Error)
	}

	c1 := getDoc(t, store, "customers", "C1")
	wantBilling := map[string]any{"creditLimit": nil, "closed": true}
	if diff := cmp.Diff(wantBilling, c1["billing"]); diff != "" {
		t.Errorf("C1 billing mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"x", "z"}, c1["tags"]); diff != "" {
		t.Errorf("C1 tags mismatch (-want +got):\n%s", diff)
	}
	if got, _ := c1["since"].(time.Time); !got.Equal(time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("C1 since = %v", c1["since"])
	}

	c2 := getDoc(t, store, "customers", "C2")
	if got := c2["billing"].(map[string]any)["creditLimit"]; got != float64(1000) {
		t.Errorf("C2 creditLimit = %v, want 1000", got)
	}
	if diff := cmp.Diff([]string{}, c2["tags"]); diff != "" {
		t.Errorf("C2 tags mismatch (-want +got):\n%s", diff)
	}
	if c2["since"] != nil {
		t.Errorf("C2 since = %v, want nil", c2["since"])
	}
}

func TestRun_ColumnFallback(t *testing.T) {
	s := &Schema{
		Key:        "fallback",
		Collection: "fallback",
		Code:       CodeRule{From: Col("品番", "productCode")},
	}
	store := docstore.NewMemory()
	newTestPipeline(store, nil).Run(context.Background(), s, strings.NewReader("品番,productCode\n,P2\nP1,X\n"), nil)

	getDoc(t, store, "fallback", "P2")
	getDoc(t, store, "fallback", "P1")
	if store.Len("fallback") != 2 {
		t.Errorf("stored %d documents, want 2", store.Len("fallback"))
	}
}

func TestRun_HeaderDigitFlags(t *testing.T) {
	s := &Schema{
		Key:        "hooks",
		Collection: "hooks",
		Code:       CodeRule{From: Col("フックID")},
		Fields:     []Field{Text("name", Col("フック名"))},
		Flags:      &FlagRule{Field: "styles", Tokens: TokensHeaderDigits},
	}
	data := "フックID,フック名,011001 レール,011002 ポール,備考\nH1,A,1,0,1\nH2,B, 1 ,1,\nH3,C,,,\n"
	store := docstore.NewMemory()
	newTestPipeline(store, nil).Run(context.Background(), s, strings.NewReader(data), nil)

	tests := map[string][]string{
		"H1": {"011001"},
		"H2": {"011001", "011002"},
		"H3": {},
	}
	for code, want := range tests {
		if diff := cmp.Diff(want, getDoc(t, store, "hooks", code)["styles"]); diff != "" {
			t.Errorf("%s styles mismatch (-want +got):\n%s", code, diff)
		}
	}
}

func TestRun_StyleRowFlags(t *testing.T) {
	s := &Schema{
		Key:        "methods",
		Collection: "methods",
		Layout:     LayoutStyleRow,
		Code:       CodeRule{From: Position(0)},
		Require:    []Selector{Position(1)},
		Fields:     []Field{Text("name", Position(1))},
		Flags:      &FlagRule{Field: "styles", Tokens: TokensStyleRow, FromColumn: 2},
	}
	data := ",,011001,011002\nコード,名称,正面付,天井付\nM1,正面,1,1\nM2,,1,0\nM3,天井,0,1\n"
	store := docstore.NewMemory()
	res := newTestPipeline(store, nil).Run(context.Background(), s, strings.NewReader(data), nil)

	if res.Written != 2 || res.Skipped != 1 {
		t.Errorf("written/skipped = %d/%d, want 2/1", res.Written, res.Skipped)
	}
	if diff := cmp.Diff([]string{"011001", "011002"}, getDoc(t, store, "methods", "M1")["styles"]); diff != "" {
		t.Errorf("M1 styles mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"011002"}, getDoc(t, store, "methods", "M3")["styles"]); diff != "" {
		t.Errorf("M3 styles mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_StyleRowMissingHeader(t *testing.T) {
	s := &Schema{Key: "m", Collection: "m", Layout: LayoutStyleRow, Code: CodeRule{From: Position(0)}}
	res := newTestPipeline(docstore.NewMemory(), nil).Run(context.Background(), s, strings.NewReader(",,1\nコード,名称\n"), nil)
	if res.Error != ErrMissingHeaderRows.Error() {
		t.Errorf("Error = %q, want %q", res.Error, ErrMissingHeaderRows.Error())
	}
}

// ----------------------------------------------------------------------------
// Account provisioning
// ----------------------------------------------------------------------------

func userSchema() *Schema {
	return &Schema{
		Key:         "users",
		Done:        "社員インポート完了",
		Collection:  "users",
		Code:        CodeRule{From: Col("loginId")},
		Passthrough: true,
		Identity:    &IdentityRule{EmailColumn: "email", UIDField: "uid"},
	}
}

func TestRun_CreatesAccounts(t *testing.T) {
	store := docstore.NewMemory()
	idp := identity.NewMemory("dup@example.com:secret1")
	data := "loginId,email,氏名\nuser01,a@example.com,山田\nabc,b@example.com,短い\nuser03,,無し\nuser04,dup@example.com,重複\n"

	res := newTestPipeline(store, idp).Run(context.Background(), userSchema(), strings.NewReader(data), nil)

	if res.Written != 4 || res.AccountsCreated != 1 {
		t.Errorf("written/accounts = %d/%d, want 4/1", res.Written, res.AccountsCreated)
	}
	if res.Message != "社員インポート完了: 4件 (新規Auth: 1件)" {
		t.Errorf("Message = %q", res.Message)
	}
	if idp.SessionsOpened() != 1 || idp.OpenSessions() != 0 {
		t.Errorf("sessions opened/open = %d/%d, want 1/0", idp.SessionsOpened(), idp.OpenSessions())
	}
	if !idp.HasAccount("a@example.com") || idp.HasAccount("b@example.com") {
		t.Error("account for a@example.com only expected")
	}

	u1 := getDoc(t, store, "users", "user01")
	if uid, _ := u1["uid"].(string); uid == "" {
		t.Errorf("user01 uid missing: %v", u1)
	}
	if u1["氏名"] != "山田" || u1["loginId"] != "user01" {
		t.Errorf("user01 passthrough = %v", u1)
	}
	if _, ok := getDoc(t, store, "users", "user04")["uid"]; ok {
		t.Error("user04 uid set although the email already existed")
	}
}

func TestRun_AccountCodeCountsCharacters(t *testing.T) {
	store := docstore.NewMemory()
	idp := identity.NewMemory()
	data := "loginId,email,氏名\nあい,wide@example.com,幅広\nかきくけこさ,six@example.com,六字\n"

	res := newTestPipeline(store, idp).Run(context.Background(), userSchema(), strings.NewReader(data), nil)

	if res.Written != 2 || res.AccountsCreated != 1 {
		t.Errorf("written/accounts = %d/%d, want 2/1", res.Written, res.AccountsCreated)
	}
	if idp.HasAccount("wide@example.com") {
		t.Error("two-character code created an account")
	}
	if !idp.HasAccount("six@example.com") {
		t.Error("six-character code did not create an account")
	}
}

func TestRun_PassthroughShortRow(t *testing.T) {
	store := docstore.NewMemory()
	newTestPipeline(store, identity.NewMemory()).Run(context.Background(), userSchema(), strings.NewReader("loginId,email,氏名\nuser09\n"), nil)

	doc := getDoc(t, store, "users", "user09")
	if v, ok := doc["氏名"]; !ok || v != nil {
		t.Errorf("missing passthrough cell = %v (present %v), want nil", v, ok)
	}
}

// ----------------------------------------------------------------------------
// Preview
// ----------------------------------------------------------------------------

func TestPreview(t *testing.T) {
	recs, skipped, err := Preview(makerSchema(), strings.NewReader("code,name\nA,a\n,x\nB,b\nC,c\n"), 2)
	if err != nil {
		t.Fatalf("Preview() error = %v", err)
	}
	if skipped != 1 {
		t.Errorf("skipped = %d, want 1", skipped)
	}
	if len(recs) != 2 || recs[0].Key != "A" || recs[1].Key != "B" {
		t.Errorf("Preview() = %+v, want A and B", recs)
	}
	if _, ok := recs[0].Doc[UpdatedAtField]; ok {
		t.Error("preview documents carry no write timestamp")
	}
}
