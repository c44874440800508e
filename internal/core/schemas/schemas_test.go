package schemas

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/JonMunkholm/masterconsole/internal/core"
	"github.com/JonMunkholm/masterconsole/internal/docstore"
	"github.com/JonMunkholm/masterconsole/internal/identity"
)

func runImport(t *testing.T, entity, data string) (*docstore.Memory, core.Result) {
	t.Helper()
	s, ok := core.Get(entity)
	if !ok {
		t.Fatalf("schema %q not registered", entity)
	}
	store := docstore.NewMemory()
	res := core.Run(context.Background(), s, strings.NewReader(data), store, identity.NewMemory(), nil)
	if res.Failed() {
		t.Fatalf("import %s failed: %s", entity, res.Error)
	}
	return store, res
}

func doc(t *testing.T, store *docstore.Memory, collection, key string) docstore.Document {
	t.Helper()
	rec, err := store.Get(context.Background(), collection, key)
	if err != nil {
		t.Fatalf("Get(%s, %s) error = %v", collection, key, err)
	}
	return rec.Doc
}

func TestRegistry(t *testing.T) {
	want := []string{
		"users", "offices", "teams", "makers", "hooks", "pleats",
		"installation-methods", "seam-allowances", "customers", "products",
	}
	if diff := cmp.Diff(want, core.Keys()); diff != "" {
		t.Errorf("Keys() mismatch (-want +got):\n%s", diff)
	}

	for _, s := range core.All() {
		if s.Label == "" || s.Done == "" || s.SortField == "" {
			t.Errorf("schema %s: label %q, done %q, sort field %q must be set", s.Key, s.Label, s.Done, s.SortField)
		}
		if len(s.Columns) == 0 {
			t.Errorf("schema %s has no list columns", s.Key)
		}
	}
}

func TestCompletionMessages(t *testing.T) {
	tests := []struct {
		entity string
		data   string
		want   string
	}{
		{"makers", "名称コード,名称\nM1,東洋\n", "メーカーインポート完了: 1件"},
		{"offices", "営業所コード\nO1\n", "営業所インポート完了: 1件"},
		{"hooks", "フックID,フック名\nH1,A\n", "フックマスタ インポート完了: 1件"},
		{"pleats", "ヒダコード,名称\nP1,2つ山\n", "ヒダマスタ インポート完了: 1件"},
		{"installation-methods", ",,011001\nコード,名称,正面\nI1,正面付,1\n", "取付方法マスタ インポート完了: 1件"},
		{"seam-allowances", "ジアス品番,名称\n1,縫\n", "縫い代マスタ インポート完了: 1件"},
		{"customers", "得意先コード\nC1\n", "得意先マスタ インポート完了: 1件"},
		{"products", "品番\nP1\n", "商品マスタ インポート完了: 1件"},
	}
	for _, tt := range tests {
		t.Run(tt.entity, func(t *testing.T) {
			_, res := runImport(t, tt.entity, tt.data)
			if res.Message != tt.want {
				t.Errorf("Message = %q, want %q", res.Message, tt.want)
			}
		})
	}
}

func TestUsers(t *testing.T) {
	s, _ := core.Get("users")
	store := docstore.NewMemory()
	idp := identity.NewMemory()
	data := "loginId,email,personName,office\nyamada1,yamada@example.com,山田太郎,O1\nsato,sato@example.com,佐藤,O2\n"

	res := core.Run(context.Background(), s, strings.NewReader(data), store, idp, nil)
	if res.Message != "社員インポート完了: 2件 (新規Auth: 1件)" {
		t.Errorf("Message = %q", res.Message)
	}

	u := doc(t, store, "users", "yamada1")
	if u["personName"] != "山田太郎" || u["office"] != "O1" || u["uid"] == nil {
		t.Errorf("yamada1 = %v", u)
	}
	if _, ok := doc(t, store, "users", "sato")["uid"]; ok {
		t.Error("sato has a code shorter than six characters and gets no account")
	}
	if core.DisplayName(s, u) != "山田太郎" {
		t.Errorf("DisplayName = %q", core.DisplayName(s, u))
	}
}

func TestOffices_EnglishOrJapaneseHeaders(t *testing.T) {
	store, _ := runImport(t, "offices", "officeCode,name,電話番号\nO1,東京,03-0000\n")
	o := doc(t, store, "offices", "O1")
	if o["officeCode"] != "O1" || o["name"] != "東京" || o["phoneNumber"] != "03-0000" {
		t.Errorf("O1 = %v", o)
	}

	store, _ = runImport(t, "offices", "営業所コード,名称\nO2,大阪\n")
	if o := doc(t, store, "offices", "O2"); o["name"] != "大阪" {
		t.Errorf("O2 = %v", o)
	}
}

func TestHooks(t *testing.T) {
	data := "フックID,フック名,カン上,001001 ドレープ,001002 レース,002001 シェード\nH1,Aフック,10,1,,1\n,無名,1,1,1,1\n"
	store, res := runImport(t, "hooks", data)
	if res.Written != 1 || res.Skipped != 1 {
		t.Errorf("written/skipped = %d/%d, want 1/1", res.Written, res.Skipped)
	}
	h := doc(t, store, "hooks", "H1")
	if diff := cmp.Diff([]string{"001001", "002001"}, h["supportedSpecs"]); diff != "" {
		t.Errorf("supportedSpecs mismatch (-want +got):\n%s", diff)
	}
	if h["kanMetric"] != "10" {
		t.Errorf("kanMetric = %v, want text 10", h["kanMetric"])
	}
}

func TestPleats(t *testing.T) {
	data := "\"ヒダ\n種類\nコード\",ヒダ名称,標準倍率,最小倍率,最大倍率,001001 ドレープ\nP2,2つ山,2.0,1.5,2.5,1\n"
	store, _ := runImport(t, "pleats", data)
	p := doc(t, store, "pleats", "P2")
	want := map[string]any{
		"name":         "2つ山",
		"standardRate": float64(2),
		"minRate":      1.5,
		"maxRate":      2.5,
	}
	for k, v := range want {
		if p[k] != v {
			t.Errorf("%s = %v, want %v", k, p[k], v)
		}
	}
	if diff := cmp.Diff([]string{"001001"}, p["supportedSpecs"]); diff != "" {
		t.Errorf("supportedSpecs mismatch (-want +got):\n%s", diff)
	}
}

func TestInstallationMethods(t *testing.T) {
	data := ",,011001,011002,011003\n取付方法コード,名称,正面,天井,ボックス\nI1,正面付,1,,1\nI2,,1,1,1\nI3,天井付,0,1,0\n"
	store, res := runImport(t, "installation-methods", data)
	if res.Written != 2 || res.Skipped != 1 {
		t.Errorf("written/skipped = %d/%d, want 2/1", res.Written, res.Skipped)
	}
	i1 := doc(t, store, "installation_methods", "I1")
	if i1["name"] != "正面付" {
		t.Errorf("I1 name = %v", i1["name"])
	}
	if diff := cmp.Diff([]string{"011001", "011003"}, i1["supportedSpecs"]); diff != "" {
		t.Errorf("I1 supportedSpecs mismatch (-want +got):\n%s", diff)
	}
}

func TestSeamAllowances(t *testing.T) {
	store, _ := runImport(t, "seam-allowances", "ジアス品番,名称,ゆとり係数,縦使い丈縫代\n42,標準,1.2,\n")
	d := doc(t, store, "sewing_specs", "000042")
	if d["code"] != "000042" || d["marginFactor"] != 1.2 || d["verticalLengthAllowance"] != float64(0) {
		t.Errorf("000042 = %v", d)
	}
}

func TestCustomers(t *testing.T) {
	data := "得意先コード,名称１,略称,現住所住所１,現住所電話番号,新住所住所１,与信限度額,請求先コード,紹介先コード,担当営業所コード\n" +
		"C001,山田商店,ヤマダ,東京都,03-1111,大阪府,\"500,000\",B01,R01,O1\n" +
		"C002,佐藤工務店,,,,,,,,\n"
	store, res := runImport(t, "customers", data)
	if res.Written != 2 {
		t.Fatalf("Written = %d, want 2", res.Written)
	}

	c := doc(t, store, "customers", "C001")
	checks := map[string]any{
		"customerCode":                       "C001",
		"customerName.customerName1":         "山田商店",
		"customerName.shortName":             "ヤマダ",
		"currentAddress.address1":            "東京都",
		"currentAddress.tel":                 "03-1111",
		"newAddress.address1":                "大阪府",
		"billing.creditLimit":                float64(500000),
		"billing.code":                       "B01",
		"referral.code":                      "R01",
		"salesRep.officeCode":                "O1",
		"massRetailerManagementItem.taxType": nil,
	}
	for path, want := range checks {
		got, ok := core.Lookup(c, path)
		if !ok || got != want {
			t.Errorf("%s = %v (present %v), want %v", path, got, ok, want)
		}
	}

	c2 := doc(t, store, "customers", "C002")
	if got, _ := core.Lookup(c2, "billing.creditLimit"); got != nil {
		t.Errorf("C002 creditLimit = %v, want nil", got)
	}
	s, _ := core.Get("customers")
	if core.DisplayName(s, c) != "山田商店" {
		t.Errorf("DisplayName = %q", core.DisplayName(s, c))
	}
}

func TestProducts(t *testing.T) {
	header := "品番,名称,上代,削除区分,販売可能期間FROM,商品分類1,商品分類2,対応機能1,対応機能2,対応機能3,INDEX,INDEX,発注単価,縦使い可否区分"
	row := "P100,ドレープA,\"12,000\",1,2024/04/01,CAT1,,遮光,,防炎,first,second,800,TRUE"
	store, _ := runImport(t, "products", header+"\n"+row+"\n")

	p := doc(t, store, "productData", "P100")
	checks := map[string]any{
		"productCode":                      "P100",
		"name":                             "ドレープA",
		"retailPrice":                      float64(12000),
		"isDeleted":                        true,
		"classification.category1":         "CAT1",
		"classification.category2":         nil,
		"ordering.orderPrice":              float64(800),
		"originalFabric.orderPrice":        float64(800),
		"fabricSpecs.isVerticalUseAllowed": true,
		"others.searchIndex":               "second",
	}
	for path, want := range checks {
		got, ok := core.Lookup(p, path)
		if !ok || got != want {
			t.Errorf("%s = %v (present %v), want %v", path, got, ok, want)
		}
	}

	fns, _ := core.Lookup(p, "qualityLabel.supportedFunctions")
	if diff := cmp.Diff([]string{"遮光", "防炎"}, fns); diff != "" {
		t.Errorf("supportedFunctions mismatch (-want +got):\n%s", diff)
	}
	if p["salesPeriodFrom"] == nil || p["salesPeriodTo"] != nil {
		t.Errorf("sales period = %v / %v", p["salesPeriodFrom"], p["salesPeriodTo"])
	}
}

func TestProducts_EnglishCodeHeader(t *testing.T) {
	store, _ := runImport(t, "products", "productCode,名称\nP200,レースB\n")
	if d := doc(t, store, "productData", "P200"); d["name"] != "レースB" {
		t.Errorf("P200 = %v", d)
	}
}
