package schemas

import "github.com/JonMunkholm/masterconsole/internal/core"

func init() {
	registerCustomers()
}

func registerCustomers() {
	core.Register(&core.Schema{
		Key:        "customers",
		Label:      "得意先",
		Done:       "得意先マスタ インポート完了",
		Collection: "customers",
		Order:      90,
		Code:       core.CodeRule{From: core.Col("得意先コード")},
		CodeField:  "customerCode",
		Fields: []core.Field{
			text("mainCustomerCode", "得意先メインコード"),
			text("subCustomerCode", "得意先サブコード"),
			text("contactPerson", "先方担当者名"),
			text("paymentReconciliationTargetType", "入金消込対象区分"),
			text("businessCategoryType", "一般工務店量販店区分"),
			text("newStatusType", "新規区分"),
			text("fbDataCreationType", "ＦＢデータ作成区分"),
			text("masterSearchTargetType", "マスタ検索対象区分"),
		},
		Groups: []core.Group{
			{Name: "customerName", Fields: []core.Field{
				text("customerName1", "名称１"),
				text("customerName2", "名称２"),
				text("shortName", "略称"),
				text("searchIndex", "索引"),
			}},
			{Name: "currentAddress", Fields: address("現住所")},
			{Name: "newAddress", Fields: address("新住所")},
			{Name: "customerType", Fields: []core.Field{
				text("customerRateClassCode", "得意先掛率分類コード"),
				text("customerType", "得意先種別区分"),
				text("customerCategoryCode1", "得意先分類コード１"),
				text("customerCategoryCode2", "得意先分類コード２"),
				text("customerCategoryCode3", "得意先分類コード３"),
				text("customerCategoryCode4", "得意先分類コード４"),
				text("customerCategoryCode5", "得意先分類コード５"),
				text("customerCategoryCode6", "得意先分類コード６"),
				text("customerCategoryCode7", "得意先分類コード７"),
				text("customerCategoryCode8", "得意先分類コード８"),
				text("customerCategoryCode9", "得意先分類コード９"),
				text("constructionCostType", "施工費区分"),
			}},
			{Name: "billing", Fields: []core.Field{
				text("type", "請求先区分"),
				text("code", "請求先コード"),
				text("method", "請求方法区分"),
				text("closingDate", "締日"),
				text("paymentCycle", "入金サイクル"),
				text("paymentDate", "入金日"),
				core.NumberOrNull("creditLimit", core.Col("与信限度額")),
				text("transferFeePatternCode", "振込手数料パターンコード"),
				text("transferFeePayerType", "振込手数料負担区分"),
				text("creditLimitUpdateDate", "与信限度額更新日"),
			}},
			{Name: "massRetailerManagementItem", Fields: []core.Field{
				text("massRetailerBillingStandardType", "量販請求基準区分"),
				text("receiptDateInputTarget", "受領日入力対象"),
				text("itemConversionRefCustomerCode", "品番変換参照得意先コード"),
				text("companyStoreCode", "社店コード"),
				text("taxType", "課税区分"),
				text("taxRoundingType", "消費税端数処理区分"),
				text("taxCalculationType", "消費税算出区分"),
				text("amountRoundingType", "金額端数処理区分"),
				text("salesSlipLineCount", "売上伝票行数"),
			}},
			{Name: "referral", Fields: []core.Field{
				text("type", "紹介先区分"),
				text("code", "紹介先コード"),
				text("hasCommission", "紹介料有無区分"),
				text("rate", "紹介料率"),
				text("referralFeeRoundingType", "紹介料端数処理区分"),
				text("referralFeePaymentTermType", "紹介料締支払区分"),
				text("referralFeePaymentDate", "紹介料支払日"),
				text("bankCode", "金融機関コード"),
				text("branchCode", "金融機関支店コード"),
				text("accountType", "口座区分"),
				text("accountNumber", "口座番号"),
				text("accountHolderName", "口座名義"),
				text("recipientName", "受取人名"),
				text("referralFeeRegNumDisplayType", "紹介料登録番号表示区分"),
				text("referralFeeConstructionCostExclusionType", "紹介料施工費対象外区分"),
				text("referralFeeTargetTaxType", "紹介料対象額税区分"),
			}},
			{Name: "salesRep", Fields: []core.Field{
				text("officeCode", "担当営業所コード"),
				text("repCode", "営業担当者コード"),
				text("prevSalesRepChangeDate", "前回担当者変更日"),
				text("prevSalesOfficeCode", "前任担当営業所コード"),
				text("prevSalesRepCode", "前任営業担当者コード"),
				text("secondPrevSalesRepChangeDate", "前々回担当者変更日"),
				text("secondPrevSalesOfficeCode", "前々任担当営業所コード"),
				text("secondPrevSalesRepCode", "前々任営業担当者コード"),
			}},
			{Name: "companyInfo", Fields: []core.Field{
				text("corporateNumber", "企業番号"),
				text("registrationNumber", "登録番号"),
				text("tdbScore", "帝国データ点数"),
				text("tdbAcquisitionDate", "帝国データ取得日"),
			}},
			{Name: "others", Fields: []core.Field{
				text("specialNote1", "特記事項１"),
				text("specialNote2", "特記事項２"),
				text("specialNote3", "特記事項３"),
				text("specialNote4", "特記事項４"),
				text("specialNote5", "特記事項５"),
				text("defaultShipToCode", "標準出荷先コード"),
				text("quotationPaymentTerms", "見積書支払条件"),
			}},
		},
		DisplayName:  []string{"customerName.customerName1", "customerName.shortName"},
		SearchFields: []string{"customerName.customerName2"},
		Columns: []core.Column{
			{Title: "コード", Path: "customerCode"},
			{Title: "得意先名"},
			{Title: "電話番号", Path: "currentAddress.tel"},
			{Title: "担当者名", Path: "contactPerson"},
			{Title: "区分", Path: "businessCategoryType"},
		},
	})
}

// address returns the six address fields for a header prefix such as
// "現住所" or "新住所".
func address(prefix string) []core.Field {
	return []core.Field{
		text("postalCode", prefix+"郵便番号"),
		text("address1", prefix+"住所１"),
		text("address2", prefix+"住所２"),
		text("address3", prefix+"住所３"),
		text("tel", prefix+"電話番号"),
		text("fax", prefix+"ＦＡＸ番号"),
	}
}
