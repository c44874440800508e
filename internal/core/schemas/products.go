package schemas

import (
	"fmt"

	"github.com/JonMunkholm/masterconsole/internal/core"
)

func init() {
	registerProducts()
}

func registerProducts() {
	core.Register(&core.Schema{
		Key:        "products",
		Label:      "商品",
		Done:       "商品マスタ インポート完了",
		Collection: "productData",
		Order:      100,
		Code:       core.CodeRule{From: core.Col("品番", "productCode")},
		CodeField:  "productCode",
		Fields: []core.Field{
			text("productType", "商品区分"),
			text("name", "名称"),
			text("shortName", "略称"),
			text("searchIndex", "索引"),
			text("unitCode", "単位コード"),
			number("retailPrice", "上代"),
			number("standardRate", "標準掛率"),
			flag("isDeleted", "削除区分"),
			core.Date("salesPeriodFrom", core.Col("販売可能期間FROM")),
			core.Date("salesPeriodTo", core.Col("販売可能期間TO")),
			text("taxType", "課税区分"),
		},
		Groups: []core.Group{
			{Name: "classification", Fields: append(numbered("category", "商品分類", 10),
				text("rateClassCode", "商品掛率分類コード"),
			)},
			{Name: "ordering", Fields: []core.Field{
				text("arrangementType", "手配区分"),
				text("departmentType", "発注部門区分"),
				text("orderUnitCode", "発注単位コード"),
				text("leadTime", "発注リードタイム"),
				text("makerCode", "メーカーコード"),
				text("standardSupplierCode", "標準仕入先コード"),
				text("makerPartNumber", "メーカー品番"),
				text("matrixRefPartNumber", "マトリックス単価参照品番"),
				number("orderPrice", "発注単価"),
				number("purchaseRate", "仕入掛率"),
			}},
			{Name: "rail", Fields: []core.Field{
				text("screwPositionToKan", "ビス位置〜カン"),
				text("railSize", "レールサイズ"),
				text("installationType", "取付区分"),
			}},
			{Name: "specs", Fields: []core.Field{
				text("designatedDeliveryType", "指定配送便区分"),
				flag("hasAssembly", "組立品有無区分"),
				text("styleSpecWidth", "スタイル仕様巾"),
			}},
			{Name: "fabricSpecs", Fields: []core.Field{
				text("specCode", "生地特製コード"),
				number("retailWidth", "上代生地巾"),
				number("costWidth", "原価生地巾"),
				text("defaultUsageType", "生地使い区分初期値"),
				flag("isVerticalUseAllowed", "縦使い可否区分"),
				flag("isHorizontalUseAllowed", "横使い可否区分"),
				number("repeatVertical", "縦リピート"),
				number("repeatHorizontal", "横リピート"),
				flag("isPatternMatch", "エバ柄区分"),
				flag("isFrillAllowed", "フリル可否区分"),
				flag("isPFAllowed", "PF可能区分"),
				flag("isBWAllowed", "BW可能区分"),
				text("defaultTasselColorCode", "タッセルループ色コード初期値"),
				text("defaultHemCode", "裾返コード初期値"),
				flag("isFireLabelAttachable", "防炎ラベル取付可否区分"),
				flag("isFireProofProcessed", "防炎加工済区分"),
				text("shapeMemoryIconCode", "形態安定加工有絵表示コード"),
				text("noShapeMemoryIconCode", "形態安定加工無絵表示コード"),
				text("ironingTemperature", "アイロン温度"),
				flag("isSteamAllowed", "スチーム可否区分"),
				text("comment1", "コメント1"),
				text("comment2", "コメント2"),
				text("comment3", "コメント3"),
			}},
			{Name: "originalFabric", Fields: []core.Field{
				text("makerCode", "オリジナル生地メーカーコード"),
				text("supplierCode", "オリジナル生地仕入先コード"),
				text("developmentCode", "開発コード(デザイン)"),
				text("colorCode", "色番"),
				text("currencyCode", "発注通貨コード"),
				number("orderPrice", "発注単価"),
				text("brandCode", "ブランドコード"),
			}},
			{Name: "inventory", Fields: []core.Field{
				text("managementType", "在庫管理区分"),
				number("evaluationPrice", "在庫評価単価"),
				text("partNumber", "在庫品番"),
				number("scrapStandardMeter", "端反基準M"),
			}},
			{Name: "qualityLabel", Fields: []core.Field{
				text("composition1", "組成1"),
				text("composition2", "組成2"),
				text("dimChangeWashVertical", "寸法変化率 水洗いタテ"),
				text("dimChangeWashHorizontal", "寸法変化率 水洗いヨコ"),
				text("dimChangeDryVertical", "寸法変化率ドライタテ"),
				text("dimChangeDryHorizontal", "寸法変化率ドライヨコ"),
				text("originCountryCode", "原産国コード"),
				text("shadingGrade", "遮光階級"),
				core.List("supportedFunctions", columns("対応機能", 9)...),
				text("handRaiseType", "手上げ区分"),
				text("specialProductType", "特殊商品区分"),
				text("specialNote1", "特記事項1"),
				text("specialNote2", "特記事項2"),
				text("specialNote3", "特記事項3"),
				text("stepPatternType", "ステップ柄区分"),
				text("processingTemperature", "加工温度"),
				text("threadNumber", "糸番号"),
				text("sewingMethodCode1", "縫い方コード1"),
				text("sewingMethodCode2", "縫い方コード2"),
				text("sewingMethodCode3", "縫い方コード3"),
				text("sewingMethodCode4", "縫い方コード4"),
			}},
			{Name: "others", Fields: []core.Field{
				text("standardPairPartNumber", "標準ペア品番"),
				text("defaultInstallMethodCode", "レール取付方法コード初期値"),
				text("colorName", "色名"),
				text("defaultRollLockType", "巻きロック初期値区分"),
				flag("isRetailPriceHidden", "発注書上代非表示区分"),
				// The second INDEX column of the export.
				text("searchIndex", "INDEX.1"),
				text("searchRailName", "検索レール名"),
				text("capName", "キャップ名"),
				text("lightPartNumber", "LIGHT品番"),
				text("lightOperationMethod", "LIGHT操作方法"),
				text("lightType", "LIGHT種類"),
				text("otherOrderPart1", "その他手配品1/セット名"),
				text("otherOrderPart2", "その他手配品2"),
				text("otherOrderPart3", "その他手配品3"),
				text("productWarningComment", "商品注意コメント"),
				text("registeredLoginId", "登録ログインID"),
			}},
		},
		DisplayName: []string{"name", "shortName"},
		Columns: []core.Column{
			{Title: "品番", Path: "productCode"},
			{Title: "商品区分", Path: "productType"},
			{Title: "名称"},
			{Title: "上代", Path: "retailPrice"},
			{Title: "分類1", Path: "classification.category1"},
			{Title: "生地巾", Path: "fabricSpecs.retailWidth"},
			{Title: "在庫管理", Path: "inventory.managementType"},
		},
	})
}

// numbered returns text fields name1..nameN read from header1..headerN.
func numbered(name, header string, n int) []core.Field {
	fields := make([]core.Field, n)
	for i := range fields {
		fields[i] = text(fmt.Sprintf("%s%d", name, i+1), fmt.Sprintf("%s%d", header, i+1))
	}
	return fields
}

// columns returns selectors for header1..headerN.
func columns(header string, n int) []core.Selector {
	sels := make([]core.Selector, n)
	for i := range sels {
		sels[i] = core.Col(fmt.Sprintf("%s%d", header, i+1))
	}
	return sels
}
