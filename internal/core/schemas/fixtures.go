package schemas

import "github.com/JonMunkholm/masterconsole/internal/core"

func init() {
	registerMakers()
	registerHooks()
	registerPleats()
	registerInstallationMethods()
	registerSeamAllowances()
}

func registerMakers() {
	core.Register(&core.Schema{
		Key:        "makers",
		Label:      "メーカー",
		Collection: "makers",
		Order:      40,
		Code:       core.CodeRule{From: core.Col("名称コード")},
		CodeField:  "code",
		Fields: []core.Field{
			core.Text("name", core.Col("名称")),
			core.Text("shortName", core.Col("略称")),
			core.Text("searchIndex", core.Col("索引")),
		},
		DisplayName:  []string{"name"},
		SearchFields: []string{"searchIndex"},
		Columns: []core.Column{
			{Title: "コード", Path: "code"},
			{Title: "メーカー名"},
			{Title: "略称", Path: "shortName"},
			{Title: "索引", Path: "searchIndex"},
		},
	})
}

// Hook files are a matrix: one column per style spec, headed by the spec
// code (for example "001001 ドレープ"), holding "1" where the hook fits.
func registerHooks() {
	core.Register(&core.Schema{
		Key:        "hooks",
		Label:      "フック",
		Done:       "フックマスタ インポート完了",
		Collection: "hooks",
		Order:      50,
		Code:       core.CodeRule{From: core.Col("フックID")},
		CodeField:  "code",
		Fields: []core.Field{
			core.Text("name", core.Col("フック名")),
			core.Text("kanMetric", core.Col("カン上")),
		},
		Flags:       &core.FlagRule{Field: "supportedSpecs", Tokens: core.TokensHeaderDigits},
		DisplayName: []string{"name"},
		Columns: []core.Column{
			{Title: "フックID", Path: "code"},
			{Title: "フック名"},
			{Title: "カン上", Path: "kanMetric"},
		},
	})
}

// Pleat headers often carry line breaks ("ヒダ\n種類\nコード"), so columns
// are found by keyword.
func registerPleats() {
	core.Register(&core.Schema{
		Key:        "pleats",
		Label:      "ヒダ種類",
		Done:       "ヒダマスタ インポート完了",
		Collection: "pleats",
		Order:      60,
		Code:       core.CodeRule{From: core.Contains("ヒダ", "コード")},
		CodeField:  "code",
		Fields: []core.Field{
			core.Text("name", core.Contains("名称")),
			core.Number("standardRate", core.Contains("標準")),
			core.Number("minRate", core.Contains("最小")),
			core.Number("maxRate", core.Contains("最大")),
		},
		Flags:       &core.FlagRule{Field: "supportedSpecs", Tokens: core.TokensHeaderDigits},
		DisplayName: []string{"name"},
		Columns: []core.Column{
			{Title: "コード", Path: "code"},
			{Title: "ヒダ名称"},
			{Title: "標準倍率", Path: "standardRate"},
			{Title: "最小", Path: "minRate"},
			{Title: "最大", Path: "maxRate"},
		},
	})
}

// Installation method files have a style-code row above the Japanese
// header; column 0 is the code and column 1 the name.
func registerInstallationMethods() {
	core.Register(&core.Schema{
		Key:        "installation-methods",
		Label:      "取付方法",
		Done:       "取付方法マスタ インポート完了",
		Collection: "installation_methods",
		Order:      70,
		Layout:     core.LayoutStyleRow,
		Code:       core.CodeRule{From: core.Position(0)},
		CodeField:  "code",
		Require:    []core.Selector{core.Position(1)},
		Fields: []core.Field{
			core.Text("name", core.Position(1)),
		},
		Flags: &core.FlagRule{
			Field:      "supportedSpecs",
			Tokens:     core.TokensStyleRow,
			FromColumn: 2,
		},
		DisplayName: []string{"name"},
		Columns: []core.Column{
			{Title: "コード", Path: "code"},
			{Title: "名称"},
			{Title: "対応スタイル", Path: "supportedSpecs"},
		},
	})
}

func registerSeamAllowances() {
	core.Register(&core.Schema{
		Key:        "seam-allowances",
		Label:      "縫い代",
		Done:       "縫い代マスタ インポート完了",
		Collection: "sewing_specs",
		Order:      80,
		Code: core.CodeRule{
			From:    core.Col("ジアス品番"),
			PadLeft: 6,
			PadChar: '0',
		},
		CodeField: "code",
		Fields: []core.Field{
			core.Text("name", core.Col("名称")),
			core.Number("marginFactor", core.Col("ゆとり係数")),
			core.Number("verticalLengthAllowance", core.Col("縦使い丈縫代")),
			core.Number("horizontalLengthAllowance", core.Col("横使い丈縫代")),
			core.Number("verticalWidthAllowance", core.Col("縦使い巾縫代")),
			core.Number("horizontalWidthAllowance", core.Col("横使い巾縫代")),
		},
		DisplayName: []string{"name"},
		Columns: []core.Column{
			{Title: "ジアス品番", Path: "code"},
			{Title: "名称"},
			{Title: "ゆとり係数", Path: "marginFactor"},
		},
	})
}
