package schemas

import "github.com/JonMunkholm/masterconsole/internal/core"

func init() {
	registerUsers()
	registerOffices()
	registerTeams()
}

func registerUsers() {
	core.Register(&core.Schema{
		Key:         "users",
		Label:       "社員",
		Collection:  "users",
		Order:       10,
		Code:        core.CodeRule{From: core.Col("loginId")},
		Passthrough: true,
		Identity: &core.IdentityRule{
			EmailColumn: "email",
			UIDField:    "uid",
		},
		SortField:    "loginId",
		DisplayName:  []string{"personName", "name", "氏名", "名前"},
		SearchFields: []string{"email"},
		Columns: []core.Column{
			{Title: "ログインID", Path: "loginId"},
			{Title: "氏名"},
			{Title: "Email", Path: "email"},
			{Title: "認証UID", Path: "uid"},
		},
	})
}

func registerOffices() {
	core.Register(&core.Schema{
		Key:        "offices",
		Label:      "営業所",
		Collection: "offices",
		Order:      20,
		Code:       core.CodeRule{From: col("officeCode", "営業所コード")},
		CodeField:  "officeCode",
		Fields: []core.Field{
			core.Text("name", col("name", "名称")),
			core.Text("shortName", col("shortName", "略称")),
			core.Text("searchIndex", col("searchIndex", "索引")),
			core.Text("postalCode", col("postalCode", "郵便番号")),
			core.Text("address1", col("address1", "住所１")),
			core.Text("address2", col("address2", "住所２")),
			core.Text("address3", col("address3", "住所３")),
			core.Text("phoneNumber", col("phoneNumber", "電話番号")),
			core.Text("faxNumber", col("faxNumber", "ＦＡＸ番号")),
			core.Text("constructionDeptCode", col("constructionDeptCode", "工事部コード")),
			core.Text("generalSewingTeamCode", col("generalSewingTeamCode", "一般工務店本縫い縫製チームコード")),
			core.Text("massRetailerSewingTeamCode", col("massRetailerSewingTeamCode", "量販店本縫い縫製チームコード")),
			core.Text("styleSewingTeamCode", col("styleSewingTeamCode", "スタイル縫製チームコード")),
			core.Text("mechSewingTeamCode", col("mechSewingTeamCode", "メカ縫製チームコード")),
			core.Text("estimateStatus", col("estimateStatus", "概算確定可能区分")),
			core.Text("specialDiscountLimit", col("specialDiscountLimit", "特別値引率上限")),
			core.Text("salesMarginUpperLimit", col("salesMarginUpperLimit", "営業粗利率上限")),
			core.Text("salesMarginLowerLimit", col("salesMarginLowerLimit", "営業粗利率下限")),
			core.Text("bankAccount1", col("bankAccount1", "振込口座情報１")),
			core.Text("bankAccount2", col("bankAccount2", "振込口座情報２")),
			core.Text("bankAccount3", col("bankAccount3", "振込口座情報３")),
			core.Text("bankAccount4", col("bankAccount4", "振込口座情報４")),
			core.Text("identificationSymbol", col("identificationSymbol", "識別記号")),
			core.Text("tollFreeNumber", col("tollFreeNumber", "フリーダイヤル")),
		},
		DisplayName:  []string{"name"},
		SearchFields: []string{"shortName"},
		Columns: []core.Column{
			{Title: "コード", Path: "officeCode"},
			{Title: "営業所名"},
			{Title: "略称", Path: "shortName"},
			{Title: "電話番号", Path: "phoneNumber"},
			{Title: "住所", Path: "address1"},
		},
	})
}

func registerTeams() {
	core.Register(&core.Schema{
		Key:        "teams",
		Label:      "チーム",
		Collection: "teams",
		Order:      30,
		Code:       core.CodeRule{From: col("teamCode", "営業チームコード")},
		CodeField:  "teamCode",
		Fields: []core.Field{
			core.Text("officeCode", col("officeCode", "営業所コード")),
			core.Text("name", col("name", "名称")),
			core.Text("shortName", col("shortName", "略称")),
			core.Text("searchIndex", col("searchIndex", "索引")),
		},
		DisplayName:  []string{"name"},
		SearchFields: []string{"officeCode"},
		Columns: []core.Column{
			{Title: "チームコード", Path: "teamCode"},
			{Title: "チーム名称"},
			{Title: "略称", Path: "shortName"},
			{Title: "所属営業所CD", Path: "officeCode"},
		},
	})
}
