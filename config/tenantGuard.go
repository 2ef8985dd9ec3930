package config

import (
	"context"
	"strings"

	"github.com/mmdatafocus/kitchen_backend/appctx"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BusinessScopePlugin adds `business_id = ?` to queries, updates and deletes of
// models that carry a business_id column, using the business bound to the statement context.
// Raw SQL is not scoped.
type BusinessScopePlugin struct{}

func NewBusinessScopePlugin() *BusinessScopePlugin { return &BusinessScopePlugin{} }

func (p *BusinessScopePlugin) Name() string { return "business_scope" }

func (p *BusinessScopePlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()
	if err := cb.Query().Before("gorm:query").Register("business_scope:query", scopeToBusiness); err != nil {
		return err
	}
	if err := cb.Row().Before("gorm:row").Register("business_scope:row", scopeToBusiness); err != nil {
		return err
	}
	if err := cb.Update().Before("gorm:update").Register("business_scope:update", scopeToBusiness); err != nil {
		return err
	}
	return cb.Delete().Before("gorm:delete").Register("business_scope:delete", scopeToBusiness)
}

func scopeToBusiness(db *gorm.DB) {
	if db == nil || db.Statement == nil || db.Statement.Context == nil || db.Statement.Schema == nil {
		return
	}
	ctx := db.Statement.Context
	if skip, _ := appctx.GetBool(ctx, appctx.ContextKeySkipTenantScope); skip {
		return
	}
	businessId := scopedBusinessId(ctx)
	if businessId == "" {
		return
	}
	if db.Statement.Schema.LookUpField("business_id") == nil {
		return
	}
	if alreadyScoped(db.Statement.Clauses["WHERE"]) {
		return
	}
	db.Statement.AddClause(clause.Where{Exprs: []clause.Expression{
		clause.Eq{Column: clause.Column{Table: db.Statement.Table, Name: "business_id"}, Value: businessId},
	}})
}

func scopedBusinessId(ctx context.Context) string {
	v, _ := appctx.GetString(ctx, appctx.ContextKeyBusinessId)
	return v
}

func alreadyScoped(c clause.Clause) bool {
	w, ok := c.Expression.(clause.Where)
	if !ok {
		return false
	}
	for _, e := range w.Exprs {
		if mentionsBusinessId(e) {
			return true
		}
	}
	return false
}

func mentionsBusinessId(e clause.Expression) bool {
	switch v := e.(type) {
	case clause.Eq:
		return isBusinessIdColumn(v.Column)
	case clause.IN:
		return isBusinessIdColumn(v.Column)
	case clause.AndConditions:
		for _, x := range v.Exprs {
			if mentionsBusinessId(x) {
				return true
			}
		}
	case clause.Expr:
		return strings.Contains(strings.ToLower(v.SQL), "business_id")
	case clause.NamedExpr:
		return strings.Contains(strings.ToLower(v.SQL), "business_id")
	}
	return false
}

func isBusinessIdColumn(col any) bool {
	switch c := col.(type) {
	case string:
		return strings.EqualFold(c, "business_id")
	case clause.Column:
		return strings.EqualFold(c.Name, "business_id")
	}
	return false
}
