package core

import (
	"context"

	"festivalcore/internal/safeupdate"
	"festivalcore/pkg/domain"
)

// GoodsSchema describes how goods take part in safe updates. Stock-only
// editors may change the stock indicator but nothing else.
var GoodsSchema = mustSchema(&safeupdate.Schema[Goods]{
	Kind: EntityGoods,
	ID:   func(g Goods) string { return g.ID },
	Fields: []safeupdate.Field[Goods]{
		safeupdate.Value("name", func(g Goods) string { return g.Name }, func(g *Goods, v string) { g.Name = v }),
		safeupdate.Value("price", func(g Goods) int { return g.Price }, func(g *Goods, v int) { g.Price = v }),
		safeupdate.Value("stock", func(g Goods) domain.StockStatus { return g.Stock }, func(g *Goods, v domain.StockStatus) { g.Stock = v }),
		safeupdate.Value("group", func(g Goods) string { return g.Group }, func(g *Goods, v string) { g.Group = v }),
		safeupdate.Value("description", func(g Goods) string { return g.Description }, func(g *Goods, v string) { g.Description = v }),
	},
	Unique: "name",
	Elevated: map[string]domain.Permission{
		"name":        domain.PermissionGoods,
		"price":       domain.PermissionGoods,
		"group":       domain.PermissionGoods,
		"description": domain.PermissionGoods,
	},
	Validate: Goods.Validate,
})

var goodsBinding = binding[Goods]{
	schema: GoodsSchema,
	table: func(tx domain.Transaction) safeupdate.Table[Goods] {
		return safeupdate.TableFuncs[Goods]{FindFn: tx.FindGoods, CountFn: tx.CountGoods, UpdateFn: tx.UpdateGoods}
	},
	editors: []Permission{domain.PermissionGoods, domain.PermissionGoodsStock},
	create:  domain.Transaction.CreateGoods,
	remove:  domain.Transaction.DeleteGoods,
	find:    domain.TransactionView.FindGoods,
	list:    domain.TransactionView.ListGoods,
}

// CreateGoods persists a new goods item.
func (s *Service) CreateGoods(ctx context.Context, caller Caller, goods Goods) (Goods, Result, error) {
	return createEntity(ctx, s, goodsBinding, caller, goods)
}

// GetGoods returns one goods item.
func (s *Service) GetGoods(ctx context.Context, id string) (Goods, error) {
	return getEntity(ctx, s, goodsBinding, id)
}

// ListGoods returns all goods in creation order.
func (s *Service) ListGoods(ctx context.Context) ([]Goods, error) {
	return listEntities(ctx, s, goodsBinding)
}

// DeleteGoods removes a goods item.
func (s *Service) DeleteGoods(ctx context.Context, caller Caller, id string) (Result, error) {
	return deleteEntity(ctx, s, goodsBinding, caller, id)
}

// UpdateGoodsSafe applies the caller's edits made against prior.
func (s *Service) UpdateGoodsSafe(ctx context.Context, caller Caller, prior, proposed Goods) (safeupdate.Report, error) {
	return safeUpdate(ctx, s, goodsBinding, caller, prior, proposed)
}

// UpdateGoodsUnsafe overwrites the goods item with proposed.
func (s *Service) UpdateGoodsUnsafe(ctx context.Context, proposed Goods) bool {
	return unsafeUpdate(ctx, s, goodsBinding, proposed)
}
