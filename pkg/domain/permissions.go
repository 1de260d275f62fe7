package domain

import (
	"fmt"
	"slices"
	"strings"
)

// Permission is a capability tag granted to an admin account.
type Permission string

// Permission tags understood by the admin console.
const (
	// PermissionAdmin allows managing admin accounts and their permissions.
	PermissionAdmin Permission = "admin"
	// PermissionNews allows editing news articles.
	PermissionNews Permission = "news"
	// PermissionGoods allows full edits of goods, including renames and prices.
	PermissionGoods Permission = "goods"
	// PermissionGoodsStock allows updating only the stock indicator of goods.
	PermissionGoodsStock Permission = "goods_stock"
	// PermissionTicket allows editing ticket events.
	PermissionTicket Permission = "ticket"
)

var knownPermissions = []Permission{
	PermissionAdmin,
	PermissionNews,
	PermissionGoods,
	PermissionGoodsStock,
	PermissionTicket,
}

// AllPermissions returns every known permission tag.
func AllPermissions() Permissions {
	return slices.Clone(Permissions(knownPermissions))
}

// ParsePermission validates a raw permission tag.
func ParsePermission(raw string) (Permission, error) {
	p := Permission(strings.TrimSpace(strings.ToLower(raw)))
	if !slices.Contains(knownPermissions, p) {
		return "", fmt.Errorf("unknown permission %q", raw)
	}
	return p, nil
}

// Permissions is the set of capabilities held by a caller.
type Permissions []Permission

// Has reports whether p is part of the set.
func (ps Permissions) Has(p Permission) bool {
	return slices.Contains(ps, p)
}

// Normalize returns a sorted copy without duplicates.
func (ps Permissions) Normalize() Permissions {
	out := slices.Clone(ps)
	slices.Sort(out)
	return slices.Compact(out)
}

// Caller identifies who submits a request and what they may do. It is passed
// explicitly into every operation instead of being looked up from ambient state.
type Caller struct {
	ID          string
	Permissions Permissions
}
