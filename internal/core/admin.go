package core

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"golang.org/x/crypto/bcrypt"

	"festivalcore/internal/safeupdate"
	"festivalcore/pkg/domain"
)

// ErrEmptyPassword is returned when an admin is created without a password.
var ErrEmptyPassword = errors.New("admin password is required")

// AdminSchema describes how admin accounts take part in safe updates. The
// password hash is not a schema field so no update path can overwrite it.
var AdminSchema = mustSchema(&safeupdate.Schema[Admin]{
	Kind: EntityAdmin,
	ID:   func(a Admin) string { return a.ID },
	Fields: []safeupdate.Field[Admin]{
		safeupdate.Value("name", func(a Admin) string { return a.Name }, func(a *Admin, v string) { a.Name = v }),
		safeupdate.Composite("permissions",
			func(a Admin) Permissions { return Permissions(a.Permissions).Normalize() },
			func(a *Admin, v Permissions) { a.Permissions = v },
			func(v Permissions) Permissions { return slices.Clone(v) },
		),
	},
	Unique: "name",
	Elevated: map[string]domain.Permission{
		"permissions": domain.PermissionAdmin,
	},
	Validate: Admin.Validate,
})

var adminBinding = binding[Admin]{
	schema: AdminSchema,
	table: func(tx domain.Transaction) safeupdate.Table[Admin] {
		return safeupdate.TableFuncs[Admin]{FindFn: tx.FindAdmin, CountFn: tx.CountAdmins, UpdateFn: tx.UpdateAdmin}
	},
	editors:  []Permission{domain.PermissionAdmin},
	selfEdit: true,
	create:   domain.Transaction.CreateAdmin,
	remove:   domain.Transaction.DeleteAdmin,
	find:     domain.TransactionView.FindAdmin,
	list:     domain.TransactionView.ListAdmins,
}

// CreateAdmin persists a new admin account with a bcrypt hash of password.
func (s *Service) CreateAdmin(ctx context.Context, caller Caller, admin Admin, password string) (Admin, Result, error) {
	if password == "" {
		return Admin{}, Result{}, ErrEmptyPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Admin{}, Result{}, fmt.Errorf("hash password: %w", err)
	}
	admin.PasswordHash = string(hash)
	admin.Permissions = Permissions(admin.Permissions).Normalize()
	return createEntity(ctx, s, adminBinding, caller, admin)
}

// VerifyAdminPassword reports whether password matches the stored hash of
// the named admin.
func (s *Service) VerifyAdminPassword(ctx context.Context, name, password string) (Admin, bool, error) {
	admins, err := s.ListAdmins(ctx)
	if err != nil {
		return Admin{}, false, err
	}
	for _, admin := range admins {
		if admin.Name != name {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)) != nil {
			return Admin{}, false, nil
		}
		return admin, true, nil
	}
	return Admin{}, false, nil
}

// GetAdmin returns one admin account.
func (s *Service) GetAdmin(ctx context.Context, id string) (Admin, error) {
	return getEntity(ctx, s, adminBinding, id)
}

// ListAdmins returns all admin accounts in creation order.
func (s *Service) ListAdmins(ctx context.Context) ([]Admin, error) {
	return listEntities(ctx, s, adminBinding)
}

// DeleteAdmin removes an admin account.
func (s *Service) DeleteAdmin(ctx context.Context, caller Caller, id string) (Result, error) {
	return deleteEntity(ctx, s, adminBinding, caller, id)
}

// UpdateAdminSafe applies the caller's edits made against prior. Admins may
// rename themselves; changing permissions requires the admin permission.
func (s *Service) UpdateAdminSafe(ctx context.Context, caller Caller, prior, proposed Admin) (safeupdate.Report, error) {
	return safeUpdate(ctx, s, adminBinding, caller, prior, proposed)
}

// UpdateAdminUnsafe overwrites the admin's name and permissions with proposed.
func (s *Service) UpdateAdminUnsafe(ctx context.Context, proposed Admin) bool {
	return unsafeUpdate(ctx, s, adminBinding, proposed)
}

// CanOverwrite reports whether caller may force an unsafe override of the
// given kind against the entity id. An override rewrites every field, so the
// caller must hold every elevated permission of the kind as well as edit
// access. HTTP handlers check it because the override itself carries no caller.
func (s *Service) CanOverwrite(caller Caller, kind EntityType, id string) bool {
	switch kind {
	case EntityAdmin:
		return adminBinding.mayOverwrite(caller, id)
	case EntityNews:
		return newsBinding.mayOverwrite(caller, id)
	case EntityGoods:
		return goodsBinding.mayOverwrite(caller, id)
	case EntityEventTicketInfo:
		return ticketBinding.mayOverwrite(caller, id)
	default:
		return false
	}
}
