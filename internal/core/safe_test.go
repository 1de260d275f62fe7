package core

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"festivalcore/internal/safeupdate"
	"festivalcore/pkg/domain"
)

func TestUpdateGoodsSafeOutcomes(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := t.Context()
	tee := mustCreateGoods(t, svc, sampleGoods("tee"))
	mustCreateGoods(t, svc, sampleGoods("towel"))

	unchanged, err := svc.UpdateGoodsSafe(ctx, rootCaller, tee, tee)
	if err != nil || unchanged.Outcome != safeupdate.NoChange {
		t.Fatalf("expected NoChange, got %+v %v", unchanged, err)
	}

	proposed := tee
	proposed.Price = 1800
	rep, err := svc.UpdateGoodsSafe(ctx, rootCaller, tee, proposed)
	if err != nil || rep.Outcome != safeupdate.Success {
		t.Fatalf("expected Success, got %+v %v", rep, err)
	}
	if !slices.Equal(rep.Changed, []string{"price"}) {
		t.Fatalf("expected only price changed, got %v", rep.Changed)
	}
	stored, _ := svc.GetGoods(ctx, tee.ID)
	if stored.Price != 1800 || !stored.UpdatedAt.After(stored.CreatedAt) {
		t.Fatalf("unexpected stored goods %+v", stored)
	}

	// The client still holds the original snapshot and edits price again.
	stale := tee
	stale.Price = 2000
	stale.Description = "limited"
	rep, err = svc.UpdateGoodsSafe(ctx, rootCaller, tee, stale)
	if err != nil || rep.Outcome != safeupdate.Overwrite {
		t.Fatalf("expected Overwrite, got %+v %v", rep, err)
	}
	if !slices.Equal(rep.Conflicts, []string{"price"}) {
		t.Fatalf("expected price conflict, got %v", rep.Conflicts)
	}
	after, _ := svc.GetGoods(ctx, tee.ID)
	if after.Description != tee.Description || after.Price != 1800 {
		t.Fatalf("overwrite outcome must not write anything: %+v", after)
	}

	rename := stored
	rename.Name = "towel"
	rep, err = svc.UpdateGoodsSafe(ctx, rootCaller, stored, rename)
	if err != nil || rep.Outcome != safeupdate.NameExists {
		t.Fatalf("expected NameExists, got %+v %v", rep, err)
	}

	other := stored
	other.ID = "someone-else"
	rep, err = svc.UpdateGoodsSafe(ctx, rootCaller, stored, other)
	if err != nil || rep.Outcome != safeupdate.Invalid {
		t.Fatalf("expected Invalid for id mismatch, got %+v %v", rep, err)
	}

	negative := stored
	negative.Price = -1
	rep, err = svc.UpdateGoodsSafe(ctx, rootCaller, stored, negative)
	if err != nil || rep.Outcome != safeupdate.Invalid {
		t.Fatalf("expected Invalid for negative price, got %+v %v", rep, err)
	}

	if _, err := svc.DeleteGoods(ctx, rootCaller, tee.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	gone := stored
	gone.Stock = domain.StockLow
	rep, err = svc.UpdateGoodsSafe(ctx, rootCaller, stored, gone)
	if err != nil || rep.Outcome != safeupdate.NotFound {
		t.Fatalf("expected NotFound, got %+v %v", rep, err)
	}
}

// identityOutcomes checks that a mismatched id is Invalid and an unchanged
// snapshot is NoChange, and that neither touches the stored record.
func identityOutcomes[T any](
	t *testing.T,
	update func(context.Context, Caller, T, T) (safeupdate.Report, error),
	get func(context.Context, string) (T, error),
	stored T,
	id string,
	withID func(T, string) T,
) {
	t.Helper()
	ctx := t.Context()

	rep, err := update(ctx, rootCaller, stored, withID(stored, "someone-else"))
	if err != nil || rep.Outcome != safeupdate.Invalid {
		t.Fatalf("expected Invalid for id mismatch, got %+v %v", rep, err)
	}
	rep, err = update(ctx, rootCaller, withID(stored, ""), withID(stored, ""))
	if err != nil || rep.Outcome != safeupdate.Invalid {
		t.Fatalf("expected Invalid for empty id, got %+v %v", rep, err)
	}
	for range 2 {
		rep, err = update(ctx, rootCaller, stored, stored)
		if err != nil || rep.Outcome != safeupdate.NoChange {
			t.Fatalf("expected NoChange, got %+v %v", rep, err)
		}
	}

	after, err := get(ctx, id)
	if err != nil {
		t.Fatalf("get %s: %v", id, err)
	}
	if diff := cmp.Diff(stored, after); diff != "" {
		t.Fatalf("stored record changed (-before +after):\n%s", diff)
	}
}

func TestSafeUpdateIdentityOutcomesEveryKind(t *testing.T) {
	t.Run("admin", func(t *testing.T) {
		svc, _ := newTestService(t)
		admin, _, err := svc.CreateAdmin(t.Context(), rootCaller, Admin{Name: "ops", Permissions: Permissions{domain.PermissionNews}}, "pw")
		if err != nil {
			t.Fatalf("create admin: %v", err)
		}
		identityOutcomes(t, svc.UpdateAdminSafe, svc.GetAdmin, admin, admin.ID, func(a Admin, id string) Admin {
			a.ID = id
			return a
		})
	})
	t.Run("news", func(t *testing.T) {
		svc, _ := newTestService(t)
		news, _, err := svc.CreateNews(t.Context(), rootCaller, sampleNews("gates"))
		if err != nil {
			t.Fatalf("create news: %v", err)
		}
		identityOutcomes(t, svc.UpdateNewsSafe, svc.GetNews, news, news.ID, func(n News, id string) News {
			n.ID = id
			return n
		})
	})
	t.Run("goods", func(t *testing.T) {
		svc, _ := newTestService(t)
		goods := mustCreateGoods(t, svc, sampleGoods("tee"))
		identityOutcomes(t, svc.UpdateGoodsSafe, svc.GetGoods, goods, goods.ID, func(g Goods, id string) Goods {
			g.ID = id
			return g
		})
	})
	t.Run("event_ticket_info", func(t *testing.T) {
		svc, _ := newTestService(t)
		info := mustCreateTicket(t, svc, sampleTicket("night stage"))
		identityOutcomes(t, svc.UpdateEventTicketInfoSafe, svc.GetEventTicketInfo, info, info.ID, func(e EventTicketInfo, id string) EventTicketInfo {
			e.ID = id
			return e
		})
	})
}

func TestUpdateGoodsSafeConcurrentDisjointEdits(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := t.Context()
	tee := mustCreateGoods(t, svc, sampleGoods("tee"))

	first := tee
	first.Stock = domain.StockLow
	if rep, err := svc.UpdateGoodsSafe(ctx, stockCaller, tee, first); err != nil || rep.Outcome != safeupdate.Success {
		t.Fatalf("stock update: %+v %v", rep, err)
	}
	second := tee
	second.Description = "now with a back print"
	if rep, err := svc.UpdateGoodsSafe(ctx, rootCaller, tee, second); err != nil || rep.Outcome != safeupdate.Success {
		t.Fatalf("description update: %+v %v", rep, err)
	}
	stored, _ := svc.GetGoods(ctx, tee.ID)
	if stored.Stock != domain.StockLow || stored.Description != "now with a back print" {
		t.Fatalf("both edits should survive, got %+v", stored)
	}
}

func TestUpdateGoodsSafeStockOnlyEditor(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := t.Context()
	tee := mustCreateGoods(t, svc, sampleGoods("tee"))

	renamed := tee
	renamed.Name = "shirt"
	rep, err := svc.UpdateGoodsSafe(ctx, stockCaller, tee, renamed)
	if err != nil || rep.Outcome != safeupdate.Invalid {
		t.Fatalf("stock editor rename should be Invalid, got %+v %v", rep, err)
	}
	stored, _ := svc.GetGoods(ctx, tee.ID)
	if stored.Name != "tee" {
		t.Fatalf("rename must not be written: %+v", stored)
	}

	if _, err := svc.UpdateGoodsSafe(ctx, newsCaller, tee, renamed); !errors.As(err, new(ErrForbidden)) {
		t.Fatalf("expected ErrForbidden for caller without goods access, got %v", err)
	}
}

func TestUpdateGoodsUnsafe(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := t.Context()
	tee := mustCreateGoods(t, svc, sampleGoods("tee"))
	towel := mustCreateGoods(t, svc, sampleGoods("towel"))

	concurrent := tee
	concurrent.Price = 1800
	if rep, err := svc.UpdateGoodsSafe(ctx, rootCaller, tee, concurrent); err != nil || rep.Outcome != safeupdate.Success {
		t.Fatalf("concurrent update: %+v %v", rep, err)
	}

	forced := tee
	forced.Price = 2500
	forced.Stock = domain.StockSoldOut
	if !svc.UpdateGoodsUnsafe(ctx, forced) {
		t.Fatalf("expected unsafe override to succeed")
	}
	stored, _ := svc.GetGoods(ctx, tee.ID)
	if stored.Price != 2500 || stored.Stock != domain.StockSoldOut || !stored.CreatedAt.Equal(tee.CreatedAt) {
		t.Fatalf("unexpected stored goods %+v", stored)
	}

	clash := stored
	clash.Name = towel.Name
	if svc.UpdateGoodsUnsafe(ctx, clash) {
		t.Fatalf("override into a taken name must be blocked by the unique_name rule")
	}
	missing := stored
	missing.ID = "missing"
	if svc.UpdateGoodsUnsafe(ctx, missing) {
		t.Fatalf("override of a missing item must fail")
	}
	invalid := stored
	invalid.Stock = "plenty"
	if svc.UpdateGoodsUnsafe(ctx, invalid) {
		t.Fatalf("override with invalid values must fail")
	}
}

func TestUpdateEventTicketInfoSafeValidatesScheduleFirst(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := t.Context()
	show := mustCreateTicket(t, svc, sampleTicket("live show"))

	concurrent := show
	concurrent.Capacity = 150
	if rep, err := svc.UpdateEventTicketInfoSafe(ctx, rootCaller, show, concurrent); err != nil || rep.Outcome != safeupdate.Success {
		t.Fatalf("concurrent update: %+v %v", rep, err)
	}

	// The stale edit conflicts on capacity, but the schedule is broken too;
	// validation is reported before any conflict.
	broken := show
	broken.Capacity = 300
	broken.ApplicationEnd = show.ExchangeEnd.Add(time.Hour)
	rep, err := svc.UpdateEventTicketInfoSafe(ctx, rootCaller, show, broken)
	if err != nil || rep.Outcome != safeupdate.Invalid {
		t.Fatalf("expected Invalid, got %+v %v", rep, err)
	}

	seconds := show
	seconds.ApplicationStart = show.ApplicationStart.Add(30 * time.Second)
	rep, _ = svc.UpdateEventTicketInfoSafe(ctx, rootCaller, show, seconds)
	if rep.Outcome != safeupdate.Invalid {
		t.Fatalf("expected Invalid for seconds, got %+v", rep)
	}

	// Same instant in another zone is not a change.
	tokyo, _ := time.LoadLocation("Asia/Tokyo")
	current, _ := svc.GetEventTicketInfo(ctx, show.ID)
	zoned := current
	zoned.ApplicationStart = current.ApplicationStart.In(tokyo)
	rep, _ = svc.UpdateEventTicketInfoSafe(ctx, rootCaller, current, zoned)
	if rep.Outcome != safeupdate.NoChange {
		t.Fatalf("expected NoChange for same instant, got %+v", rep)
	}

	moved := current
	moved.ExchangeEnd = current.ExchangeEnd.Add(24 * time.Hour)
	moved.Public = true
	rep, err = svc.UpdateEventTicketInfoSafe(ctx, rootCaller, current, moved)
	if err != nil || rep.Outcome != safeupdate.Success {
		t.Fatalf("expected Success, got %+v %v", rep, err)
	}
	if !slices.Equal(rep.Changed, []string{"exchange_end", "public"}) {
		t.Fatalf("unexpected changed fields %v", rep.Changed)
	}
}

func TestUpdateNewsSafeHasNoUniqueness(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := t.Context()
	a, _, err := svc.CreateNews(ctx, newsCaller, sampleNews("schedule"))
	if err != nil {
		t.Fatalf("create news: %v", err)
	}
	b, _, err := svc.CreateNews(ctx, newsCaller, sampleNews("map"))
	if err != nil {
		t.Fatalf("create news: %v", err)
	}
	same := b
	same.Title = a.Title
	same.Status = domain.NewsStatusPublished
	same.PublishedAt = time.Date(2026, 9, 30, 12, 0, 0, 0, time.UTC)
	rep, err := svc.UpdateNewsSafe(ctx, newsCaller, b, same)
	if err != nil || rep.Outcome != safeupdate.Success {
		t.Fatalf("duplicate titles are allowed, got %+v %v", rep, err)
	}
	if !svc.UpdateNewsUnsafe(ctx, same) {
		t.Fatalf("unsafe news override should succeed")
	}
}

func TestUpdateAdminSafePermissions(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := t.Context()
	alice, _, err := svc.CreateAdmin(ctx, rootCaller, Admin{Name: "alice", Permissions: []Permission{domain.PermissionNews}}, "s3cret")
	if err != nil {
		t.Fatalf("create admin: %v", err)
	}
	if _, _, err := svc.CreateAdmin(ctx, rootCaller, Admin{Name: "bob"}, "hunter2"); err != nil {
		t.Fatalf("create admin: %v", err)
	}
	self := Caller{ID: alice.ID, Permissions: Permissions{domain.PermissionNews}}

	renamed := alice
	renamed.Name = "alice-k"
	rep, err := svc.UpdateAdminSafe(ctx, self, alice, renamed)
	if err != nil || rep.Outcome != safeupdate.Success {
		t.Fatalf("self rename should succeed, got %+v %v", rep, err)
	}
	current, _ := svc.GetAdmin(ctx, alice.ID)
	if current.PasswordHash != alice.PasswordHash {
		t.Fatalf("password hash must survive updates")
	}

	escalate := current
	escalate.Permissions = []Permission{domain.PermissionNews, domain.PermissionAdmin}
	rep, _ = svc.UpdateAdminSafe(ctx, self, current, escalate)
	if rep.Outcome != safeupdate.Invalid {
		t.Fatalf("self escalation should be Invalid, got %+v", rep)
	}

	reordered := current
	reordered.Permissions = []Permission{domain.PermissionNews, domain.PermissionNews}
	rep, _ = svc.UpdateAdminSafe(ctx, self, current, reordered)
	if rep.Outcome != safeupdate.NoChange {
		t.Fatalf("duplicate permission tags are not a change, got %+v", rep)
	}

	taken := current
	taken.Name = "bob"
	rep, _ = svc.UpdateAdminSafe(ctx, rootCaller, current, taken)
	if rep.Outcome != safeupdate.NameExists {
		t.Fatalf("expected NameExists, got %+v", rep)
	}

	rep, err = svc.UpdateAdminSafe(ctx, rootCaller, current, escalate)
	if err != nil || rep.Outcome != safeupdate.Success {
		t.Fatalf("admin grant should succeed, got %+v %v", rep, err)
	}
	granted, _ := svc.GetAdmin(ctx, alice.ID)
	if !Permissions(granted.Permissions).Has(domain.PermissionAdmin) {
		t.Fatalf("expected admin permission, got %v", granted.Permissions)
	}

	other := Caller{ID: "someone", Permissions: Permissions{domain.PermissionNews}}
	if _, err := svc.UpdateAdminSafe(ctx, other, granted, granted); !errors.As(err, new(ErrForbidden)) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestCanOverwrite(t *testing.T) {
	svc, _ := newTestService(t)
	cases := []struct {
		name   string
		caller Caller
		kind   EntityType
		id     string
		want   bool
	}{
		{"root goods", rootCaller, EntityGoods, "g1", true},
		{"stock clerk goods", stockCaller, EntityGoods, "g1", false},
		{"editor news", newsCaller, EntityNews, "n1", true},
		{"editor tickets", newsCaller, EntityEventTicketInfo, "e1", false},
		{"self admin without grant", Caller{ID: "a1"}, EntityAdmin, "a1", false},
		{"admin", Caller{ID: "x", Permissions: Permissions{domain.PermissionAdmin}}, EntityAdmin, "a1", true},
		{"unknown kind", rootCaller, "stage", "s1", false},
	}
	for _, tc := range cases {
		if got := svc.CanOverwrite(tc.caller, tc.kind, tc.id); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestReportFromViolation(t *testing.T) {
	unique := RuleViolationError{Result: domain.Result{Violations: []domain.Violation{
		{Rule: RuleTicketSchedule, Severity: SeverityWarn, Message: "late"},
		{Rule: RuleUniqueName, Severity: SeverityBlock, Message: "name taken"},
	}}}
	rep := reportFromViolation(unique, []string{"name"})
	if rep.Outcome != safeupdate.NameExists || rep.Reason != "name taken" || !slices.Equal(rep.Changed, []string{"name"}) {
		t.Fatalf("unexpected report %+v", rep)
	}
	other := RuleViolationError{Result: domain.Result{Violations: []domain.Violation{
		{Rule: RuleTicketSchedule, Severity: SeverityBlock, Message: "out of order"},
	}}}
	if rep := reportFromViolation(other, nil); rep.Outcome != safeupdate.Invalid || rep.Reason != "out of order" {
		t.Fatalf("unexpected report %+v", rep)
	}
}

func TestSchemasAreComplete(t *testing.T) {
	schemas := map[string]interface{ Check() error }{
		"admin":  AdminSchema,
		"news":   NewsSchema,
		"goods":  GoodsSchema,
		"ticket": EventTicketInfoSchema,
	}
	for name, schema := range schemas {
		if err := schema.Check(); err != nil {
			t.Fatalf("%s schema: %v", name, err)
		}
	}
}
