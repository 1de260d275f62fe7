package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"festivalcore/internal/core"
	"festivalcore/internal/safeupdate"
)

// endpoint serves the operations shared by every entity kind.
type endpoint interface {
	list(h *Handler, w http.ResponseWriter, r *http.Request)
	get(h *Handler, w http.ResponseWriter, r *http.Request, id string)
	create(h *Handler, w http.ResponseWriter, r *http.Request, caller core.Caller)
	remove(h *Handler, w http.ResponseWriter, r *http.Request, caller core.Caller, id string)
	update(h *Handler, w http.ResponseWriter, r *http.Request, caller core.Caller, id string)
	overwrite(h *Handler, w http.ResponseWriter, r *http.Request, caller core.Caller, id string)
}

// createExtras carries request fields that are not part of the entity.
type createExtras struct {
	Password string `json:"password"`
}

type updateRequest[T any] struct {
	Prior    T `json:"prior"`
	Proposed T `json:"proposed"`
}

type overwriteRequest[T any] struct {
	Proposed T    `json:"proposed"`
	Confirm  bool `json:"confirm"`
}

type resource[T any] struct {
	kind    core.EntityType
	idOf    func(T) string
	setID   func(*T, string)
	present func(T) T

	listFn      func(context.Context) ([]T, error)
	getFn       func(context.Context, string) (T, error)
	createFn    func(context.Context, core.Caller, T, createExtras) (T, core.Result, error)
	deleteFn    func(context.Context, core.Caller, string) (core.Result, error)
	updateFn    func(context.Context, core.Caller, T, T) (safeupdate.Report, error)
	overwriteFn func(context.Context, T) bool
}

func newAdminResource(svc *core.Service) *resource[core.Admin] {
	return &resource[core.Admin]{
		kind:  core.EntityAdmin,
		idOf:  func(a core.Admin) string { return a.ID },
		setID: func(a *core.Admin, id string) { a.ID = id },
		present: func(a core.Admin) core.Admin {
			a.PasswordHash = ""
			return a
		},
		listFn: svc.ListAdmins,
		getFn:  svc.GetAdmin,
		createFn: func(ctx context.Context, caller core.Caller, a core.Admin, extras createExtras) (core.Admin, core.Result, error) {
			return svc.CreateAdmin(ctx, caller, a, extras.Password)
		},
		deleteFn:    svc.DeleteAdmin,
		updateFn:    svc.UpdateAdminSafe,
		overwriteFn: svc.UpdateAdminUnsafe,
	}
}

func newNewsResource(svc *core.Service) *resource[core.News] {
	return &resource[core.News]{
		kind:        core.EntityNews,
		idOf:        func(n core.News) string { return n.ID },
		setID:       func(n *core.News, id string) { n.ID = id },
		listFn:      svc.ListNews,
		getFn:       svc.GetNews,
		createFn:    ignoreExtras(svc.CreateNews),
		deleteFn:    svc.DeleteNews,
		updateFn:    svc.UpdateNewsSafe,
		overwriteFn: svc.UpdateNewsUnsafe,
	}
}

func newGoodsResource(svc *core.Service) *resource[core.Goods] {
	return &resource[core.Goods]{
		kind:        core.EntityGoods,
		idOf:        func(g core.Goods) string { return g.ID },
		setID:       func(g *core.Goods, id string) { g.ID = id },
		listFn:      svc.ListGoods,
		getFn:       svc.GetGoods,
		createFn:    ignoreExtras(svc.CreateGoods),
		deleteFn:    svc.DeleteGoods,
		updateFn:    svc.UpdateGoodsSafe,
		overwriteFn: svc.UpdateGoodsUnsafe,
	}
}

func newTicketResource(svc *core.Service) *resource[core.EventTicketInfo] {
	return &resource[core.EventTicketInfo]{
		kind:        core.EntityEventTicketInfo,
		idOf:        func(e core.EventTicketInfo) string { return e.ID },
		setID:       func(e *core.EventTicketInfo, id string) { e.ID = id },
		listFn:      svc.ListEventTicketInfos,
		getFn:       svc.GetEventTicketInfo,
		createFn:    ignoreExtras(svc.CreateEventTicketInfo),
		deleteFn:    svc.DeleteEventTicketInfo,
		updateFn:    svc.UpdateEventTicketInfoSafe,
		overwriteFn: svc.UpdateEventTicketInfoUnsafe,
	}
}

func ignoreExtras[T any](fn func(context.Context, core.Caller, T) (T, core.Result, error)) func(context.Context, core.Caller, T, createExtras) (T, core.Result, error) {
	return func(ctx context.Context, caller core.Caller, value T, _ createExtras) (T, core.Result, error) {
		return fn(ctx, caller, value)
	}
}

func (res *resource[T]) show(value T) T {
	if res.present == nil {
		return value
	}
	return res.present(value)
}

func (res *resource[T]) list(h *Handler, w http.ResponseWriter, r *http.Request) {
	items, err := res.listFn(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		out = append(out, res.show(item))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": out})
}

func (res *resource[T]) get(h *Handler, w http.ResponseWriter, r *http.Request, id string) {
	item, err := res.getFn(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"item": res.show(item)})
}

func (res *resource[T]) create(h *Handler, w http.ResponseWriter, r *http.Request, caller core.Caller) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unable to read request body")
		return
	}
	var value T
	if err := json.Unmarshal(body, &value); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid %s payload", res.kind))
		return
	}
	var extras createExtras
	if err := json.Unmarshal(body, &extras); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid %s payload", res.kind))
		return
	}
	// Identifiers are assigned by the store.
	res.setID(&value, "")
	created, result, err := res.createFn(r.Context(), caller, value, extras)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"item":       res.show(created),
		"violations": result.Violations,
	})
}

func (res *resource[T]) remove(h *Handler, w http.ResponseWriter, r *http.Request, caller core.Caller, id string) {
	result, err := res.deleteFn(r.Context(), caller, id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "violations": result.Violations})
}

// update runs the conflict-aware update. Every protocol outcome, including
// Overwrite and NameExists, is a 200 carrying the report.
func (res *resource[T]) update(h *Handler, w http.ResponseWriter, r *http.Request, caller core.Caller, id string) {
	var req updateRequest[T]
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid update request payload")
		return
	}
	if res.idOf(req.Prior) == "" {
		res.setID(&req.Prior, id)
	}
	if res.idOf(req.Proposed) == "" {
		res.setID(&req.Proposed, id)
	}
	if res.idOf(req.Prior) != id {
		writeError(w, http.StatusBadRequest, "prior id does not match path")
		return
	}
	report, err := res.updateFn(r.Context(), caller, req.Prior, req.Proposed)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// overwrite forces the proposed values through after the client confirmed a
// previous Overwrite outcome.
func (res *resource[T]) overwrite(h *Handler, w http.ResponseWriter, r *http.Request, caller core.Caller, id string) {
	var req overwriteRequest[T]
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid overwrite request payload")
		return
	}
	if !req.Confirm {
		writeError(w, http.StatusBadRequest, "overwrite requires confirmation")
		return
	}
	if res.idOf(req.Proposed) == "" {
		res.setID(&req.Proposed, id)
	}
	if res.idOf(req.Proposed) != id {
		writeError(w, http.StatusBadRequest, "proposed id does not match path")
		return
	}
	if !h.service.CanOverwrite(caller, res.kind, id) {
		writeError(w, http.StatusForbidden, fmt.Sprintf("caller may not overwrite %s %s", res.kind, id))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": res.overwriteFn(r.Context(), req.Proposed)})
}
