package core

import (
	"context"
	"fmt"

	"festivalcore/pkg/domain"
)

// NewUniqueNameRule returns the rule that blocks any commit leaving two live
// records of the same kind with one name. It applies to admins, goods and
// ticket events; news titles may repeat.
func NewUniqueNameRule() domain.Rule {
	return uniqueNameRule{}
}

type uniqueNameRule struct{}

type namedRecord struct {
	id   string
	name string
}

func (uniqueNameRule) Name() string { return RuleUniqueName }

func (uniqueNameRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	touched := domain.TouchedKinds(changes)
	res := domain.Result{}
	if touched[domain.EntityAdmin] {
		res.Merge(duplicateNames(domain.EntityAdmin, collectNames(view.ListAdmins(), func(a domain.Admin) namedRecord {
			return namedRecord{id: a.ID, name: a.Name}
		})))
	}
	if touched[domain.EntityGoods] {
		res.Merge(duplicateNames(domain.EntityGoods, collectNames(view.ListGoods(), func(g domain.Goods) namedRecord {
			return namedRecord{id: g.ID, name: g.Name}
		})))
	}
	if touched[domain.EntityEventTicketInfo] {
		res.Merge(duplicateNames(domain.EntityEventTicketInfo, collectNames(view.ListEventTicketInfos(), func(e domain.EventTicketInfo) namedRecord {
			return namedRecord{id: e.ID, name: e.Name}
		})))
	}
	return res, nil
}

func collectNames[T any](items []T, named func(T) namedRecord) []namedRecord {
	out := make([]namedRecord, 0, len(items))
	for _, item := range items {
		out = append(out, named(item))
	}
	return out
}

// duplicateNames reports every record after the first holding a given name.
// Records arrive in creation order, so the newer record is the one blamed.
func duplicateNames(kind domain.EntityType, records []namedRecord) domain.Result {
	res := domain.Result{}
	first := make(map[string]string, len(records))
	for _, rec := range records {
		holder, seen := first[rec.name]
		if !seen {
			first[rec.name] = rec.id
			continue
		}
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     RuleUniqueName,
			Severity: domain.SeverityBlock,
			Message:  fmt.Sprintf("%s name %q already used by %s", kind, rec.name, holder),
			Entity:   kind,
			EntityID: rec.id,
		})
	}
	return res
}
