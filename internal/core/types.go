package core

import "festivalcore/pkg/domain"

type (
	EntityType         = domain.EntityType
	Severity           = domain.Severity
	Base               = domain.Base
	Admin              = domain.Admin
	News               = domain.News
	Goods              = domain.Goods
	EventTicketInfo    = domain.EventTicketInfo
	Caller             = domain.Caller
	Permission         = domain.Permission
	Permissions        = domain.Permissions
	Change             = domain.Change
	Action             = domain.Action
	Violation          = domain.Violation
	Result             = domain.Result
	RuleViolationError = domain.RuleViolationError
	Rule               = domain.Rule
	RulesEngine        = domain.RulesEngine
)

const (
	EntityAdmin           = domain.EntityAdmin
	EntityNews            = domain.EntityNews
	EntityGoods           = domain.EntityGoods
	EntityEventTicketInfo = domain.EntityEventTicketInfo
)

const (
	SeverityBlock = domain.SeverityBlock
	SeverityWarn  = domain.SeverityWarn
	SeverityLog   = domain.SeverityLog
)

const (
	ActionCreate = domain.ActionCreate
	ActionUpdate = domain.ActionUpdate
	ActionDelete = domain.ActionDelete
)
