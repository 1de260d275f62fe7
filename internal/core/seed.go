package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"festivalcore/pkg/domain"
)

// Seed is the YAML document used to bootstrap an empty festival.
type Seed struct {
	Admins  []SeedAdmin  `yaml:"admins"`
	News    []SeedNews   `yaml:"news"`
	Goods   []SeedGoods  `yaml:"goods"`
	Tickets []SeedTicket `yaml:"tickets"`
}

// SeedAdmin is an admin account in a seed document.
type SeedAdmin struct {
	Name        string       `yaml:"name"`
	Password    string       `yaml:"password"`
	Permissions []Permission `yaml:"permissions"`
}

// SeedNews is a news article in a seed document.
type SeedNews struct {
	Title       string            `yaml:"title"`
	Content     string            `yaml:"content"`
	Status      domain.NewsStatus `yaml:"status"`
	PublishedAt time.Time         `yaml:"published_at"`
}

// SeedGoods is a goods item in a seed document.
type SeedGoods struct {
	Name        string             `yaml:"name"`
	Price       int                `yaml:"price"`
	Stock       domain.StockStatus `yaml:"stock"`
	Group       string             `yaml:"group"`
	Description string             `yaml:"description"`
}

// SeedTicket is a ticket event in a seed document.
type SeedTicket struct {
	Name             string    `yaml:"name"`
	Description      string    `yaml:"description"`
	Capacity         int       `yaml:"capacity"`
	ApplicationStart time.Time `yaml:"application_start"`
	ApplicationEnd   time.Time `yaml:"application_end"`
	ExchangeEnd      time.Time `yaml:"exchange_end"`
	Public           bool      `yaml:"public"`
}

// SeedReport counts what ApplySeed created and skipped per entity kind.
type SeedReport struct {
	Created map[EntityType]int
	Skipped map[EntityType]int
}

// LoadSeed decodes a seed document. Unknown keys are rejected.
func LoadSeed(r io.Reader) (Seed, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var seed Seed
	if err := dec.Decode(&seed); err != nil {
		if errors.Is(err, io.EOF) {
			return Seed{}, nil
		}
		return Seed{}, fmt.Errorf("decode seed: %w", err)
	}
	return seed, nil
}

// SystemCaller holds every permission. It is used by the CLI for seeding and
// restores run by operators.
func SystemCaller() Caller {
	return Caller{ID: "system", Permissions: domain.AllPermissions()}
}

// ApplySeed creates every seeded record whose name (or news title) is not
// already present, so applying the same seed twice is a no-op.
func (s *Service) ApplySeed(ctx context.Context, caller Caller, seed Seed) (SeedReport, error) {
	report := SeedReport{Created: map[EntityType]int{}, Skipped: map[EntityType]int{}}

	admins, err := s.ListAdmins(ctx)
	if err != nil {
		return report, err
	}
	existing := names(admins, func(a Admin) string { return a.Name })
	for _, a := range seed.Admins {
		if existing[a.Name] {
			report.Skipped[EntityAdmin]++
			continue
		}
		if _, _, err := s.CreateAdmin(ctx, caller, Admin{Name: a.Name, Permissions: a.Permissions}, a.Password); err != nil {
			return report, fmt.Errorf("seed admin %q: %w", a.Name, err)
		}
		existing[a.Name] = true
		report.Created[EntityAdmin]++
	}

	news, err := s.ListNews(ctx)
	if err != nil {
		return report, err
	}
	existing = names(news, func(n News) string { return n.Title })
	for _, n := range seed.News {
		if existing[n.Title] {
			report.Skipped[EntityNews]++
			continue
		}
		article := News{Title: n.Title, Content: n.Content, Status: n.Status, PublishedAt: n.PublishedAt}
		if _, _, err := s.CreateNews(ctx, caller, article); err != nil {
			return report, fmt.Errorf("seed news %q: %w", n.Title, err)
		}
		existing[n.Title] = true
		report.Created[EntityNews]++
	}

	goods, err := s.ListGoods(ctx)
	if err != nil {
		return report, err
	}
	existing = names(goods, func(g Goods) string { return g.Name })
	for _, g := range seed.Goods {
		if existing[g.Name] {
			report.Skipped[EntityGoods]++
			continue
		}
		item := Goods{Name: g.Name, Price: g.Price, Stock: g.Stock, Group: g.Group, Description: g.Description}
		if _, _, err := s.CreateGoods(ctx, caller, item); err != nil {
			return report, fmt.Errorf("seed goods %q: %w", g.Name, err)
		}
		existing[g.Name] = true
		report.Created[EntityGoods]++
	}

	tickets, err := s.ListEventTicketInfos(ctx)
	if err != nil {
		return report, err
	}
	existing = names(tickets, func(e EventTicketInfo) string { return e.Name })
	for _, e := range seed.Tickets {
		if existing[e.Name] {
			report.Skipped[EntityEventTicketInfo]++
			continue
		}
		info := EventTicketInfo{
			Name:             e.Name,
			Description:      e.Description,
			Capacity:         e.Capacity,
			ApplicationStart: e.ApplicationStart,
			ApplicationEnd:   e.ApplicationEnd,
			ExchangeEnd:      e.ExchangeEnd,
			Public:           e.Public,
		}
		if _, _, err := s.CreateEventTicketInfo(ctx, caller, info); err != nil {
			return report, fmt.Errorf("seed ticket event %q: %w", e.Name, err)
		}
		existing[e.Name] = true
		report.Created[EntityEventTicketInfo]++
	}
	return report, nil
}

func names[T any](items []T, name func(T) string) map[string]bool {
	out := make(map[string]bool, len(items))
	for _, item := range items {
		out[name(item)] = true
	}
	return out
}
