package memory

import (
	"errors"
	"fmt"
)

// Snapshot captures a point-in-time clone of the store state. Its JSON form is
// used by the SQL stores and by backups.
type Snapshot struct {
	Admins  map[string]Admin           `json:"admins"`
	News    map[string]News            `json:"news"`
	Goods   map[string]Goods           `json:"goods"`
	Tickets map[string]EventTicketInfo `json:"event_ticket_infos"`
}

// Bucket names used when the snapshot is persisted one entity kind at a time.
const (
	BucketAdmins  = "admins"
	BucketNews    = "news"
	BucketGoods   = "goods"
	BucketTickets = "event_ticket_infos"
)

// BucketNames lists the persistence buckets in a stable order.
func BucketNames() []string {
	return []string{BucketAdmins, BucketNews, BucketGoods, BucketTickets}
}

// Buckets returns the snapshot content keyed by bucket name, ready to encode.
func (s Snapshot) Buckets() map[string]any {
	return map[string]any{
		BucketAdmins:  s.Admins,
		BucketNews:    s.News,
		BucketGoods:   s.Goods,
		BucketTickets: s.Tickets,
	}
}

// BucketTarget returns a pointer into s suitable for decoding the named
// bucket, or nil for unknown buckets.
func (s *Snapshot) BucketTarget(bucket string) any {
	switch bucket {
	case BucketAdmins:
		return &s.Admins
	case BucketNews:
		return &s.News
	case BucketGoods:
		return &s.Goods
	case BucketTickets:
		return &s.Tickets
	default:
		return nil
	}
}

// Len reports the total number of records in the snapshot.
func (s Snapshot) Len() int {
	return len(s.Admins) + len(s.News) + len(s.Goods) + len(s.Tickets)
}

// Validate checks every record and that map keys match record identifiers.
func (s Snapshot) Validate() error {
	var errs []error
	errs = append(errs, validateBucket(BucketAdmins, s.Admins, Admin.Validate)...)
	errs = append(errs, validateBucket(BucketNews, s.News, News.Validate)...)
	errs = append(errs, validateBucket(BucketGoods, s.Goods, Goods.Validate)...)
	errs = append(errs, validateBucket(BucketTickets, s.Tickets, EventTicketInfo.Validate)...)
	return errors.Join(errs...)
}

func validateBucket[T any, P record[T]](bucket string, items map[string]T, validate func(T) error) []error {
	var errs []error
	for key, item := range items {
		if id := P(&item).GetBase().ID; id != key {
			errs = append(errs, fmt.Errorf("%s: key %q holds record %q", bucket, key, id))
			continue
		}
		if err := validate(item); err != nil {
			errs = append(errs, fmt.Errorf("%s %s: %w", bucket, key, err))
		}
	}
	return errs
}

func snapshotFromMemoryState(state memoryState) Snapshot {
	return Snapshot{
		Admins:  cloneBucket(state.admins),
		News:    cloneBucket(state.news),
		Goods:   cloneBucket(state.goods),
		Tickets: cloneBucket(state.tickets),
	}
}

func memoryStateFromSnapshot(s Snapshot) memoryState {
	state := newMemoryState()
	for k, v := range s.Admins {
		state.admins[k] = v.Clone()
	}
	for k, v := range s.News {
		state.news[k] = v.Clone()
	}
	for k, v := range s.Goods {
		state.goods[k] = v.Clone()
	}
	for k, v := range s.Tickets {
		state.tickets[k] = v.Clone()
	}
	return state
}
