package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/porkyfarm/porcpro/internal/domain/models"
)

// Entity is implemented by pointers to every stored record type.
type Entity[T any] interface {
	*T
	EntityID() string
	Identify(id string, at time.Time)
	Touch(at time.Time)
}

type op int

const (
	opAdd op = iota
	opUpdate
	opRemove
)

// effect is what a collection hook contributes to a write.
type effect struct {
	events []models.Event
	title  string
}

// Collection describes one named array of the document.
type Collection[T any] struct {
	name  string
	noun  string
	kinds [3]models.ActivityType
	rows  func(db *models.Database) *[]T
	label func(v *T) string

	beforeAdd    func(db *models.Database, v *T, at time.Time) (effect, error)
	beforeUpdate func(db *models.Database, old, next *T, at time.Time) (effect, error)
	beforeRemove func(db *models.Database, v *T, at time.Time) effect
}

// Name returns the collection name used in the document.
func (c Collection[T]) Name() string { return c.name }

func (c Collection[T]) activity(o op, id string, v *T, e effect) *models.Activity {
	title := e.title
	if title == "" {
		title = c.noun + " " + [...]string{"added", "updated", "removed"}[o]
	}
	return &models.Activity{
		Type:        c.kinds[o],
		Title:       title,
		Description: c.label(v),
		EntityID:    id,
	}
}

// List returns a copy of the collection.
func List[T any](h *Handle, c Collection[T]) []T {
	var out []T
	h.read(func(db *models.Database) {
		out = slices.Clone(*c.rows(db))
	})
	if out == nil {
		out = []T{}
	}
	return out
}

// Get returns the record with id or ErrNotFound.
func Get[T any, P Entity[T]](h *Handle, c Collection[T], id string) (T, error) {
	var (
		out   T
		found bool
	)
	h.read(func(db *models.Database) {
		rows := *c.rows(db)
		if i := indexOf[T, P](rows, id); i >= 0 {
			out, found = rows[i], true
		}
	})
	if !found {
		return out, fmt.Errorf("%s %s: %w", c.name, id, ErrNotFound)
	}
	return out, nil
}

// Add assigns an id and creation time to v, appends it and persists the document.
func Add[T any, P Entity[T]](ctx context.Context, h *Handle, c Collection[T], v T) (T, SaveResult, error) {
	var created T
	res, err := h.mutate(ctx, func(db *models.Database, at time.Time) (change, error) {
		P(&v).Identify(h.newID(), at)
		var e effect
		if c.beforeAdd != nil {
			var err error
			if e, err = c.beforeAdd(db, &v, at); err != nil {
				return change{}, err
			}
		}
		rows := c.rows(db)
		*rows = append(*rows, v)
		created = v
		return change{activity: c.activity(opAdd, P(&v).EntityID(), &v, e), events: e.events}, nil
	})
	return created, res, err
}

// Update applies patch to the record with id and persists the document.
// A patch error aborts the write.
func Update[T any, P Entity[T]](ctx context.Context, h *Handle, c Collection[T], id string, patch func(*T) error) (T, SaveResult, error) {
	var updated T
	res, err := h.mutate(ctx, func(db *models.Database, at time.Time) (change, error) {
		rows := c.rows(db)
		i := indexOf[T, P](*rows, id)
		if i < 0 {
			return change{}, fmt.Errorf("%s %s: %w", c.name, id, ErrNotFound)
		}
		old := (*rows)[i]
		next := old
		if err := patch(&next); err != nil {
			return change{}, err
		}
		var e effect
		if c.beforeUpdate != nil {
			var err error
			if e, err = c.beforeUpdate(db, &old, &next, at); err != nil {
				return change{}, err
			}
		}
		P(&next).Touch(at)
		(*rows)[i] = next
		updated = next
		return change{activity: c.activity(opUpdate, id, &next, e), events: e.events}, nil
	})
	return updated, res, err
}

// Remove deletes the record with id. It reports false, without writing, when the id is absent.
func Remove[T any, P Entity[T]](ctx context.Context, h *Handle, c Collection[T], id string) (bool, SaveResult, error) {
	removed := false
	res, err := h.mutate(ctx, func(db *models.Database, at time.Time) (change, error) {
		rows := c.rows(db)
		i := indexOf[T, P](*rows, id)
		if i < 0 {
			return change{}, errNoop
		}
		v := (*rows)[i]
		*rows = slices.Delete(*rows, i, i+1)
		removed = true

		var e effect
		if c.beforeRemove != nil {
			e = c.beforeRemove(db, &v, at)
		}
		return change{activity: c.activity(opRemove, id, &v, e), events: e.events}, nil
	})
	if errors.Is(err, errNoop) {
		return false, SaveResult{Durable: !h.Dirty()}, nil
	}
	return removed, res, err
}

func indexOf[T any, P Entity[T]](rows []T, id string) int {
	for i := range rows {
		if P(&rows[i]).EntityID() == id {
			return i
		}
	}
	return -1
}
