package entry

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"shiftboard/internal/apperr"
	"shiftboard/internal/instance"
	"shiftboard/internal/slot"
)

// fakeRepo는 메모리 기반 Repository 입니다.
type fakeRepo struct {
	rows      map[uint64]Entry
	nextID    uint64
	err       error // 모든 호출에 반환할 에러
	createErr error // Create에서만 반환할 에러
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{rows: map[uint64]Entry{}}
}

func (f *fakeRepo) sorted(keep func(Entry) bool) []Entry {
	var out []Entry
	for _, e := range f.rows {
		if keep(e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakeRepo) ListByRange(ctx context.Context, instanceID uint64, from, to time.Time) ([]Entry, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.sorted(func(e Entry) bool {
		return e.InstanceID == instanceID && !e.Date.Before(from) && !e.Date.After(to)
	}), nil
}

func (f *fakeRepo) ListBySlot(ctx context.Context, instanceID uint64, key slot.Key) ([]Entry, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.sorted(func(e Entry) bool {
		return e.InstanceID == instanceID && e.Key().String() == key.String()
	}), nil
}

func (f *fakeRepo) ListAll(ctx context.Context, instanceID uint64) ([]Entry, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.sorted(func(e Entry) bool { return e.InstanceID == instanceID }), nil
}

func (f *fakeRepo) GetByID(ctx context.Context, id uint64) (*Entry, error) {
	if f.err != nil {
		return nil, f.err
	}
	e, ok := f.rows[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (f *fakeRepo) Create(ctx context.Context, e *Entry) error {
	if f.err != nil {
		return f.err
	}
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	e.ID = f.nextID
	e.CreatedAt = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	f.rows[e.ID] = *e
	return nil
}

func (f *fakeRepo) Delete(ctx context.Context, id uint64) error {
	if f.err != nil {
		return f.err
	}
	if _, ok := f.rows[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.rows, id)
	return nil
}

// seed는 검증 없이 항목을 직접 넣습니다.
func (f *fakeRepo) seed(e Entry) Entry {
	f.nextID++
	e.ID = f.nextID
	f.rows[e.ID] = e
	return e
}

type fakeInstances map[uint64]*instance.Instance

func (f fakeInstances) Get(ctx context.Context, id uint64) (*instance.Instance, error) {
	inst, ok := f[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return inst, nil
}
