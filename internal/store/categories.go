package store

import (
	"cmp"
	"context"
	"errors"
	"slices"

	"github.com/sandeepkv93/taskflow/internal/model"
	"github.com/sandeepkv93/taskflow/internal/storage"
)

type CategoryStore struct {
	repo  storage.CategoryRepository
	locks *recordLocks
}

func NewCategoryStore(repo storage.CategoryRepository) *CategoryStore {
	return &CategoryStore{repo: repo, locks: newRecordLocks()}
}

func (s *CategoryStore) Create(ctx context.Context, in model.CategoryInput) (model.Category, error) {
	if err := in.Validate(); err != nil {
		return model.Category{}, err
	}
	in = in.Normalize()
	created, err := s.repo.CreateCategory(ctx, model.Category{Name: in.Name, Color: in.Color, Icon: in.Icon})
	if err != nil {
		return model.Category{}, model.Transport("create category", err)
	}
	return created, nil
}

func (s *CategoryStore) Get(ctx context.Context, id int64) (model.Category, error) {
	c, err := s.repo.GetCategory(ctx, id)
	if err != nil {
		return model.Category{}, model.Transport("get category", err)
	}
	return c, nil
}

func (s *CategoryStore) Update(ctx context.Context, id int64, patch model.CategoryPatch) (model.Category, error) {
	if err := patch.Validate(); err != nil {
		return model.Category{}, err
	}
	unlock := s.locks.lock(id)
	defer unlock()

	cur, err := s.repo.GetCategory(ctx, id)
	if err != nil {
		return model.Category{}, model.Transport("update category", err)
	}
	next := patch.Apply(cur)
	next.ID = cur.ID
	if err := s.repo.UpdateCategory(ctx, next); err != nil {
		return model.Category{}, model.Transport("update category", err)
	}
	return next, nil
}

func (s *CategoryStore) Delete(ctx context.Context, id int64) error {
	unlock := s.locks.lock(id)
	defer unlock()
	return model.Transport("delete category", s.repo.DeleteCategory(ctx, id))
}

// ListAll returns categories by ascending order, ties broken by id.
func (s *CategoryStore) ListAll(ctx context.Context) ([]model.Category, error) {
	out, err := s.repo.ListCategories(ctx, storage.CategoryListFilter{})
	if err != nil {
		return nil, model.Transport("list categories", err)
	}
	slices.SortStableFunc(out, func(a, b model.Category) int {
		if a.Order != b.Order {
			return cmp.Compare(a.Order, b.Order)
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

// Reorder assigns order = position+1 to each listed category, overwriting the
// previous value. Ids that are not stored are ignored.
func (s *CategoryStore) Reorder(ctx context.Context, ids []int64) error {
	for pos, id := range ids {
		order := int64(pos + 1)
		if _, err := s.Update(ctx, id, model.CategoryPatch{Order: &order}); err != nil {
			if isNotFound(err) {
				continue
			}
			return err
		}
	}
	return nil
}

func isNotFound(err error) bool {
	return errors.Is(err, model.ErrNotFound)
}
