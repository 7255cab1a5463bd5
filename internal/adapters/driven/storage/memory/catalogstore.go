package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/blcat/internal/core/domain"
	"github.com/custodia-labs/blcat/internal/core/ports/driven"
)

// Ensure CatalogStore implements the interfaces.
var (
	_ driven.CatalogStore  = (*CatalogStore)(nil)
	_ driven.CatalogReader = (*CatalogStore)(nil)
	_ driven.CatalogTx     = (*catalogTx)(nil)
)

// table maps natural keys to records.
type table map[string]domain.Record

// searchIndex is a lowercase text blob per record key.
type searchIndex map[string]string

// CatalogStore is an in-memory implementation of driven.CatalogStore.
// Transactions work on a private copy of one table and swap it in on commit.
type CatalogStore struct {
	mu      sync.RWMutex
	tables  map[domain.Kind]table
	indexes map[domain.Kind]searchIndex
	txOpen  map[domain.Kind]bool
}

// NewCatalogStore creates an empty in-memory catalog.
func NewCatalogStore() *CatalogStore {
	s := &CatalogStore{
		tables:  make(map[domain.Kind]table),
		indexes: make(map[domain.Kind]searchIndex),
		txOpen:  make(map[domain.Kind]bool),
	}
	for _, k := range domain.Kinds() {
		s.tables[k] = make(table)
		if k.HasSearchIndex() {
			s.indexes[k] = make(searchIndex)
		}
	}
	return s
}

// Close is a no-op.
func (s *CatalogStore) Close() error {
	return nil
}

// LookupByKey returns the committed record with the natural key.
func (s *CatalogStore) LookupByKey(_ context.Context, kind domain.Kind, key string) (domain.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tables[kind]
	if !ok {
		return nil, domain.ErrUnsupportedKind
	}
	return lookup(t, key)
}

// Insert stores a new record.
func (s *CatalogStore) Insert(_ context.Context, rec domain.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[rec.Kind()]
	if !ok {
		return domain.ErrUnsupportedKind
	}
	return insert(t, rec, time.Now())
}

// Update overwrites a stored record.
func (s *CatalogStore) Update(_ context.Context, rec domain.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[rec.Kind()]
	if !ok {
		return domain.ErrUnsupportedKind
	}
	return update(t, rec, time.Now())
}

// ResolveCategoryName returns the category name, or "" when unknown.
func (s *CatalogStore) ResolveCategoryName(_ context.Context, categoryID int) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.categoryName(categoryID), nil
}

// categoryName looks up a category name (caller must hold lock).
func (s *CatalogStore) categoryName(id int) string {
	rec, ok := s.tables[domain.KindCategory][strconv.Itoa(id)]
	if !ok {
		return ""
	}
	return rec.(*domain.Category).Name
}

// Begin opens a transaction over one table.
func (s *CatalogStore) Begin(_ context.Context, kind domain.Kind) (driven.CatalogTx, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[kind]
	if !ok {
		return nil, domain.ErrUnsupportedKind
	}
	if s.txOpen[kind] {
		return nil, fmt.Errorf("begin %s: transaction already open", kind)
	}
	s.txOpen[kind] = true

	work := make(table, len(t))
	for k, rec := range t {
		work[k] = clone(rec)
	}
	return &catalogTx{store: s, kind: kind, work: work}, nil
}

// DropAndRecreate empties a table and drops its search index.
func (s *CatalogStore) DropAndRecreate(_ context.Context, kind domain.Kind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tables[kind]; !ok {
		return domain.ErrUnsupportedKind
	}
	s.tables[kind] = make(table)
	delete(s.indexes, kind)
	return nil
}

// RebuildSearchIndex rebuilds the text index from the committed table.
func (s *CatalogStore) RebuildSearchIndex(_ context.Context, kind domain.Kind) error {
	if !kind.HasSearchIndex() {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := make(searchIndex, len(s.tables[kind]))
	for key, rec := range s.tables[kind] {
		idx[key] = indexText(rec)
	}
	s.indexes[kind] = idx
	return nil
}

// DropSearchIndex removes the text index of a table.
func (s *CatalogStore) DropSearchIndex(_ context.Context, kind domain.Kind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.indexes, kind)
	return nil
}

// HasSearchIndex reports whether a table currently has a text index.
func (s *CatalogStore) HasSearchIndex(kind domain.Kind) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.indexes[kind]
	return ok
}

// ==================== Transaction ====================

// catalogTx is a replace-all transaction over a private table copy.
type catalogTx struct {
	store *CatalogStore
	kind  domain.Kind

	mu   sync.Mutex
	work table
	done bool
}

func (tx *catalogTx) check(kind domain.Kind) error {
	if tx.done {
		return errors.New("transaction already finished")
	}
	if kind != tx.kind {
		return fmt.Errorf("transaction over %s cannot write %s", tx.kind, kind)
	}
	return nil
}

func (tx *catalogTx) LookupByKey(_ context.Context, kind domain.Kind, key string) (domain.Record, error) {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if err := tx.check(kind); err != nil {
		return nil, err
	}
	return lookup(tx.work, key)
}

func (tx *catalogTx) Insert(_ context.Context, rec domain.Record) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if err := tx.check(rec.Kind()); err != nil {
		return err
	}
	return insert(tx.work, rec, time.Now())
}

func (tx *catalogTx) Update(_ context.Context, rec domain.Record) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if err := tx.check(rec.Kind()); err != nil {
		return err
	}
	return update(tx.work, rec, time.Now())
}

func (tx *catalogTx) ResolveCategoryName(ctx context.Context, categoryID int) (string, error) {
	return tx.store.ResolveCategoryName(ctx, categoryID)
}

func (tx *catalogTx) MarkAllStale(_ context.Context) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if err := tx.check(tx.kind); err != nil {
		return err
	}
	for _, rec := range tx.work {
		if p, ok := rec.(*domain.Part); ok {
			p.Stale = true
		}
	}
	return nil
}

func (tx *catalogTx) Commit() error {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if tx.done {
		return errors.New("transaction already finished")
	}
	tx.done = true

	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()
	tx.store.tables[tx.kind] = tx.work
	tx.store.txOpen[tx.kind] = false
	return nil
}

func (tx *catalogTx) Rollback() error {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if tx.done {
		return nil
	}
	tx.done = true
	tx.work = nil

	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()
	tx.store.txOpen[tx.kind] = false
	return nil
}

// ==================== Reader ====================

// GetPart retrieves a part by id.
func (s *CatalogStore) GetPart(_ context.Context, id string) (*domain.Part, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.tables[domain.KindPart][id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	p := *rec.(*domain.Part)
	return &p, nil
}

// SearchParts matches every query term against part id, name and category.
func (s *CatalogStore) SearchParts(_ context.Context, query string, opts domain.SearchOptions) ([]domain.Part, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys, err := s.search(domain.KindPart, query)
	if err != nil {
		return nil, err
	}

	var parts []domain.Part
	for _, key := range keys {
		rec, ok := s.tables[domain.KindPart][key]
		if !ok {
			continue
		}
		p := rec.(*domain.Part)
		if p.Stale && !opts.IncludeStale {
			continue
		}
		if opts.CategoryID != 0 && p.CategoryID != opts.CategoryID {
			continue
		}
		parts = append(parts, *p)
		if len(parts) == opts.EffectiveLimit() {
			break
		}
	}
	return parts, nil
}

// SearchSets matches every query term against set name and category.
func (s *CatalogStore) SearchSets(_ context.Context, query string, opts domain.SearchOptions) ([]domain.Set, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys, err := s.search(domain.KindSet, query)
	if err != nil {
		return nil, err
	}

	var sets []domain.Set
	for _, key := range keys {
		rec, ok := s.tables[domain.KindSet][key]
		if !ok {
			continue
		}
		st := rec.(*domain.Set)
		if opts.CategoryID != 0 && st.CategoryID != opts.CategoryID {
			continue
		}
		sets = append(sets, *st)
		if len(sets) == opts.EffectiveLimit() {
			break
		}
	}
	return sets, nil
}

// search returns matching keys in key order (caller must hold lock).
func (s *CatalogStore) search(kind domain.Kind, query string) ([]string, error) {
	idx, ok := s.indexes[kind]
	if !ok {
		return nil, domain.ErrSearchUnavailable
	}
	terms := strings.Fields(strings.ToLower(query))

	var keys []string
	for key, text := range idx {
		if matchesAll(text, terms) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// SetsByPrefix returns sets whose id starts with prefix.
func (s *CatalogStore) SetsByPrefix(_ context.Context, prefix string) ([]domain.Set, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var sets []domain.Set
	for key, rec := range s.tables[domain.KindSet] {
		if strings.HasPrefix(key, prefix) {
			sets = append(sets, *rec.(*domain.Set))
		}
	}
	sort.Slice(sets, func(i, j int) bool { return sets[i].ID < sets[j].ID })
	return sets, nil
}

// GetColor retrieves a colour by id.
func (s *CatalogStore) GetColor(_ context.Context, id int) (*domain.Color, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.tables[domain.KindColor][strconv.Itoa(id)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := *rec.(*domain.Color)
	return &c, nil
}

// ListColors returns all colours ordered by id.
func (s *CatalogStore) ListColors(_ context.Context) ([]domain.Color, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	colors := make([]domain.Color, 0, len(s.tables[domain.KindColor]))
	for _, rec := range s.tables[domain.KindColor] {
		colors = append(colors, *rec.(*domain.Color))
	}
	sort.Slice(colors, func(i, j int) bool { return colors[i].ID < colors[j].ID })
	return colors, nil
}

// ListCategories returns all categories ordered by name.
func (s *CatalogStore) ListCategories(_ context.Context) ([]domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cats := make([]domain.Category, 0, len(s.tables[domain.KindCategory]))
	for _, rec := range s.tables[domain.KindCategory] {
		cats = append(cats, *rec.(*domain.Category))
	}
	sortCategories(cats)
	return cats, nil
}

// CategoriesUsedBy returns categories referenced by parts or sets.
func (s *CatalogStore) CategoriesUsedBy(_ context.Context, kind domain.Kind) ([]domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	used := make(map[int]bool)
	switch kind {
	case domain.KindPart:
		for _, rec := range s.tables[kind] {
			used[rec.(*domain.Part).CategoryID] = true
		}
	case domain.KindSet:
		for _, rec := range s.tables[kind] {
			used[rec.(*domain.Set).CategoryID] = true
		}
	default:
		return nil, fmt.Errorf("%w: categories are only referenced by parts and sets", domain.ErrInvalidInput)
	}

	var cats []domain.Category
	for _, rec := range s.tables[domain.KindCategory] {
		c := rec.(*domain.Category)
		if used[c.ID] {
			cats = append(cats, *c)
		}
	}
	sortCategories(cats)
	return cats, nil
}

// RecentParts returns parts created within window of the newest part.
func (s *CatalogStore) RecentParts(_ context.Context, window time.Duration) ([]domain.Part, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var newest time.Time
	for _, rec := range s.tables[domain.KindPart] {
		if p := rec.(*domain.Part); p.CreatedAt.After(newest) {
			newest = p.CreatedAt
		}
	}
	cutoff := newest.Add(-window)

	var parts []domain.Part
	for _, rec := range s.tables[domain.KindPart] {
		if p := rec.(*domain.Part); !p.CreatedAt.Before(cutoff) {
			parts = append(parts, *p)
		}
	}
	sort.Slice(parts, func(i, j int) bool { return parts[i].ID < parts[j].ID })
	return parts, nil
}

// Count returns the number of rows in a table.
func (s *CatalogStore) Count(_ context.Context, kind domain.Kind) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tables[kind]
	if !ok {
		return 0, domain.ErrUnsupportedKind
	}
	return len(t), nil
}

// ==================== Helpers ====================

func lookup(t table, key string) (domain.Record, error) {
	rec, ok := t[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return clone(rec), nil
}

func insert(t table, rec domain.Record, now time.Time) error {
	key := rec.Key()
	if _, exists := t[key]; exists {
		return fmt.Errorf("insert %s %q: %w", rec.Kind(), key, domain.ErrDuplicateKey)
	}
	stored := clone(rec)
	switch r := stored.(type) {
	case *domain.Part:
		r.Stale = false
		if r.CreatedAt.IsZero() {
			r.CreatedAt = now
		}
		r.UpdatedAt = now
	case *domain.Set:
		if r.CreatedAt.IsZero() {
			r.CreatedAt = now
		}
	}
	t[key] = stored
	return nil
}

func update(t table, rec domain.Record, now time.Time) error {
	key := rec.Key()
	existing, ok := t[key]
	if !ok {
		return fmt.Errorf("update %s %q: %w", rec.Kind(), key, domain.ErrNotFound)
	}
	stored := clone(rec)
	switch r := stored.(type) {
	case *domain.Part:
		r.Stale = false
		r.CreatedAt = existing.(*domain.Part).CreatedAt
		r.UpdatedAt = now
	case *domain.Set:
		r.CreatedAt = existing.(*domain.Set).CreatedAt
	}
	t[key] = stored
	return nil
}

func clone(rec domain.Record) domain.Record {
	switch r := rec.(type) {
	case *domain.Category:
		c := *r
		return &c
	case *domain.Part:
		p := *r
		return &p
	case *domain.Set:
		st := *r
		return &st
	case *domain.Color:
		c := *r
		return &c
	}
	return rec
}

func indexText(rec domain.Record) string {
	switch r := rec.(type) {
	case *domain.Part:
		return strings.ToLower(r.ID + " " + r.Name + " " + r.CategoryName)
	case *domain.Set:
		return strings.ToLower(r.Name + " " + r.CategoryName)
	}
	return ""
}

func matchesAll(text string, terms []string) bool {
	for _, term := range terms {
		if !strings.Contains(text, term) {
			return false
		}
	}
	return true
}

func sortCategories(cats []domain.Category) {
	sort.Slice(cats, func(i, j int) bool {
		if cats[i].Name != cats[j].Name {
			return cats[i].Name < cats[j].Name
		}
		return cats[i].ID < cats[j].ID
	})
}
