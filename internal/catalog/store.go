package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
)

const (
	loadOK        = "ok"
	loadMissing   = "missing"
	loadReadError = "read_error"
	loadMalformed = "malformed"
	loadCorrupt   = "corrupt"
)

// Store is the catalog of products mirrored to a Blob.
//
// Every operation reloads the full product list from the blob, and every mutation
// writes the full list back. The mutex makes each load → mutate → save cycle atomic
// within the process; separate processes sharing a blob still overwrite each other.
type Store struct {
	mu      sync.Mutex
	blob    Blob
	log     *zap.Logger
	metrics *StoreMetrics

	products []Product
	nextID   int
}

// NewStore returns a Store over blob. log and metrics may be nil.
func NewStore(blob Blob, log *zap.Logger, metrics *StoreMetrics) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		blob:     blob,
		log:      log,
		metrics:  metrics,
		products: []Product{},
		nextID:   1,
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.blob.Ping(ctx)
}

// Add stores p under the next free id and returns the stored record. Any id set on p
// is ignored. On ErrStorageWrite the returned product is still the one that was
// added in memory.
func (s *Store) Add(ctx context.Context, p Product) (Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out, err := s.add(ctx, p)
	s.metrics.observe(opAdd, err)
	return out, err
}

func (s *Store) add(ctx context.Context, p Product) (Product, error) {
	if err := s.load(ctx); err != nil {
		return Product{}, err
	}

	if !s.isCodeUnique(p.Code) {
		s.log.Warn("product code already exists", zap.String("code", p.Code))
		return Product{}, ErrDuplicateCode
	}
	if missing := p.missingFields(); len(missing) > 0 {
		s.log.Warn("product rejected, mandatory fields missing", zap.Strings("fields", missing))
		return Product{}, fmt.Errorf("%w: %s", ErrMissingField, strings.Join(missing, ", "))
	}

	p.ID = s.nextID
	s.products = append(s.products, p)
	s.nextID++

	if err := s.save(ctx); err != nil {
		return p, err
	}
	return p, nil
}

// List returns every product in insertion order.
func (s *Store) List(ctx context.Context) ([]Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(ctx); err != nil {
		s.metrics.observe(opList, err)
		return nil, err
	}
	out := make([]Product, len(s.products))
	copy(out, s.products)

	s.metrics.observe(opList, nil)
	return out, nil
}

func (s *Store) Get(ctx context.Context, id int) (Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.get(ctx, id)
	s.metrics.observe(opGet, err)
	return p, err
}

func (s *Store) get(ctx context.Context, id int) (Product, error) {
	if err := s.load(ctx); err != nil {
		return Product{}, err
	}

	i := s.indexOf(id)
	if i < 0 {
		s.log.Debug("product not found", zap.Int("id", id))
		return Product{}, ErrNotFound
	}
	return s.products[i], nil
}

// Update merges patch over the product with the given id and returns the result.
// A patch may rewrite id and code; the store allows it and logs a warning.
func (s *Store) Update(ctx context.Context, id int, patch Patch) (Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.update(ctx, id, patch)
	s.metrics.observe(opUpdate, err)
	return p, err
}

func (s *Store) update(ctx context.Context, id int, patch Patch) (Product, error) {
	if err := s.load(ctx); err != nil {
		return Product{}, err
	}

	i := s.indexOf(id)
	if i < 0 {
		s.log.Info("update skipped, product not found", zap.Int("id", id))
		return Product{}, ErrNotFound
	}

	merged, err := patch.apply(s.products[i])
	if err != nil {
		s.log.Warn("update rejected", zap.Int("id", id), zap.Error(err))
		return Product{}, err
	}
	s.warnIdentityChange(i, merged)
	s.products[i] = merged

	if err := s.save(ctx); err != nil {
		return merged, err
	}
	return merged, nil
}

// Delete removes the product with the given id and reports whether one was removed.
// The blob is rewritten even when nothing matched.
func (s *Store) Delete(ctx context.Context, id int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed, err := s.delete(ctx, id)
	s.metrics.observe(opDelete, err)
	return removed, err
}

func (s *Store) delete(ctx context.Context, id int) (bool, error) {
	if err := s.load(ctx); err != nil {
		return false, err
	}

	kept := make([]Product, 0, len(s.products))
	removed := false
	for _, p := range s.products {
		if p.ID == id {
			removed = true
			continue
		}
		kept = append(kept, p)
	}
	s.products = kept

	if !removed {
		s.log.Info("delete matched no product", zap.Int("id", id))
	}
	return removed, s.save(ctx)
}

func (s *Store) isCodeUnique(code string) bool {
	for _, p := range s.products {
		if p.Code == code {
			return false
		}
	}
	return true
}

func (s *Store) indexOf(id int) int {
	for i, p := range s.products {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) warnIdentityChange(i int, merged Product) {
	old := s.products[i]
	for j, p := range s.products {
		if j == i {
			continue
		}
		if merged.ID != old.ID && p.ID == merged.ID {
			s.log.Warn("update gives product a duplicate id", zap.Int("id", old.ID), zap.Int("new_id", merged.ID))
		}
		if merged.Code != old.Code && p.Code == merged.Code {
			s.log.Warn("update gives product a duplicate code", zap.Int("id", old.ID), zap.String("code", merged.Code))
		}
	}
	if merged.ID != old.ID {
		s.log.Warn("update changed product id", zap.Int("id", old.ID), zap.Int("new_id", merged.ID))
	}
}

// load replaces the in-memory list with the blob's content. A blob that is missing,
// unreadable or not a JSON array leaves an empty catalog. An array holding a record
// that is not a JSON object returns ErrCorruptBlob, so nothing gets saved over it.
func (s *Store) load(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := s.blob.Read(ctx)
	if err != nil {
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		s.reset()
		if errors.Is(err, ErrBlobMissing) {
			s.log.Debug("catalog blob missing, starting empty")
			s.metrics.observeLoad(loadMissing)
		} else {
			s.log.Warn("reading catalog blob failed, starting empty", zap.Error(err))
			s.metrics.observeLoad(loadReadError)
		}
		return nil
	}

	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		s.reset()
		s.log.Warn("catalog blob is malformed, starting empty", zap.Error(err))
		s.metrics.observeLoad(loadMalformed)
		return nil
	}

	products := make([]Product, len(records))
	for i, rec := range records {
		if err := json.Unmarshal(rec, &products[i]); err != nil {
			s.log.Error("catalog blob holds an unreadable record, refusing to overwrite it",
				zap.Int("index", i), zap.Error(err))
			s.metrics.observeLoad(loadCorrupt)
			return fmt.Errorf("%w: record %d: %w", ErrCorruptBlob, i, err)
		}
	}

	s.products = products
	s.nextID = nextIDFor(products)
	s.metrics.observeLoad(loadOK)
	return nil
}

func (s *Store) save(ctx context.Context) error {
	data, err := encodeProducts(s.products)
	if err == nil {
		err = s.blob.Write(ctx, data)
	}
	if err != nil {
		s.log.Error("saving products failed", zap.Error(err))
		return fmt.Errorf("%w: %w", ErrStorageWrite, err)
	}
	return nil
}

func (s *Store) reset() {
	s.products = []Product{}
	s.nextID = 1
}

func nextIDFor(products []Product) int {
	maxID := 0
	for _, p := range products {
		maxID = max(maxID, p.ID)
	}
	return maxID + 1
}

func encodeProducts(products []Product) ([]byte, error) {
	if products == nil {
		products = []Product{}
	}
	return json.Marshal(products)
}
