package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/alnah/go-catalog2pdf/internal/blobstore"
	"github.com/alnah/go-catalog2pdf/internal/catalog"
)

// Persistence keys.
const (
	InfoKey     = "instacatalog_data_info"
	ProductsKey = "instacatalog_data_products"
)

// Catalog is the persisted state.
type Catalog struct {
	Info     catalog.StoreInfo
	Products []catalog.Product
}

// Store reads and writes the catalog. Every mutation is persisted
// immediately, after migrating inline image payloads to the blob store.
type Store struct {
	kv    KV
	blobs blobstore.Store
	log   zerolog.Logger

	mu sync.Mutex
}

// New returns a Store over kv. blobs may be nil, which disables migration.
func New(kv KV, blobs blobstore.Store, log zerolog.Logger) *Store {
	return &Store{kv: kv, blobs: blobs, log: log}
}

// Load returns the stored catalog, with the default profile and an empty
// product list when nothing was saved yet.
func (s *Store) Load(ctx context.Context) (Catalog, error) {
	info, err := s.loadInfo(ctx)
	if err != nil {
		return Catalog{}, err
	}
	products, err := s.loadProducts(ctx)
	if err != nil {
		return Catalog{}, err
	}
	return Catalog{Info: info, Products: products}, nil
}

func (s *Store) loadInfo(ctx context.Context) (catalog.StoreInfo, error) {
	raw, err := s.kv.Get(ctx, InfoKey)
	if errors.Is(err, ErrNotFound) {
		return catalog.DefaultStoreInfo(), nil
	}
	if err != nil {
		return catalog.StoreInfo{}, err
	}
	info := catalog.DefaultStoreInfo()
	if err := json.Unmarshal([]byte(raw), &info); err != nil {
		return catalog.StoreInfo{}, fmt.Errorf("decoding store info: %w", err)
	}
	return info, nil
}

func (s *Store) loadProducts(ctx context.Context) ([]catalog.Product, error) {
	raw, err := s.kv.Get(ctx, ProductsKey)
	if errors.Is(err, ErrNotFound) {
		return []catalog.Product{}, nil
	}
	if err != nil {
		return nil, err
	}
	var products []catalog.Product
	if err := json.Unmarshal([]byte(raw), &products); err != nil {
		return nil, fmt.Errorf("decoding products: %w", err)
	}
	if products == nil {
		products = []catalog.Product{}
	}
	return products, nil
}

// SaveInfo persists the store profile.
func (s *Store) SaveInfo(ctx context.Context, info catalog.StoreInfo) error {
	data, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("encoding store info: %w", err)
	}
	return s.kv.Set(ctx, InfoKey, string(data))
}

// SaveProducts migrates inline payloads, then persists the lightweight
// list. It returns the list as persisted.
func (s *Store) SaveProducts(ctx context.Context, products []catalog.Product) ([]catalog.Product, error) {
	migrated, _ := s.Migrate(ctx, products)
	return migrated, s.persist(ctx, migrated)
}

// persist writes the lightweight list, falling back to the reduced
// projection when the backend is out of quota.
func (s *Store) persist(ctx context.Context, products []catalog.Product) error {
	data, err := encodeJSON(lightweight(products))
	if err != nil {
		return fmt.Errorf("encoding products: %w", err)
	}
	err = s.kv.Set(ctx, ProductsKey, data)
	if !errors.Is(err, ErrQuotaExceeded) {
		return err
	}

	s.log.Warn().Err(err).Int("products", len(products)).Msg("storage full, saving reduced product list")
	data, encErr := encodeJSON(reduced(products))
	if encErr != nil {
		return fmt.Errorf("encoding products: %w", encErr)
	}
	return s.kv.Set(ctx, ProductsKey, data)
}

// Migrate moves every inline image payload without a blob key into the
// blob store under the product's key and clears the inline field.
// Products whose migration fails are returned unchanged.
func (s *Store) Migrate(ctx context.Context, products []catalog.Product) ([]catalog.Product, int) {
	out := make([]catalog.Product, len(products))
	copy(out, products)
	if s.blobs == nil {
		return out, 0
	}

	n := 0
	for i, p := range out {
		if p.ImageID != "" || !blobstore.IsImageDataURI(p.Image) {
			continue
		}
		key := blobstore.ProductKey(p.ID)
		if err := s.putDataURI(ctx, key, p.Image); err != nil {
			s.log.Warn().Err(err).Str("product", p.ID).Msg("image migration failed")
			continue
		}
		out[i].ImageID = key
		out[i].Image = ""
		n++
	}
	if n > 0 {
		s.log.Debug().Int("migrated", n).Msg("moved inline images to blob store")
	}
	return out, n
}

func (s *Store) putDataURI(ctx context.Context, key, uri string) error {
	blob, err := blobstore.DecodeDataURI(uri)
	if err != nil {
		return err
	}
	return s.blobs.Put(ctx, key, bytes.NewReader(blob.Data), blob.ContentType)
}

// lightweight blanks inline image payloads that slipped through.
func lightweight(products []catalog.Product) []catalog.Product {
	out := make([]catalog.Product, len(products))
	for i, p := range products {
		if blobstore.IsImageDataURI(p.Image) {
			p.Image = ""
		}
		out[i] = p
	}
	return out
}

// reducedProduct is the smallest record that still renders a product.
type reducedProduct struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
	ImageID     string  `json:"imageId"`
	Image       string  `json:"image"`
}

func reduced(products []catalog.Product) []reducedProduct {
	out := make([]reducedProduct, len(products))
	for i, p := range products {
		out[i] = reducedProduct{
			ID:          p.ID,
			Name:        p.Name,
			Price:       p.Price,
			Description: p.Description,
			ImageID:     p.ImageID,
		}
	}
	return out
}

func encodeJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
