package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sort"
)

// Collection names a top-level key of a partition document.
type Collection string

const (
	CollectionTransactions Collection = "transactions"
	CollectionAccounts     Collection = "accounts"
	CollectionProducts     Collection = "products"
	CollectionEntities     Collection = "entities"
	CollectionUsers        Collection = "users"
	CollectionCompanies    Collection = "companies"
	CollectionSettings     Collection = "settings"
	CollectionCategories   Collection = "categories"
)

// ArrayCollections are the keys whose values are record arrays, in wire order.
var ArrayCollections = []Collection{
	CollectionTransactions,
	CollectionAccounts,
	CollectionProducts,
	CollectionEntities,
	CollectionUsers,
	CollectionCompanies,
}

// MapCollections are the keys whose values are plain key/value objects.
var MapCollections = []Collection{
	CollectionSettings,
	CollectionCategories,
}

// GlobalCollections are the collections whose local mutation schedules an
// automatic push.
var GlobalCollections = []Collection{
	CollectionUsers,
	CollectionCompanies,
	CollectionTransactions,
}

// IsArray reports whether the collection holds a record array.
func (c Collection) IsArray() bool {
	return slices.Contains(ArrayCollections, c)
}

// IsMap reports whether the collection holds a key/value object.
func (c Collection) IsMap() bool {
	return slices.Contains(MapCollections, c)
}

// PartitionDocument is the remote representation of one tenant's data. Records
// are kept as raw JSON so a tenant pull returns exactly what was pushed. A
// collection is present in the document iff it has an entry in Arrays or Maps.
type PartitionDocument struct {
	Arrays map[Collection][]json.RawMessage
	Maps   map[Collection]map[string]json.RawMessage
	// Extra holds unknown top-level keys; they round-trip but are never merged.
	Extra map[string]json.RawMessage
}

// NewPartitionDocument returns an empty document.
func NewPartitionDocument() PartitionDocument {
	return PartitionDocument{
		Arrays: map[Collection][]json.RawMessage{},
		Maps:   map[Collection]map[string]json.RawMessage{},
		Extra:  map[string]json.RawMessage{},
	}
}

// Has reports whether the collection key is present.
func (d PartitionDocument) Has(c Collection) bool {
	if c.IsArray() {
		_, ok := d.Arrays[c]
		return ok
	}
	_, ok := d.Maps[c]
	return ok
}

// IsEmpty reports whether the document carries no keys at all.
func (d PartitionDocument) IsEmpty() bool {
	return len(d.Arrays) == 0 && len(d.Maps) == 0 && len(d.Extra) == 0
}

// Clone returns a copy that shares no slices or maps with d. Raw records are
// never modified in place, so their bytes are shared.
func (d PartitionDocument) Clone() PartitionDocument {
	out := NewPartitionDocument()
	for k, v := range d.Arrays {
		out.Arrays[k] = slices.Clone(v)
	}
	for k, v := range d.Maps {
		out.Maps[k] = maps.Clone(v)
	}
	maps.Copy(out.Extra, d.Extra)
	return out
}

// MarshalJSON writes the known collections in a fixed order, then extra keys
// sorted by name.
func (d PartitionDocument) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	writeKey := func(key string, value any) error {
		raw, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", key, err)
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		k, _ := json.Marshal(key)
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(raw)
		return nil
	}

	for _, c := range ArrayCollections {
		records, ok := d.Arrays[c]
		if !ok {
			continue
		}
		if records == nil {
			records = []json.RawMessage{}
		}
		if err := writeKey(string(c), records); err != nil {
			return nil, err
		}
	}
	for _, c := range MapCollections {
		fields, ok := d.Maps[c]
		if !ok {
			continue
		}
		if fields == nil {
			fields = map[string]json.RawMessage{}
		}
		if err := writeKey(string(c), fields); err != nil {
			return nil, err
		}
	}
	extraKeys := slices.Collect(maps.Keys(d.Extra))
	sort.Strings(extraKeys)
	for _, k := range extraKeys {
		if err := writeKey(k, d.Extra[k]); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON accepts any object. Known keys must carry the expected shape;
// a null value counts as absent.
func (d *PartitionDocument) UnmarshalJSON(data []byte) error {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return fmt.Errorf("partition document must be an object: %w", err)
	}
	doc := NewPartitionDocument()
	for key, raw := range top {
		if isNull(raw) {
			continue
		}
		c := Collection(key)
		switch {
		case c.IsArray():
			var records []json.RawMessage
			if err := json.Unmarshal(raw, &records); err != nil {
				return fmt.Errorf("%s must be an array: %w", key, err)
			}
			if records == nil {
				records = []json.RawMessage{}
			}
			doc.Arrays[c] = records
		case c.IsMap():
			var fields map[string]json.RawMessage
			if err := json.Unmarshal(raw, &fields); err != nil {
				return fmt.Errorf("%s must be an object: %w", key, err)
			}
			if fields == nil {
				fields = map[string]json.RawMessage{}
			}
			doc.Maps[c] = fields
		default:
			doc.Extra[key] = raw
		}
	}
	*d = doc
	return nil
}

func isNull(raw json.RawMessage) bool {
	return len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// EncodeCollections turns the typed collections into a document with every
// collection present.
func EncodeCollections(c Collections) (PartitionDocument, error) {
	doc := NewPartitionDocument()
	var err error
	if doc.Arrays[CollectionTransactions], err = encodeRecords(c.Transactions); err != nil {
		return doc, fmt.Errorf("transactions: %w", err)
	}
	if doc.Arrays[CollectionAccounts], err = encodeRecords(c.Accounts); err != nil {
		return doc, fmt.Errorf("accounts: %w", err)
	}
	if doc.Arrays[CollectionProducts], err = encodeRecords(c.Products); err != nil {
		return doc, fmt.Errorf("products: %w", err)
	}
	if doc.Arrays[CollectionEntities], err = encodeRecords(c.Entities); err != nil {
		return doc, fmt.Errorf("entities: %w", err)
	}
	if doc.Arrays[CollectionUsers], err = encodeRecords(c.Users); err != nil {
		return doc, fmt.Errorf("users: %w", err)
	}
	if doc.Arrays[CollectionCompanies], err = encodeRecords(c.Companies); err != nil {
		return doc, fmt.Errorf("companies: %w", err)
	}
	if doc.Maps[CollectionSettings], err = encodeObject(c.Settings); err != nil {
		return doc, fmt.Errorf("settings: %w", err)
	}
	if doc.Maps[CollectionCategories], err = encodeObject(c.Categories); err != nil {
		return doc, fmt.Errorf("categories: %w", err)
	}
	return doc, nil
}

func encodeRecords[T any](records []T) ([]json.RawMessage, error) {
	out := make([]json.RawMessage, 0, len(records))
	for _, r := range records {
		raw, err := json.Marshal(r)
		if err != nil {
			return nil, err
		}
		out = append(out, raw)
	}
	return out, nil
}

func encodeObject(v any) (map[string]json.RawMessage, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	fields := map[string]json.RawMessage{}
	if isNull(raw) {
		return fields, nil
	}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// CollectionsPatch holds the typed collections of a remote document. A nil
// field means the key was absent and the local collection must stay as is.
type CollectionsPatch struct {
	Transactions *[]Transaction
	Accounts     *[]Account
	Products     *[]Product
	Entities     *[]Entity
	Users        *[]User
	Companies    *[]Company
	Settings     *Settings
	Categories   *Categories
}

// DecodeCollections converts the present keys of a document into typed
// collections. A key that fails to decode is left out of the patch and its
// error is returned alongside; the other keys are still usable.
func DecodeCollections(d PartitionDocument) (CollectionsPatch, error) {
	var patch CollectionsPatch
	var errs []error
	decode := func(c Collection, target any) bool {
		var raw []byte
		var err error
		if c.IsArray() {
			records, ok := d.Arrays[c]
			if !ok {
				return false
			}
			if records == nil {
				records = []json.RawMessage{}
			}
			raw, err = json.Marshal(records)
		} else {
			fields, ok := d.Maps[c]
			if !ok {
				return false
			}
			raw, err = json.Marshal(fields)
		}
		if err == nil {
			err = json.Unmarshal(raw, target)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", c, err))
			return false
		}
		return true
	}

	var transactions []Transaction
	if decode(CollectionTransactions, &transactions) {
		patch.Transactions = nonNil(transactions)
	}
	var accounts []Account
	if decode(CollectionAccounts, &accounts) {
		patch.Accounts = nonNil(accounts)
	}
	var products []Product
	if decode(CollectionProducts, &products) {
		patch.Products = nonNil(products)
	}
	var entities []Entity
	if decode(CollectionEntities, &entities) {
		patch.Entities = nonNil(entities)
	}
	var users []User
	if decode(CollectionUsers, &users) {
		patch.Users = nonNil(users)
	}
	var companies []Company
	if decode(CollectionCompanies, &companies) {
		patch.Companies = nonNil(companies)
	}
	var settings Settings
	if decode(CollectionSettings, &settings) {
		patch.Settings = &settings
	}
	var categories Categories
	if decode(CollectionCategories, &categories) {
		if categories == nil {
			categories = Categories{}
		}
		patch.Categories = &categories
	}
	return patch, errors.Join(errs...)
}

func nonNil[T any](s []T) *[]T {
	if s == nil {
		s = []T{}
	}
	return &s
}

// ApplyTo replaces every collection present in the patch. Users are merged
// with the SUPER_ADMIN record. It returns the collections that were replaced.
func (p CollectionsPatch) ApplyTo(c *Collections) []Collection {
	var changed []Collection
	if p.Transactions != nil {
		c.Transactions = *p.Transactions
		changed = append(changed, CollectionTransactions)
	}
	if p.Accounts != nil {
		c.Accounts = *p.Accounts
		changed = append(changed, CollectionAccounts)
	}
	if p.Products != nil {
		c.Products = *p.Products
		changed = append(changed, CollectionProducts)
	}
	if p.Entities != nil {
		c.Entities = *p.Entities
		changed = append(changed, CollectionEntities)
	}
	if p.Users != nil {
		c.Users = MergeUsersWithSuperAdmin(*p.Users)
		changed = append(changed, CollectionUsers)
	}
	if p.Companies != nil {
		c.Companies = *p.Companies
		changed = append(changed, CollectionCompanies)
	}
	if p.Settings != nil {
		c.Settings = *p.Settings
		changed = append(changed, CollectionSettings)
	}
	if p.Categories != nil {
		c.Categories = *p.Categories
		changed = append(changed, CollectionCategories)
	}
	return changed
}
