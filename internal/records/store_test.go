package records

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Annany2002/nebula-studio/config"
	"github.com/Annany2002/nebula-studio/internal/core"
	"github.com/Annany2002/nebula-studio/internal/domain"
	"github.com/Annany2002/nebula-studio/internal/fieldtype"
	"github.com/Annany2002/nebula-studio/internal/metrics"
	"github.com/Annany2002/nebula-studio/internal/schema"
	"github.com/Annany2002/nebula-studio/internal/storage"
)

type fixture struct {
	schema *schema.Service
	store  *Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := storage.ConnectDB(&config.Config{DatabaseDir: t.TempDir(), DatabaseFile: "records_test.db"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	types := fieldtype.NewRegistry()
	return &fixture{schema: schema.NewService(db, types), store: NewStore(db, types, metrics.New())}
}

func (fx *fixture) collection(t *testing.T, projectID int64, name string, fields ...schema.FieldAttrs) *domain.Collection {
	t.Helper()
	ctx := context.Background()
	c, err := fx.schema.CreateCollection(ctx, projectID, schema.CollectionAttrs{Name: name})
	require.NoError(t, err)
	for _, f := range fields {
		_, err := fx.schema.AddField(ctx, projectID, c.ID, f)
		require.NoError(t, err)
	}
	return c
}

func strPtr(s string) *string { return &s }

func TestCreateAndReadRecordIsTyped(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	c := fx.collection(t, 1, "Products",
		schema.FieldAttrs{Name: "title", Type: "text", Required: true},
		schema.FieldAttrs{Name: "price", Type: "number"},
		schema.FieldAttrs{Name: "in_stock", Type: "boolean", DefaultValue: strPtr("true")},
		schema.FieldAttrs{Name: "released", Type: "date"},
		schema.FieldAttrs{Name: "meta", Type: "json"},
	)

	rec, err := fx.store.CreateRecord(ctx, c.ID, "alice", map[string]any{
		"title":    "Widget",
		"price":    9.5,
		"released": "2024-02-29",
		"meta":     map[string]any{"color": "red"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, rec.UUID)
	assert.Equal(t, "alice", rec.CreatedBy)

	read, err := fx.store.ReadRecord(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, fieldtype.KindString, read.Values["title"].Kind())
	assert.Equal(t, 9.5, read.Values["price"].Num())
	assert.True(t, read.Values["in_stock"].Bool(), "default applied on create")
	assert.Equal(t, "2024-02-29", read.Values["released"].Native())
	assert.Equal(t, map[string]any{"color": "red"}, read.Values["meta"].Native())

	typ, ok := read.FieldType("price")
	assert.True(t, ok)
	assert.Equal(t, "number", typ)
}

func TestCreateRecordUnknownField(t *testing.T) {
	fx := newFixture(t)
	c := fx.collection(t, 1, "Notes", schema.FieldAttrs{Name: "body", Type: "textarea"})

	_, err := fx.store.CreateRecord(context.Background(), c.ID, "alice", map[string]any{
		"body":   "hello",
		"zeta":   1,
		"author": "bob",
	})
	require.True(t, errors.Is(err, core.ErrUnknownField), "got %v", err)
	failures := core.Failures(err)
	require.Len(t, failures, 2)
	assert.Equal(t, "author", failures[0].Field)
	assert.Equal(t, "zeta", failures[1].Field)
}

func TestCreateRecordBatchesValidationFailures(t *testing.T) {
	fx := newFixture(t)
	maxLen := 5
	c := fx.collection(t, 1, "Contacts",
		schema.FieldAttrs{Name: "name", Type: "text", Required: true, ValidationRules: &domain.ValidationRules{MaxLength: &maxLen}},
		schema.FieldAttrs{Name: "email", Type: "email"},
		schema.FieldAttrs{Name: "age", Type: "number"},
		schema.FieldAttrs{Name: "nickname", Type: "text", Required: true},
	)

	_, err := fx.store.CreateRecord(context.Background(), c.ID, "alice", map[string]any{
		"name":  "Bartholomew",
		"email": "not-an-email",
		"age":   "old",
	})
	require.True(t, errors.Is(err, core.ErrValidationFailed), "got %v", err)

	byField := map[string]string{}
	for _, f := range core.Failures(err) {
		byField[f.Field] = f.Code
	}
	assert.Equal(t, map[string]string{
		"name":     core.CodeMaxLength,
		"email":    core.CodeType,
		"age":      core.CodeType,
		"nickname": core.CodeRequired,
	}, byField)
}

func TestRequiredAcceptsZeroAndFalse(t *testing.T) {
	fx := newFixture(t)
	c := fx.collection(t, 1, "Flags",
		schema.FieldAttrs{Name: "count", Type: "number", Required: true},
		schema.FieldAttrs{Name: "enabled", Type: "boolean", Required: true},
	)

	rec, err := fx.store.CreateRecord(context.Background(), c.ID, "alice", map[string]any{"count": 0.0, "enabled": false})
	require.NoError(t, err)
	assert.Equal(t, 0.0, rec.Values["count"].Num())
	assert.False(t, rec.Values["enabled"].Bool())
}

func TestUniqueFieldCollisions(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	users := fx.collection(t, 1, "Users",
		schema.FieldAttrs{Name: "email", Type: "email", Unique: true},
		schema.FieldAttrs{Name: "backup_email", Type: "email"},
	)
	admins := fx.collection(t, 1, "Admins", schema.FieldAttrs{Name: "email", Type: "email", Unique: true})

	first, err := fx.store.CreateRecord(ctx, users.ID, "alice", map[string]any{"email": "a@example.com"})
	require.NoError(t, err)

	_, err = fx.store.CreateRecord(ctx, users.ID, "bob", map[string]any{"email": "a@example.com"})
	require.True(t, errors.Is(err, core.ErrUniquenessViolation), "got %v", err)
	assert.Equal(t, "email", core.Failures(err)[0].Field)

	_, err = fx.store.CreateRecord(ctx, users.ID, "bob", map[string]any{"email": "b@example.com", "backup_email": "a@example.com"})
	assert.NoError(t, err, "same literal on a different field")

	_, err = fx.store.CreateRecord(ctx, admins.ID, "bob", map[string]any{"email": "a@example.com"})
	assert.NoError(t, err, "same literal in a different collection")

	_, err = fx.store.UpdateRecord(ctx, users.ID, first.ID, map[string]any{"email": "a@example.com"})
	assert.NoError(t, err, "rewriting a record's own unique value is not a collision")
}

func TestUpdateRecord(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	c := fx.collection(t, 1, "Posts",
		schema.FieldAttrs{Name: "title", Type: "text", Required: true},
		schema.FieldAttrs{Name: "subtitle", Type: "text"},
	)
	rec, err := fx.store.CreateRecord(ctx, c.ID, "alice", map[string]any{"title": "One", "subtitle": "first"})
	require.NoError(t, err)

	updated, err := fx.store.UpdateRecord(ctx, c.ID, rec.ID, map[string]any{"subtitle": nil})
	require.NoError(t, err)
	assert.Equal(t, "One", updated.Values["title"].Str(), "unsupplied fields are kept")
	_, has := updated.Values["subtitle"]
	assert.False(t, has, "nil clears a value")

	_, err = fx.store.UpdateRecord(ctx, c.ID, rec.ID, map[string]any{"title": "  "})
	assert.True(t, errors.Is(err, core.ErrValidationFailed))

	other := fx.collection(t, 1, "Other")
	_, err = fx.store.UpdateRecord(ctx, other.ID, rec.ID, map[string]any{})
	assert.True(t, errors.Is(err, core.ErrMismatch))

	_, err = fx.store.GetRecord(ctx, other.ID, rec.ID)
	assert.True(t, errors.Is(err, core.ErrMismatch))

	require.NoError(t, fx.store.DeleteRecord(ctx, c.ID, rec.ID))
	_, err = fx.store.ReadRecord(ctx, rec.ID)
	assert.True(t, errors.Is(err, core.ErrNotFound))
}

func TestRelationValuesMustExist(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	authors := fx.collection(t, 1, "Authors", schema.FieldAttrs{Name: "name", Type: "text"})
	books, err := fx.schema.CreateCollection(ctx, 1, schema.CollectionAttrs{Name: "Books"})
	require.NoError(t, err)
	_, err = fx.schema.AddField(ctx, 1, books.ID, schema.FieldAttrs{Name: "author", Type: "relation", RelatedCollectionID: &authors.ID})
	require.NoError(t, err)

	_, err = fx.store.CreateRecord(ctx, books.ID, "alice", map[string]any{"author": 999.0})
	require.True(t, errors.Is(err, core.ErrValidationFailed))
	assert.Equal(t, core.CodeRelation, core.Failures(err)[0].Code)

	author, err := fx.store.CreateRecord(ctx, authors.ID, "alice", map[string]any{"name": "Le Guin"})
	require.NoError(t, err)
	book, err := fx.store.CreateRecord(ctx, books.ID, "alice", map[string]any{"author": float64(author.ID)})
	require.NoError(t, err)
	assert.Equal(t, author.ID, book.Values["author"].RelationID())
}

func TestInactiveAndRemovedFields(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	c := fx.collection(t, 1, "Events", schema.FieldAttrs{Name: "title", Type: "text"}, schema.FieldAttrs{Name: "venue", Type: "text"})
	rec, err := fx.store.CreateRecord(ctx, c.ID, "alice", map[string]any{"title": "Launch", "venue": "Hall"})
	require.NoError(t, err)

	fields, err := fx.schema.ListFields(ctx, 1, c.ID)
	require.NoError(t, err)
	var venueID int64
	for _, f := range fields {
		if f.Name == "venue" {
			venueID = f.ID
		}
	}
	require.NoError(t, fx.schema.DeleteField(ctx, 1, c.ID, venueID))

	read, err := fx.store.ReadRecord(ctx, rec.ID)
	require.NoError(t, err)
	assert.NotContains(t, read.Values, "venue")

	_, err = fx.store.UpdateRecord(ctx, c.ID, rec.ID, map[string]any{"venue": "Annex"})
	assert.True(t, errors.Is(err, core.ErrUnknownField), "stale field references fail closed")
}

func TestQueryRecords(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	c := fx.collection(t, 1, "Articles",
		schema.FieldAttrs{Name: "title", Type: "text", Searchable: true},
		schema.FieldAttrs{Name: "published", Type: "boolean", Searchable: true},
		schema.FieldAttrs{Name: "body", Type: "textarea"},
	)
	for _, in := range []struct {
		owner     string
		title     string
		published bool
	}{
		{"alice", "Go tips", true},
		{"alice", "Rust tips", false},
		{"bob", "Go concurrency", true},
	} {
		_, err := fx.store.CreateRecord(ctx, c.ID, in.owner, map[string]any{"title": in.title, "published": in.published})
		require.NoError(t, err)
	}

	page, err := fx.store.QueryRecords(ctx, c.ID, Query{Filters: []Filter{{Field: "title", Op: storage.FilterContains, Value: "go"}}})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)

	page, err = fx.store.QueryRecords(ctx, c.ID, Query{Filters: []Filter{{Field: "published", Op: storage.FilterEquals, Value: "true"}}})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total, "equality compares canonical stored values")

	page, err = fx.store.QueryRecords(ctx, c.ID, Query{CreatedBy: "alice", OrderBy: "id", Desc: true, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	require.Len(t, page.Records, 1)
	assert.Equal(t, "Rust tips", page.Records[0].Values["title"].Str())

	_, err = fx.store.QueryRecords(ctx, c.ID, Query{Filters: []Filter{{Field: "body", Op: storage.FilterEquals, Value: "x"}}})
	assert.True(t, errors.Is(err, core.ErrValidationFailed), "non-searchable fields cannot be filtered")

	_, err = fx.store.QueryRecords(ctx, c.ID, Query{Filters: []Filter{{Field: "nope", Op: storage.FilterEquals, Value: "x"}}})
	assert.True(t, errors.Is(err, core.ErrUnknownField))
}

func TestSelectRecord(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	c := fx.collection(t, 1, "Quotes", schema.FieldAttrs{Name: "text", Type: "text"})

	_, err := fx.store.SelectRecord(ctx, c.ID, domain.DisplayFirst, nil, "")
	assert.True(t, errors.Is(err, core.ErrNotFound))

	a, err := fx.store.CreateRecord(ctx, c.ID, "alice", map[string]any{"text": "a"})
	require.NoError(t, err)
	b, err := fx.store.CreateRecord(ctx, c.ID, "bob", map[string]any{"text": "b"})
	require.NoError(t, err)

	got, err := fx.store.SelectRecord(ctx, c.ID, domain.DisplaySingle, &b.ID, "")
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)

	_, err = fx.store.SelectRecord(ctx, c.ID, domain.DisplaySingle, nil, "")
	assert.True(t, errors.Is(err, core.ErrNotFound))

	_, err = fx.store.SelectRecord(ctx, c.ID, domain.DisplaySingle, &b.ID, "alice")
	assert.True(t, errors.Is(err, core.ErrNotFound), "owner scope hides other users' records")

	got, err = fx.store.SelectRecord(ctx, c.ID, domain.DisplayFirst, nil, "")
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)

	got, err = fx.store.SelectRecord(ctx, c.ID, domain.DisplayLast, nil, "")
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)
}

func TestTypeChangeKeepsUniqueness(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	c := fx.collection(t, 1, "Parts")
	code, err := fx.schema.AddField(ctx, 1, c.ID, schema.FieldAttrs{Name: "code", Type: "text", Unique: true})
	require.NoError(t, err)

	first, err := fx.store.CreateRecord(ctx, c.ID, "alice", map[string]any{"code": "5.0"})
	require.NoError(t, err)

	_, err = fx.schema.UpdateField(ctx, 1, c.ID, code.ID, schema.FieldUpdate{Type: strPtr("number")})
	require.NoError(t, err)

	read, err := fx.store.GetRecord(ctx, c.ID, first.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(5), read.Values["code"].Native())

	_, err = fx.store.CreateRecord(ctx, c.ID, "bob", map[string]any{"code": 5})
	require.True(t, errors.Is(err, core.ErrUniquenessViolation), "got %v", err)
}

func TestTypeChangeRejectedWhenValuesCollide(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	c := fx.collection(t, 1, "Parts")
	code, err := fx.schema.AddField(ctx, 1, c.ID, schema.FieldAttrs{Name: "code", Type: "text", Unique: true})
	require.NoError(t, err)

	_, err = fx.store.CreateRecord(ctx, c.ID, "alice", map[string]any{"code": "5"})
	require.NoError(t, err)
	second, err := fx.store.CreateRecord(ctx, c.ID, "bob", map[string]any{"code": "5.0"})
	require.NoError(t, err, "distinct as text")

	_, err = fx.schema.UpdateField(ctx, 1, c.ID, code.ID, schema.FieldUpdate{Type: strPtr("number")})
	require.True(t, errors.Is(err, core.ErrUniquenessViolation), "got %v", err)

	f, err := fx.schema.GetField(ctx, 1, c.ID, code.ID)
	require.NoError(t, err)
	assert.Equal(t, "text", f.Type, "the failed update is rolled back")
	read, err := fx.store.GetRecord(ctx, c.ID, second.ID)
	require.NoError(t, err)
	assert.Equal(t, "5.0", read.Values["code"].Native())
}

func TestEmptyStringsAreNotUniqueKeys(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	c := fx.collection(t, 1, "Handles", schema.FieldAttrs{Name: "handle", Type: "text", Unique: true})

	_, err := fx.store.CreateRecord(ctx, c.ID, "alice", map[string]any{"handle": ""})
	require.NoError(t, err)
	_, err = fx.store.CreateRecord(ctx, c.ID, "bob", map[string]any{"handle": ""})
	assert.NoError(t, err, "an empty string means no value, like null")
}

func TestJSONValuesAndDefaults(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	c := fx.collection(t, 1, "Settings",
		schema.FieldAttrs{Name: "name", Type: "text"},
		schema.FieldAttrs{Name: "prefs", Type: "json", DefaultValue: strPtr(`{"theme":"dark"}`)},
	)

	withDefault, err := fx.store.CreateRecord(ctx, c.ID, "alice", map[string]any{"name": "a"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"theme": "dark"}, withDefault.Values["prefs"].Native())

	withString, err := fx.store.CreateRecord(ctx, c.ID, "alice", map[string]any{"prefs": "42"})
	require.NoError(t, err)
	read, err := fx.store.GetRecord(ctx, c.ID, withString.ID)
	require.NoError(t, err)
	assert.Equal(t, "42", read.Values["prefs"].Native(), "a string literal stays a string")
}
