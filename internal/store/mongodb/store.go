// Package mongodb implements store.Store on top of MongoDB, with one
// collection per logical table. The driver's retryable reads and writes
// cover transient-failure handling.
package mongodb

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/herdbook/herdbook/internal/store"
)

// Store is a mongo-backed store.Store.
type Store struct {
	client *mongo.Client
	dbName string
}

var _ store.Store = (*Store)(nil)

// New connects to MongoDB and verifies the connection.
func New(ctx context.Context, uri, dbName string) (*Store, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &Store{client: client, dbName: dbName}, nil
}

// Close closes the MongoDB connection.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) collection(table string) *mongo.Collection {
	return s.client.Database(s.dbName).Collection(table)
}

// Select fetches rows matching the query.
func (s *Store) Select(ctx context.Context, table string, q store.Query) ([]map[string]any, error) {
	filter, err := buildFilter(q.Filters)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", table, err)
	}

	opts := options.Find()
	if q.OrderBy != "" {
		direction := -1
		if q.Ascending {
			direction = 1
		}
		opts.SetSort(bson.D{{Key: q.OrderBy, Value: direction}})
	}
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}
	if q.Offset > 0 {
		opts.SetSkip(int64(q.Offset))
	}

	cursor, err := s.collection(table).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", table, err)
	}
	defer cursor.Close(ctx)

	var rows []map[string]any
	for cursor.Next(ctx) {
		row := map[string]any{}
		if err := cursor.Decode(&row); err != nil {
			return nil, fmt.Errorf("select %s: decode row: %w", table, err)
		}
		delete(row, "_id")
		rows = append(rows, normalizeRow(row))
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("select %s: %w", table, err)
	}

	return rows, nil
}

// Insert persists one row, assigning an id when the caller did not.
func (s *Store) Insert(ctx context.Context, table string, row map[string]any) (map[string]any, error) {
	stored := make(map[string]any, len(row)+1)
	for k, v := range row {
		stored[k] = v
	}
	if _, ok := stored["id"]; !ok {
		stored["id"] = uuid.NewString()
	}

	if _, err := s.collection(table).InsertOne(ctx, stored); err != nil {
		return nil, fmt.Errorf("insert %s: %w", table, err)
	}

	delete(stored, "_id")
	return stored, nil
}

// Update patches the first row matching the field and returns the updated
// representation.
func (s *Store) Update(ctx context.Context, table, matchField string, matchValue any, patch map[string]any) (map[string]any, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	result := s.collection(table).FindOneAndUpdate(ctx,
		bson.M{matchField: matchValue},
		bson.M{"$set": bson.M(patch)},
		opts)

	row := map[string]any{}
	if err := result.Decode(&row); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("update %s: %s=%v: %w", table, matchField, matchValue, store.ErrNotFound)
		}
		return nil, fmt.Errorf("update %s: %w", table, err)
	}

	delete(row, "_id")
	return normalizeRow(row), nil
}

// Delete removes rows matching the field.
func (s *Store) Delete(ctx context.Context, table, matchField string, matchValue any) error {
	if _, err := s.collection(table).DeleteMany(ctx, bson.M{matchField: matchValue}); err != nil {
		return fmt.Errorf("delete %s: %w", table, err)
	}
	return nil
}

// normalizeRow converts driver-specific container types (bson.M, bson.A) to
// the plain maps and slices the rest of the code expects from a Store.
func normalizeRow(row map[string]any) map[string]any {
	out := make(map[string]any, len(row))
	for k, v := range row {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch typed := v.(type) {
	case bson.M:
		return normalizeRow(map[string]any(typed))
	case map[string]any:
		return normalizeRow(typed)
	case bson.A:
		items := make([]any, len(typed))
		for i, item := range typed {
			items[i] = normalizeValue(item)
		}
		return items
	}
	return v
}

func buildFilter(filters []store.Filter) (bson.M, error) {
	out := bson.M{}
	for _, f := range filters {
		switch f.Op {
		case store.OpEq:
			out[f.Field] = f.Value
		case store.OpGte:
			out[f.Field] = bson.M{"$gte": f.Value}
		case store.OpLte:
			out[f.Field] = bson.M{"$lte": f.Value}
		case store.OpLike:
			out[f.Field] = bson.M{"$regex": likeToRegex(f.Value)}
		case store.OpILike:
			out[f.Field] = bson.M{"$regex": likeToRegex(f.Value), "$options": "i"}
		default:
			return nil, fmt.Errorf("unsupported filter op %q", f.Op)
		}
	}
	return out, nil
}

func likeToRegex(value any) string {
	pattern := fmt.Sprint(value)
	var b strings.Builder
	for _, r := range pattern {
		if r == '%' {
			b.WriteString(".*")
			continue
		}
		b.WriteString(regexQuote(r))
	}
	return "^" + b.String() + "$"
}

func regexQuote(r rune) string {
	switch r {
	case '.', '+', '*', '?', '(', ')', '[', ']', '{', '}', '^', '$', '|', '\\':
		return "\\" + string(r)
	}
	return string(r)
}
