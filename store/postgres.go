package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"usuarios-service/models"

	"github.com/google/uuid"
)

const (
	createUsersTableQuery = `CREATE TABLE IF NOT EXISTS usuarios (
		id TEXT PRIMARY KEY,
		username TEXT,
		email TEXT,
		password TEXT
	)`

	insertUserQuery  = `INSERT INTO usuarios (id, username, email, password) VALUES ($1, $2, $3, $4)`
	selectUsersQuery = `SELECT id, username, email, password FROM usuarios`
)

// columns maps stored field names to table columns, in update order.
var columns = []struct {
	field  string
	column string
}{
	{models.FieldID, "id"},
	{models.FieldUsername, "username"},
	{models.FieldEmail, "email"},
	{models.FieldPassword, "password"},
}

var newID = uuid.NewString

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureUsersTable creates the usuarios table when it does not exist yet.
func EnsureUsersTable(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, createUsersTableQuery); err != nil {
		return fmt.Errorf("create usuarios table: %w", err)
	}
	return nil
}

func (s *PostgresStore) InsertOne(ctx context.Context, doc models.Document) (any, error) {
	id := newID()
	_, err := s.db.ExecContext(ctx, insertUserQuery,
		id, doc[models.FieldUsername], doc[models.FieldEmail], doc[models.FieldPassword])
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) FindOne(ctx context.Context, filter Filter) (models.Document, error) {
	column, err := filterColumn(filter)
	if err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, selectUsersQuery+" WHERE "+column+" = $1", filter.Value)
	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoDocument
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return doc, nil
}

func (s *PostgresStore) Find(ctx context.Context) ([]models.Document, error) {
	rows, err := s.db.QueryContext(ctx, selectUsersQuery)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return docs, nil
}

func (s *PostgresStore) UpdateOne(ctx context.Context, filter Filter, set models.Document) (int64, error) {
	column, err := filterColumn(filter)
	if err != nil {
		return 0, err
	}
	if len(set) == 0 {
		return 0, errors.New("update requires at least one field")
	}

	assignments := make([]string, 0, len(set))
	args := make([]any, 0, len(set)+1)
	seen := 0
	for _, c := range columns {
		value, ok := set[c.field]
		if !ok {
			continue
		}
		if c.field == models.FieldID {
			return 0, errors.New("the store identifier cannot be updated")
		}
		args = append(args, value)
		assignments = append(assignments, fmt.Sprintf("%s = $%d", c.column, len(args)))
		seen++
	}
	if seen != len(set) {
		return 0, fmt.Errorf("update contains unsupported fields: %v", set)
	}
	args = append(args, filter.Value)

	query := fmt.Sprintf("UPDATE usuarios SET %s WHERE %s = $%d", strings.Join(assignments, ", "), column, len(args))
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("update user: %w", err)
	}
	return result.RowsAffected()
}

func (s *PostgresStore) DeleteOne(ctx context.Context, filter Filter) (int64, error) {
	column, err := filterColumn(filter)
	if err != nil {
		return 0, err
	}

	result, err := s.db.ExecContext(ctx, "DELETE FROM usuarios WHERE "+column+" = $1", filter.Value)
	if err != nil {
		return 0, fmt.Errorf("delete user: %w", err)
	}
	return result.RowsAffected()
}

func (s *PostgresStore) Close(context.Context) error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanDocument leaves NULL columns out of the document so that incomplete
// rows surface as serialization failures.
func scanDocument(row rowScanner) (models.Document, error) {
	values := make([]sql.NullString, len(columns))
	dest := make([]any, len(columns))
	for i := range values {
		dest[i] = &values[i]
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	doc := models.Document{}
	for i, c := range columns {
		if values[i].Valid {
			doc[c.field] = values[i].String
		}
	}
	return doc, nil
}

func filterColumn(filter Filter) (string, error) {
	if err := filter.validate(); err != nil {
		return "", err
	}
	for _, c := range columns {
		if c.field == filter.Field {
			return c.column, nil
		}
	}
	return "", fmt.Errorf("unsupported filter field %q", filter.Field)
}
