package database

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/argusia/argus/internal/utils"
)

// DefaultBatchSize is the number of rows per multi-row INSERT.
const DefaultBatchSize = 100

// Table represents a database table with common methods
type Table interface {
	TableName() string
}

// CRUD provides generic database operations for any model
type CRUD struct {
	DB        *Pool
	BatchSize int
}

// NewCRUD creates a new CRUD instance with the given database pool
func NewCRUD(db *Pool) *CRUD {
	return &CRUD{DB: db, BatchSize: DefaultBatchSize}
}

// columns returns the db-tagged column names of model and their values, in
// field order.
func columns(model Table) ([]string, []interface{}) {
	modelType := reflect.TypeOf(model)
	modelValue := reflect.ValueOf(model)
	if modelType.Kind() == reflect.Ptr {
		modelType = modelType.Elem()
		modelValue = modelValue.Elem()
	}

	var fields []string
	var values []interface{}
	for i := 0; i < modelType.NumField(); i++ {
		dbTag := modelType.Field(i).Tag.Get("db")
		if dbTag == "" || dbTag == "-" {
			continue
		}
		fields = append(fields, dbTag)
		values = append(values, modelValue.Field(i).Interface())
	}
	return fields, values
}

// Insert inserts model using q, which may be the pool or a transaction.
func (c *CRUD) Insert(ctx context.Context, q Querier, model Table) error {
	return c.InsertBatch(ctx, q, []Table{model})
}

// InsertBatch inserts rows of the same table with multi-row INSERT
// statements of at most BatchSize rows each.
func (c *CRUD) InsertBatch(ctx context.Context, q Querier, rows []Table) error {
	if len(rows) == 0 {
		return nil
	}

	table := rows[0].TableName()
	fields, _ := columns(rows[0])
	if len(fields) == 0 {
		return fmt.Errorf("model for %s has no db columns", table)
	}

	size := c.BatchSize
	if size <= 0 {
		size = DefaultBatchSize
	}

	for start := 0; start < len(rows); start += size {
		end := start + size
		if end > len(rows) {
			end = len(rows)
		}

		groups := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*len(fields))
		for _, row := range rows[start:end] {
			if row.TableName() != table {
				return fmt.Errorf("cannot batch %s rows with %s rows", row.TableName(), table)
			}
			_, values := columns(row)
			groups = append(groups, "("+Placeholders(len(args)+1, len(values))+")")
			args = append(args, values...)
		}

		query := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
			table, strings.Join(fields, ", "), strings.Join(groups, ", "))

		startTime := time.Now()
		_, err := q.ExecContext(ctx, c.DB.Rebind(query), args...)
		utils.LogDBQuery(query, args, time.Since(startTime), err)
		if err != nil {
			return fmt.Errorf("failed to insert into %s: %w", table, err)
		}
	}

	return nil
}

// Count counts records matching the equality conditions.
func (c *CRUD) Count(ctx context.Context, model Table, conditions map[string]interface{}) (int64, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", model.TableName())

	keys := make([]string, 0, len(conditions))
	for k := range conditions {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var args []interface{}
	if len(keys) > 0 {
		clauses := make([]string, len(keys))
		for i, k := range keys {
			clauses[i] = fmt.Sprintf("%s = $%d", k, i+1)
			args = append(args, conditions[k])
		}
		query += " WHERE " + strings.Join(clauses, " AND ")
	}

	startTime := time.Now()
	var count int64
	err := c.DB.QueryRowContext(ctx, c.DB.Rebind(query), args...).Scan(&count)
	utils.LogDBQuery(query, args, time.Since(startTime), err)
	if err != nil {
		return 0, fmt.Errorf("failed to count records in %s: %w", model.TableName(), err)
	}

	return count, nil
}
