package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
)

type Column struct {
	Name          string
	DefaultValue  *string // nil when the column has no default
	IsNullable    bool
	DataType      string
	AutoIncrement bool
}

// loadTableStructure reads column metadata of a table in the current schema.
func (s *MySql) loadTableStructure(ctx context.Context, tableName string) (map[string]Column, error) {
	query := `
        SELECT COLUMN_NAME, COLUMN_DEFAULT, IS_NULLABLE, DATA_TYPE, EXTRA
          FROM information_schema.columns
         WHERE table_schema = DATABASE() AND table_name = ?
         ORDER BY ORDINAL_POSITION`

	rows, err := s.db.QueryContext(ctx, query, s.prefix+tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to query columns: %w", err)
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	columns := make(map[string]Column)

	for rows.Next() {
		var colName, isNullable, dataType, extra string
		var colDefault sql.NullString

		if err = rows.Scan(&colName, &colDefault, &isNullable, &dataType, &extra); err != nil {
			return nil, fmt.Errorf("failed to scan column info: %w", err)
		}

		var defValPtr *string
		if colDefault.Valid {
			defValPtr = &colDefault.String
		}

		columns[colName] = Column{
			Name:          colName,
			DefaultValue:  defValPtr,
			IsNullable:    isNullable == "YES",
			DataType:      dataType,
			AutoIncrement: strings.Contains(extra, "auto_increment"),
		}
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("after scanning rows: %w", err)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s%s not found", s.prefix, tableName)
	}

	return columns, nil
}

func (s *MySql) readStructure(ctx context.Context, table string) (map[string]Column, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.structure == nil {
		return nil, errors.New("structure cache is not initialized")
	}
	tableInfo, ok := s.structure[table]
	if !ok {
		var err error
		tableInfo, err = s.loadTableStructure(ctx, table)
		if err != nil {
			return nil, fmt.Errorf("load table structure: %w", err)
		}
		s.structure[table] = tableInfo
	}
	return tableInfo, nil
}

// insert writes rec into table and returns the generated id. Columns missing from
// rec are left to their database default; NOT NULL columns without a default get
// a zero value of their type.
func (s *MySql) insert(ctx context.Context, table string, rec map[string]interface{}) (int64, error) {
	tableInfo, err := s.readStructure(ctx, table)
	if err != nil {
		return 0, err
	}

	names := make([]string, 0, len(tableInfo))
	for name := range tableInfo {
		names = append(names, name)
	}
	sort.Strings(names)

	var colNames []string
	var placeholders []string
	var values []interface{}

	for _, colName := range names {
		colInfo := tableInfo[colName]
		if colInfo.AutoIncrement {
			continue
		}
		if val, ok := rec[colName]; ok {
			colNames = append(colNames, colName)
			placeholders = append(placeholders, "?")
			values = append(values, val)
			continue
		}
		if colInfo.DefaultValue != nil || colInfo.IsNullable {
			continue
		}
		colNames = append(colNames, colName)
		placeholders = append(placeholders, "?")

		switch colInfo.DataType {
		case "int", "bigint", "smallint", "tinyint", "decimal", "float", "double":
			values = append(values, 0)
		case "varchar", "text", "char", "blob":
			values = append(values, "")
		default:
			values = append(values, nil)
		}
	}
	if len(colNames) == 0 {
		return 0, fmt.Errorf("no columns found in table %s", table)
	}

	insertSQL := fmt.Sprintf(
		"INSERT INTO %s%s (%s) VALUES (%s)",
		s.prefix,
		table,
		strings.Join(colNames, ", "),
		strings.Join(placeholders, ", "),
	)
	res, err := s.db.ExecContext(ctx, insertSQL, values...)
	if err != nil {
		return 0, fmt.Errorf("%s insert: %w", table, err)
	}

	rowId, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%s get last insert id: %v", table, err)
	}

	return rowId, nil
}
