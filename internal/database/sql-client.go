package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"entrypass/entity"
	"entrypass/internal/config"
	"entrypass/lib/apperr"

	"github.com/go-sql-driver/mysql"
)

const tablePasses = "passes"

const passColumns = "id, name, surname, national_id, status, created_at, checked_in_at, owner_id, record_created_at, record_updated_at"

type MySql struct {
	db         *sql.DB
	prefix     string
	structure  map[string]map[string]Column
	statements map[string]*sql.Stmt
	mu         sync.Mutex
}

// mysqlDSN builds the connection string. ClientFoundRows makes RowsAffected
// count matched rows, which the guarded status update relies on.
func mysqlDSN(conf *config.Config) (string, error) {
	loc, err := time.LoadLocation(conf.Location)
	if err != nil {
		return "", fmt.Errorf("load location: %w", err)
	}
	c := mysql.NewConfig()
	c.User = conf.Store.UserName
	c.Passwd = conf.Store.Password
	c.Net = "tcp"
	c.Addr = net.JoinHostPort(conf.Store.HostName, conf.Store.Port)
	c.DBName = conf.Store.Database
	c.ParseTime = true
	c.Loc = loc
	c.ClientFoundRows = true
	return c.FormatDSN(), nil
}

func NewSQLClient(conf *config.Config) (*MySql, error) {
	dsn, err := mysqlDSN(conf)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql connect: %w", err)
	}

	// try to ping three times with a 10-second interval; wait for a database to start
	for i := 0; i < 3; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		if i == 2 {
			_ = db.Close()
			return nil, fmt.Errorf("ping database: %w", err)
		}
		time.Sleep(10 * time.Second)
	}

	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(time.Hour)

	sdb := &MySql{
		db:         db,
		prefix:     conf.Store.Prefix,
		structure:  make(map[string]map[string]Column),
		statements: make(map[string]*sql.Stmt),
	}
	if err = sdb.createTableIfNotExists(); err != nil {
		sdb.Close()
		return nil, err
	}
	return sdb, nil
}

func (s *MySql) Close() {
	s.closeStmt()
	_ = s.db.Close()
}

func (s *MySql) createTableIfNotExists() error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s%s (
		id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(128) NOT NULL,
		surname VARCHAR(128) NOT NULL,
		national_id VARCHAR(32) NOT NULL,
		status VARCHAR(16) NOT NULL DEFAULT 'pending',
		created_at DATETIME(3) NOT NULL,
		checked_in_at DATETIME(3) NULL,
		owner_id BIGINT NULL,
		record_created_at DATETIME(3) NOT NULL,
		record_updated_at DATETIME(3) NOT NULL,
		KEY idx_passes_created_at (created_at),
		KEY idx_passes_national_id (national_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`, s.prefix, tablePasses)
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create table %s: %w", tablePasses, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPass(row rowScanner) (*entity.Pass, error) {
	var pass entity.Pass
	var status string
	var checkedInAt sql.NullTime
	var ownerId sql.NullInt64
	if err := row.Scan(
		&pass.Id,
		&pass.Name,
		&pass.Surname,
		&pass.NationalId,
		&status,
		&pass.CreatedAt,
		&checkedInAt,
		&ownerId,
		&pass.RecordCreatedAt,
		&pass.RecordUpdatedAt,
	); err != nil {
		return nil, err
	}
	pass.Status = entity.Status(status)
	pass.CreatedAt = pass.CreatedAt.UTC()
	pass.RecordCreatedAt = pass.RecordCreatedAt.UTC()
	pass.RecordUpdatedAt = pass.RecordUpdatedAt.UTC()
	if checkedInAt.Valid {
		t := checkedInAt.Time.UTC()
		pass.CheckedInAt = &t
	}
	if ownerId.Valid {
		id := ownerId.Int64
		pass.OwnerId = &id
	}
	return &pass, nil
}

func (s *MySql) CreatePass(ctx context.Context, pass *entity.Pass) (*entity.Pass, error) {
	rec := map[string]interface{}{
		"name":              pass.Name,
		"surname":           pass.Surname,
		"national_id":       pass.NationalId,
		"status":            string(pass.Status),
		"created_at":        pass.CreatedAt,
		"record_created_at": pass.RecordCreatedAt,
		"record_updated_at": pass.RecordUpdatedAt,
	}
	if pass.CheckedInAt != nil {
		rec["checked_in_at"] = *pass.CheckedInAt
	}
	if pass.OwnerId != nil {
		rec["owner_id"] = *pass.OwnerId
	}
	id, err := s.insert(ctx, tablePasses, rec)
	if err != nil {
		return nil, apperr.Internal("insert pass", err)
	}
	return s.GetPass(ctx, id)
}

func (s *MySql) GetPass(ctx context.Context, id int64) (*entity.Pass, error) {
	stmt, err := s.stmtSelectPass()
	if err != nil {
		return nil, apperr.Internal("prepare", err)
	}
	pass, err := scanPass(stmt.QueryRowContext(ctx, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("pass %d", id)
		}
		return nil, apperr.Internal("select pass", err)
	}
	return pass, nil
}

// UpdatePassStatus runs a single UPDATE; with Expect set the status guard is part
// of its WHERE clause, so concurrent guarded writers cannot both match.
func (s *MySql) UpdatePassStatus(ctx context.Context, upd entity.StatusUpdate) (*entity.Pass, bool, error) {
	var checkedInAt sql.NullTime
	if upd.CheckedInAt != nil {
		checkedInAt = sql.NullTime{Time: *upd.CheckedInAt, Valid: true}
	}

	var res sql.Result
	if upd.Expect != nil {
		stmt, err := s.stmtUpdateStatusGuarded()
		if err != nil {
			return nil, false, apperr.Internal("prepare", err)
		}
		res, err = stmt.ExecContext(ctx, string(upd.Status), checkedInAt, upd.UpdatedAt, upd.Id, string(*upd.Expect))
		if err != nil {
			return nil, false, apperr.Internal("update status", err)
		}
	} else {
		stmt, err := s.stmtUpdateStatus()
		if err != nil {
			return nil, false, apperr.Internal("prepare", err)
		}
		res, err = stmt.ExecContext(ctx, string(upd.Status), checkedInAt, upd.UpdatedAt, upd.Id)
		if err != nil {
			return nil, false, apperr.Internal("update status", err)
		}
	}

	matched, err := res.RowsAffected()
	if err != nil {
		return nil, false, apperr.Internal("rows affected", err)
	}
	if matched == 0 {
		return nil, false, nil
	}
	pass, err := s.GetPass(ctx, upd.Id)
	if err != nil {
		return nil, false, err
	}
	return pass, true, nil
}

func (s *MySql) ListPasses(ctx context.Context, search string) ([]*entity.Pass, error) {
	var rows *sql.Rows
	if search == "" {
		stmt, err := s.stmtSelectPasses()
		if err != nil {
			return nil, apperr.Internal("prepare", err)
		}
		rows, err = stmt.QueryContext(ctx)
		if err != nil {
			return nil, apperr.Internal("query passes", err)
		}
	} else {
		stmt, err := s.stmtSearchPasses()
		if err != nil {
			return nil, apperr.Internal("prepare", err)
		}
		pattern := likePattern(search)
		rows, err = stmt.QueryContext(ctx, pattern, pattern, pattern)
		if err != nil {
			return nil, apperr.Internal("query passes", err)
		}
	}
	defer rows.Close()

	passes := make([]*entity.Pass, 0)
	for rows.Next() {
		pass, err := scanPass(rows)
		if err != nil {
			return nil, apperr.Internal("scan pass", err)
		}
		passes = append(passes, pass)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal("read passes", err)
	}
	return passes, nil
}
