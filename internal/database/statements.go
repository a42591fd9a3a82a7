package database

import (
	"database/sql"
	"fmt"
)

func (s *MySql) prepareStmt(name, query string) (*sql.Stmt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if stmt, ok := s.statements[name]; ok {
		return stmt, nil
	}

	stmt, err := s.db.Prepare(query)
	if err != nil {
		return nil, fmt.Errorf("prepare statement [%s]: %w", name, err)
	}

	s.statements[name] = stmt
	return stmt, nil
}

func (s *MySql) closeStmt() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for name, stmt := range s.statements {
		_ = stmt.Close()
		delete(s.statements, name)
	}
}

func (s *MySql) stmtSelectPass() (*sql.Stmt, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s%s WHERE id = ?`, passColumns, s.prefix, tablePasses)
	return s.prepareStmt("selectPass", query)
}

func (s *MySql) stmtSelectPasses() (*sql.Stmt, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM %s%s ORDER BY created_at DESC, id DESC`,
		passColumns, s.prefix, tablePasses,
	)
	return s.prepareStmt("selectPasses", query)
}

func (s *MySql) stmtSearchPasses() (*sql.Stmt, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM %s%s
                   WHERE national_id LIKE ? OR name LIKE ? OR surname LIKE ?
                   ORDER BY created_at DESC, id DESC`,
		passColumns, s.prefix, tablePasses,
	)
	return s.prepareStmt("searchPasses", query)
}

func (s *MySql) stmtUpdateStatus() (*sql.Stmt, error) {
	query := fmt.Sprintf(
		`UPDATE %s%s SET 
                   status = ?,
                   checked_in_at = ?,
                   record_updated_at = ?
                   WHERE id = ?`,
		s.prefix, tablePasses,
	)
	return s.prepareStmt("updateStatus", query)
}

func (s *MySql) stmtUpdateStatusGuarded() (*sql.Stmt, error) {
	query := fmt.Sprintf(
		`UPDATE %s%s SET 
                   status = ?,
                   checked_in_at = ?,
                   record_updated_at = ?
                   WHERE id = ? AND status = ?`,
		s.prefix, tablePasses,
	)
	return s.prepareStmt("updateStatusGuarded", query)
}
