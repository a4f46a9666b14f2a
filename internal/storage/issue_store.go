package storage

import (
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/mvp-joe/phpscan/internal/issue"
)

// IssueStore reads and writes the issues recorded per file.
type IssueStore struct {
	db *sql.DB
}

// NewIssueStore creates an IssueStore backed by db.
func NewIssueStore(db *sql.DB) *IssueStore {
	return &IssueStore{db: db}
}

// ReplaceFileIssues atomically replaces the stored issues for path with
// issues, tagging each row with runID. Issues found in earlier runs for
// the same file are discarded.
func (s *IssueStore) ReplaceFileIssues(path, runID string, issues []issue.Issue) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	deleteQuery, deleteArgs, err := sq.Delete("issues").
		Where(sq.Eq{"file_path": path}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete query: %w", err)
	}
	if _, err := tx.Exec(deleteQuery, deleteArgs...); err != nil {
		return fmt.Errorf("failed to delete issues for %s: %w", path, err)
	}

	if len(issues) == 0 {
		return tx.Commit()
	}

	insertQuery, _, err := sq.Insert("issues").
		Columns("file_path", "check_id", "severity", "message", "line", "col", "identifier", "tip", "run_id").
		Values("", "", 0, "", 0, 0, "", "", "").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert query: %w", err)
	}

	stmt, err := tx.Prepare(insertQuery)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, iss := range issues {
		_, err := stmt.Exec(
			path,
			iss.CheckID,
			int(iss.Severity),
			iss.Message,
			iss.Line,
			iss.Column,
			iss.Identifier,
			iss.Tip,
			runID,
		)
		if err != nil {
			return fmt.Errorf("failed to insert issue for %s: %w", path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// IssuesForFile returns the stored issues for path in (line, column)
// order. The File field of each issue is populated from the row's path.
func (s *IssueStore) IssuesForFile(path string) ([]issue.Issue, error) {
	return s.queryIssues(sq.Eq{"file_path": path})
}

// IssuesForRun returns all issues tagged with runID in
// (file, line, column) order.
func (s *IssueStore) IssuesForRun(runID string) ([]issue.Issue, error) {
	return s.queryIssues(sq.Eq{"run_id": runID})
}

// AllIssues returns every stored issue in (file, line, column) order.
func (s *IssueStore) AllIssues() ([]issue.Issue, error) {
	return s.queryIssues(nil)
}

// CountIssues returns the total number of stored issues.
func (s *IssueStore) CountIssues() (int, error) {
	var count int
	err := sq.Select("COUNT(*)").
		From("issues").
		RunWith(s.db).
		QueryRow().
		Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count issues: %w", err)
	}
	return count, nil
}

func (s *IssueStore) queryIssues(where any) ([]issue.Issue, error) {
	builder := sq.Select("file_path", "check_id", "severity", "message", "line", "col", "identifier", "tip").
		From("issues").
		OrderBy("file_path", "line", "col")
	if where != nil {
		builder = builder.Where(where)
	}

	rows, err := builder.RunWith(s.db).Query()
	if err != nil {
		return nil, fmt.Errorf("failed to query issues: %w", err)
	}
	defer rows.Close()

	var issues []issue.Issue
	for rows.Next() {
		var iss issue.Issue
		var severity int
		if err := rows.Scan(&iss.File, &iss.CheckID, &severity, &iss.Message, &iss.Line, &iss.Column, &iss.Identifier, &iss.Tip); err != nil {
			return nil, fmt.Errorf("failed to scan issue row: %w", err)
		}
		iss.Severity = issue.Severity(severity)
		issues = append(issues, iss)
	}

	return issues, rows.Err()
}
