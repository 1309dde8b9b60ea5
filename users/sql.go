package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// AdminUserID is the built-in super administrator. It is granted the admin
// role and every permission regardless of role assignments.
const AdminUserID int64 = 1

// SQLStore reads accounts from the sys_user, sys_role and sys_menu tables.
type SQLStore struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewSQLStore(db *sql.DB, logger *zap.Logger) *SQLStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SQLStore{db: db, logger: logger}
}

func (s *SQLStore) UserByUsername(ctx context.Context, username string) (*User, error) {
	query := `
		SELECT user_id, user_name, nick_name, COALESCE(dept_id, 0), password, status, del_flag
		FROM sys_user
		WHERE user_name = $1
	`

	var (
		id      int64
		deptID  int64
		status  string
		delFlag string
		u       User
	)
	err := s.db.QueryRowContext(ctx, query, username).Scan(
		&id,
		&u.Username,
		&u.Nickname,
		&deptID,
		&u.PasswordHash,
		&status,
		&delFlag,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	u.UserID = strconv.FormatInt(id, 10)
	if deptID != 0 {
		u.DeptID = strconv.FormatInt(deptID, 10)
	}
	u.Status = Status(status)
	// del_flag: 0 present, 2 deleted
	u.Deleted = delFlag == "2"

	if id == AdminUserID {
		u.Roles = []string{"admin"}
		u.Permissions = []string{"*:*:*"}
		return &u, nil
	}

	if u.Roles, err = s.roleKeys(ctx, id); err != nil {
		return nil, err
	}
	if u.Permissions, err = s.menuPerms(ctx, id); err != nil {
		return nil, err
	}

	s.logger.Debug("user loaded", zap.String("username", u.Username), zap.Int("roles", len(u.Roles)))
	return &u, nil
}

func (s *SQLStore) roleKeys(ctx context.Context, userID int64) ([]string, error) {
	query := `
		SELECT DISTINCT r.role_key
		FROM sys_role r
		JOIN sys_user_role ur ON ur.role_id = r.role_id
		WHERE ur.user_id = $1 AND r.status = '0' AND r.del_flag = '0'
	`
	return s.collect(ctx, "roles", query, userID)
}

func (s *SQLStore) menuPerms(ctx context.Context, userID int64) ([]string, error) {
	query := `
		SELECT DISTINCT m.perms
		FROM sys_menu m
		JOIN sys_role_menu rm ON rm.menu_id = m.menu_id
		JOIN sys_user_role ur ON ur.role_id = rm.role_id
		JOIN sys_role r ON r.role_id = ur.role_id
		WHERE ur.user_id = $1 AND m.status = '0' AND r.status = '0'
		  AND m.perms IS NOT NULL AND m.perms <> ''
	`
	raw, err := s.collect(ctx, "permissions", query, userID)
	if err != nil {
		return nil, err
	}

	// a menu row may carry several comma separated permissions
	var perms []string
	seen := make(map[string]struct{})
	for _, entry := range raw {
		for _, p := range strings.Split(entry, ",") {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			if _, dup := seen[p]; dup {
				continue
			}
			seen[p] = struct{}{}
			perms = append(perms, p)
		}
	}
	return perms, nil
}

func (s *SQLStore) collect(ctx context.Context, what, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", what, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", what, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s: %w", what, err)
	}
	return out, nil
}
