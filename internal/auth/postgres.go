package auth

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"warden.dev/internal/ids"
)

const (
	pgErrUniqueViolation     = "23505"
	pgErrForeignKeyViolation = "23503"
)

var _ DirectoryStore = (*PGStore)(nil)

// PGStore implements DirectoryStore on PostgreSQL via database/sql.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

// Users ---------------------------------------------------------------------

func (s *PGStore) CreateUser(ctx context.Context, u *User) error {
	row := s.db.QueryRowContext(ctx, `
		insert into users (id, email, name, password_hash, role_id, status, email_verified)
		values ($1, $2, $3, $4, $5, $6, false)
		returning created_at, updated_at
	`, u.ID, u.Email, u.Name, u.PasswordHash, u.RoleID, u.Status)
	if err := row.Scan(&u.CreatedAt, &u.UpdatedAt); err != nil {
		return mapPgError(err)
	}
	return nil
}

const userColumns = `id, email, name, password_hash, role_id, status, email_verified, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.RoleID, &u.Status,
		&u.EmailVerified, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *PGStore) FindUser(ctx context.Context, id string) (*User, error) {
	return scanUser(s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where id = $1`, id))
}

func (s *PGStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	return scanUser(s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where lower(email) = lower($1)`, email))
}

func (s *PGStore) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+userColumns+` from users order by created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.RoleID, &u.Status,
			&u.EmailVerified, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *PGStore) UpdateUserPassword(ctx context.Context, userID, passwordHash string) error {
	res, err := s.db.ExecContext(ctx,
		`update users set password_hash = $2, updated_at = now() where id = $1`,
		userID, passwordHash)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *PGStore) MarkEmailVerified(ctx context.Context, userID string) error {
	res, err := s.db.ExecContext(ctx,
		`update users set email_verified = true, updated_at = now() where id = $1`, userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// Roles and permissions -----------------------------------------------------

func (s *PGStore) CreateRole(ctx context.Context, role *Role) error {
	row := s.db.QueryRowContext(ctx, `
		insert into roles (id, name, description)
		values ($1, $2, $3)
		returning created_at, updated_at
	`, role.ID, role.Name, role.Description)
	if err := row.Scan(&role.CreatedAt, &role.UpdatedAt); err != nil {
		return mapPgError(err)
	}
	return nil
}

func (s *PGStore) FindRole(ctx context.Context, roleID string) (*Role, error) {
	var role Role
	err := s.db.QueryRowContext(ctx,
		`select id, name, description, created_at, updated_at from roles where id = $1`,
		roleID).Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func (s *PGStore) ListRoles(ctx context.Context) ([]Role, error) {
	rows, err := s.db.QueryContext(ctx,
		`select id, name, description, created_at, updated_at from roles order by name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

func (s *PGStore) EnsurePermissions(ctx context.Context, perms []Permission) error {
	for _, p := range perms {
		id := p.ID
		if id == "" {
			id = ids.New()
		}
		_, err := s.db.ExecContext(ctx,
			`insert into permissions (id, code, description) values ($1, $2, $3)
			 on conflict (code) do nothing`,
			id, p.Code, p.Description)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *PGStore) ListPermissions(ctx context.Context) ([]Permission, error) {
	rows, err := s.db.QueryContext(ctx,
		`select id, code, description, created_at from permissions order by code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var perms []Permission
	for rows.Next() {
		var p Permission
		if err := rows.Scan(&p.ID, &p.Code, &p.Description, &p.CreatedAt); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

func (s *PGStore) SetRolePermissions(ctx context.Context, roleID string, codes []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`delete from role_permissions where role_id = $1`, roleID); err != nil {
		return err
	}
	for _, code := range codes {
		res, err := tx.ExecContext(ctx, `
			insert into role_permissions (role_id, permission_id)
			select $1, id from permissions where code = $2
		`, roleID, code)
		if err != nil {
			return mapPgError(err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return ErrNotFound
		}
	}
	return tx.Commit()
}

func (s *PGStore) PermissionsForRole(ctx context.Context, roleID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		select p.code from permissions p
		join role_permissions rp on rp.permission_id = p.id
		where rp.role_id = $1
		order by p.code
	`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}

// Companies -----------------------------------------------------------------

func (s *PGStore) CreateCompany(ctx context.Context, c *Company) error {
	row := s.db.QueryRowContext(ctx, `
		insert into companies (id, name, client_id, client_secret)
		values ($1, $2, $3, $4)
		returning created_at, updated_at
	`, c.ID, c.Name, c.ClientID, c.ClientSecret)
	if err := row.Scan(&c.CreatedAt, &c.UpdatedAt); err != nil {
		return mapPgError(err)
	}
	return nil
}

func (s *PGStore) FindCompany(ctx context.Context, id string) (*Company, error) {
	var c Company
	err := s.db.QueryRowContext(ctx, `
		select id, name, client_id, client_secret, created_at, updated_at
		from companies where id = $1
	`, id).Scan(&c.ID, &c.Name, &c.ClientID, &c.ClientSecret, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *PGStore) ListCompanies(ctx context.Context) ([]Company, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, name, client_id, client_secret, created_at, updated_at
		from companies order by name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var companies []Company
	for rows.Next() {
		var c Company
		if err := rows.Scan(&c.ID, &c.Name, &c.ClientID, &c.ClientSecret, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		companies = append(companies, c)
	}
	return companies, rows.Err()
}

// API keys ------------------------------------------------------------------

func (s *PGStore) CreateAPIKey(ctx context.Context, key *APIKey) error {
	row := s.db.QueryRowContext(ctx, `
		insert into api_keys (id, company_id, value, active, expires_at)
		values ($1, $2, $3, $4, $5)
		returning created_at
	`, key.ID, key.CompanyID, key.Value, key.Active, key.ExpiresAt)
	if err := row.Scan(&key.CreatedAt); err != nil {
		return mapPgError(err)
	}
	return nil
}

const apiKeyColumns = `id, company_id, value, active, expires_at, created_at`

func scanAPIKey(row interface{ Scan(...any) error }) (*APIKey, error) {
	var k APIKey
	err := row.Scan(&k.ID, &k.CompanyID, &k.Value, &k.Active, &k.ExpiresAt, &k.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &k, nil
}

func (s *PGStore) FindAPIKey(ctx context.Context, id string) (*APIKey, error) {
	return scanAPIKey(s.db.QueryRowContext(ctx,
		`select `+apiKeyColumns+` from api_keys where id = $1`, id))
}

func (s *PGStore) FindByValue(ctx context.Context, value string) (*APIKey, error) {
	return scanAPIKey(s.db.QueryRowContext(ctx,
		`select `+apiKeyColumns+` from api_keys where value = $1`, value))
}

func (s *PGStore) ListAPIKeysByCompany(ctx context.Context, companyID string) ([]APIKey, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+apiKeyColumns+` from api_keys where company_id = $1 order by created_at desc`,
		companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []APIKey
	for rows.Next() {
		var k APIKey
		if err := rows.Scan(&k.ID, &k.CompanyID, &k.Value, &k.Active, &k.ExpiresAt, &k.CreatedAt); err != nil {
			return nil, err
		}
		k.Value = ""
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (s *PGStore) RevokeAPIKey(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`update api_keys set active = false where id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// Helpers -------------------------------------------------------------------

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgErrUniqueViolation:
			return ErrConflict
		case pgErrForeignKeyViolation:
			return ErrNotFound
		}
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
