package profile

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const profileColumns = `id, email, first_name, last_name, student_id, school,
		       requested_role, role, created_at, last_sign_in_at`

// rowScanner is satisfied by pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*Profile, error) {
	var (
		p             Profile
		school        *string
		requestedRole *string
		role          *string
	)
	err := row.Scan(
		&p.ID, &p.Email, &p.FirstName, &p.LastName, &p.StudentID, &school,
		&requestedRole, &role, &p.CreatedAt, &p.LastSignInAt,
	)
	if err != nil {
		return nil, err
	}
	if school != nil {
		s := School(*school)
		p.School = &s
	}
	if requestedRole != nil {
		r := Role(*requestedRole)
		p.RequestedRole = &r
	}
	if role != nil {
		r := Role(*role)
		p.Role = &r
	}
	return &p, nil
}

// ElevatedRepository implements ElevatedAccess with the service credential pool.
type ElevatedRepository struct {
	pool *pgxpool.Pool
}

// NewElevatedRepository creates an ElevatedAccess backed by the given pool.
func NewElevatedRepository(pool *pgxpool.Pool) ElevatedAccess {
	return &ElevatedRepository{pool: pool}
}

// List retrieves all profiles, newest first.
func (r *ElevatedRepository) List(ctx context.Context) ([]Profile, error) {
	query := `
		SELECT ` + profileColumns + `
		FROM users
		ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing profiles: %w", err)
	}
	defer rows.Close()

	var profiles []Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning profile row: %w", err)
		}
		profiles = append(profiles, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating profile rows: %w", err)
	}

	if profiles == nil {
		profiles = []Profile{}
	}

	return profiles, nil
}

// GetByID retrieves a single profile by its id.
func (r *ElevatedRepository) GetByID(ctx context.Context, id uuid.UUID) (*Profile, error) {
	query := `
		SELECT ` + profileColumns + `
		FROM users
		WHERE id = $1`

	p, err := scanProfile(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("querying profile: %w", err)
	}

	return p, nil
}

// UpdateRole overwrites the effective role, optionally clearing the request.
func (r *ElevatedRepository) UpdateRole(ctx context.Context, id uuid.UUID, change RoleUpdate) error {
	query := `UPDATE users SET role = $2 WHERE id = $1`
	if change.ClearRequested {
		query = `UPDATE users SET role = $2, requested_role = NULL WHERE id = $1`
	}

	result, err := r.pool.Exec(ctx, query, id, string(change.Role))
	if err != nil {
		return fmt.Errorf("updating role: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrProfileNotFound
	}

	return nil
}

// Delete removes the profile row. A missing row is not an error: the row may
// already be gone through a cascade from the identity record.
func (r *ElevatedRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id); err != nil {
		return fmt.Errorf("deleting profile: %w", err)
	}
	return nil
}

// RestrictedRepository implements RestrictedAccess. Every statement runs in a
// transaction that assumes the restricted database role and publishes the
// caller id as JWT claims for row-level security policies.
type RestrictedRepository struct {
	pool   *pgxpool.Pool
	dbRole string
}

// NewRestrictedRepository creates a RestrictedAccess backed by the given pool.
// dbRole is the database role assumed for each statement.
func NewRestrictedRepository(pool *pgxpool.Pool, dbRole string) RestrictedAccess {
	return &RestrictedRepository{pool: pool, dbRole: dbRole}
}

func (r *RestrictedRepository) asCaller(ctx context.Context, callerID uuid.UUID, fn func(pgx.Tx) error) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "SET LOCAL ROLE "+pgx.Identifier{r.dbRole}.Sanitize()); err != nil {
			return fmt.Errorf("assuming role %s: %w", r.dbRole, err)
		}
		claims := fmt.Sprintf(`{"sub":%q,"role":%q}`, callerID.String(), r.dbRole)
		if _, err := tx.Exec(ctx, `SELECT set_config('request.jwt.claims', $1, true)`, claims); err != nil {
			return fmt.Errorf("setting caller claims: %w", err)
		}
		return fn(tx)
	})
}

// GetOwn retrieves the caller's own profile.
func (r *RestrictedRepository) GetOwn(ctx context.Context, callerID uuid.UUID) (*Profile, error) {
	query := `
		SELECT ` + profileColumns + `
		FROM users
		WHERE id = $1`

	var p *Profile
	err := r.asCaller(ctx, callerID, func(tx pgx.Tx) error {
		var err error
		p, err = scanProfile(tx.QueryRow(ctx, query, callerID))
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("querying own profile: %w", err)
	}

	return p, nil
}

// UpdateOwn writes the sign-up fields of the caller's own profile. The role
// column is not part of the statement.
func (r *RestrictedRepository) UpdateOwn(ctx context.Context, callerID uuid.UUID, u SelfUpdate) error {
	query := `
		UPDATE users
		SET first_name = $2, last_name = $3, student_id = $4, school = $5, requested_role = $6
		WHERE id = $1`

	err := r.asCaller(ctx, callerID, func(tx pgx.Tx) error {
		result, err := tx.Exec(ctx, query,
			callerID,
			u.FirstName,
			u.LastName,
			u.StudentID,
			string(u.School),
			string(u.RequestedRole),
		)
		if err != nil {
			return err
		}
		if result.RowsAffected() == 0 {
			return ErrProfileNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			return ErrProfileNotFound
		}
		return fmt.Errorf("updating own profile: %w", err)
	}

	return nil
}
