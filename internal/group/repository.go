package group

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// Repository is the Postgres implementation of Store.
// Uniqueness and referential integrity are enforced by the schema;
// violations are translated to the package's sentinel errors.
type Repository struct {
	db *sql.DB
}

var _ Store = (*Repository)(nil)

// NewRepository creates a new group repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23503"
}

const groupColumns = `id, name, description, privacy_policy, subscription_policy, is_managed, created_at, modified_at`

func scanGroup(row interface{ Scan(...any) error }) (*Group, error) {
	g := &Group{}
	err := row.Scan(
		&g.ID,
		&g.Name,
		&g.Description,
		&g.PrivacyPolicy,
		&g.SubscriptionPolicy,
		&g.IsManaged,
		&g.CreatedAt,
		&g.ModifiedAt,
	)
	if err != nil {
		return nil, err
	}
	return g, nil
}

// CreateGroup inserts a group row and its admin links in one transaction, so
// a duplicate name or a failed link leaves nothing behind
func (r *Repository) CreateGroup(ctx context.Context, g *Group, admins []AdminRef) (*Group, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO groups (name, description, privacy_policy, subscription_policy, is_managed)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + groupColumns

	created, err := scanGroup(tx.QueryRowContext(ctx, query,
		g.Name, g.Description, g.PrivacyPolicy, g.SubscriptionPolicy, g.IsManaged))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrGroupExists
		}
		return nil, fmt.Errorf("failed to create group: %w", err)
	}

	adminQuery := `INSERT INTO groups_admin (group_id, admin_type, admin_id) VALUES ($1, $2, $3)`
	for _, a := range admins {
		if _, err := tx.ExecContext(ctx, adminQuery, created.ID, a.Type, a.ID); err != nil {
			if isUniqueViolation(err) {
				return nil, ErrAdminExists
			}
			return nil, fmt.Errorf("failed to create admin: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return created, nil
}

// GetGroup retrieves a group by its ID
func (r *Repository) GetGroup(ctx context.Context, id int64) (*Group, error) {
	query := `SELECT ` + groupColumns + ` FROM groups WHERE id = $1`

	g, err := scanGroup(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get group: %w", err)
	}

	return g, nil
}

// GetGroupByName retrieves a group by its unique name
func (r *Repository) GetGroupByName(ctx context.Context, name string) (*Group, error) {
	query := `SELECT ` + groupColumns + ` FROM groups WHERE name = $1`

	g, err := scanGroup(r.db.QueryRowContext(ctx, query, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get group by name: %w", err)
	}

	return g, nil
}

// SearchGroups retrieves groups whose name contains the search string
func (r *Repository) SearchGroups(ctx context.Context, q string, limit, offset int) ([]*Group, int, error) {
	pattern := "%" + q + "%"

	var total int
	countQuery := `SELECT COUNT(*) FROM groups WHERE name LIKE $1`
	if err := r.db.QueryRowContext(ctx, countQuery, pattern).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count groups: %w", err)
	}

	query := `
		SELECT ` + groupColumns + `
		FROM groups
		WHERE name LIKE $1
		ORDER BY name
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, pattern, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search groups: %w", err)
	}
	defer rows.Close()

	groups, err := collectGroups(rows)
	if err != nil {
		return nil, 0, err
	}

	return groups, total, nil
}

// ListGroupsByUser retrieves groups the user belongs to, either through a
// membership or through a direct admin link
func (r *Repository) ListGroupsByUser(ctx context.Context, userID int64, withPending bool, limit, offset int) ([]*Group, int, error) {
	stateFilter := ` AND m.state = 'M'`
	if withPending {
		stateFilter = ``
	}

	subquery := `
		SELECT m.group_id FROM groups_members m WHERE m.user_id = $1` + stateFilter + `
		UNION
		SELECT ga.group_id FROM groups_admin ga WHERE ga.admin_type = 'User' AND ga.admin_id = $1
	`

	var total int
	countQuery := `SELECT COUNT(*) FROM groups g WHERE g.id IN (` + subquery + `)`
	if err := r.db.QueryRowContext(ctx, countQuery, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count groups: %w", err)
	}

	query := `
		SELECT ` + groupColumns + `
		FROM groups
		WHERE id IN (` + subquery + `)
		ORDER BY name
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	groups, err := collectGroups(rows)
	if err != nil {
		return nil, 0, err
	}

	return groups, total, nil
}

func collectGroups(rows *sql.Rows) ([]*Group, error) {
	var groups []*Group
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate groups: %w", err)
	}
	return groups, nil
}

// UpdateGroup applies a partial update and bumps the modified timestamp
func (r *Repository) UpdateGroup(ctx context.Context, id int64, upd *GroupUpdate) (*Group, error) {
	query := `
		UPDATE groups
		SET name = COALESCE($2, name),
		    description = COALESCE($3, description),
		    privacy_policy = COALESCE($4, privacy_policy),
		    subscription_policy = COALESCE($5, subscription_policy),
		    is_managed = COALESCE($6, is_managed),
		    modified_at = now()
		WHERE id = $1
		RETURNING ` + groupColumns

	g, err := scanGroup(r.db.QueryRowContext(ctx, query, id,
		upd.Name, upd.Description, upd.PrivacyPolicy, upd.SubscriptionPolicy, upd.IsManaged))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		if isUniqueViolation(err) {
			return nil, ErrGroupExists
		}
		return nil, fmt.Errorf("failed to update group: %w", err)
	}

	return g, nil
}

// DeleteGroup removes a group together with its memberships, its admin
// links, and any admin links where the group itself is the admin of other
// groups. Groups left admin-less by the last delete are not remediated.
func (r *Repository) DeleteGroup(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	statements := []string{
		`DELETE FROM groups_members WHERE group_id = $1`,
		`DELETE FROM groups_admin WHERE group_id = $1`,
		`DELETE FROM groups_admin WHERE admin_type = 'Group' AND admin_id = $1`,
	}
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
			return fmt.Errorf("failed to delete group dependents: %w", err)
		}
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM groups WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrGroupNotFound
	}

	return tx.Commit()
}

const membershipColumns = `gm.group_id, gm.user_id, gm.state, gm.created_at, gm.modified_at, u.username, u.email, g.name`

func scanMembership(row interface{ Scan(...any) error }) (*Membership, error) {
	m := &Membership{}
	err := row.Scan(
		&m.GroupID,
		&m.UserID,
		&m.State,
		&m.CreatedAt,
		&m.ModifiedAt,
		&m.Username,
		&m.Email,
		&m.GroupName,
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// CreateMembership inserts a membership row in the given state.
// The composite primary key rejects a second row for the same pair.
func (r *Repository) CreateMembership(ctx context.Context, groupID, userID int64, state MembershipState) (*Membership, error) {
	query := `
		INSERT INTO groups_members (group_id, user_id, state)
		VALUES ($1, $2, $3)
		RETURNING group_id, user_id, state, created_at, modified_at
	`

	m := &Membership{}
	err := r.db.QueryRowContext(ctx, query, groupID, userID, state).Scan(
		&m.GroupID,
		&m.UserID,
		&m.State,
		&m.CreatedAt,
		&m.ModifiedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrMembershipExists
		}
		if isForeignKeyViolation(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to create membership: %w", err)
	}

	return m, nil
}

// GetMembership retrieves the membership for the given pair
func (r *Repository) GetMembership(ctx context.Context, groupID, userID int64) (*Membership, error) {
	query := `
		SELECT ` + membershipColumns + `
		FROM groups_members gm
		JOIN users u ON u.id = gm.user_id
		JOIN groups g ON g.id = gm.group_id
		WHERE gm.group_id = $1 AND gm.user_id = $2
	`

	m, err := scanMembership(r.db.QueryRowContext(ctx, query, groupID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}

	return m, nil
}

// UpdateMembershipState transitions a membership and bumps the modified
// timestamp
func (r *Repository) UpdateMembershipState(ctx context.Context, groupID, userID int64, state MembershipState) (*Membership, error) {
	query := `
		UPDATE groups_members
		SET state = $3, modified_at = now()
		WHERE group_id = $1 AND user_id = $2
		RETURNING group_id, user_id, state, created_at, modified_at
	`

	m := &Membership{}
	err := r.db.QueryRowContext(ctx, query, groupID, userID, state).Scan(
		&m.GroupID,
		&m.UserID,
		&m.State,
		&m.CreatedAt,
		&m.ModifiedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update membership: %w", err)
	}

	return m, nil
}

// DeleteMembership removes a membership regardless of its state
func (r *Repository) DeleteMembership(ctx context.Context, groupID, userID int64) error {
	query := `DELETE FROM groups_members WHERE group_id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, groupID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete membership: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrMembershipNotFound
	}

	return nil
}

// ListMemberships retrieves a group's memberships, optionally restricted to
// a set of states
func (r *Repository) ListMemberships(ctx context.Context, groupID int64, states []MembershipState, limit, offset int) ([]*Membership, int, error) {
	where := `gm.group_id = $1`
	args := []any{groupID}
	if len(states) > 0 {
		placeholders := make([]string, len(states))
		for i, s := range states {
			args = append(args, s)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		where += ` AND gm.state IN (` + strings.Join(placeholders, ", ") + `)`
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM groups_members gm WHERE ` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count memberships: %w", err)
	}

	query := `
		SELECT ` + membershipColumns + `
		FROM groups_members gm
		JOIN users u ON u.id = gm.user_id
		JOIN groups g ON g.id = gm.group_id
		WHERE ` + where + `
		ORDER BY gm.created_at
		LIMIT $` + fmt.Sprint(len(args)+1) + ` OFFSET $` + fmt.Sprint(len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list memberships: %w", err)
	}
	defer rows.Close()

	members, err := collectMemberships(rows)
	if err != nil {
		return nil, 0, err
	}

	return members, total, nil
}

// CountMemberships returns the number of membership rows for a group,
// pending states included
func (r *Repository) CountMemberships(ctx context.Context, groupID int64) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM groups_members WHERE group_id = $1`
	if err := r.db.QueryRowContext(ctx, query, groupID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count memberships: %w", err)
	}
	return count, nil
}

// ListInvitations retrieves a user's pending invitations
func (r *Repository) ListInvitations(ctx context.Context, userID int64, limit, offset int) ([]*Membership, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM groups_members WHERE user_id = $1 AND state = 'U'`
	if err := r.db.QueryRowContext(ctx, countQuery, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count invitations: %w", err)
	}

	query := `
		SELECT ` + membershipColumns + `
		FROM groups_members gm
		JOIN users u ON u.id = gm.user_id
		JOIN groups g ON g.id = gm.group_id
		WHERE gm.user_id = $1 AND gm.state = 'U'
		ORDER BY gm.created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list invitations: %w", err)
	}
	defer rows.Close()

	members, err := collectMemberships(rows)
	if err != nil {
		return nil, 0, err
	}

	return members, total, nil
}

// ListAdminRequests retrieves memberships pending admin approval across the
// groups the user administers, directly or through an admin group they are
// an active member of
func (r *Repository) ListAdminRequests(ctx context.Context, adminUserID int64, limit, offset int) ([]*Membership, int, error) {
	adminGroups := `
		SELECT ga.group_id FROM groups_admin ga
		WHERE ga.admin_type = 'User' AND ga.admin_id = $1
		UNION
		SELECT ga.group_id FROM groups_admin ga
		WHERE ga.admin_type = 'Group' AND ga.admin_id IN (
			SELECT am.group_id FROM groups_members am
			WHERE am.user_id = $1 AND am.state = 'M'
		)
	`

	var total int
	countQuery := `
		SELECT COUNT(*) FROM groups_members gm
		WHERE gm.state = 'A' AND gm.group_id IN (` + adminGroups + `)`
	if err := r.db.QueryRowContext(ctx, countQuery, adminUserID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count requests: %w", err)
	}

	query := `
		SELECT ` + membershipColumns + `
		FROM groups_members gm
		JOIN users u ON u.id = gm.user_id
		JOIN groups g ON g.id = gm.group_id
		WHERE gm.state = 'A' AND gm.group_id IN (` + adminGroups + `)
		ORDER BY gm.created_at
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, adminUserID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list requests: %w", err)
	}
	defer rows.Close()

	members, err := collectMemberships(rows)
	if err != nil {
		return nil, 0, err
	}

	return members, total, nil
}

func collectMemberships(rows *sql.Rows) ([]*Membership, error) {
	var members []*Membership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate memberships: %w", err)
	}
	return members, nil
}

// CreateAdmin inserts an admin link. The unique constraint rejects a
// duplicate link for the same (group, admin) pair.
func (r *Repository) CreateAdmin(ctx context.Context, groupID int64, adminType AdminType, adminID int64) (*GroupAdmin, error) {
	query := `
		INSERT INTO groups_admin (group_id, admin_type, admin_id)
		VALUES ($1, $2, $3)
		RETURNING id, group_id, admin_type, admin_id
	`

	ga := &GroupAdmin{}
	err := r.db.QueryRowContext(ctx, query, groupID, adminType, adminID).Scan(
		&ga.ID,
		&ga.GroupID,
		&ga.AdminType,
		&ga.AdminID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAdminExists
		}
		if isForeignKeyViolation(err) {
			return nil, ErrGroupNotFound
		}
		return nil, fmt.Errorf("failed to create admin: %w", err)
	}

	return ga, nil
}

// GetAdmin retrieves a specific admin link
func (r *Repository) GetAdmin(ctx context.Context, groupID int64, adminType AdminType, adminID int64) (*GroupAdmin, error) {
	query := `
		SELECT id, group_id, admin_type, admin_id
		FROM groups_admin
		WHERE group_id = $1 AND admin_type = $2 AND admin_id = $3
	`

	ga := &GroupAdmin{}
	err := r.db.QueryRowContext(ctx, query, groupID, adminType, adminID).Scan(
		&ga.ID,
		&ga.GroupID,
		&ga.AdminType,
		&ga.AdminID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get admin: %w", err)
	}

	return ga, nil
}

// DeleteAdmin removes an admin link
func (r *Repository) DeleteAdmin(ctx context.Context, groupID int64, adminType AdminType, adminID int64) error {
	query := `DELETE FROM groups_admin WHERE group_id = $1 AND admin_type = $2 AND admin_id = $3`

	result, err := r.db.ExecContext(ctx, query, groupID, adminType, adminID)
	if err != nil {
		return fmt.Errorf("failed to delete admin: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrAdminNotFound
	}

	return nil
}

// ListAdmins retrieves all admin links for a group
func (r *Repository) ListAdmins(ctx context.Context, groupID int64) ([]*GroupAdmin, error) {
	query := `
		SELECT id, group_id, admin_type, admin_id
		FROM groups_admin
		WHERE group_id = $1
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list admins: %w", err)
	}
	defer rows.Close()

	var admins []*GroupAdmin
	for rows.Next() {
		ga := &GroupAdmin{}
		if err := rows.Scan(&ga.ID, &ga.GroupID, &ga.AdminType, &ga.AdminID); err != nil {
			return nil, fmt.Errorf("failed to scan admin: %w", err)
		}
		admins = append(admins, ga)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate admins: %w", err)
	}

	return admins, nil
}

// CountAdmins returns the number of admin links per group. An empty ID list
// counts admins for every group.
func (r *Repository) CountAdmins(ctx context.Context, groupIDs []int64) (map[int64]int, error) {
	query := `
		SELECT group_id, COUNT(*)
		FROM groups_admin
		GROUP BY group_id
	`
	args := []any{}
	if len(groupIDs) > 0 {
		query = `
			SELECT group_id, COUNT(*)
			FROM groups_admin
			WHERE group_id = ANY($1)
			GROUP BY group_id
		`
		args = append(args, pq.Array(groupIDs))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count admins: %w", err)
	}
	defer rows.Close()

	counts := make(map[int64]int)
	for rows.Next() {
		var groupID int64
		var count int
		if err := rows.Scan(&groupID, &count); err != nil {
			return nil, fmt.Errorf("failed to scan admin count: %w", err)
		}
		counts[groupID] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate admin counts: %w", err)
	}

	return counts, nil
}
