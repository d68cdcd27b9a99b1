package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"blogtalks/internal/models"
)

type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, username, email, password_hash, role, display_name, avatar_url, bio, card_bg, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	var u models.User
	if err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role,
		&u.DisplayName, &u.AvatarURL, &u.Bio, &u.CardBg,
		&u.CreatedAt, &u.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (username, email, password_hash, role, display_name)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRow(ctx, query,
		user.Username, user.Email, user.PasswordHash, user.Role, user.DisplayName,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

func (r *UserRepository) IsUsernameTaken(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE username=$1)`, username).Scan(&exists)
	return exists, err
}

func (r *UserRepository) IsEmailTaken(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE email=$1)`, email).Scan(&exists)
	return exists, err
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return scanUser(r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE username=$1`, username))
}

func (r *UserRepository) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	return scanUser(r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id=$1`, id))
}

func (r *UserRepository) GetAllUsers(ctx context.Context, limit, offset int) ([]*models.User, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, u)
	}
	return users, total, rows.Err()
}

// UpdateUserFields — частичное обновление профиля (динамический SET).
func (r *UserRepository) UpdateUserFields(ctx context.Context, id int, input *models.UpdateProfileRequest) error {
	set := []string{}
	args := []interface{}{}
	i := 1

	add := func(col string, v interface{}) {
		set = append(set, fmt.Sprintf("%s=$%d", col, i))
		args = append(args, v)
		i++
	}

	if input.DisplayName != nil {
		add("display_name", *input.DisplayName)
	}
	if input.AvatarURL != nil {
		add("avatar_url", *input.AvatarURL)
	}
	if input.Bio != nil {
		add("bio", *input.Bio)
	}
	if input.Email != nil {
		add("email", *input.Email)
	}
	if input.CardBg != nil {
		add("card_bg", *input.CardBg)
	}
	if input.Role != nil {
		add("role", *input.Role)
	}

	if len(set) == 0 {
		return nil
	}

	set = append(set, "updated_at=NOW()")
	q := fmt.Sprintf(`UPDATE users SET %s WHERE id=$%d`, strings.Join(set, ", "), i)
	args = append(args, id)

	_, err := r.db.Exec(ctx, q, args...)
	return err
}

func (r *UserRepository) DeleteUser(ctx context.Context, id int) error {
	_, err := r.db.Exec(ctx, `DELETE FROM users WHERE id=$1`, id)
	return err
}

func (r *UserRepository) SaveRefreshToken(ctx context.Context, userID int, token string) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO refresh_tokens (user_id, token) VALUES ($1,$2)
		 ON CONFLICT (user_id) DO UPDATE SET token = EXCLUDED.token, created_at = NOW()`,
		userID, token)
	return err
}

func (r *UserRepository) IsRefreshTokenValid(ctx context.Context, userID int, token string) (bool, error) {
	var valid bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM refresh_tokens WHERE user_id=$1 AND token=$2)`,
		userID, token).Scan(&valid)
	return valid, err
}

func (r *UserRepository) DeleteRefreshToken(ctx context.Context, userID int, token string) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM refresh_tokens WHERE user_id=$1 AND token=$2`, userID, token)
	return err
}
