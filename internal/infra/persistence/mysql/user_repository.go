package mysql

import (
	"context"
	"database/sql"
	"errors"

	gomysql "github.com/go-sql-driver/mysql"

	domaccount "github.com/hsdarestani/vaadehrep/internal/domain/account"
)

const mysqlErrDuplicateEntry = 1062

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *domaccount.User) (*domaccount.User, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (phone, full_name, password_hash, telegram_chat_id, is_active, is_staff)
         VALUES (?, ?, ?, ?, ?, ?)`,
		u.Phone, u.FullName, u.PasswordHash, u.TelegramChatID, u.IsActive, u.IsStaff,
	)
	if err != nil {
		var me *gomysql.MySQLError
		if errors.As(err, &me) && me.Number == mysqlErrDuplicateEntry {
			return nil, domaccount.ErrPhoneTaken
		}
		return nil, err
	}
	id, _ := res.LastInsertId()
	u.ID = id
	return u, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domaccount.User, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT id, phone, full_name, password_hash, telegram_chat_id, is_active, is_staff, created_at
        FROM users WHERE id = ?
    `, id)
	return scanUser(row)
}

func (r *UserRepository) GetByPhone(ctx context.Context, phone string) (*domaccount.User, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT id, phone, full_name, password_hash, telegram_chat_id, is_active, is_staff, created_at
        FROM users WHERE phone = ?
    `, phone)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*domaccount.User, error) {
	var u domaccount.User
	err := row.Scan(&u.ID, &u.Phone, &u.FullName, &u.PasswordHash, &u.TelegramChatID,
		&u.IsActive, &u.IsStaff, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domaccount.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}
