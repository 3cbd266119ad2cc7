package persist

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

// AccountRow is the persisted session state the core reads on login and
// writes on save-tick, logout, and level-change (§6 External Interfaces,
// "Persisted session state").
type AccountRow struct {
	Name         string
	PasswordHash string
	AccessLevel  int16
	Nickname     string
	Guild        string
	LastLevel    string
	LastX        int16
	LastY        int16
	IP           string
	Host         string
	Banned       bool
	Online       bool
	CreatedAt    time.Time
	LastActive   *time.Time
}

type AccountRepo struct {
	db *DB
}

func NewAccountRepo(db *DB) *AccountRepo {
	return &AccountRepo{db: db}
}

func (r *AccountRepo) Load(ctx context.Context, name string) (*AccountRow, error) {
	row := &AccountRow{}
	err := r.db.Pool.QueryRow(ctx,
		`SELECT name, password_hash, access_level, nickname, guild, last_level, last_x, last_y,
		        COALESCE(ip,''), COALESCE(host,''), banned, online, created_at, last_active
		 FROM accounts WHERE name = $1`, name,
	).Scan(
		&row.Name, &row.PasswordHash, &row.AccessLevel, &row.Nickname, &row.Guild,
		&row.LastLevel, &row.LastX, &row.LastY,
		&row.IP, &row.Host, &row.Banned, &row.Online, &row.CreatedAt, &row.LastActive,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row, nil
}

func (r *AccountRepo) Create(ctx context.Context, name, rawPassword, ip, host string) (*AccountRow, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(rawPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	row := &AccountRow{
		Name:         name,
		PasswordHash: string(hash),
		IP:           ip,
		Host:         host,
		CreatedAt:    now,
		LastActive:   &now,
		LastX:        30,
		LastY:        30,
	}
	_, err = r.db.Pool.Exec(ctx,
		`INSERT INTO accounts (name, password_hash, ip, host, last_active, last_x, last_y)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		row.Name, row.PasswordHash, row.IP, row.Host, row.LastActive, row.LastX, row.LastY,
	)
	if err != nil {
		return nil, err
	}
	return row, nil
}

func (r *AccountRepo) ValidatePassword(hash string, rawPassword string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(rawPassword)) == nil
}

func (r *AccountRepo) UpdateLastActive(ctx context.Context, name, ip string) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE accounts SET last_active = NOW(), ip = $2 WHERE name = $1`,
		name, ip,
	)
	return err
}

func (r *AccountRepo) SetOnline(ctx context.Context, name string, online bool) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE accounts SET online = $2 WHERE name = $1`,
		name, online,
	)
	return err
}

// SavePresence persists a player's current nickname, guild, level, and
// position — called by the save-tick system and on logout/level-change
// (§6 "the core reads on login and writes on save-tick, logout, and
// level-change").
func (r *AccountRepo) SavePresence(ctx context.Context, name, nickname, guild, level string, x, y int16) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE accounts SET nickname = $2, guild = $3, last_level = $4, last_x = $5, last_y = $6
		 WHERE name = $1`,
		name, nickname, guild, level, x, y,
	)
	return err
}
