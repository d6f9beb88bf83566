package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"

	"github.com/oxygen78/BOT.github.io/internal/domain"
)

var (
	ErrItemNotFound  = errors.New("item not found")
	ErrOrderNotFound = errors.New("order not found")
)

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

// OutboxEvent is one pending row of the transactional outbox.
type OutboxEvent struct {
	ID        int64
	Topic     string
	Key       string
	Payload   json.RawMessage
	CreatedAt time.Time
	SentAt    *time.Time
}

type Store interface {
	Close() error
	RunMigrations(*Credentials) error

	ListItems(ctx context.Context) ([]*domain.Item, error)
	GetItemByName(ctx context.Context, name string) (*domain.Item, error)

	AddCartLine(ctx context.Context, userID, itemID int64) (int32, error)
	GetCartLines(ctx context.Context, userID int64) ([]domain.CartLine, error)
	ClearCart(ctx context.Context, userID int64) (int64, error)
	GetCartWithPrices(ctx context.Context, userID int64) ([]domain.OrderLine, error)

	InsertOrder(ctx context.Context, order *domain.Order) error
	GetOrderByPayload(ctx context.Context, payload string) (*domain.Order, error)
	TransitionOrder(ctx context.Context, payload string, from, to domain.OrderStatus) (bool, error)
	SettleOrder(ctx context.Context, payload string) (bool, error)
	FinalizeOrder(ctx context.Context, payload string) (int64, bool, error)
	ExpireStaleOrders(ctx context.Context, olderThan time.Duration) (int64, error)

	GetUnsentEvents(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkEventSent(ctx context.Context, id int64) error
}

type Repository struct {
	db *sql.DB
}

func NewRepository(cred *Credentials) (*Repository, error) {
	psqlconn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cred.Host,
		cred.Port,
		cred.User,
		cred.Password,
		cred.DBName)

	db, err := sql.Open("postgres", psqlconn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if e2 := db.Ping(); e2 != nil {
		return nil, fmt.Errorf("failed to ping database: %w", e2)
	}

	db.SetMaxOpenConns(100)
	db.SetMaxIdleConns(10)
	fmt.Println("Connected to postgres!")
	return &Repository{db: db}, nil
}

func (r *Repository) RunMigrations(cred *Credentials) error {
	driver, err := postgres.WithInstance(r.db, &postgres.Config{
		MigrationsTable: "shopbot_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", cred.MigrationsDirPath),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if e2 := m.Up(); e2 != nil && !errors.Is(e2, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", e2)
	}

	return nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}
