package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/rl1809/marketplace/internal/core/domain"
)

const mysqlDuplicateEntry = 1062

// MySQLConfig describes the durable store connection.
type MySQLConfig struct {
	Host         string        `mapstructure:"host" default:"localhost"`
	Port         int           `mapstructure:"port" default:"3306"`
	User         string        `mapstructure:"user" default:"root"`
	Password     string        `mapstructure:"password" default:"root"`
	Name         string        `mapstructure:"name" default:"marketplace"`
	Timeout      time.Duration `mapstructure:"timeout" default:"3s"`
	MaxOpenConns int           `mapstructure:"max_open_conns" default:"50"`
	MaxIdleConns int           `mapstructure:"max_idle_conns" default:"25"`
}

// DSN renders cfg for the mysql driver. Multi-statement mode is enabled so
// migration files can hold more than one statement.
func (cfg MySQLConfig) DSN() string {
	dc := mysql.NewConfig()
	dc.User = cfg.User
	dc.Passwd = cfg.Password
	dc.Net = "tcp"
	dc.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	dc.DBName = cfg.Name
	dc.ParseTime = true
	dc.Loc = time.UTC
	dc.MultiStatements = true
	return dc.FormatDSN()
}

// ConnectMySQL opens a pooled connection and pings it.
func ConnectMySQL(ctx context.Context, cfg MySQLConfig) (*sqlx.DB, error) {
	db, err := sqlx.Open("mysql", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}
	return db, nil
}

type MySQLAdapter struct {
	db *sqlx.DB
	sq squirrel.StatementBuilderType
}

func NewMySQLAdapter(db *sqlx.DB) *MySQLAdapter {
	return &MySQLAdapter{
		db: db,
		sq: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}
}

type userRow struct {
	ID        string    `db:"id"`
	Username  string    `db:"username"`
	Role      string    `db:"role"`
	CreatedAt time.Time `db:"created_at"`
}

type orderItemRow struct {
	OrderID string `db:"order_id"`
	Name    string `db:"name"`
}

func (m *MySQLAdapter) ListSellers(ctx context.Context) ([]string, error) {
	query, args, err := m.sq.Select("username").
		From("users").
		Where(squirrel.Eq{"role": string(domain.RoleSeller)}).
		OrderBy("created_at", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list sellers query: %w", err)
	}

	sellers := []string{}
	if err := m.db.SelectContext(ctx, &sellers, query, args...); err != nil {
		return nil, fmt.Errorf("query sellers: %w", err)
	}
	return sellers, nil
}

func (m *MySQLAdapter) SellerCatalog(ctx context.Context, sellerID string) ([]string, error) {
	query, args, err := m.sq.Select("i.name").
		From("catalog_items ci").
		Join("items i ON i.id = ci.item_id").
		Where(squirrel.Eq{"ci.seller_id": sellerID}).
		OrderBy("ci.position").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build seller catalog query: %w", err)
	}

	names := []string{}
	if err := m.db.SelectContext(ctx, &names, query, args...); err != nil {
		return nil, fmt.Errorf("query seller catalog: %w", err)
	}
	return names, nil
}

// SellerOrders returns the seller's orders oldest first, each as the names of
// its items in order.
func (m *MySQLAdapter) SellerOrders(ctx context.Context, sellerID string) ([][]string, error) {
	query, args, err := m.sq.Select("o.id AS order_id", "i.name").
		From("orders o").
		Join("order_items oi ON oi.order_id = o.id").
		Join("items i ON i.id = oi.item_id").
		Where(squirrel.Eq{"o.seller_id": sellerID}).
		OrderBy("o.created_at", "o.id", "oi.position").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build seller orders query: %w", err)
	}

	var rows []orderItemRow
	if err := m.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("query seller orders: %w", err)
	}

	orders := [][]string{}
	current := ""
	for _, row := range rows {
		if len(orders) == 0 || row.OrderID != current {
			orders = append(orders, []string{})
			current = row.OrderID
		}
		last := len(orders) - 1
		orders[last] = append(orders[last], row.Name)
	}
	return orders, nil
}

func (m *MySQLAdapter) CatalogReconciliationSource(ctx context.Context) ([]domain.ItemRef, error) {
	query, args, err := m.sq.Select("id", "name").
		From("items").
		OrderBy("created_at", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build items query: %w", err)
	}

	refs := []domain.ItemRef{}
	if err := m.db.SelectContext(ctx, &refs, query, args...); err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	return refs, nil
}

func (m *MySQLAdapter) OrderReconciliationSource(ctx context.Context, sellerID string) ([]domain.ItemRef, error) {
	query, args, err := m.sq.Select("i.id", "i.name").
		From("catalog_items ci").
		Join("items i ON i.id = ci.item_id").
		Where(squirrel.Eq{"ci.seller_id": sellerID}).
		OrderBy("ci.position").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build catalog items query: %w", err)
	}

	refs := []domain.ItemRef{}
	if err := m.db.SelectContext(ctx, &refs, query, args...); err != nil {
		return nil, fmt.Errorf("query catalog items: %w", err)
	}
	return refs, nil
}

func (m *MySQLAdapter) CreateUser(ctx context.Context, user domain.User) error {
	query, args, err := m.sq.Insert("users").
		Columns("id", "username", "role", "created_at").
		Values(user.ID, user.Username, string(user.Role), user.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert user query: %w", err)
	}

	if _, err := m.db.ExecContext(ctx, query, args...); err != nil {
		if isDuplicateEntry(err) {
			return fmt.Errorf("username %s: %w", user.Username, domain.ErrAlreadyExists)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) GetUser(ctx context.Context, id string) (*domain.User, error) {
	query, args, err := m.sq.Select("id", "username", "role", "created_at").
		From("users").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get user query: %w", err)
	}

	var row userRow
	err = m.db.GetContext(ctx, &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}

	return &domain.User{
		ID:        row.ID,
		Username:  row.Username,
		Role:      domain.Role(row.Role),
		CreatedAt: row.CreatedAt,
	}, nil
}

// UpsertCatalog replaces the seller's catalog item set in one transaction.
func (m *MySQLAdapter) UpsertCatalog(ctx context.Context, catalog domain.Catalog) error {
	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	query, args, err := m.sq.Insert("catalogs").
		Columns("seller_id", "updated_at").
		Values(catalog.SellerID, catalog.UpdatedAt).
		Suffix("ON DUPLICATE KEY UPDATE updated_at = VALUES(updated_at)").
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert catalog query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert catalog: %w", err)
	}

	query, args, err = m.sq.Delete("catalog_items").
		Where(squirrel.Eq{"seller_id": catalog.SellerID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build clear catalog query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("clear catalog items: %w", err)
	}

	if len(catalog.ItemIDs) > 0 {
		insert := m.sq.Insert("catalog_items").Columns("seller_id", "position", "item_id")
		for i, id := range catalog.ItemIDs {
			insert = insert.Values(catalog.SellerID, i, id)
		}
		query, args, err = insert.ToSql()
		if err != nil {
			return fmt.Errorf("build insert catalog items query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert catalog items: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit catalog: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) CreateOrder(ctx context.Context, order domain.Order) error {
	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	query, args, err := m.sq.Insert("orders").
		Columns("id", "seller_id", "buyer_id", "created_at").
		Values(order.ID, order.SellerID, order.BuyerID, order.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert order query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	insert := m.sq.Insert("order_items").Columns("order_id", "position", "item_id")
	for i, id := range order.ItemIDs {
		insert = insert.Values(order.ID, i, id)
	}
	query, args, err = insert.ToSql()
	if err != nil {
		return fmt.Errorf("build insert order items query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert order items: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit order: %w", err)
	}
	return nil
}

// CreateItems inserts items, skipping names that already exist, and reports
// how many rows were added.
func (m *MySQLAdapter) CreateItems(ctx context.Context, items []domain.Item) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	insert := m.sq.Insert("items").
		Options("IGNORE").
		Columns("id", "name", "price", "created_at")
	for _, item := range items {
		insert = insert.Values(item.ID, item.Name, item.Price.StringFixed(2), item.CreatedAt)
	}
	query, args, err := insert.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build insert items query: %w", err)
	}

	res, err := m.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("insert items: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("insert items: %w", err)
	}
	return int(n), nil
}

func (m *MySQLAdapter) Ping(ctx context.Context) error {
	return m.db.PingContext(ctx)
}

func isDuplicateEntry(err error) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry
}
