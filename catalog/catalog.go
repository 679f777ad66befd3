// catalog.go - Produktkatalog auf SQLite
// Enthaelt: Store, Open, Close, List, Get, Create, Delete, ImageURLs

package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite-Treiber registrieren
)

// schemaVersion wird bei Schema-Aenderungen erhoeht
const schemaVersion = 1

var (
	ErrNotFound = errors.New("product not found")
	ErrInvalid  = errors.New("invalid product")
)

// Product ist ein Katalogeintrag. ImageURL ist der Kandidat beim Matching.
type Product struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	ImageURL  string    `json:"image_url"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate prueft die Pflichtfelder
func (p Product) Validate() error {
	switch {
	case strings.TrimSpace(p.Name) == "":
		return fmt.Errorf("%w: name is required", ErrInvalid)
	case strings.TrimSpace(p.ImageURL) == "":
		return fmt.Errorf("%w: image_url is required", ErrInvalid)
	}
	return nil
}

// Store umhuellt die SQLite-Verbindung.
// SQLite serialisiert Schreiber selbst, WAL laesst Leser parallel zu.
type Store struct {
	conn *sql.DB
}

// Open oeffnet (oder erstellt) den Katalog unter path.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create catalog dir: %w", err)
		}
	}

	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping catalog: %w", err)
	}

	s := &Store{conn: conn}
	if err := s.init(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initialize catalog: %w", err)
	}

	return s, nil
}

// Close schliesst die Verbindung
func (s *Store) Close() error {
	_, _ = s.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE);")
	return s.conn.Close()
}

func (s *Store) init() error {
	schema := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT '',
		image_url TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_products_created_at ON products(created_at);

	PRAGMA user_version = %d;
	`, schemaVersion)

	if _, err := s.conn.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// List gibt alle Produkte in Einfuegereihenfolge zurueck
func (s *Store) List(ctx context.Context) ([]Product, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, name, category, image_url, created_at
		FROM products
		ORDER BY created_at, rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := []Product{}
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Category, &p.ImageURL, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// Get gibt ein Produkt anhand der ID zurueck
func (s *Store) Get(ctx context.Context, id string) (Product, error) {
	var p Product
	err := s.conn.QueryRowContext(ctx, `
		SELECT id, name, category, image_url, created_at
		FROM products WHERE id = ?
	`, id).Scan(&p.ID, &p.Name, &p.Category, &p.ImageURL, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	if err != nil {
		return Product{}, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// Create legt ein Produkt mit neuer UUID an
func (s *Store) Create(ctx context.Context, p Product) (Product, error) {
	if err := p.Validate(); err != nil {
		return Product{}, err
	}

	p.ID = uuid.NewString()
	p.CreatedAt = time.Now().UTC()
	p.Name = strings.TrimSpace(p.Name)
	p.Category = strings.TrimSpace(p.Category)
	p.ImageURL = strings.TrimSpace(p.ImageURL)

	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO products (id, name, category, image_url, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, p.ID, p.Name, p.Category, p.ImageURL, p.CreatedAt)
	if err != nil {
		return Product{}, fmt.Errorf("insert product: %w", err)
	}
	return p, nil
}

// Delete entfernt ein Produkt
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.conn.ExecContext(ctx, "DELETE FROM products WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ImageURLs gibt die Bild-URLs aller Produkte in Listenreihenfolge zurueck
func (s *Store) ImageURLs(ctx context.Context) ([]string, error) {
	products, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	urls := make([]string, len(products))
	for i, p := range products {
		urls[i] = p.ImageURL
	}
	return urls, nil
}
