package provider

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/shelf/internal/apperr"
)

// Well-known folder ids seeded on first open.
const (
	RootID    = "root________"
	UnfiledID = "unfiled_____"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS nodes (
	id         TEXT PRIMARY KEY,
	parent_id  TEXT NOT NULL DEFAULT '',
	type       TEXT NOT NULL DEFAULT 'bookmark',
	title      TEXT NOT NULL DEFAULT '',
	url        TEXT NOT NULL DEFAULT '',
	position   INTEGER NOT NULL DEFAULT 0,
	date_added DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_nodes_parent ON nodes(parent_id);

INSERT OR IGNORE INTO nodes (id, parent_id, type, title) VALUES ('root________', '', 'folder', '');
INSERT OR IGNORE INTO nodes (id, parent_id, type, title) VALUES ('unfiled_____', 'root________', 'folder', 'Other Bookmarks');
`

// likeEscaper makes LIKE wildcards in a search query match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// SQLite implements Provider on a local SQLite bookmark tree.
type SQLite struct {
	conn      *sql.DB
	protocols []string
}

// Open opens (or creates) the bookmark database and applies the schema.
func Open(dsn string) (*SQLite, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("provider: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("provider: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("provider: apply schema: %w", err)
	}
	return &SQLite{conn: conn, protocols: slices.Clone(DefaultProtocols)}, nil
}

// Conn exposes the database so other stores can share the file.
func (s *SQLite) Conn() *sql.DB {
	return s.conn
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.conn.Close()
}

// SupportedURLProtocols implements Provider.
func (s *SQLite) SupportedURLProtocols() []string {
	return slices.Clone(s.protocols)
}

// Create implements Provider.
func (s *SQLite) Create(ctx context.Context, title, rawURL string) (Node, error) {
	return s.insert(ctx, UnfiledID, TypeBookmark, title, rawURL)
}

// CreateFolder adds a folder under parentID (UnfiledID when empty).
func (s *SQLite) CreateFolder(ctx context.Context, parentID, title string) (Node, error) {
	return s.insert(ctx, parentID, TypeFolder, title, "")
}

// CreateIn adds a bookmark under parentID (UnfiledID when empty).
func (s *SQLite) CreateIn(ctx context.Context, parentID, title, rawURL string) (Node, error) {
	return s.insert(ctx, parentID, TypeBookmark, title, rawURL)
}

func (s *SQLite) insert(ctx context.Context, parentID string, typ NodeType, title, rawURL string) (Node, error) {
	if parentID == "" {
		parentID = UnfiledID
	}
	parent, err := s.Get(ctx, parentID)
	if err != nil {
		return Node{}, fmt.Errorf("provider: parent %s: %w", parentID, err)
	}
	if parent.Type != TypeFolder {
		return Node{}, fmt.Errorf("provider: parent %s is not a folder: %w", parentID, apperr.ErrConflict)
	}

	n := Node{ID: uuid.NewString(), ParentID: parentID, Type: typ, Title: title, URL: rawURL}
	_, err = s.conn.ExecContext(ctx, `
		INSERT INTO nodes (id, parent_id, type, title, url, position)
		VALUES (?, ?, ?, ?, ?, (SELECT COALESCE(MAX(position), -1) + 1 FROM nodes WHERE parent_id = ?))
	`, n.ID, n.ParentID, string(n.Type), n.Title, n.URL, n.ParentID)
	if err != nil {
		return Node{}, fmt.Errorf("provider: insert: %w", err)
	}
	return n, nil
}

// Update implements Provider.
func (s *SQLite) Update(ctx context.Context, id, title, rawURL string) (Node, error) {
	n, err := s.Get(ctx, id)
	if err != nil {
		return Node{}, err
	}
	n.Title = title
	if n.Type == TypeBookmark {
		n.URL = rawURL
	}
	if _, err := s.conn.ExecContext(ctx, `UPDATE nodes SET title = ?, url = ? WHERE id = ?`, n.Title, n.URL, id); err != nil {
		return Node{}, fmt.Errorf("provider: update: %w", err)
	}
	return n, nil
}

// Remove implements Provider. Non-empty folders cannot be removed.
func (s *SQLite) Remove(ctx context.Context, id string) error {
	if id == RootID || id == UnfiledID {
		return fmt.Errorf("provider: cannot remove built-in folder %s: %w", id, apperr.ErrConflict)
	}
	var children int
	if err := s.conn.QueryRowContext(ctx, `SELECT count(*) FROM nodes WHERE parent_id = ?`, id).Scan(&children); err != nil {
		return fmt.Errorf("provider: count children: %w", err)
	}
	if children > 0 {
		return fmt.Errorf("provider: folder %s is not empty: %w", id, apperr.ErrConflict)
	}
	res, err := s.conn.ExecContext(ctx, `DELETE FROM nodes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("provider: delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("provider: bookmark %s: %w", id, apperr.ErrNotFound)
	}
	return nil
}

// Get implements Provider.
func (s *SQLite) Get(ctx context.Context, id string) (Node, error) {
	var n Node
	var typ string
	err := s.conn.QueryRowContext(ctx,
		`SELECT id, parent_id, type, title, url FROM nodes WHERE id = ?`, id,
	).Scan(&n.ID, &n.ParentID, &typ, &n.Title, &n.URL)
	if errors.Is(err, sql.ErrNoRows) {
		return Node{}, fmt.Errorf("provider: bookmark %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return Node{}, fmt.Errorf("provider: get: %w", err)
	}
	n.Type = NodeType(typ)
	return n, nil
}

// Search implements Provider.
func (s *SQLite) Search(ctx context.Context, query string) ([]Node, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if query == "" {
		rows, err = s.conn.QueryContext(ctx,
			`SELECT id, parent_id, type, title, url FROM nodes WHERE id != ? ORDER BY parent_id, position`, RootID)
	} else {
		like := "%" + likeEscaper.Replace(query) + "%"
		rows, err = s.conn.QueryContext(ctx, `
			SELECT id, parent_id, type, title, url FROM nodes
			WHERE id != ? AND (title LIKE ? ESCAPE '\' OR url LIKE ? ESCAPE '\')
			ORDER BY parent_id, position
		`, RootID, like, like)
	}
	if err != nil {
		return nil, fmt.Errorf("provider: search: %w", err)
	}
	defer rows.Close()

	out := []Node{}
	for rows.Next() {
		var n Node
		var typ string
		if err := rows.Scan(&n.ID, &n.ParentID, &typ, &n.Title, &n.URL); err != nil {
			return nil, err
		}
		n.Type = NodeType(typ)
		out = append(out, n)
	}
	return out, rows.Err()
}

// Verify *SQLite satisfies Provider at compile time.
var _ Provider = (*SQLite)(nil)
