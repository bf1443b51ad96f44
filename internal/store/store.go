// Package store persists board documents and the project catalog that
// describes them.
package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"boardr/internal/board"
)

var ErrProjectNotFound = errors.New("project not found")

type ProjectMeta struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"updatedAt"`
	// Recovered marks metadata synthesized for content whose catalog entry
	// was lost.
	Recovered bool `json:"-" yaml:"-"`
}

// Provider is the persistence collaborator. Documents are saved and loaded
// whole.
type Provider interface {
	Create(ctx context.Context, name string) (ProjectMeta, error)
	List(ctx context.Context) ([]ProjectMeta, error)
	Save(ctx context.Context, id string, doc *board.Document) error
	Load(ctx context.Context, id string) (ProjectMeta, *board.Document, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

// backend is the raw storage a Catalog is built on: metadata records and
// encoded board documents keyed by project id.
type backend interface {
	putMeta(ctx context.Context, m ProjectMeta) error
	metas(ctx context.Context) (map[string]ProjectMeta, error)
	putContent(ctx context.Context, id string, data []byte) error
	// content returns ErrProjectNotFound when nothing is stored under id.
	content(ctx context.Context, id string) ([]byte, error)
	contentIDs(ctx context.Context) ([]string, error)
	remove(ctx context.Context, id string) error
	close() error
}

// Catalog implements Provider on top of a backend.
type Catalog struct {
	b   backend
	now func() time.Time
}

func newCatalog(b backend) *Catalog {
	return &Catalog{b: b, now: func() time.Time { return time.Now().UTC() }}
}

func recoveredMeta(id string) ProjectMeta {
	prefix := id
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	return ProjectMeta{ID: id, Name: "Recovered " + prefix, Recovered: true}
}

func (c *Catalog) Create(ctx context.Context, name string) (ProjectMeta, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Untitled"
	}
	now := c.now()
	m := ProjectMeta{ID: uuid.NewString(), Name: name, CreatedAt: now, UpdatedAt: now}
	if err := c.b.putMeta(ctx, m); err != nil {
		return ProjectMeta{}, fmt.Errorf("create project: %w", err)
	}
	data, err := board.Encode(board.NewDocument())
	if err != nil {
		return ProjectMeta{}, err
	}
	if err := c.b.putContent(ctx, m.ID, data); err != nil {
		return ProjectMeta{}, fmt.Errorf("create project: %w", err)
	}
	log.WithFields(log.Fields{"project": m.ID, "name": m.Name}).Debug("project created")
	return m, nil
}

// List returns every project, most recently updated first. Content without
// a catalog entry is listed with placeholder metadata.
func (c *Catalog) List(ctx context.Context) ([]ProjectMeta, error) {
	metas, err := c.b.metas(ctx)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	ids, err := c.b.contentIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	out := make([]ProjectMeta, 0, len(metas))
	for _, m := range metas {
		out = append(out, m)
	}
	for _, id := range ids {
		if _, ok := metas[id]; !ok {
			out = append(out, recoveredMeta(id))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (c *Catalog) Save(ctx context.Context, id string, doc *board.Document) error {
	data, err := board.Encode(doc)
	if err != nil {
		return err
	}
	metas, err := c.b.metas(ctx)
	if err != nil {
		return fmt.Errorf("save project %s: %w", id, err)
	}
	m, ok := metas[id]
	if !ok {
		m = recoveredMeta(id)
		m.Recovered = false
		m.CreatedAt = c.now()
	}
	m.UpdatedAt = c.now()
	if err := c.b.putContent(ctx, id, data); err != nil {
		return fmt.Errorf("save project %s: %w", id, err)
	}
	if err := c.b.putMeta(ctx, m); err != nil {
		return fmt.Errorf("save project %s: %w", id, err)
	}
	return nil
}

func (c *Catalog) Load(ctx context.Context, id string) (ProjectMeta, *board.Document, error) {
	data, err := c.b.content(ctx, id)
	if err != nil {
		return ProjectMeta{}, nil, fmt.Errorf("load project %s: %w", id, err)
	}
	doc, err := board.Decode(data)
	if err != nil {
		return ProjectMeta{}, nil, fmt.Errorf("load project %s: %w", id, err)
	}
	metas, err := c.b.metas(ctx)
	if err != nil {
		return ProjectMeta{}, nil, fmt.Errorf("load project %s: %w", id, err)
	}
	m, ok := metas[id]
	if !ok {
		log.WithField("project", id).Warn("catalog entry missing, using placeholder metadata")
		m = recoveredMeta(id)
	}
	return m, doc, nil
}

func (c *Catalog) Delete(ctx context.Context, id string) error {
	metas, err := c.b.metas(ctx)
	if err != nil {
		return fmt.Errorf("delete project %s: %w", id, err)
	}
	if _, ok := metas[id]; !ok {
		if _, err := c.b.content(ctx, id); err != nil {
			return fmt.Errorf("delete project %s: %w", id, err)
		}
	}
	if err := c.b.remove(ctx, id); err != nil {
		return fmt.Errorf("delete project %s: %w", id, err)
	}
	return nil
}

func (c *Catalog) Close() error { return c.b.close() }

// Options selects and configures a provider.
type Options struct {
	// Kind is one of "file", "sqlite" or "redis". Empty means "file".
	Kind      string
	Dir       string
	RedisAddr string
}

// Open builds the provider named by opts. It is called once at startup and
// the result is injected into the editor.
func Open(ctx context.Context, opts Options) (Provider, error) {
	switch strings.ToLower(opts.Kind) {
	case "", "file":
		c, err := NewFileStore(opts.Dir)
		if err != nil {
			return nil, err
		}
		return c, nil
	case "sqlite":
		c, err := NewSQLiteStore(ctx, filepath.Join(opts.Dir, "boards.sqlite"))
		if err != nil {
			return nil, err
		}
		return c, nil
	case "redis":
		addr := opts.RedisAddr
		if addr == "" {
			addr = "localhost:6379"
		}
		client := redis.NewClient(&redis.Options{Addr: addr})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("connect redis %s: %w", addr, err)
		}
		return NewRedisStore(client, ""), nil
	}
	return nil, fmt.Errorf("unknown store %q (want file, sqlite or redis)", opts.Kind)
}
