package domain

import (
	"sort"
	"strings"
	"time"
)

// Column describes one table column in catalog order.
type Column struct {
	Name     string `json:"name"`
	DataType string `json:"data_type"`
	Nullable bool   `json:"nullable"`
	Default  string `json:"default,omitempty"`
}

// ForeignKey describes an outgoing foreign-key constraint.
type ForeignKey struct {
	Name              string   `json:"name"`
	Columns           []string `json:"columns"`
	ReferencedTable   string   `json:"referenced_table"`
	ReferencedColumns []string `json:"referenced_columns"`
}

// Index describes a table index.
type Index struct {
	Name       string   `json:"name"`
	Columns    []string `json:"columns"`
	Unique     bool     `json:"unique"`
	Definition string   `json:"definition,omitempty"`
}

// RelationshipKind distinguishes the direction of a relationship edge.
type RelationshipKind string

const (
	RelReferences   RelationshipKind = "references"
	RelReferencedBy RelationshipKind = "referenced_by"
)

// Relationship is one edge of the bidirectional relationship graph. Every
// foreign key on table A yields a RelReferences edge on A and a mirrored
// RelReferencedBy edge on the referenced table.
type Relationship struct {
	Kind         RelationshipKind `json:"kind"`
	Table        string           `json:"table"`
	LocalColumn  string           `json:"local_column"`
	RemoteColumn string           `json:"remote_column"`
}

// TableSchema is the extracted description of one table. It is created in a
// single extraction pass and held read-only afterwards; concurrent plans share
// the same instance.
type TableSchema struct {
	Schema        string           `json:"schema"`
	Name          string           `json:"name"`
	Comment       string           `json:"comment,omitempty"`
	Columns       []Column         `json:"columns"`
	PrimaryKeys   []string         `json:"primary_keys,omitempty"`
	ForeignKeys   []ForeignKey     `json:"foreign_keys,omitempty"`
	Indexes       []Index          `json:"indexes,omitempty"`
	Category      Category         `json:"category"`
	RowCount      int64            `json:"row_count,omitempty"`
	SampleRows    []map[string]any `json:"sample_rows,omitempty"`
	Relationships []Relationship   `json:"relationships,omitempty"`
}

// SQLName is the identifier used when rendering SQL: bare for the default
// schema, schema-qualified otherwise.
func (t *TableSchema) SQLName() string {
	if t.Schema == "" || t.Schema == "public" {
		return t.Name
	}
	return t.Schema + "." + t.Name
}

// Column returns the named column, if present.
func (t *TableSchema) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// HasColumn reports whether the table has a column with the exact name.
func (t *TableSchema) HasColumn(name string) bool {
	_, ok := t.Column(name)
	return ok
}

// FirstDateColumn returns the first column that looks like a timestamp, in
// declaration order.
func (t *TableSchema) FirstDateColumn() (Column, bool) {
	for _, c := range t.Columns {
		if isDateColumn(c) {
			return c, true
		}
	}
	return Column{}, false
}

// FirstQuantityColumn returns the first numeric, quantity-like column.
func (t *TableSchema) FirstQuantityColumn() (Column, bool) {
	for _, c := range t.Columns {
		if isQuantityColumn(c) {
			return c, true
		}
	}
	return Column{}, false
}

func isDateColumn(c Column) bool {
	dt := strings.ToLower(c.DataType)
	if strings.Contains(dt, "timestamp") || dt == "date" {
		return true
	}
	name := strings.ToLower(c.Name)
	return strings.HasSuffix(name, "_at") || strings.HasSuffix(name, "_date") || name == "date"
}

var quantityWords = []string{"qty", "quantity", "amount", "total", "count", "weight", "volume", "units"}

func isQuantityColumn(c Column) bool {
	name := strings.ToLower(c.Name)
	for _, w := range quantityWords {
		if strings.Contains(name, w) {
			return true
		}
	}
	return false
}

var descriptiveWords = []string{"name", "description", "status", "type", "code", "number"}

func isDescriptiveColumn(c Column) bool {
	name := strings.ToLower(c.Name)
	for _, w := range descriptiveWords {
		if strings.Contains(name, w) {
			return true
		}
	}
	return false
}

// JoinEdge is a single-hop join between two tables discovered from the
// relationship graph.
type JoinEdge struct {
	From       string
	To         string
	FromColumn string
	ToColumn   string
}

// Catalog is an immutable snapshot of the extracted schema. It is built once
// by NewCatalog and never mutated; rebuilds produce a fresh Catalog that is
// swapped in behind a single reference.
type Catalog struct {
	tables      map[string]*TableSchema // keyed by bare table name
	byCategory  map[Category][]*TableSchema
	names       []string // sorted, for deterministic iteration
	extractedAt time.Time
}

// NewCatalog indexes the extracted tables and runs the mandatory second pass
// that inserts reverse relationship edges, so the graph is symmetric before
// any reader sees it.
func NewCatalog(tables []*TableSchema) *Catalog {
	c := &Catalog{
		tables:      make(map[string]*TableSchema, len(tables)),
		byCategory:  make(map[Category][]*TableSchema),
		extractedAt: time.Now().UTC(),
	}
	for _, t := range tables {
		if t.Category == "" {
			t.Category = CategorizeTable(t.Name)
		}
		c.tables[t.Name] = t
		c.byCategory[t.Category] = append(c.byCategory[t.Category], t)
		c.names = append(c.names, t.Name)
	}
	sort.Strings(c.names)
	c.linkRelationships()
	return c
}

// linkRelationships walks every foreign key and stores a forward edge on the
// owning table plus a reverse edge on the referenced table. Only single-hop
// edges are stored; path search happens at lookup time.
func (c *Catalog) linkRelationships() {
	for _, name := range c.names {
		t := c.tables[name]
		for _, fk := range t.ForeignKeys {
			ref, ok := c.tables[fk.ReferencedTable]
			if !ok || len(fk.Columns) == 0 || len(fk.ReferencedColumns) == 0 {
				continue
			}
			t.Relationships = append(t.Relationships, Relationship{
				Kind:         RelReferences,
				Table:        ref.Name,
				LocalColumn:  fk.Columns[0],
				RemoteColumn: fk.ReferencedColumns[0],
			})
			ref.Relationships = append(ref.Relationships, Relationship{
				Kind:         RelReferencedBy,
				Table:        t.Name,
				LocalColumn:  fk.ReferencedColumns[0],
				RemoteColumn: fk.Columns[0],
			})
		}
	}
}

// Table looks a table up by bare name.
func (c *Catalog) Table(name string) (*TableSchema, bool) {
	t, ok := c.tables[name]
	return t, ok
}

// Tables returns all tables in deterministic (name) order.
func (c *Catalog) Tables() []*TableSchema {
	out := make([]*TableSchema, 0, len(c.names))
	for _, n := range c.names {
		out = append(out, c.tables[n])
	}
	return out
}

// TablesByCategory returns the tables assigned to a functional area.
func (c *Catalog) TablesByCategory(cat Category) []*TableSchema {
	return c.byCategory[cat]
}

// Len returns the number of tables in the snapshot.
func (c *Catalog) Len() int { return len(c.tables) }

// ExtractedAt is the time the snapshot was built.
func (c *Catalog) ExtractedAt() time.Time { return c.extractedAt }

// JoinPath returns the direct relationship edge between two tables, if one
// exists.
func (c *Catalog) JoinPath(from, to string) (JoinEdge, bool) {
	t, ok := c.tables[from]
	if !ok {
		return JoinEdge{}, false
	}
	for _, rel := range t.Relationships {
		if rel.Table == to {
			return JoinEdge{From: from, To: to, FromColumn: rel.LocalColumn, ToColumn: rel.RemoteColumn}, true
		}
	}
	return JoinEdge{}, false
}

// maxJoinHops bounds the breadth-first path search. Plans never join more
// than a handful of tables, so long chains are not worth the fan-out.
const maxJoinHops = 3

// JoinPathMultiHop searches the relationship graph breadth-first for a path
// of up to maxJoinHops edges between two tables. A direct edge, when present,
// is always preferred by callers; this exists for tables only reachable
// through an intermediate.
func (c *Catalog) JoinPathMultiHop(from, to string) ([]JoinEdge, bool) {
	if edge, ok := c.JoinPath(from, to); ok {
		return []JoinEdge{edge}, true
	}
	type node struct {
		name string
		path []JoinEdge
	}
	visited := map[string]bool{from: true}
	queue := []node{{name: from}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if len(cur.path) >= maxJoinHops {
			continue
		}
		t, ok := c.tables[cur.name]
		if !ok {
			continue
		}
		for _, rel := range t.Relationships {
			if visited[rel.Table] {
				continue
			}
			visited[rel.Table] = true
			path := append(append([]JoinEdge{}, cur.path...), JoinEdge{
				From: cur.name, To: rel.Table,
				FromColumn: rel.LocalColumn, ToColumn: rel.RemoteColumn,
			})
			if rel.Table == to {
				return path, true
			}
			queue = append(queue, node{name: rel.Table, path: path})
		}
	}
	return nil, false
}
