/*Package registry provides a persistent registry of objects in a SQL database

The package uses JSON to serialize the data.
*/
package registry

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/dalarub/docbase/core/csql"
)

const tableName = "_registry_"
const unloggedTableName = "_registry_unlogged_"

// New creates a new registry for the specified database, backed by a
// regular (crash-safe) table.
func New(db *csql.DB) *Registry {
	return mustNew(db, tableName, "TABLE")
}

// NewUnlogged creates a new registry backed by an UNLOGGED table: writes
// skip the write-ahead log, trading crash-safety for throughput. Intended
// for caches that can be rebuilt from their source of truth, such as the
// JWT oracle's signing-key cache.
func NewUnlogged(db *csql.DB) *Registry {
	return mustNew(db, unloggedTableName, "UNLOGGED TABLE")
}

// MustNew creates a new registry for the specified database, using the
// regular logged table. Kept for callers written against the original
// single-constructor API.
func MustNew(db *csql.DB) *Registry {
	return New(db)
}

func mustNew(db *csql.DB, table, kind string) *Registry {
	_, err := db.Exec(`CREATE ` + kind + ` IF NOT EXISTS ` + db.Schema + `."` + table + `"
(key varchar NOT NULL,
value json NOT NULL,
created_at timestamp NOT NULL,
PRIMARY KEY(key)
);`)

	if err != nil {
		panic(err)
	}
	return &Registry{db: db, table: table}
}

// Registry provides a persistent registry of objects in a sql database.
type Registry struct {
	db    *csql.DB
	table string
}

// Accessor is an accessor with optional prefix
type Accessor struct {
	Prefix   string
	Registry *Registry
}

// Accessor returns a registry accessor with prefix
func (r *Registry) Accessor(prefix string) Accessor {
	return Accessor{
		Prefix:   prefix,
		Registry: r,
	}
}

// Read reads a value from the registry. It returns the
// time when the value was written.
//
// If the accessor has a prefix, the key is prepended with "{prefix}:"
func (r *Accessor) Read(key string, value interface{}) (time.Time, error) {
	var (
		rawValue  json.RawMessage
		createdAt time.Time
	)
	if len(r.Prefix) > 0 {
		key = r.Prefix + ":" + key
	}

	err := r.Registry.db.QueryRow(
		`SELECT value, created_at FROM `+r.Registry.db.Schema+`."`+r.Registry.table+`" WHERE key=$1;`,
		key).Scan(&rawValue, &createdAt)
	if err == csql.ErrNoRows {
		return createdAt, nil
	}
	if err != nil {
		return createdAt, fmt.Errorf("cannot read key '%s': %s", key, err.Error())
	}
	err = json.Unmarshal(rawValue, &value)

	return createdAt, err
}

// Write writes a value into the registry.
//
// If the accessor has a prefix, the key is prepended with "{prefix}:"
func (r *Accessor) Write(key string, value interface{}) error {

	body, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	if len(r.Prefix) > 0 {
		key = r.Prefix + ":" + key
	}
	now := time.Now().UTC()
	res, err := r.Registry.db.Exec(
		`INSERT INTO `+r.Registry.db.Schema+`."`+r.Registry.table+`"(key,value,created_at)
VALUES($1,$2,$3)
ON CONFLICT (key) DO UPDATE SET value=$2,created_at=$3;`,
		key, string(body), now)

	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("could not write key %s", key)
	}
	return nil
}

// Delete removes a key from the registry, if present.
//
// If the accessor has a prefix, the key is prepended with "{prefix}:"
func (r *Accessor) Delete(key string) error {
	if len(r.Prefix) > 0 {
		key = r.Prefix + ":" + key
	}
	_, err := r.Registry.db.Exec(
		`DELETE FROM `+r.Registry.db.Schema+`."`+r.Registry.table+`" WHERE key=$1;`,
		key)
	return err
}
