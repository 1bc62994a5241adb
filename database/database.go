package database

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"pagedb/btree"
)

// CollectionInfo is the manifest record for one collection. The branching
// factor has to be remembered here because reopening the page file with a
// different one is refused.
type CollectionInfo struct {
	Dir   string `json:"dir"`
	Order int    `json:"order"`
}

// DBManifest tracks the DB ID plus a map of collection names to their
// subdirectory and branching factor.
type DBManifest struct {
	DBID        string                    `json:"db_id"`
	Collections map[string]CollectionInfo `json:"collections"`
}

// Database wraps the manifest plus loaded collection objects.
type Database struct {
	manifestPath string
	manifest     DBManifest
	collections  map[string]*Collection
	lock         sync.RWMutex
}

// NewDatabase opens the database at dbPath, creating the directory and a
// fresh manifest when none exists yet.
func NewDatabase(dbPath string, dbID string) (*Database, error) {
	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %v", err)
	}

	manifestPath := filepath.Join(dbPath, "manifest.json")

	db := &Database{
		manifestPath: manifestPath,
		manifest: DBManifest{
			DBID:        dbID,
			Collections: make(map[string]CollectionInfo),
		},
		collections: make(map[string]*Collection),
	}

	if _, err := os.Stat(manifestPath); err == nil {
		if _, err := db.LoadManifest(); err != nil {
			return nil, fmt.Errorf("failed to load manifest: %v", err)
		}
	} else {
		if err := db.SaveManifest(); err != nil {
			return nil, fmt.Errorf("failed to create new manifest: %v", err)
		}
	}

	return db, nil
}

// LoadDatabase opens an existing database from its manifest. Collections are
// loaded lazily by GetCollection.
func LoadDatabase(dbPath string) (*Database, error) {
	manifestPath := filepath.Join(dbPath, "manifest.json")
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest file: %v", err)
	}

	var m DBManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %v", err)
	}
	if m.Collections == nil {
		m.Collections = make(map[string]CollectionInfo)
	}

	return &Database{
		manifestPath: manifestPath,
		manifest:     m,
		collections:  make(map[string]*Collection),
	}, nil
}

// CreateCollection creates a subdir holding this collection's page file.
func (db *Database) CreateCollection(name string, order int) error {
	db.lock.Lock()
	defer db.lock.Unlock()

	if _, exists := db.manifest.Collections[name]; exists {
		return fmt.Errorf("collection %q already exists", name)
	}

	subDir := filepath.Join(filepath.Dir(db.manifestPath), name)
	if err := os.MkdirAll(subDir, 0755); err != nil {
		return fmt.Errorf("failed to create collection directory: %v", err)
	}

	tree, err := btree.NewBuilder().
		Path(filepath.Join(subDir, "data.db")).
		B(order).
		Build()
	if err != nil {
		return fmt.Errorf("failed to create btree for collection %q: %v", name, err)
	}

	db.collections[name] = &Collection{
		name:    name,
		order:   order,
		tree:    tree,
		baseDir: subDir,
	}

	db.manifest.Collections[name] = CollectionInfo{Dir: name, Order: order}
	if err := db.SaveManifest(); err != nil {
		return fmt.Errorf("failed to save manifest after creating collection: %v", err)
	}

	return nil
}

// GetCollection loads (if not already loaded) or returns a handle to the
// named collection.
func (db *Database) GetCollection(name string) (*Collection, error) {
	db.lock.Lock()
	defer db.lock.Unlock()

	if coll, ok := db.collections[name]; ok {
		return coll, nil
	}

	info, exists := db.manifest.Collections[name]
	if !exists {
		return nil, fmt.Errorf("collection %q not found in manifest", name)
	}

	subDir := filepath.Join(filepath.Dir(db.manifestPath), info.Dir)
	tree, err := btree.NewBuilder().
		Path(filepath.Join(subDir, "data.db")).
		B(info.Order).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to load btree for collection %q: %v", name, err)
	}

	coll := &Collection{
		name:    name,
		order:   info.Order,
		tree:    tree,
		baseDir: subDir,
	}
	db.collections[name] = coll

	return coll, nil
}

// GetAllCollections returns the collection names in the manifest, sorted.
func (db *Database) GetAllCollections() ([]string, error) {
	db.lock.RLock()
	defer db.lock.RUnlock()

	names := make([]string, 0, len(db.manifest.Collections))
	for name := range db.manifest.Collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (db *Database) SaveManifest() error {
	data, err := json.MarshalIndent(db.manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %v", err)
	}
	return os.WriteFile(db.manifestPath, data, 0644)
}

func (db *Database) LoadManifest() (DBManifest, error) {
	data, err := os.ReadFile(db.manifestPath)
	if err != nil {
		return DBManifest{}, fmt.Errorf("failed to read manifest file: %v", err)
	}
	var m DBManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return DBManifest{}, fmt.Errorf("failed to unmarshal manifest: %v", err)
	}
	if m.Collections == nil {
		m.Collections = make(map[string]CollectionInfo)
	}
	db.manifest = m
	return m, nil
}

// Close closes all loaded collections and saves the manifest.
func (db *Database) Close() error {
	db.lock.Lock()
	defer db.lock.Unlock()

	for _, coll := range db.collections {
		if err := coll.tree.Close(); err != nil {
			return fmt.Errorf("failed closing collection %q: %v", coll.name, err)
		}
	}
	db.collections = make(map[string]*Collection)

	return db.SaveManifest()
}

// ListDatabases returns the IDs of every database directory under root,
// identified by the presence of a manifest.
func ListDatabases(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}

	var dbIDs []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		manifest := filepath.Join(root, e.Name(), "manifest.json")
		if _, err := os.Stat(manifest); err == nil {
			dbIDs = append(dbIDs, e.Name())
		}
	}
	return dbIDs, nil
}
