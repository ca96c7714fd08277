// Command tinypg bootstraps a data directory and exercises the storage
// core's insert/scan path directly. It is a demonstration harness for
// the core, not a SQL front end: parsing, planning, and wire-protocol
// serving are out of its scope.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/tinypgdb/tinypg/internal/access"
	"github.com/tinypgdb/tinypg/internal/catalog"
	"github.com/tinypgdb/tinypg/internal/config"
	"github.com/tinypgdb/tinypg/internal/relation"
	"github.com/tinypgdb/tinypg/internal/storage/pager"
)

var (
	flagConfig = flag.String("config", "", "path to a YAML config file (default: built-in defaults)")
	flagDemo   = flag.Bool("demo", false, "initialize a fresh data directory, create a table, insert a few rows, and scan them back")
)

func main() {
	flag.Parse()

	cfg := config.Default()
	if *flagConfig != "" {
		loaded, err := config.Load(*flagConfig)
		if err != nil {
			log.Fatalf("tinypg: %v", err)
		}
		cfg = loaded
	}

	if *flagDemo {
		if err := runDemo(cfg); err != nil {
			log.Fatalf("tinypg: %v", err)
		}
		return
	}

	fmt.Println("tinypg: storage and catalog core demo. Pass -demo to run it.")
}

func runDemo(cfg *config.Engine) error {
	log.Printf("initializing data directory at %s", cfg.DataRoot)
	if err := os.MkdirAll(cfg.DataRoot, 0o755); err != nil {
		return fmt.Errorf("create data root: %w", err)
	}

	smgr := pager.NewStorageManager(cfg.DataRoot)
	pool := pager.NewBufferPool(smgr, pager.Config{
		Capacity: cfg.BufferPool.Capacity,
		Verbose:  cfg.Verbose,
	})

	if err := catalog.Initdb(pool); err != nil {
		return fmt.Errorf("initdb: %w", err)
	}
	log.Printf("catalog bootstrapped")

	tupledesc := &relation.TupleDesc{Attrs: []relation.Attribute{
		{Name: "id", Type: relation.TypeInt32, NotNull: true, AttNum: 1},
		{Name: "name", Type: relation.TypeText, AttNum: 2},
	}}
	newOid := catalog.NewRelationOid(cfg.DataRoot)
	if err := catalog.HeapCreate(pool, "greetings", newOid, tupledesc); err != nil {
		return fmt.Errorf("create relation: %w", err)
	}
	log.Printf("created relation greetings (oid %s)", newOid)

	rel, err := catalog.OpenRelation(pool, "greetings")
	if err != nil {
		return fmt.Errorf("open relation: %w", err)
	}

	rows := []struct {
		id   int32
		name string
	}{
		{1, "hello"},
		{2, "world"},
		{3, "tinypg"},
	}
	for _, r := range rows {
		encoded, err := access.EncodeTuple(rel.TupleDesc(), []any{r.id, r.name})
		if err != nil {
			return fmt.Errorf("encode tuple: %w", err)
		}
		if err := access.HeapInsert(pool, rel, encoded); err != nil {
			return fmt.Errorf("insert tuple: %w", err)
		}
	}
	log.Printf("inserted %d tuples", len(rows))

	scanner, err := access.NewHeapScanner(pool, rel)
	if err != nil {
		return fmt.Errorf("open scan: %w", err)
	}
	defer scanner.Close()

	for scanner.Next() {
		values, err := access.DecodeTuple(rel.TupleDesc(), scanner.Tuple())
		if err != nil {
			return fmt.Errorf("decode tuple: %w", err)
		}
		fmt.Printf("row: id=%v name=%v\n", values[0], values[1])
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan: %w", err)
	}

	return pool.FlushAll()
}
