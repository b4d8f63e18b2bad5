// catalogfs-debug is a small offline inspector for a single catalog
// file: it opens the file read-only-ish (SQLite still needs a writable
// journal) and dumps its rows, its nested-catalog index, or its
// revision/schema properties, without going through the writable
// manager's mount and locking machinery.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	log "github.com/sirupsen/logrus"

	"catalogfs/internal/catalogdb"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "catalogfs-debug: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flagSet := pflag.NewFlagSet("catalogfs-debug", pflag.ContinueOnError)
	dumpNested := flagSet.Bool("nested", false, "dump the nested_catalogs index instead of rows")
	verbose := flagSet.BoolP("verbose", "v", false, "log at debug level")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if flagSet.NArg() != 1 {
		return fmt.Errorf("usage: catalogfs-debug [--nested] [-v] <catalog-file>")
	}
	if *verbose {
		log.SetLevel(log.DebugLevel)
	}

	ctx := context.Background()
	db, err := catalogdb.Open(ctx, flagSet.Arg(0), catalogdb.Options{})
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer db.Close()

	revision, err := db.Revision(ctx)
	if err != nil {
		return fmt.Errorf("revision: %w", err)
	}
	schema, err := db.Property(ctx, "schema")
	if err != nil {
		log.WithError(err).Debug("no schema property recorded")
	}
	fmt.Printf("catalog: %s\nschema:  %s\nrevision: %d\n\n", flagSet.Arg(0), schema, revision)

	if *dumpNested {
		return dumpNestedCatalogs(ctx, db)
	}
	return dumpRows(ctx, db)
}

func dumpNestedCatalogs(ctx context.Context, db *catalogdb.DB) error {
	nested, err := db.NestedCatalogs(ctx)
	if err != nil {
		return fmt.Errorf("nested-catalogs: %w", err)
	}
	if len(nested) == 0 {
		fmt.Println("(no nested catalogs)")
		return nil
	}
	for mountpoint, hash := range nested {
		fmt.Printf("%-40s %s\n", mountpoint, hash)
	}
	return nil
}

func dumpRows(ctx context.Context, db *catalogdb.DB) error {
	rows, err := db.AllRows(ctx)
	if err != nil {
		return fmt.Errorf("all-rows: %w", err)
	}
	for _, row := range rows {
		e := row.Entry
		kind := "f"
		switch {
		case e.IsDirectory():
			kind = "d"
		case e.IsLink():
			kind = "l"
		}
		flag := ""
		switch {
		case e.NestedMountpoint:
			flag = " [mountpoint]"
		case e.NestedRoot:
			flag = " [nested-root]"
		}
		path := row.Path
		if path == "" {
			path = "/"
		}
		fmt.Printf("%s %6o %10d %s%s\n", kind, e.Mode&0777, e.EffectiveSize(), path, flag)
	}
	return nil
}
