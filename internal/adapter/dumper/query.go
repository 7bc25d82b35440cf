package dumper

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	"github.com/klauspost/compress/gzip"

	"github.com/aulianza/dbarc/internal/config"
	"github.com/aulianza/dbarc/internal/domain"
)

// SQLDumper generates a logical dump by querying schema and rows over a
// direct connection, without shelling out to client utilities.
type SQLDumper struct {
	cfg *config.Config
	log Logger
}

func NewSQL(cfg *config.Config, log Logger) *SQLDumper {
	return &SQLDumper{cfg: cfg, log: log}
}

func (d *SQLDumper) Name() string {
	if d.cfg.Database.Database != "" {
		return d.cfg.Database.Database
	}
	return d.cfg.Database.Host
}

func (d *SQLDumper) dsn() string {
	db := d.cfg.Database
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/?parseTime=true&charset=%s",
		db.Username, db.Password, db.Host, db.Port, db.Charset)
}

func (d *SQLDumper) open(ctx context.Context) (*sql.DB, error) {
	db, err := sql.Open("mysql", d.dsn())
	if err != nil {
		return nil, fmt.Errorf("%w: open %s:%d: %v", domain.ErrConnection, d.cfg.Database.Host, d.cfg.Database.Port, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: ping %s:%d: %v", domain.ErrConnection, d.cfg.Database.Host, d.cfg.Database.Port, err)
	}
	return db, nil
}

func (d *SQLDumper) Ping(ctx context.Context) error {
	db, err := d.open(ctx)
	if err != nil {
		return err
	}
	return db.Close()
}

// Dump writes a gzip-compressed SQL script covering every resolved
// database to outputPath. The connection is released on every path; a
// partially written file is left for the caller to deal with.
func (d *SQLDumper) Dump(ctx context.Context, outputPath string) error {
	db, err := d.open(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create dump file: %w", err)
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	if err := d.writeDump(ctx, db, gz); err != nil {
		gz.Close()
		return err
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("close gzip stream: %w", err)
	}
	return nil
}

// dumpWriter accumulates the first write error so the dump loops stay
// readable.
type dumpWriter struct {
	w   io.Writer
	err error
}

func (dw *dumpWriter) printf(format string, args ...interface{}) {
	if dw.err != nil {
		return
	}
	if _, err := fmt.Fprintf(dw.w, format, args...); err != nil {
		dw.err = fmt.Errorf("write dump stream: %w", err)
	}
}

func (d *SQLDumper) writeDump(ctx context.Context, db *sql.DB, w io.Writer) error {
	databases, err := d.databases(ctx, db)
	if err != nil {
		return err
	}

	dw := &dumpWriter{w: w}
	dw.printf("-- dbarc logical dump\n")
	dw.printf("-- Host: %s\n\n", d.cfg.Database.Host)
	dw.printf("SET FOREIGN_KEY_CHECKS=0;\n")

	for _, name := range databases {
		if err := d.dumpDatabase(ctx, db, dw, name); err != nil {
			return err
		}
	}

	dw.printf("\nSET FOREIGN_KEY_CHECKS=1;\n")
	return dw.err
}

func (d *SQLDumper) databases(ctx context.Context, db *sql.DB) ([]string, error) {
	if d.cfg.Database.Database != "" {
		return []string{d.cfg.Database.Database}, nil
	}

	rows, err := db.QueryContext(ctx, "SHOW DATABASES")
	if err != nil {
		return nil, fmt.Errorf("%w: list databases: %v", domain.ErrQuery, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("%w: scan database name: %v", domain.ErrQuery, err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list databases: %v", domain.ErrQuery, err)
	}

	return filterSystemSchemas(names), nil
}

func (d *SQLDumper) dumpDatabase(ctx context.Context, db *sql.DB, dw *dumpWriter, name string) error {
	dw.printf("\n--\n-- Database: `%s`\n--\n\n", name)
	dw.printf("CREATE DATABASE IF NOT EXISTS `%s`;\n", name)
	dw.printf("USE `%s`;\n", name)

	tables, err := d.tables(ctx, db, name)
	if err != nil {
		return err
	}

	for _, table := range tables {
		if err := d.dumpTable(ctx, db, dw, name, table); err != nil {
			return err
		}
	}
	return dw.err
}

func (d *SQLDumper) tables(ctx context.Context, db *sql.DB, database string) ([]string, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("SHOW TABLES FROM `%s`", database))
	if err != nil {
		return nil, fmt.Errorf("%w: list tables in %s: %v", domain.ErrQuery, database, err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("%w: scan table name: %v", domain.ErrQuery, err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list tables in %s: %v", domain.ErrQuery, database, err)
	}
	return tables, nil
}

func (d *SQLDumper) dumpTable(ctx context.Context, db *sql.DB, dw *dumpWriter, database, table string) error {
	dw.printf("\nDROP TABLE IF EXISTS `%s`;\n", table)

	var name, ddl string
	row := db.QueryRowContext(ctx, fmt.Sprintf("SHOW CREATE TABLE `%s`.`%s`", database, table))
	if err := row.Scan(&name, &ddl); err != nil {
		return fmt.Errorf("%w: show create table %s.%s: %v", domain.ErrQuery, database, table, err)
	}
	dw.printf("%s;\n", ddl)

	rows, err := db.QueryContext(ctx, fmt.Sprintf("SELECT * FROM `%s`.`%s`", database, table))
	if err != nil {
		return fmt.Errorf("%w: read rows from %s.%s: %v", domain.ErrQuery, database, table, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("%w: columns of %s.%s: %v", domain.ErrQuery, database, table, err)
	}
	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return fmt.Errorf("%w: column types of %s.%s: %v", domain.ErrQuery, database, table, err)
	}

	raw := make([]interface{}, len(columns))
	ptrs := make([]interface{}, len(columns))
	for i := range raw {
		ptrs[i] = &raw[i]
	}

	count := 0
	for rows.Next() {
		if count == 0 {
			dw.printf("\nLOCK TABLES `%s` WRITE;\n", table)
		}
		if err := rows.Scan(ptrs...); err != nil {
			return fmt.Errorf("%w: scan row from %s.%s: %v", domain.ErrQuery, database, table, err)
		}

		literals := make([]string, len(columns))
		for i := range raw {
			literals[i] = classify(raw[i], columnTypes[i].DatabaseTypeName()).Literal()
		}
		dw.printf("INSERT INTO `%s` VALUES (%s);\n", table, strings.Join(literals, ", "))
		count++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: read rows from %s.%s: %v", domain.ErrQuery, database, table, err)
	}

	if count > 0 {
		dw.printf("UNLOCK TABLES;\n")
		d.log.Debugf("dumped %d row(s) from %s.%s", count, database, table)
	}
	return dw.err
}
