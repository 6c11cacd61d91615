package backupmanager

import (
	"context"
	"sort"
	"strconv"

	"github.com/gravitational/trace"
	"github.com/samber/lo"
)

// Database dumps a database into a file and restores it from one.
type Database interface {
	Type() string
	Dump(ctx context.Context, outputPath string) error
	Restore(ctx context.Context, inputPath string) error
}

// DatabaseFactory builds a Database for a connection.
type DatabaseFactory func(cfg DatabaseConfig, shell *ShellProcessor) Database

// DatabaseProvider resolves configured connection names to databases.
type DatabaseProvider struct {
	configs   map[string]DatabaseConfig
	factories map[string]DatabaseFactory
	shell     *ShellProcessor
}

// NewDatabaseProvider creates a provider for the given connections
func NewDatabaseProvider(configs map[string]DatabaseConfig, shell *ShellProcessor) *DatabaseProvider {
	return &DatabaseProvider{
		configs:   configs,
		factories: make(map[string]DatabaseFactory),
		shell:     shell,
	}
}

// Add registers a factory for a driver.
func (p *DatabaseProvider) Add(driver string, factory DatabaseFactory) {
	p.factories[driver] = factory
}

// Get returns the database for the named connection.
func (p *DatabaseProvider) Get(name string) (Database, error) {
	cfg, ok := p.configs[name]
	if !ok {
		return nil, trace.NotFound("database connection %q is not configured", name)
	}

	factory, ok := p.factories[cfg.Type]
	if !ok {
		return nil, trace.BadParameter("database connection %q has unsupported driver %q", name, cfg.Type)
	}

	return factory(cfg, p.shell), nil
}

// AvailableProviders returns the configured connection names, sorted.
func (p *DatabaseProvider) AvailableProviders() []string {
	names := lo.Keys(p.configs)
	sort.Strings(names)
	return names
}

// MysqlDatabase dumps with mysqldump and restores with the mysql client.
type MysqlDatabase struct {
	cfg   DatabaseConfig
	shell *ShellProcessor
}

// NewMysqlDatabase creates a MySQL database driven by mysqldump and mysql
func NewMysqlDatabase(cfg DatabaseConfig, shell *ShellProcessor) Database {
	return &MysqlDatabase{cfg: cfg, shell: shell}
}

func (d *MysqlDatabase) Type() string {
	return DriverMysql
}

func (d *MysqlDatabase) Dump(ctx context.Context, outputPath string) error {
	return trace.Wrap(d.shell.Process(ctx, d.dumpCommand(outputPath)), "failed to dump mysql database %q", d.cfg.Database)
}

func (d *MysqlDatabase) Restore(ctx context.Context, inputPath string) error {
	return trace.Wrap(d.shell.Process(ctx, d.restoreCommand(inputPath)), "failed to restore mysql database %q", d.cfg.Database)
}

func (d *MysqlDatabase) connectionArgs() []string {
	return []string{
		"--host=" + d.cfg.Host,
		"--port=" + strconv.Itoa(d.cfg.Port),
		"--user=" + d.cfg.User,
	}
}

// The password goes through the environment so it doesn't show up in the process list.
func (d *MysqlDatabase) env() []string {
	return []string{"MYSQL_PWD=" + d.cfg.Pass}
}

func (d *MysqlDatabase) dumpCommand(outputPath string) Command {
	return Command{
		Name:   "mysqldump",
		Args:   append(d.connectionArgs(), "--routines", "--single-transaction", d.cfg.Database),
		Env:    d.env(),
		Stdout: outputPath,
	}
}

func (d *MysqlDatabase) restoreCommand(inputPath string) Command {
	return Command{
		Name:  "mysql",
		Args:  append(d.connectionArgs(), d.cfg.Database),
		Env:   d.env(),
		Stdin: inputPath,
	}
}

// PostgresqlDatabase dumps with pg_dump and restores with psql.
type PostgresqlDatabase struct {
	cfg   DatabaseConfig
	shell *ShellProcessor
}

// NewPostgresqlDatabase creates a PostgreSQL database driven by pg_dump and psql
func NewPostgresqlDatabase(cfg DatabaseConfig, shell *ShellProcessor) Database {
	return &PostgresqlDatabase{cfg: cfg, shell: shell}
}

func (d *PostgresqlDatabase) Type() string {
	return DriverPostgres
}

func (d *PostgresqlDatabase) Dump(ctx context.Context, outputPath string) error {
	return trace.Wrap(d.shell.Process(ctx, d.dumpCommand(outputPath)), "failed to dump postgresql database %q", d.cfg.Database)
}

func (d *PostgresqlDatabase) Restore(ctx context.Context, inputPath string) error {
	return trace.Wrap(d.shell.Process(ctx, d.restoreCommand(inputPath)), "failed to restore postgresql database %q", d.cfg.Database)
}

func (d *PostgresqlDatabase) connectionArgs() []string {
	return []string{
		"--host=" + d.cfg.Host,
		"--port=" + strconv.Itoa(d.cfg.Port),
		"--username=" + d.cfg.User,
		"--dbname=" + d.cfg.Database,
	}
}

func (d *PostgresqlDatabase) env() []string {
	return []string{"PGPASSWORD=" + d.cfg.Pass}
}

func (d *PostgresqlDatabase) dumpCommand(outputPath string) Command {
	return Command{
		Name: "pg_dump",
		Args: append(d.connectionArgs(), "--clean", "--if-exists", "--no-password", "--file="+outputPath),
		Env:  d.env(),
	}
}

func (d *PostgresqlDatabase) restoreCommand(inputPath string) Command {
	return Command{
		Name: "psql",
		Args: append(d.connectionArgs(), "--no-password", "--quiet", "--set=ON_ERROR_STOP=1", "--file="+inputPath),
		Env:  d.env(),
	}
}
