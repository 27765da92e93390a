package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
)

// StoreType selects a storage engine.
type StoreType string

const (
	// StoreKV keeps data in an embedded badger key-value store.
	StoreKV StoreType = "kv"

	// StorePg keeps data in PostgreSQL.
	StorePg StoreType = "postgres"
)

// Config is a struct that holds configuration parameters for the package.
type Config struct {
	// InputDir is a directory for dumps and key-value stores.
	InputDir string

	// DumpDir is a directory to keep CSV dump files.
	DumpDir string

	// KVDir is a directory of the key-value store. If it is empty, the
	// key-value store keeps data in memory.
	KVDir string

	// Store is the storage engine.
	Store StoreType

	// JobsNum is a number of concurrent goroutines.
	JobsNum int

	// MyHost is a host name for MySQL with the legacy catalog.
	MyHost string

	// MyPort is a port of MySQL.
	MyPort int

	// MyUser is a user name for MySQL.
	MyUser string

	// MyPass is a password for MySQL.
	MyPass string

	// MyDB is a database name for MySQL.
	MyDB string

	// PgHost is a host name for PostgreSQL.
	PgHost string

	// PgPort is a port of PostgreSQL.
	PgPort int

	// PgUser is a user name for PostgreSQL.
	PgUser string

	// PgPass is a password for PostgreSQL.
	PgPass string

	// PgDB is a database name for PostgreSQL.
	PgDB string

	// BatchSize is a number of records to be saved in one transaction.
	BatchSize int

	// LegacyATCPattern makes ATC codes validated by the pattern of the
	// first catalog version instead of the structural ATC pattern.
	LegacyATCPattern bool

	// Romanize fills empty pinyin fields of drug names from their
	// simplified Chinese forms.
	Romanize bool

	// Clock provides timestamps for created_at and updated_at fields.
	Clock func() time.Time
}

// Option type allows to change settings for Config.
type Option func(*Config)

// OptInputDir sets a directory for dumps and key-value stores.
func OptInputDir(d string) Option {
	return func(cfg *Config) {
		cfg.InputDir = d
	}
}

// OptDumpDir sets a directory for CSV files.
func OptDumpDir(d string) Option {
	return func(cfg *Config) {
		cfg.DumpDir = d
	}
}

// OptKVDir sets a directory for the key-value store.
func OptKVDir(d string) Option {
	return func(cfg *Config) {
		cfg.KVDir = d
	}
}

// OptStore sets the storage engine.
func OptStore(s StoreType) Option {
	return func(cfg *Config) {
		cfg.Store = s
	}
}

// OptJobsNum sets parallelism number for concurrent goroutines.
func OptJobsNum(j int) Option {
	return func(cfg *Config) {
		cfg.JobsNum = j
	}
}

// OptMyHost sets host for MySQL
func OptMyHost(h string) Option {
	return func(cfg *Config) {
		cfg.MyHost = h
	}
}

// OptMyPort sets port for MySQL
func OptMyPort(p int) Option {
	return func(cfg *Config) {
		cfg.MyPort = p
	}
}

// OptMyUser sets user for MySQL
func OptMyUser(u string) Option {
	return func(cfg *Config) {
		cfg.MyUser = u
	}
}

// OptMyPass sets password for MySQL
func OptMyPass(p string) Option {
	return func(cfg *Config) {
		cfg.MyPass = p
	}
}

// OptMyDB sets database name for MySQL
func OptMyDB(d string) Option {
	return func(cfg *Config) {
		cfg.MyDB = d
	}
}

// OptPgHost sets host name for PostgreSQL
func OptPgHost(h string) Option {
	return func(cfg *Config) {
		cfg.PgHost = h
	}
}

// OptPgPort sets port for PostgreSQL
func OptPgPort(p int) Option {
	return func(cfg *Config) {
		cfg.PgPort = p
	}
}

// OptPgUser sets user for PostgreSQL
func OptPgUser(u string) Option {
	return func(cfg *Config) {
		cfg.PgUser = u
	}
}

// OptPgPass sets password for PostgreSQL
func OptPgPass(p string) Option {
	return func(cfg *Config) {
		cfg.PgPass = p
	}
}

// OptPgDB sets database name for PostgreSQL
func OptPgDB(d string) Option {
	return func(cfg *Config) {
		cfg.PgDB = d
	}
}

// OptBatchSize sets the number of records saved in one transaction.
func OptBatchSize(n int) Option {
	return func(cfg *Config) {
		cfg.BatchSize = n
	}
}

// OptLegacyATCPattern switches ATC validation to the legacy pattern.
func OptLegacyATCPattern(b bool) Option {
	return func(cfg *Config) {
		cfg.LegacyATCPattern = b
	}
}

// OptRomanize enables generation of pinyin for drug names.
func OptRomanize(b bool) Option {
	return func(cfg *Config) {
		cfg.Romanize = b
	}
}

// OptClock sets the source of timestamps.
func OptClock(clock func() time.Time) Option {
	return func(cfg *Config) {
		cfg.Clock = clock
	}
}

// New creates Config. Directories that are not set explicitly are placed
// inside of InputDir.
func New(opts ...Option) Config {
	inpDir, err := os.UserCacheDir()
	if err != nil {
		inpDir = os.TempDir()
	}
	inpDir = filepath.Join(inpDir, "drugref")

	res := Config{
		InputDir:  inpDir,
		Store:     StoreKV,
		JobsNum:   4,
		MyHost:    "localhost",
		MyPort:    3306,
		MyUser:    "root",
		MyDB:      "drugs",
		PgHost:    "0.0.0.0",
		PgPort:    5432,
		PgUser:    "postgres",
		PgPass:    "postgres",
		PgDB:      "drugref",
		BatchSize: 50_000,
		Clock:     time.Now,
	}

	for _, opt := range opts {
		opt(&res)
	}

	res.InputDir = expandHome(res.InputDir)
	if res.DumpDir == "" {
		res.DumpDir = filepath.Join(res.InputDir, "dump")
	}
	if res.KVDir == "" && res.Store == StoreKV {
		res.KVDir = filepath.Join(res.InputDir, "kv")
	}
	res.DumpDir = expandHome(res.DumpDir)
	res.KVDir = expandHome(res.KVDir)
	if res.Clock == nil {
		res.Clock = time.Now
	}
	if res.BatchSize < 1 {
		res.BatchSize = 1
	}
	if res.JobsNum < 1 {
		res.JobsNum = 1
	}

	return res
}

func expandHome(dir string) string {
	if !strings.HasPrefix(dir, "~/") && !strings.HasPrefix(dir, "~\\") {
		return dir
	}
	home, err := homedir.Dir()
	if err != nil {
		slog.Error("Cannot find home directory", "error", err)
		return dir
	}
	return filepath.Join(home, dir[2:])
}
