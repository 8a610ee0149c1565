package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for caching.
	DatabaseBackend string

	// SourceKind represents the upstream timetable provider.
	SourceKind string

	// Kind represents what a display record describes.
	Kind string
)

// Output modes.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// Database backends.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	RedisBackend      DatabaseBackend = "redis"
	NoneBackend       DatabaseBackend = "none"
)

// Timetable sources.
const (
	APUSource     SourceKind = "apu" // default
	APSpaceSource SourceKind = "apspace"
	FileSource    SourceKind = "file"
)

// Display record kinds.
const (
	ClassKind  Kind = "class"
	GapKind    Kind = "gap"
	MutualKind Kind = "mutual"
)

// Categories assigned by the formatter for non-class records.
const (
	FallbackCategory = "Class"
	GapCategory      = "Gap"
	MutualCategory   = "Mutual"
)

// ValidOutputModes is the set of accepted output formats.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidDatabaseBackends is the set of accepted cache backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	RedisBackend:      {},
	NoneBackend:       {},
}

// ValidSources is the set of accepted timetable sources.
var ValidSources = map[SourceKind]struct{}{
	APUSource:     {},
	APSpaceSource: {},
	FileSource:    {},
}
