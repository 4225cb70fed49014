package sqldb

// Per-driver queries that report the database the session is attached to.
var currentDatabaseQuery = map[string]string{
	"mysql":    `SELECT DATABASE()`,
	"postgres": `SELECT current_database()`,
}
