package database

// Driver names accepted by DATABASE_DRIVER
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
)

// Event listing limits
const (
	// DefaultEventLimit is the number of events returned when no limit is given
	DefaultEventLimit = 50

	// MaxEventLimit caps any single event listing
	MaxEventLimit = 500

	// IdentityEventPreview is the number of recent events shown with an identity
	IdentityEventPreview = 5
)

// ClampEventLimit maps a requested limit into [1, MaxEventLimit], using
// DefaultEventLimit for non-positive values.
func ClampEventLimit(limit int) int {
	if limit <= 0 {
		return DefaultEventLimit
	}
	return min(limit, MaxEventLimit)
}
