package logger

// Component-specific logger functions

// DB returns a logger for database operations
func DB() Logger {
	return WithField("component", "db")
}

// Schema returns a logger for table creation
func Schema() Logger {
	return WithField("component", "schema")
}

// HTTP returns a logger for the HTTP server and its handlers
func HTTP() Logger {
	return WithField("component", "http")
}

// CLI returns a logger for CLI operations
func CLI() Logger {
	return WithField("component", "cli")
}
