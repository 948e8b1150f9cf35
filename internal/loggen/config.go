package loggen

import "time"

// Config controls one generation run.
type Config struct {
	BaseURL       string        // Server to upload to; empty skips upload and verification
	Files         int           // Number of log files
	EventsPerFile int           // DamageDone records per file
	Targets       []string      // Targets hit
	Sources       []string      // Attackers
	Skills        []string      // Skill names
	Seed          uint64        // Random seed; equal seeds give equal files
	Start         time.Time     // Wall clock of the first record
	Workers       int           // Concurrent generators and uploads
	Timeout       time.Duration // HTTP request timeout
	OutputDir     string        // Directory to write the files to; empty keeps them in memory
	Noise         bool          // Mix in comments, heal records and short lines
}

// DefaultConfig returns a small raid.
func DefaultConfig() Config {
	return Config{
		Files:         3,
		EventsPerFile: 500,
		Targets:       []string{"Boss", "Adds"},
		Sources:       []string{"Alice", "Bob", "Carol", "Dave"},
		Skills:        []string{"Slash", "Stab", "Fireball", "Kick", "Arrow"},
		Seed:          1,
		Start:         time.Date(2024, 1, 1, 20, 0, 0, 0, time.UTC),
		Workers:       4,
		Timeout:       30 * time.Second,
		Noise:         true,
	}
}

// File is one generated log.
type File struct {
	Name  string
	Lines []string
}

// Totals is the damage a target took across all generated files.
type Totals struct {
	Damage int64
	Hits   int
}

// Stats holds run statistics.
type Stats struct {
	FilesGenerated  int
	EventsGenerated int
	FilesWritten    int
	FilesUploaded   int
	TargetsVerified int
	StartTime       time.Time
	EndTime         time.Time
	Duration        time.Duration
}
