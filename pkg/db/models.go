package db

import "time"

// SourceRow is a staged upstream record. Analysis holds the raw JSON of the
// record's analysis (an FST string or a 3-tuple), or "" when absent.
type SourceRow struct {
	ID          int64
	Position    int
	Head        string
	Analysis    string
	Paradigm    string
	Definitions []string
	Sources     []string
	Lang        string
}

// Export is one saved export run.
type Export struct {
	ID          int64
	CreatedAt   time.Time
	RecordCount int
	Skipped     int
}

// ExportedRecordRow is one record of a saved export. Kind is "entry" or
// "wordform"; Slug is set for entries and FormOf for wordforms. Body is the
// record's JSON.
type ExportedRecordRow struct {
	Position int
	Kind     string
	Slug     string
	Head     string
	FormOf   string
	Body     string
}
