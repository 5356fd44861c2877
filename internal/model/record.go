package model

import (
	"context"
	"time"
)

// FreshlyObserved is the date value producers use for postings that carry no
// explicit date but were just seen on a live listing page.
const FreshlyObserved = "Freshly Posted"

// Sentinel classification values.
const (
	CountryRemote  = "Remote"
	CountryUnknown = "Unknown"
	CountryOther   = "Other"
	FieldOther     = "Other"
)

// RawRecord is a posting as yielded by a producer. Every field may be empty.
type RawRecord struct {
	Title    string
	Company  string
	Location string
	Link     string
	Date     string   // free-form: ISO, RFC 822, "3 days ago", FreshlyObserved
	Tags     []string // skills / categories when the source has them
	Source   string   // producer name
	Duration string
	Stipend  string
	Deadline string
}

// Record is the canonical, classified form of a posting.
type Record struct {
	ID           string // content hash of title, company and location
	Title        string
	Company      string
	Location     string
	Country      string
	Field        string
	Link         string // canonical URL, second uniqueness key
	Source       string
	Duration     string
	Stipend      string
	Deadline     string
	Requirements []string
	Logo         string     // best-effort guess, never validated
	PostedAt     *time.Time // nil when the source date is unknown
	IngestedAt   time.Time
	Delivered    bool
}

// Producer yields raw records from one source.
type Producer interface {
	Name() string
	Fetch(ctx context.Context) ([]RawRecord, error)
}

// Sink delivers one record to an external channel. Implementations fall back
// to a degraded variant (no decorative assets) before reporting failure.
type Sink interface {
	Deliver(ctx context.Context, rec Record) error
}

// RecordFilter decides whether a raw record is worth normalizing at all.
type RecordFilter interface {
	Match(raw RawRecord) bool
}

// InsertResult describes what InsertIfAbsent did with a record.
type InsertResult int

const (
	Inserted      InsertResult = iota
	Duplicate                  // both keys already present on the same stored record
	IDCollision                // ID present, stored link differs
	LinkCollision              // link present, stored ID differs
)

// Inserted reports whether the record was newly stored.
func (r InsertResult) Inserted() bool { return r == Inserted }

// Partial reports a collision on only one of the two identity keys.
func (r InsertResult) Partial() bool { return r == IDCollision || r == LinkCollision }

func (r InsertResult) String() string {
	switch r {
	case Inserted:
		return "inserted"
	case Duplicate:
		return "duplicate"
	case IDCollision:
		return "id_collision"
	case LinkCollision:
		return "link_collision"
	default:
		return "unknown"
	}
}

// PendingOrder controls how QueryPending sorts undelivered records.
type PendingOrder int

const (
	NewestFirst PendingOrder = iota
	OldestFirst
)

// SearchFilter narrows QueryByFilter. Empty or "All" values match everything.
type SearchFilter struct {
	Country string
	Field   string
	Limit   int
}

// StoreStats summarises the contents of a record store.
type StoreStats struct {
	Total     int
	Delivered int
	Pending   int
}

// RecordStore is the durable cross-run memory of the pipeline.
type RecordStore interface {
	InsertIfAbsent(ctx context.Context, rec Record) (InsertResult, error)
	MarkDelivered(ctx context.Context, id string) error
	QueryPending(ctx context.Context, limit int, order PendingOrder) ([]Record, error)
	QueryByFilter(ctx context.Context, f SearchFilter) ([]Record, error)
	Stats(ctx context.Context) (StoreStats, error)
}

// QuotaStore counts requests per requester per day.
type QuotaStore interface {
	// ConsumeQuota increments the count for (requester, day) if it is below
	// limit. It returns whether the request was allowed and the count after
	// the call.
	ConsumeQuota(ctx context.Context, requester, day string, limit int) (bool, int, error)
}
