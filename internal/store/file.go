package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/amishk599/internfeed/internal/model"
)

// Ensure FileStore implements the store interfaces.
var (
	_ model.RecordStore = (*FileStore)(nil)
	_ model.QuotaStore  = (*FileStore)(nil)
)

// FileStore keeps the store as a single JSON document. Every mutation rewrites
// the document through a temp file and rename, so a crash leaves either the
// old or the new state on disk. A mutation whose save fails is undone in
// memory as well.
type FileStore struct {
	mu   sync.Mutex // serializes mutate-then-save
	path string
	mem  *MemoryStore
}

type fileDocument struct {
	Records []fileRecord `json:"records"`
	Quotas  []fileQuota  `json:"quotas,omitempty"`
}

type fileRecord struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Company      string     `json:"company"`
	Location     string     `json:"location"`
	Country      string     `json:"country"`
	Field        string     `json:"field"`
	Link         string     `json:"link,omitempty"`
	Source       string     `json:"source"`
	Duration     string     `json:"duration"`
	Stipend      string     `json:"stipend"`
	Deadline     string     `json:"deadline"`
	Requirements []string   `json:"requirements,omitempty"`
	Logo         string     `json:"logo,omitempty"`
	PostedAt     *time.Time `json:"posted_at,omitempty"`
	IngestedAt   time.Time  `json:"ingested_at"`
	Delivered    bool       `json:"delivered"`
}

type fileQuota struct {
	Requester string `json:"requester"`
	Day       string `json:"day"`
	Count     int    `json:"count"`
}

// NewFileStore loads the document at path, or starts empty if it does not
// exist yet.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path, mem: NewMemoryStore()}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading store file: %w", err)
	}

	var doc fileDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing store file %s: %w", path, err)
	}
	for _, fr := range doc.Records {
		s.mem.insertLocked(fr.record())
	}
	for _, q := range doc.Quotas {
		s.mem.quotas[quotaKey{q.Requester, q.Day}] = q.Count
	}
	return s, nil
}

// InsertIfAbsent stores rec unless its ID or link is already present.
func (s *FileStore) InsertIfAbsent(ctx context.Context, rec model.Record) (model.InsertResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.mem.InsertIfAbsent(ctx, rec)
	if err != nil || !res.Inserted() {
		return res, err
	}
	if err := s.save(); err != nil {
		s.mem.remove(rec.ID)
		return res, fmt.Errorf("inserting %s: %w", rec.ID, err)
	}
	return res, nil
}

// MarkDelivered flags a record as delivered.
func (s *FileStore) MarkDelivered(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.mem.mu.Lock()
	prev, err := s.mem.setDeliveredLocked(id, true)
	s.mem.mu.Unlock()
	if err != nil || prev {
		return err
	}
	if err := s.save(); err != nil {
		s.mem.mu.Lock()
		s.mem.setDeliveredLocked(id, false)
		s.mem.mu.Unlock()
		return fmt.Errorf("marking %s delivered: %w", id, err)
	}
	return nil
}

func (s *FileStore) QueryPending(ctx context.Context, limit int, order model.PendingOrder) ([]model.Record, error) {
	return s.mem.QueryPending(ctx, limit, order)
}

func (s *FileStore) QueryByFilter(ctx context.Context, f model.SearchFilter) ([]model.Record, error) {
	return s.mem.QueryByFilter(ctx, f)
}

func (s *FileStore) Stats(ctx context.Context) (model.StoreStats, error) {
	return s.mem.Stats(ctx)
}

// ConsumeQuota increments the count for (requester, day) when below limit.
func (s *FileStore) ConsumeQuota(ctx context.Context, requester, day string, limit int) (bool, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ok, n, err := s.mem.ConsumeQuota(ctx, requester, day, limit)
	if err != nil || !ok {
		return ok, n, err
	}
	if err := s.save(); err != nil {
		s.mem.mu.Lock()
		s.mem.quotas[quotaKey{requester, day}] = n - 1
		s.mem.mu.Unlock()
		return false, n - 1, fmt.Errorf("consuming quota for %s: %w", requester, err)
	}
	return ok, n, nil
}

// Close is a no-op; every mutation is already on disk.
func (s *FileStore) Close() error { return nil }

func (s *FileStore) save() error {
	s.mem.mu.Lock()
	doc := fileDocument{Records: make([]fileRecord, 0, len(s.mem.records))}
	for _, r := range s.mem.records {
		doc.Records = append(doc.Records, toFileRecord(r))
	}
	for k, n := range s.mem.quotas {
		doc.Quotas = append(doc.Quotas, fileQuota{Requester: k.requester, Day: k.day, Count: n})
	}
	s.mem.mu.Unlock()

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding store: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating store dir: %w", err)
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing store: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replacing store: %w", err)
	}
	return nil
}

func toFileRecord(r model.Record) fileRecord {
	return fileRecord{
		ID: r.ID, Title: r.Title, Company: r.Company, Location: r.Location,
		Country: r.Country, Field: r.Field, Link: r.Link, Source: r.Source,
		Duration: r.Duration, Stipend: r.Stipend, Deadline: r.Deadline,
		Requirements: r.Requirements, Logo: r.Logo, PostedAt: r.PostedAt,
		IngestedAt: r.IngestedAt, Delivered: r.Delivered,
	}
}

func (fr fileRecord) record() model.Record {
	return model.Record{
		ID: fr.ID, Title: fr.Title, Company: fr.Company, Location: fr.Location,
		Country: fr.Country, Field: fr.Field, Link: fr.Link, Source: fr.Source,
		Duration: fr.Duration, Stipend: fr.Stipend, Deadline: fr.Deadline,
		Requirements: fr.Requirements, Logo: fr.Logo, PostedAt: fr.PostedAt,
		IngestedAt: fr.IngestedAt, Delivered: fr.Delivered,
	}
}
