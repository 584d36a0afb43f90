// Package weights holds the learned per-(source, bucket) trust values that
// feedback adjusts over time and the fallback chain consults for ordering.
package weights

// #region imports
import (
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/kibbyd/reason-pilot/internal/classify"
)

// #endregion

// #region constants

const (
	// DefaultWeight is the neutral trust assigned lazily on first use.
	DefaultWeight = 0.5
	// LearningRate is the base step applied per feedback event.
	LearningRate = 0.05
)

// #endregion

// #region bucket-bonuses

// bucketBonuses multiplies the learning rate for (source, bucket) pairs where
// feedback is especially informative: web search lives or dies on
// time-sensitive queries, the general assistant on coding ones.
var bucketBonuses = map[string]map[string]float64{
	"websearch": {"time_sensitive": 1.5},
	"assistant": {"coding": 1.5},
}

// #endregion

// #region bucket-for

// timeSensitiveCues mark queries whose answers go stale.
var timeSensitiveCues = []string{
	"latest", "today", "current", "right now", "this week",
	"news", "recently", "yesterday",
}

// BucketFor maps a query and its problem type onto a weight bucket.
// Time-sensitivity overrides the type-derived bucket.
func BucketFor(query string, pt classify.ProblemType) string {
	lower := strings.ToLower(query)
	for _, cue := range timeSensitiveCues {
		if strings.Contains(lower, cue) {
			return "time_sensitive"
		}
	}
	switch pt {
	case classify.MathWordProblem:
		return "calculation"
	case classify.LogicProblem:
		return "logic"
	case classify.Programming:
		return "coding"
	case classify.Design:
		return "design"
	case classify.Metacognitive:
		return "metacognitive"
	default:
		return "general"
	}
}

// #endregion

// #region store

// Store persists source weights in sqlite. Values always stay in [0,1].
type Store struct {
	db *sql.DB
}

// NewStore returns a weight store over an already-migrated database.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// #endregion

// #region get

// Get returns the learned weight for (source, bucket), or DefaultWeight when
// none has been recorded yet. Read errors degrade to the default rather than
// surfacing.
func (s *Store) Get(source, bucket string) float64 {
	var w float64
	err := s.db.QueryRow(
		`SELECT weight FROM source_weights WHERE source = ? AND bucket = ?`,
		source, bucket,
	).Scan(&w)
	if err == sql.ErrNoRows {
		return DefaultWeight
	}
	if err != nil {
		log.Printf("[WEIGHT] read %s/%s failed (%v), using default", source, bucket, err)
		return DefaultWeight
	}
	return clamp01(w)
}

// #endregion

// #region update

// Update applies one feedback event:
// weight <- clamp(weight + rate * direction * bonus, 0, 1).
// The row is created lazily at DefaultWeight on first update.
func (s *Store) Update(source, bucket string, correct bool) (float64, error) {
	current := s.Get(source, bucket)

	direction := -1.0
	if correct {
		direction = 1.0
	}
	bonus := 1.0
	if m, ok := bucketBonuses[source]; ok {
		if b, ok := m[bucket]; ok {
			bonus = b
		}
	}

	next := clamp01(current + LearningRate*direction*bonus)

	_, err := s.db.Exec(
		`INSERT INTO source_weights (source, bucket, weight, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(source, bucket) DO UPDATE SET weight = excluded.weight, updated_at = excluded.updated_at`,
		source, bucket, next, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return current, fmt.Errorf("update weight %s/%s: %w", source, bucket, err)
	}

	log.Printf("[WEIGHT] %s/%s: %.3f -> %.3f (correct=%v)", source, bucket, current, next, correct)
	return next, nil
}

// #endregion

// #region best-source

// BestSourceFor returns the source with the highest recorded weight for the
// bucket. Pure over current weights: no side effects, no lazy inserts.
// ok is false when the bucket has no recorded weights at all.
func (s *Store) BestSourceFor(bucket string) (source string, weight float64, ok bool) {
	rows, err := s.db.Query(
		`SELECT source, weight FROM source_weights WHERE bucket = ? ORDER BY weight DESC, source ASC LIMIT 1`,
		bucket,
	)
	if err != nil {
		log.Printf("[WEIGHT] best-source read failed: %v", err)
		return "", 0, false
	}
	defer rows.Close()

	if !rows.Next() {
		return "", 0, false
	}
	if err := rows.Scan(&source, &weight); err != nil {
		log.Printf("[WEIGHT] best-source scan failed: %v", err)
		return "", 0, false
	}
	return source, clamp01(weight), true
}

// #endregion

// #region snapshot

// Entry is one (source, bucket) weight row, used by the inspection surfaces.
type Entry struct {
	Source string
	Bucket string
	Weight float64
}

// Snapshot returns all recorded weights ordered by source then bucket.
func (s *Store) Snapshot() ([]Entry, error) {
	rows, err := s.db.Query(`SELECT source, bucket, weight FROM source_weights ORDER BY source, bucket`)
	if err != nil {
		return nil, fmt.Errorf("snapshot weights: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Source, &e.Bucket, &e.Weight); err != nil {
			return nil, fmt.Errorf("scan weight row: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// #endregion

// #region helpers

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// #endregion
