package main

import (
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	_ "modernc.org/sqlite"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to reason_pilot.db")
	weights := flag.Bool("weights", false, "show learned source weights")
	feedbackN := flag.Int("feedback", 0, "show N most recent feedback events")
	attemptsN := flag.Int("attempts", 0, "show N most recent escalation attempts")
	archiveN := flag.Int("archive", 0, "show N most recent archived context entries")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/reason_pilot.db [--weights] [--feedback N] [--attempts N] [--archive N] [--json]")
		os.Exit(2)
	}
	if !*weights && *feedbackN == 0 && *attemptsN == 0 && *archiveN == 0 {
		*weights = true
	}

	db, err := sql.Open("sqlite", *dbPath+"?mode=ro")
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	if *weights {
		if err := runWeights(db, *jsonOut); err != nil {
			fail(err)
		}
	}
	if *feedbackN > 0 {
		if err := runFeedback(db, *feedbackN, *jsonOut); err != nil {
			fail(err)
		}
	}
	if *attemptsN > 0 {
		if err := runAttempts(db, *attemptsN, *jsonOut); err != nil {
			fail(err)
		}
	}
	if *archiveN > 0 {
		if err := runArchive(db, *archiveN, *jsonOut); err != nil {
			fail(err)
		}
	}
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

// #endregion main

// #region weights

type weightRow struct {
	Source string  `json:"source"`
	Bucket string  `json:"bucket"`
	Weight float64 `json:"weight"`
}

func runWeights(db *sql.DB, jsonOut bool) error {
	rows, err := db.Query(`SELECT source, bucket, weight FROM source_weights ORDER BY source, bucket`)
	if err != nil {
		return err
	}
	defer rows.Close()

	var out []weightRow
	for rows.Next() {
		var r weightRow
		if err := rows.Scan(&r.Source, &r.Bucket, &r.Weight); err != nil {
			return err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	if jsonOut {
		return printJSON(out)
	}
	if len(out) == 0 {
		fmt.Fprintln(os.Stderr, "no weights recorded")
		return nil
	}
	fmt.Printf("%-12s  %-15s  %s\n", "Source", "Bucket", "Weight")
	for _, r := range out {
		fmt.Printf("%-12s  %-15s  %.4f\n", r.Source, r.Bucket, r.Weight)
	}
	return nil
}

// #endregion weights

// #region feedback

type feedbackRow struct {
	Query     string `json:"query"`
	Correct   bool   `json:"correct"`
	Note      string `json:"note,omitempty"`
	Source    string `json:"source"`
	Bucket    string `json:"bucket"`
	CreatedAt string `json:"created_at"`
}

func runFeedback(db *sql.DB, limit int, jsonOut bool) error {
	rows, err := db.Query(
		`SELECT query, correct, COALESCE(note, ''), source, bucket, created_at
		 FROM feedback_events ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return err
	}
	defer rows.Close()

	var out []feedbackRow
	for rows.Next() {
		var r feedbackRow
		var correct int
		if err := rows.Scan(&r.Query, &correct, &r.Note, &r.Source, &r.Bucket, &r.CreatedAt); err != nil {
			return err
		}
		r.Correct = correct == 1
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	if jsonOut {
		return printJSON(out)
	}
	fmt.Printf("\n%-40s  %-9s  %-10s  %-15s  %s\n", "Query", "Verdict", "Source", "Bucket", "Time")
	for _, r := range out {
		verdict := "correct"
		if !r.Correct {
			verdict = "incorrect"
		}
		fmt.Printf("%-40s  %-9s  %-10s  %-15s  %s\n", clip(r.Query, 40), verdict, r.Source, r.Bucket, r.CreatedAt)
	}
	return nil
}

// #endregion feedback

// #region attempts

type attemptRow struct {
	QueryID       string  `json:"query_id"`
	Stage         int     `json:"stage"`
	Source        string  `json:"source"`
	Success       bool    `json:"success"`
	LatencyMS     int64   `json:"latency_ms"`
	Confidence    float64 `json:"confidence"`
	FailureReason string  `json:"failure_reason,omitempty"`
	CreatedAt     string  `json:"created_at"`
}

func runAttempts(db *sql.DB, limit int, jsonOut bool) error {
	rows, err := db.Query(
		`SELECT query_id, stage, source, success, latency_ms, confidence, COALESCE(failure_reason, ''), created_at
		 FROM attempt_log ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return err
	}
	defer rows.Close()

	var out []attemptRow
	for rows.Next() {
		var r attemptRow
		var success int
		if err := rows.Scan(&r.QueryID, &r.Stage, &r.Source, &success, &r.LatencyMS, &r.Confidence, &r.FailureReason, &r.CreatedAt); err != nil {
			return err
		}
		r.Success = success == 1
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	if jsonOut {
		return printJSON(out)
	}
	fmt.Printf("\n%-10s  %-5s  %-10s  %-7s  %8s  %6s  %s\n", "Query", "Stage", "Source", "OK", "Latency", "Conf", "Reason")
	for _, r := range out {
		ok := "yes"
		if !r.Success {
			ok = "no"
		}
		fmt.Printf("%-10s  %-5d  %-10s  %-7s  %6dms  %.2f  %s\n",
			clip(r.QueryID, 10), r.Stage, r.Source, ok, r.LatencyMS, r.Confidence, r.FailureReason)
	}
	return nil
}

// #endregion attempts

// #region archive

type archiveRow struct {
	SessionID   int64  `json:"session_id"`
	Query       string `json:"query"`
	Answer      string `json:"answer"`
	Source      string `json:"source"`
	ProblemType string `json:"problem_type"`
	IsRetry     bool   `json:"is_retry"`
	CreatedAt   string `json:"created_at"`
}

func runArchive(db *sql.DB, limit int, jsonOut bool) error {
	rows, err := db.Query(
		`SELECT session_id, query, answer, source, problem_type, is_retry, created_at
		 FROM context_archive ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return err
	}
	defer rows.Close()

	var out []archiveRow
	for rows.Next() {
		var r archiveRow
		var retry int
		if err := rows.Scan(&r.SessionID, &r.Query, &r.Answer, &r.Source, &r.ProblemType, &retry, &r.CreatedAt); err != nil {
			return err
		}
		r.IsRetry = retry == 1
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	if jsonOut {
		return printJSON(out)
	}
	fmt.Printf("\n%-4s  %-35s  %-25s  %-10s  %s\n", "Sess", "Query", "Answer", "Source", "Time")
	for _, r := range out {
		fmt.Printf("s%-3d  %-35s  %-25s  %-10s  %s\n",
			r.SessionID, clip(r.Query, 35), clip(r.Answer, 25), r.Source, r.CreatedAt)
	}
	return nil
}

// #endregion archive

// #region output

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func clip(s string, n int) string {
	if len(s) > n {
		return s[:n-3] + "..."
	}
	return s
}

// #endregion output
