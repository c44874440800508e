package core

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/JonMunkholm/masterconsole/internal/docstore"
	"github.com/JonMunkholm/masterconsole/internal/logging"
)

// RunsCollection holds one summary document per finished import run.
const RunsCollection = "import_runs"

// RunRecord is the stored summary of an import run.
type RunRecord struct {
	RunID           string    `json:"runId"`
	Entity          string    `json:"entity"`
	FileName        string    `json:"fileName,omitempty"`
	Phase           Phase     `json:"phase"`
	Total           int       `json:"total"`
	Written         int       `json:"written"`
	Skipped         int       `json:"skipped"`
	AccountsCreated int       `json:"accountsCreated"`
	Message         string    `json:"message"`
	Error           string    `json:"error,omitempty"`
	Operator        string    `json:"operator,omitempty"`
	IPAddress       string    `json:"ipAddress,omitempty"`
	UserAgent       string    `json:"userAgent,omitempty"`
	StartedAt       time.Time `json:"startedAt"`
	DurationMs      int64     `json:"durationMs"`
}

// recordRun stores the run summary. Failures are logged and never affect
// the run's outcome.
func (s *Service) recordRun(ctx context.Context, res Result) {
	doc := docstore.Document{
		"runId":           res.RunID,
		"entity":          res.Entity,
		"fileName":        res.FileName,
		"phase":           string(res.Phase),
		"total":           float64(res.Total),
		"written":         float64(res.Written),
		"skipped":         float64(res.Skipped),
		"accountsCreated": float64(res.AccountsCreated),
		"message":         res.Message,
		"error":           res.Error,
		"operator":        OperatorFromContext(ctx),
		"ipAddress":       GetIPAddressFromContext(ctx),
		"userAgent":       GetUserAgentFromContext(ctx),
		"startedAt":       res.StartedAt.UTC(),
		"durationMs":      float64(res.Duration.Milliseconds()),
	}

	// The run context may already be past its deadline.
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if err := s.store.Upsert(writeCtx, RunsCollection, res.RunID, doc); err != nil {
		logging.FromContext(ctx).Warn("record import run", "error", err)
	}
}

// History returns recorded runs newest first. An empty entity returns every
// run; limit <= 0 returns all.
func (s *Service) History(ctx context.Context, entity string, limit int) ([]RunRecord, error) {
	recs, err := s.store.List(ctx, RunsCollection, "startedAt")
	if err != nil {
		return nil, fmt.Errorf("list import runs: %w", err)
	}

	runs := make([]RunRecord, 0, len(recs))
	for _, rec := range recs {
		run := runFromDoc(rec)
		if entity != "" && run.Entity != entity {
			continue
		}
		runs = append(runs, run)
	}

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// ExportHistory writes the run history as CSV.
func (s *Service) ExportHistory(ctx context.Context, w io.Writer, entity string) error {
	runs, err := s.History(ctx, entity, 0)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{
		"Run ID", "Started At", "Entity", "File", "Phase", "Total", "Written",
		"Skipped", "Accounts", "Operator", "IP Address", "Duration (ms)", "Message",
	})
	for _, r := range runs {
		_ = cw.Write([]string{
			r.RunID,
			r.StartedAt.Format("2006-01-02 15:04:05"),
			r.Entity,
			r.FileName,
			string(r.Phase),
			strconv.Itoa(r.Total),
			strconv.Itoa(r.Written),
			strconv.Itoa(r.Skipped),
			strconv.Itoa(r.AccountsCreated),
			r.Operator,
			r.IPAddress,
			strconv.FormatInt(r.DurationMs, 10),
			r.Message,
		})
	}
	cw.Flush()
	return cw.Error()
}

func runFromDoc(rec docstore.Record) RunRecord {
	d := rec.Doc
	return RunRecord{
		RunID:           rec.Key,
		Entity:          asString(d["entity"]),
		FileName:        asString(d["fileName"]),
		Phase:           Phase(asString(d["phase"])),
		Total:           asInt(d["total"]),
		Written:         asInt(d["written"]),
		Skipped:         asInt(d["skipped"]),
		AccountsCreated: asInt(d["accountsCreated"]),
		Message:         asString(d["message"]),
		Error:           asString(d["error"]),
		Operator:        asString(d["operator"]),
		IPAddress:       asString(d["ipAddress"]),
		UserAgent:       asString(d["userAgent"]),
		StartedAt:       asTime(d["startedAt"]),
		DurationMs:      int64(asInt(d["durationMs"])),
	}
}

func asString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}

func asInt(v any) int {
	switch x := v.(type) {
	case float64:
		return int(x)
	case int:
		return x
	case int64:
		return int(x)
	case string:
		n, _ := strconv.Atoi(x)
		return n
	default:
		return 0
	}
}

// asTime accepts a time.Time or the RFC 3339 string a JSON backend returns.
func asTime(v any) time.Time {
	switch x := v.(type) {
	case time.Time:
		return x
	case string:
		t, err := time.Parse(time.RFC3339Nano, x)
		if err == nil {
			return t
		}
	}
	return time.Time{}
}
