package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
)

const (
	auditMaxString = 200
	auditMaxArgs   = 20
	auditMaxData   = 500
)

var (
	insertTablePattern = regexp.MustCompile(`(?i)^INSERT\s+(?:OR\s+\w+\s+)?INTO\s+` + "`?" + `([\w-]+)`)
	updateTablePattern = regexp.MustCompile(`(?i)^UPDATE\s+(?:OR\s+\w+\s+)?` + "`?" + `([\w-]+)`)
	deleteTablePattern = regexp.MustCompile(`(?i)^DELETE\s+FROM\s+` + "`?" + `([\w-]+)`)
)

// AuditDBTX logs successful mutations issued through the wrapped DBTX.
// Reads pass through untouched.
type AuditDBTX struct {
	DBTX
	logger *slog.Logger
}

// NewAuditDBTX wraps conn so that INSERT, UPDATE and DELETE statements are
// logged with their action, table and a truncated copy of their arguments.
func NewAuditDBTX(conn DBTX, logger *slog.Logger) *AuditDBTX {
	return &AuditDBTX{DBTX: conn, logger: logger}
}

func (a *AuditDBTX) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	res, err := a.DBTX.ExecContext(ctx, query, args...)
	if err != nil {
		return res, err
	}
	if action, table, ok := MutationMeta(query); ok {
		a.logger.InfoContext(ctx, "sql_mutation",
			"action", action,
			"table", table,
			"data", formatAuditArgs(args),
		)
	}
	return res, nil
}

// MutationMeta extracts the action and target table of a mutating
// statement. ok is false for anything that is not INSERT, UPDATE or DELETE.
func MutationMeta(query string) (action, table string, ok bool) {
	text := strings.TrimSpace(query)
	upper := strings.ToUpper(text)

	var pattern *regexp.Regexp
	switch {
	case strings.HasPrefix(upper, "INSERT"):
		action, pattern = "INSERT", insertTablePattern
		if strings.Contains(upper, "ON CONFLICT") || strings.HasPrefix(upper, "INSERT OR REPLACE") {
			action = "UPSERT"
		}
	case strings.HasPrefix(upper, "UPDATE"):
		action, pattern = "UPDATE", updateTablePattern
	case strings.HasPrefix(upper, "DELETE"):
		action, pattern = "DELETE", deleteTablePattern
	default:
		return "", "", false
	}

	table = "unknown"
	if m := pattern.FindStringSubmatch(text); m != nil {
		table = m[1]
	}
	return action, table, true
}

func formatAuditArgs(args []any) string {
	limited := make([]any, 0, min(len(args), auditMaxArgs)+1)
	for i, arg := range args {
		if i == auditMaxArgs {
			limited = append(limited, "...")
			break
		}
		switch v := arg.(type) {
		case string:
			if len(v) > auditMaxString {
				v = v[:auditMaxString] + "..."
			}
			limited = append(limited, v)
		case []byte:
			limited = append(limited, "<bytes length="+strconv.Itoa(len(v))+">")
		default:
			limited = append(limited, v)
		}
	}
	b, err := json.Marshal(limited)
	if err != nil {
		return "[unencodable]"
	}
	if len(b) > auditMaxData {
		return string(b[:auditMaxData]) + "..."
	}
	return string(b)
}
