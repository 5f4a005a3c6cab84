package audit

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Logger records registry mutations (registrations, revocations) in the
// audit_logs table. Writes are fire-and-forget so the request path never
// blocks on audit persistence.
type Logger struct {
	db *sql.DB
}

func NewLogger(db *sql.DB) *Logger {
	return &Logger{db: db}
}

func (l *Logger) Log(r *http.Request, appID int64, action string, metadata map[string]interface{}) {
	metaJSON, _ := json.Marshal(metadata)

	id := "audit_" + uuid.NewString()
	ip := r.RemoteAddr
	ua := r.UserAgent()
	createdAt := time.Now().Unix()

	go func() {
		_, err := l.db.Exec(`
			INSERT INTO audit_logs (id, app_id, action, metadata, ip_address, user_agent, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, id, appID, action, string(metaJSON), ip, ua, createdAt)
		if err != nil {
			log.Error().Err(err).Str("action", action).Msg("audit write failed")
		}
	}()
}
