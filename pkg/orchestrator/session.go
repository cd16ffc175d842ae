package orchestrator

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/codeready-toolchain/eolscout/pkg/models"
)

// maxCommunications bounds the session ring buffer.
const maxCommunications = 100

// sessionCacheTTL is how long an orchestrator decision is reused within a
// session. Distinct from the persistent agent cache: this caches the
// post-processed result including the winning agent.
const sessionCacheTTL = time.Hour

type sessionEntry struct {
	result *Result
	at     time.Time
}

// sessionKey normalizes a request into the session-cache key.
func sessionKey(req Request) string {
	return fmt.Sprintf("%s|%s|%s|%t",
		strings.ToLower(strings.TrimSpace(req.Software)), req.Version, strings.ToLower(req.Kind), req.InternetOnly)
}

func (o *Orchestrator) sessionLookup(req Request) (*Result, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	entry, ok := o.sessionCache[sessionKey(req)]
	if !ok {
		return nil, false
	}
	if o.clock().Sub(entry.at) > sessionCacheTTL {
		delete(o.sessionCache, sessionKey(req))
		return nil, false
	}
	copied := *entry.result
	if copied.Data != nil {
		// The reused envelope advertises the session cache as its source.
		data := copied.Data.Clone()
		data.DataSource = models.DataSourceCache
		copied.Data = data
	}
	return &copied, true
}

func (o *Orchestrator) sessionStore(req Request, result *Result) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sessionCache[sessionKey(req)] = sessionEntry{result: result, at: o.clock()}
}

// appendComm stamps and appends an entry, trimming the ring to its bound.
func (o *Orchestrator) appendComm(c models.Communication) {
	o.mu.Lock()
	defer o.mu.Unlock()

	c.Timestamp = o.clock()
	c.SessionID = o.sessionID
	if c.Message == "" {
		c.Message = FormatCommunication(c)
	}
	o.comms = append(o.comms, c)
	if len(o.comms) > maxCommunications {
		o.comms = o.comms[len(o.comms)-maxCommunications:]
	}
}

// Communications returns a snapshot of the session log, oldest first.
func (o *Orchestrator) Communications() []models.Communication {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]models.Communication, len(o.comms))
	copy(out, o.comms)
	return out
}

// SessionID returns the current session identifier.
func (o *Orchestrator) SessionID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sessionID
}

// ClearResult reports what ClearCommunications dropped.
type ClearResult struct {
	Success    bool   `json:"success"`
	Cleared    int    `json:"cleared"`
	OldSession string `json:"old_session"`
	NewSession string `json:"new_session"`
}

// ClearCommunications resets the communication ring, the session cache,
// and the session ID.
func (o *Orchestrator) ClearCommunications() ClearResult {
	o.mu.Lock()
	defer o.mu.Unlock()

	result := ClearResult{
		Success:    true,
		Cleared:    len(o.comms),
		OldSession: o.sessionID,
	}
	o.comms = nil
	o.sessionCache = make(map[string]sessionEntry)
	o.sessionID = uuid.NewString()
	result.NewSession = o.sessionID
	return result
}
