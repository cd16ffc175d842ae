package orchestrator

import (
	"fmt"

	"github.com/codeready-toolchain/eolscout/pkg/models"
)

// FormatCommunication renders the UI message for a log entry. It is a
// pure function of the entry so the log can be re-rendered client-side.
func FormatCommunication(c models.Communication) string {
	switch c.Action {
	case models.ActionAgentSelection:
		return fmt.Sprintf("🔀 Routing %s to agents: %s", c.Input, c.Output)
	case models.ActionAgentCall:
		return fmt.Sprintf("🔍 Asking %s about %s", c.AgentName, c.Input)
	case models.ActionAgentResult:
		return fmt.Sprintf("✅ %s found EOL data for %s", c.AgentName, c.Input)
	case models.ActionAgentError:
		return fmt.Sprintf("❌ %s failed to find EOL data for %s", c.AgentName, c.Input)
	case models.ActionSessionCache:
		return fmt.Sprintf("⚡ Session cache hit for %s", c.Input)
	default:
		return fmt.Sprintf("%s: %s", c.AgentName, c.Input)
	}
}
