package chat

import (
	"log/slog"

	"github.com/matiasleandrokruk/splunkchat/internal/domain/tool"
)

// Bootstrap attaches every callback supplied by provider as a default on b,
// builds the client and logs one record per callback. Records carry attached=false
// for callbacks the registry refused (blank or repeated names). A nil provider
// counts as empty.
func Bootstrap(b *Builder, provider tool.Provider, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	var cbs []tool.Callback
	if provider != nil {
		cbs = provider.ToolCallbacks()
	}
	client := b.DefaultToolCallbacks(cbs...).Build()

	registered := make(map[string]bool, len(cbs))
	for _, d := range client.Tools() {
		registered[d.Name] = true
	}
	for _, cb := range cbs {
		if cb == nil {
			continue
		}
		def := cb.Definition()
		// The registry keeps the first callback of a name.
		attached := registered[def.Name]
		delete(registered, def.Name)

		logger.Info("tool callback found",
			"tool", def.Name,
			"attached", attached,
			"definition", def.String(),
		)
	}
	return client
}
