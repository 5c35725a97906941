// internal/agents/workers.go
package agents

import (
	"go.uber.org/zap"

	"github.com/unclebandit/outreach-engine/internal/workflow"
)

// NewWorkerSet assembles the built-in workers into a workflow.WorkerSet.
// senders may be nil, in which case every channel falls back to MockSender.
func NewWorkerSet(store RunStore, senders map[string]Sender, log *zap.Logger) workflow.WorkerSet {
	ingestion := &IngestionAgent{Log: log}
	persona := &PersonaAgent{Log: log}
	draft := &DraftAgent{}
	scoring := &ScoringAgent{}
	execution := &ExecutionAgent{Senders: senders, Log: log}
	persistence := &PersistenceAgent{Store: store, Log: log}

	return workflow.WorkerSet{
		Ingest:  ingestion.Run,
		Persona: persona.Run,
		Draft:   draft.Draft,
		Score:   scoring.Run,
		Execute: execution.Run,
		Persist: persistence.Run,
	}
}
