package agents

// CycleOutcome classifies one stage invocation. Stages recover from every
// non-success outcome locally; none of these ever aborts a consumer loop.
type CycleOutcome string

const (
	OutcomeProcessed         CycleOutcome = "processed"
	OutcomeDenied            CycleOutcome = "denied"
	OutcomeParseFailure      CycleOutcome = "parse_failure"
	OutcomeCollaboratorFault CycleOutcome = "collaborator_fault"
	OutcomePublishFailure    CycleOutcome = "publish_failure"
)
