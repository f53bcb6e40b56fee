package domain

// CorpusEntry is one structured knowledge record, keyed by a stable
// identifier such as "section379". Loaded once at startup, read-only after.
type CorpusEntry struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Body     string `json:"body"`
	ActType  string `json:"act_type"`
	Citation string `json:"citation,omitempty"`
}

// CorpusStats summarizes the loaded knowledge corpus.
type CorpusStats struct {
	Entries int            `json:"entries"`
	ByAct   map[string]int `json:"by_act"`
}
