package models

// Note model names for the three card types.
const (
	ModelSentenceCard = "ChinoSRS_SentenceCard"
	ModelPatternCard  = "ChinoSRS_PatternCard"
	ModelAudioCard    = "ChinoSRS_AudioCard"
)

// Note is one AnkiConnect note, shaped for the addNotes action.
type Note struct {
	DeckName  string            `json:"deckName"`
	ModelName string            `json:"modelName"`
	Fields    map[string]string `json:"fields"`
	Options   NoteOptions       `json:"options"`
	Tags      []string          `json:"tags"`
	Audio     []NoteAudio       `json:"audio,omitempty"`
}

// NoteOptions controls AnkiConnect's duplicate handling.
type NoteOptions struct {
	AllowDuplicate bool `json:"allowDuplicate"`
}

// NoteAudio attaches a media file to note fields.
type NoteAudio struct {
	Path     string   `json:"path"`
	Filename string   `json:"filename"`
	Fields   []string `json:"fields"`
}

// DumpedNote is the compact export shape produced by the deck dump.
type DumpedNote struct {
	NoteID    int64             `json:"noteId"`
	ModelName string            `json:"modelName"`
	Fields    map[string]string `json:"fields"`
	Tags      []string          `json:"tags"`
}
