package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"chinosrs/internal/config"
	internalhttp "chinosrs/internal/http"
	"chinosrs/internal/logger"
	"chinosrs/models"
)

var ankiClient = internalhttp.AnkiClient

// AnkiService talks to a running Anki instance through the AnkiConnect
// add-on (protocol version 6).
type AnkiService struct {
	url string
}

func NewAnkiService(url string) *AnkiService {
	if url == "" {
		url = config.AnkiConnectURL
	}
	return &AnkiService{url: url}
}

type ankiRequest struct {
	Action  string      `json:"action"`
	Version int         `json:"version"`
	Params  interface{} `json:"params,omitempty"`
}

type ankiResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *string         `json:"error"`
}

// Invoke performs one AnkiConnect action and unmarshals the result into out
// (out may be nil when the result does not matter).
func (s *AnkiService) Invoke(ctx context.Context, action string, params, out interface{}) error {
	body, err := json.Marshal(ankiRequest{
		Action:  action,
		Version: config.AnkiConnectVersion,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("marshaling %s request: %w", action, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating %s request: %w", action, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := ankiClient.Do(req)
	if err != nil {
		return fmt.Errorf("AnkiConnect unreachable at %s (is Anki running?): %w", s.url, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading %s response: %w", action, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("AnkiConnect %s error (status %d): %s", action, resp.StatusCode, string(respBody))
	}

	var parsed ankiResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return fmt.Errorf("decoding %s response: %w", action, err)
	}
	if parsed.Error != nil && *parsed.Error != "" {
		return fmt.Errorf("AnkiConnect %s: %s", action, *parsed.Error)
	}
	if out != nil && len(parsed.Result) > 0 {
		if err := json.Unmarshal(parsed.Result, out); err != nil {
			return fmt.Errorf("decoding %s result: %w", action, err)
		}
	}
	return nil
}

// Version checks connectivity and returns the AnkiConnect protocol version.
func (s *AnkiService) Version(ctx context.Context) (int, error) {
	var v int
	if err := s.Invoke(ctx, "version", nil, &v); err != nil {
		return 0, err
	}
	return v, nil
}

// EnsureDeck creates the deck if it does not exist. createDeck is a no-op on
// existing decks.
func (s *AnkiService) EnsureDeck(ctx context.Context, name string) error {
	return s.Invoke(ctx, "createDeck", map[string]string{"deck": name}, nil)
}

// ModelNames lists the note types known to Anki.
func (s *AnkiService) ModelNames(ctx context.Context) ([]string, error) {
	var names []string
	if err := s.Invoke(ctx, "modelNames", nil, &names); err != nil {
		return nil, err
	}
	return names, nil
}

// ModelExists reports whether a note type is already defined.
func (s *AnkiService) ModelExists(ctx context.Context, name string) (bool, error) {
	names, err := s.ModelNames(ctx)
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

// CardTemplate is one card of a note type.
type CardTemplate struct {
	Name  string `json:"Name"`
	Front string `json:"Front"`
	Back  string `json:"Back"`
}

// CreateModel defines a new note type.
func (s *AnkiService) CreateModel(ctx context.Context, name string, fields []string, css string, cards []CardTemplate) error {
	params := map[string]interface{}{
		"modelName":     name,
		"inOrderFields": fields,
		"css":           css,
		"cardTemplates": cards,
	}
	return s.Invoke(ctx, "createModel", params, nil)
}

// DeleteModel removes a note type and every note using it.
func (s *AnkiService) DeleteModel(ctx context.Context, name string) error {
	return s.Invoke(ctx, "deleteModel", map[string]string{"modelName": name}, nil)
}

// AddNotes uploads a batch of notes and returns how many were actually
// added. AnkiConnect returns null IDs for duplicates, which is not an error.
func (s *AnkiService) AddNotes(ctx context.Context, notes []*models.Note) (added, skipped int, err error) {
	var ids []*int64
	params := map[string]interface{}{"notes": notes}
	if err := s.Invoke(ctx, "addNotes", params, &ids); err != nil {
		return 0, 0, err
	}
	for _, id := range ids {
		if id == nil {
			skipped++
		} else {
			added++
		}
	}
	return added, skipped, nil
}

// FindNotes returns the note IDs in a deck.
func (s *AnkiService) FindNotes(ctx context.Context, deck string) ([]int64, error) {
	var ids []int64
	params := map[string]string{"query": fmt.Sprintf("deck:%q", deck)}
	if err := s.Invoke(ctx, "findNotes", params, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// notesInfoResult mirrors the notesInfo response shape.
type notesInfoResult struct {
	NoteID    int64    `json:"noteId"`
	ModelName string   `json:"modelName"`
	Tags      []string `json:"tags"`
	Fields    map[string]struct {
		Value string `json:"value"`
		Order int    `json:"order"`
	} `json:"fields"`
}

// NotesInfo fetches note details in chunks to keep request sizes sane.
func (s *AnkiService) NotesInfo(ctx context.Context, ids []int64) ([]models.DumpedNote, error) {
	var out []models.DumpedNote
	for start := 0; start < len(ids); start += config.NotesInfoChunkSize {
		end := start + config.NotesInfoChunkSize
		if end > len(ids) {
			end = len(ids)
		}
		var chunk []notesInfoResult
		params := map[string]interface{}{"notes": ids[start:end]}
		if err := s.Invoke(ctx, "notesInfo", params, &chunk); err != nil {
			return nil, err
		}
		for _, n := range chunk {
			fields := make(map[string]string, len(n.Fields))
			for name, f := range n.Fields {
				fields[name] = f.Value
			}
			out = append(out, models.DumpedNote{
				NoteID:    n.NoteID,
				ModelName: n.ModelName,
				Fields:    fields,
				Tags:      n.Tags,
			})
		}
		logger.Debug("fetched notes %d-%d of %d", start, end, len(ids))
	}
	return out, nil
}

// DumpDeck exports every note in a deck.
func (s *AnkiService) DumpDeck(ctx context.Context, deck string) ([]models.DumpedNote, error) {
	ids, err := s.FindNotes(ctx, deck)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	logger.Info("dumping %d notes from deck %q", len(ids), deck)
	return s.NotesInfo(ctx, ids)
}
