package source

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/blackwell-systems/promptlens/internal/prompt"
)

// ErrNoSelection is returned when no workspace was selected and the reader
// was not asked to load all of them.
var ErrNoSelection = errors.New("no workspaces selected")

// ErrNoMatch is returned when a selector matches no workspace.
var ErrNoMatch = errors.New("no workspace matches")

const (
	stateDBFile       = "state.vscdb"
	workspaceJSONFile = "workspace.json"
)

// Workspace is one directory under the editor's workspaceStorage.
type Workspace struct {
	// Index is the 1-based position in discovery order.
	Index int `json:"index"`

	// ID is the storage directory name, a hash chosen by the editor.
	ID string `json:"id"`

	// Name is the base name of the opened folder or workspace file. It is
	// empty when workspace.json is missing or unreadable.
	Name string `json:"name"`

	// Folder is the decoded path of the opened folder.
	Folder string `json:"folder,omitempty"`

	DBPath string `json:"db_path,omitempty"`
	HasDB  bool   `json:"has_db"`
}

// workspaceJSON mirrors workspace.json. Single-folder workspaces set Folder,
// multi-root workspaces set Workspace to the .code-workspace file.
type workspaceJSON struct {
	Folder    string `json:"folder"`
	Workspace string `json:"workspace"`
}

// cursorPrompt is one entry of the aiService.prompts array.
type cursorPrompt struct {
	Text        *string  `json:"text"`
	CommandType int      `json:"commandType"`
	Timestamp   flexTime `json:"timestamp"`
}

// Discover lists the workspaces under root, ordered by storage directory
// name so that indexes are stable between runs. A missing root yields no
// workspaces.
func Discover(root string) ([]Workspace, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var workspaces []Workspace
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(root, entry.Name())
		ws := Workspace{ID: entry.Name()}
		ws.Folder, ws.Name = readWorkspaceJSON(filepath.Join(dir, workspaceJSONFile))

		dbPath := filepath.Join(dir, stateDBFile)
		if info, err := os.Stat(dbPath); err == nil && !info.IsDir() {
			ws.DBPath = dbPath
			ws.HasDB = true
		}
		workspaces = append(workspaces, ws)
	}

	sort.Slice(workspaces, func(i, j int) bool {
		return workspaces[i].ID < workspaces[j].ID
	})
	for i := range workspaces {
		workspaces[i].Index = i + 1
	}
	return workspaces, nil
}

// readWorkspaceJSON returns the decoded folder path and display name. Any
// read or decode failure yields empty strings.
func readWorkspaceJSON(p string) (folder, name string) {
	data, err := os.ReadFile(p)
	if err != nil {
		return "", ""
	}
	var wj workspaceJSON
	if err := json.Unmarshal(data, &wj); err != nil {
		return "", ""
	}
	switch {
	case wj.Folder != "":
		folder = decodeURI(wj.Folder)
		return folder, baseName(folder)
	case wj.Workspace != "":
		folder = decodeURI(wj.Workspace)
		return folder, strings.TrimSuffix(baseName(folder), ".code-workspace")
	}
	return "", ""
}

// decodeURI turns a file:// or remote URI into a plain path. Strings that do
// not parse as URIs are returned unescaped as-is.
func decodeURI(uri string) string {
	u, err := url.Parse(uri)
	// One-letter schemes are Windows drive letters.
	if err != nil || len(u.Scheme) < 2 {
		if s, err := url.PathUnescape(uri); err == nil {
			return s
		}
		return uri
	}
	return u.Path
}

func baseName(p string) string {
	p = strings.TrimRight(p, "/\\")
	if p == "" {
		return ""
	}
	if i := strings.LastIndexAny(p, "/\\"); i >= 0 {
		return p[i+1:]
	}
	return p
}

// Select picks workspaces by selector. A selector that parses as an integer
// is a 1-based index; anything else matches names containing it,
// case-insensitively. The result follows discovery order without duplicates.
func Select(workspaces []Workspace, selectors []string) ([]Workspace, error) {
	picked := make(map[int]bool)
	for _, sel := range selectors {
		sel = strings.TrimSpace(sel)
		if sel == "" {
			continue
		}
		if n, err := strconv.Atoi(sel); err == nil {
			if n < 1 || n > len(workspaces) {
				return nil, fmt.Errorf("%w: index %d out of range 1-%d", ErrNoMatch, n, len(workspaces))
			}
			picked[n-1] = true
			continue
		}
		needle := strings.ToLower(sel)
		found := false
		for i, ws := range workspaces {
			if strings.Contains(strings.ToLower(ws.Name), needle) {
				picked[i] = true
				found = true
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: %q", ErrNoMatch, sel)
		}
	}

	var out []Workspace
	for i, ws := range workspaces {
		if picked[i] {
			out = append(out, ws)
		}
	}
	return out, nil
}

// Cursor reads prompts from the editor's workspaceStorage directory.
type Cursor struct {
	root      string
	selectors []string
	all       bool
	logger    zerolog.Logger
}

// NewCursor returns a reader rooted at the workspaceStorage directory root.
// With all set every workspace is loaded and selectors are ignored.
func NewCursor(root string, selectors []string, all bool, logger zerolog.Logger) *Cursor {
	return &Cursor{root: root, selectors: selectors, all: all, logger: logger}
}

// Load discovers and selects workspaces, then reads their prompts.
// Workspaces without a database, or whose database cannot be read, are
// logged and skipped.
func (c *Cursor) Load(ctx context.Context) ([]prompt.WorkspaceInput, error) {
	discovered, err := Discover(c.root)
	if err != nil {
		return nil, fmt.Errorf("discovering workspaces in %s: %w", c.root, err)
	}

	selected := discovered
	if !c.all {
		if len(c.selectors) == 0 {
			return nil, ErrNoSelection
		}
		if selected, err = Select(discovered, c.selectors); err != nil {
			return nil, err
		}
	}

	var inputs []prompt.WorkspaceInput
	for _, ws := range selected {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !ws.HasDB {
			c.logger.Info().Str("workspace", ws.ID).Msg("no state database, skipping")
			continue
		}
		records, err := readCursorPrompts(ctx, ws)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			c.logger.Warn().Err(err).Str("workspace", ws.ID).Str("path", ws.DBPath).Msg("unreadable state database, skipping")
			continue
		}
		c.logger.Debug().Str("workspace", ws.ID).Str("name", ws.Name).Int("records", len(records)).Msg("workspace loaded")
		inputs = append(inputs, prompt.WorkspaceInput{
			Name:    ws.Name,
			ID:      ws.ID,
			Records: records,
		})
	}
	return inputs, nil
}

func readCursorPrompts(ctx context.Context, ws Workspace) ([]prompt.RawRecord, error) {
	db, err := openStateDB(ws.DBPath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()

	value, err := db.item(ctx, promptsKey)
	if err != nil {
		return nil, err
	}
	if len(value) == 0 {
		return nil, nil
	}

	var entries []cursorPrompt
	if err := json.Unmarshal(value, &entries); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", promptsKey, err)
	}

	records := make([]prompt.RawRecord, 0, len(entries))
	for i, e := range entries {
		records = append(records, prompt.RawRecord{
			Text:        e.Text,
			Timestamp:   e.Timestamp.Time,
			WorkspaceID: ws.ID,
			Origin:      fmt.Sprintf("%s#%d", ws.DBPath, i),
		})
	}
	return records, nil
}
