// Package client is a small Go client for the molscene-server HTTP API,
// covering the scene operation set: loading structures, per-structure
// settings, selection, measurements, labels, layout and undo/redo.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/molscene/molscene/internal/scene"
)

// Client talks to one molscene-server instance.
type Client struct {
	baseURL string
	sceneID string
	http    *http.Client
}

// New creates a client bound to one scene of one server.
func New(baseURL, sceneID string) *Client {
	return &Client{
		baseURL: baseURL,
		sceneID: sceneID,
		http:    &http.Client{},
	}
}

func (c *Client) sceneURL(rest string) string {
	return fmt.Sprintf("%s/scene/%s%s", c.baseURL, c.sceneID, rest)
}

func (c *Client) do(ctx context.Context, method, url string, body, out any) error {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// LoadResult is the server's response to a structure load.
type LoadResult struct {
	ID    scene.StructureID `json:"id"`
	Count int               `json:"count"`
}

// LoadStructure loads a molecule into the scene.
func (c *Client) LoadStructure(ctx context.Context, mol *scene.Molecule, mode scene.LoadMode) (LoadResult, error) {
	var out LoadResult
	url := c.sceneURL("/structures") + "?mode=" + string(mode)
	err := c.do(ctx, http.MethodPost, url, mol, &out)
	return out, err
}

// Structures lists all structures in the scene.
func (c *Client) Structures(ctx context.Context) ([]*scene.Structure, error) {
	var out []*scene.Structure
	err := c.do(ctx, http.MethodGet, c.sceneURL("/structures"), nil, &out)
	return out, err
}

// RemoveStructure deletes one structure.
func (c *Client) RemoveStructure(ctx context.Context, id scene.StructureID) error {
	return c.do(ctx, http.MethodDelete, c.sceneURL("/structures/"+string(id)), nil, nil)
}

// SetRepresentation changes one structure's representation.
func (c *Client) SetRepresentation(ctx context.Context, id scene.StructureID, rep scene.Representation) error {
	body := map[string]scene.Representation{"representation": rep}
	return c.do(ctx, http.MethodPut, c.sceneURL("/structures/"+string(id)+"/representation"), body, nil)
}

// SetColorScheme changes one structure's color scheme.
func (c *Client) SetColorScheme(ctx context.Context, id scene.StructureID, cs scene.ColorScheme) error {
	body := map[string]scene.ColorScheme{"color_scheme": cs}
	return c.do(ctx, http.MethodPut, c.sceneURL("/structures/"+string(id)+"/colorscheme"), body, nil)
}

// SetVisibility toggles one structure's visibility.
func (c *Client) SetVisibility(ctx context.Context, id scene.StructureID, visible bool) error {
	body := map[string]bool{"visible": visible}
	return c.do(ctx, http.MethodPut, c.sceneURL("/structures/"+string(id)+"/visibility"), body, nil)
}

// SetActive makes one structure the active one.
func (c *Client) SetActive(ctx context.Context, id scene.StructureID) error {
	return c.do(ctx, http.MethodPut, c.sceneURL("/structures/"+string(id)+"/active"), nil, nil)
}

// SetLayoutMode switches between overlay and side-by-side layout.
func (c *Client) SetLayoutMode(ctx context.Context, mode scene.LayoutMode) error {
	body := map[string]scene.LayoutMode{"mode": mode}
	return c.do(ctx, http.MethodPut, c.sceneURL("/layout"), body, nil)
}

// SelectAtom picks a single atom.
func (c *Client) SelectAtom(ctx context.Context, id scene.StructureID, atomIndex int) ([]scene.AtomRef, error) {
	body := map[string]any{"structure_id": id, "atom_index": atomIndex}
	var out []scene.AtomRef
	err := c.do(ctx, http.MethodPost, c.sceneURL("/selection"), body, &out)
	return out, err
}

// AtomFilter mirrors the server's declarative bulk-selection filter.
type AtomFilter struct {
	Element string `json:"element,omitempty"`
	Chain   string `json:"chain,omitempty"`
	Residue string `json:"residue,omitempty"`
}

// SelectByFilter replaces the selection with every matching atom of one
// structure, as a single operation.
func (c *Client) SelectByFilter(ctx context.Context, id scene.StructureID, filter AtomFilter) ([]scene.AtomRef, error) {
	body := map[string]any{"structure_id": id, "filter": filter}
	var out []scene.AtomRef
	err := c.do(ctx, http.MethodPost, c.sceneURL("/selection"), body, &out)
	return out, err
}

// ClearSelection empties the selection.
func (c *Client) ClearSelection(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, c.sceneURL("/selection"), nil, nil)
}

// SetMeasurementMode enters (or with "" leaves) a measurement mode.
func (c *Client) SetMeasurementMode(ctx context.Context, kind scene.MeasureKind) error {
	body := map[string]scene.MeasureKind{"kind": kind}
	return c.do(ctx, http.MethodPut, c.sceneURL("/measurements/mode"), body, nil)
}

// Measurements lists committed measurements.
func (c *Client) Measurements(ctx context.Context) ([]scene.Measurement, error) {
	var out []scene.Measurement
	err := c.do(ctx, http.MethodGet, c.sceneURL("/measurements"), nil, &out)
	return out, err
}

// AddLabel pins a text label to an atom and returns the label id.
func (c *Client) AddLabel(ctx context.Context, id scene.StructureID, atomIndex int, text string) (string, error) {
	body := map[string]any{"structure_id": id, "atom_index": atomIndex, "text": text}
	var out struct {
		ID string `json:"id"`
	}
	err := c.do(ctx, http.MethodPost, c.sceneURL("/labels"), body, &out)
	return out.ID, err
}

// HistoryStatus reports undo/redo availability and stack depths.
type HistoryStatus struct {
	CanUndo bool `json:"can_undo"`
	CanRedo bool `json:"can_redo"`
	Past    int  `json:"past"`
	Future  int  `json:"future"`
}

// Undo steps the scene's history back one entry.
func (c *Client) Undo(ctx context.Context) (HistoryStatus, error) {
	var out HistoryStatus
	err := c.do(ctx, http.MethodPost, c.sceneURL("/undo"), nil, &out)
	return out, err
}

// Redo steps the scene's history forward one entry.
func (c *Client) Redo(ctx context.Context) (HistoryStatus, error) {
	var out HistoryStatus
	err := c.do(ctx, http.MethodPost, c.sceneURL("/redo"), nil, &out)
	return out, err
}

// History reports the current undo/redo status without changing anything.
func (c *Client) History(ctx context.Context) (HistoryStatus, error) {
	var out HistoryStatus
	err := c.do(ctx, http.MethodGet, c.sceneURL("/history"), nil, &out)
	return out, err
}

// RenderPayload is the renderer-facing view of a scene.
type RenderPayload struct {
	Structures       []*scene.StructureRenderData `json:"structures"`
	BoundingBox      *scene.BoundingBox           `json:"bounding_box,omitempty"`
	VisibleAtomCount int                          `json:"visible_atom_count"`
	Active           scene.StructureID            `json:"active"`
	SelectedAtoms    []int                        `json:"selected_atoms"`
	LayoutMode       scene.LayoutMode             `json:"layout_mode"`
}

// Render fetches the full renderer payload.
func (c *Client) Render(ctx context.Context) (RenderPayload, error) {
	var out RenderPayload
	err := c.do(ctx, http.MethodGet, c.sceneURL("/render"), nil, &out)
	return out, err
}
