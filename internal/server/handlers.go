package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ironsheep/building-recon-mcp/internal/detection"
	"github.com/ironsheep/building-recon-mcp/internal/features"
	"github.com/ironsheep/building-recon-mcp/internal/geometry"
	"github.com/ironsheep/building-recon-mcp/internal/imaging"
	"github.com/ironsheep/building-recon-mcp/internal/mesh"
	"github.com/ironsheep/building-recon-mcp/internal/pipeline"
	"github.com/ironsheep/building-recon-mcp/internal/reconstruct"
	"github.com/ironsheep/building-recon-mcp/internal/scale"
	"github.com/ironsheep/building-recon-mcp/internal/units"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "plan_load", "building_reconstruct").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	switch name {
	// Floor plan inspection
	case "plan_load":
		return s.handlePlanLoad(args)
	case "plan_detect_edges":
		return s.handlePlanDetectEdges(args)
	case "plan_detect_elements":
		return s.handlePlanDetectElements(args)
	case "plan_extract_features":
		return s.handlePlanExtractFeatures(args)

	// Scale
	case "plan_set_scale":
		return s.handlePlanSetScale(args)
	case "plan_auto_scale":
		return s.handlePlanAutoScale(args)

	// Visualization
	case "plan_render_overlay":
		return s.handlePlanRenderOverlay(args)

	// Elevations
	case "elevation_floor_levels":
		return s.handleElevationFloorLevels(args)

	// Reconstruction
	case "building_reconstruct":
		return s.handleBuildingReconstruct(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// requirePath rejects a missing path before any image work starts.
func requirePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("path is required")
	}
	return nil
}

// parseOutputUnit maps an optional output_unit argument. Empty keeps the
// configured unit.
func parseOutputUnit(s string) (units.Unit, error) {
	if s == "" {
		return "", nil
	}
	u, err := units.Parse(s)
	if err != nil {
		return "", err
	}
	if u == units.Pixels {
		return "", fmt.Errorf("%w: output unit must be a real unit (valid: %s)", units.ErrUnsupportedUnit, units.GetValidUnitsString())
	}
	return u, nil
}

// === Floor Plan Inspection Handlers ===

type planLoadArgs struct {
	Path string `json:"path"`
}

type planLoadResult struct {
	imaging.ImageInfo
	ImageID string             `json:"image_id"`
	Scale   *scale.Calibration `json:"scale,omitempty"`
}

func (s *Server) handlePlanLoad(args json.RawMessage) (interface{}, error) {
	var a planLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := requirePath(a.Path); err != nil {
		return nil, err
	}
	info, err := imaging.LoadImageInfo(s.pipeline.Cache(), a.Path)
	if err != nil {
		return nil, err
	}
	res := &planLoadResult{ImageInfo: *info, ImageID: a.Path}
	if c, err := s.pipeline.Scales().Get(a.Path); err == nil {
		res.Scale = c
	}
	return res, nil
}

type planDetectEdgesArgs struct {
	Path         string `json:"path"`
	Method       string `json:"method"`
	IncludeImage *bool  `json:"include_image"`
}

type planDetectEdgesResult struct {
	Method     detection.Method       `json:"method"`
	EdgePixels int                    `json:"edge_pixels"`
	Lines      []geometry.LineSegment `json:"lines,omitempty"`
	Image      *imaging.RasterResult  `json:"image,omitempty"`
}

func (s *Server) handlePlanDetectEdges(args json.RawMessage) (interface{}, error) {
	var a planDetectEdgesArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := requirePath(a.Path); err != nil {
		return nil, err
	}
	if a.Method == "" {
		a.Method = string(detection.MethodCanny)
	}
	method, err := detection.ParseMethod(a.Method)
	if err != nil {
		return nil, err
	}
	img, err := s.pipeline.Cache().Load(a.Path)
	if err != nil {
		return nil, err
	}

	edges, err := s.pipeline.Detector().DetectEdges(img, method)
	if err != nil {
		return nil, err
	}
	res := &planDetectEdgesResult{
		Method:     edges.Method,
		EdgePixels: imaging.CountNonZero(edges.Edges),
		Lines:      edges.Lines,
	}
	if a.IncludeImage == nil || *a.IncludeImage {
		if res.Image, err = imaging.Encode(edges.Edges); err != nil {
			return nil, err
		}
	}
	return res, nil
}

type planDetectElementsArgs struct {
	Path        string `json:"path"`
	ElementType string `json:"element_type"`
}

func (s *Server) handlePlanDetectElements(args json.RawMessage) (interface{}, error) {
	var a planDetectElementsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := requirePath(a.Path); err != nil {
		return nil, err
	}
	kind, err := detection.ParseElementKind(a.ElementType)
	if err != nil {
		return nil, err
	}
	img, err := s.pipeline.Cache().Load(a.Path)
	if err != nil {
		return nil, err
	}
	return s.pipeline.Detector().DetectArchitecturalElements(img, kind)
}

type planExtractFeaturesArgs struct {
	Path       string `json:"path"`
	Level      int    `json:"level"`
	OutputUnit string `json:"output_unit"`
}

func (s *Server) handlePlanExtractFeatures(args json.RawMessage) (interface{}, error) {
	var a planExtractFeaturesArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := requirePath(a.Path); err != nil {
		return nil, err
	}
	out, err := parseOutputUnit(a.OutputUnit)
	if err != nil {
		return nil, err
	}
	return s.pipeline.ProcessFloorPlan(pipeline.PlanRequest{
		Source:     pipeline.Source{Path: a.Path},
		Level:      a.Level,
		OutputUnit: out,
	})
}

// === Scale Handlers ===

type planSetScaleArgs struct {
	Path        string            `json:"path"`
	PixelLength float64           `json:"pixel_length"`
	P1          *geometry.Point2D `json:"p1"`
	P2          *geometry.Point2D `json:"p2"`
	RealLength  float64           `json:"real_length"`
	Unit        string            `json:"unit"`
}

func (s *Server) handlePlanSetScale(args json.RawMessage) (interface{}, error) {
	var a planSetScaleArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := requirePath(a.Path); err != nil {
		return nil, err
	}
	unit, err := units.Parse(a.Unit)
	if err != nil {
		return nil, err
	}

	var c *scale.Calibration
	switch {
	case a.P1 != nil && a.P2 != nil:
		c, err = scale.NewCalibrationFromPoints(a.Path, *a.P1, *a.P2, a.RealLength, unit)
	case a.P1 != nil || a.P2 != nil:
		return nil, errors.New("both p1 and p2 are required for a point reference")
	default:
		c, err = scale.NewCalibration(a.Path, a.PixelLength, a.RealLength, unit)
	}
	if err != nil {
		return nil, err
	}
	if err := s.pipeline.Scales().Set(c); err != nil {
		return nil, err
	}
	return c, nil
}

type planAutoScaleArgs struct {
	Path string `json:"path"`
}

type planAutoScaleResult struct {
	Scale     *scale.Calibration   `json:"scale"`
	Reference *pipeline.Reference  `json:"reference"`
	Wall      geometry.LineSegment `json:"wall"`
}

func (s *Server) handlePlanAutoScale(args json.RawMessage) (interface{}, error) {
	var a planAutoScaleArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := requirePath(a.Path); err != nil {
		return nil, err
	}
	c, ref, err := s.pipeline.AutoCalibrate(pipeline.Source{Path: a.Path})
	if err != nil {
		return nil, err
	}
	return &planAutoScaleResult{Scale: c, Reference: ref, Wall: ref.Wall}, nil
}

// === Visualization Handlers ===

type planRenderOverlayArgs struct {
	Path        string   `json:"path"`
	Layers      []string `json:"layers"`
	Thickness   int      `json:"thickness"`
	GridSpacing int      `json:"grid_spacing"`
}

var overlayLayers = []string{"walls", "windows", "doors", "rooms"}

func (s *Server) handlePlanRenderOverlay(args json.RawMessage) (interface{}, error) {
	var a planRenderOverlayArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := requirePath(a.Path); err != nil {
		return nil, err
	}
	if len(a.Layers) == 0 {
		a.Layers = overlayLayers
	}
	for _, name := range a.Layers {
		if !contains(overlayLayers, name) {
			return nil, fmt.Errorf("unknown layer %q (valid: %s)", name, strings.Join(overlayLayers, ", "))
		}
	}
	if a.GridSpacing < 0 {
		return nil, fmt.Errorf("grid_spacing must be non-negative, got %d", a.GridSpacing)
	}

	img, err := s.pipeline.Cache().Load(a.Path)
	if err != nil {
		return nil, err
	}
	// overlays are drawn in pixels, so calibration is not applied here
	els, err := s.pipeline.Detector().DetectArchitecturalElements(img, detection.ElementAll)
	if err != nil {
		return nil, err
	}
	fs, err := s.pipeline.Extractor().ExtractFeatures(img, els)
	if err != nil {
		return nil, err
	}

	layers := make([]imaging.Layer, 0, len(a.Layers))
	for _, name := range a.Layers {
		layers = append(layers, featureLayer(name, fs))
	}
	return imaging.RenderOverlay(img, layers, imaging.OverlayOptions{
		Thickness:   a.Thickness,
		GridSpacing: a.GridSpacing,
	})
}

// featureLayer turns one kind of feature into overlay primitives.
func featureLayer(name string, fs *features.FeatureSet) imaging.Layer {
	layer := imaging.Layer{Name: name}
	switch name {
	case "walls":
		for _, w := range fs.Walls {
			for i := 1; i < len(w.Points); i++ {
				layer.Segments = append(layer.Segments, geometry.LineSegment{A: w.Points[i-1], B: w.Points[i]})
			}
		}
	case "windows":
		for _, w := range fs.Windows {
			layer.Polygons = append(layer.Polygons, w.Points)
		}
	case "doors":
		for _, d := range fs.Doors {
			switch d := d.(type) {
			case *features.SwingDoor:
				layer.Circles = append(layer.Circles, imaging.Circle{Center: d.Center, Radius: d.Radius})
			case *features.LineDoor:
				if len(d.Points) >= 2 {
					layer.Segments = append(layer.Segments, geometry.LineSegment{A: d.Points[0], B: d.Points[len(d.Points)-1]})
				}
			}
		}
	case "rooms":
		for _, r := range fs.Rooms {
			layer.Polygons = append(layer.Polygons, r.Points)
			layer.Labels = append(layer.Labels, imaging.Label{At: r.Centroid, Text: "#" + strconv.Itoa(r.Label)})
		}
	}
	return layer
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// === Elevation Handlers ===

type elevationFloorLevelsArgs struct {
	Path        string `json:"path"`
	Orientation string `json:"orientation"`
	OutputUnit  string `json:"output_unit"`
}

func (s *Server) handleElevationFloorLevels(args json.RawMessage) (interface{}, error) {
	var a elevationFloorLevelsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := requirePath(a.Path); err != nil {
		return nil, err
	}
	out, err := parseOutputUnit(a.OutputUnit)
	if err != nil {
		return nil, err
	}
	return s.pipeline.ProcessElevation(pipeline.ElevationRequest{
		Source:      pipeline.Source{Path: a.Path},
		Orientation: a.Orientation,
		OutputUnit:  out,
	})
}

// === Reconstruction Handlers ===

type buildingReconstructArgs struct {
	FloorPlans []struct {
		Path  string `json:"path"`
		Level *int   `json:"level"`
	} `json:"floor_plans"`
	Elevations []struct {
		Path        string `json:"path"`
		Orientation string `json:"orientation"`
	} `json:"elevations"`
	OutputPath string `json:"output_path"`
	OutputUnit string `json:"output_unit"`
}

type meshSummary struct {
	VertexCount   int        `json:"vertex_count"`
	TriangleCount int        `json:"triangle_count"`
	Min           [3]float64 `json:"min"`
	Max           [3]float64 `json:"max"`
}

type buildingReconstructResult struct {
	Model      *reconstruct.BuildingModel `json:"model"`
	Mesh       meshSummary                `json:"mesh"`
	OutputPath string                     `json:"output_path,omitempty"`
}

func (s *Server) handleBuildingReconstruct(args json.RawMessage) (interface{}, error) {
	var a buildingReconstructArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.OutputPath != "" {
		ext := strings.ToLower(filepath.Ext(a.OutputPath))
		if ext != ".obj" && ext != ".stl" {
			return nil, fmt.Errorf("%w: %q (use .obj or .stl)", mesh.ErrUnsupportedFormat, ext)
		}
	}
	out, err := parseOutputUnit(a.OutputUnit)
	if err != nil {
		return nil, err
	}

	plans := make([]pipeline.PlanRequest, len(a.FloorPlans))
	for i, fp := range a.FloorPlans {
		if err := requirePath(fp.Path); err != nil {
			return nil, fmt.Errorf("floor plan %d: %w", i, err)
		}
		level := i
		if fp.Level != nil {
			level = *fp.Level
		}
		plans[i] = pipeline.PlanRequest{Source: pipeline.Source{Path: fp.Path}, Level: level, OutputUnit: out}
	}
	elevations := make([]pipeline.ElevationRequest, len(a.Elevations))
	for i, el := range a.Elevations {
		if err := requirePath(el.Path); err != nil {
			return nil, fmt.Errorf("elevation %d: %w", i, err)
		}
		elevations[i] = pipeline.ElevationRequest{Source: pipeline.Source{Path: el.Path}, Orientation: el.Orientation, OutputUnit: out}
	}

	res, err := s.pipeline.ProcessBuilding(context.Background(), plans, elevations)
	if err != nil {
		return nil, err
	}

	summary := meshSummary{
		VertexCount:   res.Mesh.VertexCount(),
		TriangleCount: res.Mesh.TriangleCount(),
	}
	if !res.Mesh.IsEmpty() {
		lo, hi := res.Mesh.Bounds()
		summary.Min = [3]float64{lo.X, lo.Y, lo.Z}
		summary.Max = [3]float64{hi.X, hi.Y, hi.Z}
	}
	if a.OutputPath != "" {
		if err := mesh.SaveFile(a.OutputPath, res.Mesh); err != nil {
			return nil, err
		}
	}
	return &buildingReconstructResult{Model: res.Model, Mesh: summary, OutputPath: a.OutputPath}, nil
}
