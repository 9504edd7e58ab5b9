package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty(what string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the " + what + " image file",
	}
}

var outputUnitProperty = map[string]interface{}{
	"type":        "string",
	"description": "Unit for calibrated results. Defaults to the server's configured unit.",
	"enum":        []string{"meters", "feet", "inches", "cm"},
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Floor plan inspection
		{
			Name:        "plan_load",
			Description: "Load a floor plan or elevation drawing and return its dimensions, format and any scale already set for it.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("drawing"),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "plan_detect_edges",
			Description: "Binarize a drawing and run an edge detector. Returns the edge map as base64 PNG and, for the hough method, the detected line segments in pixels.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("drawing"),
					"method": map[string]interface{}{
						"type":        "string",
						"description": "Edge detection method. Default canny",
						"enum":        []string{"canny", "sobel", "hough"},
						"default":     "canny",
					},
					"include_image": map[string]interface{}{
						"type":        "boolean",
						"description": "Return the edge map as base64 PNG. Default true",
						"default":     true,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "plan_detect_elements",
			Description: "Find wall, window and door candidates on a floor plan. Coordinates are in pixels.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("floor plan"),
					"element_type": map[string]interface{}{
						"type":        "string",
						"description": "Which elements to detect. Default all",
						"enum":        []string{"all", "walls", "windows", "doors"},
						"default":     "all",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "plan_extract_features",
			Description: "Classify the elements of a floor plan into walls, windows, doors and rooms, and link neighbouring rooms. Results are in real units when a scale is set for the plan, otherwise in pixels.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("floor plan"),
					"level": map[string]interface{}{
						"type":        "integer",
						"description": "Floor index of this plan, 0 for the ground floor. Default 0",
						"default":     0,
					},
					"output_unit": outputUnitProperty,
				},
				"required": []string{"path"},
			},
		},

		// Scale
		{
			Name:        "plan_set_scale",
			Description: "Set the scale of a drawing from a reference of known length: either pixel_length, or two points p1 and p2 on the drawing, measuring real_length in unit.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("drawing"),
					"pixel_length": map[string]interface{}{
						"type":        "number",
						"description": "Length of the reference in pixels",
					},
					"p1": map[string]interface{}{
						"type":        "array",
						"description": "First reference point [x, y] in pixels",
						"items":       map[string]interface{}{"type": "number"},
					},
					"p2": map[string]interface{}{
						"type":        "array",
						"description": "Second reference point [x, y] in pixels",
						"items":       map[string]interface{}{"type": "number"},
					},
					"real_length": map[string]interface{}{
						"type":        "number",
						"description": "Real length of the reference",
					},
					"unit": map[string]interface{}{
						"type":        "string",
						"description": "Unit of real_length",
						"enum":        []string{"meters", "feet", "inches", "cm"},
					},
				},
				"required": []string{"path", "real_length", "unit"},
			},
		},
		{
			Name:        "plan_auto_scale",
			Description: "Read dimension labels on a floor plan with OCR, pair the most confident label with the wall next to it and set the plan's scale from that pair.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("floor plan"),
				},
				"required": []string{"path"},
			},
		},

		// Visualization
		{
			Name:        "plan_render_overlay",
			Description: "Draw the extracted walls, windows, doors and rooms over a washed-out copy of the floor plan and return it as base64 PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("floor plan"),
					"layers": map[string]interface{}{
						"type":        "array",
						"description": "Layers to draw. Default all",
						"items": map[string]interface{}{
							"type": "string",
							"enum": []string{"walls", "windows", "doors", "rooms"},
						},
					},
					"thickness": map[string]interface{}{
						"type":        "integer",
						"description": "Stroke width in pixels. Default 2",
						"default":     2,
					},
					"grid_spacing": map[string]interface{}{
						"type":        "integer",
						"description": "Draw a coordinate grid every N pixels. 0 disables. Default 0",
						"default":     0,
					},
				},
				"required": []string{"path"},
			},
		},

		// Elevations
		{
			Name:        "elevation_floor_levels",
			Description: "Find the horizontal floor lines on an elevation drawing. Positions are in real units when a scale is set for the drawing.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("elevation"),
					"orientation": map[string]interface{}{
						"type":        "string",
						"description": "Which face of the building the elevation shows, e.g. north",
					},
					"output_unit": outputUnitProperty,
				},
				"required": []string{"path"},
			},
		},

		// Reconstruction
		{
			Name:        "building_reconstruct",
			Description: "Reconstruct a 3D building model from floor plans and elevations. Returns the model and mesh statistics, and writes the mesh when output_path ends in .obj or .stl.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"floor_plans": map[string]interface{}{
						"type":        "array",
						"description": "Floor plans, one per level",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"path":  map[string]interface{}{"type": "string"},
								"level": map[string]interface{}{"type": "integer"},
							},
							"required": []string{"path"},
						},
					},
					"elevations": map[string]interface{}{
						"type":        "array",
						"description": "Elevation drawings",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"path":        map[string]interface{}{"type": "string"},
								"orientation": map[string]interface{}{"type": "string"},
							},
							"required": []string{"path"},
						},
					},
					"output_path": map[string]interface{}{
						"type":        "string",
						"description": "Optional .obj or .stl file to write the mesh to",
					},
					"output_unit": outputUnitProperty,
				},
				"required": []string{"floor_plans", "elevations"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
