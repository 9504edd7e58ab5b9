// Package server implements the Model Context Protocol (MCP) server that
// exposes building reconstruction to AI assistants.
//
// # Protocol
//
// The server speaks JSON-RPC 2.0 over stdio, one message per line:
//
//	initialize                 handshake, reports name and version
//	notifications/initialized  acknowledged without a response
//	tools/list                 returns the tool definitions
//	tools/call                 runs a tool
//	ping                       liveness check
//
// Unknown methods return error -32601. A failing tool returns error -32000
// with the error text as data; malformed call parameters return -32602.
//
// # Tools
//
// Floor plans:
//
//	plan_load              dimensions, format and current scale of a drawing
//	plan_detect_edges      edge map (canny, sobel or hough) as base64 PNG
//	plan_detect_elements   wall, window and door candidates in pixels
//	plan_extract_features  walls, windows, doors, rooms and room connections
//	plan_render_overlay    extracted features drawn over the plan
//
// Scale:
//
//	plan_set_scale   calibrate from a reference length or two points
//	plan_auto_scale  calibrate from an OCR-read dimension label
//
// Elevations and buildings:
//
//	elevation_floor_levels  horizontal floor lines of an elevation
//	building_reconstruct    3D model from plans and elevations, optional .obj/.stl export
//
// Calibrations are keyed by the drawing's path. Once a plan has a scale,
// plan_extract_features and building_reconstruct report it in real units.
//
// # Example
//
//	{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"plan_set_scale",
//	  "arguments":{"path":"/plans/ground.png","pixel_length":412,"real_length":8.5,"unit":"meters"}}}
package server
