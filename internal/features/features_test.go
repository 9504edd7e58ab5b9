package features

import (
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/ironsheep/building-recon-mcp/internal/detection"
	"github.com/ironsheep/building-recon-mcp/internal/geometry"
	"github.com/ironsheep/building-recon-mcp/internal/units"
)

func whiteImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	return img
}

func blackRect(img draw.Image, r image.Rectangle) {
	draw.Draw(img, r, image.NewUniform(color.Black), image.Point{}, draw.Src)
}

// twoRoomWalls outlines (20,20)-(180,100) with a dividing wall at x=100.
func twoRoomWalls() []Wall {
	poly := func(pts ...geometry.Point2D) Wall {
		return Wall{Points: pts, Length: geometry.PolylineLength(pts)}
	}
	return []Wall{
		poly(geometry.Pt(20, 20), geometry.Pt(180, 20), geometry.Pt(180, 100), geometry.Pt(20, 100), geometry.Pt(20, 20)),
		poly(geometry.Pt(100, 20), geometry.Pt(100, 100)),
	}
}

func TestClassifyWindow(t *testing.T) {
	c := DefaultConfig()
	tests := []struct {
		name          string
		width, height float64
		want          WindowKind
	}{
		{"ratio exactly 2", 100, 50, WindowStandard},
		{"ratio just above 2", 200.1, 100, WindowHorizontal},
		{"ratio below 0.5", 10, 25, WindowVertical},
		{"ratio exactly 0.5", 50, 100, WindowStandard},
		{"area exactly 10000", 100, 100, WindowStandard},
		{"area above 10000", 101, 100, WindowPicture},
		{"small square", 30, 30, WindowStandard},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyWindow(tt.width, tt.height, c); got != tt.want {
				t.Errorf("ClassifyWindow(%v, %v) = %q, want %q", tt.width, tt.height, got, tt.want)
			}
		})
	}
}

func TestNewWindow(t *testing.T) {
	pts := []geometry.Point2D{geometry.Pt(0, 0), geometry.Pt(100, 0), geometry.Pt(100, 50), geometry.Pt(0, 50)}
	w, err := NewWindow(pts, 100, 50, DefaultConfig())
	if err != nil {
		t.Fatalf("NewWindow failed: %v", err)
	}
	want := Window{Points: pts, Width: 100, Height: 50, Area: 5000, AspectRatio: 2, Kind: WindowStandard}
	if diff := cmp.Diff(want, w); diff != "" {
		t.Errorf("window mismatch (-want +got):\n%s", diff)
	}

	if _, err := NewWindow(pts, 0, 50, DefaultConfig()); !errors.Is(err, geometry.ErrDegenerateGeometry) {
		t.Errorf("expected ErrDegenerateGeometry, got %v", err)
	}
}

func TestClassifyOrientation(t *testing.T) {
	tests := []struct {
		angle float64
		want  Orientation
	}{
		{0, Horizontal},
		{44.99, Horizontal},
		{45, Vertical},
		{90, Vertical},
		{134.99, Vertical},
		{135, Horizontal},
		{179.9, Horizontal},
		{math.NaN(), Diagonal},
	}
	for _, tt := range tests {
		if got := ClassifyOrientation(tt.angle); got != tt.want {
			t.Errorf("ClassifyOrientation(%v) = %q, want %q", tt.angle, got, tt.want)
		}
	}
}

func TestEstimateThickness(t *testing.T) {
	c := DefaultConfig()

	img := whiteImage(100, 100)
	blackRect(img, image.Rect(50, 0, 56, 100)) // 6 px vertical stroke
	g := image.NewGray(img.Bounds())
	draw.Draw(g, g.Bounds(), img, image.Point{}, draw.Src)

	if got := EstimateThickness(g, geometry.Seg(52, 10, 52, 90), c); got != 6 {
		t.Errorf("thickness = %v, want 6", got)
	}

	blank := image.NewGray(image.Rect(0, 0, 100, 100))
	draw.Draw(blank, blank.Bounds(), image.White, image.Point{}, draw.Src)
	if got := EstimateThickness(blank, geometry.Seg(10, 50, 90, 50), c); got != c.DefaultThickness {
		t.Errorf("thickness without ink = %v, want default %v", got, c.DefaultThickness)
	}

	// a segment running off the raster still yields a finite value >= 1
	for _, seg := range []geometry.LineSegment{
		geometry.Seg(-50, -50, 150, 150),
		geometry.Seg(0, 0, 0, 0),
		geometry.Seg(99, 0, 99, 99),
	} {
		got := EstimateThickness(g, seg, c)
		if got < 1 || math.IsInf(got, 0) || math.IsNaN(got) {
			t.Errorf("thickness for %+v = %v", seg, got)
		}
	}
}

func TestDoorConversion(t *testing.T) {
	e := NewFeatureExtractor(DefaultConfig(), nil)

	d, err := e.Door(&detection.DoorArc{Center: geometry.Pt(10, 10), Radius: 20})
	if err != nil {
		t.Fatalf("Door failed: %v", err)
	}
	swing, ok := d.(*SwingDoor)
	if !ok || swing.SwingAngle != 90 || swing.DoorType() != "swing" {
		t.Errorf("unexpected swing door %+v", d)
	}

	for _, tt := range []struct {
		length float64
		want   string
	}{{80, "standard"}, {81, "double"}, {35, "standard"}} {
		d, err := e.Door(&detection.DoorLine{
			Points: []geometry.Point2D{geometry.Pt(0, 0), geometry.Pt(tt.length, 0)},
			Length: tt.length,
		})
		if err != nil {
			t.Fatalf("Door failed: %v", err)
		}
		if d.DoorType() != tt.want {
			t.Errorf("line door of %v = %q, want %q", tt.length, d.DoorType(), tt.want)
		}
	}

	if _, err := e.Door(&detection.DoorArc{Radius: 0}); !errors.Is(err, geometry.ErrDegenerateGeometry) {
		t.Errorf("expected ErrDegenerateGeometry, got %v", err)
	}
}

func TestDoorsJSON(t *testing.T) {
	in := Doors{
		&SwingDoor{Center: geometry.Pt(5, 6), Radius: 20, SwingAngle: 90},
		&LineDoor{Points: []geometry.Point2D{geometry.Pt(0, 0), geometry.Pt(90, 0)}, Length: 90, Kind: DoorDouble},
		&LineDoor{Points: []geometry.Point2D{geometry.Pt(0, 0), geometry.Pt(40, 0)}, Length: 40, Kind: DoorStandard},
	}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var tags []struct {
		DoorType string `json:"door_type"`
	}
	if err := json.Unmarshal(data, &tags); err != nil {
		t.Fatalf("unmarshal tags failed: %v", err)
	}
	if tags[0].DoorType != "swing" || tags[1].DoorType != "double" || tags[2].DoorType != "standard" {
		t.Errorf("unexpected tags in %s", data)
	}

	var out Doors
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if diff := cmp.Diff(in, out); diff != "" {
		t.Errorf("doors mismatch (-want +got):\n%s", diff)
	}

	// minimal input shape accepted by reconstruction
	minimal := `[{"door_type":"swing","center":[1,2],"radius":3},{"door_type":"standard","points":[[0,0],[1,0]],"length":1}]`
	if err := json.Unmarshal([]byte(minimal), &out); err != nil {
		t.Fatalf("unmarshal minimal failed: %v", err)
	}
	if len(out) != 2 {
		t.Errorf("expected 2 doors, got %d", len(out))
	}

	if err := json.Unmarshal([]byte(`[{"door_type":"revolving"}]`), &out); err == nil {
		t.Error("expected an error for an unknown door type")
	}
}

func TestExtractRooms(t *testing.T) {
	e := NewFeatureExtractor(DefaultConfig(), nil)
	rooms, err := e.ExtractRooms(200, 120, twoRoomWalls())
	if err != nil {
		t.Fatalf("ExtractRooms failed: %v", err)
	}
	if len(rooms) != 2 {
		t.Fatalf("expected 2 rooms, got %d", len(rooms))
	}

	wantCentroids := []geometry.Point2D{geometry.Pt(60.5, 60.5), geometry.Pt(140.5, 60.5)}
	for i, r := range rooms {
		if r.Area <= 1000 {
			t.Errorf("room %d area %v not above the noise floor", i, r.Area)
		}
		if r.Centroid.Dist(wantCentroids[i]) > 3 {
			t.Errorf("room %d centroid = %v, want near %v", i, r.Centroid, wantCentroids[i])
		}
		if len(r.Points) < 4 {
			t.Errorf("room %d outline has %d points", i, len(r.Points))
		}
	}
	if rooms[0].Label == rooms[1].Label {
		t.Error("rooms share a label")
	}
}

func TestExtractRooms_NoEnclosure(t *testing.T) {
	e := NewFeatureExtractor(DefaultConfig(), nil)
	walls := []Wall{{Points: []geometry.Point2D{geometry.Pt(10, 60), geometry.Pt(190, 60)}, Length: 180}}
	rooms, err := e.ExtractRooms(200, 120, walls)
	if err != nil {
		t.Fatalf("ExtractRooms failed: %v", err)
	}
	if len(rooms) != 0 {
		t.Errorf("expected no enclosed rooms, got %d", len(rooms))
	}
}

func TestConnectRooms(t *testing.T) {
	rooms := []Room{
		{Label: 1, Centroid: geometry.Pt(0, 0)},
		{Label: 2, Centroid: geometry.Pt(100, 0)},
		{Label: 3, Centroid: geometry.Pt(500, 0)},
		{Label: 4, Centroid: geometry.Pt(500, 200)}, // exactly at the limit
	}
	got := ConnectRooms(rooms, 200)
	want := []RoomConnection{
		{Room1: 1, Room2: 2, Connected: true, Distance: 100, Midpoint: geometry.Pt(50, 0)},
	}
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("connections mismatch (-want +got):\n%s", diff)
	}

	if got := ConnectRooms(rooms[:1], 200); len(got) != 0 {
		t.Errorf("single room should have no connections, got %d", len(got))
	}
}

func TestDetectFloorLevels(t *testing.T) {
	img := whiteImage(300, 200)
	blackRect(img, image.Rect(20, 50, 280, 53))
	blackRect(img, image.Rect(20, 150, 280, 153))
	blackRect(img, image.Rect(140, 20, 143, 180)) // vertical, ignored

	e := NewFeatureExtractor(DefaultConfig(), nil)
	levels, err := e.DetectFloorLevels(img)
	if err != nil {
		t.Fatalf("DetectFloorLevels failed: %v", err)
	}
	if len(levels) < 2 {
		t.Fatalf("expected at least 2 floor levels, got %d", len(levels))
	}
	for i, l := range levels {
		if i > 0 && l.YPosition < levels[i-1].YPosition {
			t.Errorf("levels not sorted top to bottom at %d", i)
		}
		if l.Length < 100 {
			t.Errorf("level %d length %v", i, l.Length)
		}
		if math.Abs(l.Points[0].Y-l.Points[1].Y) > l.Length*math.Sin(10*math.Pi/180) {
			t.Errorf("level %d is not near horizontal: %v", i, l.Points)
		}
	}
	if levels[0].YPosition > 60 || levels[len(levels)-1].YPosition < 140 {
		t.Errorf("unexpected level positions: first %v last %v", levels[0].YPosition, levels[len(levels)-1].YPosition)
	}
}

func TestExtractFeatures(t *testing.T) {
	img := whiteImage(200, 120)
	for _, w := range twoRoomWalls() {
		for i := 1; i < len(w.Points); i++ {
			a, b := w.Points[i-1], w.Points[i]
			r := image.Rect(int(math.Min(a.X, b.X))-2, int(math.Min(a.Y, b.Y))-2, int(math.Max(a.X, b.X))+3, int(math.Max(a.Y, b.Y))+3)
			blackRect(img, r)
		}
	}

	els := &detection.Elements{
		Kind: detection.ElementAll,
		Walls: []detection.WallCandidate{
			{Points: []geometry.Point2D{geometry.Pt(20, 20), geometry.Pt(180, 20)}, Length: 160},
			{Points: []geometry.Point2D{geometry.Pt(180, 20), geometry.Pt(180, 100)}, Length: 80},
			{Points: []geometry.Point2D{geometry.Pt(20, 100), geometry.Pt(180, 100)}, Length: 160},
			{Points: []geometry.Point2D{geometry.Pt(20, 20), geometry.Pt(20, 100)}, Length: 80},
			{Points: []geometry.Point2D{geometry.Pt(100, 20), geometry.Pt(100, 100)}, Length: 80},
			{Points: []geometry.Point2D{geometry.Pt(5, 5), geometry.Pt(5, 5)}}, // degenerate
		},
		Windows: []detection.WindowCandidate{
			{Points: []geometry.Point2D{geometry.Pt(0, 0), geometry.Pt(40, 0), geometry.Pt(40, 30), geometry.Pt(0, 30)}, Width: 40, Height: 30},
		},
		Doors: detection.DoorCandidates{&detection.DoorArc{Center: geometry.Pt(60, 60), Radius: 15}},
	}

	fs, err := NewFeatureExtractor(DefaultConfig(), nil).ExtractFeatures(img, els)
	if err != nil {
		t.Fatalf("ExtractFeatures failed: %v", err)
	}
	if fs.Unit != units.Pixels {
		t.Errorf("unit = %q, want pixels", fs.Unit)
	}
	if len(fs.Walls) != 5 {
		t.Errorf("expected the degenerate wall to be skipped, got %d walls", len(fs.Walls))
	}
	for i, w := range fs.Walls {
		if w.Thickness < 1 || math.IsNaN(w.Thickness) {
			t.Errorf("wall %d thickness %v", i, w.Thickness)
		}
	}
	if fs.Walls[0].Orientation != Horizontal || fs.Walls[1].Orientation != Vertical {
		t.Errorf("unexpected orientations: %q %q", fs.Walls[0].Orientation, fs.Walls[1].Orientation)
	}
	if len(fs.Windows) != 1 || fs.Windows[0].Kind != WindowStandard {
		t.Errorf("unexpected windows: %+v", fs.Windows)
	}
	if len(fs.Doors) != 1 || fs.Doors[0].DoorType() != "swing" {
		t.Errorf("unexpected doors: %+v", fs.Doors)
	}
	if len(fs.Rooms) != 2 {
		t.Errorf("expected 2 rooms, got %d", len(fs.Rooms))
	}
}

func TestExtractFeatures_Empty(t *testing.T) {
	fs, err := NewFeatureExtractor(DefaultConfig(), nil).ExtractFeatures(whiteImage(50, 50), nil)
	if err != nil {
		t.Fatalf("ExtractFeatures failed: %v", err)
	}
	data, _ := json.Marshal(fs)
	want := `{"walls":[],"windows":[],"doors":[],"rooms":[],"unit":"pixels"}`
	if string(data) != want {
		t.Errorf("json = %s, want %s", data, want)
	}
}
