package features

import (
	"sort"

	"github.com/dhconnelly/rtreego"

	"github.com/ironsheep/building-recon-mcp/internal/geometry"
)

// roomEntry indexes a room centroid in the R-tree.
type roomEntry struct {
	index int
	rect  rtreego.Rect
}

func (r *roomEntry) Bounds() rtreego.Rect {
	return r.rect
}

// ConnectRooms links every pair of rooms whose centroids are closer than
// maxDistance. Candidates come from an R-tree window query around each
// centroid; the exact distance decides. Pairs are ordered by the index of
// the first room, then the second. A room's Label is used as its id.
func ConnectRooms(rooms []Room, maxDistance float64) []RoomConnection {
	connections := make([]RoomConnection, 0)
	if len(rooms) < 2 || maxDistance <= 0 {
		return connections
	}

	tree := rtreego.NewTree(2, 2, 8)
	for i, r := range rooms {
		tree.Insert(&roomEntry{
			index: i,
			rect:  rtreego.Point{r.Centroid.X, r.Centroid.Y}.ToRect(0.5),
		})
	}

	for i, r := range rooms {
		query, err := rtreego.NewRect(
			rtreego.Point{r.Centroid.X - maxDistance, r.Centroid.Y - maxDistance},
			[]float64{2 * maxDistance, 2 * maxDistance},
		)
		if err != nil {
			continue
		}
		hits := tree.SearchIntersect(query)
		others := make([]int, 0, len(hits))
		for _, h := range hits {
			if j := h.(*roomEntry).index; j > i {
				others = append(others, j)
			}
		}
		sort.Ints(others)

		for _, j := range others {
			d := r.Centroid.Dist(rooms[j].Centroid)
			if d >= maxDistance {
				continue
			}
			connections = append(connections, RoomConnection{
				Room1:     r.Label,
				Room2:     rooms[j].Label,
				Connected: true,
				Distance:  d,
				Midpoint:  geometry.Pt((r.Centroid.X+rooms[j].Centroid.X)/2, (r.Centroid.Y+rooms[j].Centroid.Y)/2),
			})
		}
	}
	return connections
}
