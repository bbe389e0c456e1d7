package world

// Occupant is the tag stored in a grid cell. The zero value is an empty cell.
type Occupant uint8

const (
	Empty Occupant = iota

	// Zones.
	Residential
	Commercial
	Industrial
	Park

	// Buildings.
	School
	Hospital
	PowerPlant
	Police
	FireStation
	Airport
	Stadium
	Mall
	University

	PowerLine

	// Road autotile variants. T-shapes are named for the missing direction,
	// corners for the two connected directions.
	RoadNone
	RoadHorizontal
	RoadVertical
	RoadCross
	RoadTeeNorth
	RoadTeeEast
	RoadTeeSouth
	RoadTeeWest
	RoadCornerNE
	RoadCornerNW
	RoadCornerSE
	RoadCornerSW

	occupantCount
)

type occupantInfo struct {
	code  string
	name  string
	glyph rune
}

var occupantTable = [occupantCount]occupantInfo{
	Empty:          {"", "Empty", '.'},
	Residential:    {"R", "Residential", 'R'},
	Commercial:     {"C", "Commercial", 'C'},
	Industrial:     {"I", "Industrial", 'I'},
	Park:           {"P", "Park", 'P'},
	School:         {"School", "School", 'S'},
	Hospital:       {"Hospital", "Hospital", 'H'},
	PowerPlant:     {"Power", "Power Plant", 'E'},
	Police:         {"Police", "Police Station", 'L'},
	FireStation:    {"Fire", "Fire Station", 'F'},
	Airport:        {"Airport", "Airport", 'A'},
	Stadium:        {"Stadium", "Stadium", 'D'},
	Mall:           {"Mall", "Mall", 'M'},
	University:     {"University", "University", 'U'},
	PowerLine:      {"PowerLine", "Power Line", '~'},
	RoadNone:       {"Road", "Road", '#'},
	RoadHorizontal: {"Road_H", "Road", '─'},
	RoadVertical:   {"Road_V", "Road", '│'},
	RoadCross:      {"Road_X", "Road", '┼'},
	RoadTeeNorth:   {"Road_T_N", "Road", '┬'},
	RoadTeeEast:    {"Road_T_E", "Road", '┤'},
	RoadTeeSouth:   {"Road_T_S", "Road", '┴'},
	RoadTeeWest:    {"Road_T_W", "Road", '├'},
	RoadCornerNE:   {"Road_NE", "Road", '└'},
	RoadCornerNW:   {"Road_NW", "Road", '┘'},
	RoadCornerSE:   {"Road_SE", "Road", '┌'},
	RoadCornerSW:   {"Road_SW", "Road", '┐'},
}

var occupantByCode = func() map[string]Occupant {
	m := make(map[string]Occupant, occupantCount)
	for o := Empty; o < occupantCount; o++ {
		m[occupantTable[o].code] = o
	}
	return m
}()

// Code is the stable serialized form of the occupant ("" for empty).
func (o Occupant) Code() string {
	if o >= occupantCount {
		return ""
	}
	return occupantTable[o].code
}

// Name is the human-readable kind name. Every road variant is "Road".
func (o Occupant) Name() string {
	if o >= occupantCount {
		return "Unknown"
	}
	return occupantTable[o].name
}

// Glyph is a single-rune display hint for text renderers.
func (o Occupant) Glyph() rune {
	if o >= occupantCount {
		return '?'
	}
	return occupantTable[o].glyph
}

func (o Occupant) String() string {
	if o == Empty {
		return "empty"
	}
	return o.Code()
}

// ParseOccupant looks up an occupant by its serialized code.
func ParseOccupant(code string) (Occupant, bool) {
	o, ok := occupantByCode[code]
	return o, ok
}

// IsZone reports whether o is one of the four zone kinds.
func (o Occupant) IsZone() bool {
	return o >= Residential && o <= Park
}

// IsDevelopable reports whether o is a zone with a building lifecycle (R/C/I).
func (o Occupant) IsDevelopable() bool {
	return o >= Residential && o <= Industrial
}

// IsBuilding reports whether o is a discrete facility (not a zone, road or line).
func (o Occupant) IsBuilding() bool {
	return o >= School && o <= University
}

// IsRoad reports whether o is any road variant.
func (o Occupant) IsRoad() bool {
	return o >= RoadNone && o <= RoadCornerSW
}
