package persistence

// FilterOp is a comparison operator accepted by room queries.
type FilterOp string

const (
	OpEq  FilterOp = "eq"
	OpGt  FilterOp = "gt"
	OpGte FilterOp = "gte"
	OpLt  FilterOp = "lt"
	OpLte FilterOp = "lte"
	OpIn  FilterOp = "in"
)

// Room fields that may appear in filters and sort keys.
const (
	RoomFieldName       = "name"
	RoomFieldAddress    = "address"
	RoomFieldTel        = "tel"
	RoomFieldOpenHours  = "openHours"
	RoomFieldCloseHours = "closeHours"
	RoomFieldCreatedAt  = "createdAt"
)

// RoomFields lists the queryable room fields.
var RoomFields = []string{
	RoomFieldName,
	RoomFieldAddress,
	RoomFieldTel,
	RoomFieldOpenHours,
	RoomFieldCloseHours,
	RoomFieldCreatedAt,
}

// IsRoomField reports whether name is a queryable room field.
func IsRoomField(name string) bool {
	for _, f := range RoomFields {
		if f == name {
			return true
		}
	}
	return false
}

// RoomFilter compares one room field against one or more values. Only OpIn
// uses more than the first value.
type RoomFilter struct {
	Field  string
	Op     FilterOp
	Values []string
}

// SortField orders room results by one field.
type SortField struct {
	Field string
	Desc  bool
}

// RoomQuery describes a filtered, sorted and paginated room listing.
type RoomQuery struct {
	Filters []RoomFilter
	Sort    []SortField
	Offset  int
	Limit   int
}
