package shared

import "math"

// NoneID is the sentinel for "no order" / "no station" in queries and
// responses. It matches the wire encoding (u32 max).
const NoneID uint32 = math.MaxUint32
