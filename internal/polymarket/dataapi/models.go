package dataapi

// PositionParams holds parameters for the GetPositions call
type PositionParams struct {
	User          string
	Limit         int
	SizeThreshold float64
}
