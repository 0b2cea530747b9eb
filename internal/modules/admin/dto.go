package admin

// CreateSlotInput holds the raw form values; times are wall-clock strings
// in TimeZone (IANA name), or in the configured input zone when empty.
type CreateSlotInput struct {
	Start    string `form:"start"`
	End      string `form:"end"`
	Note     string `form:"note"`
	TimeZone string `form:"tz"`
}

type setActiveForm struct {
	Active string `form:"active"`
}
